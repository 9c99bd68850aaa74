// Package output writes compiled models to disk.
package output

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cogentcore.org/core/base/indent"
	"github.com/iancoleman/strcase"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/modelbake/pkg/compile"
	"github.com/Faultbox/modelbake/pkg/value"
)

// Literal selects the source-literal renderer instead of a manifest format.
const Literal = "literal"

// File extensions of the written documents.
const (
	ManifestExt     = ".model"
	YAMLManifestExt = ".model.yaml"
	LiteralExt      = ".js"
)

// Output errors.
var (
	// ErrUnknownFormat is returned for an Options.Format no renderer handles.
	ErrUnknownFormat = errors.New("unknown output format")
	// ErrInvalidFileName is returned when a model or payload name would not
	// stay a single file inside Options.Dir.
	ErrInvalidFileName = errors.New("invalid output file name")
)

// Options controls rendering and placement.
type Options struct {
	Dir    string // created when missing
	Format string // json (default), yaml or literal
	Indent int    // manifest indent width

	Declaration string
	IndentChar  indent.Character
	IndentWidth int

	Logger *zap.Logger
}

// Result lists the files a Write produced.
type Result struct {
	Document string
	Payload  string // empty for literal output
	Bytes    int
}

type file struct {
	path string
	data []byte
}

// Write renders m and stores it under opts.Dir. Manifest formats produce a
// payload file named by m.Data plus <name>.model (or .model.yaml); literal
// output produces <name>.js with the buffers inline. Either every file is
// written or none is.
func Write(m *compile.Model, opts Options) (*Result, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	for _, name := range []string{m.Name, m.Data} {
		if err := checkFileName(name); err != nil {
			return nil, err
		}
	}

	files, err := render(m, opts)
	if err != nil {
		return nil, fmt.Errorf("rendering %s: %w", m.Name, err)
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, err
	}
	if err := writeAll(opts.Dir, files); err != nil {
		return nil, fmt.Errorf("writing %s: %w", m.Name, err)
	}

	res := &Result{Document: filepath.Join(opts.Dir, files[len(files)-1].path)}
	if len(files) > 1 {
		res.Payload = filepath.Join(opts.Dir, files[0].path)
	}
	for _, f := range files {
		res.Bytes += len(f.data)
	}
	log.Debug("wrote model",
		zap.String("model", m.Name),
		zap.String("document", res.Document),
		zap.Int("bytes", res.Bytes))
	return res, nil
}

// render returns the files for m, payload first.
func render(m *compile.Model, opts Options) ([]file, error) {
	root := m.Manifest()

	if opts.Format == Literal {
		r := value.LiteralRenderer{
			Declaration: opts.Declaration,
			IndentChar:  opts.IndentChar,
			IndentWidth: opts.IndentWidth,
		}
		doc, err := r.Render(VariableName(m.Name), root)
		if err != nil {
			return nil, err
		}
		return []file{{path: m.Name + LiteralExt, data: doc}}, nil
	}

	format, err := value.ParseFormat(opts.Format)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, opts.Format)
	}
	r := value.ManifestRenderer{Format: format, Indent: opts.Indent}
	out, err := r.Render(root)
	if err != nil {
		return nil, err
	}

	ext := ManifestExt
	if format == value.FormatYAML {
		ext = YAMLManifestExt
	}
	return []file{
		{path: m.Data, data: out.Payload},
		{path: m.Name + ext, data: out.Document},
	}, nil
}

// checkFileName accepts plain file names only: no separators, no "." or
// "..", no NUL.
func checkFileName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, "/\\\x00") {
		return fmt.Errorf("%w: %q", ErrInvalidFileName, name)
	}
	return nil
}

// VariableName turns a model name into the lowerCamel identifier used by
// literal output. Names that are not identifiers or are reserved words get a
// leading '_'.
func VariableName(name string) string {
	id := strcase.ToLowerCamel(name)
	if !value.IsIdentifier(id) || value.IsReserved(id) {
		id = "_" + id
	}
	return id
}

// writeAll stages every file as a temp file in dir, then renames them into
// place in order. On any failure the temp files and already renamed targets
// are removed.
func writeAll(dir string, files []file) (err error) {
	temps := make([]string, 0, len(files))
	var placed []string
	defer func() {
		if err == nil {
			return
		}
		for _, p := range append(temps, placed...) {
			if rmErr := os.Remove(p); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
				err = multierr.Append(err, rmErr)
			}
		}
	}()

	for _, f := range files {
		tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.path)+"-*.tmp")
		if err != nil {
			return err
		}
		temps = append(temps, tmp.Name())
		_, werr := tmp.Write(f.data)
		if err := multierr.Combine(werr, tmp.Close()); err != nil {
			return err
		}
	}

	for i, f := range files {
		target := filepath.Join(dir, f.path)
		if err := os.Rename(temps[i], target); err != nil {
			return err
		}
		placed = append(placed, target)
	}
	return nil
}

// Package source loads model files into in-memory scene graphs.
package source

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/modelbake/pkg/scene"
)

// ErrUnsupportedFormat is returned for files with an unknown extension.
var ErrUnsupportedFormat = errors.New("unsupported model format")

// Options controls how a source file becomes a scene.
type Options struct {
	// Name overrides the root node name. Defaults to the file's base name.
	Name string
	// AnimTimeMs samples RSM keyframes at this time.
	AnimTimeMs float32
	// TwoSided emits a back face for every RSM face, not only flagged ones.
	TwoSided bool
	// ReverseWinding flips RSM triangle winding, for mirrored models.
	ReverseWinding bool
	// Logger receives load diagnostics. Nil means no logging.
	Logger *zap.Logger
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// BaseName returns the file name of path without directory or extension.
func BaseName(p string) string {
	base := path.Base(strings.ReplaceAll(p, "\\", "/"))
	return strings.TrimSuffix(base, path.Ext(base))
}

// Supported reports whether Open understands the file's extension.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gltf", ".glb", ".rsm":
		return true
	}
	return false
}

// Open loads a model file, choosing the adapter by extension.
func Open(path string, opts Options) (*scene.Graph, error) {
	if opts.Name == "" {
		opts.Name = BaseName(path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".gltf", ".glb":
		return LoadGLTF(path, opts)
	case ".rsm":
		return LoadRSM(path, opts)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

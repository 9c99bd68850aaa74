package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"path"
	"path/filepath"

	"cogentcore.org/core/base/indent"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/modelbake/internal/assets"
	"github.com/Faultbox/modelbake/internal/config"
	"github.com/Faultbox/modelbake/internal/logger"
	"github.com/Faultbox/modelbake/internal/output"
	"github.com/Faultbox/modelbake/internal/source"
	"github.com/Faultbox/modelbake/pkg/compile"
	"github.com/Faultbox/modelbake/pkg/scene"
)

// outputFlags registers the flags shared by commands that write models.
func outputFlags(fs *flag.FlagSet, cfg *config.Config) {
	fs.StringVar(&cfg.Output.Dir, "o", cfg.Output.Dir, "Output directory")
	fs.StringVar(&cfg.Output.Format, "format", cfg.Output.Format, "Output format: json, yaml or literal")
}

// parseArgs parses fs from args, allowing flags after positional arguments.
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		args = fs.Args()
		if len(args) == 0 {
			return positional, nil
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
}

func sourceOptions(cfg *config.Config) source.Options {
	return source.Options{
		AnimTimeMs:     cfg.Compile.AnimTimeMs,
		TwoSided:       cfg.Compile.TwoSided,
		ReverseWinding: cfg.Compile.ReverseWinding,
		Logger:         logger.Named("source"),
	}
}

func outputOptions(cfg *config.Config, dir string) output.Options {
	ich := indent.Tab
	if cfg.Output.IndentChar == "space" {
		ich = indent.Space
	}
	return output.Options{
		Dir:         dir,
		Format:      cfg.Output.Format,
		Indent:      cfg.Output.Indent,
		Declaration: cfg.Output.Declaration,
		IndentChar:  ich,
		IndentWidth: cfg.Output.IndentWidth,
		Logger:      logger.Named("output"),
	}
}

// bake compiles one loaded scene and writes it to dir.
func bake(cfg *config.Config, g *scene.Graph, dir string) (*output.Result, error) {
	m, err := compile.Compile(g, compile.Options{Logger: logger.Named("compile")})
	if err != nil {
		return nil, err
	}
	return output.Write(m, outputOptions(cfg, dir))
}

func cmdCompile(cfg *config.Config, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("compile", flag.ContinueOnError)
	outputFlags(fs, cfg)
	name := fs.String("name", "", "Model name (defaults to the file name)")
	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(positional) != 1 {
		fmt.Fprintln(fs.Output(), "Usage: modelbake compile <scene> [-o dir] [-format json|yaml|literal] [-name name]")
		return errUsage
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	opts := sourceOptions(cfg)
	opts.Name = *name
	g, err := source.Open(positional[0], opts)
	if err != nil {
		return err
	}

	res, err := bake(cfg, g, cfg.Output.Dir)
	if err != nil {
		return fmt.Errorf("compiling %s: %w", positional[0], err)
	}

	fmt.Fprintf(stdout, "Wrote %s", res.Document)
	if res.Payload != "" {
		fmt.Fprintf(stdout, " and %s", res.Payload)
	}
	fmt.Fprintf(stdout, " (%d bytes)\n", res.Bytes)
	return nil
}

// errBatch reports how many models of a batch failed.
var errBatch = errors.New("batch had failures")

func cmdGRF(cfg *config.Config, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("grf", flag.ContinueOnError)
	outputFlags(fs, cfg)
	fs.StringVar(&cfg.Data.Pattern, "pattern", cfg.Data.Pattern, "Archive path pattern")
	quiet := fs.Bool("q", false, "Hide the progress bar")
	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	archives := cfg.Data.GRFPaths
	if len(positional) > 0 {
		archives = positional
	}
	if len(archives) == 0 {
		fmt.Fprintln(fs.Output(), "Usage: modelbake grf [-o dir] [-format f] [-pattern p] [archive.grf...]")
		return errUsage
	}

	manager, err := assets.Open(archives...)
	if err != nil {
		return err
	}
	defer manager.Close()

	compiled, failed, err := bakeArchive(cfg, manager, *quiet, stderr)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Compiled %d models, %d failed\n", compiled, failed)
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d models", errBatch, failed, compiled+failed)
	}
	return nil
}

// bakeArchive compiles every supported model matching the configured
// pattern. A model that fails is logged and skipped.
func bakeArchive(cfg *config.Config, manager *assets.Manager, quiet bool, stderr io.Writer) (compiled, failed int, err error) {
	matches, err := manager.Glob(cfg.Data.Pattern)
	if err != nil {
		return 0, 0, err
	}
	var models []string
	for _, m := range matches {
		if source.Supported(m) {
			models = append(models, m)
		}
	}
	logger.Info("compiling archives",
		zap.Int("archives", manager.Len()),
		zap.String("pattern", cfg.Data.Pattern),
		zap.Int("models", len(models)))

	barOut := stderr
	if quiet {
		barOut = io.Discard
	}
	bar := progressbar.NewOptions(len(models),
		progressbar.OptionSetWriter(barOut),
		progressbar.OptionSetDescription("models"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	defer bar.Close()

	for _, name := range models {
		if err := bakeArchived(cfg, manager, name); err != nil {
			logger.Warn("skipping model", zap.String("model", name), zap.Error(err))
			failed++
		} else {
			compiled++
		}
		_ = bar.Add(1)
	}
	return compiled, failed, nil
}

func bakeArchived(cfg *config.Config, archive source.Archive, name string) error {
	g, err := source.LoadArchived(archive, name, sourceOptions(cfg))
	if err != nil {
		return err
	}
	// Keep the archive's directory layout so equal base names do not clash.
	dir := filepath.Join(cfg.Output.Dir, filepath.FromSlash(path.Dir(name)))
	_, err = bake(cfg, g, dir)
	return err
}

func cmdInspect(cfg *config.Config, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(positional) != 1 {
		fmt.Fprintln(fs.Output(), "Usage: modelbake inspect <scene>")
		return errUsage
	}

	g, err := source.Open(positional[0], sourceOptions(cfg))
	if err != nil {
		return err
	}
	m, err := compile.Compile(g, compile.Options{Logger: logger.Named("compile")})
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Model:    %s\n", m.Name)
	fmt.Fprintf(stdout, "Layout:   %s (stride %d bytes)\n", m.Layout, m.Layout.StrideBytes())
	fmt.Fprintf(stdout, "Vertices: %d\n", m.VertexCount)
	fmt.Fprintf(stdout, "Indices:  %d (%s)\n", m.IndexCount, m.IndexWidth)
	if m.HasBounds {
		fmt.Fprintf(stdout, "Bounds:   min %v max %v\n", m.Bounds.Min(), m.Bounds.Max())
	}
	fmt.Fprintf(stdout, "Objects:  %d\n", len(m.Objects))
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Meshes:")
	for _, mesh := range m.Meshes {
		material := "-"
		if mesh.Material >= 0 {
			material = m.Materials[mesh.Material].Name
		}
		fmt.Fprintf(stdout, "  %-24s %6d vertices %6d indices  %s\n",
			mesh.Name, mesh.VertexCount, mesh.IndexCount, material)
	}
	if diag := m.Diagnostics(); diag != nil {
		fmt.Fprintln(stdout)
		fmt.Fprintln(stdout, "Diagnostics:")
		for _, err := range multierr.Errors(diag) {
			fmt.Fprintf(stdout, "  %v\n", err)
		}
	}
	return nil
}

func cmdInitConfig(cfg *config.Config, args []string, stdout io.Writer) error {
	if len(args) > 1 {
		fmt.Fprintln(stdout, "Usage: modelbake init-config [path]")
		return errUsage
	}
	if len(args) == 0 {
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Wrote %s\n", filepath.Join(config.ConfigDir(), "config.yaml"))
		return nil
	}
	if err := cfg.SaveTo(args[0]); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Wrote %s\n", args[0])
	return nil
}

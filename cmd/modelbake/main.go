// modelbake compiles 3D scenes into a packed vertex/index payload plus a
// manifest describing its layout.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/modelbake/internal/config"
	"github.com/Faultbox/modelbake/internal/logger"
)

var errUsage = errors.New("usage")

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, flag.Args(), os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errUsage) {
			logger.Error("command failed", zap.Error(err))
		}
		logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, args []string, stdout, stderr io.Writer) error {
	if len(args) < 1 {
		printUsage(stderr)
		return errUsage
	}

	command := args[0]
	args = args[1:]

	switch command {
	case "compile", "c":
		return cmdCompile(cfg, args, stdout)
	case "grf":
		return cmdGRF(cfg, args, stdout, stderr)
	case "inspect", "info":
		return cmdInspect(cfg, args, stdout)
	case "init-config":
		return cmdInitConfig(cfg, args, stdout)
	case "help", "-h", "--help":
		printUsage(stdout)
		return nil
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", command)
		printUsage(stderr)
		return errUsage
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `modelbake - compile 3D scenes into packed model buffers

Usage:
  modelbake [-config file] [-debug] [-log file] <command> [options]

Commands:
  compile <scene> [-o dir] [-format f]          Compile a .gltf, .glb or .rsm file
  grf [-o dir] [-pattern p] [archive...]        Compile every matching model in layered archives
  inspect <scene>                               Print layout and counts without writing
  init-config [path]                            Write the effective config

Formats: json (default), yaml, literal

Examples:
  modelbake compile tree.glb -o build
  modelbake -debug compile -format yaml data/model/prontera/house.rsm
  modelbake grf -o build -pattern "data/model/prontera/*.rsm" data.grf rdata.grf
  modelbake inspect tree.glb`)
}

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Output.Dir != "." {
		t.Errorf("expected output dir '.', got %s", cfg.Output.Dir)
	}
	if cfg.Output.Format != FormatJSON {
		t.Errorf("expected format json, got %s", cfg.Output.Format)
	}
	if cfg.Output.Indent != 4 {
		t.Errorf("expected indent 4, got %d", cfg.Output.Indent)
	}
	if cfg.Output.Declaration != "const" {
		t.Errorf("expected declaration const, got %s", cfg.Output.Declaration)
	}
	if cfg.Output.IndentChar != "tab" || cfg.Output.IndentWidth != 2 {
		t.Errorf("expected tab indent of width 2, got %s/%d", cfg.Output.IndentChar, cfg.Output.IndentWidth)
	}

	if cfg.Compile.TwoSided || cfg.Compile.ReverseWinding {
		t.Error("expected face options to be off by default")
	}

	if cfg.Data.Pattern != "data/model/*/*.rsm" {
		t.Errorf("unexpected default pattern %s", cfg.Data.Pattern)
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "modelbake.yaml")

	yamlContent := `
output:
  dir: "out"
  format: "literal"
  declaration: "let"
  indent_char: "space"
  indent_width: 4

compile:
  two_sided: true
  anim_time_ms: 250

data:
  grf_paths: ["a.grf", "b.grf"]

logging:
  level: "debug"
  log_file: "bake.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Output.Dir != "out" {
		t.Errorf("expected dir out, got %s", cfg.Output.Dir)
	}
	if cfg.Output.Format != FormatLiteral {
		t.Errorf("expected literal format, got %s", cfg.Output.Format)
	}
	if cfg.Output.Declaration != "let" {
		t.Errorf("expected let, got %s", cfg.Output.Declaration)
	}
	if cfg.Output.IndentChar != "space" || cfg.Output.IndentWidth != 4 {
		t.Errorf("expected 4 spaces, got %s/%d", cfg.Output.IndentChar, cfg.Output.IndentWidth)
	}
	if cfg.Output.Indent != 4 {
		t.Errorf("expected untouched indent 4, got %d", cfg.Output.Indent)
	}
	if !cfg.Compile.TwoSided {
		t.Error("expected two_sided to be true")
	}
	if cfg.Compile.AnimTimeMs != 250 {
		t.Errorf("expected anim time 250, got %v", cfg.Compile.AnimTimeMs)
	}
	if len(cfg.Data.GRFPaths) != 2 || cfg.Data.GRFPaths[1] != "b.grf" {
		t.Errorf("unexpected grf paths %v", cfg.Data.GRFPaths)
	}
	if cfg.Data.Pattern != "data/model/*/*.rsm" {
		t.Errorf("expected default pattern to survive, got %s", cfg.Data.Pattern)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "bake.log" {
		t.Errorf("expected log file 'bake.log', got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromTOML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "modelbake.toml")

	tomlContent := `
[output]
dir = "build"
format = "yaml"
indent = 2

[compile]
reverse_winding = true

[data]
pattern = "data/model/*.rsm"
`

	if err := os.WriteFile(configPath, []byte(tomlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Output.Dir != "build" || cfg.Output.Format != FormatYAML || cfg.Output.Indent != 2 {
		t.Errorf("unexpected output config %+v", cfg.Output)
	}
	if !cfg.Compile.ReverseWinding {
		t.Error("expected reverse_winding to be true")
	}
	if cfg.Data.Pattern != "data/model/*.rsm" {
		t.Errorf("unexpected pattern %s", cfg.Data.Pattern)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected default level to survive, got %s", cfg.Logging.Level)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()

	files := map[string]string{
		"invalid.yaml": "output:\n  indent: not a number\n  invalid syntax here\n",
		"invalid.toml": "[output\nindent = \"x\"\n",
	}
	for name, content := range files {
		configPath := filepath.Join(tmpDir, name)
		if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cfg := Default()
		if err := loadFromFile(cfg, configPath); err == nil {
			t.Errorf("%s: expected error, got nil", name)
		}
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	err := loadFromFile(cfg, "/nonexistent/path/modelbake.yaml")
	if err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"format", func(c *Config) { c.Output.Format = "xml" }},
		{"declaration", func(c *Config) { c.Output.Declaration = "static" }},
		{"indent char", func(c *Config) { c.Output.IndentChar = "nbsp" }},
		{"negative indent", func(c *Config) { c.Output.Indent = -1 }},
		{"level", func(c *Config) { c.Logging.Level = "verbose" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	tmpDir := t.TempDir()
	t.Chdir(tmpDir)

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	configPath := filepath.Join(tmpDir, "modelbake.toml")
	if err := os.WriteFile(configPath, []byte("[output]\ndir = \"x\"\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}
	if path := findConfigFile(); path != "./modelbake.toml" {
		t.Errorf("expected ./modelbake.toml, got %q", path)
	}

	configPath = filepath.Join(tmpDir, "modelbake.yaml")
	if err := os.WriteFile(configPath, []byte("output:\n  dir: x\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}
	if path := findConfigFile(); path != "./modelbake.yaml" {
		t.Errorf("expected yaml to win, got %q", path)
	}
}

func TestApplyFlags(t *testing.T) {
	*flagDebug = true
	*flagLogFile = "run.log"
	defer func() {
		*flagDebug = false
		*flagLogFile = ""
	}()

	cfg := Default()
	applyFlags(cfg)

	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "run.log" {
		t.Errorf("expected log file run.log, got %s", cfg.Logging.LogFile)
	}
}

func TestLoadPriority(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "modelbake.yaml")

	yamlContent := `
output:
  dir: "from-file"
logging:
  level: "warn"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	*flagDebug = true
	defer func() {
		*flagConfig = ""
		*flagDebug = false
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Level comes from the flag, not the file.
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected level debug from flag, got %s", cfg.Logging.Level)
	}
	if cfg.Output.Dir != "from-file" {
		t.Errorf("expected dir from file, got %s", cfg.Output.Dir)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "modelbake.yaml")
	if err := os.WriteFile(configPath, []byte("output:\n  format: xml\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	defer func() { *flagConfig = "" }()

	if _, err := Load(); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{"nested/config.yaml", "nested/config.toml"} {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			cfg.Output.Format = FormatYAML
			cfg.Compile.AnimTimeMs = 125
			cfg.Data.GRFPaths = []string{"x.grf"}

			path := filepath.Join(dir, name)
			if err := cfg.SaveTo(path); err != nil {
				t.Fatalf("SaveTo: %v", err)
			}

			loaded := &Config{}
			if err := loadFromFile(loaded, path); err != nil {
				t.Fatalf("loading saved config: %v", err)
			}
			if loaded.Output != cfg.Output {
				t.Errorf("output = %+v, want %+v", loaded.Output, cfg.Output)
			}
			if loaded.Compile != cfg.Compile {
				t.Errorf("compile = %+v, want %+v", loaded.Compile, cfg.Compile)
			}
			if len(loaded.Data.GRFPaths) != 1 || loaded.Data.GRFPaths[0] != "x.grf" {
				t.Errorf("grf paths = %v", loaded.Data.GRFPaths)
			}
		})
	}
}

// config.go: YAML configuration for embedders and the CLI.
//
// A config file looks like
//
//	prelude:
//	  disabled: false
//	  path: ./my-prelude.schem
//	log:
//	  level: debug        # debug | info | warn | error
//	  format: json        # text | json
//	repl:
//	  history_file: ~/.schem_history
//	  prompt: "schem> "
//	  color: true
//
// Unknown keys are rejected. Missing keys take the values of DefaultConfig.
package schem

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Prelude PreludeConfig `yaml:"prelude"`
	Log     LogConfig     `yaml:"log"`
	REPL    REPLConfig    `yaml:"repl"`
}

type PreludeConfig struct {
	Disabled bool   `yaml:"disabled"`
	Path     string `yaml:"path"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type REPLConfig struct {
	HistoryFile string `yaml:"history_file"`
	Prompt      string `yaml:"prompt"`
	Color       *bool  `yaml:"color"`
}

// DefaultConfig returns the built-in defaults. repl.color is left unset and
// reads as true through ColorEnabled.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{Level: "warn", Format: "text"},
		REPL: REPLConfig{
			HistoryFile: "~/.schem_history",
			Prompt:      "schem> ",
		},
	}
}

// LoadConfig reads the YAML file at path. An empty path yields the defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	abs, err := filepath.Abs(expandHome(path))
	if err != nil {
		return nil, fmt.Errorf("config: resolve %s: %w", path, err)
	}
	file, err := os.Open(abs)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	cfg, err := ParseConfig(file)
	if err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", abs, err)
	}
	if cfg.Prelude.Path != "" && !filepath.IsAbs(expandHome(cfg.Prelude.Path)) {
		cfg.Prelude.Path = filepath.Join(filepath.Dir(abs), cfg.Prelude.Path)
	}
	return cfg, nil
}

// ParseConfig decodes YAML from r and fills unset fields from DefaultConfig.
func ParseConfig(r io.Reader) (*Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if err := mergo.Merge(&cfg, DefaultConfig()); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ColorEnabled reports the effective repl.color setting.
func (c *Config) ColorEnabled() bool { return c.REPL.Color == nil || *c.REPL.Color }

// HistoryPath is repl.history_file with a leading ~ expanded.
func (c *Config) HistoryPath() string { return expandHome(c.REPL.HistoryFile) }

// Logger builds the slog logger described by the log section, writing to w.
func (c *Config) Logger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return nil, fmt.Errorf("config: log.level: %w", err)
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

// Options converts the config into interpreter options. Logs go to logOut.
func (c *Config) Options(logOut io.Writer) ([]Option, error) {
	logger, err := c.Logger(logOut)
	if err != nil {
		return nil, err
	}
	opts := []Option{WithLogger(logger)}
	switch {
	case c.Prelude.Disabled:
		opts = append(opts, WithoutPrelude())
	case c.Prelude.Path != "":
		opts = append(opts, WithPreludeFile(expandHome(c.Prelude.Path)))
	}
	return opts, nil
}

func (c *Config) validate() error {
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

// Package config reads the optional stepdefs.toml project file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/olehluchkiv/stepdefs/internal/logging"
	"github.com/olehluchkiv/stepdefs/internal/report"
)

// FileName is looked up in the analyzed module root.
const FileName = "stepdefs.toml"

// Config is the merged project configuration.
type Config struct {
	Patterns []string `toml:"patterns"` // package patterns to load
	Contexts []string `toml:"contexts"` // context type names; empty means all
	Format   string   `toml:"format"`   // report format
	Tests    bool     `toml:"tests"`    // load _test.go files
	Download bool     `toml:"download"` // run go mod download before loading
	NoColor  bool     `toml:"no_color"`
	Log      Log      `toml:"log"`
}

type Log struct {
	Level  string `toml:"level"`
	File   string `toml:"file"`
	Format string `toml:"format"`
}

func Default() Config {
	return Config{
		Patterns: []string{"./..."},
		Format:   "table",
		Log: Log{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load decodes path over the defaults. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("reading %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return cfg, nil
}

// Discover loads dir/stepdefs.toml when present and returns the defaults
// otherwise. The returned path is empty when no file was read.
func Discover(dir string) (Config, string, error) {
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Default(), "", nil
	}
	cfg, err := Load(path)
	if err != nil {
		return Config{}, "", err
	}
	return cfg, path, nil
}

// Validate checks enumerated values.
func (c Config) Validate() error {
	if !slices.Contains(report.Formats(), c.Format) {
		return fmt.Errorf("unknown format: %s (valid: %s)", c.Format, strings.Join(report.Formats(), ", "))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("unknown log format: %s (valid: json, text)", c.Log.Format)
	}
	if len(c.Patterns) == 0 {
		return errors.New("at least one package pattern is required")
	}
	return nil
}

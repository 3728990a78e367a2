// Package config loads the prism.yaml configuration file.
//
// Every field has a working default, so the file is optional: commands run
// with built-in settings when no file exists, and a partial file overrides
// only the keys it names.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/prism-ml/prism/internal/viz"
)

// FileName is the config file looked up in the working directory and in
// the user config directory under the prism/ subfolder.
const FileName = "prism.yaml"

// Config holds all prism configuration.
type Config struct {
	Model     ModelConfig     `yaml:"model"`
	Tokenizer TokenizerConfig `yaml:"tokenizer"`
	Output    OutputConfig    `yaml:"output"`
	Viz       VizConfig       `yaml:"viz"`
}

// ModelConfig selects the encoder weights.
type ModelConfig struct {
	// Path points at a checkpoint (.prism or .safetensors) or at a model
	// directory holding config.json plus model.safetensors. Empty means
	// random weights from the preset.
	Path string `yaml:"path"`

	// Preset names the architecture for random weights: tiny, base or
	// bert-base.
	Preset string `yaml:"preset"`

	// Seed makes random weights reproducible.
	Seed int64 `yaml:"seed"`
}

// TokenizerConfig selects the tokenizer used when the model ships none.
type TokenizerConfig struct {
	// Encoding is a tiktoken encoding name.
	Encoding string `yaml:"encoding"`
}

// OutputConfig places generated artifacts.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// VizConfig sets rendering defaults, overridable per command with flags.
type VizConfig struct {
	Colormap  string `yaml:"colormap"`
	Normalize string `yaml:"normalize"`
	CellSize  int    `yaml:"cell_size"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Model: ModelConfig{
			Preset: "tiny",
			Seed:   42,
		},
		Tokenizer: TokenizerConfig{
			Encoding: "cl100k_base",
		},
		Output: OutputConfig{
			Dir: "out",
		},
		Viz: VizConfig{
			Colormap:  "viridis",
			Normalize: "none",
		},
	}
}

// Load reads the config at path, layered over the defaults. A missing file
// is not an error; the defaults apply. An empty path searches the working
// directory and the user config directory.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = findConfig()
		if path == "" {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path) //nolint:gosec // G304: config path comes from user input, which is expected
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to path, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Validate checks field values against the names the renderers and model
// presets accept.
func (c *Config) Validate() error {
	switch c.Model.Preset {
	case "", "tiny", "base", "bert-base":
	default:
		return fmt.Errorf("unknown model preset %q, expected %q, %q or %q", c.Model.Preset, "tiny", "base", "bert-base")
	}
	if _, err := viz.ParseColormap(c.Viz.Colormap); err != nil {
		return err
	}
	if _, err := viz.ParseNormalize(c.Viz.Normalize); err != nil {
		return err
	}
	if c.Viz.CellSize < 0 {
		return fmt.Errorf("cell_size must not be negative, got %d", c.Viz.CellSize)
	}
	return nil
}

// findConfig returns the first existing config file: the working directory
// first, then the user config directory.
func findConfig() string {
	if _, err := os.Stat(FileName); err == nil {
		return FileName
	}
	if dir, err := os.UserConfigDir(); err == nil {
		path := filepath.Join(dir, "prism", FileName)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("PRISM_MODEL"); v != "" {
		c.Model.Path = v
	}
	if v := os.Getenv("PRISM_OUTPUT_DIR"); v != "" {
		c.Output.Dir = v
	}
}

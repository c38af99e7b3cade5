package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration. LibraryDir and
// BlinkDir come from the command line, the rest may come from an
// optional YAML config file overridden by flags.
type Config struct {
	App   ApplicationConfig `yaml:"app"`
	Flats FlatsConfig       `yaml:"flats"`
	Run   RunConfig         `yaml:"run"`

	LibraryDir string `yaml:"-"`
	BlinkDir   string `yaml:"-"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.LibraryDir, validation.Required),
		validation.Field(&c.BlinkDir, validation.Required),
	); err != nil {
		return err
	}
	return c.Flats.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
}

// FlatsConfig controls the flexible flat matching subsystem. An empty
// StatePath disables it: without a state store there is no cutoff and no
// interactive fallback.
type FlatsConfig struct {
	StatePath   string `yaml:"state_path"`
	PickerLimit int    `yaml:"picker_limit"`
}

// Validate validates the flats configuration.
func (c *FlatsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.PickerLimit, validation.Required, validation.Min(1), validation.Max(50)),
	)
}

// RunConfig holds the per-run behaviour switches.
type RunConfig struct {
	DryRun    bool `yaml:"dry_run"`
	Quiet     bool `yaml:"quiet"`
	AllowBias bool `yaml:"allow_bias"`
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
		},
		Flats: FlatsConfig{
			PickerLimit: 5,
		},
	}
}

// LoadConfig merges the YAML file at path into cfg, expanding
// environment variables first. A missing file is not an error; the
// defaults stand.
func LoadConfig(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

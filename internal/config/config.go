package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/hvalle/optimg/internal/optimizer"
)

// DefaultWorkers is the batch-mode parallelism when none is configured.
const DefaultWorkers = 4

// EnvConfigPath names the environment variable that may point at a defaults
// file, mirroring the -config flag.
const EnvConfigPath = "OPTIMG_CONFIG"

// Config holds the tool defaults an optional YAML file may override. Flags
// always win over file values.
type Config struct {
	Quality   int    `yaml:"quality" validate:"min=0,max=100"`
	Format    string `yaml:"format" validate:"oneof=webp jpeg png"`
	MaxSizeKB int    `yaml:"maxSizeKB" validate:"min=1"`
	Workers   int    `yaml:"workers" validate:"min=1"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Quality:   optimizer.DefaultQuality,
		Format:    "webp",
		MaxSizeKB: optimizer.DefaultMaxSizeKB,
		Workers:   DefaultWorkers,
	}
}

// Load reads defaults from the specified YAML file, filling unset fields from
// the built-in defaults and validating the result.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	if err := validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", configPath, err)
	}

	return config, nil
}

// Resolve returns the effective defaults. An explicit path must exist; the
// env-provided location is used when present and silently skipped when the
// file is absent.
func Resolve(explicitPath string) (*Config, error) {
	if explicitPath != "" {
		return Load(explicitPath)
	}

	if envPath := os.Getenv(EnvConfigPath); envPath != "" {
		cfg, err := Load(envPath)
		if err != nil && errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return cfg, err
	}

	return Default(), nil
}

// Package config loads the batch runner configuration from a YAML file with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"image-transformations/internal/transformation"
)

const (
	EnvPrefix     = "TRANSFORM"
	EnvConfigFile = EnvPrefix + "_CONFIG_FILE"
)

// Transformation is one configured selector.
type Transformation struct {
	Kind  string `yaml:"kind"`
	Param string `yaml:"param"`
	Size  string `yaml:"size"`
}

// Selector builds the selector described by t.
func (t Transformation) Selector(opts ...transformation.Option) *transformation.Selector {
	return transformation.New(t.Kind, t.Param, t.Size, opts...)
}

type Config struct {
	Input           string           `envconfig:"INPUT"     yaml:"input"`
	Output          string           `envconfig:"OUTPUT"    yaml:"output"`
	Workers         int              `envconfig:"WORKERS"   yaml:"workers"`
	Overwrite       bool             `envconfig:"OVERWRITE" yaml:"overwrite"`
	Evaluate        bool             `envconfig:"EVALUATE"  yaml:"evaluate"`
	Transformations []Transformation `ignored:"true"        yaml:"transformations"`
}

// Default returns the configuration used for fields the file leaves unset.
func Default() Config {
	return Config{
		Input:   "scenes",
		Output:  "generated",
		Workers: 4,
	}
}

// Load reads path (or $TRANSFORM_CONFIG_FILE when path is empty), then
// applies TRANSFORM_* environment overrides and validates the result.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}
	if path == "" {
		return nil, fmt.Errorf("no config file given (set --config or %s)", EnvConfigFile)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes YAML config data, applies environment overrides and
// validates the result.
func Parse(data []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decoding yaml: %w", err)
	}

	if err := envconfig.Process(EnvPrefix, &c); err != nil {
		return nil, fmt.Errorf("parsing environment variables: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks the directories, worker count and every transformation.
func (c *Config) Validate() error {
	var errs []error
	if c.Input == "" {
		errs = append(errs, errors.New("input directory is required"))
	}
	if c.Output == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be positive, got %d", c.Workers))
	}
	if len(c.Transformations) == 0 {
		errs = append(errs, errors.New("at least one transformation is required"))
	}
	for i, t := range c.Transformations {
		if err := t.Selector().Validate(); err != nil {
			errs = append(errs, fmt.Errorf("transformation %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

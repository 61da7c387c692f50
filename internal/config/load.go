package config

import (
	"fmt"
	"io"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Load reads path, applies SOCIAL_* environment overrides and defaults.
// When the file cannot be opened the returned config is still usable
// (environment + defaults) and the open error is returned alongside it.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		var cfg Config
		if envErr := env.Parse(&cfg); envErr != nil {
			return nil, fmt.Errorf("parse env: %w", envErr)
		}
		cfg.Defaults()
		return &cfg, err
	}
	defer f.Close()
	return FromReader(f)
}

func FromReader(r io.Reader) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return nil, err
	}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.Defaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

package config

import (
	"errors"
	"fmt"
	"io/fs"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
)

// configBuilder collects configuration sources. configs are merged in the
// order they were added; overrides (flags) are merged last so they win over
// a config file that they may themselves point to.
type configBuilder struct {
	configs   []*StructuredConfig
	overrides []*StructuredConfig
	dotEnv    string
	err       error
}

func newConfigBuilder() *configBuilder {
	return &configBuilder{
		configs: make([]*StructuredConfig, 0, 4),
		dotEnv:  ".env",
	}
}

func (b *configBuilder) build() (*StructuredConfig, error) {
	if b.err != nil {
		return nil, fmt.Errorf("error occured during building config: %w", b.err)
	}

	config := new(StructuredConfig)
	for _, cfg := range append(b.configs, b.overrides...) {
		if err := mergo.Merge(config, cfg, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("error merging configs: %w", err)
		}
	}

	return config, nil
}

// withDotEnv loads variables from the .env file into the process environment.
// Variables that are already set are not overwritten. A missing file is fine.
func (b *configBuilder) withDotEnv() *configBuilder {
	if err := loadDotEnv(b.dotEnv); err != nil {
		b.err = errors.Join(b.err, err)
	}
	return b
}

func (b *configBuilder) withEnv() *configBuilder {
	envCfg := &StructuredConfig{}
	if err := parseEnv(envCfg); err != nil {
		b.err = errors.Join(b.err, err)
		return b
	}

	b.configs = append(b.configs, envCfg)
	return b
}

func (b *configBuilder) withFlags(args []string) *configBuilder {
	flags, err := ParseFlags(args)
	if err != nil {
		b.err = errors.Join(b.err, err)
		return b
	}

	b.overrides = append(b.overrides, flags)
	return b
}

func (b *configBuilder) withOverlay(overlay *StructuredConfig) *configBuilder {
	if overlay != nil {
		b.overrides = append(b.overrides, overlay)
	}
	return b
}

// withFile parses the config file named by any source added so far. Flags
// take precedence over the environment when both name a file.
func (b *configBuilder) withFile() *configBuilder {
	var path string
	for _, cfg := range append(b.configs, b.overrides...) {
		if cfg.JSONFilePath != "" {
			path = cfg.JSONFilePath
		}
	}

	if path == "" {
		return b
	}

	fileCfg, err := parseFile(path)
	if err != nil {
		b.err = errors.Join(b.err, err)
		return b
	}
	b.configs = append(b.configs, fileCfg)

	return b
}

func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("error loading %s: %w", path, err)
	}
	return nil
}

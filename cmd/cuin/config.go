package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/gnana997/cuin/pkg/service"
)

// Project config file locations, relative to the analyzed directory. The
// YAML file wins when both exist.
const (
	yamlConfigPath = ".cuin/config.yaml"
	tomlConfigPath = "cuin.toml"
)

// ProjectConfig holds the contents of .cuin/config.yaml or cuin.toml. Unset
// fields keep the defaults.
type ProjectConfig struct {
	Extensions            []string `yaml:"extensions" toml:"extensions"`
	IncludeNativeElements *bool    `yaml:"include_native_elements" toml:"include_native_elements"`
	CacheEnabled          *bool    `yaml:"cache_enabled" toml:"cache_enabled"`
	RespectGitignore      *bool    `yaml:"respect_gitignore" toml:"respect_gitignore"`
	Exclude               []string `yaml:"exclude" toml:"exclude"`
	Workers               int      `yaml:"workers" toml:"workers"`
	MaxCachedFiles        int      `yaml:"max_cached_files" toml:"max_cached_files"`
	History               bool     `yaml:"history" toml:"history"`

	// source is the file the config was read from.
	source string
}

// loadProjectConfig reads the project config from dir. Returns nil (no
// error) if neither file exists.
func loadProjectConfig(dir string) (*ProjectConfig, error) {
	path := filepath.Join(dir, yamlConfigPath)
	data, err := os.ReadFile(path)
	if err == nil {
		var cfg ProjectConfig
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		cfg.source = path
		return &cfg, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	path = filepath.Join(dir, tomlConfigPath)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	var cfg ProjectConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	cfg.source = path
	return &cfg, nil
}

// apply merges the file values over cfg.
func (pc *ProjectConfig) apply(cfg *service.Config) {
	if pc == nil {
		return
	}
	if len(pc.Extensions) > 0 {
		cfg.Extensions = pc.Extensions
	}
	if pc.IncludeNativeElements != nil {
		cfg.IncludeNativeElements = *pc.IncludeNativeElements
	}
	if pc.CacheEnabled != nil {
		cfg.CacheEnabled = *pc.CacheEnabled
	}
	if pc.RespectGitignore != nil {
		cfg.RespectGitignore = *pc.RespectGitignore
	}
	cfg.Exclude = append(cfg.Exclude, pc.Exclude...)
	if pc.Workers > 0 {
		cfg.Workers = pc.Workers
	}
	if pc.MaxCachedFiles > 0 {
		cfg.MaxCachedFiles = pc.MaxCachedFiles
	}
}

// configDir is the directory holding the project config for an input path:
// the path itself, or its parent when it is a file.
func configDir(path string) string {
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		return filepath.Dir(path)
	}
	return path
}

// resolveConfig builds the service config for a command, applying the
// fallback chain:
//  1. Explicit flags
//  2. The project config file
//  3. service.DefaultConfig
func resolveConfig(c *cli.Context, path string) (service.Config, *ProjectConfig, error) {
	cfg := service.DefaultConfig()

	pc, err := loadProjectConfig(configDir(path))
	if err != nil {
		return cfg, nil, err
	}
	pc.apply(&cfg)

	if c.IsSet("no-native") {
		cfg.IncludeNativeElements = !c.Bool("no-native")
	}
	if c.IsSet("no-cache") {
		cfg.CacheEnabled = !c.Bool("no-cache")
	}
	if c.IsSet("ext") {
		cfg.Extensions = c.StringSlice("ext")
	}
	cfg.Exclude = append(cfg.Exclude, c.StringSlice("exclude")...)
	if c.IsSet("workers") {
		cfg.Workers = c.Int("workers")
	}
	return cfg, pc, nil
}

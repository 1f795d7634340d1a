package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const envSubwordConfig = "SUBWORD_CONFIG"

// Config represents the subword configuration file
// (~/.config/subword/config.yaml). Pointer fields distinguish "not set"
// from zero values.
type Config struct {
	// Tokenizers maps names to tokenizer.json paths.
	Tokenizers       map[string]string `yaml:"tokenizers"`
	DefaultTokenizer string            `yaml:"default_tokenizer"`

	CacheCapacity *int `yaml:"cache_capacity"`
	BatchWorkers  *int `yaml:"batch_workers"`

	// Output
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Server
	ServerAddress string `yaml:"server_address"`
}

func configPath() string {
	if configFile != "" {
		return configFile
	}
	if p := strings.TrimSpace(os.Getenv(envSubwordConfig)); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "subword", "config.yaml")
}

// LoadConfig reads the config file. A missing file yields a zero Config;
// a file that exists but cannot be parsed is an error.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return Config{}, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Config{}, nil
	}
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	// Relative tokenizer paths are relative to the config file.
	base := filepath.Dir(path)
	for name, p := range cfg.Tokenizers {
		if p != "" && !filepath.IsAbs(p) {
			cfg.Tokenizers[name] = filepath.Join(base, p)
		}
	}
	return cfg, nil
}

// applyLoggingConfig applies config file defaults to the logging flags when
// they were not set on the command line.
func applyLoggingConfig(c *cli.Command, cfg Config) {
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
}

// applyServeConfig applies config file defaults to serve command variables.
func applyServeConfig(c *cli.Command, cfg Config, addr *string, cacheCapacity, batchWorkers *int) {
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
	if cfg.CacheCapacity != nil && !c.IsSet("cache-capacity") {
		*cacheCapacity = *cfg.CacheCapacity
	}
	if cfg.BatchWorkers != nil && !c.IsSet("batch-workers") {
		*batchWorkers = *cfg.BatchWorkers
	}
}

// resolveTokenizer maps the --tokenizer value onto a file path. Names from
// the config file win over paths; an empty value selects the configured
// default.
func resolveTokenizer(arg string, cfg Config) (string, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		arg = cfg.DefaultTokenizer
		if arg == "" && len(cfg.Tokenizers) == 1 {
			for name := range cfg.Tokenizers {
				arg = name
			}
		}
		if arg == "" {
			return "", errors.New("no tokenizer given: pass --tokenizer or set default_tokenizer in the config file")
		}
	}
	if p, ok := cfg.Tokenizers[arg]; ok {
		return p, nil
	}
	return filepath.Clean(arg), nil
}

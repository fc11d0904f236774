// Package config loads tool configuration from defaults, an optional YAML
// file and environment overrides, and resolves the GitHub credential used
// by the defect fetcher.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config holds all configuration settings
type Config struct {
	// Repository is the default repository path for extraction
	Repository string `mapstructure:"repository" yaml:"repository"`

	// Output artifact settings
	Output OutputConfig `mapstructure:"output" yaml:"output"`

	// Defect classification settings
	Defects DefectsConfig `mapstructure:"defects" yaml:"defects"`

	// History parsing settings
	Parse ParseConfig `mapstructure:"parse" yaml:"parse"`

	// Run storage configuration
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`

	// Logging configuration
	Log LogConfig `mapstructure:"log" yaml:"log"`
}

type OutputConfig struct {
	Dir  string `mapstructure:"dir" yaml:"dir"`
	JSON bool   `mapstructure:"json" yaml:"json"`
	CSV  bool   `mapstructure:"csv" yaml:"csv"`
	Text bool   `mapstructure:"text" yaml:"text"`
}

type DefectsConfig struct {
	// File is the defect list path. Empty means look for <repo>.dft in
	// the output directory.
	File string `mapstructure:"file" yaml:"file"`

	// Labels select the issues the fetch command walks.
	Labels []string `mapstructure:"labels" yaml:"labels"`
}

type ParseConfig struct {
	// Workers is the number of concurrent block parsers. 1 keeps parsing
	// sequential.
	Workers int `mapstructure:"workers" yaml:"workers"`
}

type StorageConfig struct {
	Backend string `mapstructure:"backend" yaml:"backend"` // "sqlite", "postgres"
	Path    string `mapstructure:"path" yaml:"path"`
	DSN     string `mapstructure:"dsn" yaml:"dsn"`
}

type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

// Default returns default configuration
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Repository: ".",
		Output: OutputConfig{
			Dir:  ".",
			JSON: true,
			CSV:  false,
			Text: false,
		},
		Defects: DefectsConfig{
			Labels: []string{"bug"},
		},
		Parse: ParseConfig{
			Workers: 1,
		},
		Storage: StorageConfig{
			Backend: "sqlite",
			Path:    filepath.Join(homeDir, ".defectlens", "runs.db"),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from file
func Load(path string) (*Config, error) {
	// Load .env files first (in order of precedence)
	loadEnvFiles()

	v := viper.New()
	v.SetConfigType("yaml")

	// Set defaults
	cfg := Default()
	v.SetDefault("repository", cfg.Repository)
	v.SetDefault("output", cfg.Output)
	v.SetDefault("defects", cfg.Defects)
	v.SetDefault("parse", cfg.Parse)
	v.SetDefault("storage", cfg.Storage)
	v.SetDefault("log", cfg.Log)

	// Load from environment variables
	v.SetEnvPrefix("DLENS")
	v.AutomaticEnv()

	// Try to find config file
	if path != "" {
		v.SetConfigFile(path)
	} else {
		// Search for config in standard locations
		v.SetConfigName("config")
		v.AddConfigPath(".defectlens")
		v.AddConfigPath(".")
		homeDir, _ := os.UserHomeDir()
		v.AddConfigPath(filepath.Join(homeDir, ".defectlens"))
	}

	// Read config file if it exists
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	// Unmarshal into struct
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadEnvFiles loads .env files in order of precedence
func loadEnvFiles() {
	envFiles := []string{
		".env.local", // Local overrides (highest precedence)
		".env",       // Main environment file
	}

	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			godotenv.Load(file)
		}
	}

	// Also try loading from home directory
	homeDir, _ := os.UserHomeDir()
	homeEnvFile := filepath.Join(homeDir, ".defectlens", ".env")
	if _, err := os.Stat(homeEnvFile); err == nil {
		godotenv.Load(homeEnvFile)
	}
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(cfg *Config) {
	if repo := os.Getenv("DLENS_REPOSITORY"); repo != "" {
		cfg.Repository = expandPath(repo)
	}

	// Output configuration
	if dir := os.Getenv("DLENS_OUTPUT_DIR"); dir != "" {
		cfg.Output.Dir = expandPath(dir)
	}

	// Defect configuration
	if file := os.Getenv("DLENS_DEFECTS_FILE"); file != "" {
		cfg.Defects.File = expandPath(file)
	}
	if labels := os.Getenv("DLENS_DEFECT_LABELS"); labels != "" {
		var parsed []string
		for _, label := range strings.Split(labels, ",") {
			if label = strings.TrimSpace(label); label != "" {
				parsed = append(parsed, label)
			}
		}
		cfg.Defects.Labels = parsed
	}

	// Parse configuration
	if workers := os.Getenv("DLENS_WORKERS"); workers != "" {
		if n, err := strconv.Atoi(workers); err == nil {
			cfg.Parse.Workers = n
		}
	}

	// Storage configuration
	if backend := os.Getenv("DLENS_STORAGE_BACKEND"); backend != "" {
		cfg.Storage.Backend = backend
	}
	if path := os.Getenv("DLENS_STORAGE_PATH"); path != "" {
		cfg.Storage.Path = expandPath(path)
	}
	if dsn := os.Getenv("DLENS_STORAGE_DSN"); dsn != "" {
		cfg.Storage.DSN = dsn
	}

	// Log configuration
	if level := os.Getenv("DLENS_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
}

// Validate checks settings that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("invalid storage backend %q (want sqlite or postgres)", c.Storage.Backend)
	}

	if c.Parse.Workers < 1 {
		return fmt.Errorf("invalid worker count %d (want at least 1)", c.Parse.Workers)
	}

	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.Log.Level, err)
	}

	return nil
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[1:])
	}
	return path
}

// Save saves configuration to file
func (c *Config) Save(path string) error {
	v := viper.New()
	v.SetConfigType("yaml")

	v.Set("repository", c.Repository)
	v.Set("output", c.Output)
	v.Set("defects", c.Defects)
	v.Set("parse", c.Parse)
	v.Set("storage", c.Storage)
	v.Set("log", c.Log)

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

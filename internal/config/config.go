// Copyright (c) 2025 the graphseed authors
// graphseed - GraphDB repository provisioning and RDF import tool
// This source code is licensed under the MIT license found in the LICENSE file.

// Package config loads and persists the graphseed configuration from
// graphseed.yaml, GRAPHSEED_* environment variables and command-line flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config is the top-level graphseed configuration, loaded from
// graphseed.yaml, environment variables and command-line flags.
type Config struct {
	Database struct {
		Type string `mapstructure:"type" yaml:"type"`
		Dsn  string `mapstructure:"dsn" yaml:"dsn"`
	} `mapstructure:"database" yaml:"database"`

	GraphDB GraphDB `mapstructure:"graphdb" yaml:"graphdb"`

	Repositories []RepositoryConfig `mapstructure:"repositories" yaml:"repositories"`
	Datasets     []DatasetConfig    `mapstructure:"datasets" yaml:"datasets"`

	Language string `mapstructure:"language" yaml:"language"`
	DataDir  string `mapstructure:"data_dir" yaml:"data_dir"`

	// SSHKeyPath points at a private key used for sftp:// dataset sources.
	// Empty means authenticate via a running SSH agent only.
	SSHKeyPath string `mapstructure:"ssh_key_path" yaml:"ssh_key_path"`
}

// GraphDB holds the connection settings for the GraphDB instance.
type GraphDB struct {
	URL      string        `mapstructure:"url" yaml:"url"`
	Username string        `mapstructure:"username" yaml:"username"`
	Password string        `mapstructure:"password" yaml:"password"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout"`
	Retries  int           `mapstructure:"retries" yaml:"retries"`
}

// RepositoryConfig declares a repository graphseed should provision.
type RepositoryConfig struct {
	ID      string `mapstructure:"id" yaml:"id"`
	Title   string `mapstructure:"title" yaml:"title"`
	Ruleset string `mapstructure:"ruleset" yaml:"ruleset"`
}

// DatasetConfig declares an RDF dataset bound to a repository.
type DatasetConfig struct {
	Name       string `mapstructure:"name" yaml:"name"`
	Repository string `mapstructure:"repository" yaml:"repository"`
	Source     string `mapstructure:"source" yaml:"source"`
	Format     string `mapstructure:"format" yaml:"format"`
	Graph      string `mapstructure:"graph" yaml:"graph"`
	Replace    bool   `mapstructure:"replace" yaml:"replace"`
	Schedule   string `mapstructure:"schedule" yaml:"schedule"`
}

// GetConfigPath returns the full path for the configuration file.
func GetConfigPath(system bool) (string, error) {
	var configDir string
	var err error

	if system {
		// System-wide configuration paths
		switch runtime.GOOS {
		case "windows":
			configDir = filepath.Join(os.Getenv("ProgramData"), "Graphseed")
		default: // Linux, macOS, etc.
			configDir = "/etc/graphseed"
		}
	} else {
		// User-specific configuration paths
		configDir, err = os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("could not get user config directory: %w", err)
		}
		configDir = filepath.Join(configDir, "graphseed")
	}

	return filepath.Join(configDir, "graphseed.yaml"), nil
}

// LoadConfig builds a typed config from defaults, discovered config files,
// environment variables (GRAPHSEED_*) and bound command-line flags, in
// ascending order of precedence.
func LoadConfig[T any](cmd *cobra.Command, defaults map[string]any, additionalConfigFilePath *string) (T, error) {
	var c T
	v := viper.New()

	// 1. Set defaults
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	// 2. Set up file search paths
	v.SetConfigName("graphseed")
	v.SetConfigType("yaml")

	// 3. Add explicit config file path if provided via --config flag.
	// This has the highest precedence for file-based configuration.
	if additionalConfigFilePath != nil {
		v.SetConfigFile(*additionalConfigFilePath)
	}

	// 4. Add standard config locations
	if userConfigPath, err := GetConfigPath(false); err == nil {
		v.AddConfigPath(filepath.Dir(userConfigPath))
	}
	if systemConfigPath, err := GetConfigPath(true); err == nil {
		v.AddConfigPath(filepath.Dir(systemConfigPath))
	}
	v.AddConfigPath(".") // Look for graphseed.yaml in current dir

	// 5. Read in the primary config file.
	if err := v.ReadInConfig(); err != nil {
		// It's okay if the file is not found, but other errors are fatal.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return c, err
		}
	}

	// 6. Read from environment variables
	v.AutomaticEnv()
	v.AllowEmptyEnv(true)
	v.SetEnvPrefix("graphseed")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 7. Bind command-line flags
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return c, err
	}

	// parse config
	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}

	return c, nil
}

// WriteConfigFile persists the configuration to the user or system config path.
func WriteConfigFile[T any](c *T, system bool) error {
	path, err := GetConfigPath(system)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	// Create directory if it doesn't exist
	configDir := filepath.Dir(path)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("could not create config directory %s: %w", configDir, err)
	}

	// 0600 as the file may contain the GraphDB password
	if err := os.WriteFile(path, data, 0600); err != nil {
		return err
	}

	return nil
}

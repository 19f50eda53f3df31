// Copyright 2025 SirSeer, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config provides configuration management for sirseer-export with
// support for multiple configuration sources and a well-defined precedence
// order.
//
// Configuration sources (in precedence order, highest to lowest):
//  1. Command-line flags
//  2. Environment variables
//  3. Export-specific configuration
//  4. Global configuration file
//  5. Built-in defaults
//
// The package supports YAML configuration files and provides automatic
// discovery of configuration in standard locations.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from multiple sources and applies them in
// the correct precedence order. If configPath is provided, it loads from
// that specific file. Otherwise, it searches standard locations:
//   - .sirseer-export.yaml (current directory)
//   - .sirseer-export.yml (current directory)
//   - ~/.sirseer/export.yaml
//   - ~/.sirseer/export.yml
//
// Environment variables are applied after loading the config file, allowing
// runtime overrides. Path expansion (~ and environment variables) is
// performed on directory paths.
//
// Returns an error if the specified config file cannot be loaded, but will
// succeed with defaults if no config file is found in standard locations.
func LoadConfig(configPath string) (*Config, error) {
	// Start with defaults
	cfg := DefaultConfig()

	if configPath != "" {
		if err := loadConfigFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	} else {
		// Try default locations
		defaultPaths := []string{
			".sirseer-export.yaml",
			".sirseer-export.yml",
			filepath.Join(os.Getenv("HOME"), ".sirseer", "export.yaml"),
			filepath.Join(os.Getenv("HOME"), ".sirseer", "export.yml"),
		}

		for _, path := range defaultPaths {
			if _, err := os.Stat(path); err == nil {
				if err := loadConfigFile(path, cfg); err != nil {
					return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
				}
				break
			}
		}
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Expand paths
	cfg.Spool.Dir = expandPath(cfg.Spool.Dir)
	cfg.Defaults.OutputDir = expandPath(cfg.Defaults.OutputDir)

	return cfg, nil
}

// LoadConfigForExport loads configuration and applies export-specific
// overrides. This allows different settings for different export
// definitions, useful when some sources require special handling (e.g.,
// smaller chunk sizes for sources with very wide rows).
func LoadConfigForExport(configPath, exportName string) (*Config, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	if exportCfg, ok := cfg.Exports[exportName]; ok {
		if exportCfg.ChunkSize > 0 {
			cfg.Defaults.ChunkSize = exportCfg.ChunkSize
		}
		if exportCfg.Format != "" {
			cfg.Defaults.Format = exportCfg.Format
		}
		if exportCfg.Queue != "" {
			cfg.Queue.Name = exportCfg.Queue
		}
	}

	return cfg, nil
}

// loadConfigFile reads and parses a YAML config file
func loadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(cfg *Config) {
	if url := os.Getenv("SIRSEER_DATABASE_URL"); url != "" {
		cfg.Source.DatabaseURL = url
	}
	if url := os.Getenv("SIRSEER_GRAPHQL_URL"); url != "" {
		cfg.Source.GraphQLURL = url
	}
	if url := os.Getenv("SIRSEER_QUEUE_URL"); url != "" {
		cfg.Queue.URL = url
	}
	if chunkSize := os.Getenv("SIRSEER_CHUNK_SIZE"); chunkSize != "" {
		if size, err := parsePositiveInt(chunkSize); err == nil {
			cfg.Defaults.ChunkSize = size
		}
	}
	if backend := os.Getenv("SIRSEER_SPOOL_BACKEND"); backend != "" {
		cfg.Spool.Backend = backend
	}
	if dir := os.Getenv("SIRSEER_SPOOL_DIR"); dir != "" {
		cfg.Spool.Dir = dir
	}
	if bucket := os.Getenv("SIRSEER_SPOOL_BUCKET"); bucket != "" {
		cfg.Spool.Bucket = bucket
	}
}

// GetChunkSize returns the effective chunk size for an export, taking
// export-specific overrides into account.
func (c *Config) GetChunkSize(exportName string) int {
	if exportCfg, ok := c.Exports[exportName]; ok && exportCfg.ChunkSize > 0 {
		return exportCfg.ChunkSize
	}
	return c.Defaults.ChunkSize
}

// GetQueue returns the effective queue name for an export, taking
// export-specific overrides into account.
func (c *Config) GetQueue(exportName string) string {
	if exportCfg, ok := c.Exports[exportName]; ok && exportCfg.Queue != "" {
		return exportCfg.Queue
	}
	return c.Queue.Name
}

// Validate checks if the configuration contains valid values. This should
// be called after loading configuration and before using it for dispatch.
func (c *Config) Validate() error {
	if c.Defaults.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive, got: %d", c.Defaults.ChunkSize)
	}
	switch c.Spool.Backend {
	case "local":
		if c.Spool.Dir == "" {
			return fmt.Errorf("spool.dir is required for the local backend")
		}
	case "s3":
		if c.Spool.Bucket == "" {
			return fmt.Errorf("spool.bucket is required for the s3 backend")
		}
	default:
		return fmt.Errorf("unknown spool backend: %q", c.Spool.Backend)
	}
	return nil
}

// expandPath expands ~ and environment variables in paths
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home := os.Getenv("HOME")
		if home == "" {
			home = os.Getenv("USERPROFILE") // Windows
		}
		path = filepath.Join(home, path[2:])
	}
	return os.ExpandEnv(path)
}

// parsePositiveInt parses a string to a positive integer
func parsePositiveInt(s string) (int, error) {
	var i int
	_, err := fmt.Sscanf(s, "%d", &i)
	if err != nil {
		return 0, fmt.Errorf("failed to parse integer from '%s': %w", s, err)
	}
	if i <= 0 {
		return 0, fmt.Errorf("value must be positive, got: %d", i)
	}
	return i, nil
}

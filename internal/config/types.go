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

// Package config types define the configuration structures used throughout
// sirseer-export. These types represent settings that can be loaded from
// YAML configuration files, environment variables, or command-line flags.
package config

// Config represents the complete configuration for sirseer-export.
// It consolidates settings from various sources and provides a unified
// interface for accessing configuration values throughout the application.
type Config struct {
	Defaults Defaults                `yaml:"defaults"`
	Source   SourceConfig            `yaml:"source"`
	Spool    SpoolConfig             `yaml:"spool"`
	Queue    QueueConfig             `yaml:"queue"`
	Metrics  MetricsConfig           `yaml:"metrics"`
	Exports  map[string]ExportConfig `yaml:"exports"`
}

// Defaults contains settings that apply to all exports unless overridden
// by an export-specific entry or a command-line flag.
type Defaults struct {
	ChunkSize int    `yaml:"chunk_size"`
	Format    string `yaml:"format"`
	OutputDir string `yaml:"output_dir"`
}

// SourceConfig identifies the backing data stores exports read from.
// DatabaseURL accepts any DSN understood by the configured driver
// (postgres:// for the native driver, a file path for sqlite).
type SourceConfig struct {
	Driver      string `yaml:"driver"`
	DatabaseURL string `yaml:"database_url"`
	GraphQLURL  string `yaml:"graphql_url"`
}

// SpoolConfig selects where per-chunk temporary artifacts are written
// while a queued export is in flight. Backend is "local" or "s3".
//
// When export jobs may execute on more than one machine the backend must
// be "s3" (or another shared store); with "local" each worker writes to
// its own disk and the merge step cannot find the parts.
type SpoolConfig struct {
	Backend string `yaml:"backend"`
	Dir     string `yaml:"dir"`
	Bucket  string `yaml:"bucket"`
	Prefix  string `yaml:"prefix"`
	Region  string `yaml:"region"`
}

// QueueConfig controls the job-queue transport used for queued exports.
type QueueConfig struct {
	URL  string `yaml:"url"`
	Name string `yaml:"name"`
}

// MetricsConfig controls the Prometheus metrics endpoint exposed by the
// worker process.
type MetricsConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// ExportConfig declares one named export: where its rows come from and
// how to deliver them. The same entry is read by the CLI process that
// dispatches the export and by every worker process that executes its
// jobs, so both sides resolve the name to the same definition.
//
// Source is "db" (the configured database driver) or "graphql". For db
// exports Query, CountQuery and OrderBy are required; for graphql exports
// the export name is passed to the remote feed and the query fields are
// ignored. Queued selects background execution through the job queue.
type ExportConfig struct {
	Source     string `yaml:"source"`
	Query      string `yaml:"query"`
	CountQuery string `yaml:"count_query"`
	OrderBy    string `yaml:"order_by"`
	Queued     bool   `yaml:"queued"`
	ChunkSize  int    `yaml:"chunk_size"`
	Format     string `yaml:"format"`
	Queue      string `yaml:"queue"`
}

// DefaultConfig returns a Config with sensible defaults suitable for a
// single-host deployment. Multi-host deployments must override the spool
// backend to a shared store.
func DefaultConfig() *Config {
	return &Config{
		Defaults: Defaults{
			ChunkSize: 1000,
			Format:    "ndjson",
			OutputDir: ".",
		},
		Source: SourceConfig{
			Driver: "sqlite3",
		},
		Spool: SpoolConfig{
			Backend: "local",
			Dir:     "~/.sirseer/spool",
		},
		Queue: QueueConfig{
			Name: "exports",
		},
		Metrics: MetricsConfig{
			ListenAddr: ":9190",
		},
		Exports: make(map[string]ExportConfig),
	}
}

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

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Defaults.ChunkSize != 1000 {
		t.Errorf("default chunk size = %d, want 1000", cfg.Defaults.ChunkSize)
	}
	if cfg.Defaults.Format != "ndjson" {
		t.Errorf("default format = %q, want %q", cfg.Defaults.Format, "ndjson")
	}
	if cfg.Spool.Backend != "local" {
		t.Errorf("default spool backend = %q, want %q", cfg.Spool.Backend, "local")
	}
	if cfg.Queue.Name != "exports" {
		t.Errorf("default queue = %q, want %q", cfg.Queue.Name, "exports")
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "export.yaml")

	content := `
defaults:
  chunk_size: 250
  format: csv
spool:
  backend: s3
  bucket: export-spool
  region: us-east-1
queue:
  name: exports-high
exports:
  invoices:
    chunk_size: 50
    format: xlsx
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Defaults.ChunkSize != 250 {
		t.Errorf("chunk size = %d, want 250", cfg.Defaults.ChunkSize)
	}
	if cfg.Spool.Backend != "s3" {
		t.Errorf("spool backend = %q, want s3", cfg.Spool.Backend)
	}
	if cfg.Spool.Bucket != "export-spool" {
		t.Errorf("spool bucket = %q, want export-spool", cfg.Spool.Bucket)
	}
	if got := cfg.GetChunkSize("invoices"); got != 50 {
		t.Errorf("GetChunkSize(invoices) = %d, want 50", got)
	}
	if got := cfg.GetChunkSize("unknown"); got != 250 {
		t.Errorf("GetChunkSize(unknown) = %d, want 250", got)
	}
	if got := cfg.GetQueue("unknown"); got != "exports-high" {
		t.Errorf("GetQueue(unknown) = %q, want exports-high", got)
	}
}

func TestLoadConfigForExport(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "export.yaml")

	content := `
defaults:
  chunk_size: 500
exports:
  orders:
    chunk_size: 100
    queue: exports-bulk
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadConfigForExport(configPath, "orders")
	if err != nil {
		t.Fatalf("LoadConfigForExport() error = %v", err)
	}

	if cfg.Defaults.ChunkSize != 100 {
		t.Errorf("effective chunk size = %d, want 100", cfg.Defaults.ChunkSize)
	}
	if cfg.Queue.Name != "exports-bulk" {
		t.Errorf("effective queue = %q, want exports-bulk", cfg.Queue.Name)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SIRSEER_CHUNK_SIZE", "77")
	t.Setenv("SIRSEER_SPOOL_BACKEND", "s3")
	t.Setenv("SIRSEER_SPOOL_BUCKET", "env-bucket")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Defaults.ChunkSize != 77 {
		t.Errorf("chunk size = %d, want 77", cfg.Defaults.ChunkSize)
	}
	if cfg.Spool.Backend != "s3" || cfg.Spool.Bucket != "env-bucket" {
		t.Errorf("spool = %q/%q, want s3/env-bucket", cfg.Spool.Backend, cfg.Spool.Bucket)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "defaults are valid",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "zero chunk size",
			mutate:  func(c *Config) { c.Defaults.ChunkSize = 0 },
			wantErr: true,
		},
		{
			name:    "negative chunk size",
			mutate:  func(c *Config) { c.Defaults.ChunkSize = -5 },
			wantErr: true,
		},
		{
			name:    "s3 backend without bucket",
			mutate:  func(c *Config) { c.Spool.Backend = "s3" },
			wantErr: true,
		},
		{
			name: "s3 backend with bucket",
			mutate: func(c *Config) {
				c.Spool.Backend = "s3"
				c.Spool.Bucket = "b"
			},
			wantErr: false,
		},
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.Spool.Backend = "nfs" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

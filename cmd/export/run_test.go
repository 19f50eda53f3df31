package main

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/sirseerhq/sirseer-export/internal/config"
	exporterrors "github.com/sirseerhq/sirseer-export/internal/errors"
	"github.com/sirseerhq/sirseer-export/internal/export"
	"github.com/sirseerhq/sirseer-export/internal/format"
)

func TestMapErrorToExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil error", err: nil, want: 0},
		{name: "generic error", err: errors.New("boom"), want: 1},
		{name: "invalid chunk size", err: exporterrors.ErrInvalidChunkSize, want: 2},
		{name: "sealed chain", err: exporterrors.ErrChainSealed, want: 2},
		{name: "unknown export", err: exporterrors.ErrUnknownExport, want: 2},
		{name: "sizing failure", err: exporterrors.ErrSizing, want: 3},
		{name: "chunk write failure", err: exporterrors.ErrChunkWrite, want: 3},
		{name: "missing artifact", err: exporterrors.ErrArtifactNotFound, want: 3},
		{name: "aborted chain", err: exporterrors.ErrChainAborted, want: 3},
		{name: "wrapped sentinel", err: fmt.Errorf("chunk 3: %w", exporterrors.ErrChunkWrite), want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapErrorToExitCode(tt.err); got != tt.want {
				t.Errorf("mapErrorToExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestApplyFlagOverrides(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Exports["users"] = config.ExportConfig{
		Query:   "SELECT id FROM users",
		OrderBy: "id",
		Format:  "ndjson",
	}

	applyFlagOverrides(cfg, "users", runOptions{
		chunkSize:   250,
		formatName:  "csv",
		forceQueued: true,
	})

	if got := cfg.GetChunkSize("users"); got != 250 {
		t.Errorf("chunk size = %d, want 250", got)
	}
	if got := cfg.Exports["users"].Format; got != "csv" {
		t.Errorf("format = %q, want csv", got)
	}
	if !cfg.Exports["users"].Queued {
		t.Error("queued flag override not applied")
	}
}

func TestBuildRegistryFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Source.Driver = "sqlite3"
	cfg.Source.DatabaseURL = ":memory:"
	cfg.Exports = map[string]config.ExportConfig{
		"users": {
			Query:   "SELECT id, email FROM users",
			OrderBy: "id",
			Format:  "csv",
			Queued:  true,
		},
		"orders": {
			Query:   "SELECT id, total FROM orders",
			OrderBy: "id",
		},
	}

	registry, conns, err := buildRegistry(context.Background(), cfg)
	if err != nil {
		t.Fatalf("buildRegistry() error = %v", err)
	}
	defer conns.Close()

	users, err := registry.Lookup("users")
	if err != nil {
		t.Fatalf("Lookup(users) error = %v", err)
	}
	if users.Format() != format.CSV {
		t.Errorf("users format = %q, want csv", users.Format())
	}
	if qp, ok := users.(export.QueuePreferred); !ok || !qp.ShouldQueue() {
		t.Error("users should be queue-preferred")
	}

	orders, err := registry.Lookup("orders")
	if err != nil {
		t.Fatalf("Lookup(orders) error = %v", err)
	}
	// No format override: falls back to the defaults section.
	if orders.Format() != format.NDJSON {
		t.Errorf("orders format = %q, want ndjson", orders.Format())
	}
	if qp, ok := orders.(export.QueuePreferred); ok && qp.ShouldQueue() {
		t.Error("orders should run inline")
	}
}

func TestBuildSourceValidation(t *testing.T) {
	tests := []struct {
		name      string
		exportCfg config.ExportConfig
	}{
		{
			name:      "db export without query",
			exportCfg: config.ExportConfig{OrderBy: "id"},
		},
		{
			name:      "db export without order_by",
			exportCfg: config.ExportConfig{Query: "SELECT id FROM users"},
		},
		{
			name:      "graphql export without endpoint",
			exportCfg: config.ExportConfig{Source: "graphql"},
		},
		{
			name:      "unknown source kind",
			exportCfg: config.ExportConfig{Source: "ftp"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.Source.DatabaseURL = ":memory:"
			conns := &connections{}
			defer conns.Close()

			if _, err := buildSource(context.Background(), cfg, conns, "bad", tt.exportCfg); err == nil {
				t.Error("buildSource() succeeded, want error")
			}
		})
	}
}

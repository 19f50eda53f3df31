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

package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/mattn/go-sqlite3" // registered for database/sql exports

	"github.com/sirseerhq/sirseer-export/internal/config"
	"github.com/sirseerhq/sirseer-export/internal/export"
	"github.com/sirseerhq/sirseer-export/internal/format"
	"github.com/sirseerhq/sirseer-export/internal/source"
)

// connections owns the database handles shared by every export built from
// one config. Close after all exports are done.
type connections struct {
	pool *pgxpool.Pool
	db   *sql.DB
}

// postgres returns the shared pgx pool, dialing it on first use.
func (c *connections) postgres(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	if c.pool != nil {
		return c.pool, nil
	}
	if databaseURL == "" {
		return nil, fmt.Errorf("source.database_url is not configured")
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	c.pool = pool
	return pool, nil
}

// sqlDB returns the shared database/sql handle, opening it on first use.
func (c *connections) sqlDB(driver, databaseURL string) (*sql.DB, error) {
	if c.db != nil {
		return c.db, nil
	}
	if databaseURL == "" {
		return nil, fmt.Errorf("source.database_url is not configured")
	}
	db, err := sql.Open(driver, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	c.db = db
	return db, nil
}

// Close releases all open connections.
func (c *connections) Close() {
	if c.pool != nil {
		c.pool.Close()
	}
	if c.db != nil {
		_ = c.db.Close()
	}
}

// buildRegistry constructs a registry containing one definition per export
// declared in the config. The dispatching CLI and every worker call this
// with the same config, so a job payload's export name resolves to the
// same definition everywhere.
func buildRegistry(ctx context.Context, cfg *config.Config) (*export.Registry, *connections, error) {
	registry := export.NewRegistry()
	conns := &connections{}

	for name, exportCfg := range cfg.Exports {
		def, err := buildDefinition(ctx, cfg, conns, name, exportCfg)
		if err != nil {
			conns.Close()
			return nil, nil, fmt.Errorf("export %q: %w", name, err)
		}
		if err := registry.Register(def); err != nil {
			conns.Close()
			return nil, nil, err
		}
	}

	return registry, conns, nil
}

// buildDefinition resolves one export entry to a definition.
func buildDefinition(ctx context.Context, cfg *config.Config, conns *connections, name string, exportCfg config.ExportConfig) (export.Definition, error) {
	src, err := buildSource(ctx, cfg, conns, name, exportCfg)
	if err != nil {
		return nil, err
	}

	formatName := exportCfg.Format
	if formatName == "" {
		formatName = cfg.Defaults.Format
	}
	kind, err := format.ParseKind(formatName)
	if err != nil {
		return nil, err
	}

	var opts []export.Option
	if exportCfg.Queued {
		opts = append(opts, export.WithQueue())
	}
	return export.New(name, src, kind, opts...), nil
}

// buildSource resolves one export entry to a data source.
func buildSource(ctx context.Context, cfg *config.Config, conns *connections, name string, exportCfg config.ExportConfig) (source.DataSource, error) {
	switch exportCfg.Source {
	case "graphql":
		if cfg.Source.GraphQLURL == "" {
			return nil, fmt.Errorf("source.graphql_url is not configured")
		}
		return source.NewGraphQLSource(cfg.Source.GraphQLURL, os.Getenv("SIRSEER_TOKEN"), name), nil

	case "", "db":
		if exportCfg.Query == "" {
			return nil, fmt.Errorf("query is required for db exports")
		}
		query := source.Query{
			Select:  exportCfg.Query,
			Count:   exportCfg.CountQuery,
			OrderBy: exportCfg.OrderBy,
		}
		if query.Count == "" {
			query.Count = fmt.Sprintf("SELECT COUNT(*) FROM (%s) AS count_source", exportCfg.Query)
		}

		if cfg.Source.Driver == "postgres" {
			pool, err := conns.postgres(ctx, cfg.Source.DatabaseURL)
			if err != nil {
				return nil, err
			}
			return source.NewPostgresSource(pool, query)
		}
		db, err := conns.sqlDB(cfg.Source.Driver, cfg.Source.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return source.NewSQLSource(db, query)

	default:
		return nil, fmt.Errorf("unknown source kind: %q", exportCfg.Source)
	}
}

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

package source

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Query describes a SQL-backed result set. OrderBy is mandatory: without a
// stable total order, offset ranges are not repeatable across workers.
type Query struct {
	// Select is the query without ORDER BY / LIMIT / OFFSET.
	// Example: "SELECT id, email, created_at FROM users WHERE active"
	Select string

	// Count returns the total row count for Select.
	// Example: "SELECT COUNT(*) FROM users WHERE active"
	Count string

	// OrderBy is the stable ordering key, typically the primary key.
	// Example: "id"
	OrderBy string
}

// PostgresSource is a DataSource backed by a Postgres connection pool.
type PostgresSource struct {
	pool  *pgxpool.Pool
	query Query
}

// NewPostgresSource creates a Postgres-backed source for the given query.
// The pool is owned by the caller and shared across sources.
func NewPostgresSource(pool *pgxpool.Pool, query Query) (*PostgresSource, error) {
	if query.OrderBy == "" {
		return nil, fmt.Errorf("query requires an ORDER BY key for stable chunking")
	}
	return &PostgresSource{pool: pool, query: query}, nil
}

// Fields returns the column names of the result set by describing a
// zero-row execution of the query.
func (s *PostgresSource) Fields(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, s.query.Select+" LIMIT 0")
	if err != nil {
		return nil, fmt.Errorf("failed to describe query: %w", err)
	}
	defer rows.Close()

	descs := rows.FieldDescriptions()
	fields := make([]string, len(descs))
	for i, d := range descs {
		fields[i] = d.Name
	}
	return fields, rows.Err()
}

// Count executes the count query.
func (s *PostgresSource) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := s.pool.QueryRow(ctx, s.query.Count).Scan(&total); err != nil {
		return 0, fmt.Errorf("count query failed: %w", err)
	}
	return total, nil
}

// FetchRange fetches one ordered row range. Values are rendered to their
// text form row by row; the result set is streamed, never accumulated
// beyond the requested range.
func (s *PostgresSource) FetchRange(ctx context.Context, offset, limit int64) ([]Row, error) {
	stmt := fmt.Sprintf("%s ORDER BY %s LIMIT %d OFFSET %d",
		s.query.Select, s.query.OrderBy, limit, offset)

	rows, err := s.pool.Query(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("range query failed: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		row := make(Row, len(values))
		for i, v := range values {
			if v == nil {
				row[i] = ""
				continue
			}
			row[i] = fmt.Sprintf("%v", v)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("range query failed: %w", err)
	}
	return out, nil
}

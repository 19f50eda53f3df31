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
	"database/sql"
	"fmt"
)

// SQLSource is a DataSource backed by database/sql, usable with any
// registered driver (the CLI registers sqlite3). For Postgres prefer
// PostgresSource, which uses the native driver.
type SQLSource struct {
	db    *sql.DB
	query Query
}

// NewSQLSource creates a database/sql-backed source for the given query.
func NewSQLSource(db *sql.DB, query Query) (*SQLSource, error) {
	if query.OrderBy == "" {
		return nil, fmt.Errorf("query requires an ORDER BY key for stable chunking")
	}
	return &SQLSource{db: db, query: query}, nil
}

// Fields returns the column names of the result set.
func (s *SQLSource) Fields(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, s.query.Select+" LIMIT 0")
	if err != nil {
		return nil, fmt.Errorf("failed to describe query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}
	return cols, rows.Err()
}

// Count executes the count query.
func (s *SQLSource) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := s.db.QueryRowContext(ctx, s.query.Count).Scan(&total); err != nil {
		return 0, fmt.Errorf("count query failed: %w", err)
	}
	return total, nil
}

// FetchRange fetches one ordered row range, scanning every column through
// sql.NullString so NULLs render as empty cells.
func (s *SQLSource) FetchRange(ctx context.Context, offset, limit int64) ([]Row, error) {
	stmt := fmt.Sprintf("%s ORDER BY %s LIMIT %d OFFSET %d",
		s.query.Select, s.query.OrderBy, limit, offset)

	rows, err := s.db.QueryContext(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("range query failed: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	var out []Row
	for rows.Next() {
		values := make([]sql.NullString, len(cols))
		scan := make([]interface{}, len(cols))
		for i := range values {
			scan[i] = &values[i]
		}
		if err := rows.Scan(scan...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		row := make(Row, len(cols))
		for i, v := range values {
			if v.Valid {
				row[i] = v.String
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("range query failed: %w", err)
	}
	return out, nil
}

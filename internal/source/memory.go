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

import "context"

// SliceSource is an in-memory DataSource backed by a slice of rows. It is
// used for small enumerable exports and throughout the test suite.
type SliceSource struct {
	fields []string
	rows   []Row
}

// NewSliceSource creates a SliceSource over the given field names and rows.
func NewSliceSource(fields []string, rows []Row) *SliceSource {
	return &SliceSource{fields: fields, rows: rows}
}

// Fields returns the configured column names.
func (s *SliceSource) Fields(_ context.Context) ([]string, error) {
	return s.fields, nil
}

// Count returns the number of rows.
func (s *SliceSource) Count(_ context.Context) (int64, error) {
	return int64(len(s.rows)), nil
}

// FetchRange returns up to limit rows starting at offset.
func (s *SliceSource) FetchRange(_ context.Context, offset, limit int64) ([]Row, error) {
	if offset >= int64(len(s.rows)) {
		return nil, nil
	}
	end := offset + limit
	if end > int64(len(s.rows)) {
		end = int64(len(s.rows))
	}
	return s.rows[offset:end], nil
}

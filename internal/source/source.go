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

// Row is a single exported record, one value per field, in the field order
// reported by the owning DataSource.
type Row []string

// DataSource defines the interface exports read from. Implementations must
// present rows in a stable total order so that FetchRange(k, n) always
// returns the same rows for the same arguments; chunk jobs rely on this to
// partition the result set without gaps or overlaps across workers.
//
// This interface allows for easy mocking in tests.
type DataSource interface {
	// Fields returns the ordered column names of the result set.
	Fields(ctx context.Context) ([]string, error)

	// Count returns the total number of rows the source will yield.
	// Used by the default sizing strategy; a definition with a custom
	// sizer may bypass it entirely.
	Count(ctx context.Context) (int64, error)

	// FetchRange returns up to limit rows starting at offset. It returns
	// fewer rows only at the end of the result set. Implementations must
	// not load the full result set to serve a range.
	FetchRange(ctx context.Context, offset, limit int64) ([]Row, error)
}

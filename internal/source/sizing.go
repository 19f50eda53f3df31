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

	exporterrors "github.com/sirseerhq/sirseer-export/internal/errors"
)

// Sizer is the optional capability a definition declares when the default
// count-based sizing is not representative of actual iteration. The classic
// case is a grouped query: COUNT(*) counts underlying rows, not the groups
// the iterator will actually yield.
type Sizer interface {
	// ChunkCount returns the number of chunks the export should be split
	// into for the given chunk size.
	ChunkCount(ctx context.Context, chunkSize int) (int, error)
}

// Plan computes the number of chunks an export will be split into.
//
// If sizer is non-nil it is authoritative and the source's count is never
// consulted. Otherwise the default strategy applies: ceil(count/chunkSize).
// A count failure is wrapped in ErrSizing and propagated, never retried.
//
// Sizing is best-effort against a source that mutates between sizing and
// iteration: the iterator simply stops at end-of-data, and a chunk that
// finds no rows writes an empty part.
//
// chunkSize must be positive; anything else fails with ErrInvalidChunkSize
// before any work is dispatched.
func Plan(ctx context.Context, src DataSource, sizer Sizer, chunkSize int) (int, error) {
	if chunkSize <= 0 {
		return 0, fmt.Errorf("%w: got %d", exporterrors.ErrInvalidChunkSize, chunkSize)
	}

	if sizer != nil {
		count, err := sizer.ChunkCount(ctx, chunkSize)
		if err != nil {
			return 0, fmt.Errorf("%w: custom sizer: %v", exporterrors.ErrSizing, err)
		}
		if count < 0 {
			return 0, fmt.Errorf("%w: custom sizer returned %d", exporterrors.ErrSizing, count)
		}
		return count, nil
	}

	total, err := src.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", exporterrors.ErrSizing, err)
	}

	size := int64(chunkSize)
	return int((total + size - 1) / size), nil
}

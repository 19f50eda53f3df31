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

package export

import (
	"context"
	"fmt"
	"os"

	exporterrors "github.com/sirseerhq/sirseer-export/internal/errors"
	"github.com/sirseerhq/sirseer-export/internal/format"
	"github.com/sirseerhq/sirseer-export/internal/source"
)

// SyncWriter runs an export in process: it iterates the source chunk by
// chunk and streams rows straight into the destination encoder, with no
// queue and no temporary artifact. Memory stays bounded by the chunk size.
type SyncWriter struct {
	chunkSize int
}

// NewSyncWriter creates a synchronous writer reading in chunkSize batches.
func NewSyncWriter(chunkSize int) *SyncWriter {
	return &SyncWriter{chunkSize: chunkSize}
}

// Write exports def into dest, blocking until done. The destination lands
// atomically via a temp file, same as the queued path's finalize step.
func (w *SyncWriter) Write(ctx context.Context, def Definition, dest string) error {
	if w.chunkSize <= 0 {
		return fmt.Errorf("%w: got %d", exporterrors.ErrInvalidChunkSize, w.chunkSize)
	}

	fields, err := def.Source().Fields(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve fields: %w", err)
	}

	temp := dest + ".tmp"
	file, err := os.Create(temp)
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}

	cleanup := func() {
		_ = file.Close()
		_ = os.Remove(temp)
	}

	enc, err := format.New(def.Format(), file)
	if err != nil {
		cleanup()
		return err
	}
	if err := enc.Begin(fields); err != nil {
		cleanup()
		return err
	}

	it := source.NewIterator(def.Source(), w.chunkSize)
	for {
		chunk, err := it.Next(ctx)
		if err != nil {
			cleanup()
			return fmt.Errorf("%w: %v", exporterrors.ErrChunkWrite, err)
		}
		if chunk == nil {
			break
		}
		for _, row := range chunk.Rows {
			if err := enc.Write(row); err != nil {
				cleanup()
				return fmt.Errorf("%w: chunk %d: %v", exporterrors.ErrChunkWrite, chunk.Index, err)
			}
		}
	}

	if err := enc.Close(); err != nil {
		cleanup()
		return err
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("failed to close destination file: %w", err)
	}
	if err := os.Rename(temp, dest); err != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("failed to rename destination file: %w", err)
	}
	return nil
}

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

package artifact

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/sirseerhq/sirseer-export/internal/config"
	"github.com/sirseerhq/sirseer-export/internal/source"
)

// Store resolves artifact handles by key. Every worker and the dispatching
// process must be configured with an equivalent store so a key resolves to
// the same artifact everywhere.
type Store interface {
	// Open resolves the handle for key, creating the artifact scope if it
	// does not exist yet.
	Open(ctx context.Context, key string) (Handle, error)
}

// Handle is one artifact: the shared intermediate state of a single queued
// export. Parts are written by chunk index; chain sequencing guarantees at
// most one writer at a time, and index-keyed whole-part writes keep
// redelivery idempotent.
type Handle interface {
	// Key returns the artifact's stable key.
	Key() string

	// WritePart stores the rows of the chunk at index, replacing any
	// previous content for that index.
	WritePart(ctx context.Context, index int, rows []source.Row) error

	// ReadPart returns the rows stored at index. A missing part fails
	// with ErrArtifactNotFound.
	ReadPart(ctx context.Context, index int) ([]source.Row, error)

	// Merge streams parts 0..total-1 in index order into fn. A missing
	// part fails with ErrArtifactNotFound and stops the merge.
	Merge(ctx context.Context, total int, fn func(rows []source.Row) error) error

	// Discard releases every part of the artifact. Called on success
	// after the merge and on any chain failure; it must succeed when the
	// artifact is already gone.
	Discard(ctx context.Context) error
}

// NewStore builds the configured spool backend.
func NewStore(cfg config.SpoolConfig) (Store, error) {
	switch cfg.Backend {
	case "local":
		return NewLocalStore(cfg.Dir), nil
	case "s3":
		return NewS3Store(cfg.Bucket, cfg.Prefix, cfg.Region)
	default:
		return nil, fmt.Errorf("unknown spool backend: %q", cfg.Backend)
	}
}

// partName returns the canonical object name for a chunk index. Zero
// padding keeps lexical and numeric order identical, which makes spools
// easy to inspect by hand.
func partName(index int) string {
	return fmt.Sprintf("part-%06d.ndjson", index)
}

// encodeRows frames rows as NDJSON, one JSON array of cell strings per
// line. The framing is independent of the destination format; the finalize
// step re-encodes rows through the destination encoder.
func encodeRows(rows []source.Row) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			return nil, fmt.Errorf("failed to encode row: %w", err)
		}
	}
	return buf.Bytes(), nil
}

// decodeRows parses NDJSON-framed rows back out of a part.
func decodeRows(r io.Reader) ([]source.Row, error) {
	var rows []source.Row
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var row source.Row
		if err := json.Unmarshal(line, &row); err != nil {
			return nil, fmt.Errorf("part is corrupted (invalid JSON): %w", err)
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read part: %w", err)
	}
	return rows, nil
}

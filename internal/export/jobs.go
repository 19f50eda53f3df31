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
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sirseerhq/sirseer-export/internal/artifact"
	exporterrors "github.com/sirseerhq/sirseer-export/internal/errors"
	"github.com/sirseerhq/sirseer-export/internal/format"
	"github.com/sirseerhq/sirseer-export/internal/queue"
	"github.com/sirseerhq/sirseer-export/internal/source"
)

// Job kinds understood by the Executor.
const (
	KindChunk    = "export.chunk"
	KindFinalize = "export.finalize"
	KindNotify   = "export.notify"
)

// chunkPayload is the body of a chunk-write job. It carries coordinates,
// not data: the worker re-reads the range from the definition's source and
// writes it as the artifact part at Index.
type chunkPayload struct {
	Export      string `json:"export"`
	ArtifactKey string `json:"artifact_key"`
	Index       int    `json:"index"`
	Offset      int64  `json:"offset"`
	Limit       int64  `json:"limit"`
}

// finalizePayload is the body of the finalize job that merges the artifact
// into the destination file and releases it.
type finalizePayload struct {
	Export      string `json:"export"`
	ArtifactKey string `json:"artifact_key"`
	Chunks      int    `json:"chunks"`
	Destination string `json:"destination"`
}

// notifyPayload is the body of an optional continuation job appended after
// finalize. It only ever runs when the whole chain succeeded.
type notifyPayload struct {
	Export      string `json:"export"`
	Destination string `json:"destination"`
	Command     string `json:"command,omitempty"`
}

func newJob(kind string, payload interface{}) (queue.Job, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return queue.Job{}, fmt.Errorf("failed to marshal %s payload: %w", kind, err)
	}
	return queue.Job{Kind: kind, Body: body}, nil
}

// Executor runs export jobs on a worker. It implements queue.Executor.
type Executor struct {
	registry *Registry
	store    artifact.Store
	logger   *slog.Logger
	notify   func(ctx context.Context, exportName, destination, command string) error
}

// NewExecutor creates an executor resolving definitions from registry and
// artifacts from store.
func NewExecutor(registry *Registry, store artifact.Store, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{registry: registry, store: store, logger: logger}
}

// OnNotify installs the hook invoked by notify jobs.
func (e *Executor) OnNotify(fn func(ctx context.Context, exportName, destination, command string) error) {
	e.notify = fn
}

// Execute dispatches on the job kind. Any error is terminal for the job
// and, through the chain gate, fatal to everything after it.
func (e *Executor) Execute(ctx context.Context, job queue.Job) error {
	switch job.Kind {
	case KindChunk:
		return e.executeChunk(ctx, job)
	case KindFinalize:
		return e.executeFinalize(ctx, job)
	case KindNotify:
		return e.executeNotify(ctx, job)
	default:
		return fmt.Errorf("unknown job kind: %q", job.Kind)
	}
}

// executeChunk writes one chunk's rows into the shared artifact at the
// part slot named by its index. Re-execution after redelivery rewrites the
// same part, so the artifact content is identical to a single execution.
func (e *Executor) executeChunk(ctx context.Context, job queue.Job) error {
	var p chunkPayload
	if err := json.Unmarshal(job.Body, &p); err != nil {
		return fmt.Errorf("%w: bad payload: %v", exporterrors.ErrChunkWrite, err)
	}

	def, err := e.registry.Lookup(p.Export)
	if err != nil {
		return err
	}

	rows, err := def.Source().FetchRange(ctx, p.Offset, p.Limit)
	if err != nil {
		return fmt.Errorf("%w: chunk %d: %v", exporterrors.ErrChunkWrite, p.Index, err)
	}

	handle, err := e.store.Open(ctx, p.ArtifactKey)
	if err != nil {
		return fmt.Errorf("%w: chunk %d: %v", exporterrors.ErrChunkWrite, p.Index, err)
	}
	if err := handle.WritePart(ctx, p.Index, rows); err != nil {
		return fmt.Errorf("%w: chunk %d: %v", exporterrors.ErrChunkWrite, p.Index, err)
	}

	e.logger.Debug("chunk written", "export", p.Export, "index", p.Index, "rows", len(rows))
	return nil
}

// executeFinalize merges the artifact's parts, in index order, through the
// destination encoder into the destination file, then releases the
// artifact. The file lands atomically: encode to a temp path, rename on
// success, so a failed merge leaves no destination file behind.
func (e *Executor) executeFinalize(ctx context.Context, job queue.Job) error {
	var p finalizePayload
	if err := json.Unmarshal(job.Body, &p); err != nil {
		return fmt.Errorf("failed to decode finalize payload: %w", err)
	}

	def, err := e.registry.Lookup(p.Export)
	if err != nil {
		return err
	}

	handle, err := e.store.Open(ctx, p.ArtifactKey)
	if err != nil {
		return fmt.Errorf("failed to open artifact: %w", err)
	}

	fields, err := def.Source().Fields(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve fields: %w", err)
	}

	if err := writeDestination(ctx, p.Destination, def.Format(), fields, handle, p.Chunks); err != nil {
		return err
	}

	if err := handle.Discard(ctx); err != nil {
		// The destination file is already in place; a leftover spool
		// directory is an operational nuisance, not a failed export.
		e.logger.Error("failed to release artifact", "key", p.ArtifactKey, "error", err)
	}

	e.logger.Info("export finalized", "export", p.Export, "destination", p.Destination, "chunks", p.Chunks)
	return nil
}

func (e *Executor) executeNotify(ctx context.Context, job queue.Job) error {
	var p notifyPayload
	if err := json.Unmarshal(job.Body, &p); err != nil {
		return fmt.Errorf("failed to decode notify payload: %w", err)
	}
	e.logger.Info("export completed", "export", p.Export, "destination", p.Destination)
	if e.notify != nil {
		return e.notify(ctx, p.Export, p.Destination, p.Command)
	}
	return nil
}

// Cleanup releases the chain's shared artifact after a job failure. Every
// job kind that binds an artifact carries its key in the payload.
func (e *Executor) Cleanup(ctx context.Context, job queue.Job) error {
	var p struct {
		ArtifactKey string `json:"artifact_key"`
	}
	if err := json.Unmarshal(job.Body, &p); err != nil || p.ArtifactKey == "" {
		return nil
	}
	handle, err := e.store.Open(ctx, p.ArtifactKey)
	if err != nil {
		return err
	}
	return handle.Discard(ctx)
}

// writeDestination encodes the artifact's merged rows into dest.
func writeDestination(ctx context.Context, dest string, kind format.Kind, fields []string, handle artifact.Handle, chunks int) error {
	if dir := filepath.Dir(dest); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create destination directory: %w", err)
		}
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

	enc, err := format.New(kind, file)
	if err != nil {
		cleanup()
		return err
	}
	if err := enc.Begin(fields); err != nil {
		cleanup()
		return err
	}

	err = handle.Merge(ctx, chunks, func(rows []source.Row) error {
		for _, row := range rows {
			if err := enc.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		cleanup()
		return err
	}

	if err := enc.Close(); err != nil {
		cleanup()
		return err
	}
	if err := file.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("failed to sync destination file: %w", err)
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

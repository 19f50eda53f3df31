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

	"github.com/google/uuid"

	"github.com/sirseerhq/sirseer-export/internal/artifact"
	"github.com/sirseerhq/sirseer-export/internal/queue"
	"github.com/sirseerhq/sirseer-export/internal/source"
)

// QueuedWriter dispatches an export as an ordered chain of chunk jobs plus
// a finalize job. It runs synchronously only up to dispatch and never
// waits for the chain: Queue returns as soon as the head job is enqueued.
type QueuedWriter struct {
	transport queue.Transport
	store     artifact.Store
	chunkSize int
	queueName string
}

// NewQueuedWriter creates a writer dispatching to queueName on transport,
// spooling parts through store, with the given chunk size. The chunk size
// is validated at Queue time so misconfiguration fails before dispatch.
func NewQueuedWriter(transport queue.Transport, store artifact.Store, chunkSize int, queueName string) *QueuedWriter {
	return &QueuedWriter{
		transport: transport,
		store:     store,
		chunkSize: chunkSize,
		queueName: queueName,
	}
}

// Queue plans the export, builds its chain, dispatches it, and returns the
// chain handle without waiting for completion.
//
// The chain holds one chunk job per planned chunk, in index order, followed
// by the finalize job that merges the artifact into dest. An export whose
// plan comes out to zero chunks still dispatches the finalize job alone,
// which produces a valid destination file with no data rows.
//
// Sizing and configuration errors abort before anything is enqueued.
func (w *QueuedWriter) Queue(ctx context.Context, def Definition, dest string) (*queue.Handle, error) {
	chain, err := w.buildChain(ctx, def, dest)
	if err != nil {
		return nil, err
	}
	return chain.Dispatch(ctx, w.transport)
}

// QueueWithNotify is Queue plus a continuation job appended after
// finalize. The continuation inherits the chain's gate: it runs only when
// every chunk and the merge succeeded.
func (w *QueuedWriter) QueueWithNotify(ctx context.Context, def Definition, dest, command string) (*queue.Handle, error) {
	chain, err := w.buildChain(ctx, def, dest)
	if err != nil {
		return nil, err
	}

	notify, err := newJob(KindNotify, notifyPayload{
		Export:      def.Name(),
		Destination: dest,
		Command:     command,
	})
	if err != nil {
		return nil, err
	}
	if err := chain.Append(notify); err != nil {
		return nil, err
	}

	return chain.Dispatch(ctx, w.transport)
}

// buildChain plans the export and assembles chunk jobs 0..N-1 plus the
// finalize job into an undispatched chain.
func (w *QueuedWriter) buildChain(ctx context.Context, def Definition, dest string) (*queue.Chain, error) {
	chunks, err := source.Plan(ctx, def.Source(), sizerFor(def), w.chunkSize)
	if err != nil {
		return nil, err
	}

	key := def.Name() + "-" + uuid.NewString()
	if _, err := w.store.Open(ctx, key); err != nil {
		return nil, fmt.Errorf("failed to open artifact %s: %w", key, err)
	}

	jobs := make([]queue.Job, 0, chunks+1)
	for index := 0; index < chunks; index++ {
		job, err := newJob(KindChunk, chunkPayload{
			Export:      def.Name(),
			ArtifactKey: key,
			Index:       index,
			Offset:      int64(index) * int64(w.chunkSize),
			Limit:       int64(w.chunkSize),
		})
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	chain := queue.NewChain(w.queueName, jobs...)

	finalize, err := newJob(KindFinalize, finalizePayload{
		Export:      def.Name(),
		ArtifactKey: key,
		Chunks:      chunks,
		Destination: dest,
	})
	if err != nil {
		return nil, err
	}
	if err := chain.Append(finalize); err != nil {
		return nil, err
	}

	return chain, nil
}

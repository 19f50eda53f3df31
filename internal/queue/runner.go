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

package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	exporterrors "github.com/sirseerhq/sirseer-export/internal/errors"
	"github.com/sirseerhq/sirseer-export/internal/metrics"
)

// Runner executes one envelope at a time on a worker. It owns the chain's
// success gate: only after the current job succeeds does the successor get
// enqueued, and on failure the tail is dropped so no later job, appended
// continuations included, ever runs.
type Runner struct {
	transport Transport
	executor  Executor
	logger    *slog.Logger
}

// NewRunner creates a runner that executes jobs with executor and enqueues
// successors on transport.
func NewRunner(transport Transport, executor Executor, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{transport: transport, executor: executor, logger: logger}
}

// Handle runs the envelope's job. On success it enqueues the next envelope
// of the chain, if any. On failure it asks the executor to clean up the
// chain's shared resources and returns an error wrapping ErrChainAborted;
// the tail is never enqueued. The returned error tells the transport's
// consume loop how to settle the delivery.
func (r *Runner) Handle(ctx context.Context, env Envelope) error {
	log := r.logger.With(
		"chain", env.ChainID,
		"job", env.Job.ID,
		"kind", env.Job.Kind,
		"index", env.Index,
	)
	log.Info("job started")

	start := time.Now()
	err := r.executor.Execute(ctx, env.Job)
	metrics.JobDuration.WithLabelValues(env.Job.Kind).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.JobsProcessed.WithLabelValues(env.Job.Kind, "failed").Inc()
		metrics.ChainsFailed.Inc()
		log.Error("job failed, aborting chain", "error", err, "skipped", len(env.Tail))

		if cleanupErr := r.executor.Cleanup(ctx, env.Job); cleanupErr != nil {
			log.Error("cleanup failed", "error", cleanupErr)
		}

		return fmt.Errorf("%w: job %d (%s): %v",
			exporterrors.ErrChainAborted, env.Index, env.Job.Kind, err)
	}

	metrics.JobsProcessed.WithLabelValues(env.Job.Kind, "completed").Inc()
	log.Info("job completed")

	if len(env.Tail) == 0 {
		return nil
	}

	next := Envelope{
		ChainID: env.ChainID,
		Queue:   env.Queue,
		Index:   env.Index + 1,
		Job:     env.Tail[0],
		Tail:    env.Tail[1:],
	}
	if _, err := r.transport.Enqueue(ctx, next); err != nil {
		return fmt.Errorf("failed to enqueue successor job: %w", err)
	}
	return nil
}

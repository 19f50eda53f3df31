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
	"sync"

	"github.com/google/uuid"

	exporterrors "github.com/sirseerhq/sirseer-export/internal/errors"
	"github.com/sirseerhq/sirseer-export/internal/metrics"
)

// Chain is a builder for an ordered, success-gated sequence of jobs.
// It is mutable until Dispatch: jobs can be appended to the tail and the
// target queue can be changed for all jobs at once. Dispatch seals the
// chain; any mutation afterwards fails with ErrChainSealed.
type Chain struct {
	mu     sync.Mutex
	queue  string
	jobs   []Job
	sealed bool
}

// NewChain creates a chain over the given jobs in order, targeting the
// given queue.
func NewChain(queueName string, jobs ...Job) *Chain {
	return &Chain{queue: queueName, jobs: jobs}
}

// Append adds a job after all currently known jobs. The job inherits the
// success gate: it will only ever run if every predecessor succeeded.
func (c *Chain) Append(job Job) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sealed {
		return fmt.Errorf("%w: cannot append", exporterrors.ErrChainSealed)
	}
	c.jobs = append(c.jobs, job)
	return nil
}

// AllOnQueue retargets every job in the chain, including jobs appended
// later, to the named queue.
func (c *Chain) AllOnQueue(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sealed {
		return fmt.Errorf("%w: cannot change queue", exporterrors.ErrChainSealed)
	}
	c.queue = name
	return nil
}

// Len returns the number of jobs currently in the chain.
func (c *Chain) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.jobs)
}

// Dispatch seals the chain, assigns job identifiers, enqueues the head
// envelope with the remaining jobs embedded as its tail, and returns
// immediately. The caller never waits for chain completion; progress and
// outcome are observable only through the transport's own reporting.
func (c *Chain) Dispatch(ctx context.Context, transport Transport) (*Handle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sealed {
		return nil, fmt.Errorf("%w: cannot dispatch twice", exporterrors.ErrChainSealed)
	}
	if len(c.jobs) == 0 {
		return nil, fmt.Errorf("cannot dispatch an empty chain")
	}
	c.sealed = true

	chainID := uuid.NewString()
	jobIDs := make([]string, len(c.jobs))
	for i := range c.jobs {
		c.jobs[i].ID = uuid.NewString()
		jobIDs[i] = c.jobs[i].ID
	}

	env := Envelope{
		ChainID: chainID,
		Queue:   c.queue,
		Index:   0,
		Job:     c.jobs[0],
		Tail:    c.jobs[1:],
	}

	if _, err := transport.Enqueue(ctx, env); err != nil {
		return nil, fmt.Errorf("failed to enqueue chain head: %w", err)
	}
	metrics.ChainsDispatched.Inc()

	return &Handle{ChainID: chainID, Queue: c.queue, JobIDs: jobIDs}, nil
}

// Handle represents a dispatched chain. It carries identifiers only; the
// chain's outcome lives in the transport, not here, so no process holds
// global chain state.
type Handle struct {
	// ChainID identifies the chain across all of its envelopes.
	ChainID string

	// Queue is the queue the chain was dispatched to.
	Queue string

	// JobIDs lists the chain's job identifiers in execution order,
	// appended continuations included.
	JobIDs []string
}

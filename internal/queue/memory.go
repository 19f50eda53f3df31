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
	"math/rand"
	"sync"

	"github.com/google/uuid"
)

// State is a chain's lifecycle position as observed by a transport.
type State string

// Chain states. Succeeded and Failed are terminal.
const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// Status is a chain's observed state. FailedIndex is the index of the job
// whose failure aborted the chain, or -1.
type Status struct {
	State       State
	FailedIndex int
	LastError   string
}

// MemTransport is an in-process transport. It queues envelopes in memory
// and executes them through a Runner when Drain is called. It also records
// per-chain status, standing in for a real broker's job-status reporting.
//
// A shuffle source can be installed to randomize raw delivery order across
// chains; within one chain ordering is unaffected because only one
// envelope per chain exists at a time.
type MemTransport struct {
	mu      sync.Mutex
	pending []Envelope
	status  map[string]Status
	rng     *rand.Rand
}

// NewMemTransport creates an empty in-process transport.
func NewMemTransport() *MemTransport {
	return &MemTransport{status: make(map[string]Status)}
}

// ShuffleDelivery makes Drain pick pending envelopes in pseudo-random
// order instead of FIFO, simulating a transport with no ordering guarantee.
func (t *MemTransport) ShuffleDelivery(seed int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rng = rand.New(rand.NewSource(seed))
}

// Enqueue queues the envelope for the next Drain.
func (t *MemTransport) Enqueue(_ context.Context, env Envelope) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.pending = append(t.pending, env)
	if _, ok := t.status[env.ChainID]; !ok {
		t.status[env.ChainID] = Status{State: StatePending, FailedIndex: -1}
	}
	return uuid.NewString(), nil
}

// Drain processes queued envelopes through the runner until none remain,
// including successors enqueued during processing. Job failures are
// recorded in the chain's status, not returned: a failed chain is a normal
// outcome for the transport.
func (t *MemTransport) Drain(ctx context.Context, runner *Runner) error {
	for {
		env, ok := t.Next()
		if !ok {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		t.setStatus(env.ChainID, Status{State: StateRunning, FailedIndex: -1})

		err := runner.Handle(ctx, env)
		switch {
		case err != nil:
			t.setStatus(env.ChainID, Status{
				State:       StateFailed,
				FailedIndex: env.Index,
				LastError:   err.Error(),
			})
		case len(env.Tail) == 0:
			t.setStatus(env.ChainID, Status{State: StateSucceeded, FailedIndex: -1})
		}
	}
}

// Next pops one pending envelope, randomly when shuffling is enabled.
// It is exposed so callers can pull envelopes by hand, for example to
// simulate a broker redelivering a message.
func (t *MemTransport) Next() (Envelope, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.pending) == 0 {
		return Envelope{}, false
	}
	i := 0
	if t.rng != nil {
		i = t.rng.Intn(len(t.pending))
	}
	env := t.pending[i]
	t.pending = append(t.pending[:i], t.pending[i+1:]...)
	return env, true
}

func (t *MemTransport) setStatus(chainID string, s Status) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status[chainID] = s
}

// ChainStatus reports the observed status of a chain.
func (t *MemTransport) ChainStatus(chainID string) Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.status[chainID]; ok {
		return s
	}
	return Status{State: StatePending, FailedIndex: -1}
}

// PendingCount returns the number of queued envelopes.
func (t *MemTransport) PendingCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

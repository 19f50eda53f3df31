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
	"encoding/json"
)

// Job is one dispatchable unit of work in serialized form. Kind selects the
// executor-side handler; Body is the handler's own payload.
type Job struct {
	ID   string          `json:"id"`
	Kind string          `json:"kind"`
	Body json.RawMessage `json:"body"`
}

// Envelope is the message that travels on the transport: the job to run
// now plus the not-yet-dispatched tail of its chain. Embedding the tail is
// what enforces the success gate — a successor physically does not exist
// on any queue until its predecessor succeeded.
type Envelope struct {
	ChainID string `json:"chain_id"`
	Queue   string `json:"queue"`
	Index   int    `json:"index"`
	Job     Job    `json:"job"`
	Tail    []Job  `json:"tail,omitempty"`
}

// Transport is the queue capability consumed by chains and the Runner.
// Implementations deliver each envelope to exactly one worker at least
// once; they are not required to preserve order, because the chain's gate
// does not depend on it.
type Transport interface {
	// Enqueue makes the envelope available to workers and returns the
	// transport's identifier for it.
	Enqueue(ctx context.Context, env Envelope) (string, error)
}

// Executor runs decoded jobs on the worker side. Implementations dispatch
// on Job.Kind.
type Executor interface {
	// Execute runs one job to completion. Any error is terminal for the
	// job and fatal to its chain.
	Execute(ctx context.Context, job Job) error

	// Cleanup releases resources shared by the failed job's chain, such
	// as the temporary artifact. Called once, on the job whose failure
	// aborted the chain.
	Cleanup(ctx context.Context, job Job) error
}

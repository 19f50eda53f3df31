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

// Package errors defines sentinel errors for consistent error handling across
// the application. These errors map to specific exit codes in the CLI for
// proper scripting support.
package errors

import "errors"

// Sentinel errors for consistent error handling and exit code mapping
var (
	// ErrInvalidChunkSize indicates the configured chunk size is zero or
	// negative. Nothing is dispatched when sizing fails this check.
	// Maps to exit code 2.
	ErrInvalidChunkSize = errors.New("chunk size must be greater than zero")

	// ErrChainSealed indicates an attempt to mutate a job chain (append a
	// job or change its queue) after the chain was dispatched.
	// Maps to exit code 2.
	ErrChainSealed = errors.New("chain already dispatched")

	// ErrSizing indicates the chunk count could not be computed because the
	// data source's count operation failed. Sizing errors are propagated,
	// never retried, and abort before anything is enqueued.
	// Maps to exit code 3.
	ErrSizing = errors.New("chunk count computation failed")

	// ErrChunkWrite indicates a single chunk job failed to read, serialize,
	// or store its rows. Terminal for the job and fatal to the whole chain.
	// Maps to exit code 3.
	ErrChunkWrite = errors.New("chunk write failed")

	// ErrArtifactNotFound indicates the merge step could not locate a part
	// of the shared temporary artifact. In a multi-worker topology this
	// almost always means workers wrote to local disks instead of a shared
	// backend. Maps to exit code 3.
	ErrArtifactNotFound = errors.New("temporary artifact part not found")

	// ErrChainAborted indicates a chain entered a failed state: a job
	// reported failure and every job after it was skipped.
	// Maps to exit code 3.
	ErrChainAborted = errors.New("chain aborted")

	// ErrUnknownExport indicates a job payload or CLI argument referenced
	// an export definition that is not registered in this process.
	// Maps to exit code 2.
	ErrUnknownExport = errors.New("unknown export definition")
)

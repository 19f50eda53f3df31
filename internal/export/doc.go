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

// Package export orchestrates dataset exports. A Definition names a data
// source and a destination format; the Router runs it either synchronously
// in process or, when the definition prefers queueing, through the
// QueuedWriter, which splits the result set into chunk jobs, chains them
// with success gating, and appends a finalize job that merges the shared
// temporary artifact into the destination file.
//
// Definitions are registered by name on every process that dispatches or
// executes export jobs; job payloads reference the name, never the
// definition itself, so chunk jobs can run on any worker.
package export

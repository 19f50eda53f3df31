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

// Package queue provides ordered, success-gated job chains over a pluggable
// queue transport.
//
// A chain is an ordered list of jobs where job i+1 becomes eligible only
// after job i reports success, and a failure at any index permanently skips
// everything after it, appended continuation jobs included. The gate is
// structural rather than positional: dispatching a chain enqueues only its
// head job, with the remaining jobs embedded in the message envelope, and
// the worker-side Runner enqueues the successor only after the current job
// succeeds. At most one message per chain is ever in flight, so ordering
// holds even when the transport scrambles raw delivery order or runs
// misconfigured parallel workers.
//
// Transports: MemTransport executes chains in process and is used by tests
// and single-process deployments; AMQPTransport publishes to RabbitMQ and
// is the production transport for multi-worker topologies. Retry policy is
// deliberately left to the transport (broker redelivery, dead-lettering):
// the chain itself never re-runs a failed job.
package queue

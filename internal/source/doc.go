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

// Package source defines the data-source capability that exports read from
// and the chunk math that splits an unbounded result set into bounded,
// independently schedulable slices.
//
// A DataSource exposes its rows through offset-based range fetches over a
// stable total order. Stability matters: chunk jobs may execute on
// different workers and machines, so re-reading offset k must always yield
// the same rows or chunks would skip or double-process data.
//
// The package ships adapters for Postgres (native pgx), any database/sql
// driver, GraphQL connections, and in-memory slices. Chunk counts are
// computed by Plan, which honors a definition's custom sizing capability
// when the default count query is not representative (grouped queries).
package source

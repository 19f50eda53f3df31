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

// Package main implements the sirseer-export command-line interface.
// This tool exports query-backed result sets to files, splitting large
// sets into bounded chunks that execute as ordered jobs on a queue.
//
// The CLI supports:
//   - Running an export synchronously or dispatching it to the queue
//   - NDJSON, CSV and XLSX destination formats
//   - Local-disk or S3 spooling of in-flight chunk artifacts
//   - A worker mode that consumes queued export jobs
//   - Graceful error handling with appropriate exit codes
//
// Usage:
//
//	sirseer-export run <export-name> [flags]
//	sirseer-export worker [flags]
//
// Example:
//
//	sirseer-export run users --output users.csv
//	sirseer-export worker --queue exports
//
// Exit codes:
//   - 0: Success
//   - 1: General error
//   - 2: Configuration or input error
//   - 3: Infrastructure error (queue, spool, data source)
package main

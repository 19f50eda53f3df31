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

// Package artifact provides the shared temporary storage that chunk jobs
// write their partial output into before the final merge.
//
// An artifact is addressed by a stable key so that every worker in the
// deployment resolves the same location. Each chunk writes exactly one
// part, named by its chunk index. Writing a part is deterministic and
// whole-part: redelivering the same chunk job rewrites the identical part
// instead of appending, which makes chunk jobs safe under at-least-once
// queue semantics.
//
// Two backends are provided. LocalStore keeps parts in a directory and is
// only correct when every job of a chain runs on the same host. S3Store
// keeps parts in a bucket and is required whenever workers may run on
// different machines; with a local backend in that topology the merge step
// cannot find parts written elsewhere and fails with ErrArtifactNotFound.
package artifact

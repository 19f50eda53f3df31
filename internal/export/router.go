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

package export

import (
	"context"

	"github.com/sirseerhq/sirseer-export/internal/queue"
)

// Router decides per export definition whether to run synchronously or to
// dispatch through the QueuedWriter. The decision is the definition's own
// declared capability (QueuePreferred), never inspection of its type.
type Router struct {
	queued *QueuedWriter
	sync   *SyncWriter
}

// NewRouter creates a router over the two write paths.
func NewRouter(queued *QueuedWriter, sync *SyncWriter) *Router {
	return &Router{queued: queued, sync: sync}
}

// Store exports def into dest. Queue-preferred definitions are dispatched
// and Store returns the chain handle immediately; everything else runs in
// process and returns a nil handle after the file is written.
func (r *Router) Store(ctx context.Context, def Definition, dest string) (*queue.Handle, error) {
	if queuePreferred(def) {
		return r.queued.Queue(ctx, def, dest)
	}
	return nil, r.sync.Write(ctx, def, dest)
}

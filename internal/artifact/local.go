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

package artifact

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	exporterrors "github.com/sirseerhq/sirseer-export/internal/errors"
	"github.com/sirseerhq/sirseer-export/internal/source"
)

// LocalStore keeps artifacts in subdirectories of a spool directory.
// Correct only when every job of a chain executes on this host.
type LocalStore struct {
	dir string
}

// NewLocalStore creates a store rooted at dir. The directory is created
// lazily on first Open.
func NewLocalStore(dir string) *LocalStore {
	return &LocalStore{dir: dir}
}

// Open resolves the artifact directory for key.
func (s *LocalStore) Open(_ context.Context, key string) (Handle, error) {
	dir := filepath.Join(s.dir, key)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory: %w", err)
	}
	return &localHandle{key: key, dir: dir}, nil
}

type localHandle struct {
	key string
	dir string
}

func (h *localHandle) Key() string { return h.key }

// WritePart writes the part atomically using a write-to-temp-and-rename
// pattern, so a crashed or redelivered job never leaves a torn part.
func (h *localHandle) WritePart(_ context.Context, index int, rows []source.Row) error {
	data, err := encodeRows(rows)
	if err != nil {
		return err
	}

	final := filepath.Join(h.dir, partName(index))
	temp := final + ".tmp"

	if err := os.WriteFile(temp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write temporary part: %w", err)
	}

	file, err := os.Open(temp)
	if err != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("failed to open temp part for sync: %w", err)
	}
	if err := file.Sync(); err != nil {
		_ = file.Close()
		_ = os.Remove(temp)
		return fmt.Errorf("failed to sync temp part: %w", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("failed to close temp part: %w", err)
	}

	if err := os.Rename(temp, final); err != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("failed to rename temp part: %w", err)
	}

	return nil
}

func (h *localHandle) ReadPart(_ context.Context, index int) ([]source.Row, error) {
	data, err := os.ReadFile(filepath.Join(h.dir, partName(index)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s/%s", exporterrors.ErrArtifactNotFound, h.key, partName(index))
		}
		return nil, fmt.Errorf("failed to read part %d: %w", index, err)
	}
	return decodeRows(bytes.NewReader(data))
}

func (h *localHandle) Merge(ctx context.Context, total int, fn func(rows []source.Row) error) error {
	for index := 0; index < total; index++ {
		rows, err := h.ReadPart(ctx, index)
		if err != nil {
			return err
		}
		if err := fn(rows); err != nil {
			return err
		}
	}
	return nil
}

// Discard removes the artifact directory. Succeeds when already gone.
func (h *localHandle) Discard(_ context.Context) error {
	if err := os.RemoveAll(h.dir); err != nil {
		return fmt.Errorf("failed to discard artifact: %w", err)
	}
	return nil
}

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
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	exporterrors "github.com/sirseerhq/sirseer-export/internal/errors"
	"github.com/sirseerhq/sirseer-export/internal/source"
)

func openTestHandle(t *testing.T) Handle {
	t.Helper()
	store := NewLocalStore(t.TempDir())
	handle, err := store.Open(context.Background(), "export-test-key")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return handle
}

func TestWriteAndReadPart(t *testing.T) {
	handle := openTestHandle(t)
	ctx := context.Background()

	rows := []source.Row{
		{"1", "alice", "2024-01-15"},
		{"2", "bob", "2024-01-16"},
	}

	if err := handle.WritePart(ctx, 0, rows); err != nil {
		t.Fatalf("WritePart() error = %v", err)
	}

	got, err := handle.ReadPart(ctx, 0)
	if err != nil {
		t.Fatalf("ReadPart() error = %v", err)
	}
	if !reflect.DeepEqual(got, rows) {
		t.Errorf("ReadPart() = %v, want %v", got, rows)
	}
}

func TestWritePartIsIdempotent(t *testing.T) {
	handle := openTestHandle(t)
	ctx := context.Background()

	rows := []source.Row{{"1", "alice"}, {"2", "bob"}}

	// Simulate at-least-once redelivery: the same chunk written twice.
	if err := handle.WritePart(ctx, 3, rows); err != nil {
		t.Fatalf("first WritePart() error = %v", err)
	}
	if err := handle.WritePart(ctx, 3, rows); err != nil {
		t.Fatalf("second WritePart() error = %v", err)
	}

	got, err := handle.ReadPart(ctx, 3)
	if err != nil {
		t.Fatalf("ReadPart() error = %v", err)
	}
	if !reflect.DeepEqual(got, rows) {
		t.Errorf("ReadPart() after rewrite = %v, want %v", got, rows)
	}
}

func TestWriteEmptyPart(t *testing.T) {
	handle := openTestHandle(t)
	ctx := context.Background()

	if err := handle.WritePart(ctx, 0, nil); err != nil {
		t.Fatalf("WritePart() error = %v", err)
	}
	got, err := handle.ReadPart(ctx, 0)
	if err != nil {
		t.Fatalf("ReadPart() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("ReadPart() = %v, want no rows", got)
	}
}

func TestReadMissingPart(t *testing.T) {
	handle := openTestHandle(t)

	_, err := handle.ReadPart(context.Background(), 7)
	if !errors.Is(err, exporterrors.ErrArtifactNotFound) {
		t.Errorf("ReadPart() error = %v, want ErrArtifactNotFound", err)
	}
}

func TestMergeStreamsPartsInOrder(t *testing.T) {
	handle := openTestHandle(t)
	ctx := context.Background()

	// Written out of order on purpose; merge must still stream by index.
	parts := map[int][]source.Row{
		2: {{"5"}, {"6"}},
		0: {{"1"}, {"2"}},
		1: {{"3"}, {"4"}},
	}
	for index, rows := range parts {
		if err := handle.WritePart(ctx, index, rows); err != nil {
			t.Fatalf("WritePart(%d) error = %v", index, err)
		}
	}

	var merged []string
	err := handle.Merge(ctx, 3, func(rows []source.Row) error {
		for _, row := range rows {
			merged = append(merged, row[0])
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}

	want := []string{"1", "2", "3", "4", "5", "6"}
	if !reflect.DeepEqual(merged, want) {
		t.Errorf("Merge() order = %v, want %v", merged, want)
	}
}

func TestMergeMissingPartFails(t *testing.T) {
	handle := openTestHandle(t)
	ctx := context.Background()

	if err := handle.WritePart(ctx, 0, []source.Row{{"1"}}); err != nil {
		t.Fatalf("WritePart() error = %v", err)
	}
	// Part 1 never written: the multi-host misconfiguration case.
	err := handle.Merge(ctx, 2, func([]source.Row) error { return nil })
	if !errors.Is(err, exporterrors.ErrArtifactNotFound) {
		t.Errorf("Merge() error = %v, want ErrArtifactNotFound", err)
	}
}

func TestDiscardRemovesAllParts(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalStore(dir)
	ctx := context.Background()

	handle, err := store.Open(ctx, "doomed")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := handle.WritePart(ctx, i, []source.Row{{"x"}}); err != nil {
			t.Fatalf("WritePart(%d) error = %v", i, err)
		}
	}

	if err := handle.Discard(ctx); err != nil {
		t.Fatalf("Discard() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "doomed")); !os.IsNotExist(err) {
		t.Errorf("artifact directory still exists after Discard()")
	}

	// Discarding again must succeed.
	if err := handle.Discard(ctx); err != nil {
		t.Errorf("second Discard() error = %v", err)
	}
}

func TestWritePartLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalStore(dir)
	ctx := context.Background()

	handle, err := store.Open(ctx, "clean")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := handle.WritePart(ctx, 0, []source.Row{{"a"}}); err != nil {
		t.Fatalf("WritePart() error = %v", err)
	}

	entries, err := os.ReadDir(filepath.Join(dir, "clean"))
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".tmp" {
			t.Errorf("temp file %s left behind", e.Name())
		}
	}
	if len(entries) != 1 {
		t.Errorf("got %d entries, want 1", len(entries))
	}
}

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

package integration

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirseerhq/sirseer-export/internal/artifact"
	"github.com/sirseerhq/sirseer-export/internal/config"
	"github.com/sirseerhq/sirseer-export/internal/export"
	"github.com/sirseerhq/sirseer-export/internal/format"
	"github.com/sirseerhq/sirseer-export/internal/queue"
	"github.com/sirseerhq/sirseer-export/internal/source"
)

// pipeline wires a complete in-process export stack: config loaded from a
// real YAML file, a local spool, an in-memory transport, and a worker-side
// executor, exactly as the dispatching CLI and a worker would compose them.
type pipeline struct {
	cfg       *config.Config
	transport *queue.MemTransport
	registry  *export.Registry
	runner    *queue.Runner
	writer    *export.QueuedWriter
	outDir    string
}

func newPipeline(t *testing.T) *pipeline {
	t.Helper()

	outDir := t.TempDir()
	configPath := filepath.Join(t.TempDir(), "export.yaml")
	configYAML := fmt.Sprintf(`
defaults:
  chunk_size: 100
  format: ndjson
  output_dir: %s
spool:
  backend: local
  dir: %s
queue:
  name: exports
`, outDir, t.TempDir())
	if err := os.WriteFile(configPath, []byte(configYAML), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	store, err := artifact.NewStore(cfg.Spool)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	transport := queue.NewMemTransport()
	registry := export.NewRegistry()
	executor := export.NewExecutor(registry, store, nil)

	return &pipeline{
		cfg:       cfg,
		transport: transport,
		registry:  registry,
		runner:    queue.NewRunner(transport, executor, nil),
		writer:    export.NewQueuedWriter(transport, store, cfg.Defaults.ChunkSize, cfg.Queue.Name),
		outDir:    outDir,
	}
}

func orderRows(n int) []source.Row {
	rows := make([]source.Row, n)
	for i := range rows {
		rows[i] = source.Row{fmt.Sprintf("%d", i), fmt.Sprintf("%d.50", i)}
	}
	return rows
}

// readNDJSON decodes every line of an NDJSON destination file.
func readNDJSON(t *testing.T, path string) []map[string]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open destination: %v", err)
	}
	defer f.Close()

	var records []map[string]string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var record map[string]string
		if err := json.Unmarshal(scanner.Bytes(), &record); err != nil {
			t.Fatalf("line %d is not valid JSON: %v", len(records)+1, err)
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("failed to scan destination: %v", err)
	}
	return records
}

// TestQueuedExportFullPipeline runs a queued export through the complete
// stack and verifies the destination content end to end.
func TestQueuedExportFullPipeline(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()

	def := export.New("orders", source.NewSliceSource([]string{"id", "total"}, orderRows(257)), format.NDJSON, export.WithQueue())
	if err := p.registry.Register(def); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	dest := filepath.Join(p.outDir, "orders.ndjson")
	handle, err := p.writer.Queue(ctx, def, dest)
	if err != nil {
		t.Fatalf("Queue() error = %v", err)
	}

	// 257 rows at chunk size 100: 3 chunk jobs plus finalize.
	if len(handle.JobIDs) != 4 {
		t.Errorf("chain has %d jobs, want 4", len(handle.JobIDs))
	}

	if err := p.transport.Drain(ctx, p.runner); err != nil {
		t.Fatalf("Drain() error = %v", err)
	}
	if got := p.transport.ChainStatus(handle.ChainID); got.State != queue.StateSucceeded {
		t.Fatalf("chain state = %q, want succeeded", got.State)
	}

	records := readNDJSON(t, dest)
	if len(records) != 257 {
		t.Fatalf("destination has %d records, want 257", len(records))
	}
	for i, record := range records {
		if record["id"] != fmt.Sprintf("%d", i) {
			t.Fatalf("record %d id = %q, rows out of order", i, record["id"])
		}
	}
}

// TestConcurrentChainsScrambledDelivery dispatches several chains and
// drains them with randomized delivery order. Every destination must still
// come out complete and ordered, because each chain's successor is only
// enqueued after its predecessor succeeds.
func TestConcurrentChainsScrambledDelivery(t *testing.T) {
	p := newPipeline(t)
	p.transport.ShuffleDelivery(1)
	ctx := context.Background()

	const chains = 5
	dests := make([]string, chains)
	for i := 0; i < chains; i++ {
		name := fmt.Sprintf("orders-%d", i)
		def := export.New(name, source.NewSliceSource([]string{"id", "total"}, orderRows(250)), format.NDJSON, export.WithQueue())
		if err := p.registry.Register(def); err != nil {
			t.Fatalf("Register(%s) error = %v", name, err)
		}

		dests[i] = filepath.Join(p.outDir, name+".ndjson")
		if _, err := p.writer.Queue(ctx, def, dests[i]); err != nil {
			t.Fatalf("Queue(%s) error = %v", name, err)
		}
	}

	if err := p.transport.Drain(ctx, p.runner); err != nil {
		t.Fatalf("Drain() error = %v", err)
	}

	for i, dest := range dests {
		records := readNDJSON(t, dest)
		if len(records) != 250 {
			t.Fatalf("chain %d: destination has %d records, want 250", i, len(records))
		}
		for j, record := range records {
			if record["id"] != fmt.Sprintf("%d", j) {
				t.Fatalf("chain %d record %d out of order: id = %q", i, j, record["id"])
			}
		}
	}
}

// TestSpoolCleanedAfterExport verifies the shared spool holds nothing once
// the chain finished.
func TestSpoolCleanedAfterExport(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()

	def := export.New("orders", source.NewSliceSource([]string{"id", "total"}, orderRows(250)), format.NDJSON, export.WithQueue())
	if err := p.registry.Register(def); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if _, err := p.writer.Queue(ctx, def, filepath.Join(p.outDir, "orders.ndjson")); err != nil {
		t.Fatalf("Queue() error = %v", err)
	}
	if err := p.transport.Drain(ctx, p.runner); err != nil {
		t.Fatalf("Drain() error = %v", err)
	}

	entries, err := os.ReadDir(p.cfg.Spool.Dir)
	if err != nil {
		t.Fatalf("failed to read spool dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("spool dir has %d leftover entries, want 0", len(entries))
	}
}

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

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/sirseerhq/sirseer-export/internal/artifact"
	"github.com/sirseerhq/sirseer-export/internal/config"
	"github.com/sirseerhq/sirseer-export/internal/export"
	"github.com/sirseerhq/sirseer-export/internal/format"
	"github.com/sirseerhq/sirseer-export/internal/queue"
)

// runCmd represents the run command
func newRunCommand() *cobra.Command {
	var (
		configPath    string
		outputFile    string
		formatName    string
		chunkSize     int
		forceQueued   bool
		notifyCommand string
	)

	cmd := &cobra.Command{
		Use:   "run <export-name>",
		Short: "Run a named export, inline or through the job queue",
		Long: `Run an export declared in the configuration file.

Exports without the queued flag run inline and the command returns when the
destination file is written. Queued exports are dispatched as a chain of
chunk jobs plus a finalize job; the command returns immediately after the
dispatch and a worker process produces the file.

Example configuration entry:

  exports:
    users:
      query: "SELECT id, email, created_at FROM users"
      order_by: "id"
      format: csv
      queued: true`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Minute)
			defer cancel()

			return runRun(ctx, args[0], runOptions{
				configPath:    configPath,
				outputFile:    outputFile,
				formatName:    formatName,
				chunkSize:     chunkSize,
				forceQueued:   forceQueued,
				notifyCommand: notifyCommand,
			})
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Config file path (default: standard locations)")
	cmd.Flags().StringVar(&outputFile, "output", "", "Destination file path (default: <output_dir>/<name>.<ext>)")
	cmd.Flags().StringVar(&formatName, "format", "", "Destination format: ndjson, csv or xlsx (overrides config)")
	cmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "Rows per chunk (overrides config)")
	cmd.Flags().BoolVar(&forceQueued, "queued", false, "Dispatch through the queue even if the export is not marked queued")
	cmd.Flags().StringVar(&notifyCommand, "notify", "", "Command a worker runs after the export succeeds (queued exports only)")

	return cmd
}

type runOptions struct {
	configPath    string
	outputFile    string
	formatName    string
	chunkSize     int
	forceQueued   bool
	notifyCommand string
}

// runRun executes the run command
func runRun(ctx context.Context, exportName string, opts runOptions) error {
	cfg, err := config.LoadConfigForExport(opts.configPath, exportName)
	if err != nil {
		return err
	}
	applyFlagOverrides(cfg, exportName, opts)
	if err := cfg.Validate(); err != nil {
		return err
	}

	registry, conns, err := buildRegistry(ctx, cfg)
	if err != nil {
		return err
	}
	defer conns.Close()

	def, err := registry.Lookup(exportName)
	if err != nil {
		return err
	}

	dest := opts.outputFile
	if dest == "" {
		dest = filepath.Join(cfg.Defaults.OutputDir, exportName+format.Extension(def.Format()))
	}
	chunkSize := cfg.GetChunkSize(exportName)

	if qp, ok := def.(export.QueuePreferred); ok && qp.ShouldQueue() {
		return dispatchQueued(ctx, cfg, def, dest, chunkSize, opts.notifyCommand)
	}
	return runInline(ctx, def, dest, chunkSize)
}

// applyFlagOverrides folds command-line flags into the loaded config;
// flags rank above every other configuration source.
func applyFlagOverrides(cfg *config.Config, exportName string, opts runOptions) {
	if opts.chunkSize > 0 {
		cfg.Defaults.ChunkSize = opts.chunkSize
		exportCfg := cfg.Exports[exportName]
		exportCfg.ChunkSize = opts.chunkSize
		cfg.Exports[exportName] = exportCfg
	}
	if opts.formatName != "" {
		exportCfg := cfg.Exports[exportName]
		exportCfg.Format = opts.formatName
		cfg.Exports[exportName] = exportCfg
	}
	if opts.forceQueued {
		exportCfg := cfg.Exports[exportName]
		exportCfg.Queued = true
		cfg.Exports[exportName] = exportCfg
	}
}

// runInline writes the export synchronously and reports to stderr.
func runInline(ctx context.Context, def export.Definition, dest string, chunkSize int) error {
	fmt.Fprintf(os.Stderr, "Exporting %s...", def.Name())

	writer := export.NewSyncWriter(chunkSize)
	if err := writer.Write(ctx, def, dest); err != nil {
		fmt.Fprintf(os.Stderr, "\r\033[K")
		return err
	}

	fmt.Fprintf(os.Stderr, "\r\033[K")
	fmt.Fprintf(os.Stderr, "Successfully exported %s to %s\n", def.Name(), dest)
	return nil
}

// dispatchQueued hands the export to the queue and returns without waiting
// for workers.
func dispatchQueued(ctx context.Context, cfg *config.Config, def export.Definition, dest string, chunkSize int, notifyCommand string) error {
	if cfg.Queue.URL == "" {
		return fmt.Errorf("queue.url is required to dispatch queued exports (or set SIRSEER_QUEUE_URL)")
	}

	transport, err := queue.NewAMQPTransport(cfg.Queue.URL, nil)
	if err != nil {
		return err
	}
	defer transport.Close()

	queueName := cfg.GetQueue(def.Name())
	if err := transport.DeclareQueue(queueName); err != nil {
		return err
	}

	store, err := artifact.NewStore(cfg.Spool)
	if err != nil {
		return err
	}

	writer := export.NewQueuedWriter(transport, store, chunkSize, queueName)

	var handle *queue.Handle
	if notifyCommand != "" {
		handle, err = writer.QueueWithNotify(ctx, def, dest, notifyCommand)
	} else {
		handle, err = writer.Queue(ctx, def, dest)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Dispatched %s as chain %s: %d jobs on queue %q\n",
		def.Name(), handle.ChainID, len(handle.JobIDs), queueName)
	fmt.Fprintf(os.Stderr, "Destination: %s\n", dest)
	return nil
}

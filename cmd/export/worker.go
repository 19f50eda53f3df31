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
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sirseerhq/sirseer-export/internal/artifact"
	"github.com/sirseerhq/sirseer-export/internal/config"
	"github.com/sirseerhq/sirseer-export/internal/export"
	"github.com/sirseerhq/sirseer-export/internal/metrics"
	"github.com/sirseerhq/sirseer-export/internal/queue"
)

// workerCmd represents the worker command
func newWorkerCommand() *cobra.Command {
	var (
		configPath string
		queueName  string
	)

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Consume queued export jobs",
		Long: `Run a worker that consumes export jobs from the queue.

The worker resolves each job's export name against the definitions declared
in the configuration file, so it must run with the same config as the
process that dispatched the export. Prometheus metrics are served on the
configured listen address.

Workers can run on multiple machines against the same queue; in that
topology the spool backend must be a shared store (s3), not local disk.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWorker(cmd.Context(), configPath, queueName)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Config file path (default: standard locations)")
	cmd.Flags().StringVar(&queueName, "queue", "", "Queue to consume (overrides config)")

	return cmd
}

// runWorker executes the worker command
func runWorker(parentCtx context.Context, configPath, queueName string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Queue.URL == "" {
		return fmt.Errorf("queue.url is required to run a worker (or set SIRSEER_QUEUE_URL)")
	}
	if queueName == "" {
		queueName = cfg.Queue.Name
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry, conns, err := buildRegistry(ctx, cfg)
	if err != nil {
		return err
	}
	defer conns.Close()

	store, err := artifact.NewStore(cfg.Spool)
	if err != nil {
		return err
	}

	transport, err := queue.NewAMQPTransport(cfg.Queue.URL, logger)
	if err != nil {
		return err
	}
	defer transport.Close()

	executor := export.NewExecutor(registry, store, logger)
	executor.OnNotify(runNotifyCommand)
	runner := queue.NewRunner(transport, executor, logger)

	metrics.StartServer(cfg.Metrics.ListenAddr)
	logger.Info("worker started", "queue", queueName, "metrics", cfg.Metrics.ListenAddr)

	err = transport.Consume(ctx, queueName, runner)
	if errors.Is(err, context.Canceled) {
		logger.Info("worker stopped")
		return nil
	}
	return err
}

// runNotifyCommand executes a notify job's shell command, if any. The
// destination path is exposed to the command via SIRSEER_EXPORT_FILE.
func runNotifyCommand(ctx context.Context, exportName, destination, command string) error {
	if command == "" {
		return nil
	}
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Env = append(os.Environ(),
		"SIRSEER_EXPORT_NAME="+exportName,
		"SIRSEER_EXPORT_FILE="+destination,
	)
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("notify command failed: %w", err)
	}
	return nil
}

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
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	exporterrors "github.com/sirseerhq/sirseer-export/internal/errors"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "sirseer-export",
		Short: "Export query-backed datasets to files through a job queue",
		Long: `SirSeer Export turns large query-backed result sets into files. Small
exports run inline; large ones are split into bounded chunks dispatched as an
ordered chain of queue jobs, so memory stays flat no matter the row count and
a failed chunk stops everything downstream of it.`,
		Version:       version,
		SilenceUsage:  true, // Don't show usage on error
		SilenceErrors: true, // We'll handle error printing ourselves
	}

	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newWorkerCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(mapErrorToExitCode(err))
	}
}

// mapErrorToExitCode maps internal errors to appropriate exit codes
func mapErrorToExitCode(err error) int {
	if err == nil {
		return 0
	}

	if errors.Is(err, exporterrors.ErrInvalidChunkSize) ||
		errors.Is(err, exporterrors.ErrChainSealed) ||
		errors.Is(err, exporterrors.ErrUnknownExport) {
		return 2 // Configuration/input errors
	}

	if errors.Is(err, exporterrors.ErrSizing) ||
		errors.Is(err, exporterrors.ErrChunkWrite) ||
		errors.Is(err, exporterrors.ErrArtifactNotFound) ||
		errors.Is(err, exporterrors.ErrChainAborted) {
		return 3 // Infrastructure errors
	}

	return 1 // General error
}

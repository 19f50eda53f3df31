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

package format

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/sirseerhq/sirseer-export/internal/source"
)

// CSVEncoder streams rows as CSV with a header row. The writer flushes
// periodically so long exports make progress visible to the filesystem.
type CSVEncoder struct {
	writer *csv.Writer
	count  int
}

// NewCSVEncoder creates a CSV encoder that writes to w.
func NewCSVEncoder(w io.Writer) *CSVEncoder {
	return &CSVEncoder{writer: csv.NewWriter(w)}
}

// Begin writes the header row.
func (e *CSVEncoder) Begin(fields []string) error {
	if err := e.writer.Write(fields); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	return nil
}

// Write writes one data row, flushing every 100 records.
func (e *CSVEncoder) Write(row source.Row) error {
	if err := e.writer.Write(row); err != nil {
		return fmt.Errorf("failed to write row: %w", err)
	}

	e.count++
	if e.count%100 == 0 {
		e.writer.Flush()
		if err := e.writer.Error(); err != nil {
			return fmt.Errorf("failed to flush rows: %w", err)
		}
	}
	return nil
}

// Close flushes any buffered rows.
func (e *CSVEncoder) Close() error {
	e.writer.Flush()
	if err := e.writer.Error(); err != nil {
		return fmt.Errorf("failed to flush rows: %w", err)
	}
	return nil
}

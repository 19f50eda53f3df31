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
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/sirseerhq/sirseer-export/internal/source"
)

const xlsxSheet = "Sheet1"

// XLSXEncoder streams rows into an XLSX workbook using excelize's stream
// writer, which spills to temporary files instead of keeping the sheet in
// memory. The workbook bytes are emitted on Close.
type XLSXEncoder struct {
	out    io.Writer
	file   *excelize.File
	stream *excelize.StreamWriter
	row    int
}

// NewXLSXEncoder creates an XLSX encoder that writes the workbook to w on
// Close.
func NewXLSXEncoder(w io.Writer) *XLSXEncoder {
	return &XLSXEncoder{out: w}
}

// Begin opens the stream writer and writes the header row.
func (e *XLSXEncoder) Begin(fields []string) error {
	e.file = excelize.NewFile()
	stream, err := e.file.NewStreamWriter(xlsxSheet)
	if err != nil {
		return fmt.Errorf("failed to open stream writer: %w", err)
	}
	e.stream = stream
	e.row = 1

	header := make([]interface{}, len(fields))
	for i, f := range fields {
		header[i] = f
	}
	if err := e.writeCells(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	return nil
}

// Write writes one data row.
func (e *XLSXEncoder) Write(row source.Row) error {
	cells := make([]interface{}, len(row))
	for i, v := range row {
		cells[i] = v
	}
	if err := e.writeCells(cells); err != nil {
		return fmt.Errorf("failed to write row: %w", err)
	}
	return nil
}

func (e *XLSXEncoder) writeCells(cells []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, e.row)
	if err != nil {
		return err
	}
	if err := e.stream.SetRow(cell, cells); err != nil {
		return err
	}
	e.row++
	return nil
}

// Close flushes the stream and writes the workbook to the destination.
func (e *XLSXEncoder) Close() error {
	if e.stream == nil {
		return fmt.Errorf("encoder closed before Begin")
	}
	if err := e.stream.Flush(); err != nil {
		return fmt.Errorf("failed to flush workbook: %w", err)
	}
	if err := e.file.Write(e.out); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return e.file.Close()
}

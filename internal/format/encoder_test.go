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
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/sirseerhq/sirseer-export/internal/source"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Kind
		wantErr bool
	}{
		{name: "ndjson", input: "ndjson", want: NDJSON},
		{name: "csv", input: "csv", want: CSV},
		{name: "xlsx", input: "xlsx", want: XLSX},
		{name: "unknown", input: "parquet", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseKind(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseKind(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("ParseKind(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNDJSONEncoder(t *testing.T) {
	var buf bytes.Buffer
	enc := NewNDJSONEncoder(&buf)

	if err := enc.Begin([]string{"id", "name"}); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	rows := []source.Row{{"1", "alice"}, {"2", "bob"}}
	for _, row := range rows {
		if err := enc.Write(row); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}

	var first map[string]string
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("line 1 is not valid JSON: %v", err)
	}
	if first["id"] != "1" || first["name"] != "alice" {
		t.Errorf("line 1 = %v, want id=1 name=alice", first)
	}
	if enc.Count() != 2 {
		t.Errorf("Count() = %d, want 2", enc.Count())
	}
}

func TestCSVEncoder(t *testing.T) {
	var buf bytes.Buffer
	enc := NewCSVEncoder(&buf)

	if err := enc.Begin([]string{"id", "name"}); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	if err := enc.Write(source.Row{"1", "alice, the first"}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2 (header + row)", len(records))
	}
	if records[0][0] != "id" || records[0][1] != "name" {
		t.Errorf("header = %v, want [id name]", records[0])
	}
	if records[1][1] != "alice, the first" {
		t.Errorf("row value = %q, want comma preserved", records[1][1])
	}
}

func TestCSVEncoderHeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	enc := NewCSVEncoder(&buf)

	if err := enc.Begin([]string{"id"}); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("empty export produced %d records, want header only", len(records))
	}
}

func TestXLSXEncoder(t *testing.T) {
	var buf bytes.Buffer
	enc := NewXLSXEncoder(&buf)

	if err := enc.Begin([]string{"id", "name"}); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	if err := enc.Write(source.Row{"1", "alice"}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	file, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("output is not a valid workbook: %v", err)
	}
	defer file.Close()

	rows, err := file.GetRows(xlsxSheet)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d sheet rows, want 2", len(rows))
	}
	if rows[0][0] != "id" || rows[1][1] != "alice" {
		t.Errorf("sheet = %v, want header + data row", rows)
	}
}

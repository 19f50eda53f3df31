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

	"github.com/sirseerhq/sirseer-export/internal/source"
)

// Kind identifies a destination file format.
type Kind string

// Supported destination formats.
const (
	NDJSON Kind = "ndjson"
	CSV    Kind = "csv"
	XLSX   Kind = "xlsx"
)

// Encoder renders rows into a destination writer. Begin is called exactly
// once before the first row; Close exactly once after the last. An encoder
// must flush incrementally and not accumulate rows.
type Encoder interface {
	// Begin starts the document with the given column names.
	Begin(fields []string) error

	// Write renders one row.
	Write(row source.Row) error

	// Close finishes the document and flushes any buffered state.
	// It does not close the underlying writer.
	Close() error
}

// New creates an encoder of the given kind writing to w.
func New(kind Kind, w io.Writer) (Encoder, error) {
	switch kind {
	case NDJSON:
		return NewNDJSONEncoder(w), nil
	case CSV:
		return NewCSVEncoder(w), nil
	case XLSX:
		return NewXLSXEncoder(w), nil
	default:
		return nil, fmt.Errorf("unknown format: %q", kind)
	}
}

// ParseKind validates a format name from configuration or flags.
func ParseKind(name string) (Kind, error) {
	switch Kind(name) {
	case NDJSON, CSV, XLSX:
		return Kind(name), nil
	default:
		return "", fmt.Errorf("unknown format: %q (supported: ndjson, csv, xlsx)", name)
	}
}

// Extension returns the conventional file extension for the kind.
func Extension(kind Kind) string {
	return "." + string(kind)
}

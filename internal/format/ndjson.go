package format

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/sirseerhq/sirseer-export/internal/source"
)

// NDJSONEncoder streams rows as NDJSON, one JSON object per line keyed by
// column name. It ensures memory-efficient writing without accumulating
// data.
type NDJSONEncoder struct {
	mu      sync.Mutex
	encoder *json.Encoder
	fields  []string
	count   int
}

// NewNDJSONEncoder creates an NDJSON encoder that writes to w.
func NewNDJSONEncoder(w io.Writer) *NDJSONEncoder {
	return &NDJSONEncoder{encoder: json.NewEncoder(w)}
}

// Begin records the column names used as object keys. NDJSON has no
// header line.
func (e *NDJSONEncoder) Begin(fields []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fields = fields
	return nil
}

// Write writes a single row as one JSON object. Each record is
// immediately flushed to the output.
func (e *NDJSONEncoder) Write(row source.Row) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	record := make(map[string]string, len(e.fields))
	for i, field := range e.fields {
		if i < len(row) {
			record[field] = row[i]
		}
	}

	if err := e.encoder.Encode(record); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}

	e.count++
	return nil
}

// Count returns the number of records written.
func (e *NDJSONEncoder) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.count
}

// Close is a no-op: every record is flushed as it is written.
func (e *NDJSONEncoder) Close() error {
	return nil
}

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

package source

import "context"

// Chunk is one bounded, contiguous slice of the export's total row set.
type Chunk struct {
	// Index is the chunk's position in the dense 0..N-1 total order.
	Index int

	// Offset is the position of the chunk's first row in the source.
	Offset int64

	// Rows holds the fetched rows, at most chunkSize of them.
	Rows []Row
}

// Iterator produces a lazy, finite, strictly forward sequence of chunks
// over a data source. Each Next call fetches one chunk-size range and
// advances the cursor; the sequence cannot be restarted. The full result
// set is never held in memory.
type Iterator struct {
	src       DataSource
	chunkSize int64
	offset    int64
	index     int
	done      bool
}

// NewIterator creates an iterator over src with the given chunk size.
// chunkSize must already be validated positive (see Plan).
func NewIterator(src DataSource, chunkSize int) *Iterator {
	return &Iterator{src: src, chunkSize: int64(chunkSize)}
}

// Next fetches the next chunk. It returns (nil, nil) at end-of-sequence.
// A short fetch (fewer rows than chunk size) marks the sequence finished,
// so a source that shrank since sizing terminates cleanly.
func (it *Iterator) Next(ctx context.Context) (*Chunk, error) {
	if it.done {
		return nil, nil
	}

	rows, err := it.src.FetchRange(ctx, it.offset, it.chunkSize)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		it.done = true
		return nil, nil
	}

	chunk := &Chunk{
		Index:  it.index,
		Offset: it.offset,
		Rows:   rows,
	}

	it.offset += int64(len(rows))
	it.index++
	if int64(len(rows)) < it.chunkSize {
		it.done = true
	}

	return chunk, nil
}

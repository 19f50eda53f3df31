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

package export

import (
	"fmt"
	"sync"

	exporterrors "github.com/sirseerhq/sirseer-export/internal/errors"
	"github.com/sirseerhq/sirseer-export/internal/format"
	"github.com/sirseerhq/sirseer-export/internal/source"
)

// Definition describes one export: where rows come from and what file
// format they land in. Definitions are immutable once constructed and are
// owned by the caller.
type Definition interface {
	// Name is the definition's registry key, stable across processes.
	Name() string

	// Source returns the data source the export reads from.
	Source() source.DataSource

	// Format returns the destination file format.
	Format() format.Kind
}

// QueuePreferred is the optional capability a definition declares to be
// routed through the queue instead of running synchronously. This is an
// explicit capability check, not type inspection of the definition's
// internals.
type QueuePreferred interface {
	ShouldQueue() bool
}

// CustomSized is the optional capability a definition declares when the
// default count-based sizing is wrong for its source, e.g. grouped
// queries. A nil sizer means the default strategy applies.
type CustomSized interface {
	Sizer() source.Sizer
}

// queuePreferred reports whether def declares the queue capability.
func queuePreferred(def Definition) bool {
	if qp, ok := def.(QueuePreferred); ok {
		return qp.ShouldQueue()
	}
	return false
}

// sizerFor returns def's custom sizer, or nil for the default strategy.
func sizerFor(def Definition) source.Sizer {
	if cs, ok := def.(CustomSized); ok {
		return cs.Sizer()
	}
	return nil
}

// Option configures a definition created by New.
type Option func(*definition)

// WithQueue marks the definition queue-preferred: the Router will dispatch
// it through the QueuedWriter.
func WithQueue() Option {
	return func(d *definition) { d.queued = true }
}

// WithSizer installs a custom sizing strategy used instead of the default
// count query.
func WithSizer(s source.Sizer) Option {
	return func(d *definition) { d.sizer = s }
}

// New creates a definition over src producing kind-formatted files.
func New(name string, src source.DataSource, kind format.Kind, opts ...Option) Definition {
	d := &definition{name: name, src: src, kind: kind}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

type definition struct {
	name   string
	src    source.DataSource
	kind   format.Kind
	queued bool
	sizer  source.Sizer
}

func (d *definition) Name() string              { return d.name }
func (d *definition) Source() source.DataSource { return d.src }
func (d *definition) Format() format.Kind       { return d.kind }
func (d *definition) ShouldQueue() bool         { return d.queued }
func (d *definition) Sizer() source.Sizer       { return d.sizer }

// Registry maps definition names to definitions. The dispatching process
// and every worker must register the same definitions so job payloads
// resolve identically everywhere.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]Definition
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]Definition)}
}

// Register adds a definition. Registering the same name twice is a
// configuration mistake and fails.
func (r *Registry) Register(def Definition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.defs[def.Name()]; exists {
		return fmt.Errorf("export %q already registered", def.Name())
	}
	r.defs[def.Name()] = def
	return nil
}

// Lookup resolves a definition by name.
func (r *Registry) Lookup(name string) (Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", exporterrors.ErrUnknownExport, name)
	}
	return def, nil
}

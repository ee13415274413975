// Package fake provides an in-memory script engine for tests.
package fake

import (
	"context"
	"fmt"
	"iter"
	"maps"
	"slices"
	"sync"

	"github.com/ryclarke/scriptcheck/engine"
)

var _ engine.Engine = new(Fake)

func init() {
	engine.Register("fake", New)
}

// Fake implements an engine whose alias results are seeded by the test. It records
// every prepared script so tests can inspect the substituted lines.
type Fake struct {
	Results map[string][]engine.Record // alias -> records
	Errors  map[string]error           // "prepare" or an alias name -> error

	mu       sync.Mutex
	prepared [][]string
}

// New creates an empty fake engine.
func New(_ context.Context) engine.Engine {
	return NewFake(nil)
}

// NewFake creates a fake engine seeded with the given alias results.
func NewFake(results map[string][]engine.Record) *Fake {
	f := &Fake{
		Results: make(map[string][]engine.Record),
		Errors:  make(map[string]error),
	}

	// Copy seed data to avoid mutations affecting tests
	for alias, records := range results {
		f.Results[alias] = slices.Clone(records)
	}

	return f
}

// SeedErrors configures errors returned by Prepare (key "prepare") or by an alias.
func (f *Fake) SeedErrors(errors map[string]error) {
	maps.Copy(f.Errors, errors)
}

// Prepared returns copies of the lines handed to Prepare, in call order.
func (f *Fake) Prepared() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([][]string, len(f.prepared))
	for i, lines := range f.prepared {
		out[i] = slices.Clone(lines)
	}

	return out
}

// Prepare records the lines and returns a script serving the seeded results.
func (f *Fake) Prepare(_ context.Context, lines []string) (engine.Script, error) {
	f.mu.Lock()
	f.prepared = append(f.prepared, slices.Clone(lines))
	f.mu.Unlock()

	if err := f.Errors["prepare"]; err != nil {
		return nil, err
	}

	return &script{fake: f, lines: slices.Clone(lines)}, nil
}

type script struct {
	fake  *Fake
	lines []string
}

func (s *script) Alias(_ context.Context, alias string) (iter.Seq2[engine.Record, error], error) {
	records, ok := s.fake.Results[alias]
	if !ok {
		return nil, fmt.Errorf("%w: %s", engine.ErrUnknownAlias, alias)
	}

	aliasErr := s.fake.Errors[alias]
	consumed := false

	return func(yield func(engine.Record, error) bool) {
		if consumed {
			return
		}
		consumed = true

		for _, rec := range records {
			if !yield(rec, nil) {
				return
			}
		}

		if aliasErr != nil {
			yield(nil, aliasErr)
		}
	}, nil
}

// Package engine defines the script execution engines driven by the test harness.
//
// An Engine prepares script text into a Script, and a Script exposes each of its
// named result sets (aliases) as a lazy, one-shot sequence of Records. Engines
// register themselves by name so that callers can select one from configuration:
//
//	eng, err := engine.Get(ctx, "jq")
//	script, err := eng.Prepare(ctx, lines)
//	records, err := script.Alias(ctx, "B")
//	for rec, err := range records { ... }
//
// Expected values are compared with the string form of a Record. Fields are
// joined with commas inside parentheses, and any nested list renders as a
// nested tuple, so a record holding a list of pairs renders as ((1,2),(3,4)).
// There is no separate bag notation. Maps render as [k#v,...] with sorted keys
// and nil fields render as the empty string.
package engine

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"sync"
)

var (
	// ErrUnknownEngine is returned by Get when no engine is registered under the requested name.
	ErrUnknownEngine = errors.New("unknown script engine")
	// ErrUnknownAlias is returned by Script.Alias when the script does not define the alias.
	ErrUnknownAlias = errors.New("unknown alias")
)

var (
	mu        sync.RWMutex
	factories = make(map[string]Factory)
)

// Factory creates an Engine using settings carried by the context.
type Factory func(ctx context.Context) Engine

// Engine prepares script lines for execution.
type Engine interface {
	// Prepare parses the given lines into an executable Script.
	Prepare(ctx context.Context, lines []string) (Script, error)
}

// Script is a prepared script, owned by the caller that created it.
type Script interface {
	// Alias returns the lazy result sequence for the named result set. The sequence
	// is forward-only and may only be ranged over once.
	Alias(ctx context.Context, alias string) (iter.Seq2[Record, error], error)
}

// Get retrieves a registered engine by name.
func Get(ctx context.Context, name string) (Engine, error) {
	mu.RLock()
	factory, exists := factories[name]
	mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownEngine, name, Names())
	}

	return factory(ctx), nil
}

// Register a new engine factory by name. The first registration for a name wins.
func Register(name string, factory Factory) {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := factories[name]; !exists {
		factories[name] = factory
	}
}

// Names returns the sorted names of all registered engines.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	slices.Sort(names)

	return names
}

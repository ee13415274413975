/*
Package jq provides a small dataflow script engine built on gojq.

A script is a sequence of alias assignments, one per line:

	A = load '/data/in.jsonl'       -- load records from a fixture file
	B = A | select(.[1] > 0)        -- run a jq filter over each record of A
	C = [B] | length                -- run a jq filter once over all records of B

Blank lines and lines starting with "--" or "#" are ignored, and a trailing ";"
is optional. Aliases are evaluated lazily when their results are requested, so
a script may define aliases that are never read.

Files ending in .json hold a single value (a top-level array yields one record
per element), .jsonl/.ndjson hold one value per line, .yaml/.yml are decoded
like .json, and any other file is read as tab-separated text.
*/
package jq

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/itchyny/gojq"
	"github.com/spf13/afero"

	"github.com/ryclarke/scriptcheck/engine"
)

var _ engine.Engine = new(Engine)

func init() {
	engine.Register("jq", New)
}

var (
	assignRe = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\s*=\s*(.+)$`)
	loadRe   = regexp.MustCompile(`(?i)^load\s+'([^']*)'$`)
	pipeRe   = regexp.MustCompile(`^(\[)?([A-Za-z_][A-Za-z0-9_]*)(\])?\s*\|\s*(.+)$`)
)

// Engine prepares jq dataflow scripts.
type Engine struct{}

// New creates a jq engine.
func New(_ context.Context) engine.Engine {
	return &Engine{}
}

// statement is a single parsed alias assignment.
type statement struct {
	alias string
	line  int

	// load statements
	path string

	// filter statements, bound to the source definition visible at parse time
	source  *statement
	collect bool
	code    *gojq.Code
}

type script struct {
	statements map[string]*statement
	workDir    string
	fs         afero.Fs
}

// Prepare parses and compiles every statement. Paths are resolved against the
// working directory carried by ctx.
func (e *Engine) Prepare(ctx context.Context, lines []string) (engine.Script, error) {
	s := &script{
		statements: make(map[string]*statement),
		workDir:    engine.WorkDir(ctx),
		fs:         engine.Fs(ctx),
	}

	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "--") || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSpace(strings.TrimSuffix(line, ";"))

		stmt, err := s.parse(line, i+1)
		if err != nil {
			return nil, err
		}

		s.statements[stmt.alias] = stmt
	}

	return s, nil
}

func (s *script) parse(line string, lineNo int) (*statement, error) {
	m := assignRe.FindStringSubmatch(line)
	if m == nil {
		return nil, fmt.Errorf("line %d: expected `ALIAS = ...`, got %q", lineNo, line)
	}

	stmt := &statement{alias: m[1], line: lineNo}
	body := strings.TrimSpace(m[2])

	if lm := loadRe.FindStringSubmatch(body); lm != nil {
		stmt.path = lm[1]
		if stmt.path != "" && !filepath.IsAbs(stmt.path) && s.workDir != "" {
			stmt.path = filepath.Join(s.workDir, stmt.path)
		}

		return stmt, nil
	}

	pm := pipeRe.FindStringSubmatch(body)
	if pm == nil {
		return nil, fmt.Errorf("line %d: expected `load '<path>'` or `SOURCE | <filter>`, got %q", lineNo, body)
	}

	if (pm[1] == "[") != (pm[3] == "]") {
		return nil, fmt.Errorf("line %d: unbalanced brackets around %q", lineNo, pm[2])
	}

	source, ok := s.statements[pm[2]]
	if !ok {
		return nil, fmt.Errorf("line %d: %w: %s", lineNo, engine.ErrUnknownAlias, pm[2])
	}

	stmt.source = source
	stmt.collect = pm[1] == "["

	query, err := gojq.Parse(pm[4])
	if err != nil {
		return nil, fmt.Errorf("line %d: filter parse error: %w", lineNo, err)
	}

	if stmt.code, err = gojq.Compile(query); err != nil {
		return nil, fmt.Errorf("line %d: compile error: %w", lineNo, err)
	}

	return stmt, nil
}

// Alias returns the lazy record sequence for the named alias.
func (s *script) Alias(ctx context.Context, alias string) (iter.Seq2[engine.Record, error], error) {
	stmt, ok := s.statements[alias]
	if !ok {
		return nil, fmt.Errorf("%w: %s", engine.ErrUnknownAlias, alias)
	}

	consumed := false

	return func(yield func(engine.Record, error) bool) {
		if consumed {
			return
		}
		consumed = true

		for value, err := range s.values(ctx, stmt) {
			if err != nil {
				yield(nil, err)
				return
			}

			if !yield(engine.FromValue(value), nil) {
				return
			}
		}
	}, nil
}

// values lazily evaluates the raw values for an alias, pulling from its source as needed.
func (s *script) values(ctx context.Context, stmt *statement) iter.Seq2[any, error] {
	if stmt.source == nil {
		return s.load(stmt)
	}

	return func(yield func(any, error) bool) {
		if stmt.collect {
			all := make([]any, 0)
			for value, err := range s.values(ctx, stmt.source) {
				if err != nil {
					yield(nil, err)
					return
				}
				all = append(all, value)
			}

			run(ctx, stmt, all, yield)
			return
		}

		for value, err := range s.values(ctx, stmt.source) {
			if err != nil {
				yield(nil, err)
				return
			}

			if !run(ctx, stmt, value, yield) {
				return
			}
		}
	}
}

// run executes the statement's filter over one input, yielding every output.
// It returns false once the consumer stops or an error was yielded.
func run(ctx context.Context, stmt *statement, input any, yield func(any, error) bool) bool {
	results := stmt.code.RunWithContext(ctx, input)
	for {
		v, ok := results.Next()
		if !ok {
			return true
		}

		if err, isErr := v.(error); isErr {
			var haltErr *gojq.HaltError
			if errors.As(err, &haltErr) && haltErr.Value() == nil {
				return true
			}

			yield(nil, fmt.Errorf("%s (line %d): %w", stmt.alias, stmt.line, err))
			return false
		}

		if !yield(v, nil) {
			return false
		}
	}
}

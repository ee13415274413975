package jq

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/ryclarke/scriptcheck/engine"
	testutil "github.com/ryclarke/scriptcheck/utils/testing"
)

const sandbox = "/sandbox"

// setupFs creates an in-memory filesystem seeded with the given files (relative to the sandbox).
func setupFs(t *testing.T, files map[string]string) context.Context {
	t.Helper()

	memFs := afero.NewMemMapFs()
	for name, content := range files {
		if err := afero.WriteFile(memFs, filepath.Join(sandbox, name), []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}

	return engine.WithFs(engine.WithWorkDir(context.Background(), sandbox), memFs)
}

// collect drains an alias into rendered strings, failing the test on any error.
func collect(t *testing.T, ctx context.Context, script engine.Script, alias string) []string {
	t.Helper()

	seq, err := script.Alias(ctx, alias)
	if err != nil {
		t.Fatalf("Alias(%s) failed: %v", alias, err)
	}

	return testutil.Drain(t, seq)
}

func prepare(t *testing.T, ctx context.Context, script string) engine.Script {
	t.Helper()

	s, err := New(ctx).Prepare(ctx, strings.Split(script, "\n"))
	if err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}

	return s
}

func TestAliases(t *testing.T) {
	files := map[string]string{
		"data/in.jsonl":  "[1,2]\n[3,-4]\n\n[5,6]\n",
		"data/rows.json": `[{"name":"a","n":1},{"name":"b","n":2.5}]`,
		"data/one.json":  `{"k":"v"}`,
		"data/in.yaml":   "- [x, 1]\n- [y, 2]\n",
		"data/in.tsv":    "a\tb\nc\td\n",
	}

	tests := []struct {
		name   string
		script string
		alias  string
		want   []string
	}{
		{
			name:   "filter each record",
			script: "A = load 'data/in.jsonl';\nB = A | select(.[1] > 0);",
			alias:  "B",
			want:   []string{"(1,2)", "(5,6)"},
		},
		{
			name:   "collect all records",
			script: "A = load 'data/in.jsonl'\nC = [A] | length",
			alias:  "C",
			want:   []string{"(3)"},
		},
		{
			name:   "top-level json array is spread",
			script: "A = load 'data/rows.json'\nB = A | [.name, .n]",
			alias:  "B",
			want:   []string{"(a,1)", "(b,2.5)"},
		},
		{
			name:   "single json value",
			script: "A = LOAD 'data/one.json'",
			alias:  "A",
			want:   []string{"([k#v])"},
		},
		{
			name:   "yaml sequences",
			script: "A = load 'data/in.yaml'\nB = A | .[0]",
			alias:  "B",
			want:   []string{"(x)", "(y)"},
		},
		{
			name:   "tab separated text",
			script: "A = load 'data/in.tsv'",
			alias:  "A",
			want:   []string{"(a,b)", "(c,d)"},
		},
		{
			name:   "reassignment refers to the previous definition",
			script: "A = load 'data/in.jsonl'\nA = A | .[0] * 10",
			alias:  "A",
			want:   []string{"(10)", "(30)", "(50)"},
		},
		{
			name:   "comments and blank lines are skipped",
			script: "-- header\n# another\n\nA = load '/sandbox/data/in.jsonl'\nB = A | .[1] | select(. < 0)",
			alias:  "B",
			want:   []string{"(-4)"},
		},
		{
			name:   "multiple outputs per record",
			script: "A = load 'data/in.jsonl'\nB = A | .[]",
			alias:  "B",
			want:   []string{"(1)", "(2)", "(3)", "(-4)", "(5)", "(6)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := setupFs(t, files)
			testutil.AssertLines(t, collect(t, ctx, prepare(t, ctx, tt.script), tt.alias), tt.want)
		})
	}
}

func TestPrepareErrors(t *testing.T) {
	tests := []struct {
		name    string
		script  string
		wantErr error
		wantMsg string
	}{
		{
			name:    "unknown source alias",
			script:  "B = A | .",
			wantErr: engine.ErrUnknownAlias,
		},
		{
			name:    "not an assignment",
			script:  "DUMP A",
			wantMsg: "line 1: expected `ALIAS = ...`",
		},
		{
			name:    "unsupported body",
			script:  "A = store 'x'",
			wantMsg: "expected `load '<path>'`",
		},
		{
			name:    "invalid filter",
			script:  "A = load 'x.json'\nB = A | select(",
			wantMsg: "line 2: filter parse error",
		},
		{
			name:    "unbalanced brackets",
			script:  "A = load 'x.json'\nB = [A | length",
			wantMsg: "unbalanced brackets",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := setupFs(t, nil)

			_, err := New(ctx).Prepare(ctx, strings.Split(tt.script, "\n"))
			if err == nil {
				t.Fatal("Expected prepare error, got nil")
			}

			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected error %v, got: %v", tt.wantErr, err)
			}

			if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Expected error containing %q, got: %v", tt.wantMsg, err)
			}
		})
	}
}

func TestAliasErrors(t *testing.T) {
	t.Run("unknown alias", func(t *testing.T) {
		ctx := setupFs(t, nil)
		script := prepare(t, ctx, "A = load 'in.json'")

		if _, err := script.Alias(ctx, "Z"); !errors.Is(err, engine.ErrUnknownAlias) {
			t.Errorf("Expected ErrUnknownAlias, got: %v", err)
		}
	})

	t.Run("missing file surfaces on iteration", func(t *testing.T) {
		ctx := setupFs(t, nil)
		script := prepare(t, ctx, "A = load 'missing.json'")

		seq, err := script.Alias(ctx, "A")
		if err != nil {
			t.Fatalf("Expected lazy alias, got: %v", err)
		}

		var gotErr error
		for _, err := range seq {
			gotErr = err
		}

		if !errors.Is(gotErr, fs.ErrNotExist) {
			t.Errorf("Expected fs.ErrNotExist, got: %v", gotErr)
		}
	})

	t.Run("filter runtime error", func(t *testing.T) {
		ctx := setupFs(t, map[string]string{"in.jsonl": "1\n"})
		script := prepare(t, ctx, "A = load 'in.jsonl'\nB = A | error(\"bad record\")")

		seq, _ := script.Alias(ctx, "B")

		var gotErr error
		for _, err := range seq {
			gotErr = err
		}

		if gotErr == nil || !strings.Contains(gotErr.Error(), "bad record") {
			t.Errorf("Expected filter error, got: %v", gotErr)
		}
	})

	t.Run("sequence is one-shot", func(t *testing.T) {
		ctx := setupFs(t, map[string]string{"in.jsonl": "1\n2\n"})
		script := prepare(t, ctx, "A = load 'in.jsonl'")

		seq, _ := script.Alias(ctx, "A")

		count := 0
		for range seq {
			count++
		}
		for range seq {
			count++
		}

		if count != 2 {
			t.Errorf("Expected 2 records from a single pass, got %d", count)
		}
	})
}

func TestRegistered(t *testing.T) {
	eng, err := engine.Get(context.Background(), "jq")
	if err != nil {
		t.Fatalf("Expected jq engine to be registered: %v", err)
	}

	if _, ok := eng.(*Engine); !ok {
		t.Errorf("Expected *Engine, got %T", eng)
	}
}

package cases

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/ryclarke/scriptcheck/config"
	testutil "github.com/ryclarke/scriptcheck/utils/testing"
)

func TestRun(t *testing.T) {
	tests := []struct {
		file     string
		passed   bool
		wantOut  []string
		wantFail string
	}{
		{
			file:    "testdata/positive.case.yaml",
			passed:  true,
			wantOut: []string{"Values for B:", "(1,2)", "(5,6)"},
		},
		{
			file:    "testdata/nested/totals.case.yaml",
			passed:  true,
			wantOut: []string{"Values for N:", "(3)", "Values for R:", "(west,7)", "Values for T:", "(22)"},
		},
		{
			file:     "testdata/failing.case.yaml",
			wantFail: "Mismatch in number of records for A: expected 1, got 2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			ctx := config.LoadFixture(t, "../config")

			c, err := Load(tt.file)
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}

			var out bytes.Buffer
			result := Run(ctx, c, &out)

			if result.Passed() != tt.passed {
				t.Fatalf("Expected passed = %v, got failures: %v\n%s", tt.passed, result.Failures, out.String())
			}

			if tt.wantOut != nil {
				testutil.AssertContains(t, out.String(), tt.wantOut)
			}

			if tt.wantFail != "" {
				if !errors.Is(result.Err(), ErrFailed) {
					t.Errorf("Expected ErrFailed, got: %v", result.Err())
				}
				testutil.AssertContains(t, result.Failures, tt.wantFail)
			}

			// sandboxes are removed after each run
			entries, err := os.ReadDir(config.Viper(ctx).GetString(config.CasesWorkDir))
			if err != nil {
				t.Fatal(err)
			}
			testutil.AssertLength(t, entries, 0)
		})
	}
}

func TestRunStopsAtFirstFailure(t *testing.T) {
	ctx := config.LoadFixture(t, "../config")
	memFs := afero.NewMemMapFs()

	c := &Case{
		Name:     "two aliases",
		Engine:   "jq",
		Script:   "A = load '$DATA_DIR/in.jsonl'\nB = A | . * 2\n",
		Fixtures: map[string][]string{"data/in.jsonl": {"1"}},
		Expect: map[string][]string{
			"A": {"(9)"},
			"B": {"(2)"},
		},
	}

	var out bytes.Buffer
	result := RunFs(ctx, memFs, c, &out)

	testutil.AssertLength(t, result.Failures, 1)
	testutil.AssertContains(t, result.Failures[0], "Mismatch in A at index 0: expected (9), got (1)")
	testutil.AssertNotContains(t, out.String(), []string{"Values for B:"})
}

func TestRunWithoutOutput(t *testing.T) {
	ctx := config.LoadFixture(t, "../config")

	c := &Case{
		Name:     "discarded",
		Engine:   "jq",
		Script:   "A = load '$DATA_DIR/in.jsonl'",
		Fixtures: map[string][]string{"data/in.jsonl": {"1", "2"}},
		Expect:   map[string][]string{"A": {"(1)", "(2)"}},
	}

	result := RunFs(ctx, afero.NewMemMapFs(), c, nil)
	if !result.Passed() {
		t.Errorf("Expected the case to pass, got failures: %v", result.Failures)
	}

	c.Expect["A"] = []string{"(1)"}

	result = RunFs(ctx, afero.NewMemMapFs(), c, nil)
	testutil.AssertContains(t, result.Failures, "Mismatch in number of records for A")
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name     string
		c        *Case
		wantFail string
	}{
		{
			name:     "unknown engine",
			c:        &Case{Name: "x", Engine: "nope", Script: "A = load 'x'", Expect: map[string][]string{"A": nil}},
			wantFail: "unknown script engine",
		},
		{
			name:     "prepare error",
			c:        &Case{Name: "x", Engine: "jq", Script: "A = B | .", Expect: map[string][]string{"A": nil}},
			wantFail: "Failed to build script",
		},
		{
			name:     "missing script file",
			c:        &Case{Name: "x", Engine: "jq", ScriptFile: "/nowhere/q.txt", Expect: map[string][]string{"A": nil}},
			wantFail: "Failed to build script from /nowhere/q.txt",
		},
		{
			name:     "missing load file",
			c:        &Case{Name: "x", Engine: "jq", Script: "A = load 'none.json'", Expect: map[string][]string{"A": nil}},
			wantFail: "Failed to collect results for A",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := config.LoadFixture(t, "../config")

			result := RunFs(ctx, afero.NewMemMapFs(), tt.c, nil)

			if result.Passed() {
				t.Fatal("Expected the case to fail")
			}
			testutil.AssertContains(t, strings.Join(result.Failures, "\n"), tt.wantFail)
		})
	}
}

func TestRender(t *testing.T) {
	ctx := config.LoadFixture(t, "../config")
	config.Viper(ctx).Set(config.DataDir, "/fixtures")

	c, err := Load("testdata/nested/totals.case.yaml")
	if err != nil {
		t.Fatal(err)
	}

	lines, err := Render(ctx, c)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	testutil.AssertContains(t, lines, []string{"load '/fixtures/sales.tsv'", `select(.[0] == "west")`})
}

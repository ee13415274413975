package harness

import (
	"errors"
	"fmt"

	"github.com/ryclarke/scriptcheck/engine"
)

// ErrMismatch is wrapped by every MismatchError.
var ErrMismatch = errors.New("output mismatch")

// MismatchError describes the first difference between expected and actual output.
// Index is -1 when the record counts differ.
type MismatchError struct {
	Alias    string
	Index    int
	Expected string
	Actual   string
}

func (e *MismatchError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("Mismatch in number of records for %s: expected %s, got %s", e.Alias, e.Expected, e.Actual)
	}

	return fmt.Sprintf("Mismatch in %s at index %d: expected %s, got %s", e.Alias, e.Index, e.Expected, e.Actual)
}

func (e *MismatchError) Unwrap() error {
	return ErrMismatch
}

// CompareOutput checks the rendered records against expected, position by position.
// Counts are compared first.
func CompareOutput(alias string, records []engine.Record, expected []string) error {
	if len(records) != len(expected) {
		return &MismatchError{
			Alias:    alias,
			Index:    -1,
			Expected: fmt.Sprint(len(expected)),
			Actual:   fmt.Sprint(len(records)),
		}
	}

	for i, rec := range records {
		if actual := rec.String(); actual != expected[i] {
			return &MismatchError{Alias: alias, Index: i, Expected: expected[i], Actual: actual}
		}
	}

	return nil
}

// AssertOutput collects the records of alias and fails the test unless they render
// to exactly the expected strings, in order.
func (tc *TestContext) AssertOutput(t TestingT, script engine.Script, alias string, expected ...string) {
	t.Helper()

	records, err := tc.ResultsFor(script, alias, true)
	if err != nil {
		t.Fatalf("Failed to collect results for %s: %v", alias, err)
		return
	}

	if err := CompareOutput(alias, records, expected); err != nil {
		t.Fatalf("%v", err)
	}
}

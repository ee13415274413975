package harness

import (
	"fmt"

	"github.com/ryclarke/scriptcheck/engine"
)

// ResultsFor drains the records of alias into a slice. With logValues set, a header
// and each record are logged as they are consumed. The engine sequence is one-shot:
// a second call on the same script yields nothing for engines that enforce it.
func (tc *TestContext) ResultsFor(script engine.Script, alias string, logValues bool) ([]engine.Record, error) {
	seq, err := script.Alias(tc.engineContext(), alias)
	if err != nil {
		return nil, err
	}

	if logValues {
		tc.logger.Info().Msgf("Values for %s:", alias)
	}

	var records []engine.Record

	for rec, err := range seq {
		if err != nil {
			return records, fmt.Errorf("failed reading %s after %d records: %w", alias, len(records), err)
		}

		if logValues {
			tc.logger.Info().Msg(rec.String())
		}

		records = append(records, rec)
	}

	return records, nil
}

// MustResultsFor is ResultsFor (with logging) that fails the test on error.
func (tc *TestContext) MustResultsFor(t TestingT, script engine.Script, alias string) []engine.Record {
	t.Helper()

	records, err := tc.ResultsFor(script, alias, true)
	if err != nil {
		t.Fatalf("Failed to collect results for %s: %v", alias, err)
	}

	return records
}

/*
Package call runs units of work concurrently across case files. Commands call
`Do(...)` with a Func holding the work for a single case.

Example:

	paths := []string{"a.case.yaml", "b.case.yaml"}
	names, errs := Do(cmd, paths, Wrap(Announce, RunFile))

Every case runs in its own goroutine, bounded by run.max-concurrency, while the
output Handler prints each case's output in order so it is never interleaved.
*/
package call

import (
	"context"
	"fmt"
	"time"

	"github.com/ryclarke/scriptcheck/cases"
	"github.com/ryclarke/scriptcheck/output"
)

// Func defines an atomic unit of work on a case. Output should be sent to the
// channel, which must remain open. Closing the channel from within a Func will
// result in a panic.
type Func func(ctx context.Context, ch output.Channel) error

// Wrap each provided Func into a new one that executes them in order, stopping at
// the first error.
func Wrap(calls ...Func) Func {
	return func(ctx context.Context, ch output.Channel) error {
		for _, call := range calls {
			if err := call(ctx, ch); err != nil {
				return err
			}
		}

		return nil
	}
}

// Announce writes the case path to the channel.
func Announce(_ context.Context, ch output.Channel) error {
	ch.WriteString(fmt.Sprintf("Running %s", ch.Name()))

	return nil
}

// RunFile loads the case file named by the channel and runs it, streaming the
// result values into the channel. A failed case returns an error wrapping
// cases.ErrFailed.
func RunFile(ctx context.Context, ch output.Channel) error {
	c, err := cases.Load(ch.Name())
	if err != nil {
		return err
	}

	result := cases.Run(ctx, c, ch)
	ch.WriteString(fmt.Sprintf("%s finished in %s", c.Name, result.Duration.Round(time.Millisecond)))

	return result.Err()
}

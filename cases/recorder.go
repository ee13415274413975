package cases

import (
	"fmt"
	"io"
)

// failNow unwinds a case run after a fatal failure, the way t.FailNow stops a test.
type failNow struct{}

// recorder implements harness.TestingT outside of `go test`.
type recorder struct {
	out      io.Writer
	failures []string
	cleanups []func()
}

func (r *recorder) Helper() {}

func (r *recorder) Fatalf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.failures = append(r.failures, msg)
	r.Logf("FAIL: %s", msg)

	panic(failNow{})
}

func (r *recorder) Logf(format string, args ...any) {
	fmt.Fprintf(r.out, format+"\n", args...)
}

func (r *recorder) Cleanup(f func()) {
	r.cleanups = append(r.cleanups, f)
}

// run calls f, stopping at the first fatal failure, then runs the registered
// cleanups in reverse order.
func (r *recorder) run(f func()) {
	defer func() {
		for i := len(r.cleanups) - 1; i >= 0; i-- {
			r.cleanups[i]()
		}
		r.cleanups = nil
	}()

	defer func() {
		if v := recover(); v != nil {
			if _, ok := v.(failNow); !ok {
				panic(v)
			}
		}
	}()

	f()
}

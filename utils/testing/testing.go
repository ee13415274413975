package testing

import (
	"context"
	"io"
	"iter"
	"sync"
	"testing"

	"github.com/spf13/cobra"

	"github.com/ryclarke/scriptcheck/engine"
)

// FakeCmd creates a minimal cobra.Command for testing with the given context and output writer.
func FakeCmd(t *testing.T, ctx context.Context, out io.Writer) *cobra.Command {
	t.Helper()

	cmd := &cobra.Command{
		Use: "test",
	}
	cmd.SetContext(ctx)
	cmd.SetOut(out)
	cmd.SetErr(out)

	return cmd
}

// Drain renders every record of seq, failing the test on the first error.
func Drain(t *testing.T, seq iter.Seq2[engine.Record, error]) []string {
	t.Helper()

	var out []string
	for rec, err := range seq {
		if err != nil {
			t.Fatalf("Unexpected error after %d records: %v", len(out), err)
		}
		out = append(out, rec.String())
	}

	return out
}

// MockChannel implements output.Channel for testing call.Func implementations
// directly. Written lines and errors are captured in order. The output package
// tests import this package, so the interface assertion lives in the call tests.
type MockChannel struct {
	name string

	mu     sync.Mutex
	output []byte
	errs   []error
}

// NewMockChannel creates a new MockChannel with the given name.
func NewMockChannel(name string) *MockChannel {
	return &MockChannel{name: name}
}

func (m *MockChannel) Name() string { return m.name }

// Out returns nil (not used in mock).
func (m *MockChannel) Out() <-chan []byte { return nil }

// Err returns nil (not used in mock).
func (m *MockChannel) Err() <-chan error { return nil }

// WriteString appends s as a line.
func (m *MockChannel) WriteString(s string) (int, error) {
	return m.Write([]byte(s + "\n"))
}

func (m *MockChannel) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.output = append(m.output, p...)
	return len(p), nil
}

func (m *MockChannel) WriteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.errs = append(m.errs, err)
}

// Start is a no-op for the mock.
func (m *MockChannel) Start() error { return nil }

// Close is a no-op for the mock.
func (m *MockChannel) Close() error { return nil }

// Output returns the captured output.
func (m *MockChannel) Output() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return string(m.output)
}

// Errors returns the captured errors.
func (m *MockChannel) Errors() []error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]error(nil), m.errs...)
}

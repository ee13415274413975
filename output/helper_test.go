package output

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"

	"github.com/ryclarke/scriptcheck/config"
	testutil "github.com/ryclarke/scriptcheck/utils/testing"
)

// makeTestCommand creates a command writing to a buffer with the fixture config.
func makeTestCommand(t *testing.T) (*cobra.Command, *bytes.Buffer) {
	t.Helper()

	var out bytes.Buffer
	return testutil.FakeCmd(t, config.LoadFixture(t, "../config"), &out), &out
}

// testChannel implements Channel with pre-filled, closed channels.
type testChannel struct {
	name   string
	output chan []byte
	err    chan error
}

func newTestChannel(name string, lines []string, err error) *testChannel {
	tc := &testChannel{
		name:   name,
		output: make(chan []byte, len(lines)),
		err:    make(chan error, 1),
	}

	for _, line := range lines {
		tc.output <- []byte(line + "\n")
	}
	if err != nil {
		tc.err <- err
	}

	close(tc.output)
	close(tc.err)

	return tc
}

func (tc *testChannel) Name() string                      { return tc.name }
func (tc *testChannel) Out() <-chan []byte                { return tc.output }
func (tc *testChannel) Err() <-chan error                 { return tc.err }
func (tc *testChannel) Write(p []byte) (int, error)       { return len(p), nil }
func (tc *testChannel) WriteString(s string) (int, error) { return len(s), nil }
func (tc *testChannel) WriteError(error)                  {}
func (tc *testChannel) Start() error                      { return nil }
func (tc *testChannel) Close() error                      { return nil }

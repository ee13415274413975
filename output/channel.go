// Package output provides output handling and formatting for concurrent case runs.
package output

import (
	"context"
	"io"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/ryclarke/scriptcheck/config"
)

// Channel carries the output of a single case run from its worker to a Handler.
type Channel interface {
	// Name returns the name of the case.
	Name() string

	// Out returns the output channel for reading.
	Out() <-chan []byte
	// Err returns the error channel for reading.
	Err() <-chan error

	// WriteString writes a whole line to the output channel.
	io.StringWriter
	// Write sends bytes directly to the output channel.
	io.Writer

	// WriteError reports a failure of the case.
	WriteError(err error)

	// Start blocks until a concurrency slot is available.
	Start() error
	// Close the channels and release the concurrency slot. If a wait group was
	// provided it is decremented.
	io.Closer
}

// NewChannel creates a new output channel bounded by sem and tracked by wg. Both
// may be nil.
func NewChannel(ctx context.Context, name string, sem *semaphore.Weighted, wg *sync.WaitGroup) Channel {
	return &channel{
		name:   name,
		output: make(chan []byte, config.Viper(ctx).GetInt(config.ChannelBuffer)),
		// a case reports at most one failure
		err: make(chan error, 1),

		ctx: ctx,
		sem: sem,
		wg:  wg,
	}
}

type channel struct {
	name   string
	output chan []byte
	err    chan error

	ctx context.Context
	sem *semaphore.Weighted
	wg  *sync.WaitGroup

	mu       sync.Mutex // serializes writers
	acquired bool
	closed   sync.Once
}

func (c *channel) Name() string {
	return c.name
}

func (c *channel) Out() <-chan []byte {
	return c.output
}

func (c *channel) Err() <-chan error {
	return c.err
}

func (c *channel) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// the caller may reuse p
	buf := make([]byte, len(p))
	copy(buf, p)
	c.output <- buf

	return len(p), nil
}

// WriteString sends s terminated with a newline. Empty strings are dropped.
func (c *channel) WriteString(s string) (int, error) {
	if len(s) == 0 {
		return 0, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.output <- []byte(s + "\n")
	return len(s), nil
}

func (c *channel) WriteError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case c.err <- err:
	default:
		// keep the first failure only
	}
}

func (c *channel) Start() error {
	if c.sem == nil {
		return nil
	}

	if err := c.sem.Acquire(c.ctx, 1); err != nil {
		return err
	}

	c.acquired = true

	return nil
}

func (c *channel) Close() error {
	c.closed.Do(func() {
		close(c.output)
		close(c.err)

		if c.acquired {
			c.sem.Release(1)
		}

		if c.wg != nil {
			c.wg.Done()
		}
	})

	return nil
}

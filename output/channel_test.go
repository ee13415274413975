package output

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/ryclarke/scriptcheck/config"
)

func TestChannelWrites(t *testing.T) {
	ctx := config.LoadFixture(t, "../config")
	ch := NewChannel(ctx, "case-a", nil, nil)

	if ch.Name() != "case-a" {
		t.Errorf("Expected name case-a, got %s", ch.Name())
	}

	buf := []byte("raw")
	ch.Write(buf)
	buf[0] = 'X' // the channel keeps its own copy

	ch.WriteString("line")
	ch.WriteString("") // dropped
	ch.Write(nil)      // dropped

	first := errors.New("first")
	ch.WriteError(first)
	ch.WriteError(errors.New("second")) // only the first failure is kept

	ch.Close()
	ch.Close() // idempotent

	var got []string
	for msg := range ch.Out() {
		got = append(got, string(msg))
	}

	if len(got) != 2 || got[0] != "raw" || got[1] != "line\n" {
		t.Errorf("Expected [raw line\\n], got: %q", got)
	}

	var errs []error
	for err := range ch.Err() {
		errs = append(errs, err)
	}

	if len(errs) != 1 || errs[0] != first {
		t.Errorf("Expected only the first error, got: %v", errs)
	}
}

func TestChannelSemaphore(t *testing.T) {
	ctx := config.LoadFixture(t, "../config")
	sem := semaphore.NewWeighted(1)
	wg := new(sync.WaitGroup)
	wg.Add(2)

	a := NewChannel(ctx, "a", sem, wg)
	b := NewChannel(ctx, "b", sem, wg)

	if err := a.Start(); err != nil {
		t.Fatal(err)
	}

	started := make(chan struct{})
	go func() {
		b.Start()
		close(started)
	}()

	select {
	case <-started:
		t.Fatal("Expected b to wait for a free slot")
	case <-time.After(20 * time.Millisecond):
	}

	a.Close()

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("Expected b to start after a released its slot")
	}

	b.Close()
	wg.Wait()

	if !sem.TryAcquire(1) {
		t.Error("Expected every slot to be released")
	}
}

func TestChannelStartCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(config.LoadFixture(t, "../config"))
	sem := semaphore.NewWeighted(1)
	sem.Acquire(context.Background(), 1)
	cancel()

	ch := NewChannel(ctx, "a", sem, nil)
	if err := ch.Start(); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got: %v", err)
	}

	// closing without a slot must not release one
	ch.Close()
	if sem.TryAcquire(1) {
		t.Error("Expected the held slot to remain held")
	}
}

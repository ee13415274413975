package run

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/ryclarke/scriptcheck/cases"
	"github.com/ryclarke/scriptcheck/config"
	"github.com/ryclarke/scriptcheck/logging"
)

// watch runs the cases, then runs them again after every batch of file changes
// until interrupted.
func watch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	cmd.SetContext(ctx)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer watcher.Close()

	dirs, err := watchDirs(cmd, args)
	if err != nil {
		return err
	}

	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		logging.Debug().Str("dir", dir).Msg("Watching")
	}

	delay := config.Viper(ctx).GetDuration(config.WatchDelay)

	for {
		if err := runOnce(cmd, args); err != nil && !errors.Is(err, ErrCasesFailed) {
			return err
		} else if err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), err)
		}

		fmt.Fprintln(cmd.ErrOrStderr(), "Watching for changes, press Ctrl+C to stop")

		changed, err := waitForChange(ctx.Done(), watcher, delay)
		if err != nil || changed == "" {
			return err
		}

		fmt.Fprintf(cmd.ErrOrStderr(), "%s has changed\n", changed)
	}
}

// watchDirs returns the argument directories and the directory of every case file,
// deduplicated and in discovery order.
func watchDirs(cmd *cobra.Command, args []string) ([]string, error) {
	fs := afero.NewOsFs()

	paths, err := cases.Discover(cmd.Context(), fs, args...)
	if err != nil {
		return nil, err
	}

	dirs := mapset.NewThreadUnsafeSet[string]()
	ordered := make([]string, 0, len(paths))

	add := func(dir string) {
		if dirs.Add(dir) {
			ordered = append(ordered, dir)
		}
	}

	if len(args) == 0 {
		args = []string{"."}
	}

	for _, arg := range args {
		if ok, _ := afero.IsDir(fs, arg); ok {
			abs, err := filepath.Abs(arg)
			if err != nil {
				return nil, err
			}
			add(abs)
		}
	}

	for _, path := range paths {
		add(filepath.Dir(path))
	}

	return ordered, nil
}

// waitForChange blocks until a relevant event arrives, then waits for delay and
// drops the events that followed it, so a burst of writes triggers one run. It
// returns "" when done is closed.
func waitForChange(done <-chan struct{}, watcher *fsnotify.Watcher, delay time.Duration) (string, error) {
	for {
		select {
		case <-done:
			return "", nil

		case err, ok := <-watcher.Errors:
			if !ok {
				return "", nil
			}
			logging.Error().Err(err).Msg("Watcher error")

		case ev, ok := <-watcher.Events:
			if !ok {
				return "", nil
			}

			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
				continue
			}

			time.Sleep(delay)
			flush(watcher)

			return ev.Name, nil
		}
	}
}

func flush(watcher *fsnotify.Watcher) {
	for {
		select {
		case <-watcher.Events:
		default:
			return
		}
	}
}

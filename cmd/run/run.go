// Package run provides the command that runs script test cases.
package run

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/ryclarke/scriptcheck/call"
	"github.com/ryclarke/scriptcheck/cases"
	"github.com/ryclarke/scriptcheck/config"
	"github.com/ryclarke/scriptcheck/logging"
)

const (
	watchFlag        = "watch"
	announceFlag     = "announce"
	printResultsFlag = "print-results"
	waitOnExitFlag   = "wait"
)

// ErrCasesFailed is returned when at least one case did not pass.
var ErrCasesFailed = errors.New("cases failed")

// Cmd configures the run command
func Cmd() *cobra.Command {
	runCmd := &cobra.Command{
		Use:     "run [-w] [<case file or directory>...]",
		Aliases: []string{"test"},
		Short:   "Run script test cases",
		Long: `Run declarative script test cases.

Each argument is a case file or a directory searched for files matching the
cases.pattern glob (default "**/*.case.yaml"). Without arguments the current
directory is searched.

Every case runs in a private sandbox: its fixtures are written, its script is
built with the case parameters and run on the case engine, and the records of
each expected alias are compared with the expected values. Cases run
concurrently, up to --max-concurrency at once.

Watch Mode:
  With -w the cases are run again whenever a file in a watched directory
  changes. Watched directories are the arguments and the directories of every
  case file. Press Ctrl+C to stop.`,
		Example: `  # Run every case below the current directory
  scriptcheck run

  # Run selected cases one at a time with plain output
  scriptcheck run --sync -o native testdata/filter.case.yaml testdata/totals.case.yaml

  # Re-run cases on every change
  scriptcheck run -w testdata`,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			viper := config.Viper(cmd.Context())
			viper.BindPFlag(config.WatchCases, cmd.Flags().Lookup(watchFlag))
			viper.BindPFlag(config.PrintResults, cmd.Flags().Lookup(printResultsFlag))
			viper.BindPFlag(config.WaitOnExit, cmd.Flags().Lookup(waitOnExitFlag))

			return nil
		},
		RunE: runCases,
	}

	runCmd.Flags().BoolP(watchFlag, "w", false, "re-run cases when watched files change")
	runCmd.Flags().Bool(announceFlag, false, "write the case file path before its output")
	runCmd.Flags().Bool(printResultsFlag, false, "print the output of every case after the tui exits")
	runCmd.Flags().Bool(waitOnExitFlag, false, "keep the tui open after all cases finish")

	return runCmd
}

// runCases runs the cases once, or keeps re-running them in watch mode.
func runCases(cmd *cobra.Command, args []string) error {
	if config.Viper(cmd.Context()).GetBool(config.WatchCases) {
		return watch(cmd, args)
	}

	return runOnce(cmd, args)
}

// runOnce discovers and runs the cases, returning ErrCasesFailed if any failed.
func runOnce(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	paths, err := cases.Discover(ctx, afero.NewOsFs(), args...)
	if err != nil {
		return err
	}

	fn := call.RunFile
	if announce, _ := cmd.Flags().GetBool(announceFlag); announce {
		fn = call.Wrap(call.Announce, call.RunFile)
	}

	names, errs := call.Do(cmd, displayNames(paths), fn)

	failed := 0
	for i, err := range errs {
		if err != nil {
			failed++
			logging.Debug().Str("case", names[i]).Err(err).Msg("Case failed")
		}
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrCasesFailed, failed, len(names))
	}

	return nil
}

// displayNames shortens paths below the working directory to relative ones.
func displayNames(paths []string) []string {
	wd, err := os.Getwd()
	if err != nil {
		return paths
	}

	names := make([]string, len(paths))
	for i, path := range paths {
		names[i] = path

		if rel, err := filepath.Rel(wd, path); err == nil && filepath.IsLocal(rel) {
			names[i] = rel
		}
	}

	return names
}

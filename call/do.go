package call

import (
	"context"
	"runtime"
	"sort"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/spf13/cobra"
	"golang.org/x/sync/semaphore"

	"github.com/ryclarke/scriptcheck/config"
	"github.com/ryclarke/scriptcheck/logging"
	"github.com/ryclarke/scriptcheck/output"
)

// Do executes callFunc once per name, concurrently up to run.max-concurrency.
// Output is processed by the provided handlers, or the configured one if none are
// given. The returned errors are in the same order as the processed names, which
// are deduplicated and sorted when run.sort is set.
func Do(cmd *cobra.Command, names []string, callFunc Func, handler ...output.Handler) ([]string, []error) {
	ctx := cmd.Context()
	viper := config.Viper(ctx)
	names = processArguments(ctx, names)

	maxConcurrency := viper.GetInt(config.MaxConcurrency)
	if maxConcurrency <= 0 {
		maxConcurrency = runtime.NumCPU()
	}

	sem := semaphore.NewWeighted(int64(maxConcurrency))
	wg := new(sync.WaitGroup)
	errs := make([]error, len(names))

	channels := make([]output.Channel, len(names))
	for i := range names {
		channels[i] = output.NewChannel(ctx, names[i], sem, wg)
	}

	wg.Add(len(channels))

	// Slots are acquired in order, so the handler never waits on a case that
	// cannot start while later cases hold every slot.
	go func() {
		for i, ch := range channels {
			if err := ch.Start(); err != nil {
				errs[i] = err
				ch.WriteError(err)
				ch.Close()
				continue
			}

			go runCallFunc(ctx, ch, callFunc, &errs[i])
		}
	}()

	if len(handler) == 0 {
		handler = append(handler, output.GetHandler(cmd))
	}

	for _, handle := range handler {
		handle(cmd, channels)
	}

	wg.Wait()

	return names, errs
}

// runCallFunc executes callFunc for a single case and closes its channel.
func runCallFunc(ctx context.Context, ch output.Channel, callFunc Func, result *error) {
	defer ch.Close()

	logging.Debug().Str("case", ch.Name()).Msg("Starting case")

	if err := callFunc(ctx, ch); err != nil {
		*result = err
		ch.WriteError(err)
	}
}

// processArguments drops duplicate names and sorts them if configured.
func processArguments(ctx context.Context, args []string) []string {
	seen := mapset.NewThreadUnsafeSet[string]()
	names := make([]string, 0, len(args))

	for _, arg := range args {
		if seen.Add(arg) {
			names = append(names, arg)
		}
	}

	if config.Viper(ctx).GetBool(config.SortCases) {
		sort.Strings(names)
	}

	return names
}

package cases

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/ryclarke/scriptcheck/config"
	"github.com/ryclarke/scriptcheck/engine"
	"github.com/ryclarke/scriptcheck/harness"
	"github.com/ryclarke/scriptcheck/logging"
)

// ErrFailed is wrapped by Result.Err for failed cases.
var ErrFailed = errors.New("case failed")

// Result is the outcome of a single case run.
type Result struct {
	Name     string
	Failures []string
	Duration time.Duration
}

// Passed reports whether the case completed without failures.
func (r Result) Passed() bool {
	return len(r.Failures) == 0
}

// Err returns nil for a passing case and an error wrapping ErrFailed otherwise.
func (r Result) Err() error {
	if r.Passed() {
		return nil
	}

	return fmt.Errorf("%w: %s: %s", ErrFailed, r.Name, strings.Join(r.Failures, "; "))
}

// Run executes the case in a private sandbox below cases.workdir. Result values and
// log messages are written to out. The sandbox is removed afterwards.
func Run(ctx context.Context, c *Case, out io.Writer) Result {
	return RunFs(ctx, afero.NewOsFs(), c, out)
}

// RunFs is Run with an explicit filesystem for fixtures, scripts and sandboxes.
// A nil out discards the output.
func RunFs(ctx context.Context, fs afero.Fs, c *Case, out io.Writer) Result {
	if out == nil {
		out = io.Discard
	}

	start := time.Now()
	rec := &recorder{out: out}

	rec.run(func() {
		root, err := afero.TempDir(fs, config.Viper(ctx).GetString(config.CasesWorkDir), "scriptcheck-")
		if err != nil {
			rec.Fatalf("Failed to create case directory: %v", err)
		}
		rec.Cleanup(func() { _ = fs.RemoveAll(root) })

		viper := config.Child(ctx)
		viper.Set(config.WorkDir, root)
		if c.Engine != "" {
			viper.Set(config.DefaultEngine, c.Engine)
		}

		tc := harness.MustSetup(rec, config.SetViper(ctx, viper),
			harness.WithFs(fs),
			harness.WithLogger(logging.Plain(out)),
		)

		for _, name := range sortedKeys(c.Fixtures) {
			if err := tc.WriteLines(name, c.Fixtures[name]...); err != nil {
				rec.Fatalf("Failed to write fixture: %v", err)
			}
		}

		params, err := c.Bindings(fs)
		if err != nil {
			rec.Fatalf("%v", err)
		}

		script := buildScript(rec, tc, c, params)
		for _, alias := range c.Aliases() {
			tc.AssertOutput(rec, script, alias, c.Expect[alias]...)
		}
	})

	return Result{
		Name:     c.Name,
		Failures: rec.failures,
		Duration: time.Since(start),
	}
}

func buildScript(t harness.TestingT, tc *harness.TestContext, c *Case, params []string) engine.Script {
	if path := c.ScriptPath(); path != "" {
		return tc.MustBuildFile(t, path, params...)
	}

	return tc.MustBuildString(t, strings.TrimRight(c.Script, "\n"), params...)
}

// Render returns the substituted script lines of the case without running them.
// DATA_DIR refers to the configured working directory rather than a sandbox.
func Render(ctx context.Context, c *Case) ([]string, error) {
	viper := config.Child(ctx)
	if c.Engine != "" {
		viper.Set(config.DefaultEngine, c.Engine)
	}

	fs := afero.NewOsFs()

	tc, err := harness.NewTestContext(config.SetViper(ctx, viper), harness.WithFs(fs))
	if err != nil {
		return nil, err
	}

	params, err := c.Bindings(fs)
	if err != nil {
		return nil, err
	}

	if path := c.ScriptPath(); path != "" {
		return tc.RenderFile(path, params...)
	}

	return tc.Render(harness.SplitLines(strings.TrimRight(c.Script, "\n")), params...), nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	return keys
}

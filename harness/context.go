/*
Package harness provides the scaffolding for fixture-driven script tests.

A TestContext owns a sandboxed working directory, a filesystem for fixture files,
a script engine and a logger. Tests build a script from a template, substituting
named parameters, run it on the engine and assert on the records of its aliases:

	func TestFilter(t *testing.T) {
		ctx := config.LoadFixture(t, "../config")
		tc := harness.MustSetup(t, ctx, harness.WithEngine(jq.New(ctx)))

		if err := tc.WriteLines("data/in.jsonl", "[1,2]", "[3,-4]"); err != nil {
			t.Fatal(err)
		}

		script := tc.MustBuildString(t, "A = load '$DATA_DIR/in.jsonl'\nB = A | select(.[1] > $MIN)", "MIN=0")
		tc.AssertOutput(t, script, "B", "(1,2)")
	}

Because the working directory is a value on the TestContext rather than process
state, independent contexts may be used from parallel tests.
*/
package harness

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/ryclarke/scriptcheck/config"
	"github.com/ryclarke/scriptcheck/engine"
	"github.com/ryclarke/scriptcheck/logging"
)

// TestingT is the subset of *testing.T used by the harness, so assertions can also
// run outside of `go test`.
type TestingT interface {
	Helper()
	Fatalf(format string, args ...any)
	Logf(format string, args ...any)
	Cleanup(func())
}

// TestContext holds the per-test working directory state and collaborators.
type TestContext struct {
	ctx    context.Context
	fs     afero.Fs
	engine engine.Engine
	logger zerolog.Logger

	workDir string
	saved   []string
}

// Option configures a TestContext.
type Option func(*TestContext)

// WithEngine overrides the configured script engine.
func WithEngine(eng engine.Engine) Option {
	return func(tc *TestContext) {
		tc.engine = eng
	}
}

// WithFs overrides the filesystem used for fixture files.
func WithFs(fs afero.Fs) Option {
	return func(tc *TestContext) {
		tc.fs = fs
	}
}

// WithLogger overrides the logger receiving result values.
func WithLogger(logger zerolog.Logger) Option {
	return func(tc *TestContext) {
		tc.logger = logger
	}
}

// NewTestContext creates a TestContext whose working directory is the configured
// sandbox.workdir. Unless overridden, the engine named by engine.default is used.
func NewTestContext(ctx context.Context, opts ...Option) (*TestContext, error) {
	viper := config.Viper(ctx)

	tc := &TestContext{
		ctx:     ctx,
		fs:      afero.NewOsFs(),
		logger:  logging.Logger,
		workDir: viper.GetString(config.WorkDir),
	}

	for _, opt := range opts {
		opt(tc)
	}

	if tc.engine == nil {
		eng, err := engine.Get(ctx, viper.GetString(config.DefaultEngine))
		if err != nil {
			return nil, err
		}
		tc.engine = eng
	}

	abs, err := filepath.Abs(tc.workDir)
	if err != nil {
		return nil, fmt.Errorf("error determining absolute working directory: %w", err)
	}
	tc.workDir = abs

	return tc, nil
}

// Setup creates a TestContext, enters the test-files sandbox below its working
// directory and registers the matching Restore with t.Cleanup.
func Setup(t TestingT, ctx context.Context, opts ...Option) (*TestContext, error) {
	t.Helper()

	tc, err := NewTestContext(ctx, opts...)
	if err != nil {
		return nil, err
	}

	sandbox := filepath.Join(tc.workDir, config.Viper(ctx).GetString(config.TestDir))
	if err := tc.fs.MkdirAll(sandbox, 0755); err != nil {
		return nil, fmt.Errorf("failed to create sandbox %s: %w", sandbox, err)
	}

	tc.Enter(sandbox)
	t.Cleanup(tc.Restore)

	return tc, nil
}

// MustSetup is Setup that fails the test on error.
func MustSetup(t TestingT, ctx context.Context, opts ...Option) *TestContext {
	t.Helper()

	tc, err := Setup(t, ctx, opts...)
	if err != nil {
		t.Fatalf("Failed to set up test context: %v", err)
	}

	return tc
}

// Enter saves the current working directory and replaces it with sandboxPath.
// Every Enter must be paired with exactly one Restore.
func (tc *TestContext) Enter(sandboxPath string) {
	tc.saved = append(tc.saved, tc.workDir)
	tc.workDir = sandboxPath
}

// Restore resets the working directory to the value saved by the matching Enter.
// Calling Restore without a pending Enter is a no-op.
func (tc *TestContext) Restore() {
	if len(tc.saved) == 0 {
		return
	}

	tc.workDir = tc.saved[len(tc.saved)-1]
	tc.saved = tc.saved[:len(tc.saved)-1]
}

// WorkDir returns the current (possibly sandboxed) working directory.
func (tc *TestContext) WorkDir() string {
	return tc.workDir
}

// Context returns the context the TestContext was created with.
func (tc *TestContext) Context() context.Context {
	return tc.ctx
}

// Engine returns the script engine.
func (tc *TestContext) Engine() engine.Engine {
	return tc.engine
}

// Fs returns the filesystem used for fixture files.
func (tc *TestContext) Fs() afero.Fs {
	return tc.fs
}

// engineContext carries the working directory and filesystem to the engine.
func (tc *TestContext) engineContext() context.Context {
	return engine.WithFs(engine.WithWorkDir(tc.ctx, tc.workDir), tc.fs)
}

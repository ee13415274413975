package harness

import (
	"fmt"
	"strings"

	"github.com/ryclarke/scriptcheck/engine"
)

// Render applies the default bindings followed by params to lines.
func (tc *TestContext) Render(lines []string, params ...string) []string {
	bindings := append(tc.DefaultBindings(), ParseBindings(params...)...)

	return Substitute(lines, bindings)
}

// Build substitutes params into lines and prepares the result on the engine.
func (tc *TestContext) Build(lines []string, params ...string) (engine.Script, error) {
	rendered := tc.Render(lines, params...)

	tc.logger.Debug().Strs("params", params).Int("lines", len(rendered)).Msg("Preparing script")

	script, err := tc.engine.Prepare(tc.engineContext(), rendered)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare script: %w", err)
	}

	return script, nil
}

// BuildString is Build for a single multi-line string.
func (tc *TestContext) BuildString(text string, params ...string) (engine.Script, error) {
	return tc.Build(SplitLines(text), params...)
}

// BuildFile is Build for the lines of a script file, resolved against the working
// directory.
func (tc *TestContext) BuildFile(path string, params ...string) (engine.Script, error) {
	lines, err := tc.ReadLines(path)
	if err != nil {
		return nil, err
	}

	return tc.Build(lines, params...)
}

// RenderFile is Render for the lines of a script file.
func (tc *TestContext) RenderFile(path string, params ...string) ([]string, error) {
	lines, err := tc.ReadLines(path)
	if err != nil {
		return nil, err
	}

	return tc.Render(lines, params...), nil
}

// MustBuild is Build that fails the test on error.
func (tc *TestContext) MustBuild(t TestingT, lines []string, params ...string) engine.Script {
	t.Helper()

	script, err := tc.Build(lines, params...)
	if err != nil {
		t.Fatalf("Failed to build script: %v", err)
	}

	return script
}

// MustBuildString is BuildString that fails the test on error.
func (tc *TestContext) MustBuildString(t TestingT, text string, params ...string) engine.Script {
	t.Helper()

	return tc.MustBuild(t, SplitLines(text), params...)
}

// MustBuildFile is BuildFile that fails the test on error.
func (tc *TestContext) MustBuildFile(t TestingT, path string, params ...string) engine.Script {
	t.Helper()

	script, err := tc.BuildFile(path, params...)
	if err != nil {
		t.Fatalf("Failed to build script from %s: %v", path, err)
	}

	return script
}

// SplitLines splits text on line breaks, accepting both `\n` and `\r\n`. Trailing
// empty lines are dropped, so "a\nb\n" yields two lines. Text without a line
// break is returned as a single line, even when empty.
func SplitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}

	if len(lines) == 1 {
		return lines
	}

	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	return lines
}

/*
Package shell provides a script engine that interprets shell scripts with mvdan.cc/sh.

Each alias is a shell function defined by the script. Reading an alias runs the
script's top-level statements in a fresh interpreter, then calls the function and
streams its standard output: every line is a record whose fields are separated by
tabs. A line longer than 1 MiB ends the sequence with bufio.ErrTooLong.

	load() { cat "$DATA_DIR/in.txt"; }
	B() { load | awk -F'\t' '$2 > 0'; }

The interpreter runs in the working directory carried by the context. Its environment
is the process environment plus the engine.shell.env entries. No timeout is applied
beyond the caller's context.
*/
package shell

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"github.com/ryclarke/scriptcheck/config"
	"github.com/ryclarke/scriptcheck/engine"
	"github.com/ryclarke/scriptcheck/utils"
)

// maxLineSize bounds a single output line of an alias.
const maxLineSize = 1024 * 1024

var _ engine.Engine = new(Engine)

func init() {
	engine.Register("shell", New)
}

// Engine prepares shell scripts for a given language variant.
type Engine struct {
	Variant syntax.LangVariant
}

// New creates a shell engine using the configured dialect, falling back to bash.
func New(ctx context.Context) engine.Engine {
	e := &Engine{Variant: syntax.LangBash}

	var variant syntax.LangVariant
	if err := variant.Set(config.Viper(ctx).GetString(config.ShellDialect)); err == nil && variant != syntax.LangAuto {
		e.Variant = variant
	}

	return e
}

// Prepare parses the script and collects the functions it declares.
func (e *Engine) Prepare(ctx context.Context, lines []string) (engine.Script, error) {
	parser := syntax.NewParser(syntax.Variant(e.Variant))

	prog, err := parser.Parse(strings.NewReader(strings.Join(lines, "\n")), "")
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}

	env, err := utils.Env(ctx)
	if err != nil {
		return nil, err
	}

	s := &script{
		prog:    prog,
		funcs:   make(map[string]bool),
		env:     env,
		workDir: engine.WorkDir(ctx),
	}

	syntax.Walk(prog, func(node syntax.Node) bool {
		if decl, ok := node.(*syntax.FuncDecl); ok {
			s.funcs[decl.Name.Value] = true
		}
		return true
	})

	return s, nil
}

type script struct {
	prog    *syntax.File
	funcs   map[string]bool
	env     []string
	workDir string
}

func (s *script) Alias(ctx context.Context, alias string) (iter.Seq2[engine.Record, error], error) {
	if !s.funcs[alias] {
		return nil, fmt.Errorf("%w: %s (no function declared)", engine.ErrUnknownAlias, alias)
	}

	consumed := false

	return func(yield func(engine.Record, error) bool) {
		if consumed {
			return
		}
		consumed = true

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		pr, pw := io.Pipe()
		var stderr bytes.Buffer

		done := make(chan error, 1)
		go func() {
			err := s.call(ctx, alias, pw, &stderr)
			pw.CloseWithError(err)
			done <- err
		}()

		// stream records to the consumer as they are produced
		scanner := bufio.NewScanner(pr)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

		for scanner.Scan() {
			if !yield(engine.FromValue(strings.Split(scanner.Text(), "\t")), nil) {
				cancel()
				pr.Close()
				<-done
				return
			}
		}

		// the interpreter may still be writing if the scanner gave up early
		scanErr := scanner.Err()
		if scanErr != nil {
			cancel()
			pr.CloseWithError(scanErr)
		}

		err := <-done

		switch {
		case errors.Is(scanErr, bufio.ErrTooLong):
			yield(nil, fmt.Errorf("%s: %w", alias, scanErr))
		case err != nil:
			if msg := strings.TrimSpace(stderr.String()); msg != "" {
				err = fmt.Errorf("%w: %s", err, msg)
			}
			yield(nil, fmt.Errorf("%s: %w", alias, err))
		case scanErr != nil:
			yield(nil, fmt.Errorf("%s: %w", alias, scanErr))
		}
	}, nil
}

// call runs the script's top-level statements with output discarded, then runs the
// alias function with its output written to out.
func (s *script) call(ctx context.Context, alias string, out io.Writer, stderr io.Writer) error {
	opts := []interp.RunnerOption{
		interp.StdIO(nil, io.Discard, stderr),
		interp.Env(expand.ListEnviron(s.env...)),
	}
	if s.workDir != "" {
		opts = append(opts, interp.Dir(s.workDir))
	}

	runner, err := interp.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create runner: %w", err)
	}

	if err := runner.Run(ctx, s.prog); err != nil {
		return fmt.Errorf("setup failed: %w", err)
	}

	invoke, err := syntax.NewParser().Parse(strings.NewReader(alias), "")
	if err != nil {
		return err
	}

	interp.StdIO(nil, out, stderr)(runner)

	return runner.Run(ctx, invoke)
}

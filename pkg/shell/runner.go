// Package shell runs external tools through the mvdan.cc/sh interpreter so that commands behave the same
// inside and outside of an MSYS2 shell.
package shell

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// Result holds the captured output of a command
type Result struct {
	Stdout []byte
	Stderr []byte
}

// Runner executes a single command inside dir
type Runner interface {
	Run(ctx context.Context, dir string, args ...string) (Result, error)
}

// ToolNotFoundError is returned when the executable of a command can't be found in PATH
type ToolNotFoundError struct {
	Name string
	Err  error
}

func (e *ToolNotFoundError) Error() string {
	return e.Name + ": command not found"
}

func (e *ToolNotFoundError) Unwrap() error {
	return e.Err
}

// Interp is the default Runner. It's safe to use the zero value.
type Interp struct {
	// Env replaces the process environment if set
	Env []string
	// KillTimeout is the time an interrupted command gets before it's killed
	KillTimeout time.Duration
}

func (r *Interp) environ() expand.Environ {
	if r.Env != nil {
		return expand.ListEnviron(r.Env...)
	}

	return expand.ListEnviron(os.Environ()...)
}

func (r *Interp) execHandler() interp.ExecHandlerFunc {
	timeout := r.KillTimeout
	if timeout == 0 {
		timeout = 2 * time.Second
	}
	next := interp.DefaultExecHandler(timeout)

	return func(ctx context.Context, args []string) error {
		if len(args) > 0 && !strings.ContainsAny(args[0], `/\`) {
			if _, err := exec.LookPath(args[0]); err != nil {
				return &ToolNotFoundError{Name: args[0], Err: err}
			}
		}

		return next(ctx, args)
	}
}

var defaultOpenHandler = interp.DefaultOpenHandler()

func openHandler(ctx context.Context, path string, flag int, perm os.FileMode) (io.ReadWriteCloser, error) {
	if path == "/dev/null" {
		path = os.DevNull
	}

	return defaultOpenHandler(ctx, path, flag, perm)
}

// Run executes args in dir and returns the captured output. A non-zero exit status is reported as an error
// which includes the command's stderr; the captured output is returned in both cases.
func (r *Interp) Run(ctx context.Context, dir string, args ...string) (Result, error) {
	var result Result
	if len(args) == 0 {
		return result, eris.New("no command passed")
	}

	if dir == "" {
		dir = "."
	}

	stdout := bytes.Buffer{}
	stderr := bytes.Buffer{}
	runner, err := interp.New(
		interp.Dir(dir),
		interp.Env(r.environ()),
		interp.ExecHandler(r.execHandler()),
		interp.OpenHandler(openHandler),
		interp.StdIO(nil, &stdout, &stderr),
	)
	if err != nil {
		return result, eris.Wrap(err, "failed to initialize runner")
	}

	call, err := Command(args...)
	if err != nil {
		return result, err
	}

	err = runner.Run(ctx, &syntax.Stmt{Cmd: call})
	result.Stdout = stdout.Bytes()
	result.Stderr = stderr.Bytes()
	if err != nil {
		var notFound *ToolNotFoundError
		if errors.As(err, &notFound) {
			return result, notFound
		}

		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return result, eris.Wrapf(err, "%s failed: %s", args[0], msg)
		}
		return result, eris.Wrapf(err, "%s failed", args[0])
	}

	return result, nil
}

// Command converts args into a shell call expression. Every argument is passed as a single word.
func Command(args ...string) (*syntax.CallExpr, error) {
	if len(args) == 0 {
		return nil, eris.New("no command passed")
	}

	cmd := new(syntax.CallExpr)
	cmd.Args = make([]*syntax.Word, len(args))
	for idx, arg := range args {
		var wordPart syntax.WordPart

		switch {
		case strings.Contains(arg, "'"):
			node := new(syntax.DblQuoted)
			node.Parts = []syntax.WordPart{&syntax.Lit{Value: escapeDouble(arg)}}
			wordPart = node
		case arg == "" || strings.ContainsAny(arg, " \t\n$\"\\`*?[]{}()<>|&;#~"):
			node := new(syntax.SglQuoted)
			node.Value = arg
			wordPart = node
		default:
			wordPart = &syntax.Lit{Value: arg}
		}

		cmd.Args[idx] = &syntax.Word{Parts: []syntax.WordPart{wordPart}}
	}

	return cmd, nil
}

func escapeDouble(value string) string {
	var buf strings.Builder
	for _, c := range value {
		switch c {
		case '"', '\\', '$', '`':
			buf.WriteByte('\\')
		}
		buf.WriteRune(c)
	}

	return buf.String()
}

// Format renders args the way they would be typed into a shell
func Format(args ...string) string {
	cmd, err := Command(args...)
	if err != nil {
		return strings.Join(args, " ")
	}

	buf := strings.Builder{}
	printer := syntax.NewPrinter(syntax.Minify(true))
	if err := printer.Print(&buf, cmd); err != nil {
		return strings.Join(args, " ")
	}

	return buf.String()
}

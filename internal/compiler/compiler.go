// Package compiler turns Python sources into bytecode files.
package compiler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
)

// DefaultInterpreter is looked up on PATH when Python.Interpreter is empty.
const DefaultInterpreter = "python3"

// compileScript runs py_compile with doraise so syntax errors exit non-zero.
// Arguments: source, cfile, display name, optimize level.
const compileScript = "import py_compile, sys; " +
	"py_compile.compile(sys.argv[1], cfile=sys.argv[2], dfile=sys.argv[3], doraise=True, optimize=int(sys.argv[4]))"

// Compiler produces a bytecode file from a source file.
type Compiler interface {
	// Compile writes the bytecode of src to dst. display is the name recorded
	// inside the bytecode for tracebacks.
	Compile(ctx context.Context, src, dst, display string, optimize int) error
}

// Python compiles through an external interpreter.
type Python struct {
	Interpreter string
	Stdout      io.Writer
	Stderr      io.Writer
}

// NewPython returns a compiler that uses interpreter, or python3 when empty.
func NewPython(interpreter string) *Python {
	if interpreter == "" {
		interpreter = DefaultInterpreter
	}
	return &Python{Interpreter: interpreter}
}

// Compile runs the interpreter once per file.
func (p *Python) Compile(ctx context.Context, src, dst, display string, optimize int) error {
	interpreter := p.Interpreter
	if interpreter == "" {
		interpreter = DefaultInterpreter
	}
	if display == "" {
		display = src
	}

	cmd := exec.CommandContext(ctx, interpreter, "-c", compileScript, src, dst, display, strconv.Itoa(optimize))
	res, err := runCapture(cmd, p.Stdout, p.Stderr)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			if out := PrimaryOutput(res); out != "" {
				return fmt.Errorf("%s exited with code %d: %s", interpreter, exitErr.ExitCode(), out)
			}
			return fmt.Errorf("%s exited with code %d", interpreter, exitErr.ExitCode())
		}
		return fmt.Errorf("run %s: %w", interpreter, err)
	}
	return nil
}

// Available reports whether the interpreter can be found.
func (p *Python) Available() error {
	interpreter := p.Interpreter
	if interpreter == "" {
		interpreter = DefaultInterpreter
	}
	if _, err := exec.LookPath(interpreter); err != nil {
		return fmt.Errorf("bytecode compiler %s not found: %w", interpreter, err)
	}
	return nil
}

// Func adapts a function to the Compiler interface.
type Func func(ctx context.Context, src, dst, display string, optimize int) error

// Compile calls f.
func (f Func) Compile(ctx context.Context, src, dst, display string, optimize int) error {
	return f(ctx, src, dst, display, optimize)
}

package compiler

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeInterpreter writes an executable shell script standing in for python3.
// It receives: -c <script> <src> <dst> <display> <optimize>.
func fakeInterpreter(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fakepython")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestPythonCompile_Success(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX shell assumptions do not hold on Windows")
	}

	dir := t.TempDir()
	src := filepath.Join(dir, "mod.py")
	dst := filepath.Join(dir, "mod.pyc")
	require.NoError(t, os.WriteFile(src, []byte("x = 1\n"), 0o600))

	interp := fakeInterpreter(t, `printf '%s|%s' "$5" "$6" > "$4"`)
	var stdout bytes.Buffer
	c := &Python{Interpreter: interp, Stdout: &stdout}

	require.NoError(t, c.Compile(context.Background(), src, dst, "pkg/mod.py", 2))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "pkg/mod.py|2", string(data))
}

func TestPythonCompile_FailureCarriesOutput(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX shell assumptions do not hold on Windows")
	}

	interp := fakeInterpreter(t, `echo "SyntaxError: invalid syntax" >&2; exit 1`)
	var stderr bytes.Buffer
	c := &Python{Interpreter: interp, Stderr: &stderr}

	err := c.Compile(context.Background(), "bad.py", "bad.pyc", "", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exited with code 1")
	assert.Contains(t, err.Error(), "SyntaxError: invalid syntax")
	assert.Equal(t, "SyntaxError: invalid syntax\n", stderr.String())
}

func TestPythonCompile_ContextCancelled(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX shell assumptions do not hold on Windows")
	}

	interp := fakeInterpreter(t, `exec sleep 5`)
	c := &Python{Interpreter: interp}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := c.Compile(ctx, "a.py", "a.pyc", "", 0)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPythonCompile_MissingInterpreter(t *testing.T) {
	c := NewPython("this-interpreter-does-not-exist")

	err := c.Compile(context.Background(), "a.py", "a.pyc", "", 0)
	require.Error(t, err)
	require.Error(t, c.Available())
}

func TestPythonCompile_RealInterpreter(t *testing.T) {
	if _, err := exec.LookPath(DefaultInterpreter); err != nil {
		t.Skip("python3 not available")
	}

	dir := t.TempDir()
	good := filepath.Join(dir, "good.py")
	bad := filepath.Join(dir, "bad.py")
	require.NoError(t, os.WriteFile(good, []byte("VALUE = 1\n"), 0o600))
	require.NoError(t, os.WriteFile(bad, []byte("def broken(:\n"), 0o600))

	c := NewPython("")
	require.NoError(t, c.Available())
	require.NoError(t, c.Compile(context.Background(), good, filepath.Join(dir, "good.pyc"), "good.py", 0))
	assert.FileExists(t, filepath.Join(dir, "good.pyc"))

	require.Error(t, c.Compile(context.Background(), bad, filepath.Join(dir, "bad.pyc"), "bad.py", 0))
}

func TestFunc(t *testing.T) {
	t.Parallel()

	var got []string
	c := Func(func(_ context.Context, src, dst, display string, optimize int) error {
		got = append(got, src, dst, display)
		return nil
	})

	require.NoError(t, c.Compile(context.Background(), "a.py", "a.pyc", "a.py", 1))
	assert.Equal(t, []string{"a.py", "a.pyc", "a.py"}, got)
}

func TestPrimaryOutput(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "err", PrimaryOutput(Result{Stdout: "out", Stderr: "err"}))
	assert.Equal(t, "out", PrimaryOutput(Result{Stdout: "out"}))
	assert.Empty(t, PrimaryOutput(Result{}))
}

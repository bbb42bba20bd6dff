package compiler

import (
	"bytes"
	"io"
	"os/exec"
	"strings"
)

// Result captures stdout/stderr emitted by an interpreter run.
type Result struct {
	Stdout string
	Stderr string
}

// runCapture wires the command's stdout/stderr through to the given writers
// while collecting the output for error reporting. Nil writers discard.
func runCapture(cmd *exec.Cmd, stdout, stderr io.Writer) (Result, error) {
	var stdoutBuf, stderrBuf bytes.Buffer

	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	cmd.Stdout = io.MultiWriter(stdout, &stdoutBuf)
	cmd.Stderr = io.MultiWriter(stderr, &stderrBuf)

	err := cmd.Run()

	return Result{
		Stdout: strings.TrimSpace(stdoutBuf.String()),
		Stderr: strings.TrimSpace(stderrBuf.String()),
	}, err
}

// PrimaryOutput returns stderr if present, otherwise stdout.
func PrimaryOutput(res Result) string {
	if res.Stderr != "" {
		return res.Stderr
	}
	return res.Stdout
}

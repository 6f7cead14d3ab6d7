// Package exec runs the external tools covalg delegates to, such as the
// bytecode analyzer that turns a trace file into an analysis dump.
package exec

import (
	"bytes"
	"context"
	"os/exec"

	"github.com/pkg/errors"
)

// Result holds the outcome of a command execution. Stdout is kept as bytes
// because analyzers stream JSON documents on it.
type Result struct {
	Stdout   []byte
	Stderr   string
	ExitCode int
}

// Executor runs external commands. Tests substitute a fake.
type Executor interface {
	Run(ctx context.Context, command string, args ...string) (*Result, error)
}

// CommandExecutor runs commands on the host.
type CommandExecutor struct {
	// Dir is the working directory; empty means the current one.
	Dir string
}

// NewCommandExecutor creates a CommandExecutor working in dir.
func NewCommandExecutor(dir string) *CommandExecutor {
	return &CommandExecutor{Dir: dir}
}

// Run executes the command. A non-zero exit status is reported through
// Result.ExitCode, not as an error; errors mean the command could not run
// or was canceled.
func (e *CommandExecutor) Run(ctx context.Context, command string, args ...string) (*Result, error) {
	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Dir = e.Dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, errors.Wrapf(ctxErr, "%s canceled", command)
	}
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return nil, errors.Wrapf(err, "failed to run %s", command)
	}

	return &Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.String(),
		ExitCode: cmd.ProcessState.ExitCode(),
	}, nil
}

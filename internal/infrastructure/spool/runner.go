package spool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// CommandRunner runs external programs
type CommandRunner interface {
	// Run executes name with args and returns its standard output
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
	// LookPath resolves a program name to an executable path
	LookPath(file string) (string, error)
}

// CommandError describes a program that ran and failed
type CommandError struct {
	Name     string
	ExitCode int
	Stderr   string
	Err      error
}

// Error implements the error interface
func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%s exited with code %d", e.Name, e.ExitCode)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

// Unwrap returns the underlying cause
func (e *CommandError) Unwrap() error {
	return e.Err
}

// ExecRunner runs programs with os/exec under the C locale so their output can be parsed
type ExecRunner struct {
	// Timeout bounds every command; zero means no limit beyond the caller's context
	Timeout time.Duration
}

// Run implements CommandRunner
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.Env = append(os.Environ(), "LC_ALL=C", "LANG=C")

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return stdout.Bytes(), fmt.Errorf("%s timed out: %w", filepath.Base(name), ctx.Err())
		}
		cmdErr := &CommandError{
			Name:     filepath.Base(name),
			ExitCode: -1,
			Stderr:   strings.TrimSpace(stderr.String()),
			Err:      err,
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			cmdErr.ExitCode = exitErr.ExitCode()
		}
		return stdout.Bytes(), cmdErr
	}
	return stdout.Bytes(), nil
}

// LookPath implements CommandRunner
func (r *ExecRunner) LookPath(file string) (string, error) {
	if filepath.IsAbs(file) {
		if _, err := os.Stat(file); err != nil {
			return "", err
		}
		return file, nil
	}
	return exec.LookPath(file)
}

// queryContext bounds a directory or queue query. Submissions are not bounded here;
// the print service gives each one its own deadline.
func queryContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

var _ CommandRunner = (*ExecRunner)(nil)

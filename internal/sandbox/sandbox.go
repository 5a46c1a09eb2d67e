// Package sandbox provides optional execution backends for a Runner's CLI
// subprocess: instead of a direct os/exec child, the process can be launched
// inside a Docker container or a Kubernetes Job. Every backend honors the
// same contract a Runner already assumes of a native child process — a
// single argv, a filtered environment, a working directory, line-delimited
// JSON on stdout, and SIGINT-then-SIGKILL style interruption — they differ
// only in where the process actually runs.
package sandbox

import (
	"context"
	"io"
	"syscall"
)

// ProcessSpec describes one subprocess launch, built by the Runner from its
// Options exactly as it would for exec.Command.
type ProcessSpec struct {
	Command    string
	Args       []string
	Env        []string
	WorkingDir string
}

// Process is a running (or just-exited) subprocess, regardless of backend.
type Process interface {
	// Stdout returns the process's standard output stream. Must be safe to
	// read from until Wait returns.
	Stdout() io.Reader

	// Wait blocks until the process exits and releases any resources the
	// backend held for it (containers, jobs). The returned error is non-nil
	// only for I/O/backend failures, not for a non-zero exit — callers use
	// ExitCode for that, matching exec.Cmd.Wait's split of concerns for the
	// signal-kill case the Runner depends on (a negative exit code mustn't
	// synthesize an error event).
	Wait() error

	// ExitCode reports the process's exit status. Only meaningful after
	// Wait returns. Negative when the process was killed by a signal,
	// mirroring os.ProcessState.ExitCode.
	ExitCode() int

	// Signal delivers sig (SIGINT or SIGTERM in practice) to the process.
	// A no-op, not an error, on backends where signal delivery isn't
	// supported and termination must go through Kill instead.
	Signal(sig syscall.Signal) error

	// Kill forces termination.
	Kill() error
}

// Launcher starts one ProcessSpec and returns the running Process.
type Launcher interface {
	Launch(ctx context.Context, spec ProcessSpec) (Process, error)
}

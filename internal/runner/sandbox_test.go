package runner

import (
	"context"
	"io"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/helmcode/wingman/internal/sandbox"
)

// fakeProcess is an in-memory sandbox.Process for exercising Runner's
// sandboxed path without a real Docker/Kubernetes backend.
type fakeProcess struct {
	stdout   io.Reader
	exitCode int
	killed   bool
}

func (p *fakeProcess) Stdout() io.Reader             { return p.stdout }
func (p *fakeProcess) Wait() error                   { return nil }
func (p *fakeProcess) ExitCode() int                 { return p.exitCode }
func (p *fakeProcess) Signal(sig syscall.Signal) error { return nil }
func (p *fakeProcess) Kill() error                   { p.killed = true; return nil }

type fakeLauncher struct {
	spec sandbox.ProcessSpec
	proc *fakeProcess
}

func (l *fakeLauncher) Launch(ctx context.Context, spec sandbox.ProcessSpec) (sandbox.Process, error) {
	l.spec = spec
	return l.proc, nil
}

func TestRun_SandboxedPathUsesLauncher(t *testing.T) {
	line := `{"type":"result","subtype":"success","is_error":false,"result":"done","session_id":"abc"}` + "\n"
	launcher := &fakeLauncher{proc: &fakeProcess{stdout: strings.NewReader(line)}}

	r := New(Options{Command: "claude", Sandbox: launcher})
	stream, err := r.Run(context.Background(), "do it", "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	var got []string
	for ev := range stream {
		got = append(got, string(ev.Kind))
	}
	if len(got) == 0 {
		t.Fatal("expected at least one event from sandboxed stdout")
	}
	if launcher.spec.Command != "claude" {
		t.Errorf("expected launcher to receive command, got spec %+v", launcher.spec)
	}
}

func TestRun_SandboxedNonZeroExitSynthesizesError(t *testing.T) {
	launcher := &fakeLauncher{proc: &fakeProcess{stdout: strings.NewReader(""), exitCode: 2}}

	r := New(Options{Command: "claude", Sandbox: launcher})
	stream, err := r.Run(context.Background(), "do it", "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	var got []string
	for ev := range stream {
		got = append(got, ev.Error)
	}
	if len(got) != 1 || !strings.Contains(got[0], "exited with code 2") {
		t.Fatalf("expected synthesized error event, got %v", got)
	}
}

func TestKill_SandboxedPathNoopAfterExit(t *testing.T) {
	launcher := &fakeLauncher{proc: &fakeProcess{stdout: strings.NewReader("")}}
	r := New(Options{Command: "claude", Sandbox: launcher})

	stream, err := r.Run(context.Background(), "do it", "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for range stream {
	}

	// Drain already marks exited via the goroutine; give it a moment.
	time.Sleep(10 * time.Millisecond)
	r.Kill()
	if launcher.proc.killed {
		t.Error("expected Kill to be a no-op once the process has exited")
	}
}

package sandbox

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"syscall"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
)

// DefaultImage is the container image used when SANDBOX_IMAGE is unset.
const DefaultImage = "ghcr.io/anthropics/claude-code:latest"

// DockerLauncher runs a Runner's subprocess as a one-shot Docker container,
// mounting WorkingDir at the same path inside the container so the CLI's
// relative-path assumptions hold. Selected by RUNNER_SANDBOX=docker.
type DockerLauncher struct {
	cli   *client.Client
	image string
}

// NewDockerLauncher creates a DockerLauncher using the Docker client
// configured from the environment (DOCKER_HOST etc.).
func NewDockerLauncher() (*DockerLauncher, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("creating docker client: %w", err)
	}

	image := os.Getenv("SANDBOX_IMAGE")
	if image == "" {
		image = DefaultImage
	}
	return &DockerLauncher{cli: cli, image: image}, nil
}

// Launch creates, starts, and attaches to a container running spec.
func (d *DockerLauncher) Launch(ctx context.Context, spec ProcessSpec) (Process, error) {
	var binds []string
	if spec.WorkingDir != "" {
		binds = []string{spec.WorkingDir + ":" + spec.WorkingDir}
	}

	resp, err := d.cli.ContainerCreate(ctx,
		&container.Config{
			Image:      d.image,
			Cmd:        append([]string{spec.Command}, spec.Args...),
			Env:        spec.Env,
			WorkingDir: spec.WorkingDir,
			Tty:        false,
		},
		&container.HostConfig{Binds: binds},
		nil, nil, "",
	)
	if err != nil {
		return nil, fmt.Errorf("creating sandbox container: %w", err)
	}

	if err := d.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		_ = d.cli.ContainerRemove(ctx, resp.ID, container.RemoveOptions{Force: true})
		return nil, fmt.Errorf("starting sandbox container: %w", err)
	}

	attach, err := d.cli.ContainerAttach(ctx, resp.ID, container.AttachOptions{
		Stream: true,
		Stdout: true,
		Stderr: true,
	})
	if err != nil {
		_ = d.cli.ContainerRemove(ctx, resp.ID, container.RemoveOptions{Force: true})
		return nil, fmt.Errorf("attaching to sandbox container: %w", err)
	}

	stdoutR, stdoutW := io.Pipe()
	go func() {
		defer attach.Close()
		defer stdoutW.Close()
		if _, err := stdcopy.StdCopy(stdoutW, io.Discard, attach.Reader); err != nil {
			slog.Debug("sandbox: demuxing container output ended", "container", resp.ID, "error", err)
		}
	}()

	waitCh, errCh := d.cli.ContainerWait(ctx, resp.ID, container.WaitConditionNotRunning)

	return &dockerProcess{
		cli:         d.cli,
		containerID: resp.ID,
		stdout:      stdoutR,
		waitCh:      waitCh,
		errCh:       errCh,
	}, nil
}

type dockerProcess struct {
	cli         *client.Client
	containerID string
	stdout      io.Reader
	waitCh      <-chan container.WaitResponse
	errCh       <-chan error

	mu       sync.Mutex
	waited   bool
	exitCode int
}

func (p *dockerProcess) Stdout() io.Reader { return p.stdout }

func (p *dockerProcess) Wait() error {
	p.mu.Lock()
	if p.waited {
		defer p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	var exitCode int
	select {
	case resp := <-p.waitCh:
		exitCode = int(resp.StatusCode)
	case err := <-p.errCh:
		if err != nil {
			slog.Warn("sandbox: container wait error", "container", p.containerID, "error", err)
			exitCode = 1
		}
	}

	_ = p.cli.ContainerRemove(context.Background(), p.containerID, container.RemoveOptions{Force: true})

	p.mu.Lock()
	p.waited = true
	p.exitCode = exitCode
	p.mu.Unlock()
	return nil
}

func (p *dockerProcess) ExitCode() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exitCode
}

// Signal maps the POSIX signal to Docker's kill-with-signal API (numeric
// form, which the daemon accepts platform-independently); Docker delivers
// it inside the container's PID 1 exactly like a local signal would reach a
// native child.
func (p *dockerProcess) Signal(sig syscall.Signal) error {
	return p.cli.ContainerKill(context.Background(), p.containerID, strconv.Itoa(int(sig)))
}

func (p *dockerProcess) Kill() error {
	return p.cli.ContainerKill(context.Background(), p.containerID, strconv.Itoa(int(syscall.SIGKILL)))
}

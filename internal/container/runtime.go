// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package container implements container runtime detection and execution
// for running the pandoc image when no local binary is installed.
package container

import (
	"context"
	"fmt"
	"io"
	"os/exec"
)

const (
	binDocker = "docker"
	binPodman = "podman"

	// mountPoint is where the working directory appears inside the
	// container, so relative paths such as --reference-doc resolve.
	mountPoint = "/data"
)

// Runtime provides container operations: checking availability, verifying
// images, and running containers.
type Runtime interface {
	// Name returns the runtime name ("docker" or "podman").
	Name() string

	// Available reports whether the runtime binary exists on PATH and
	// responds to an info command.
	Available() bool

	// ImageExists checks whether the named image exists locally.
	// Returns nil when the image is found, or an error describing the failure.
	ImageExists(image string) error

	// Run executes the image's entrypoint with args, piping stdin, stdout
	// and stderr. When workDir is not empty it is mounted and used as the
	// container's working directory.
	Run(ctx context.Context, image string, opts RunOptions) error

	// Command returns the full command line Run would execute.
	Command(image string, opts RunOptions) []string
}

// RunOptions describes one container invocation.
type RunOptions struct {
	Args    []string
	WorkDir string
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer
}

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	RunSilent(name string, args ...string) error
	RunPiped(ctx context.Context, name string, args []string, stdin io.Reader, stdout, stderr io.Writer) error
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) RunSilent(name string, args ...string) error {
	return exec.Command(name, args...).Run()
}

func (o *osExecutor) RunPiped(ctx context.Context, name string, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

// runtime implements Runtime for a specific container binary. Both Docker
// and Podman share the same logic; they differ only in binary name and the
// subcommand used to check image existence.
type runtime struct {
	bin           string
	imageCheckCmd []string // e.g. ["image", "inspect"] for docker
	exec          executor
}

func (r *runtime) Name() string { return r.bin }

func (r *runtime) Available() bool {
	if _, err := r.exec.LookPath(r.bin); err != nil {
		return false
	}
	return r.exec.RunSilent(r.bin, "info") == nil
}

func (r *runtime) ImageExists(image string) error {
	args := make([]string, 0, len(r.imageCheckCmd)+1)
	args = append(args, r.imageCheckCmd...)
	args = append(args, image)

	if err := r.exec.RunSilent(r.bin, args...); err != nil {
		return fmt.Errorf("image %s not found in %s: %w", image, r.bin, err)
	}
	return nil
}

func (r *runtime) Command(image string, opts RunOptions) []string {
	cmd := []string{r.bin, "run", "--rm", "-i"}
	if opts.WorkDir != "" {
		cmd = append(cmd, "-v", opts.WorkDir+":"+mountPoint, "-w", mountPoint)
	}
	cmd = append(cmd, image)
	return append(cmd, opts.Args...)
}

func (r *runtime) Run(ctx context.Context, image string, opts RunOptions) error {
	cmd := r.Command(image, opts)
	if err := r.exec.RunPiped(ctx, cmd[0], cmd[1:], opts.Stdin, opts.Stdout, opts.Stderr); err != nil {
		return fmt.Errorf("running %s container %s: %w", r.bin, image, err)
	}
	return nil
}

func newDockerRuntime(exec executor) *runtime {
	return &runtime{
		bin:           binDocker,
		imageCheckCmd: []string{"image", "inspect"},
		exec:          exec,
	}
}

func newPodmanRuntime(exec executor) *runtime {
	return &runtime{
		bin:           binPodman,
		imageCheckCmd: []string{"image", "exists"},
		exec:          exec,
	}
}

var defaultExec = &osExecutor{}

// DetectRuntime tries docker first, falls back to podman. Returns an error
// if neither runtime is available.
func DetectRuntime() (Runtime, error) {
	return detectRuntime(defaultExec)
}

func detectRuntime(exec executor) (Runtime, error) {
	docker := newDockerRuntime(exec)
	if docker.Available() {
		return docker, nil
	}

	podman := newPodmanRuntime(exec)
	if podman.Available() {
		return podman, nil
	}

	return nil, fmt.Errorf(
		"no container runtime available: neither %s nor %s found or operational",
		binDocker, binPodman,
	)
}

// ForName returns the named runtime ("docker" or "podman") if it is
// available.
func ForName(name string) (Runtime, error) {
	return forName(defaultExec, name)
}

func forName(exec executor, name string) (Runtime, error) {
	var rt *runtime
	switch name {
	case binDocker:
		rt = newDockerRuntime(exec)
	case binPodman:
		rt = newPodmanRuntime(exec)
	default:
		return nil, fmt.Errorf("unknown container runtime %q: use docker or podman", name)
	}
	if !rt.Available() {
		return nil, fmt.Errorf("container runtime %s not found or not operational", name)
	}
	return rt, nil
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pandoc drives the pandoc document transducer as a subprocess.
// Documents go in on stdin and come out on stdout so the same calls work
// with a local binary or a container image.
package pandoc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/dmc/internal/ast"
	"github.com/pdiddy/dmc/internal/container"
	"github.com/pdiddy/dmc/pkg/types"
)

const (
	defaultBinary = "pandoc"
	defaultImage  = "pandoc/core:latest"
	formatJSON    = "json"
)

// ExitError reports a pandoc invocation that exited non-zero.
type ExitError struct {
	Command []string
	Code    int
	Stderr  string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("pandoc failed (exit %d): %s", e.Code, strings.Join(e.Command, " "))
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

// runner executes one pandoc command line.
type runner interface {
	run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error
	command(args []string) []string
}

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	Run(ctx context.Context, name string, args []string, stdin io.Reader, stdout, stderr io.Writer) error
}

type osExecutor struct{}

func (osExecutor) LookPath(file string) (string, error) { return exec.LookPath(file) }

func (osExecutor) Run(ctx context.Context, name string, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

// localRunner runs a pandoc binary on PATH.
type localRunner struct {
	bin  string
	exec executor
}

func (r *localRunner) run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	return r.exec.Run(ctx, r.bin, args, stdin, stdout, stderr)
}

func (r *localRunner) command(args []string) []string {
	return append([]string{r.bin}, args...)
}

// containerRunner runs pandoc inside a docker or podman image with the
// working directory mounted.
type containerRunner struct {
	rt      container.Runtime
	image   string
	workDir string
}

func (r *containerRunner) opts(args []string, stdin io.Reader, stdout, stderr io.Writer) container.RunOptions {
	return container.RunOptions{Args: args, WorkDir: r.workDir, Stdin: stdin, Stdout: stdout, Stderr: stderr}
}

func (r *containerRunner) run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	return r.rt.Run(ctx, r.image, r.opts(args, stdin, stdout, stderr))
}

func (r *containerRunner) command(args []string) []string {
	return r.rt.Command(r.image, r.opts(args, nil, nil, nil))
}

// Transducer parses documents into pandoc's JSON tree and renders trees
// back to text or DOCX.
type Transducer struct {
	runner runner
	logger *zap.Logger
}

// Option configures a Transducer.
type Option func(*Transducer)

// WithLogger sets the logger used for invocation tracing.
func WithLogger(l *zap.Logger) Option {
	return func(t *Transducer) {
		if l != nil {
			t.logger = l
		}
	}
}

// New selects a runtime according to cfg and returns a Transducer. The
// auto runtime prefers a local binary and falls back to docker, then podman.
func New(cfg types.PandocConfig, opts ...Option) (*Transducer, error) {
	r, err := newRunner(cfg, osExecutor{}, func(name string) (container.Runtime, error) {
		if name == "" {
			return container.DetectRuntime()
		}
		return container.ForName(name)
	})
	if err != nil {
		return nil, err
	}
	return newTransducer(r, opts...), nil
}

func newTransducer(r runner, opts ...Option) *Transducer {
	t := &Transducer{runner: r, logger: zap.NewNop()}
	for _, o := range opts {
		o(t)
	}
	return t
}

func newRunner(cfg types.PandocConfig, exec executor, containers func(string) (container.Runtime, error)) (runner, error) {
	bin := cfg.Path
	if bin == "" {
		bin = defaultBinary
	}
	image := cfg.Image
	if image == "" {
		image = defaultImage
	}

	useContainer := func(name string) (runner, error) {
		rt, err := containers(name)
		if err != nil {
			return nil, err
		}
		if err := rt.ImageExists(image); err != nil {
			return nil, fmt.Errorf("pandoc image not available in %s: %w", rt.Name(), err)
		}
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolving working directory: %w", err)
		}
		return &containerRunner{rt: rt, image: image, workDir: wd}, nil
	}

	switch cfg.Runtime {
	case types.RuntimeLocal:
		path, err := exec.LookPath(bin)
		if err != nil {
			return nil, fmt.Errorf("pandoc binary %q not found: %w", bin, err)
		}
		return &localRunner{bin: path, exec: exec}, nil
	case types.RuntimeDocker, types.RuntimePodman:
		return useContainer(string(cfg.Runtime))
	case types.RuntimeAuto, "":
		if path, err := exec.LookPath(bin); err == nil {
			return &localRunner{bin: path, exec: exec}, nil
		}
		r, err := useContainer("")
		if err != nil {
			return nil, fmt.Errorf("pandoc not found on PATH and no container fallback: %w", err)
		}
		return r, nil
	}
	return nil, fmt.Errorf("unknown pandoc runtime %q: use auto, local, docker or podman", cfg.Runtime)
}

// invoke runs pandoc once and converts a non-zero exit into *ExitError.
func (t *Transducer) invoke(ctx context.Context, args []string, stdin []byte) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	start := time.Now()
	cmd := t.runner.command(args)

	err := t.runner.run(ctx, args, bytes.NewReader(stdin), &stdout, &stderr)
	t.logger.Debug("pandoc invocation",
		zap.Strings("command", cmd),
		zap.Int("stdin_bytes", len(stdin)),
		zap.Int("stdout_bytes", stdout.Len()),
		zap.Duration("elapsed", time.Since(start)),
		zap.Error(err))
	if err != nil {
		var exited interface{ ExitCode() int }
		if errors.As(err, &exited) {
			return nil, &ExitError{Command: cmd, Code: exited.ExitCode(), Stderr: stderr.String()}
		}
		return nil, fmt.Errorf("running %s: %w", strings.Join(cmd, " "), err)
	}
	return stdout.Bytes(), nil
}

// Parse reads input in the from format and returns pandoc's JSON tree.
// Caller options come first so the forced reader and writer win.
func (t *Transducer) Parse(ctx context.Context, input []byte, from string, args []string) (*ast.Document, error) {
	cmd := append(append([]string{}, args...), "-f", from, "-t", formatJSON)
	out, err := t.invoke(ctx, cmd, input)
	if err != nil {
		return nil, err
	}
	doc, err := ast.Decode(out)
	if err != nil {
		return nil, fmt.Errorf("reading pandoc %s parse: %w", from, err)
	}
	return doc, nil
}

// Render serialises doc to the to format.
func (t *Transducer) Render(ctx context.Context, doc *ast.Document, to string, args []string) ([]byte, error) {
	in, err := ast.Encode(doc)
	if err != nil {
		return nil, err
	}
	cmd := append(append([]string{}, args...), "-f", formatJSON, "-t", to, "-o", "-")
	return t.invoke(ctx, cmd, in)
}

// Version returns the first line of pandoc --version.
func (t *Transducer) Version(ctx context.Context) (string, error) {
	out, err := t.invoke(ctx, []string{"--version"}, nil)
	if err != nil {
		return "", err
	}
	line, _, _ := strings.Cut(string(out), "\n")
	return strings.TrimSpace(line), nil
}

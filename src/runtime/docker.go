package runtime

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/rs/zerolog"
)

// Executor launches a prepared command and waits for it.
type Executor func(cmd *exec.Cmd) error

// DefaultExecutor runs the command as a child process.
func DefaultExecutor(cmd *exec.Cmd) error {
	return cmd.Run()
}

// exitCoder is satisfied by *exec.ExitError.
type exitCoder interface {
	ExitCode() int
}

// versionRe picks the first dotted version out of "<binary> --version".
var versionRe = regexp.MustCompile(`\d+\.\d+(?:\.\d+)?`)

// Docker wraps the container runtime CLI.
type Docker struct {
	Binary     string // default "docker"
	Sudo       bool   // prefix commands with "sudo -E"
	MinVersion string // optional floor checked by Probe
	Exec       Executor
	Stdin      io.Reader
	Stdout     io.Writer
	Stderr     io.Writer
}

// NewDocker creates a runtime wrapper attached to the process stdio.
func NewDocker(binary string) *Docker {
	return &Docker{
		Binary: binary,
		Exec:   DefaultExecutor,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Info describes a probed runtime.
type Info struct {
	Binary  string
	Raw     string          // trimmed --version output
	Version *semver.Version // nil when the output carries no version
}

// Probe checks that the runtime can be invoked via a version query.
func (d *Docker) Probe(ctx context.Context) (*Info, error) {
	var out bytes.Buffer
	cmd := d.command(ctx, "--version")
	cmd.Stdout = &out
	cmd.Stderr = &out

	zerolog.Ctx(ctx).Debug().Strs("args", cmd.Args).Msg("probing container runtime")

	if err := d.exec(cmd); err != nil {
		detail := strings.TrimSpace(out.String())
		if detail != "" {
			return nil, fmt.Errorf("%s --version: %w: %s", d.binary(), err, detail)
		}
		return nil, fmt.Errorf("%s --version: %w", d.binary(), err)
	}

	info := &Info{Binary: d.binary(), Raw: strings.TrimSpace(out.String())}
	if m := versionRe.FindString(info.Raw); m != "" {
		if v, err := semver.NewVersion(m); err == nil {
			info.Version = v
		}
	}

	if d.MinVersion != "" {
		if err := checkMinVersion(info, d.MinVersion); err != nil {
			return info, err
		}
	}
	return info, nil
}

func checkMinVersion(info *Info, floor string) error {
	if info.Version == nil {
		return fmt.Errorf("%s: cannot determine version from %q (min_version %s)", info.Binary, info.Raw, floor)
	}
	c, err := semver.NewConstraint(">= " + floor)
	if err != nil {
		return fmt.Errorf("invalid min_version %q: %w", floor, err)
	}
	if !c.Check(info.Version) {
		return fmt.Errorf("%s %s is older than the required %s", info.Binary, info.Version, floor)
	}
	return nil
}

// Run starts one container and blocks until it exits.
//
// A container that ran and exited non-zero yields its status and a nil
// error. An error means the runtime could not be started or was killed.
func (d *Docker) Run(ctx context.Context, spec RunSpec) (int, error) {
	cmd := d.command(ctx, RunArgs(spec)...)
	cmd.Stdin = d.Stdin
	cmd.Stdout = firstWriter(spec.Stdout, d.Stdout)
	cmd.Stderr = firstWriter(spec.Stderr, d.Stderr)

	zerolog.Ctx(ctx).Debug().
		Str("image", spec.Image).
		Str("name", spec.Name).
		Int("args", len(cmd.Args)).
		Msg("starting container")

	err := d.exec(cmd)
	if err == nil {
		return 0, nil
	}

	var ec exitCoder
	if errors.As(err, &ec) && ec.ExitCode() >= 0 {
		return ec.ExitCode(), nil
	}
	return -1, fmt.Errorf("running %s: %w", d.binary(), err)
}

// command prepares an invocation of the runtime binary.
func (d *Docker) command(ctx context.Context, args ...string) *exec.Cmd {
	if d.Sudo {
		return exec.CommandContext(ctx, "sudo", append([]string{"-E", d.binary()}, args...)...)
	}
	return exec.CommandContext(ctx, d.binary(), args...)
}

func (d *Docker) exec(cmd *exec.Cmd) error {
	if d.Exec == nil {
		return DefaultExecutor(cmd)
	}
	return d.Exec(cmd)
}

func (d *Docker) binary() string {
	if d.Binary == "" {
		return "docker"
	}
	return d.Binary
}

func firstWriter(ws ...io.Writer) io.Writer {
	for _, w := range ws {
		if w != nil {
			return w
		}
	}
	return io.Discard
}

package runtime

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"dagger.io/dagger"
	"github.com/rs/zerolog"
)

// statusFile receives the exit status of the wrapped build command.
const statusFile = "/.multibuild-status"

// Dagger runs build containers in a Dagger engine session. Host mounts are
// copied in, and mounts marked Export are copied back after the run.
type Dagger struct {
	LogOutput io.Writer // engine progress, nil to discard
	Stdout    io.Writer
	Stderr    io.Writer

	client *dagger.Client
}

// NewDagger creates a Dagger backend that reports engine progress to stderr.
func NewDagger() *Dagger {
	return &Dagger{
		LogOutput: os.Stderr,
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
	}
}

// Probe opens the engine session. The session is reused by Run until Close.
func (d *Dagger) Probe(ctx context.Context) (*Info, error) {
	if d.client != nil {
		return &Info{Binary: "dagger", Raw: "dagger engine session"}, nil
	}

	var opts []dagger.ClientOpt
	if d.LogOutput != nil {
		opts = append(opts, dagger.WithLogOutput(d.LogOutput))
	}

	zerolog.Ctx(ctx).Debug().Msg("connecting to dagger engine")
	client, err := dagger.Connect(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to dagger engine: %w", err)
	}
	d.client = client
	return &Info{Binary: "dagger", Raw: "dagger engine session"}, nil
}

// Run executes spec in the engine and returns the command's exit status.
// TTY and container names have no meaning in a Dagger session and are
// ignored.
func (d *Dagger) Run(ctx context.Context, spec RunSpec) (int, error) {
	if d.client == nil {
		if _, err := d.Probe(ctx); err != nil {
			return -1, err
		}
	}
	c := d.client

	var copts []dagger.ContainerOpts
	if spec.Platform != "" {
		copts = append(copts, dagger.ContainerOpts{Platform: dagger.Platform(spec.Platform)})
	}
	ctr := c.Container(copts...).From(spec.Image)

	for _, l := range spec.Labels {
		k, v, _ := strings.Cut(l, "=")
		ctr = ctr.WithLabel(k, v)
	}
	for _, m := range spec.Mounts {
		ctr = ctr.WithDirectory(m.Target, c.Host().Directory(m.Source))
	}
	if spec.Workdir != "" {
		ctr = ctr.WithWorkdir(spec.Workdir)
	}
	for _, e := range spec.Env {
		k, v, _ := strings.Cut(e, "=")
		ctr = ctr.WithEnvVariable(k, v)
	}
	ctr = ctr.WithExec(StatusWrapper(spec.Command), dagger.ContainerWithExecOpts{
		InsecureRootCapabilities: spec.Privileged,
	})

	zerolog.Ctx(ctx).Debug().Str("image", spec.Image).Msg("running container in dagger")

	stdout, err := ctr.Stdout(ctx)
	if err != nil {
		return -1, fmt.Errorf("running %s in dagger: %w", spec.Image, err)
	}
	io.WriteString(firstWriter(spec.Stdout, d.Stdout), stdout)
	if stderr, err := ctr.Stderr(ctx); err == nil {
		io.WriteString(firstWriter(spec.Stderr, d.Stderr), stderr)
	}

	raw, err := ctr.File(statusFile).Contents(ctx)
	if err != nil {
		return -1, fmt.Errorf("reading exit status: %w", err)
	}
	code, err := ParseStatus(raw)
	if err != nil {
		return -1, err
	}

	for _, m := range spec.Mounts {
		if !m.Export {
			continue
		}
		if _, err := ctr.Directory(m.Target).Export(ctx, m.Source); err != nil {
			return code, fmt.Errorf("exporting %s: %w", m.Target, err)
		}
	}
	return code, nil
}

// Close ends the engine session.
func (d *Dagger) Close() error {
	if d.client == nil {
		return nil
	}
	err := d.client.Close()
	d.client = nil
	return err
}

// StatusWrapper runs command under sh and records its exit status in
// statusFile, so a failing build still yields a container to read from.
func StatusWrapper(command []string) []string {
	wrapped := []string{"sh", "-c", `"$@"; echo $? > ` + statusFile, "multibuild"}
	return append(wrapped, command...)
}

// ParseStatus reads an exit status written by StatusWrapper.
func ParseStatus(raw string) (int, error) {
	code, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return -1, fmt.Errorf("malformed exit status %q", strings.TrimSpace(raw))
	}
	return code, nil
}

package build

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/sofmeright/multibuild/src/config"
	"github.com/sofmeright/multibuild/src/output"
	"github.com/sofmeright/multibuild/src/platform"
	"github.com/sofmeright/multibuild/src/runtime"
)

// BuildLog is the host-side copy of the container output.
const BuildLog = "build.log"

// ContainerRuntime starts one container and reports its exit status.
// A non-nil error means the container could not be run at all.
type ContainerRuntime interface {
	Run(ctx context.Context, spec runtime.RunSpec) (int, error)
}

// Runner builds one platform inside a container.
type Runner struct {
	Runtime    ContainerRuntime
	Toolchain  config.ToolchainConfig
	Privileged bool
	TTY        bool
	Platform   string   // runtime --platform, optional
	Arch       string   // host architecture, selects per-arch images
	RunID      string   // shared by every container of one invocation
	Env        []string // KEY=value exported into every container
	Stream     io.Writer
	Out        io.Writer
	Color      bool
	Now        func() time.Time
}

// BuildForPlatform creates outputRoot/<id>, runs the recipe's build script
// in a container and inspects the produced archives. Failures are reported
// in the Result, never returned.
func (r *Runner) BuildForPlatform(ctx context.Context, recipe platform.Recipe, workspace, outputRoot string) Result {
	log := zerolog.Ctx(ctx).With().Str("platform", recipe.ID).Logger()
	start := r.now()

	output.Heading(r.out(), "Building for "+recipe.ID, r.Color)

	res := Result{
		Platform:  recipe.ID,
		OutputDir: filepath.Join(outputRoot, recipe.ID),
		ExitCode:  -1,
	}

	sectionID := output.SectionID("multibuild", recipe.ID)
	output.SectionStartCollapsed(r.stream(), sectionID, "container output: "+recipe.ID)
	r.attempt(log.WithContext(ctx), recipe, workspace, &res)
	output.SectionEnd(r.stream(), sectionID)

	res.Duration = r.now().Sub(start)

	switch {
	case res.Err != nil:
		log.Error().Err(res.Err).Msg("build attempt failed")
		output.StatusLine(r.out(), "failed", fmt.Sprintf("Error building for %s: %v", recipe.ID, res.Err), r.Color)
	case !res.Success:
		output.StatusLine(r.out(), "failed", fmt.Sprintf("Build failed for %s (exit status %d)", recipe.ID, res.ExitCode), r.Color)
	default:
		output.StatusLine(r.out(), "success", "Build successful for "+recipe.ID, r.Color)
		if len(res.Artifacts) > 0 {
			fmt.Fprintf(r.out(), "  Generated files: %s\n", output.List(res.Artifacts))
		} else {
			output.Warn(r.out(), "No artifacts generated", r.Color)
		}
	}

	if _, err := os.Stat(res.OutputDir); err == nil {
		err := WriteSummary(res.OutputDir, Summary{
			Time:       start,
			Platform:   recipe.ID,
			Image:      recipe.ImageFor(r.Arch),
			SystemName: recipe.SystemName,
			Arch:       r.Arch,
			Result:     res,
			LogsDir:    filepath.Join(res.OutputDir, filepath.Base(r.Toolchain.LogsDir)),
			Collect:    r.Toolchain.Collect,
		})
		if err != nil {
			log.Warn().Err(err).Msg("could not write build summary")
		}
	}
	return res
}

// attempt performs the fallible part of a build and fills res.
func (r *Runner) attempt(ctx context.Context, recipe platform.Recipe, workspace string, res *Result) {
	log := zerolog.Ctx(ctx)

	if err := os.MkdirAll(res.OutputDir, 0o755); err != nil {
		res.Err = fmt.Errorf("creating output directory: %w", err)
		return
	}

	outDir, err := filepath.Abs(res.OutputDir)
	if err != nil {
		res.Err = fmt.Errorf("resolving output directory: %w", err)
		return
	}
	wsDir, err := filepath.Abs(workspace)
	if err != nil {
		res.Err = fmt.Errorf("resolving workspace: %w", err)
		return
	}
	if fi, err := os.Stat(wsDir); err != nil {
		res.Err = fmt.Errorf("workspace: %w", err)
		return
	} else if !fi.IsDir() {
		res.Err = fmt.Errorf("workspace %s is not a directory", wsDir)
		return
	}

	stream := r.stream()
	if f, err := os.Create(filepath.Join(outDir, BuildLog)); err != nil {
		log.Warn().Err(err).Msg("container output will not be saved")
	} else {
		defer f.Close()
		stream = io.MultiWriter(stream, f)
	}

	spec := r.RunSpec(recipe, wsDir, outDir)
	spec.Stdout = stream
	spec.Stderr = stream

	log.Debug().
		Str("image", spec.Image).
		Str("container", spec.Name).
		Str("output", outDir).
		Msg("running build container")

	code, err := r.Runtime.Run(ctx, spec)
	if err != nil {
		res.Err = err
		return
	}
	res.ExitCode = code
	res.Success = code == 0
	if !res.Success {
		return
	}

	artifacts, err := FindArtifacts(outDir, r.Toolchain.Collect)
	if err != nil {
		log.Warn().Err(err).Msg("could not list artifacts")
		return
	}
	res.Artifacts = artifacts
}

// RunSpec describes the container that builds recipe with wsDir and outDir
// (absolute host paths) mounted at the toolchain mount points.
func (r *Runner) RunSpec(recipe platform.Recipe, wsDir, outDir string) runtime.RunSpec {
	tc := r.Toolchain

	env := []string{tc.SystemEnv + "=" + recipe.SystemName}
	env = append(env, r.Env...)
	keys := make([]string, 0, len(tc.Env))
	for k := range tc.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, k+"="+tc.Env[k])
	}

	return runtime.RunSpec{
		Name: containerName(recipe.ID, r.RunID),
		Labels: []string{
			"multibuild.run=" + r.RunID,
			"multibuild.platform=" + recipe.ID,
		},
		Image:      recipe.ImageFor(r.Arch),
		Platform:   r.Platform,
		Privileged: r.Privileged,
		TTY:        r.TTY,
		Mounts: []runtime.Mount{
			{Source: wsDir, Target: tc.WorkspaceMount},
			{Source: outDir, Target: tc.OutputMount, Export: true},
		},
		Workdir: tc.WorkspaceMount,
		Env:     env,
		Command: []string{"bash", "-c", NewScript(recipe, tc).Render()},
	}
}

// containerName is unique per platform and run.
func containerName(id, runID string) string {
	short := strings.ReplaceAll(runID, "-", "")
	if len(short) > 8 {
		short = short[:8]
	}
	if short == "" {
		return "multibuild-" + id
	}
	return "multibuild-" + id + "-" + short
}

func (r *Runner) out() io.Writer {
	if r.Out == nil {
		return io.Discard
	}
	return r.Out
}

func (r *Runner) stream() io.Writer {
	if r.Stream == nil {
		return r.out()
	}
	return r.Stream
}

func (r *Runner) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

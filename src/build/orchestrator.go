package build

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/sofmeright/multibuild/src/config"
	"github.com/sofmeright/multibuild/src/output"
	"github.com/sofmeright/multibuild/src/platform"
	"github.com/sofmeright/multibuild/src/runtime"
)

// Prober checks that the container runtime can be invoked.
type Prober interface {
	Probe(ctx context.Context) (*runtime.Info, error)
}

// Builder builds a single platform. *Runner is the production Builder.
type Builder interface {
	BuildForPlatform(ctx context.Context, recipe platform.Recipe, workspace, outputRoot string) Result
}

// Orchestrator drives a whole run: selection, runtime probe, the sequential
// build loop and the summary.
type Orchestrator struct {
	Registry    *platform.Registry
	Prober      Prober
	Builder     Builder
	Toolchain   config.ToolchainConfig
	RuntimeName string // shown when the probe fails, default "Docker"
	Arch        string
	Out         io.Writer
	Color       bool
	Verbose     bool
	Now         func() time.Time
}

// Options are the per-invocation inputs of a run.
type Options struct {
	Platforms []string // ids or "all"; empty means all
	OutputDir string
	Workspace string
	DryRun    bool
	Context   []output.KV // extra rows for the context block
}

// Run executes the selected builds one after another.
//
// Selection and probe failures are returned before anything is written to
// disk. Platform failures never stop the loop; they are collected and
// reported as ErrBuildsFailed once every platform has been attempted.
// A dry run prints the recipes and returns an empty result set.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (*Results, error) {
	log := zerolog.Ctx(ctx)

	ids, err := o.Registry.Resolve(opts.Platforms)
	if err != nil {
		return nil, err
	}

	kv := []output.KV{
		{Key: "Platforms", Value: output.List(ids)},
		{Key: "Workspace", Value: opts.Workspace},
		{Key: "Output", Value: opts.OutputDir},
	}
	kv = append(kv, opts.Context...)
	if opts.DryRun {
		kv = append(kv, output.KV{Key: "Mode", Value: "dry run"})
	}
	output.ContextBlock(o.out(), kv)

	if opts.DryRun {
		o.printRecipes(ids)
		return NewResults(), nil
	}

	info, err := o.Prober.Probe(ctx)
	if err != nil {
		name := o.runtimeName()
		fmt.Fprintf(o.out(), "\n%s is not available. Please install %s first.\n", strings.ToLower(name), name)
		return nil, fmt.Errorf("%w: %v", ErrRuntimeUnavailable, err)
	}
	log.Debug().Str("runtime", info.Raw).Msg("container runtime available")

	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	start := o.now()
	results := NewResults()
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			o.summarize(results, opts.OutputDir, o.now().Sub(start))
			return results, err
		}
		recipe, _ := o.Registry.Get(id)
		results.Add(o.Builder.BuildForPlatform(ctx, recipe, opts.Workspace, opts.OutputDir))
	}

	o.summarize(results, opts.OutputDir, o.now().Sub(start))

	if failed := results.Failed(); len(failed) > 0 {
		log.Debug().Strs("failed", failed).Msg("run finished with failures")
		return results, ErrBuildsFailed
	}
	return results, nil
}

// printRecipes renders one block per platform for a dry run.
func (o *Orchestrator) printRecipes(ids []string) {
	w := o.out()
	for _, id := range ids {
		recipe, _ := o.Registry.Get(id)
		image := recipe.ImageFor(o.Arch)

		sec := output.NewSection(w, "Platform: "+id, 0, o.Color)
		sec.Field("Image", image)
		if q := platform.QualifiedImage(image); q != image {
			sec.Field("", output.Dimmed(q, o.Color))
		}
		sec.Field("System Name", recipe.SystemName)
		sec.Field("Setup", recipe.Setup...)

		if o.Verbose {
			sec.Separator()
			sec.Field("Script", NewScript(recipe, o.Toolchain).Lines()...)
		}
		sec.Close()
	}
}

// summarize prints the per-platform outcome table and the artifact listing.
func (o *Orchestrator) summarize(results *Results, outputDir string, elapsed time.Duration) {
	w := o.out()

	sec := output.NewSection(w, "Build Summary", elapsed, o.Color)
	for _, r := range results.All() {
		output.SummaryRow(w, r.Platform, r.Success, resultDetail(r), o.Color)
	}
	sec.Separator()
	sec.Row("Total: %d/%d platforms built successfully", results.Succeeded(), results.Len())
	sec.Close()

	// Without a successful build anything on disk is left from earlier runs.
	if results.Succeeded() == 0 {
		return
	}

	listings, err := ListOutputs(outputDir, o.Toolchain.Collect)
	if err != nil {
		fmt.Fprintf(w, "    %s\n", output.Dimmed(err.Error(), o.Color))
		return
	}
	if len(listings) == 0 {
		return
	}

	sec = output.NewSection(w, "Artifacts", 0, o.Color)
	sec.Row("Saved to %s", outputDir)
	sec.Separator()
	for _, l := range listings {
		sec.Field(l.Platform, l.Artifacts...)
	}
	sec.Close()
}

func resultDetail(r Result) string {
	d := output.FormatElapsed(r.Duration)
	switch {
	case r.Err != nil:
		return d + "  (error)"
	case !r.Success:
		return fmt.Sprintf("%s  (exit %d)", d, r.ExitCode)
	default:
		return d
	}
}

func (o *Orchestrator) runtimeName() string {
	if o.RuntimeName == "" {
		return "Docker"
	}
	return o.RuntimeName
}

func (o *Orchestrator) out() io.Writer {
	if o.Out == nil {
		return io.Discard
	}
	return o.Out
}

func (o *Orchestrator) now() time.Time {
	if o.Now == nil {
		return time.Now()
	}
	return o.Now()
}

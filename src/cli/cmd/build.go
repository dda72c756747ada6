package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/sofmeright/multibuild/src/build"
	"github.com/sofmeright/multibuild/src/config"
	"github.com/sofmeright/multibuild/src/gitver"
	"github.com/sofmeright/multibuild/src/output"
	"github.com/sofmeright/multibuild/src/platform"
	"github.com/sofmeright/multibuild/src/runtime"
)

var (
	buildPlatforms []string
	buildOutputDir string
	buildWorkspace string
	buildDryRun    bool
)

func bindBuildFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&buildPlatforms, "platforms", []string{platform.All}, `platform ids to build, or "all"`)
	cmd.Flags().StringVar(&buildOutputDir, "output-dir", config.DefaultOutputDir, "root directory for per-platform output")
	cmd.Flags().StringVar(&buildWorkspace, "workspace", ".", "directory mounted into each container as the build context")
	cmd.Flags().BoolVar(&buildDryRun, "dry-run", false, "print the recipes without building")
}

func runBuild(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	log := zerolog.Ctx(ctx)
	color := useColor()
	w := os.Stdout

	workspace, err := filepath.Abs(buildWorkspace)
	if err != nil {
		return fmt.Errorf("resolving workspace: %w", err)
	}
	outputDir := cfg.OutputDir
	if cmd.Flags().Changed("output-dir") {
		outputDir = buildOutputDir
	}

	rc := cfg.Runtime
	arch := platform.HostArch()
	runID := uuid.NewString()

	env := runtime.ForwardedEnv(rc.ForwardEnv, os.LookupEnv)
	kv := []output.KV{
		{Key: "Engine", Value: rc.Engine},
		{Key: "Arch", Value: arch},
		{Key: "Run", Value: runID[:8]},
	}
	if cfg.Source != "" {
		kv = append(kv, output.KV{Key: "Config", Value: cfg.Source})
	}

	rev, err := gitver.Detect(workspace)
	switch {
	case err == nil:
		env = append(env, rev.Env()...)
		kv = append(kv, output.KV{Key: "Revision", Value: rev.String()})
	case errors.Is(err, gitver.ErrNotRepository):
		log.Debug().Str("workspace", workspace).Msg("workspace is not a git repository")
	default:
		log.Warn().Err(err).Msg("could not read workspace revision")
	}

	eng, name, closeEngine := newEngine(rc)
	defer func() {
		if err := closeEngine(); err != nil {
			log.Warn().Err(err).Msg("closing container engine")
		}
	}()

	runner := &build.Runner{
		Runtime:    eng,
		Toolchain:  cfg.Toolchain,
		Privileged: rc.Privileged,
		TTY:        runtime.UseTTY(string(rc.TTY), runtime.StdinIsTerminal()),
		Platform:   rc.Platform,
		Arch:       arch,
		RunID:      runID,
		Env:        env,
		Stream:     w,
		Out:        w,
		Color:      color,
	}

	orch := &build.Orchestrator{
		Registry:    registry,
		Prober:      eng,
		Builder:     runner,
		Toolchain:   cfg.Toolchain,
		RuntimeName: name,
		Arch:        arch,
		Out:         w,
		Color:       color,
		Verbose:     verbose,
	}

	_, err = orch.Run(ctx, build.Options{
		Platforms: selection(cmd.Flags().Changed("platforms"), buildPlatforms, args),
		OutputDir: outputDir,
		Workspace: workspace,
		DryRun:    buildDryRun,
		Context:   kv,
	})
	return err
}

// selection merges --platforms with positional ids. Positional ids alone
// replace the "all" default.
func selection(flagChanged bool, flagIDs, args []string) []string {
	if !flagChanged {
		if len(args) > 0 {
			return args
		}
		return []string{platform.All}
	}
	return append(append([]string(nil), flagIDs...), args...)
}

// engine is a container backend able to probe and run.
type engine interface {
	build.Prober
	build.ContainerRuntime
}

// newEngine returns the configured backend, the name shown when it is
// missing and a function releasing it.
func newEngine(rc config.RuntimeConfig) (engine, string, func() error) {
	if rc.Engine == config.EngineDagger {
		d := runtime.NewDagger()
		return d, "Dagger", d.Close
	}

	d := runtime.NewDocker(rc.Binary)
	d.Sudo = runtime.UseSudo(string(rc.Sudo), os.Geteuid())
	d.MinVersion = rc.MinVersion

	name := "Docker"
	if rc.Binary != "docker" {
		name = filepath.Base(rc.Binary)
	}
	return d, name, func() error { return nil }
}

// runtimeLabel is the engine description shown by the platforms command.
func runtimeLabel(rc config.RuntimeConfig) string {
	if rc.Engine == config.EngineDagger {
		return "dagger"
	}
	parts := []string{rc.Binary}
	if rc.Privileged {
		parts = append(parts, "privileged")
	}
	if rc.Platform != "" {
		parts = append(parts, rc.Platform)
	}
	return strings.Join(parts, ", ")
}

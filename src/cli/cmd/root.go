package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sofmeright/multibuild/src/build"
	"github.com/sofmeright/multibuild/src/config"
	"github.com/sofmeright/multibuild/src/output"
	"github.com/sofmeright/multibuild/src/platform"
)

var (
	cfgFile  string
	verbose  bool
	noColor  bool
	cfg      *config.Config
	registry *platform.Registry
)

var rootCmd = &cobra.Command{
	Use:   "multibuild [platform...]",
	Short: "Build packages for several platforms in containers",
	Long: `multibuild runs the package build inside one container per target platform
and collects the resulting archives under <output-dir>/<platform>/.

Platforms are chosen with --platforms (default: all). Extra platform ids may be
given as arguments, so "--platforms ubuntu20.04 ubuntu22.04" works as expected.`,
	Args: cobra.ArbitraryArgs,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger := output.NewLogger(os.Stderr, verbose, useColor())
		cmd.SetContext(logger.WithContext(cmd.Context()))

		// Skip config loading for commands that don't need it.
		if cmd.Name() == "version" {
			return nil
		}

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		warnings, err := config.Validate(cfg)
		for _, w := range warnings {
			logger.Warn().Str("config", cfg.Source).Msg(w)
		}
		if err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		registry, err = platform.FromConfig(cfg)
		if err != nil {
			return fmt.Errorf("building platform registry: %w", err)
		}

		logger.Debug().
			Str("config", cfg.Source).
			Strs("platforms", registry.IDs()).
			Msg("configuration loaded")
		return nil
	},
	RunE:          runBuild,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	bindFlags(rootCmd)
}

// bindFlags registers the global and build flags on cmd, resetting the
// bound variables to their defaults.
func bindFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: .multibuild.yml)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	bindBuildFlags(cmd)
}

// Execute runs the root command. SIGINT and SIGTERM cancel the running
// build. Failed platform builds have already been reported when
// build.ErrBuildsFailed comes back, so that error is not printed again.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, build.ErrBuildsFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		return err
	}
	return nil
}

func useColor() bool {
	return !noColor && output.UseColor()
}

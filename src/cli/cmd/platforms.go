package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sofmeright/multibuild/src/output"
	"github.com/sofmeright/multibuild/src/platform"
)

var platformsCmd = &cobra.Command{
	Use:   "platforms",
	Short: "List the available build platforms",
	Long: `List every platform that can be selected with --platforms: the built-in
recipes merged with those declared in the config file.

Images chosen by a per-architecture override for this host are marked with *.`,
	Args: cobra.NoArgs,
	RunE: runPlatforms,
}

func init() {
	rootCmd.AddCommand(platformsCmd)
}

func runPlatforms(cmd *cobra.Command, args []string) error {
	w := os.Stdout
	color := useColor()
	arch := platform.HostArch()

	sec := output.NewSection(w, "Platforms", 0, color)
	sec.Row("%-18s %-44s %s", "ID", "IMAGE", "SETUP")
	sec.Separator()
	for _, id := range registry.IDs() {
		r, _ := registry.Get(id)
		image := r.ImageFor(arch)
		if image != r.Image {
			image += " *"
		}
		sec.Row("%-18s %-44s %d commands", id, image, len(r.Setup))
		if r.SystemName != id {
			sec.Row("%-18s %s", "", output.Dimmed("system name: "+r.SystemName, color))
		}
	}
	sec.Separator()
	sec.Row("%d platforms · host arch %s · runtime %s", registry.Len(), arch, runtimeLabel(cfg.Runtime))
	sec.Close()

	if verbose {
		fmt.Fprintf(w, "\n    select with: multibuild --platforms <id...|%s>\n", platform.All)
	}
	return nil
}

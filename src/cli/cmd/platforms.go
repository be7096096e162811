package cmd

import (
	"github.com/spf13/cobra"

	"github.com/sofmeright/xcforge/src/build"
	"github.com/sofmeright/xcforge/src/output"
)

var pConfiguration string

var platformsCmd = &cobra.Command{
	Use:   "platforms",
	Short: "List supported platforms and their product directories",
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := build.ParseConfiguration(pConfiguration)
		if err != nil {
			return err
		}
		color := output.UseColor()
		sec := output.NewSection(cmd.OutOrStdout(), "Platforms", 0, color)
		sec.Row("%-20s %-18s %-10s %s", "platform", "sdk", "kind", "products")
		sec.Separator()
		for _, p := range build.AllPlatforms() {
			sec.Row("%-20s %-18s %-10s %s", p, p.SettingValue(), platformKind(p), output.Dimmed(build.ProductDirName(conf, p), color))
		}
		sec.Close()
		return nil
	},
}

func init() {
	platformsCmd.Flags().StringVar(&pConfiguration, "configuration", "release", "build configuration: debug or release")
	rootCmd.AddCommand(platformsCmd)
}

func platformKind(p build.Platform) string {
	switch {
	case p.IsHost():
		return "host"
	case p.IsSimulator():
		return "simulator"
	default:
		return "device"
	}
}

package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/olivierh59500/sankey-flow-go/internal/ui"
)

func configCmd() *cobra.Command {
	show := func(cmd *cobra.Command, args []string) {
		if err := loadConfig().Encode(os.Stdout); err != nil {
			fail("%v", err)
		}
	}
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print or check the effective configuration",
		Args:  cobra.NoArgs,
		Run:   show,
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration as TOML",
			Run:   show,
		},
		&cobra.Command{
			Use:   "check [data-file]",
			Short: "Validate the configuration and lay out the data",
			Args:  cobra.MaximumNArgs(1),
			Run: func(cmd *cobra.Command, args []string) {
				cfg := loadConfig()
				sim := newSimulation(cfg, args, discardLogger())
				ui.Good.Printf("  %s configuration ok, %d routes, cap %d\n",
					ui.StatusIcon(true), sim.Chart().Cache.Len(), sim.Chart().Engine.Config().TotalParticles)
			},
		},
	)
	return cmd
}

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/olivierh59500/sankey-flow-go/internal/tui"
)

func watchCmd() *cobra.Command {
	var steps int
	cmd := &cobra.Command{
		Use:   "watch [data-file]",
		Short: "Follow arrival counts in the terminal",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfig()
			// the alternate screen owns the terminal
			sim := newSimulation(cfg, args, discardLogger())

			if err := tui.Run(sim, cfg, steps); err != nil {
				fail("%v", err)
			}
		},
	}
	cmd.Flags().IntVar(&steps, "steps", 1, "simulation steps per screen refresh")
	return cmd
}

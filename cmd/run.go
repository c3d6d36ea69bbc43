package cmd

import (
	"github.com/spf13/cobra"

	"github.com/olivierh59500/sankey-flow-go/internal/window"
)

func runCmd() *cobra.Command {
	var (
		paused   bool
		noBands  bool
		snapshot string
	)
	cmd := &cobra.Command{
		Use:   "run [data-file]",
		Short: "Open the chart in a window",
		Long: "Open the chart in a window.\n\n" +
			"Keys: space pause, r restart, h toggle bands, v particles/trails,\n" +
			"s save arrival snapshot, 0 reset camera, esc quit. Wheel zooms, drag pans.",
		Args: cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			logger := newLogger()
			cfg := loadConfig()
			if noBands {
				cfg.Window.ShowBands = false
			}
			sim := newSimulation(cfg, args, logger)

			g := window.New(sim, cfg, logger)
			g.Paused = paused
			if snapshot != "" {
				g.SnapshotTo = snapshot
			}
			if err := window.RunGame(g, cfg); err != nil {
				fail("%v", err)
			}
		},
	}
	cmd.Flags().BoolVar(&paused, "paused", false, "start paused")
	cmd.Flags().BoolVar(&noBands, "no-bands", false, "hide the route bands")
	cmd.Flags().StringVar(&snapshot, "snapshot-dir", "", "directory for arrival snapshots (default: current)")
	return cmd
}

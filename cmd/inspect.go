package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/olivierh59500/sankey-flow-go/internal/chart"
	"github.com/olivierh59500/sankey-flow-go/internal/ui"
)

func inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [data-file]",
		Short: "Show the laid out nodes, routes and sampling targets",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfig()
			root := loadHierarchy(cfg, args)
			c, err := chart.Build(root, cfg, newLogger())
			if err != nil {
				fail("%v", err)
			}

			ui.Banner(os.Stdout, "chart layout")
			fmt.Printf("  %s %d columns, node width %.1f, align %s\n\n",
				ui.Info.Sprint("network"), len(c.Network.Columns()), c.Network.NodeWidth, c.Network.Config.Align)

			var rows [][]string
			for _, n := range c.Network.Nodes {
				rows = append(rows, []string{
					n.Path,
					strconv.Itoa(n.Column),
					fmt.Sprintf("%.1f", n.X0),
					fmt.Sprintf("%.1f", n.X1),
					fmt.Sprintf("%.1f", n.Y0),
					fmt.Sprintf("%.1f", n.Y1),
				})
			}
			ui.Table(os.Stdout, []string{"NODE", "COL", "X0", "X1", "Y0", "Y1"}, rows)

			fmt.Println()
			rows = rows[:0]
			for _, key := range c.Cache.Keys() {
				r, _ := c.Cache.Get(key)
				last := r.Last()
				rows = append(rows, []string{
					key,
					strconv.Itoa(r.Len()),
					fmt.Sprintf("%.1f", r.Length),
					fmt.Sprintf("(%.1f, %.1f)", last.X, last.Y),
				})
			}
			ui.Table(os.Stdout, []string{"ROUTE", "SAMPLES", "LENGTH", "END"}, rows)

			fmt.Println()
			rows = rows[:0]
			thresholds := c.Sampler.Thresholds()
			for i, t := range c.Sampler.Targets() {
				raw := c.Extraction.Targets[i]
				rows = append(rows, []string{
					t.Path,
					cfg.GroupLabel(t.Group),
					strconv.FormatFloat(raw.Weight, 'g', -1, 64),
					fmt.Sprintf("%.4f", t.Weight),
					fmt.Sprintf("%.4f", thresholds[i]),
				})
			}
			ui.Table(os.Stdout, []string{"TARGET", "GROUP", "WEIGHT", "P", "THRESHOLD"}, rows)

			fmt.Println()
			fmt.Println(ui.Subtle.Sprintf("  %d particles at density %g, speed %g–%g",
				c.Engine.Config().TotalParticles, c.Engine.Config().Density,
				c.Engine.Config().SpeedMin, c.Engine.Config().SpeedMax))
		},
	}
}

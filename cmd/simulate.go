package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/olivierh59500/sankey-flow-go/internal/chart"
	"github.com/olivierh59500/sankey-flow-go/internal/flow"
	"github.com/olivierh59500/sankey-flow-go/internal/ui"
)

type simulateResult struct {
	RunID    string         `json:"run_id"`
	Seed     int64          `json:"seed"`
	Ticks    int            `json:"ticks"`
	Cap      int            `json:"cap"`
	Arrived  int            `json:"arrived"`
	Live     int            `json:"live"`
	Dropped  int            `json:"dropped"`
	Arrivals []flow.Arrival `json:"arrivals"`
}

func simulateCmd() *cobra.Command {
	var (
		ticks    int
		maxTicks int
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "simulate [data-file]",
		Short: "Run headless and print the arrival tally",
		Long: "Run headless and print the arrival tally.\n\n" +
			"Without --ticks the run stops once every particle has arrived.",
		Args: cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			logger := newLogger()
			cfg := loadConfig()
			sim := newSimulation(cfg, args, logger)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			var err error
			if ticks > 0 {
				err = sim.RunFor(ctx, ticks)
			} else {
				err = runUntilDone(ctx, sim, maxTicks)
			}
			if err != nil && !errors.Is(err, context.Canceled) {
				fail("%v", err)
			}

			res := simulateResult{
				RunID:    sim.RunID(),
				Seed:     sim.Seed(),
				Ticks:    sim.Elapsed(),
				Cap:      sim.Chart().Engine.Config().TotalParticles,
				Arrived:  sim.State().Arrived,
				Live:     sim.State().Live(),
				Dropped:  sim.State().Dropped,
				Arrivals: sim.Counter().Snapshot(),
			}
			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(res); err != nil {
					fail("%v", err)
				}
				return
			}
			printResult(res, func(k string) string { return cfg.GroupLabel(k) })
		},
	}
	cmd.Flags().IntVarP(&ticks, "ticks", "n", 0, "number of ticks to run")
	cmd.Flags().IntVar(&maxTicks, "max-ticks", 100000, "give up after this many ticks when running to completion")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

// runUntilDone steps until every particle of the cap has arrived.
func runUntilDone(ctx context.Context, sim *chart.Simulation, limit int) error {
	cap := sim.Chart().Engine.Config().TotalParticles
	for sim.State().Arrived+sim.State().Dropped < cap {
		if sim.Elapsed() >= limit {
			return fmt.Errorf("not finished after %d ticks (%d/%d arrived)", limit, sim.State().Arrived, cap)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := sim.Step(); err != nil {
			var unknown *flow.UnknownRouteError
			if !errors.As(err, &unknown) {
				return err
			}
		}
	}
	return nil
}

func printResult(res simulateResult, label func(string) string) {
	ui.Banner(os.Stdout, "arrival tally")

	rows := make([][]string, 0, len(res.Arrivals))
	for _, a := range res.Arrivals {
		rows = append(rows, []string{
			strings.TrimPrefix(a.Leaf, "/"),
			label(a.Group),
			strconv.Itoa(a.Count),
			fmt.Sprintf("%5.1f%%", a.Share*100),
			ui.Bar(a.Share, 24),
		})
	}
	ui.Table(os.Stdout, []string{"LEAF", "GROUP", "COUNT", "SHARE", ""}, rows)

	fmt.Println()
	fmt.Printf("  %s %d/%d arrived in %d ticks", ui.StatusIcon(res.Arrived == res.Cap), res.Arrived, res.Cap, res.Ticks)
	if res.Live > 0 {
		fmt.Printf(", %s", ui.Warn.Sprintf("%d still travelling", res.Live))
	}
	if res.Dropped > 0 {
		fmt.Printf(", %s", ui.Bad.Sprintf("%d dropped", res.Dropped))
	}
	fmt.Println()
	fmt.Println(ui.Subtle.Sprintf("  run %s, seed %d", res.RunID, res.Seed))
}

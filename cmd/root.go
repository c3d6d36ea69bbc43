package cmd

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/olivierh59500/sankey-flow-go/internal/chart"
	"github.com/olivierh59500/sankey-flow-go/internal/config"
	"github.com/olivierh59500/sankey-flow-go/internal/hierarchy"
	"github.com/olivierh59500/sankey-flow-go/internal/metrics"
	"github.com/olivierh59500/sankey-flow-go/internal/ui"
)

var version = "0.3.0"

var (
	configPath  string
	dataFile    string
	seed        int64
	logLevel    string
	logFormat   string
	metricsAddr string
)

var rootCmd = &cobra.Command{
	Use:   "sankeyflow",
	Short: "sankeyflow — particles flowing through a sankey chart",
	Long: ui.Brand.Sprint("sankeyflow") + " — particles flowing through a sankey chart\n" +
		ui.Subtle.Sprint("Each particle picks a leaf and group by weight and travels the band to it"),
	Version:      version,
	SilenceUsage: true,
}

func init() {
	rootCmd.SetVersionTemplate("sankeyflow {{ .Version }}\n")
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", "", "TOML configuration file")
	pf.StringVarP(&dataFile, "data", "d", "", "hierarchy document (JSON or YAML)")
	pf.Int64Var(&seed, "seed", 0, "random seed, 0 uses the configured one")
	pf.StringVar(&logLevel, "log-level", "info", "debug, info, warn or error")
	pf.StringVar(&logFormat, "log-format", "text", "text or json")
	pf.StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")

	rootCmd.AddCommand(
		runCmd(),
		watchCmd(),
		simulateCmd(),
		inspectCmd(),
		configCmd(),
	)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func fail(format string, args ...any) {
	ui.Bad.Fprintf(os.Stderr, "sankeyflow: "+format+"\n", args...)
	os.Exit(1)
}

func newLogger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		fail("bad log level %q", logLevel)
	}
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	switch strings.ToLower(logFormat) {
	case "json":
		h = slog.NewJSONHandler(os.Stderr, opts)
	case "text", "":
		h = slog.NewTextHandler(os.Stderr, opts)
	default:
		fail("bad log format %q (use text or json)", logFormat)
	}
	return slog.New(h)
}

func loadConfig() *config.Config {
	if configPath == "" {
		return config.Default()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		fail("%v", err)
	}
	return cfg
}

// dataPath picks the hierarchy document: argument, then flag, then config.
func dataPath(cfg *config.Config, args []string) string {
	switch {
	case len(args) > 0:
		return args[0]
	case dataFile != "":
		return dataFile
	case cfg.Data != "":
		return cfg.Data
	}
	return "data.json"
}

func loadHierarchy(cfg *config.Config, args []string) *hierarchy.Internal {
	path := dataPath(cfg, args)
	root, err := hierarchy.Load(path, cfg.HierarchyGroups())
	if err != nil {
		fail("%v", err)
	}
	return root
}

// newSimulation loads everything a command needs to step a run. The
// metrics registry is served when --metrics-addr is set.
func newSimulation(cfg *config.Config, args []string, logger *slog.Logger, opts ...chart.Option) *chart.Simulation {
	root := loadHierarchy(cfg, args)

	opts = append([]chart.Option{chart.WithLogger(logger)}, opts...)
	if seed != 0 {
		opts = append(opts, chart.WithSeed(seed))
	}
	if metricsAddr != "" {
		reg := metrics.NewRegistry()
		serveMetrics(reg, logger)
		opts = append(opts, chart.WithMetrics(reg))
	}

	sim, err := chart.NewSimulation(root, cfg, opts...)
	if err != nil {
		fail("%v", err)
	}
	return sim
}

func serveMetrics(reg *metrics.Registry, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", reg.Handler())
	srv := &http.Server{
		Addr:              metricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("serving metrics", "addr", metricsAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/san-kum/heatsim/internal/config"
	"github.com/san-kum/heatsim/internal/experiment"
	"github.com/san-kum/heatsim/internal/storage"
	"github.com/san-kum/heatsim/internal/viz"
)

// resolveConfig builds the run configuration: a config file wins over a
// preset, and explicit flags win over both.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	switch {
	case configFile != "":
		c, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = c
	case preset != "":
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	default:
		cfg = config.DefaultConfig()
	}

	flags := cmd.Flags()
	if flags.Changed("procs") {
		cfg.Domain.Processes = procs
	}
	if flags.Changed("cells") {
		cfg.Domain.Cells = cells
	}
	if flags.Changed("time") {
		t := totalTime
		cfg.Time.TotalTime, cfg.Time.TotalSteps = &t, nil
	}
	if flags.Changed("steps") {
		n := totalSteps
		cfg.Time.TotalSteps = &n
		if !flags.Changed("time") {
			cfg.Time.TotalTime = nil
		}
	}
	if flags.Changed("outputs") {
		cfg.Time.Outputs = outputs
	}
	if flags.Changed("collectives") {
		cfg.Time.Collectives = collectives
	}
	if restart != "" {
		cfg.Initial.Restart = &config.RestartConfig{Run: restart, Tag: restartTag}
	}
	if cfg.Name == "" {
		cfg.Name = "run"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if saveConfig != "" {
		if err := config.Save(saveConfig, cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func newStore() (*storage.Store, error) {
	if noStore {
		return nil, nil
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return nil, err
	}
	return st, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	log, err := newLogger()
	if err != nil {
		return err
	}
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	st, err := newStore()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := experiment.Options{Store: st, Logger: log}
	if metricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		opts.Registerer = reg

		srv := serveMetrics(metricsAddr, reg, log)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	exp, err := experiment.New(cfg, opts)
	if err != nil {
		return err
	}

	start := time.Now()
	res, err := exp.Run(ctx)
	if res != nil {
		printSummary(cfg, res, time.Since(start))
	}
	return err
}

func serveMetrics(addr string, reg *prometheus.Registry, log *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info("serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server", "err", err)
		}
	}()
	return srv
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	st, err := newStore()
	if err != nil {
		return err
	}

	// Logging would tear the alternate screen.
	quiet := slog.New(slog.DiscardHandler)
	exp, err := experiment.New(cfg, experiment.Options{Store: st, Logger: quiet})
	if err != nil {
		return err
	}

	var horizon viz.Horizon
	if cfg.Time.TotalTime != nil {
		horizon.Time = *cfg.Time.TotalTime
	}
	if cfg.Time.TotalSteps != nil {
		horizon.Steps = *cfg.Time.TotalSteps
	}

	start := time.Now()
	res, err := viz.Run(cmd.Context(), exp, cfg.Name, horizon)
	if res != nil {
		printSummary(cfg, res, time.Since(start))
	}
	return err
}

func printSummary(cfg *config.Config, res *experiment.Result, wall time.Duration) {
	if res.RunID != "" {
		fmt.Printf("run: %s\n", res.RunID)
	}
	fmt.Printf("cells: %d  workers: %d  scheme: %s\n", cfg.Domain.Cells, cfg.Domain.Processes, cfg.Time.Scheme)
	fmt.Printf("steps: %d  time: %.6gs  dt: %.4gs  wall: %v\n", res.Steps, res.Time, res.Dt, wall.Round(time.Millisecond))
	fmt.Printf("status: %s\n", res.Code)
	if res.Ignited {
		fmt.Printf("ignition at %.6gs, wave speed %.4g m/s\n", res.IgnitionTime, res.WaveSpeed)
	}
	for _, name := range sortedKeys(res.Metrics) {
		fmt.Printf("  %-18s %.6g\n", name, res.Metrics[name])
	}
}

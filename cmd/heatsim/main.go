package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	dataDir     string
	configFile  string
	preset      string
	procs       int
	cells       int
	totalTime   float64
	totalSteps  int
	outputs     int
	collectives string
	restart     string
	restartTag  string
	metricsAddr string
	logLevel    string
	noStore     bool
	tag         string
	quantity    string
	saveConfig  string
	outPath     string
	sweepParams []string
	objective   string
	parallel    int
)

// main registers the heatsim commands and exits with status 1 on error.
func main() {
	rootCmd := &cobra.Command{
		Use:           "heatsim",
		Short:         "reacting heat conduction solver",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".heatsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a simulation",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addRunFlags(runCmd)
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address while running")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run a simulation with live visualization",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addRunFlags(liveCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run history, or one snapshot with --tag",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&tag, "tag", "", "snapshot tag (substring match, \"latest\" for the last one)")
	plotCmd.Flags().StringVar(&quantity, "quantity", "T", "snapshot quantity (T, eta, P, rho_g, rho_s)")
	plotCmd.Flags().StringVarP(&outPath, "out", "o", "", "write an image (png, svg, pdf) instead of plotting in the terminal")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata, history and final profiles as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run history to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "run a parameter grid and rank the points",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	addRunFlags(sweepCmd)
	sweepCmd.Flags().StringArrayVar(&sweepParams, "param", nil, "grid axis as name=v1,v2,... (repeatable)")
	sweepCmd.Flags().StringVar(&objective, "objective", "ignition_time", "value to minimise: ignition_time or a metric name")
	sweepCmd.Flags().IntVar(&parallel, "parallel", 2, "experiments run at once")

	rootCmd.AddCommand(runCmd, liveCmd, sweepCmd, listCmd, plotCmd, exportCmd, exportCSVCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "use preset configuration")
	f.IntVar(&procs, "procs", 0, "number of workers")
	f.IntVar(&cells, "cells", 0, "number of cells")
	f.Float64Var(&totalTime, "time", 0, "simulated end time [s]")
	f.IntVar(&totalSteps, "steps", 0, "number of steps")
	f.IntVar(&outputs, "outputs", 0, "number of snapshot outputs")
	f.StringVar(&collectives, "collectives", "", "per-step collectives (batched, separate)")
	f.StringVar(&restart, "restart", "", "restart from this run id")
	f.StringVar(&restartTag, "restart-tag", "", "snapshot tag to restart from (default latest)")
	f.BoolVar(&noStore, "no-store", false, "do not persist the run")
	f.StringVar(&saveConfig, "save-config", "", "write the resolved config to this path")
}

func newLogger() (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})), nil
}

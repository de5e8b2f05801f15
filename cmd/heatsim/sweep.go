package main

import (
	"fmt"
	"math"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/heatsim/internal/experiment"
	"github.com/san-kum/heatsim/internal/optim"
)

// parseAxis reads "name=v1,v2,...".
func parseAxis(s string) (string, []float64, error) {
	name, list, ok := strings.Cut(s, "=")
	if !ok {
		return "", nil, fmt.Errorf("bad --param %q: want name=v1,v2", s)
	}
	var vals []float64
	for _, f := range strings.Split(list, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return "", nil, fmt.Errorf("bad --param %q: %w", s, err)
		}
		vals = append(vals, v)
	}
	return strings.TrimSpace(name), vals, nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	if len(sweepParams) == 0 {
		return fmt.Errorf("at least one --param is required (available: %s)", strings.Join(optim.ParamNames(), ", "))
	}
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

	names := make([]string, len(sweepParams))
	ranges := make([][]float64, len(sweepParams))
	for i, p := range sweepParams {
		if names[i], ranges[i], err = parseAxis(p); err != nil {
			return err
		}
	}
	grid, err := optim.NewGridSearch(names, ranges)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	points, best, err := grid.Search(ctx, cfg, experiment.Options{Store: st, Logger: log}, objective, parallel)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.ToUpper(strings.Join(names, "\t"))+"\t"+strings.ToUpper(objective)+"\tRUN\tSTATUS")
	for _, p := range points {
		var cols []string
		for _, n := range names {
			cols = append(cols, strconv.FormatFloat(p.Params[n], 'g', 6, 64))
		}
		value := "-"
		if !math.IsInf(p.Value, 1) {
			value = strconv.FormatFloat(p.Value, 'g', 6, 64)
		}
		runID, status := "-", "ok"
		if p.Result != nil && p.Result.RunID != "" {
			runID = p.Result.RunID
		}
		if p.Err != nil {
			status = p.Err.Error()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", strings.Join(cols, "\t"), value, runID, status)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if best.Params == nil {
		fmt.Println("\nno point produced a finite objective")
		return nil
	}
	fmt.Printf("\nbest %s = %.6g at %v\n", objective, best.Value, best.Params)
	return nil
}

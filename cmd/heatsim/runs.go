package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/heatsim/internal/config"
	"github.com/san-kum/heatsim/internal/export"
	"github.com/san-kum/heatsim/internal/storage"
)

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIMESTAMP\tCELLS\tPROCS\tSCHEME\tSTEPS\tTIME\tSTATUS\tIGNITION")

	for _, run := range runs {
		ign := "-"
		if run.IgnitionTime != nil {
			ign = fmt.Sprintf("%.4gs", *run.IgnitionTime)
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t%d\t%.4gs\t%s\t%s\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Cells,
			run.Processes,
			run.Scheme,
			run.Steps,
			run.Time,
			run.Code,
			ign,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scheme: %s  cells: %d  steps: %d\n\n", meta.Scheme, meta.Cells, meta.Steps)

	if cmd.Flags().Changed("tag") {
		return plotSnapshot(st, runID)
	}

	history, err := st.LoadHistory(runID)
	if err != nil {
		return err
	}
	if len(history) == 0 {
		return fmt.Errorf("no data to plot")
	}
	if outPath != "" {
		if err := export.History(outPath, meta.ID, history); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", outPath)
		return nil
	}

	series := []struct {
		caption string
		value   func(i int) float64
	}{
		{"max temperature [K] vs step", func(i int) float64 { return history[i].TMax }},
		{"max reaction progress vs step", func(i int) float64 { return history[i].EtaMax }},
		{"total energy [J/m²] vs step", func(i int) float64 { return history[i].Energy }},
		{"timestep [s] vs step", func(i int) float64 { return history[i].Dt }},
	}
	for _, s := range series {
		data := make([]float64, len(history))
		for i := range history {
			data[i] = s.value(i)
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(s.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func plotSnapshot(st *storage.Store, runID string) error {
	partial := tag
	if partial == "latest" {
		partial = ""
	}
	resolved, err := st.ResolveTag(runID, partial)
	if err != nil {
		return err
	}
	x, values, err := st.LoadSnapshot(runID, quantity, resolved)
	if err != nil {
		return err
	}

	if outPath != "" {
		title := fmt.Sprintf("%s at t = %s ms", runID, resolved)
		if err := export.Profiles(outPath, title, x, export.Series{Name: quantity, Values: values}); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", outPath)
		return nil
	}

	fmt.Printf("snapshot %s, %d cells over [%.4g, %.4g] m\n\n", resolved, len(x), x[0], x[len(x)-1])
	fmt.Println(asciigraph.Plot(values,
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption(quantity+" along x"),
	))
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	data, err := st.Export(args[0])
	if err != nil {
		return err
	}
	return storage.ExportJSON(os.Stdout, data)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	history, err := st.LoadHistory(args[0])
	if err != nil {
		return err
	}

	w := csv.NewWriter(os.Stdout)
	if err := w.Write([]string{"step", "time", "dt", "t_max", "t_min", "eta_max", "energy", "eta_integral", "ignited"}); err != nil {
		return err
	}
	g := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	for _, s := range history {
		row := []string{
			strconv.Itoa(s.Step), g(s.Time), g(s.Dt), g(s.TMax), g(s.TMin),
			g(s.EtaMax), g(s.Energy), g(s.EtaIntegral), strconv.FormatBool(s.Ignited),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func listPresets(cmd *cobra.Command, args []string) error {
	fmt.Println("presets:")
	for _, name := range config.ListPresets() {
		cfg := config.GetPreset(name)
		fmt.Printf("  %-10s %s, %d cells", name, cfg.Time.Scheme, cfg.Domain.Cells)
		if cfg.Sources.Kinetics {
			fmt.Print(", kinetics")
		}
		if cfg.Species.Enabled {
			fmt.Print(", species")
		}
		fmt.Println()
	}
	return nil
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

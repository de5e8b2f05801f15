// Package export renders stored runs as image files. The format follows
// the file extension: png, svg, pdf or eps.
package export

import (
	"errors"
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/san-kum/heatsim/internal/metrics"
)

var ErrEmpty = errors.New("export: nothing to plot")

const (
	width  = 8 * vg.Inch
	height = 5 * vg.Inch
)

var palette = []color.Color{
	color.RGBA{R: 0xff, G: 0x6b, B: 0x1a, A: 0xff},
	color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
	color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
	color.RGBA{R: 0x94, G: 0x67, B: 0xbd, A: 0xff},
	color.RGBA{R: 0x8c, G: 0x56, B: 0x4b, A: 0xff},
}

// Series is one named curve.
type Series struct {
	Name   string
	Values []float64
}

// Profiles plots per-cell quantities against the cell centres x.
func Profiles(path, title string, x []float64, series ...Series) error {
	if len(x) == 0 || len(series) == 0 {
		return ErrEmpty
	}
	p := newPlot(title, "x [m]", series[0].Name)
	for i, s := range series {
		if len(s.Values) != len(x) {
			return fmt.Errorf("export: %s has %d values for %d cells", s.Name, len(s.Values), len(x))
		}
		if err := addLine(p, i, s.Name, x, s.Values); err != nil {
			return err
		}
	}
	return p.Save(width, height, path)
}

// History plots the peak temperature of a run against simulated time and
// marks the ignition point when there is one.
func History(path, title string, samples []metrics.Sample) error {
	if len(samples) == 0 {
		return ErrEmpty
	}
	t := make([]float64, len(samples))
	tmax := make([]float64, len(samples))
	ignition := -1
	for i, s := range samples {
		t[i], tmax[i] = s.Time, s.TMax
		if s.Ignited && ignition < 0 {
			ignition = i
		}
	}

	p := newPlot(title, "t [s]", "T max [K]")
	if err := addLine(p, 0, "T max", t, tmax); err != nil {
		return err
	}
	if ignition >= 0 {
		pts := plotter.XYs{{X: t[ignition], Y: tmax[ignition]}}
		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return err
		}
		sc.Color = palette[1]
		sc.Radius = vg.Points(4)
		p.Add(sc)
		p.Legend.Add("ignition", sc)
	}
	return p.Save(width, height, path)
}

func newPlot(title, xLabel, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.Legend.Top = true
	p.Add(plotter.NewGrid())
	return p
}

func addLine(p *plot.Plot, i int, name string, x, y []float64) error {
	pts := make(plotter.XYs, len(x))
	for j := range x {
		pts[j].X, pts[j].Y = x[j], y[j]
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Color = palette[i%len(palette)]
	line.Width = vg.Points(1.5)
	p.Add(line)
	p.Legend.Add(name, line)
	return nil
}

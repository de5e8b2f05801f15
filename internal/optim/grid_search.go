package optim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/heatsim/internal/config"
	"github.com/san-kum/heatsim/internal/dynamo"
	"github.com/san-kum/heatsim/internal/experiment"
)

// ObjectiveIgnitionTime ranks runs by ignition delay; runs that never
// ignite score +Inf.
const ObjectiveIgnitionTime = "ignition_time"

var ErrUnknownParam = errors.New("optim: unknown parameter")

// Setter writes one swept value into a config.
type Setter func(cfg *config.Config, v float64)

// Params are the sweepable configuration values.
var Params = map[string]Setter{
	"left_flux": func(c *config.Config, v float64) {
		c.Boundaries[dynamo.LeftEnergy] = dynamo.BoundarySpec{Kind: dynamo.FixedFlux, Values: []float64{v}}
	},
	"a0":          func(c *config.Config, v float64) { c.Sources.A0 = v },
	"ea":          func(c *config.Config, v float64) { c.Sources.Ea = v },
	"dh":          func(c *config.Config, v float64) { c.Sources.DH = v },
	"threshold":   func(c *config.Config, v float64) { c.Ignition.Threshold = v },
	"k":           func(c *config.Config, v float64) { c.Material.K = v },
	"temperature": func(c *config.Config, v float64) { c.Initial.Temperature = v },
	"fourier":     func(c *config.Config, v float64) { c.Time.Fourier = &v },
	"permeability": func(c *config.Config, v float64) {
		c.Species.Permeability = v
	},
}

func ParamNames() []string {
	names := make([]string, 0, len(Params))
	for n := range Params {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Point is one evaluated grid point.
type Point struct {
	Params map[string]float64
	Value  float64
	Result *experiment.Result
	Err    error
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("optim: %d parameters but %d ranges", len(params), len(ranges))
	}
	for i, p := range params {
		if _, ok := Params[p]; !ok {
			return nil, fmt.Errorf("%w %q (expected one of %s)", ErrUnknownParam, p, strings.Join(ParamNames(), ", "))
		}
		if len(ranges[i]) == 0 {
			return nil, fmt.Errorf("optim: no values for %s", p)
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Points enumerates the grid in row-major order.
func (g *GridSearch) Points() []map[string]float64 {
	var out []map[string]float64
	g.enumerate(0, map[string]float64{}, &out)
	return out
}

func (g *GridSearch) enumerate(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.paramNames) {
		p := make(map[string]float64, len(current))
		for k, v := range current {
			p[k] = v
		}
		*out = append(*out, p)
		return
	}
	for _, v := range g.ranges[depth] {
		current[g.paramNames[depth]] = v
		g.enumerate(depth+1, current, out)
	}
	delete(current, g.paramNames[depth])
}

// Search runs one experiment per grid point, at most parallel at a time,
// and returns every point together with the one minimising the objective.
// A point whose run fails scores +Inf; Search itself fails only when the
// context ends.
func (g *GridSearch) Search(ctx context.Context, base *config.Config, opts experiment.Options, objective string, parallel int) ([]Point, Point, error) {
	grid := g.Points()
	points := make([]Point, len(grid))
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	eg, ctx := errgroup.WithContext(ctx)
	if parallel > 0 {
		eg.SetLimit(parallel)
	}
	var mu sync.Mutex
	done := 0
	for i, params := range grid {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			pt := g.evaluate(ctx, base, opts, params, objective)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			points[i] = pt

			mu.Lock()
			done++
			log.Info("grid point", "done", done, "of", len(grid), "params", params, objective, pt.Value, "err", pt.Err)
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, Point{}, err
	}

	best := Point{Value: math.Inf(1)}
	for _, p := range points {
		if p.Err == nil && p.Value < best.Value {
			best = p
		}
	}
	return points, best, nil
}

func (g *GridSearch) evaluate(ctx context.Context, base *config.Config, opts experiment.Options, params map[string]float64, objective string) Point {
	pt := Point{Params: params, Value: math.Inf(1)}

	cfg := base.Clone()
	for name, v := range params {
		Params[name](cfg, v)
	}
	// Points run concurrently: each needs its own metrics and no shared
	// registry.
	opts.Observers, opts.Metrics, opts.Registerer = nil, nil, nil
	exp, err := experiment.New(cfg, opts)
	if err != nil {
		pt.Err = err
		return pt
	}
	res, err := exp.Run(ctx)
	pt.Result = res
	if err != nil {
		pt.Err = err
		return pt
	}
	pt.Value = score(res, objective)
	return pt
}

func score(res *experiment.Result, objective string) float64 {
	if objective == ObjectiveIgnitionTime {
		if !res.Ignited || math.IsNaN(res.IgnitionTime) {
			return math.Inf(1)
		}
		return res.IgnitionTime
	}
	if v, ok := res.Metrics[objective]; ok && !math.IsNaN(v) {
		return v
	}
	return math.Inf(1)
}

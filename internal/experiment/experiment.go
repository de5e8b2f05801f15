package experiment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/heatsim/internal/comm"
	"github.com/san-kum/heatsim/internal/config"
	"github.com/san-kum/heatsim/internal/dynamo"
	"github.com/san-kum/heatsim/internal/metrics"
	"github.com/san-kum/heatsim/internal/physics"
	"github.com/san-kum/heatsim/internal/storage"
)

var ErrRestartNeedsStore = errors.New("experiment: restart requires a store")

// Options carries the optional collaborators of a run. The zero value runs
// without persistence, metrics export or observers.
type Options struct {
	Store      *storage.Store
	Logger     *slog.Logger
	Registerer prometheus.Registerer
	Metrics    []metrics.Metric
	Observers  []Observer
}

type Experiment struct {
	cfg  *config.Config
	opts Options
	log  *slog.Logger
}

type Result struct {
	RunID        string
	Steps        int
	Time         float64
	Dt           float64
	Code         dynamo.ErrorCode
	Ignited      bool
	IgnitionTime float64
	WaveSpeed    float64
	Metrics      map[string]float64
	History      []metrics.Sample

	// Global profiles at the end of the run.
	X   []float64
	T   []float64
	Eta []float64
}

func New(cfg *config.Config, opts Options) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Initial.Restart != nil && opts.Store == nil {
		return nil, ErrRestartNeedsStore
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.DefaultMetrics()
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Experiment{cfg: cfg, opts: opts, log: log}, nil
}

func (e *Experiment) AddObserver(o Observer) { e.opts.Observers = append(e.opts.Observers, o) }

// Run executes the simulation on Domain.Processes workers and blocks until
// the stop condition, a halt, or cancellation. A halt returns the partial
// result together with a *dynamo.SimulationError.
func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cfg := e.cfg
	mesh, err := physics.NewUniformMesh(cfg.Domain.Length, cfg.Domain.Cells)
	if err != nil {
		return nil, err
	}
	parts, err := comm.Decompose(cfg.Domain.Cells, cfg.Domain.Processes)
	if err != nil {
		return nil, err
	}
	init, err := e.initialState(mesh)
	if err != nil {
		return nil, err
	}
	group, err := comm.NewGroup(len(parts))
	if err != nil {
		return nil, err
	}

	var run *storage.Run
	if e.opts.Store != nil {
		if err := e.opts.Store.Init(); err != nil {
			return nil, err
		}
		if run, err = e.opts.Store.Create(cfg.Name); err != nil {
			return nil, err
		}
	}

	for _, m := range e.opts.Metrics {
		m.Reset()
	}
	var prom *metrics.Collectors
	if e.opts.Registerer != nil {
		prom = metrics.NewCollectors(e.opts.Registerer)
	}
	rep := newReporter(e.log, run, prom, e.opts.Metrics, e.opts.Observers, mesh.X)

	rep.log.Info("run started",
		"name", cfg.Name,
		"cells", cfg.Domain.Cells,
		"processes", len(parts),
		"scheme", cfg.Time.Scheme,
		"collectives", cfg.Time.Collectives,
		"species", cfg.Species.Enabled,
		"kinetics", cfg.Sources.Kinetics)
	started := time.Now()

	stop := context.AfterFunc(ctx, func() { group.Abort(ctx.Err()) })
	defer stop()

	errs := make([]error, len(parts))
	var g errgroup.Group
	for i, p := range parts {
		var r *reporter
		if p.Rank == 0 {
			r = rep
		}
		w := e.newWorker(p, mesh, init, group.Comm(p.Rank), r)
		g.Go(func() error {
			err := w.run()
			if err != nil {
				errs[i] = err
				group.Abort(err)
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, rootCause(errs, err)
	}

	res := rep.result()
	rep.log.Info("run finished",
		"steps", res.Steps,
		"time", res.Time,
		"code", res.Code,
		"ignited", res.Ignited,
		"wall", time.Since(started))

	if run != nil {
		if err := e.persist(run, res); err != nil {
			return res, err
		}
	}
	if res.Code != dynamo.OK {
		return res, dynamo.NewSimulationError(res.Steps, res.Time, res.Code)
	}
	return res, nil
}

func (e *Experiment) persist(run *storage.Run, res *Result) error {
	if err := run.SaveHistory(res.History); err != nil {
		return fmt.Errorf("experiment: save history: %w", err)
	}
	meta := storage.RunMetadata{
		Name:        e.cfg.Name,
		Timestamp:   time.Now(),
		Cells:       e.cfg.Domain.Cells,
		Processes:   e.cfg.Domain.Processes,
		Scheme:      e.cfg.Time.Scheme.String(),
		Collectives: e.cfg.Time.Collectives,
		Steps:       res.Steps,
		Time:        res.Time,
		Dt:          res.Dt,
		Code:        res.Code.String(),
		Ignited:     res.Ignited,
		Metrics:     make(map[string]float64, len(res.Metrics)),
	}
	// JSON has no NaN; diverged runs drop the affected metrics.
	for k, v := range res.Metrics {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			meta.Metrics[k] = v
		}
	}
	if res.Ignited {
		t := res.IgnitionTime
		meta.IgnitionTime = &t
	}
	if err := run.Finish(meta); err != nil {
		return fmt.Errorf("experiment: save metadata: %w", err)
	}
	return nil
}

// rootCause prefers the error that triggered an abort over the aborts it
// caused on the other ranks.
func rootCause(errs []error, fallback error) error {
	for i, err := range errs {
		if err != nil && !errors.Is(err, comm.ErrAborted) {
			return fmt.Errorf("rank %d: %w", i, err)
		}
	}
	return fallback
}

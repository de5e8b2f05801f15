package experiment

import (
	"log/slog"
	"math"
	"time"

	"github.com/san-kum/heatsim/internal/dynamo"
	"github.com/san-kum/heatsim/internal/metrics"
	"github.com/san-kum/heatsim/internal/storage"
)

// Frame is a global view of the solution handed to observers at every
// output point. Slices are shared and must not be modified.
type Frame struct {
	Sample metrics.Sample
	Code   dynamo.ErrorCode
	X      []float64
	T      []float64
	Eta    []float64
}

type Observer interface {
	OnFrame(f Frame)
}

type ObserverFunc func(Frame)

func (fn ObserverFunc) OnFrame(f Frame) { fn(f) }

// reporter performs the side effects of a run on rank 0: logging,
// metrics, observers and persistence.
type reporter struct {
	log       *slog.Logger
	run       *storage.Run
	prom      *metrics.Collectors
	metrics   []metrics.Metric
	observers []Observer
	x         []float64

	last    metrics.Sample
	history []metrics.Sample
	res     Result
}

func newReporter(log *slog.Logger, run *storage.Run, prom *metrics.Collectors, ms []metrics.Metric, obs []Observer, x []float64) *reporter {
	if run != nil {
		log = log.With("run", run.ID)
	}
	return &reporter{
		log:       log,
		run:       run,
		prom:      prom,
		metrics:   ms,
		observers: obs,
		x:         x,
		res:       Result{IgnitionTime: math.NaN()},
	}
}

func (r *reporter) step(s metrics.Sample, wall time.Duration) {
	r.last = s
	r.history = append(r.history, s)
	for _, m := range r.metrics {
		m.Observe(s)
	}
	r.prom.ObserveStep(s, wall)
	r.res.Steps = s.Step
	r.res.Time = s.Time
	r.res.Dt = s.Dt
}

func (r *reporter) ignite(step int, t float64, all dynamo.Ignition) {
	r.res.Ignited = true
	r.res.IgnitionTime = t
	r.prom.ObserveIgnition()
	r.log.Info("ignition", "step", step, "time", t, "all_ignited", all == dynamo.Ignited)
}

func (r *reporter) halt(step int, t float64, code dynamo.ErrorCode) {
	r.res.Code = code
	r.prom.ObserveHalt(code)
	r.log.Error("run halted", "step", step, "time", t, "code", code, "err", code.Err())
}

// output publishes one set of global profiles. The order of profiles is
// T, eta, then P, rho_g and rho_s in species mode.
func (r *reporter) output(step int, t float64, profiles [][]float64) error {
	r.res.X = r.x
	r.res.T = profiles[0]
	r.res.Eta = profiles[1]

	frame := Frame{
		Sample: r.last,
		Code:   r.res.Code,
		X:      r.x,
		T:      profiles[0],
		Eta:    profiles[1],
	}
	frame.Sample.Step, frame.Sample.Time = step, t
	for _, o := range r.observers {
		o.OnFrame(frame)
	}

	if r.run == nil {
		return nil
	}
	names := []string{storage.QuantityT, storage.QuantityEta, storage.QuantityP, storage.QuantityGas, storage.QuantitySolid}
	qs := make([]storage.Quantity, len(profiles))
	for i, p := range profiles {
		qs[i] = storage.Quantity{Name: names[i], Values: p}
	}
	tag := storage.FormatTag(t)
	r.log.Debug("snapshot", "step", step, "time", t, "tag", tag)
	return r.run.SaveSnapshot(tag, r.x, qs...)
}

func (r *reporter) result() *Result {
	res := r.res
	res.History = r.history
	res.Metrics = make(map[string]float64, len(r.metrics))
	for _, m := range r.metrics {
		res.Metrics[m.Name()] = m.Value()
	}
	res.WaveSpeed = res.Metrics["wave_speed"]
	if r.run != nil {
		res.RunID = r.run.ID
	}
	return &res
}

package experiment

import (
	"math"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/heatsim/internal/comm"
	"github.com/san-kum/heatsim/internal/dynamo"
	"github.com/san-kum/heatsim/internal/integrators"
	"github.com/san-kum/heatsim/internal/metrics"
	"github.com/san-kum/heatsim/internal/physics"
)

// worker advances one subdomain. Every worker executes the same sequence of
// collectives; rank 0 additionally carries the reporter.
type worker struct {
	rank     int
	part     comm.Partition
	comm     *comm.Comm
	field    *dynamo.Field
	material *physics.Material
	stepper  *integrators.Stepper
	dtc      integrators.TimeStepController
	detector metrics.IgnitionDetector
	monitor  metrics.ConvergenceMonitor
	override integrators.Override
	separate bool
	limit    stopCondition
	sched    *schedule
	rep      *reporter

	step       int
	t          float64
	lastOutput int

	// Local outcome of the last step, reduced at the start of the next.
	code dynamo.ErrorCode
	ign  dynamo.Ignition

	globalIgn dynamo.Ignition
}

func (w *worker) run() error {
	if err := w.output(); err != nil {
		return err
	}
	for {
		f := w.field
		if err := w.comm.RefreshGhosts(w.part, f); err != nil {
			return err
		}
		w.material.Update(f)

		local := w.dtc.LocalStableStep(f.Owned(f.K), f.Owned(f.RhoC), f.Owned(f.Hx))
		agg, err := w.synchronize(local)
		if err != nil {
			return err
		}

		if agg.Code != dynamo.OK {
			return w.halt(agg.Code)
		}
		if agg.Ignited == dynamo.Ignited && w.globalIgn == dynamo.Unignited {
			if err := w.ignite(agg.AllIgnited); err != nil {
				return err
			}
		}
		if w.limit.reached(w.step, w.t) {
			return w.finish()
		}
		if code := integrators.ValidateStep(agg.Dt); code != dynamo.OK {
			return w.halt(code)
		}
		if err := w.advance(agg.Dt); err != nil {
			return err
		}
	}
}

// synchronize agrees on the step size and on the previous step's outcome.
func (w *worker) synchronize(local float64) (comm.Aggregate, error) {
	if !w.separate {
		return w.comm.AllReduceStep(comm.NewAggregate(local, w.code, w.ign))
	}

	// Validity is checked by the caller for both modes.
	dt, _, err := integrators.SynchronizeGlobalStep(w.comm, local)
	if err != nil {
		return comm.Aggregate{}, err
	}
	code, err := w.comm.AllReduce(float64(w.code), comm.OpMax)
	if err != nil {
		return comm.Aggregate{}, err
	}
	all, err := w.comm.AllReduce(float64(w.ign), comm.OpMin)
	if err != nil {
		return comm.Aggregate{}, err
	}
	some, err := w.comm.AllReduce(float64(w.ign), comm.OpMax)
	if err != nil {
		return comm.Aggregate{}, err
	}
	return comm.Aggregate{
		Dt:         dt,
		Code:       dynamo.ErrorCode(code),
		Ignited:    dynamo.Ignition(some),
		AllIgnited: dynamo.Ignition(all),
	}, nil
}

func (w *worker) advance(dt float64) error {
	start := time.Now()
	res := w.stepper.Advance(w.field, dt)
	w.t += dt
	w.step++

	w.ign = w.detector.Detect(w.ign, w.field.Owned(w.field.Eta), w.field.Owned(w.stepper.StartTemperature()))
	w.code = w.monitor.Check(w.field, res.SpeciesMin)

	s, err := w.gather(dt)
	if err != nil {
		return err
	}
	if w.rep != nil {
		w.rep.step(s, time.Since(start))
	}
	if w.sched.due(w.step, w.t) {
		return w.output()
	}
	return nil
}

// gather reduces the per-step statistics in a single collective.
func (w *worker) gather(dt float64) (metrics.Sample, error) {
	f := w.field
	t, eta, e, hx := f.Owned(f.T), f.Owned(f.Eta), f.Owned(f.E), f.Owned(f.Hx)
	local := []float64{
		floats.Max(t),
		floats.Min(t),
		floats.Max(eta),
		floats.Dot(e, hx),
		floats.Dot(eta, hx),
		float64(w.ign),
	}
	all, err := w.comm.AllGather(local)
	if err != nil {
		return metrics.Sample{}, err
	}

	s := metrics.Sample{
		Step:   w.step,
		Time:   w.t,
		Dt:     dt,
		TMax:   math.Inf(-1),
		TMin:   math.Inf(1),
		EtaMax: math.Inf(-1),
	}
	for _, v := range all {
		s.TMax = math.Max(s.TMax, v[0])
		s.TMin = math.Min(s.TMin, v[1])
		s.EtaMax = math.Max(s.EtaMax, v[2])
		s.Energy += v[3]
		s.EtaIntegral += v[4]
		s.Ignited = s.Ignited || v[5] > 0
	}
	return s, nil
}

func (w *worker) ignite(all dynamo.Ignition) error {
	w.globalIgn = dynamo.Ignited
	w.ign = dynamo.Ignited
	w.stepper.ApplyIgnitionOverride(w.override)
	if w.rep != nil {
		w.rep.ignite(w.step, w.t, all)
	}
	return w.output()
}

func (w *worker) halt(code dynamo.ErrorCode) error {
	if w.rep != nil {
		w.rep.halt(w.step, w.t, code)
	}
	return w.output()
}

func (w *worker) finish() error {
	if w.lastOutput == w.step {
		return nil
	}
	return w.output()
}

// output assembles the global profiles on every rank and publishes them
// from rank 0.
func (w *worker) output() error {
	f := w.field
	arrays := [][]float64{f.T, f.Eta}
	if sp := f.Species; sp != nil {
		arrays = append(arrays, sp.P, sp.Gas, sp.Solid)
	}
	profiles := make([][]float64, len(arrays))
	for i, a := range arrays {
		g, err := w.comm.Assemble(f, a)
		if err != nil {
			return err
		}
		profiles[i] = g
	}
	w.lastOutput = w.step
	if w.rep == nil {
		return nil
	}
	return w.rep.output(w.step, w.t, profiles)
}

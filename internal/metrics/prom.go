package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/san-kum/heatsim/internal/dynamo"
)

// Collectors exports run progress to Prometheus. A nil *Collectors is a
// valid no-op.
type Collectors struct {
	steps        prometheus.Counter
	dt           prometheus.Gauge
	simTime      prometheus.Gauge
	peakTemp     prometheus.Gauge
	energy       prometheus.Gauge
	ignitions    prometheus.Counter
	halts        *prometheus.CounterVec
	stepDuration prometheus.Histogram
}

func NewCollectors(reg prometheus.Registerer) *Collectors {
	f := promauto.With(reg)
	return &Collectors{
		steps: f.NewCounter(prometheus.CounterOpts{
			Name: "heatsim_steps_total",
			Help: "Global steps completed",
		}),
		dt: f.NewGauge(prometheus.GaugeOpts{
			Name: "heatsim_step_size_seconds",
			Help: "Synchronized timestep of the last step",
		}),
		simTime: f.NewGauge(prometheus.GaugeOpts{
			Name: "heatsim_simulated_time_seconds",
			Help: "Simulated time elapsed",
		}),
		peakTemp: f.NewGauge(prometheus.GaugeOpts{
			Name: "heatsim_max_temperature_kelvin",
			Help: "Domain maximum temperature after the last step",
		}),
		energy: f.NewGauge(prometheus.GaugeOpts{
			Name: "heatsim_total_energy_joules_per_square_meter",
			Help: "Integrated energy over the domain",
		}),
		ignitions: f.NewCounter(prometheus.CounterOpts{
			Name: "heatsim_ignitions_total",
			Help: "Ignition transitions observed",
		}),
		halts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "heatsim_halts_total",
			Help: "Runs halted by error code",
		}, []string{"code"}),
		stepDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "heatsim_step_duration_seconds",
			Help:    "Wall time per global step",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10), // 1µs to ~260ms
		}),
	}
}

func (c *Collectors) ObserveStep(s Sample, wall time.Duration) {
	if c == nil {
		return
	}
	c.steps.Inc()
	c.dt.Set(s.Dt)
	c.simTime.Set(s.Time)
	c.peakTemp.Set(s.TMax)
	c.energy.Set(s.Energy)
	c.stepDuration.Observe(wall.Seconds())
}

func (c *Collectors) ObserveIgnition() {
	if c == nil {
		return
	}
	c.ignitions.Inc()
}

func (c *Collectors) ObserveHalt(code dynamo.ErrorCode) {
	if c == nil {
		return
	}
	c.halts.WithLabelValues(code.String()).Inc()
}

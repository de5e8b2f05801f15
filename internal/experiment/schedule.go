package experiment

import "github.com/san-kum/heatsim/internal/config"

// stopCondition ends a run on simulated time or step count; zero fields are unset.
type stopCondition struct {
	time  float64
	steps int
}

func (s stopCondition) reached(step int, t float64) bool {
	if s.steps > 0 && step >= s.steps {
		return true
	}
	return s.time > 0 && t >= s.time
}

// schedule spaces snapshots evenly over the run, in simulated time when a
// total time is configured and in steps otherwise.
type schedule struct {
	byTime   bool
	interval float64
	next     float64
}

func newSchedule(tc config.TimeConfig, t0 float64) *schedule {
	outputs := float64(max(tc.Outputs, 1))
	if tc.TotalTime != nil {
		iv := *tc.TotalTime / outputs
		return &schedule{byTime: true, interval: iv, next: t0 + iv}
	}
	iv := float64(*tc.TotalSteps) / outputs
	return &schedule{interval: iv, next: iv}
}

// due reports whether the step just completed crosses the next output
// point, and advances past it.
func (s *schedule) due(step int, t float64) bool {
	v := float64(step)
	if s.byTime {
		v = t
	}
	tol := 1e-9 * s.interval
	if v+tol < s.next {
		return false
	}
	for s.next <= v+tol {
		s.next += s.interval
	}
	return true
}

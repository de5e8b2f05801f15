package metrics

// minWaveAdvance is the smallest ∫η growth rate [m/s] counted as front motion.
const minWaveAdvance = 1e-3

// WaveSpeed averages the combustion front speed after ignition, measured as
// the growth rate of the integrated reaction progress.
type WaveSpeed struct {
	name     string
	prev     float64
	havePrev bool
	sum      float64
	samples  int
}

func NewWaveSpeed() *WaveSpeed {
	return &WaveSpeed{name: "wave_speed"}
}

func (w *WaveSpeed) Name() string { return w.name }

func (w *WaveSpeed) Observe(s Sample) {
	if !s.Ignited {
		w.havePrev = false
		return
	}
	if w.havePrev && s.Dt > 0 {
		v := (s.EtaIntegral - w.prev) / s.Dt
		if v > minWaveAdvance {
			w.sum += v
			w.samples++
		}
	}
	w.prev = s.EtaIntegral
	w.havePrev = true
}

func (w *WaveSpeed) Value() float64 {
	if w.samples == 0 {
		return 0
	}
	return w.sum / float64(w.samples)
}

func (w *WaveSpeed) Reset() {
	w.prev = 0
	w.havePrev = false
	w.sum = 0
	w.samples = 0
}

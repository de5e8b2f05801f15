package experiment

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/san-kum/heatsim/internal/comm"
	"github.com/san-kum/heatsim/internal/config"
	"github.com/san-kum/heatsim/internal/dynamo"
	"github.com/san-kum/heatsim/internal/integrators"
	"github.com/san-kum/heatsim/internal/metrics"
	"github.com/san-kum/heatsim/internal/physics"
	"github.com/san-kum/heatsim/internal/storage"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

// smallConfig is an inert 20-cell slab heated by a constant flux on the left.
func smallConfig(procs, steps int) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Name = "test"
	cfg.Domain.Cells = 20
	cfg.Domain.Processes = procs
	cfg.Time.TotalTime = nil
	cfg.Time.TotalSteps = &steps
	cfg.Time.Outputs = 5
	cfg.Boundaries[dynamo.LeftEnergy] = dynamo.BoundarySpec{Kind: dynamo.FixedFlux, Values: []float64{1e6}}
	cfg.Boundaries[dynamo.RightEnergy] = dynamo.BoundarySpec{Kind: dynamo.FixedFlux, Values: []float64{0}}
	return cfg
}

func ignitionConfig(procs int, collectives string) *config.Config {
	cfg := config.GetPreset("ignition")
	steps := 60
	cfg.Domain.Cells = 20
	cfg.Domain.Processes = procs
	cfg.Time.TotalTime = nil
	cfg.Time.TotalSteps = &steps
	cfg.Time.Collectives = collectives
	return cfg
}

func run(cfg *config.Config, opts Options) (*Result, error) {
	if opts.Logger == nil {
		opts.Logger = quiet
	}
	exp, err := New(cfg, opts)
	Expect(err).NotTo(HaveOccurred())
	return exp.Run(context.Background())
}

func expectProfilesClose(got, want []float64) {
	Expect(got).To(HaveLen(len(want)))
	for i := range want {
		Expect(got[i]).To(BeNumerically("~", want[i], 1e-9*math.Abs(want[i])))
	}
}

var _ = Describe("Experiment", func() {
	Describe("energy accounting", func() {
		It("adds exactly the boundary flux to the total energy", func() {
			cfg := smallConfig(3, 40)
			res, err := run(cfg, Options{})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Steps).To(Equal(40))

			e0 := cfg.Material.Rho * cfg.Material.Cp * cfg.Initial.Temperature * cfg.Domain.Length
			last := res.History[len(res.History)-1]
			Expect(last.Energy).To(BeNumerically("~", e0+1e6*res.Time, 1e-9*e0))
		})

		It("gives the same solution for any number of workers", func() {
			single, err := run(smallConfig(1, 40), Options{})
			Expect(err).NotTo(HaveOccurred())

			for _, procs := range []int{2, 4, 7} {
				split, err := run(smallConfig(procs, 40), Options{})
				Expect(err).NotTo(HaveOccurred())
				Expect(split.Time).To(Equal(single.Time))
				expectProfilesClose(split.T, single.T)
			}
		})

		It("conserves energy across workers with two-stage splitting", func() {
			strang := func(procs int) *config.Config {
				cfg := smallConfig(procs, 40)
				cfg.Time.Scheme = dynamo.StrangSplit
				return cfg
			}
			single, err := run(strang(1), Options{})
			Expect(err).NotTo(HaveOccurred())
			split, err := run(strang(3), Options{})
			Expect(err).NotTo(HaveOccurred())

			cfg := strang(1)
			e0 := cfg.Material.Rho * cfg.Material.Cp * cfg.Initial.Temperature * cfg.Domain.Length
			for _, res := range []*Result{single, split} {
				last := res.History[len(res.History)-1]
				Expect(last.Energy).To(BeNumerically("~", e0+1e6*res.Time, 1e-9*e0))
			}
			Expect(split.Time).To(Equal(single.Time))
			expectProfilesClose(split.T, single.T)
		})
	})

	Describe("collective modes", func() {
		It("produces identical trajectories batched and separate", func() {
			batched, err := run(ignitionConfig(4, config.CollectivesBatched), Options{})
			Expect(err).NotTo(HaveOccurred())
			separate, err := run(ignitionConfig(4, config.CollectivesSeparate), Options{})
			Expect(err).NotTo(HaveOccurred())

			Expect(separate.Steps).To(Equal(batched.Steps))
			Expect(separate.T).To(Equal(batched.T))
			Expect(separate.Eta).To(Equal(batched.Eta))
			Expect(separate.Ignited).To(Equal(batched.Ignited))
			if batched.Ignited {
				Expect(separate.IgnitionTime).To(Equal(batched.IgnitionTime))
			}
		})
	})

	Describe("ignition", func() {
		var cfg *config.Config

		BeforeEach(func() {
			cfg = smallConfig(2, 10)
			cfg.Sources.Kinetics = true
			cfg.Sources.A0 = 0
			cfg.Ignition.Criterion = dynamo.Temperature
			cfg.Ignition.Threshold = 350
			cfg.Boundaries[dynamo.LeftEnergy] = dynamo.BoundarySpec{Kind: dynamo.FixedValue, Values: []float64{600}}
		})

		It("latches after the first step that starts above the threshold", func() {
			res, err := run(cfg, Options{})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Ignited).To(BeTrue())
			// Step 1 starts at 300 K and only ends with the heated cell at
			// 600 K; step 2 starts above the threshold.
			Expect(res.History[0].Ignited).To(BeFalse())
			Expect(res.History[1].Ignited).To(BeTrue())
			Expect(res.IgnitionTime).To(Equal(res.History[1].Time))

			seen := false
			for _, s := range res.History {
				if seen {
					Expect(s.Ignited).To(BeTrue())
				}
				seen = seen || s.Ignited
			}
		})

		It("swaps the left boundary for the right one once ignited", func() {
			res, err := run(cfg, Options{})
			Expect(err).NotTo(HaveOccurred())
			// Left face became adiabatic: the heated cell cools by conduction.
			Expect(res.T[0]).To(BeNumerically("<", 600))
		})

		It("adopts the global flag on every rank once ignited", func() {
			parts, err := comm.Decompose(4, 1)
			Expect(err).NotTo(HaveOccurred())
			group, err := comm.NewGroup(1)
			Expect(err).NotTo(HaveOccurred())
			bcs := physics.NewBoundaries(cfg.Boundaries, true, true)
			w := &worker{
				part:     parts[0],
				comm:     group.Comm(0),
				field:    dynamo.NewField(4, false),
				stepper:  integrators.NewStepper(integrators.StepperConfig{}, &physics.Material{}, nil, bcs),
				detector: metrics.IgnitionDetector{Active: true, Threshold: 0.5},
				override: integrators.Override{ID: dynamo.LeftEnergy, Spec: cfg.Boundaries[dynamo.RightEnergy]},
			}

			Expect(w.ignite(dynamo.Unignited)).To(Succeed())
			Expect(w.ign).To(Equal(dynamo.Ignited))

			agg, err := w.synchronize(1)
			Expect(err).NotTo(HaveOccurred())
			Expect(agg.AllIgnited).To(Equal(dynamo.Ignited))
			Expect(bcs.Spec(dynamo.LeftEnergy).Kind).To(Equal(dynamo.FixedFlux))
		})

		It("never ignites without kinetics", func() {
			cfg.Sources.Kinetics = false
			res, err := run(cfg, Options{})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Ignited).To(BeFalse())
			Expect(math.IsNaN(res.IgnitionTime)).To(BeTrue())
		})
	})

	Describe("halting", func() {
		It("stops on energy divergence with a simulation error", func() {
			cfg := smallConfig(2, 10)
			cfg.Boundaries[dynamo.LeftEnergy] = dynamo.BoundarySpec{Kind: dynamo.FixedValue, Values: []float64{-100}}

			res, err := run(cfg, Options{})
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, dynamo.ErrEnergyDivergence)).To(BeTrue())

			var simErr *dynamo.SimulationError
			Expect(errors.As(err, &simErr)).To(BeTrue())
			Expect(simErr.Code).To(Equal(dynamo.EnergyDivergence))

			Expect(res).NotTo(BeNil())
			Expect(res.Code).To(Equal(dynamo.EnergyDivergence))
			Expect(res.Steps).To(Equal(1))
		})

		It("refuses to start with a cancelled context", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			exp, err := New(smallConfig(3, 10), Options{Logger: quiet})
			Expect(err).NotTo(HaveOccurred())
			_, err = exp.Run(ctx)
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
		})

		It("aborts every worker when cancelled mid-run", func() {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			exp, err := New(smallConfig(3, 10_000_000), Options{
				Logger:    quiet,
				Observers: []Observer{ObserverFunc(func(Frame) { cancel() })},
			})
			Expect(err).NotTo(HaveOccurred())
			_, err = exp.Run(ctx)
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
		})
	})

	Describe("persistence", func() {
		var st *storage.Store

		BeforeEach(func() {
			st = storage.New(GinkgoT().TempDir())
		})

		It("writes snapshots on schedule and restarts from them", func() {
			var frames int
			res, err := run(smallConfig(2, 10), Options{
				Store:     st,
				Observers: []Observer{ObserverFunc(func(Frame) { frames++ })},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.RunID).NotTo(BeEmpty())

			tags, err := st.Tags(res.RunID)
			Expect(err).NotTo(HaveOccurred())
			Expect(tags).To(HaveLen(6))
			Expect(frames).To(Equal(6))

			history, err := st.LoadHistory(res.RunID)
			Expect(err).NotTo(HaveOccurred())
			Expect(history).To(HaveLen(10))

			meta, err := st.Load(res.RunID)
			Expect(err).NotTo(HaveOccurred())
			Expect(meta.Steps).To(Equal(10))
			Expect(meta.Code).To(Equal("ok"))

			restart := smallConfig(2, 1)
			restart.Initial.Restart = &config.RestartConfig{Run: res.RunID}
			next, err := run(restart, Options{Store: st})
			Expect(err).NotTo(HaveOccurred())
			Expect(next.Time).To(BeNumerically(">", res.Time))
			Expect(next.T[0]).To(BeNumerically(">", res.T[0]))
		})

		It("requires a store to restart", func() {
			cfg := smallConfig(1, 1)
			cfg.Initial.Restart = &config.RestartConfig{Run: "missing"}
			_, err := New(cfg, Options{})
			Expect(err).To(MatchError(ErrRestartNeedsStore))
		})
	})

	Describe("metrics export", func() {
		It("counts steps in the registry", func() {
			reg := prometheus.NewRegistry()
			res, err := run(smallConfig(2, 7), Options{Registerer: reg})
			Expect(err).NotTo(HaveOccurred())

			families, err := reg.Gather()
			Expect(err).NotTo(HaveOccurred())
			var steps float64
			for _, mf := range families {
				if mf.GetName() == "heatsim_steps_total" {
					steps = mf.GetMetric()[0].GetCounter().GetValue()
				}
			}
			Expect(steps).To(Equal(float64(res.Steps)))
		})
	})
})

package taylor_test

import (
	"context"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/taylorsim/internal/dynamo"
	"github.com/san-kum/taylorsim/internal/systems"
	"github.com/san-kum/taylorsim/internal/taylor"
)

var _ = Describe("PropagateUntil and PropagateFor", func() {
	It("lands the pendulum exactly on t = 20", func() {
		ta := newPendulum()
		p := systems.NewPendulum()
		e0 := p.Energy(ta.State())

		res, err := ta.PropagateUntil(20, taylor.PropagateOptions{})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Outcome).To(Equal(taylor.TimeLimit))
		Expect(ta.Time()).To(Equal(20.0))
		Expect(res.Steps).To(BeNumerically(">", 1))
		Expect(res.MinH).To(BeNumerically("<=", res.MaxH))
		Expect(p.Energy(ta.State())).To(BeNumerically("~", e0, 1e-13))
	})

	It("does nothing when already at the target", func() {
		ta := newPendulum()
		x0 := ta.State().Clone()

		res, err := ta.PropagateUntil(0, taylor.PropagateOptions{})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Outcome).To(Equal(taylor.TimeLimit))
		Expect(res.Steps).To(Equal(0))
		Expect(math.IsInf(res.MinH, 1)).To(BeTrue())
		Expect(res.MaxH).To(Equal(0.0))
		Expect([]float64(ta.State())).To(Equal([]float64(x0)))
	})

	It("stops with cb_stop on the third callback", func() {
		ta := newPendulum()
		calls := 0
		res, err := ta.PropagateFor(100, taylor.PropagateOptions{
			Callback: func(*taylor.Integrator) bool {
				calls++
				return calls < 3
			},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Outcome).To(Equal(taylor.CbStop))
		Expect(res.Steps).To(Equal(3))
		Expect(calls).To(Equal(3))
		Expect(ta.Time()).To(BeNumerically("<", 100))
	})

	It("returns to the starting time after forward and backward runs", func() {
		ta := newPendulum(taylor.WithTime(0.3))
		x0 := ta.State().Clone()

		res, err := ta.PropagateFor(10, taylor.PropagateOptions{})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Outcome).To(Equal(taylor.TimeLimit))

		res, err = ta.PropagateFor(-10, taylor.PropagateOptions{})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Outcome).To(Equal(taylor.TimeLimit))
		Expect(ta.Time()).To(Equal(0.3))
		Expect(ta.State()[0]).To(BeNumerically("~", x0[0], 1e-12))
		Expect(ta.State()[1]).To(BeNumerically("~", x0[1], 1e-12))
	})

	It("honours max_delta_t on every step", func() {
		ta := newPendulum()
		res, err := ta.PropagateUntil(1, taylor.PropagateOptions{MaxDeltaT: 0.01})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Outcome).To(Equal(taylor.TimeLimit))
		Expect(res.MaxH).To(BeNumerically("<=", 0.01))
		Expect(res.Steps).To(BeNumerically(">=", 100))
		Expect(ta.Time()).To(Equal(1.0))
	})

	It("stops with step_limit after max_steps", func() {
		ta := newPendulum()
		res, err := ta.PropagateUntil(100, taylor.PropagateOptions{MaxSteps: 2})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Outcome).To(Equal(taylor.StepLimit))
		Expect(res.Steps).To(Equal(2))
	})

	It("lets callbacks modify the state between steps", func() {
		ta := newPendulum()
		_, err := ta.PropagateUntil(1, taylor.PropagateOptions{
			Callback: func(ta *taylor.Integrator) bool {
				ta.State()[0], ta.State()[1] = 0, 0
				return true
			},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(ta.State()[0]).To(Equal(0.0))
		Expect(ta.Time()).To(Equal(1.0))
	})

	DescribeTable("rejects malformed requests",
		func(run func(*taylor.Integrator) error, want error) {
			ta := newPendulum()
			err := run(ta)
			Expect(errors.Is(err, want)).To(BeTrue(), "got %v", err)
			Expect(ta.Time()).To(Equal(0.0))
		},
		Entry("NaN target", func(ta *taylor.Integrator) error {
			_, err := ta.PropagateUntil(math.NaN(), taylor.PropagateOptions{})
			return err
		}, dynamo.ErrInvalidTime),
		Entry("infinite duration", func(ta *taylor.Integrator) error {
			_, err := ta.PropagateFor(math.Inf(-1), taylor.PropagateOptions{})
			return err
		}, dynamo.ErrInvalidTime),
		Entry("negative max_delta_t", func(ta *taylor.Integrator) error {
			_, err := ta.PropagateUntil(1, taylor.PropagateOptions{MaxDeltaT: -1})
			return err
		}, dynamo.ErrInvalidStep),
		Entry("negative max_steps", func(ta *taylor.Integrator) error {
			_, err := ta.PropagateUntil(1, taylor.PropagateOptions{MaxSteps: -1})
			return err
		}, dynamo.ErrInvalidStep),
		Entry("empty grid", func(ta *taylor.Integrator) error {
			_, err := ta.PropagateGrid(nil, taylor.PropagateOptions{})
			return err
		}, dynamo.ErrInvalidGrid),
		Entry("non-monotonic grid", func(ta *taylor.Integrator) error {
			_, err := ta.PropagateGrid([]float64{0, 1, 1, 2}, taylor.PropagateOptions{})
			return err
		}, dynamo.ErrInvalidGrid),
		Entry("non-finite grid", func(ta *taylor.Integrator) error {
			_, err := ta.PropagateGrid([]float64{0, math.Inf(1)}, taylor.PropagateOptions{})
			return err
		}, dynamo.ErrInvalidGrid),
	)
})

var _ = Describe("PropagateGrid", func() {
	It("matches propagate_until at every grid point", func() {
		grid := floats.Span(make([]float64, 101), 0, 10)
		ta := newPendulum()

		res, err := ta.PropagateGrid(grid, taylor.PropagateOptions{})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Outcome).To(Equal(taylor.TimeLimit))
		Expect(ta.Time()).To(Equal(grid[100]))
		// Many grid points per adaptive step.
		Expect(res.Steps).To(BeNumerically("<", 50))

		rows, cols := res.States.Dims()
		Expect(rows).To(Equal(101))
		Expect(cols).To(Equal(2))

		ref := newPendulum()
		for i, t := range grid {
			_, err := ref.PropagateUntil(t, taylor.PropagateOptions{})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.States.At(i, 0)).To(BeNumerically("~", ref.State()[0], 1e-12), "row %d", i)
			Expect(res.States.At(i, 1)).To(BeNumerically("~", ref.State()[1], 1e-12), "row %d", i)
		}
	})

	It("runs backward over a decreasing grid", func() {
		ta := newPendulum()
		res, err := ta.PropagateGrid([]float64{0, -0.5, -1, -1.5}, taylor.PropagateOptions{})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Outcome).To(Equal(taylor.TimeLimit))
		Expect(ta.Time()).To(Equal(-1.5))
		Expect(res.States.At(3, 0)).To(Equal(ta.State()[0]))
	})

	It("first propagates to the start of the grid", func() {
		ta := newPendulum()
		res, err := ta.PropagateGrid([]float64{1, 2, 3}, taylor.PropagateOptions{})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Outcome).To(Equal(taylor.TimeLimit))

		ref := newPendulum()
		pre, err := ref.PropagateUntil(1, taylor.PropagateOptions{})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Steps).To(BeNumerically(">", pre.Steps))
		Expect(res.States.At(0, 0)).To(Equal(ref.State()[0]))
	})

	It("leaves unreached rows as NaN", func() {
		ta := newPendulum(taylor.WithTerminalEvents(taylor.TerminalEvent{Eq: coord(0)}))
		grid := floats.Span(make([]float64, 21), 0, 2)

		res, err := ta.PropagateGrid(grid, taylor.PropagateOptions{})
		Expect(err).NotTo(HaveOccurred())
		idx, stopped, ok := res.Outcome.Event()
		Expect(ok && stopped).To(BeTrue())
		Expect(idx).To(Equal(0))

		last := res.States.RawRowView(len(grid) - 1)
		Expect(math.IsNaN(last[0])).To(BeTrue())
		Expect(math.IsNaN(res.States.At(0, 0))).To(BeFalse())
	})

	It("counts steps towards max_steps across the whole grid", func() {
		ta := newPendulum()
		res, err := ta.PropagateGrid([]float64{5, 6, 7}, taylor.PropagateOptions{MaxSteps: 3})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Outcome).To(Equal(taylor.StepLimit))
		Expect(res.Steps).To(Equal(3))
		Expect(math.IsNaN(res.States.At(2, 0))).To(BeTrue())
	})
})

var _ = Describe("Ensembles", func() {
	It("propagates independent copies concurrently", func() {
		base, err := taylor.New(systems.NewOscillator(), dynamo.State{1, 0})
		Expect(err).NotTo(HaveOccurred())

		gen := func(ta *taylor.Integrator, i int) *taylor.Integrator {
			ta.State()[0] = float64(i + 1)
			return ta
		}
		results, err := taylor.EnsemblePropagateUntil(context.Background(), base, 2*math.Pi, 8, gen, taylor.PropagateOptions{})
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(8))

		for i, r := range results {
			Expect(r.Err).NotTo(HaveOccurred())
			Expect(r.Result.Outcome).To(Equal(taylor.TimeLimit))
			Expect(r.Integrator.Time()).To(Equal(2 * math.Pi))
			Expect(r.Integrator.State()[0]).To(BeNumerically("~", float64(i+1), 1e-12))
		}
		Expect(base.Time()).To(Equal(0.0))
		Expect(base.State()[0]).To(Equal(1.0))
	})

	It("fills grid states per member", func() {
		base := newPendulum()
		results, err := taylor.EnsemblePropagateGrid(context.Background(), base, []float64{0, 1, 2}, 3, nil, taylor.PropagateOptions{})
		Expect(err).NotTo(HaveOccurred())
		for _, r := range results {
			Expect(r.States).NotTo(BeNil())
			Expect(r.States.At(2, 0)).To(Equal(results[0].States.At(2, 0)))
		}
	})

	It("stops members when the context is cancelled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := taylor.EnsemblePropagateFor(ctx, newPendulum(), 10, 4, nil, taylor.PropagateOptions{})
		Expect(errors.Is(err, context.Canceled)).To(BeTrue())
	})
})

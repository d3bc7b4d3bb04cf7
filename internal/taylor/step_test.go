package taylor_test

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/taylorsim/internal/dynamo"
	"github.com/san-kum/taylorsim/internal/taylor"
)

var _ = Describe("Integrator construction", func() {
	It("derives order 20 from the default tolerance", func() {
		ta := newPendulum()
		Expect(ta.Order()).To(Equal(20))
		Expect(ta.Tol()).To(Equal(taylor.DefaultTolerance))
		Expect(ta.Dim()).To(Equal(2))
		Expect(ta.Time()).To(Equal(0.0))
	})

	It("lets an explicit order override the tolerance", func() {
		ta := newPendulum(taylor.WithTolerance(1e-6), taylor.WithOrder(12))
		Expect(ta.Order()).To(Equal(12))
	})

	It("copies the initial state", func() {
		x0 := dynamo.State{0.05, 0.025}
		ta, err := taylor.New(constantDrift, x0[:1])
		Expect(err).NotTo(HaveOccurred())
		x0[0] = 7
		Expect(ta.State()[0]).To(Equal(0.05))
	})

	DescribeTable("rejects malformed input",
		func(x0 dynamo.State, want error, opt taylor.Option) {
			_, err := taylor.New(constantDrift, x0, opt)
			Expect(errors.Is(err, want)).To(BeTrue(), "got %v", err)
			var ue *dynamo.UsageError
			Expect(errors.As(err, &ue)).To(BeTrue())
			Expect(ue.Op).To(Equal("new"))
		},
		Entry("dimension mismatch", dynamo.State{1, 2}, dynamo.ErrDimensionMismatch, taylor.WithTime(0)),
		Entry("NaN state", dynamo.State{math.NaN()}, dynamo.ErrInvalidState, taylor.WithTime(0)),
		Entry("infinite time", dynamo.State{0}, dynamo.ErrInvalidTime, taylor.WithTime(math.Inf(1))),
		Entry("zero tolerance", dynamo.State{0}, dynamo.ErrInvalidTolerance, taylor.WithTolerance(0)),
		Entry("order below 2", dynamo.State{0}, dynamo.ErrInvalidOrder, taylor.WithOrder(1)),
		Entry("NaN parameter", dynamo.State{0}, dynamo.ErrParameterBounds, taylor.WithPars(1, math.NaN())),
		Entry("event without equation", dynamo.State{0}, dynamo.ErrInvalidState,
			taylor.WithTerminalEvents(taylor.TerminalEvent{})),
	)
})

var _ = Describe("Single steps", func() {
	It("takes a natural forward step", func() {
		ta := newPendulum()
		out, h := ta.Step()
		Expect(out).To(Equal(taylor.Success))
		Expect(h).To(BeNumerically(">", 0.01))
		Expect(ta.Time()).To(Equal(h))
		Expect(ta.LastH()).To(Equal(h))
	})

	It("takes a natural backward step", func() {
		ta := newPendulum()
		out, h := ta.StepBackward()
		Expect(out).To(Equal(taylor.Success))
		Expect(h).To(BeNumerically("<", 0))
		Expect(ta.Time()).To(Equal(h))
	})

	It("clamps to max_delta_t and reports time_limit", func() {
		ta := newPendulum()
		out, h, err := ta.StepLimited(0.01)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal(taylor.TimeLimit))
		Expect(h).To(Equal(0.01))
		Expect(ta.Time()).To(Equal(0.01))
	})

	It("steps backward when max_delta_t is negative", func() {
		ta := newPendulum()
		out, h, err := ta.StepLimited(-0.01)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal(taylor.TimeLimit))
		Expect(h).To(Equal(-0.01))
	})

	It("returns success when the natural step is below the cap", func() {
		ta := newPendulum()
		out, h, err := ta.StepLimited(1000)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal(taylor.Success))
		Expect(h).To(BeNumerically("<", 1000))
	})

	It("rejects a zero or NaN cap", func() {
		ta := newPendulum()
		_, _, err := ta.StepLimited(0)
		Expect(errors.Is(err, dynamo.ErrInvalidStep)).To(BeTrue())
		_, _, err = ta.StepLimited(math.NaN())
		Expect(errors.Is(err, dynamo.ErrInvalidStep)).To(BeTrue())
		Expect(ta.Time()).To(Equal(0.0))
	})

	Context("with a polynomial solution", func() {
		It("refuses an unbounded natural step", func() {
			ta, err := taylor.New(constantDrift, dynamo.State{0})
			Expect(err).NotTo(HaveOccurred())

			out, h := ta.Step()
			Expect(out).To(Equal(taylor.ErrNFState))
			Expect(math.IsInf(h, 1)).To(BeTrue())
			Expect(ta.Time()).To(Equal(0.0))
			Expect(ta.State()[0]).To(Equal(0.0))
		})

		It("takes the capped step exactly", func() {
			ta, err := taylor.New(constantDrift, dynamo.State{0})
			Expect(err).NotTo(HaveOccurred())

			out, h, err := ta.StepLimited(0.5)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal(taylor.TimeLimit))
			Expect(h).To(Equal(0.5))
			Expect(ta.State()[0]).To(Equal(0.5))

			res, err := ta.PropagateUntil(3, taylor.PropagateOptions{})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Outcome).To(Equal(taylor.TimeLimit))
			Expect(res.Steps).To(Equal(1))
			Expect(ta.State()[0]).To(BeNumerically("~", 3, 1e-15))
		})
	})

	It("keeps the last finite state when the step goes non-finite", func() {
		ta, err := taylor.New(poisonedDrift, dynamo.State{0})
		Expect(err).NotTo(HaveOccurred())

		res, err := ta.PropagateUntil(5, taylor.PropagateOptions{MaxDeltaT: 0.5})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Outcome).To(Equal(taylor.ErrNFState))
		Expect(res.Steps).To(Equal(3))
		Expect(ta.Time()).To(Equal(1.5))
		Expect(ta.State()[0]).To(Equal(1.5))
	})

	It("exposes dense output over the last step", func() {
		ta := newPendulum()
		_, err := ta.UpdateDenseOutput(0, false)
		Expect(errors.Is(err, dynamo.ErrInvalidTime)).To(BeTrue())

		x0 := ta.State().Clone()
		_, h := ta.Step()

		start, err := ta.UpdateDenseOutput(0, true)
		Expect(err).NotTo(HaveOccurred())
		Expect(start[0]).To(BeNumerically("~", x0[0], 1e-15))
		Expect(start[1]).To(BeNumerically("~", x0[1], 1e-15))

		end, err := ta.UpdateDenseOutput(h, false)
		Expect(err).NotTo(HaveOccurred())
		Expect(end[0]).To(Equal(ta.State()[0]))
		Expect(end[1]).To(Equal(ta.State()[1]))

		tc := ta.TC()
		Expect(tc).To(HaveLen(2))
		Expect(tc[0]).To(HaveLen(ta.Order() + 1))
		Expect(tc[0][0]).To(Equal(x0[0]))
	})

	It("copies independently", func() {
		ta := newPendulum()
		c := ta.Copy()
		c.Step()
		Expect(ta.Time()).To(Equal(0.0))
		Expect(ta.State()[0]).To(Equal(0.05))
		Expect(c.Time()).To(BeNumerically(">", 0))
	})

	It("validates whole-state replacement", func() {
		ta := newPendulum()
		Expect(errors.Is(ta.SetState(dynamo.State{1}), dynamo.ErrDimensionMismatch)).To(BeTrue())
		Expect(errors.Is(ta.SetState(dynamo.State{1, math.Inf(1)}), dynamo.ErrInvalidState)).To(BeTrue())
		Expect(ta.SetState(dynamo.State{0.1, 0})).To(Succeed())
		Expect(ta.State()[0]).To(Equal(0.1))
		Expect(errors.Is(ta.SetTime(math.NaN()), dynamo.ErrInvalidTime)).To(BeTrue())
	})
})

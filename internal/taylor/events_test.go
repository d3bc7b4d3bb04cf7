package taylor_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/taylorsim/internal/dynamo"
	"github.com/san-kum/taylorsim/internal/jet"
	"github.com/san-kum/taylorsim/internal/taylor"
)

type crossing struct {
	t     float64
	dsign int
}

var _ = Describe("Events", func() {
	Context("non-terminal", func() {
		record := func(dst *[]crossing) func(*taylor.Integrator, float64, int) {
			return func(_ *taylor.Integrator, t float64, dsign int) {
				*dst = append(*dst, crossing{t, dsign})
			}
		}

		It("reports only increasing crossings with a positive filter", func() {
			var got []crossing
			ta := newOrbit(taylor.WithNonTerminalEvents(taylor.NonTerminalEvent{
				Eq:        coord(1),
				Callback:  record(&got),
				Direction: taylor.Positive,
			}))

			res, err := ta.PropagateUntil(20, taylor.PropagateOptions{})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Outcome).To(Equal(taylor.TimeLimit))

			Expect(got).To(HaveLen(4))
			for k, c := range got {
				Expect(c.dsign).To(Equal(1))
				Expect(c.t).To(BeNumerically("~", 0.5+2*math.Pi*float64(k), 1e-9))
			}
		})

		It("reports decreasing crossings with a negative filter", func() {
			var got []crossing
			ta := newOrbit(taylor.WithNonTerminalEvents(taylor.NonTerminalEvent{
				Eq:        coord(1),
				Callback:  record(&got),
				Direction: taylor.Negative,
			}))

			_, err := ta.PropagateUntil(20, taylor.PropagateOptions{})
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(HaveLen(3))
			for k, c := range got {
				Expect(c.dsign).To(Equal(-1))
				Expect(c.t).To(BeNumerically("~", 0.5+math.Pi+2*math.Pi*float64(k), 1e-9))
			}
		})

		It("reports every crossing in chronological order without a filter", func() {
			var got []crossing
			ta := newOrbit(taylor.WithNonTerminalEvents(taylor.NonTerminalEvent{
				Eq:       coord(1),
				Callback: record(&got),
			}))

			_, err := ta.PropagateUntil(20, taylor.PropagateOptions{})
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(HaveLen(7))
			for k := 1; k < len(got); k++ {
				Expect(got[k].t).To(BeNumerically(">", got[k-1].t))
				Expect(got[k].dsign).To(Equal(-got[k-1].dsign))
			}
		})

		It("finds crossings when running backward", func() {
			var got []crossing
			ta := newOrbit(taylor.WithNonTerminalEvents(taylor.NonTerminalEvent{
				Eq:        coord(1),
				Callback:  record(&got),
				Direction: taylor.Positive,
			}))

			_, err := ta.PropagateUntil(-7, taylor.PropagateOptions{})
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(HaveLen(1))
			Expect(got[0].t).To(BeNumerically("~", 0.5-2*math.Pi, 1e-9))
			Expect(got[0].dsign).To(Equal(1))
		})

		It("sees time-dependent equations", func() {
			var got []crossing
			ta := newPendulum(taylor.WithNonTerminalEvents(taylor.NonTerminalEvent{
				Eq: func(_ []jet.Series, _ []float64, t jet.Series) jet.Series {
					return jet.Shift(t, -1.25)
				},
				Callback: record(&got),
			}))

			_, err := ta.PropagateUntil(3, taylor.PropagateOptions{})
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(HaveLen(1))
			Expect(got[0].t).To(BeNumerically("~", 1.25, 1e-14))
			Expect(got[0].dsign).To(Equal(1))
		})
	})

	Context("terminal", func() {
		It("stops at the crossing with the event outcome", func() {
			ta := newPendulum(taylor.WithTerminalEvents(taylor.TerminalEvent{Eq: coord(0)}))

			res, err := ta.PropagateUntil(10, taylor.PropagateOptions{})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Outcome).To(Equal(taylor.EventStop(0)))
			Expect(res.Outcome.String()).To(Equal("event_stop(0)"))
			Expect(math.Abs(ta.State()[0])).To(BeNumerically("<", 1e-12))
			first := ta.Time()
			Expect(first).To(BeNumerically(">", 0))
			Expect(first).To(BeNumerically("<", 1))

			// The cooldown hides the root just found; the next one is half
			// a period later.
			res, err = ta.PropagateUntil(10, taylor.PropagateOptions{})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Outcome).To(Equal(taylor.EventStop(0)))
			Expect(ta.Time() - first).To(BeNumerically("~", math.Pi/math.Sqrt(9.8), 1e-2))
		})

		It("continues when the callback says so", func() {
			var dsigns []int
			ta := newOrbit(taylor.WithTerminalEvents(taylor.TerminalEvent{
				Eq: coord(1),
				Callback: func(_ *taylor.Integrator, mr bool, dsign int) bool {
					Expect(mr).To(BeFalse())
					dsigns = append(dsigns, dsign)
					return true
				},
			}))

			res, err := ta.PropagateUntil(20, taylor.PropagateOptions{})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Outcome).To(Equal(taylor.TimeLimit))
			Expect(ta.Time()).To(Equal(20.0))
			Expect(dsigns).To(Equal([]int{1, -1, 1, -1, 1, -1, 1}))
		})

		It("reports event_continue from a single step", func() {
			ta := newOrbit(taylor.WithTerminalEvents(taylor.TerminalEvent{
				Eq:       coord(1),
				Callback: func(*taylor.Integrator, bool, int) bool { return true },
			}))

			var out taylor.Outcome
			for i := 0; i < 100; i++ {
				out, _ = ta.Step()
				if out != taylor.Success {
					break
				}
			}
			Expect(out).To(Equal(taylor.EventContinue(0)))
			Expect(ta.Time()).To(BeNumerically("~", 0.5, 1e-12))
		})

		It("stops when the callback returns false", func() {
			ta := newOrbit(taylor.WithTerminalEvents(
				taylor.TerminalEvent{Eq: coord(0), Direction: taylor.Positive},
				taylor.TerminalEvent{
					Eq:        coord(1),
					Direction: taylor.Negative,
					Callback:  func(*taylor.Integrator, bool, int) bool { return false },
				},
			))

			res, err := ta.PropagateUntil(20, taylor.PropagateOptions{})
			Expect(err).NotTo(HaveOccurred())
			// y falls through zero at 0.5+pi, before x rises through zero
			// at 0.5+3pi/2.
			Expect(res.Outcome).To(Equal(taylor.EventStop(1)))
			Expect(ta.Time()).To(BeNumerically("~", 0.5+math.Pi, 1e-9))
		})

		It("fires earlier non-terminal events first and drops later ones", func() {
			var order []string
			ta := newOrbit(
				taylor.WithNonTerminalEvents(taylor.NonTerminalEvent{
					Eq: coord(1),
					Callback: func(*taylor.Integrator, float64, int) {
						order = append(order, "y")
					},
				}),
				taylor.WithTerminalEvents(taylor.TerminalEvent{
					Eq: coord(0),
					Callback: func(*taylor.Integrator, bool, int) bool {
						order = append(order, "x")
						return false
					},
				}),
			)

			_, err := ta.PropagateUntil(20, taylor.PropagateOptions{})
			Expect(err).NotTo(HaveOccurred())
			// x = cos(t - 0.5) first vanishes at 0.5 + pi/2, after y at 0.5.
			Expect(order).To(Equal([]string{"y", "x"}))
			Expect(ta.Time()).To(BeNumerically("~", 0.5+math.Pi/2, 1e-9))
		})
	})

	It("separates two crossings closer than the sampling grid", func() {
		var got []crossing
		ta, err := taylor.New(constantDrift, dynamo.State{0},
			taylor.WithNonTerminalEvents(taylor.NonTerminalEvent{
				// (x - 0.52)(x - 0.5201) dips below zero for 1e-4 time units.
				Eq: func(x []jet.Series, _ []float64, _ jet.Series) jet.Series {
					return jet.Mul(jet.Shift(x[0], -0.52), jet.Shift(x[0], -0.5201))
				},
				Callback: func(_ *taylor.Integrator, t float64, dsign int) {
					got = append(got, crossing{t, dsign})
				},
			}))
		Expect(err).NotTo(HaveOccurred())

		out, _, err := ta.StepLimited(1)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal(taylor.TimeLimit))

		Expect(got).To(HaveLen(2))
		Expect(got[0].t).To(BeNumerically("~", 0.52, 1e-12))
		Expect(got[0].dsign).To(Equal(-1))
		Expect(got[1].t).To(BeNumerically("~", 0.5201, 1e-12))
		Expect(got[1].dsign).To(Equal(1))
	})

	It("ignores a tangency", func() {
		fired := 0
		ta, err := taylor.New(constantDrift, dynamo.State{0},
			taylor.WithNonTerminalEvents(taylor.NonTerminalEvent{
				Eq: func(x []jet.Series, _ []float64, _ jet.Series) jet.Series {
					return jet.Square(jet.Shift(x[0], -0.3))
				},
				Callback: func(*taylor.Integrator, float64, int) { fired++ },
			}))
		Expect(err).NotTo(HaveOccurred())

		_, _, err = ta.StepLimited(1)
		Expect(err).NotTo(HaveOccurred())
		Expect(fired).To(BeZero())
	})
})

package taylor_test

import (
	"encoding/json"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/taylorsim/internal/dynamo"
	"github.com/san-kum/taylorsim/internal/taylor"
)

var _ = Describe("Snapshots", func() {
	It("resumes a propagation bit for bit after a JSON round trip", func() {
		ta := newPendulum()
		_, err := ta.PropagateUntil(5, taylor.PropagateOptions{})
		Expect(err).NotTo(HaveOccurred())

		data, err := json.Marshal(ta.Snapshot())
		Expect(err).NotTo(HaveOccurred())
		var snap taylor.Snapshot
		Expect(json.Unmarshal(data, &snap)).To(Succeed())
		Expect(snap.Time()).To(Equal(5.0))

		resumed := newPendulum()
		Expect(resumed.Restore(snap)).To(Succeed())
		Expect(resumed.Time()).To(Equal(ta.Time()))
		Expect(resumed.TC()).To(BeNil())

		_, err = ta.PropagateUntil(10, taylor.PropagateOptions{})
		Expect(err).NotTo(HaveOccurred())
		_, err = resumed.PropagateUntil(10, taylor.PropagateOptions{})
		Expect(err).NotTo(HaveOccurred())
		Expect(resumed.State()).To(Equal(ta.State()))
	})

	It("carries event cooldowns", func() {
		stop := taylor.TerminalEvent{
			Eq:       coord(1),
			Callback: func(*taylor.Integrator, bool, int) bool { return false },
		}
		ta := newOrbit(taylor.WithTerminalEvents(stop))
		_, err := ta.PropagateUntil(20, taylor.PropagateOptions{})
		Expect(err).NotTo(HaveOccurred())
		Expect(ta.Time()).To(BeNumerically("~", 0.5, 1e-9))

		snap := ta.Snapshot()
		Expect(snap.TerminalCooldowns).To(HaveLen(1))
		Expect(snap.TerminalCooldowns[0].Duration).To(BeNumerically(">", 0))
		Expect(snap.NonTerminalCooldowns).To(BeNil())

		resumed := newOrbit(taylor.WithTerminalEvents(stop))
		Expect(resumed.Restore(snap)).To(Succeed())
		_, err = resumed.PropagateUntil(20, taylor.PropagateOptions{})
		Expect(err).NotTo(HaveOccurred())
		Expect(resumed.Time()).To(BeNumerically("~", 0.5+math.Pi, 1e-9))
	})

	It("rejects snapshots of another shape", func() {
		ta := newPendulum()
		err := ta.Restore(taylor.Snapshot{State: []float64{1, 2, 3}})
		Expect(errors.Is(err, dynamo.ErrDimensionMismatch)).To(BeTrue())

		err = ta.Restore(taylor.Snapshot{State: []float64{math.NaN(), 0}})
		Expect(errors.Is(err, dynamo.ErrInvalidState)).To(BeTrue())

		err = ta.Restore(taylor.Snapshot{
			State:             []float64{0, 0},
			TerminalCooldowns: []taylor.CooldownSnapshot{{Duration: 1}},
		})
		Expect(errors.Is(err, dynamo.ErrDimensionMismatch)).To(BeTrue())
		Expect(ta.Time()).To(Equal(0.0))
	})
})

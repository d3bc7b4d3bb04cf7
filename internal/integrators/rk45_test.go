package integrators

import (
	"math"
	"testing"

	"github.com/san-kum/taylorsim/internal/dynamo"
	"github.com/san-kum/taylorsim/internal/systems"
)

func TestRK45_AdaptiveStep(t *testing.T) {
	integrator := NewRK45()
	sys := systems.NewOscillator()
	x0 := dynamo.State{1.0, 0.0}

	x, ratio, newDt := integrator.StepAdaptive(sys, x0, nil, 0, 0.1, 1e-8)

	if !x.IsValid() {
		t.Error("StepAdaptive produced invalid state")
	}
	if ratio < 0 || math.IsNaN(ratio) {
		t.Errorf("StepAdaptive returned invalid error ratio: %v", ratio)
	}
	if newDt <= 0 {
		t.Errorf("StepAdaptive returned invalid dt: %f", newDt)
	}
}

func TestRK45_EnergyConservation(t *testing.T) {
	sys := systems.NewOscillator()
	x0 := dynamo.State{1.0, 0.0}
	initialEnergy := sys.Energy(x0)

	x, stats, err := NewRK45().Integrate(sys, x0, nil, 0, 100, 1e-10)
	if err != nil {
		t.Fatal(err)
	}

	drift := math.Abs(sys.Energy(x)-initialEnergy) / initialEnergy
	if drift > 1e-6 {
		t.Errorf("RK45 energy drift too high: %e", drift)
	}
	if stats.Accepted == 0 || stats.MinH > stats.MaxH {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestRK45_Backward(t *testing.T) {
	sys := systems.NewOscillator()
	x, _, err := NewRK45().Integrate(sys, dynamo.State{1, 0}, nil, 0, -2, 1e-10)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(x[0]-math.Cos(2)) > 1e-7 {
		t.Errorf("got %v, want %v", x[0], math.Cos(2))
	}
}

func TestRK45_VsRK4_Accuracy(t *testing.T) {
	sys := systems.NewOscillator()
	x0 := dynamo.State{1.0, 0.0}

	x4, _, err := NewRK4().Integrate(sys, x0, nil, 0, 10, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	x45, _, err := NewRK45().Integrate(sys, x0, nil, 0, 10, 1e-10)
	if err != nil {
		t.Fatal(err)
	}

	t.Logf("RK4 final: [%.6f, %.6f]", x4[0], x4[1])
	t.Logf("RK45 final: [%.6f, %.6f]", x45[0], x45[1])

	if math.Abs(x45[0]-math.Cos(10)) > math.Abs(x4[0]-math.Cos(10)) {
		t.Log("Warning: RK45 not more accurate than RK4 for this case")
	}
}

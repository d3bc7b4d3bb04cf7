package systems

import (
	"fmt"
	"sort"

	"github.com/san-kum/taylorsim/internal/dynamo"
	"github.com/san-kum/taylorsim/internal/jet"
)

// Model is a system with a sensible starting point.
type Model interface {
	jet.System
	DefaultState() dynamo.State
}

var constructors = map[string]func() Model{
	"pendulum":   func() Model { return NewPendulum() },
	"oscillator": func() Model { return NewOscillator() },
	"kepler":     func() Model { return NewKepler() },
	"lorenz":     func() Model { return NewLorenz() },
	"vanderpol":  func() Model { return NewVanDerPol() },
	"duffing":    func() Model { return NewDuffing() },
	"threebody":  func() Model { return NewThreeBody() },
	"rossler":    func() Model { return NewRossler() },
	"doublewell": func() Model { return NewDoubleWell() },
}

// Get returns a fresh instance of the named model.
func Get(name string) (Model, error) {
	fn, ok := constructors[name]
	if !ok {
		return nil, fmt.Errorf("unknown system: %s", name)
	}
	return fn(), nil
}

// Names lists the registered models in alphabetical order.
func Names() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Configure applies params to m, which must be dynamo.Configurable unless
// params is empty.
func Configure(m Model, params map[string]float64) error {
	if len(params) == 0 {
		return nil
	}
	c, ok := m.(dynamo.Configurable)
	if !ok {
		return fmt.Errorf("system has no parameters")
	}
	for name, v := range params {
		if err := c.SetParam(name, v); err != nil {
			return err
		}
	}
	return nil
}

func unknownParam(name string) error {
	return fmt.Errorf("%w: unknown param: %s", dynamo.ErrParameterBounds, name)
}

package analysis

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/taylorsim/internal/dynamo"
	"github.com/san-kum/taylorsim/internal/jet"
	"github.com/san-kum/taylorsim/internal/taylor"
)

type Point struct{ X, Y float64 }

// PhasePortrait2D holds data for a 2D phase space plot
type PhasePortrait2D struct {
	XIndex, YIndex int
	Points         []Point
}

// PhasePortraitFromStates projects a recorded trajectory.
func PhasePortraitFromStates(states []dynamo.State, xIdx, yIdx int) *PhasePortrait2D {
	portrait := &PhasePortrait2D{XIndex: xIdx, YIndex: yIdx, Points: make([]Point, 0, len(states))}
	for _, x := range states {
		if xIdx >= len(x) || yIdx >= len(x) {
			return nil
		}
		portrait.Points = append(portrait.Points, Point{x[xIdx], x[yIdx]})
	}
	return portrait
}

// GeneratePhasePortrait samples the trajectory of ta on grid using dense
// output. Rows past an early stop are dropped.
func GeneratePhasePortrait(ta *taylor.Integrator, xIdx, yIdx int, grid []float64) (*PhasePortrait2D, error) {
	if xIdx >= ta.Dim() || yIdx >= ta.Dim() {
		return nil, fmt.Errorf("phase portrait: %w: indices %d, %d", dynamo.ErrDimensionMismatch, xIdx, yIdx)
	}
	res, err := ta.PropagateGrid(grid, taylor.PropagateOptions{})
	if err != nil {
		return nil, err
	}

	portrait := &PhasePortrait2D{XIndex: xIdx, YIndex: yIdx, Points: make([]Point, 0, len(grid))}
	for i := range grid {
		x, y := res.States.At(i, xIdx), res.States.At(i, yIdx)
		if math.IsNaN(x) || math.IsNaN(y) {
			break
		}
		portrait.Points = append(portrait.Points, Point{x, y})
	}
	return portrait, nil
}

// PhasePortraitToASCII converts phase portrait to ASCII art
func PhasePortraitToASCII(portrait *PhasePortrait2D, width, height int) string {
	if portrait == nil || len(portrait.Points) == 0 {
		return ""
	}

	minX, maxX := portrait.Points[0].X, portrait.Points[0].X
	minY, maxY := portrait.Points[0].Y, portrait.Points[0].Y
	for _, p := range portrait.Points {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}

	// 10% padding on each side
	rangeX, rangeY := maxX-minX, maxY-minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	minY -= rangeY * 0.1
	rangeX *= 1.2
	rangeY *= 1.2

	toCell := func(x, y float64) (row, col int) {
		col = int((x - minX) / rangeX * float64(width-1))
		row = height - 1 - int((y-minY)/rangeY*float64(height-1))
		return row, col
	}

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}

	// Axes first so the curve draws over them.
	zr, zc := toCell(0, 0)
	rowIn, colIn := zr >= 0 && zr < height, zc >= 0 && zc < width
	for row := 0; colIn && row < height; row++ {
		canvas[row][zc] = '│'
	}
	for col := 0; rowIn && col < width; col++ {
		canvas[zr][col] = '─'
	}
	if rowIn && colIn {
		canvas[zr][zc] = '┼'
	}

	for _, p := range portrait.Points {
		row, col := toCell(p.X, p.Y)
		if row >= 0 && row < height && col >= 0 && col < width {
			canvas[row][col] = '•'
		}
	}

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}

// PoincareSection records points where a trajectory crosses a plane.
type PoincareSection struct {
	Points []Point
	Times  []float64
}

// GeneratePoincareSection propagates sys from x0 for duration and records
// (x[recordX], x[recordY]) at every upward crossing of x[crossIdx] =
// threshold. Crossings are located by event detection and the state at the
// crossing comes from dense output.
func GeneratePoincareSection(
	sys jet.System,
	x0 dynamo.State,
	crossIdx int,
	threshold float64,
	recordX, recordY int,
	duration float64,
	opts ...taylor.Option,
) (*PoincareSection, error) {
	n := sys.Dim()
	if crossIdx >= n || recordX >= n || recordY >= n {
		return nil, fmt.Errorf("poincare: %w: index out of range for dimension %d", dynamo.ErrDimensionMismatch, n)
	}

	section := &PoincareSection{}
	var cbErr error
	ev := taylor.NonTerminalEvent{
		Eq: func(x []jet.Series, _ []float64, _ jet.Series) jet.Series {
			return jet.Shift(x[crossIdx], -threshold)
		},
		Direction: taylor.Positive,
		Callback: func(ta *taylor.Integrator, t float64, _ int) {
			x, err := ta.UpdateDenseOutput(t, false)
			if err != nil {
				cbErr = err
				return
			}
			section.Points = append(section.Points, Point{x[recordX], x[recordY]})
			section.Times = append(section.Times, t)
		},
	}

	ta, err := taylor.New(sys, x0, append(opts, taylor.WithNonTerminalEvents(ev))...)
	if err != nil {
		return nil, err
	}
	if _, err := ta.PropagateFor(duration, taylor.PropagateOptions{}); err != nil {
		return nil, err
	}
	return section, cbErr
}

// PoincareSectionToASCII converts section data to ASCII plot
func PoincareSectionToASCII(section *PoincareSection, width, height int) string {
	if section == nil || len(section.Points) == 0 {
		return "No crossings detected"
	}
	return PhasePortraitToASCII(&PhasePortrait2D{Points: section.Points}, width, height)
}

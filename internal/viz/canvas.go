package viz

import (
	"strings"
)

// Braille cells are 2x4 dots:
// 1 4
// 2 5
// 3 6
// 7 8
const brailleBase = 0x2800

var pixelMap = [4][2]rune{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

// Canvas is a character grid addressed in braille sub-pixels: a canvas of
// Width x Height cells has 2*Width x 4*Height pixels.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{Width: w, Height: h, Grid: make([][]rune, h)}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

func (c *Canvas) cell(x, y int) (row, col int, ok bool) {
	if x < 0 || y < 0 {
		return 0, 0, false
	}
	row, col = y/4, x/2
	return row, col, col < c.Width && row < c.Height
}

// Set turns on the pixel at (x, y).
func (c *Canvas) Set(x, y int) {
	if row, col, ok := c.cell(x, y); ok {
		c.Grid[row][col] |= pixelMap[y%4][x%2]
	}
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = brailleBase
		}
	}
}

// DrawLine uses Bresenham's algorithm.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx, dy := absInt(x1-x0), absInt(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx - dy
	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// Bounds maps world coordinates onto a canvas, y pointing up.
type Bounds struct {
	MinX, MaxX, MinY, MaxY float64
}

// Fit returns bounds covering every (xs[i], ys[i]) with 10% padding.
func Fit(xs, ys []float64) Bounds {
	if len(xs) == 0 {
		return Bounds{-1, 1, -1, 1}
	}
	b := Bounds{xs[0], xs[0], ys[0], ys[0]}
	for i := range xs {
		b.MinX, b.MaxX = min(b.MinX, xs[i]), max(b.MaxX, xs[i])
		b.MinY, b.MaxY = min(b.MinY, ys[i]), max(b.MaxY, ys[i])
	}
	padX, padY := (b.MaxX-b.MinX)*0.1, (b.MaxY-b.MinY)*0.1
	if padX == 0 {
		padX = 1
	}
	if padY == 0 {
		padY = 1
	}
	return Bounds{b.MinX - padX, b.MaxX + padX, b.MinY - padY, b.MaxY + padY}
}

// Pixel converts a world point to canvas pixel coordinates.
func (c *Canvas) Pixel(b Bounds, x, y float64) (int, int) {
	w, h := float64(2*c.Width-1), float64(4*c.Height-1)
	px := (x - b.MinX) / (b.MaxX - b.MinX) * w
	py := h - (y-b.MinY)/(b.MaxY-b.MinY)*h
	return int(px), int(py)
}

// Polyline draws the curve through (xs[i], ys[i]).
func (c *Canvas) Polyline(b Bounds, xs, ys []float64) {
	for i := range xs {
		x1, y1 := c.Pixel(b, xs[i], ys[i])
		if i == 0 {
			c.Set(x1, y1)
			continue
		}
		x0, y0 := c.Pixel(b, xs[i-1], ys[i-1])
		c.DrawLine(x0, y0, x1, y1)
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Package export renders analysis results as SVG.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/san-kum/taylorsim/internal/analysis"
)

const background = "#0a0a0a"

type frame struct {
	minX, minY, rangeX, rangeY float64
	width, height              int
}

// fit pads the bounding box of points by 10% on each side.
func fit(points []analysis.Point, width, height int) frame {
	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}
	rangeX, rangeY := maxX-minX, maxY-minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	return frame{
		minX: minX - rangeX*0.1, minY: minY - rangeY*0.1,
		rangeX: rangeX * 1.2, rangeY: rangeY * 1.2,
		width: width, height: height,
	}
}

func (f frame) project(p analysis.Point) (x, y float64) {
	x = (p.X - f.minX) / f.rangeX * float64(f.width)
	y = float64(f.height) - (p.Y-f.minY)/f.rangeY*float64(f.height)
	return x, y
}

func header(sb *strings.Builder, width, height int) {
	fmt.Fprintf(sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background)
}

// PortraitSVG draws a phase portrait as a single path.
func PortraitSVG(w io.Writer, portrait *analysis.PhasePortrait2D, width, height int, stroke string) error {
	if portrait == nil || len(portrait.Points) < 2 {
		return fmt.Errorf("export: portrait needs at least 2 points")
	}
	f := fit(portrait.Points, width, height)

	var sb strings.Builder
	header(&sb, width, height)
	fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="`, stroke)
	for i, p := range portrait.Points {
		x, y := f.project(p)
		cmd := "L"
		if i == 0 {
			cmd = "M"
		}
		fmt.Fprintf(&sb, "%s%.1f,%.1f ", cmd, x, y)
	}
	sb.WriteString("\"/>\n</svg>\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

// SectionSVG draws Poincare section points as dots.
func SectionSVG(w io.Writer, section *analysis.PoincareSection, width, height int, fill string) error {
	if section == nil || len(section.Points) == 0 {
		return fmt.Errorf("export: section has no points")
	}
	f := fit(section.Points, width, height)

	var sb strings.Builder
	header(&sb, width, height)
	fmt.Fprintf(&sb, "<g fill=\"%s\">\n", fill)
	for _, p := range section.Points {
		x, y := f.project(p)
		fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"1.5\"/>\n", x, y)
	}
	sb.WriteString("</g>\n</svg>\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

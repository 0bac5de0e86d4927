// Package export writes recordings and derived data in formats meant for
// other tools.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/san-kum/forceview/internal/forcedata"
)

// TrajectorySVG draws the center-of-force path scaled to fill a w x h
// drawing with 10% padding. The last point is marked. Fewer than two points
// give an empty string.
func TrajectorySVG(points []forcedata.Point, width, height int, stroke string) string {
	if len(points) < 2 {
		return ""
	}

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
	minX -= rangeX * 0.1
	minY -= rangeY * 0.1
	rangeX *= 1.2
	rangeY *= 1.2

	project := func(p forcedata.Point) (float64, float64) {
		x := (p.X - minX) / rangeX * float64(width)
		y := float64(height) - (p.Y-minY)/rangeY*float64(height)
		return x, y
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#d2d2d2"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, stroke)

	for i, p := range points {
		x, y := project(p)
		if i == 0 {
			fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}
	sb.WriteString(`"/>` + "\n")

	x, y := project(points[len(points)-1])
	fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="4" fill="%s"/>`+"\n", x, y, stroke)
	sb.WriteString("</svg>")
	return sb.String()
}

// WriteTrajectorySVG writes TrajectorySVG for every point of src.
func WriteTrajectorySVG(w io.Writer, src forcedata.Source, width, height int, stroke string) error {
	times := src.Timestamps()
	if len(times) == 0 {
		return forcedata.ErrNoData
	}
	svg := TrajectorySVG(src.CenterOfForceUpTo(times[len(times)-1]), width, height, stroke)
	if svg == "" {
		return fmt.Errorf("center of force: %w", forcedata.ErrNoData)
	}
	_, err := io.WriteString(w, svg)
	return err
}

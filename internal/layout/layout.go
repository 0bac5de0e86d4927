// Package layout places tooth cells and bar bases along a parabolic dental
// arch. Coordinates are world units, x grows to the patient's left.
package layout

import (
	"math"

	"github.com/san-kum/forceview/internal/forcedata"
)

const (
	GridArchWidth = 16.0
	GridArchDepth = 10.0
	BarArchWidth  = 14.0
	BarArchDepth  = 8.0

	// Extra room below the arch for the left/right aggregate bars.
	GridBottomPad = 3.0
)

type Cell struct {
	ToothID int
	Center  forcedata.Point
	Width   float64
	Height  float64
}

// Min returns the lower-left corner.
func (c Cell) Min() forcedata.Point {
	return forcedata.Point{X: c.Center.X - c.Width/2, Y: c.Center.Y - c.Height/2}
}

// Max returns the upper-right corner.
func (c Cell) Max() forcedata.Point {
	return forcedata.Point{X: c.Center.X + c.Width/2, Y: c.Center.Y + c.Height/2}
}

// Base is the floor position of one tooth's bar. Bars stand on z = 0.
type Base struct {
	ToothID int
	X, Y    float64
}

type Rect struct {
	MinX, MinY, MaxX, MaxY float64
}

func (r Rect) Dx() float64 { return r.MaxX - r.MinX }
func (r Rect) Dy() float64 { return r.MaxY - r.MinY }

func (r Rect) Center() forcedata.Point {
	return forcedata.Point{X: (r.MinX + r.MaxX) / 2, Y: (r.MinY + r.MaxY) / 2}
}

// ArchPositions spaces n points evenly in x across width and lifts them onto
// y = depth - k*x^2, so the ends of the arch sit at y = 0.
func ArchPositions(n int, width, depth float64) []forcedata.Point {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []forcedata.Point{{X: 0, Y: depth}}
	}
	k := 0.0
	if width != 0 {
		k = depth / math.Pow(width/2, 2)
	}
	out := make([]forcedata.Point, n)
	step := width / float64(n-1)
	for i := range out {
		x := -width/2 + float64(i)*step
		out[i] = forcedata.Point{X: x, Y: depth - k*x*x}
	}
	return out
}

// ArchCells lays out one cell per tooth. Cells toward the back of the arch
// are wider and shorter, front cells narrower and taller.
func ArchCells(toothIDs []int, width, depth float64) []Cell {
	n := len(toothIDs)
	if n == 0 {
		return nil
	}
	cw, cd := width*0.80, depth*0.70
	centers := ArchPositions(n, cw, cd)

	var baseW, baseH float64
	if n > 1 {
		// Points are evenly spaced, so the mean gap is the step.
		baseW = cw / float64(n-1) * 0.90
		baseH = baseW * 1.1
	} else {
		baseW = width * 0.15
		baseH = depth * 0.15
	}
	baseW = math.Max(0.7, baseW)
	baseH = math.Max(0.9, baseH)

	cells := make([]Cell, n)
	for i, id := range toothIDs {
		c := centers[i]
		normX := 0.0
		if cw > 0 {
			normX = math.Abs(c.X) / (cw / 2)
		}
		ws, hs := scaleFor(normX)
		cells[i] = Cell{
			ToothID: id,
			Center:  c,
			Width:   math.Max(0.6, baseW*ws),
			Height:  math.Max(0.8, baseH*hs),
		}
	}
	return cells
}

func scaleFor(normX float64) (w, h float64) {
	switch {
	case normX > 0.75:
		return 1.35, 0.85
	case normX > 0.50:
		return 1.1, 1.0
	case normX < 0.10:
		return 0.70, 1.20
	case normX < 0.35:
		return 0.85, 1.10
	}
	return 1, 1
}

// BarBases places bar feet on the arch shifted back by 80% of its depth.
func BarBases(toothIDs []int, width, depth float64) []Base {
	pts := ArchPositions(len(toothIDs), width, depth)
	out := make([]Base, len(pts))
	for i, p := range pts {
		out[i] = Base{ToothID: toothIDs[i], X: p.X, Y: p.Y - depth*0.8}
	}
	return out
}

func Centers(cells []Cell) map[int]forcedata.Point {
	out := make(map[int]forcedata.Point, len(cells))
	for _, c := range cells {
		out[c.ToothID] = c.Center
	}
	return out
}

// Bounds returns the rectangle enclosing every cell, extended bottomPad below
// the lowest cell.
func Bounds(cells []Cell, bottomPad float64) Rect {
	if len(cells) == 0 {
		return Rect{MinX: -10, MinY: -10, MaxX: 10, MaxY: 10}
	}
	r := Rect{
		MinX: math.Inf(1), MinY: math.Inf(1),
		MaxX: math.Inf(-1), MaxY: math.Inf(-1),
	}
	for _, c := range cells {
		lo, hi := c.Min(), c.Max()
		r.MinX = math.Min(r.MinX, lo.X)
		r.MinY = math.Min(r.MinY, lo.Y)
		r.MaxX = math.Max(r.MaxX, hi.X)
		r.MaxY = math.Max(r.MaxY, hi.Y)
	}
	r.MinY -= bottomPad
	return r
}

// LowestEdge is the smallest y of any cell's bottom edge.
func LowestEdge(cells []Cell) float64 {
	y := math.Inf(1)
	for _, c := range cells {
		y = math.Min(y, c.Min().Y)
	}
	if math.IsInf(y, 1) {
		return 0
	}
	return y
}

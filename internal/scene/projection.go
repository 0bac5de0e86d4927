package scene

import "math"

// Projection maps world coordinates into a w x h pixel image. Larger depth is
// farther from the viewer.
type Projection interface {
	Project(p Vec3, w, h int) (x, y, depth float64, ok bool)
}

// Ortho is a parallel projection looking down -z. Scale is half of the
// visible world extent along the image's shorter side.
type Ortho struct {
	CenterX, CenterY float64
	Scale            float64
}

// FitOrtho frames the world rectangle with 15% padding.
func FitOrtho(minX, minY, maxX, maxY float64) Ortho {
	vw := (maxX - minX) * 1.15
	vh := (maxY - minY) * 1.15
	scale := math.Max(math.Max(vw, vh), 1) / 2
	return Ortho{
		CenterX: (minX + maxX) / 2,
		CenterY: (minY + maxY) / 2,
		Scale:   math.Max(0.1, scale),
	}
}

func (o Ortho) pixelsPerUnit(w, h int) float64 {
	return float64(min(w, h)) / (2 * o.Scale)
}

func (o Ortho) Project(p Vec3, w, h int) (float64, float64, float64, bool) {
	ppu := o.pixelsPerUnit(w, h)
	x := float64(w)/2 + (p.X-o.CenterX)*ppu
	y := float64(h)/2 - (p.Y-o.CenterY)*ppu
	return x, y, -p.Z, true
}

// Camera is a perspective camera described by position, focal point and
// view-up. Reset restores the view it was created with.
type Camera struct {
	Position   Vec3
	FocalPoint Vec3
	ViewUp     Vec3
	ViewAngle  float64 // vertical, degrees
	Near       float64

	initPos, initFocal, initUp Vec3
}

func NewCamera(position, focal, up Vec3) *Camera {
	return &Camera{
		Position:   position,
		FocalPoint: focal,
		ViewUp:     up,
		ViewAngle:  30,
		Near:       0.1,
		initPos:    position,
		initFocal:  focal,
		initUp:     up,
	}
}

func (c *Camera) Reset() {
	c.Position, c.FocalPoint, c.ViewUp = c.initPos, c.initFocal, c.initUp
}

// Azimuth orbits the camera around the focal point about the world z axis.
func (c *Camera) Azimuth(deg float64) {
	a := deg * math.Pi / 180
	ca, sa := math.Cos(a), math.Sin(a)
	rel := c.Position.Sub(c.FocalPoint)
	rel.X, rel.Y = rel.X*ca-rel.Y*sa, rel.X*sa+rel.Y*ca
	c.Position = c.FocalPoint.Add(rel)
	up := c.ViewUp
	up.X, up.Y = up.X*ca-up.Y*sa, up.X*sa+up.Y*ca
	c.ViewUp = up
}

// Dolly moves toward the focal point by factor (>1 moves closer).
func (c *Camera) Dolly(factor float64) {
	if factor <= 0 {
		return
	}
	rel := c.Position.Sub(c.FocalPoint).Scale(1 / factor)
	if rel.Length() < c.Near*2 {
		return
	}
	c.Position = c.FocalPoint.Add(rel)
}

func (c *Camera) basis() (right, up, forward Vec3) {
	forward = c.FocalPoint.Sub(c.Position).Normalize()
	right = forward.Cross(c.ViewUp).Normalize()
	up = right.Cross(forward)
	return right, up, forward
}

func (c *Camera) Project(p Vec3, w, h int) (float64, float64, float64, bool) {
	right, up, forward := c.basis()
	d := p.Sub(c.Position)
	z := d.Dot(forward)
	if z <= c.Near {
		return 0, 0, z, false
	}
	f := float64(h) / 2 / math.Tan(c.ViewAngle*math.Pi/360)
	x := float64(w)/2 + d.Dot(right)*f/z
	y := float64(h)/2 - d.Dot(up)*f/z
	return x, y, z, true
}

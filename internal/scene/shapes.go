package scene

import (
	"image"
	"image/color"
	"math"
	"sort"
)

// Shape is the geometry behind an Actor.
type Shape interface {
	depth(proj Projection, w, h int) float64
	draw(r *raster, proj Projection) image.Rectangle
}

func project(proj Projection, r *raster, p Vec3) (pt, float64, bool) {
	b := r.dst.Bounds()
	x, y, d, ok := proj.Project(p, b.Dx(), b.Dy())
	return pt{x + float64(b.Min.X), y + float64(b.Min.Y)}, d, ok
}

func depthOf(proj Projection, w, h int, pts ...Vec3) float64 {
	sum, n := 0.0, 0
	for _, p := range pts {
		if _, _, d, ok := proj.Project(p, w, h); ok {
			sum += d
			n++
		}
	}
	if n == 0 {
		return math.Inf(1)
	}
	return sum / float64(n)
}

// Rect is an axis-aligned rectangle in the plane z = Z.
type Rect struct {
	X0, Y0, X1, Y1, Z float64
	Fill              color.Color
	Stroke            color.Color
	StrokeWidth       float64
}

func (s *Rect) corners() []Vec3 {
	return []Vec3{{s.X0, s.Y0, s.Z}, {s.X1, s.Y0, s.Z}, {s.X1, s.Y1, s.Z}, {s.X0, s.Y1, s.Z}}
}

func (s *Rect) depth(proj Projection, w, h int) float64 {
	return depthOf(proj, w, h, s.corners()...)
}

func (s *Rect) draw(r *raster, proj Projection) image.Rectangle {
	pts := make([]pt, 0, 4)
	for _, c := range s.corners() {
		p, _, ok := project(proj, r, c)
		if !ok {
			return image.Rectangle{}
		}
		pts = append(pts, p)
	}
	var b image.Rectangle
	if s.Fill != nil {
		b = b.Union(r.fill([][]pt{pts}, s.Fill))
	}
	if s.Stroke != nil {
		b = b.Union(r.stroke(pts, math.Max(1, s.StrokeWidth), s.Stroke, true))
	}
	return b
}

// Quad is a rectangle shaded by interpolating four corner values through a
// colormap. It assumes a parallel projection looking down z.
type Quad struct {
	X0, Y0, X1, Y1, Z float64
	// Values at bottom-left, bottom-right, top-left, top-right.
	Values [4]float64
	Max    float64
	Map    Colormap
	Alpha  float64
}

func (s *Quad) depth(proj Projection, w, h int) float64 {
	return depthOf(proj, w, h, Vec3{s.X0, s.Y0, s.Z}, Vec3{s.X1, s.Y1, s.Z})
}

func (s *Quad) draw(r *raster, proj Projection) image.Rectangle {
	bl, _, ok1 := project(proj, r, Vec3{s.X0, s.Y0, s.Z})
	tr, _, ok2 := project(proj, r, Vec3{s.X1, s.Y1, s.Z})
	if !ok1 || !ok2 || bl.X == tr.X || bl.Y == tr.Y {
		return image.Rectangle{}
	}
	area := image.Rect(
		int(math.Round(math.Min(bl.X, tr.X))), int(math.Round(math.Min(bl.Y, tr.Y))),
		int(math.Round(math.Max(bl.X, tr.X))), int(math.Round(math.Max(bl.Y, tr.Y))),
	)
	clip := area.Intersect(r.dst.Bounds())
	m := s.Map
	if m == nil {
		m = Heat
	}
	alpha := uint8(math.Round(math.Max(0, math.Min(1, s.Alpha)) * 255))
	for py := clip.Min.Y; py < clip.Max.Y; py++ {
		v := (bl.Y - (float64(py) + 0.5)) / (bl.Y - tr.Y)
		v = math.Max(0, math.Min(1, v))
		for px := clip.Min.X; px < clip.Max.X; px++ {
			u := (float64(px) + 0.5 - bl.X) / (tr.X - bl.X)
			u = math.Max(0, math.Min(1, u))
			val := (1-u)*(1-v)*s.Values[0] + u*(1-v)*s.Values[1] + (1-u)*v*s.Values[2] + u*v*s.Values[3]
			n := 0.0
			if s.Max > 0 {
				n = val / s.Max
			}
			c := m.At(n)
			c.A = alpha
			r.blend(px, py, c)
		}
	}
	return clip
}

type Polyline struct {
	Points []Vec3
	Color  color.Color
	Width  float64
	Closed bool
}

func (s *Polyline) depth(proj Projection, w, h int) float64 {
	return depthOf(proj, w, h, s.Points...)
}

func (s *Polyline) draw(r *raster, proj Projection) image.Rectangle {
	pts := make([]pt, 0, len(s.Points))
	for _, p := range s.Points {
		q, _, ok := project(proj, r, p)
		if ok {
			pts = append(pts, q)
		}
	}
	return r.stroke(pts, math.Max(1, s.Width), s.Color, s.Closed)
}

// Disc is a filled circle with a world-space radius, facing the viewer.
type Disc struct {
	Center Vec3
	Radius float64
	Color  color.Color
}

func (s *Disc) depth(proj Projection, w, h int) float64 {
	return depthOf(proj, w, h, s.Center)
}

func (s *Disc) draw(r *raster, proj Projection) image.Rectangle {
	c, _, ok := project(proj, r, s.Center)
	if !ok {
		return image.Rectangle{}
	}
	e, _, ok := project(proj, r, s.Center.Add(Vec3{X: s.Radius}))
	rad := 2.0
	if ok {
		rad = math.Max(rad, math.Hypot(e.X-c.X, e.Y-c.Y))
	}
	return r.fill([][]pt{circle(c.X, c.Y, rad)}, s.Color)
}

// Box is an upright cuboid standing on Base (bottom face center).
type Box struct {
	Base         Vec3
	SizeX, SizeY float64
	Height       float64
	Color        color.NRGBA
	Outline      color.Color
	OutlineWidth float64
}

func (s *Box) vertices() [8]Vec3 {
	hx, hy := s.SizeX/2, s.SizeY/2
	b := s.Base
	top := b.Z + s.Height
	return [8]Vec3{
		{b.X - hx, b.Y - hy, b.Z}, {b.X + hx, b.Y - hy, b.Z}, {b.X + hx, b.Y + hy, b.Z}, {b.X - hx, b.Y + hy, b.Z},
		{b.X - hx, b.Y - hy, top}, {b.X + hx, b.Y - hy, top}, {b.X + hx, b.Y + hy, top}, {b.X - hx, b.Y + hy, top},
	}
}

var boxFaces = [5]struct {
	idx   [4]int
	shade float64
}{
	{[4]int{4, 5, 6, 7}, 1.0},  // top
	{[4]int{0, 1, 5, 4}, 0.85}, // front (-y)
	{[4]int{2, 3, 7, 6}, 0.85}, // back (+y)
	{[4]int{1, 2, 6, 5}, 0.7},  // +x
	{[4]int{3, 0, 4, 7}, 0.7},  // -x
}

func (s *Box) depth(proj Projection, w, h int) float64 {
	v := s.vertices()
	return depthOf(proj, w, h, v[:]...)
}

func (s *Box) draw(r *raster, proj Projection) image.Rectangle {
	if s.Height <= 0 {
		return image.Rectangle{}
	}
	v := s.vertices()
	var scr [8]pt
	var dep [8]float64
	for i, p := range v {
		q, d, ok := project(proj, r, p)
		if !ok {
			return image.Rectangle{}
		}
		scr[i], dep[i] = q, d
	}

	type face struct {
		pts   []pt
		depth float64
		shade float64
	}
	faces := make([]face, 0, len(boxFaces))
	for _, f := range boxFaces {
		fc := face{shade: f.shade}
		for _, i := range f.idx {
			fc.pts = append(fc.pts, scr[i])
			fc.depth += dep[i] / 4
		}
		faces = append(faces, fc)
	}
	sort.Slice(faces, func(i, j int) bool { return faces[i].depth > faces[j].depth })

	var b image.Rectangle
	for _, f := range faces {
		b = b.Union(r.fill([][]pt{f.pts}, Shade(s.Color, f.shade)))
		if s.Outline != nil {
			r.stroke(f.pts, math.Max(1, s.OutlineWidth), s.Outline, true)
		}
	}
	return b
}

// Label is text anchored at a world position.
type Label struct {
	Pos        Vec3
	Text       string
	Color      color.Color
	Background color.Color
	Scale      int
	Align      Align
}

func (s *Label) depth(proj Projection, w, h int) float64 {
	return depthOf(proj, w, h, s.Pos)
}

func (s *Label) draw(r *raster, proj Projection) image.Rectangle {
	p, _, ok := project(proj, r, s.Pos)
	if !ok {
		return image.Rectangle{}
	}
	return r.text(splitLines(s.Text), p.X, p.Y, s.Align, textColor(s.Color), s.Background, s.Scale)
}

// Overlay is text pinned to a corner of the viewport.
type Overlay struct {
	Anchor     Align
	Text       string
	Color      color.Color
	Background color.Color
	Scale      int
	Margin     int
}

func (s *Overlay) depth(Projection, int, int) float64 { return math.Inf(-1) }

func (s *Overlay) draw(r *raster, _ Projection) image.Rectangle {
	b := r.dst.Bounds()
	m := float64(s.Margin)
	x0, y0 := float64(b.Min.X), float64(b.Min.Y)
	x1, y1 := float64(b.Max.X), float64(b.Max.Y)
	var x, y float64
	switch s.Anchor {
	case AlignTopLeft:
		x, y = x0+m, y0+m
	case AlignTopRight:
		x, y = x1-m, y0+m
	case AlignBottomLeft:
		x, y = x0+m, y1-m
	case AlignBottomRight:
		x, y = x1-m, y1-m
	case AlignBottomCenter:
		x, y = (x0+x1)/2, y1-m
	default:
		x, y = (x0+x1)/2, (y0+y1)/2
	}
	return r.text(splitLines(s.Text), x, y, s.Anchor, textColor(s.Color), s.Background, s.Scale)
}

func textColor(c color.Color) color.Color {
	if c == nil {
		return color.Black
	}
	return c
}

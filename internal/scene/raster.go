package scene

import (
	"image"
	"image/color"
	"math"
	"strings"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// Align positions a text block relative to its anchor point.
type Align int

const (
	AlignCenter Align = iota
	AlignTopLeft
	AlignTopRight
	AlignBottomLeft
	AlignBottomRight
	AlignBottomCenter
)

type raster struct {
	dst *image.RGBA
	z   *vector.Rasterizer
}

func newRaster(dst *image.RGBA) *raster {
	return &raster{dst: dst, z: vector.NewRasterizer(1, 1)}
}

func boundsOf(paths [][]pt) image.Rectangle {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range paths {
		for _, q := range p {
			minX, maxX = math.Min(minX, q.X), math.Max(maxX, q.X)
			minY, maxY = math.Min(minY, q.Y), math.Max(maxY, q.Y)
		}
	}
	if math.IsInf(minX, 0) || math.IsNaN(minX+minY+maxX+maxY) {
		return image.Rectangle{}
	}
	return image.Rect(int(math.Floor(minX)), int(math.Floor(minY)), int(math.Ceil(maxX)), int(math.Ceil(maxY)))
}

// fill rasterizes closed subpaths in one pass so overlaps blend once.
func (r *raster) fill(paths [][]pt, c color.Color) image.Rectangle {
	bb := boundsOf(paths).Intersect(r.dst.Bounds())
	if bb.Empty() {
		return image.Rectangle{}
	}
	r.z.Reset(bb.Dx(), bb.Dy())
	ox, oy := float64(bb.Min.X), float64(bb.Min.Y)
	for _, p := range paths {
		if len(p) < 3 {
			continue
		}
		r.z.MoveTo(float32(p[0].X-ox), float32(p[0].Y-oy))
		for _, q := range p[1:] {
			r.z.LineTo(float32(q.X-ox), float32(q.Y-oy))
		}
		r.z.ClosePath()
	}
	r.z.Draw(r.dst, bb, image.NewUniform(c), image.Point{})
	return bb
}

// stroke draws a polyline of the given pixel width.
func (r *raster) stroke(pts []pt, width float64, c color.Color, closed bool) image.Rectangle {
	if len(pts) < 2 || width <= 0 {
		return image.Rectangle{}
	}
	n := len(pts) - 1
	if closed {
		n = len(pts)
	}
	hw := width / 2
	quads := make([][]pt, 0, n)
	for i := 0; i < n; i++ {
		a, b := pts[i], pts[(i+1)%len(pts)]
		dx, dy := b.X-a.X, b.Y-a.Y
		l := math.Hypot(dx, dy)
		if l == 0 {
			continue
		}
		// Extend each segment by half the width to close the joints.
		ux, uy := dx/l*hw, dy/l*hw
		nx, ny := -uy, ux
		a = pt{a.X - ux, a.Y - uy}
		b = pt{b.X + ux, b.Y + uy}
		quads = append(quads, []pt{
			{a.X + nx, a.Y + ny},
			{b.X + nx, b.Y + ny},
			{b.X - nx, b.Y - ny},
			{a.X - nx, a.Y - ny},
		})
	}
	return r.fill(quads, c)
}

func circle(cx, cy, radius float64) []pt {
	const segments = 24
	out := make([]pt, segments)
	for i := range out {
		a := 2 * math.Pi * float64(i) / segments
		out[i] = pt{cx + radius*math.Cos(a), cy + radius*math.Sin(a)}
	}
	return out
}

// text renders lines with the 7x13 bitmap face, magnified by scale.
func (r *raster) text(lines []string, x, y float64, align Align, fg, bg color.Color, scale int) image.Rectangle {
	if len(lines) == 0 {
		return image.Rectangle{}
	}
	if scale < 1 {
		scale = 1
	}
	face := basicfont.Face7x13
	const pad = 2

	d := font.Drawer{Face: face}
	tw := 0
	for _, l := range lines {
		tw = max(tw, d.MeasureString(l).Ceil())
	}
	th := len(lines) * face.Height

	tmp := image.NewRGBA(image.Rect(0, 0, tw+2*pad, th+2*pad))
	if bg != nil {
		xdraw.Draw(tmp, tmp.Bounds(), image.NewUniform(bg), image.Point{}, xdraw.Src)
	}
	d.Dst = tmp
	d.Src = image.NewUniform(fg)
	for i, l := range lines {
		d.Dot = fixed.P(pad, pad+face.Ascent+i*face.Height)
		d.DrawString(l)
	}

	sw, sh := tmp.Bounds().Dx()*scale, tmp.Bounds().Dy()*scale
	ox, oy := int(math.Round(x)), int(math.Round(y))
	switch align {
	case AlignCenter:
		ox, oy = ox-sw/2, oy-sh/2
	case AlignTopRight:
		ox -= sw
	case AlignBottomLeft:
		oy -= sh
	case AlignBottomRight:
		ox, oy = ox-sw, oy-sh
	case AlignBottomCenter:
		ox, oy = ox-sw/2, oy-sh
	}
	dr := image.Rect(ox, oy, ox+sw, oy+sh)
	xdraw.NearestNeighbor.Scale(r.dst, dr, tmp, tmp.Bounds(), xdraw.Over, nil)
	return dr.Intersect(r.dst.Bounds())
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// blend composites c over the pixel at (x, y).
func (r *raster) blend(x, y int, c color.NRGBA) {
	if !(image.Point{x, y}).In(r.dst.Bounds()) {
		return
	}
	i := r.dst.PixOffset(x, y)
	a := uint32(c.A)
	inv := 255 - a
	p := r.dst.Pix[i : i+4 : i+4]
	p[0] = uint8((uint32(c.R)*a + uint32(p[0])*inv) / 255)
	p[1] = uint8((uint32(c.G)*a + uint32(p[1])*inv) / 255)
	p[2] = uint8((uint32(c.B)*a + uint32(p[2])*inv) / 255)
	p[3] = uint8(a + uint32(p[3])*inv/255)
}

package panel

import (
	"fmt"
	"image"
	"image/color"

	"github.com/san-kum/forceview/internal/forcedata"
	"github.com/san-kum/forceview/internal/layout"
	"github.com/san-kum/forceview/internal/scene"
)

const (
	BarPrefix = "Bar_Tooth_"

	barBaseRadius = 0.5
	MinBarHeight  = 0.1
	MaxBarHeight  = 5.0
)

var (
	floorColor    = scene.WithAlpha(color.NRGBA{220, 220, 220, 255}, 0.4)
	archLineColor = scene.WithAlpha(color.NRGBA{105, 105, 105, 255}, 0.8)
	barLabelColor = scene.RGB(0.1, 0.1, 0.1)
)

// BarsPanel shows one upright bar per tooth on a perspective floor.
type BarsPanel struct {
	selectablePanel
	bases  []layout.Base
	camera *scene.Camera
}

func NewBars(src forcedata.Source, bases []layout.Base, opts Options) *BarsPanel {
	centerY := -layout.BarArchDepth * 0.3
	cam := scene.NewCamera(
		scene.V(0, -layout.BarArchDepth*2.5, MaxBarHeight*2.2),
		scene.V(0, centerY, MaxBarHeight/3),
		scene.V(0, 0.3, 0.7),
	)
	return &BarsPanel{
		selectablePanel: newSelectablePanel(Bars, src, opts, image.Pt(800, 600)),
		bases:           bases,
		camera:          cam,
	}
}

func (b *BarsPanel) Camera() *scene.Camera { return b.camera }

// ResetCamera restores the initial view.
func (b *BarsPanel) ResetCamera() {
	b.camera.Reset()
	b.dirty = true
}

// Orbit rotates the view around the arch.
func (b *BarsPanel) Orbit(deg float64) {
	b.camera.Azimuth(deg)
	b.dirty = true
}

// Zoom dollies the camera toward the arch; factors below 1 move away.
func (b *BarsPanel) Zoom(factor float64) {
	b.camera.Dolly(factor)
	b.dirty = true
}

func (b *BarsPanel) InitializeStatic() error {
	if b.initialized {
		return ErrAlreadyInitialized
	}
	b.initialized = true
	b.dirty = true

	var static []*scene.Actor
	static = append(static, floorGrid()...)

	if len(b.bases) > 1 {
		line := make([]scene.Vec3, len(b.bases))
		for i, p := range b.bases {
			line[i] = scene.V(p.X, p.Y, 0.01)
		}
		static = append(static, &scene.Actor{
			Name:  "ArchBase",
			Kind:  scene.Static,
			Shape: &scene.Polyline{Points: line, Color: archLineColor, Width: 3},
		})
	}
	scale := textScale(b.opts.Size.Y)
	for _, p := range b.bases {
		static = append(static, &scene.Actor{
			Name:  fmt.Sprintf("Label_Tooth_%d", p.ToothID),
			Kind:  scene.Static,
			Layer: 1,
			Shape: &scene.Label{
				Pos:   scene.V(p.X, p.Y-barBaseRadius*1.5, 0),
				Text:  fmt.Sprint(p.ToothID),
				Color: barLabelColor,
				Scale: scale,
				Align: scene.AlignCenter,
			},
		})
	}
	for _, a := range static {
		if _, err := b.scene.Add(a); err != nil {
			return err
		}
	}
	return nil
}

func floorGrid() []*scene.Actor {
	const res = 10
	sx, sy := layout.BarArchWidth*1.5, layout.BarArchDepth*1.8
	cy := -layout.BarArchDepth * 0.3
	x0, y0 := -sx/2, cy-sy/2

	out := make([]*scene.Actor, 0, 2*(res+1))
	for i := 0; i <= res; i++ {
		x := x0 + sx*float64(i)/res
		y := y0 + sy*float64(i)/res
		out = append(out,
			&scene.Actor{
				Name:  fmt.Sprintf("FloorX_%d", i),
				Kind:  scene.Static,
				Layer: -1,
				Shape: &scene.Polyline{Points: []scene.Vec3{{X: x, Y: y0, Z: -0.05}, {X: x, Y: y0 + sy, Z: -0.05}}, Color: floorColor, Width: 1},
			},
			&scene.Actor{
				Name:  fmt.Sprintf("FloorY_%d", i),
				Kind:  scene.Static,
				Layer: -1,
				Shape: &scene.Polyline{Points: []scene.Vec3{{X: x0, Y: y, Z: -0.05}, {X: x0 + sx, Y: y, Z: -0.05}}, Color: floorColor, Width: 1},
			},
		)
	}
	return out
}

// BarHeight maps a tooth force to bar height. Forces below ForceEpsilon
// produce no bar.
func BarHeight(f, fmax float64) float64 {
	if f < ForceEpsilon {
		return 0
	}
	return MinBarHeight + Normalize(f, fmax)*(MaxBarHeight-MinBarHeight)
}

func (b *BarsPanel) RenderAt(t float64) {
	b.current, b.rendered = t, true
	b.dirty = true

	t = forcedata.Resolve(b.src, t)
	totals := forcedata.ToothTotals(b.src.InstantaneousForces(t))
	dynamic := []*scene.Actor{{
		Name:  "Time",
		Kind:  scene.Dynamic,
		Layer: 2,
		Shape: &scene.Overlay{
			Anchor:     scene.AlignBottomRight,
			Text:       fmt.Sprintf("Time: %.1fs", t),
			Background: timeBackground,
			Scale:      textScale(b.opts.Size.Y),
			Margin:     4,
		},
	}}

	for _, p := range b.bases {
		f := totals[p.ToothID]
		h := BarHeight(f, b.fmax)
		if h <= 1e-4 {
			continue
		}
		box := &scene.Box{
			Base:   scene.V(p.X, p.Y, 0),
			SizeX:  barBaseRadius * 1.7,
			SizeY:  barBaseRadius * 1.7,
			Height: h,
			Color:  scene.WithAlpha(BandColor(Normalize(f, b.fmax)), 0.92),
		}
		if b.selection.Valid && b.selection.Tooth == p.ToothID {
			box.Outline, box.OutlineWidth = selectColor, 3
		}
		dynamic = append(dynamic, &scene.Actor{
			Name:     fmt.Sprintf("%s%d", BarPrefix, p.ToothID),
			Kind:     scene.Dynamic,
			Pickable: true,
			Shape:    box,
		})
	}

	if _, err := b.scene.ReplaceDynamic(dynamic); err != nil {
		b.logger.Error("replace dynamic actors", "t", t, "err", err)
	}
}

// HandleSelection toggles the selected tooth. The bar outline is a dynamic
// actor and shows on the next RenderAt.
func (b *BarsPanel) HandleSelection(sel Selection) {
	prev := b.selection
	b.toggle(sel)
	if prev != b.selection {
		b.dirty = true
	}
}

func (b *BarsPanel) CaptureImage() (*image.RGBA, error) {
	if b.opts.Size.X <= 0 || b.opts.Size.Y <= 0 {
		return nil, ErrNoImage
	}
	return b.rasterize(b.camera), nil
}

func (b *BarsPanel) Pick(p image.Point) (string, bool) {
	b.rasterize(b.camera)
	return b.scene.Pick(p)
}

func (b *BarsPanel) ParseElement(name string) (int, error) {
	return parseToothName(name, BarPrefix)
}

package panel

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/san-kum/forceview/internal/forcedata"
	"github.com/san-kum/forceview/internal/layout"
	"github.com/san-kum/forceview/internal/scene"
)

const (
	OutlinePrefix = "Outline_Tooth_"
	HeatmapPrefix = "Heatmap_Tooth_"

	NoGridData = "No Grid Data Available"
)

var (
	outlineColor     = scene.WithAlpha(scene.RGB(0.3, 0.3, 0.3), 0.8)
	toothLabelColor  = scene.RGB(0.05, 0.05, 0.3)
	percentPlate     = scene.WithAlpha(scene.RGB(0.95, 0.95, 0.85), 0.75)
	leftBarColor     = scene.WithAlpha(color.NRGBA{0, 128, 0, 255}, 0.85)
	rightBarColor    = scene.WithAlpha(color.NRGBA{255, 0, 0, 255}, 0.85)
	trajectoryColor  = scene.WithAlpha(scene.RGB(0.8, 0.1, 0.8), 0.6)
	cofMarkerColor   = scene.WithAlpha(color.NRGBA{139, 0, 0, 255}, 0.9)
)

const (
	sideBarMaxHeight = 0.8
	sideBarMinHeight = 0.02
)

// GridPanel is the top-down arch heatmap with per-tooth percentages,
// left/right balance bars and the center-of-force trail.
type GridPanel struct {
	selectablePanel
	cells    []layout.Cell
	proj     scene.Ortho
	outlines map[int]*scene.Actor
}

func NewGrid(src forcedata.Source, cells []layout.Cell, opts Options) *GridPanel {
	g := &GridPanel{
		selectablePanel: newSelectablePanel(Grid, src, opts, image.Pt(800, 600)),
		cells:           cells,
		outlines:        make(map[int]*scene.Actor, len(cells)),
	}
	b := layout.Bounds(cells, layout.GridBottomPad)
	g.proj = scene.FitOrtho(b.MinX, b.MinY, b.MaxX, b.MaxY)
	return g
}

func (g *GridPanel) Projection() scene.Ortho { return g.proj }

func (g *GridPanel) InitializeStatic() error {
	if g.initialized {
		return ErrAlreadyInitialized
	}
	g.initialized = true
	g.dirty = true

	if len(g.cells) == 0 {
		_, err := g.scene.Add(&scene.Actor{
			Name:  "NoData",
			Kind:  scene.Static,
			Layer: 2,
			Shape: &scene.Overlay{
				Anchor: scene.AlignCenter,
				Text:   NoGridData,
				Scale:  textScale(g.opts.Size.Y) + 1,
			},
		})
		return err
	}

	scale := textScale(g.opts.Size.Y)
	for _, c := range g.cells {
		lo, hi := c.Min(), c.Max()
		outline := &scene.Actor{
			Name:     fmt.Sprintf("%s%d", OutlinePrefix, c.ToothID),
			Kind:     scene.Static,
			Pickable: true,
			Shape: &scene.Rect{
				X0: lo.X, Y0: lo.Y, X1: hi.X, Y1: hi.Y,
				Stroke:      outlineColor,
				StrokeWidth: 1,
			},
		}
		label := &scene.Actor{
			Name: fmt.Sprintf("Label_Tooth_%d", c.ToothID),
			Kind: scene.Static,
			Shape: &scene.Label{
				Pos:   scene.V(c.Center.X, hi.Y+0.2, 0.12),
				Text:  fmt.Sprint(c.ToothID),
				Color: toothLabelColor,
				Scale: scale,
			},
		}
		for _, a := range []*scene.Actor{outline, label} {
			if _, err := g.scene.Add(a); err != nil {
				return err
			}
		}
		g.outlines[c.ToothID] = outline
	}
	return nil
}

func (g *GridPanel) RenderAt(t float64) {
	g.current, g.rendered = t, true
	g.dirty = true

	if len(g.cells) == 0 {
		g.scene.ReplaceDynamic(nil)
		return
	}

	g.restyleOutlines()
	actors, err := g.scene.ReplaceDynamic(g.buildDynamic(forcedata.Resolve(g.src, t)))
	if err != nil {
		g.logger.Error("replace dynamic actors", "t", t, "err", err)
		return
	}
	g.logger.Debug("rendered", "t", t, "dynamic", len(actors))
}

func (g *GridPanel) restyleOutlines() {
	for id, a := range g.outlines {
		r := a.Shape.(*scene.Rect)
		if g.selection.Valid && g.selection.Tooth == id {
			r.Stroke, r.StrokeWidth = selectColor, 3
		} else {
			r.Stroke, r.StrokeWidth = outlineColor, 1
		}
	}
}

func (g *GridPanel) buildDynamic(t float64) []*scene.Actor {
	scale := textScale(g.opts.Size.Y)
	forces := g.src.InstantaneousForces(t)

	sensorForces := make([]float64, 0, len(forces))
	for _, f := range forces {
		sensorForces = append(sensorForces, f)
	}
	total := PositiveTotal(sensorForces)
	toothTotals := forcedata.ToothTotals(forces)

	out := []*scene.Actor{{
		Name:  "Time",
		Kind:  scene.Dynamic,
		Layer: 2,
		Shape: &scene.Overlay{
			Anchor:     scene.AlignBottomLeft,
			Text:       fmt.Sprintf("Time: %.1fs", t),
			Background: timeBackground,
			Scale:      scale,
			Margin:     4,
		},
	}}

	centersX := make(map[int]float64, len(g.cells))
	for _, c := range g.cells {
		centersX[c.ToothID] = c.Center.X
		out = append(out, g.heatmap(c, forces))
		out = append(out, g.percentLabel(c, Percentage(toothTotals[c.ToothID], total), scale)...)
	}

	left, right := SideTotals(centersX, toothTotals)
	out = append(out, g.sideBars(Percentage(left, total), Percentage(right, total), scale)...)
	out = append(out, g.trajectory(t)...)
	return out
}

func (g *GridPanel) heatmap(c layout.Cell, forces map[forcedata.Key]float64) *scene.Actor {
	sensors := g.src.SensorIDs(c.ToothID)
	var vals [4]float64
	if len(sensors) == 4 {
		// Sensors in id order sit top-left, top-right, bottom-left, bottom-right.
		tl := forces[forcedata.Key{Tooth: c.ToothID, Sensor: sensors[0]}]
		tr := forces[forcedata.Key{Tooth: c.ToothID, Sensor: sensors[1]}]
		bl := forces[forcedata.Key{Tooth: c.ToothID, Sensor: sensors[2]}]
		br := forces[forcedata.Key{Tooth: c.ToothID, Sensor: sensors[3]}]
		vals = [4]float64{bl, br, tl, tr}
	} else if len(sensors) > 0 {
		sum := 0.0
		for _, s := range sensors {
			sum += forces[forcedata.Key{Tooth: c.ToothID, Sensor: s}]
		}
		mean := sum / float64(len(sensors))
		vals = [4]float64{mean, mean, mean, mean}
	}

	alpha := 0.75
	if g.selection.Valid && g.selection.Tooth == c.ToothID {
		alpha = 1
	}
	w, h := c.Width*0.96, c.Height*0.96
	return &scene.Actor{
		Name:     fmt.Sprintf("%s%d", HeatmapPrefix, c.ToothID),
		Kind:     scene.Dynamic,
		Pickable: true,
		Shape: &scene.Quad{
			X0: c.Center.X - w/2, Y0: c.Center.Y - h/2,
			X1: c.Center.X + w/2, Y1: c.Center.Y + h/2,
			Z:      0.05,
			Values: vals,
			Max:    g.fmax,
			Map:    scene.Heat,
			Alpha:  alpha,
		},
	}
}

func (g *GridPanel) percentLabel(c layout.Cell, perc float64, scale int) []*scene.Actor {
	text := FormatPercent(perc)
	x, y := c.Center.X, c.Center.Y-c.Height*0.70

	ts := math.Max(0.20, math.Min(c.Height*0.20, 0.45))
	bw := math.Max(c.Width*0.25, ts*float64(len(text))*0.5)
	bh := math.Max(c.Height*0.15, ts)
	return []*scene.Actor{
		{
			Name: fmt.Sprintf("PercentBg_Tooth_%d", c.ToothID),
			Kind: scene.Dynamic,
			Shape: &scene.Rect{
				X0: x - bw/2, Y0: y - bh/2, X1: x + bw/2, Y1: y + bh/2, Z: 0.14,
				Fill: percentPlate,
			},
		},
		{
			Name: fmt.Sprintf("Percent_Tooth_%d", c.ToothID),
			Kind: scene.Dynamic,
			Shape: &scene.Label{
				Pos:   scene.V(x, y, 0.16),
				Text:  text,
				Color: color.Black,
				Scale: scale,
			},
		},
	}
}

// sideBars draws the Left and Right aggregate bars under the arch.
func (g *GridPanel) sideBars(percLeft, percRight float64, scale int) []*scene.Actor {
	baseY := layout.LowestEdge(g.cells) - 1.8
	width := layout.GridArchWidth * 0.30

	bar := func(side string, cx, perc float64, fill color.Color) []*scene.Actor {
		h := math.Max(sideBarMinHeight, perc/100*sideBarMaxHeight)
		out := []*scene.Actor{
			{
				Name: side + "Bar",
				Kind: scene.Dynamic,
				Shape: &scene.Rect{
					X0: cx - width/2, Y0: baseY, X1: cx + width/2, Y1: baseY + h, Z: 0.05,
					Fill: fill,
				},
			},
			{
				Name: side + "BarLabel",
				Kind: scene.Dynamic,
				Shape: &scene.Label{
					Pos:   scene.V(cx, baseY+h+0.20, 0.08),
					Text:  side,
					Color: color.Black,
					Scale: scale,
					Align: scene.AlignBottomCenter,
				},
			},
		}
		if h > sideBarMinHeight {
			out = append(out, &scene.Actor{
				Name: side + "BarPercent",
				Kind: scene.Dynamic,
				Shape: &scene.Label{
					Pos:   scene.V(cx, baseY+h/2, 0.07),
					Text:  fmt.Sprintf("%.0f%%", perc),
					Color: color.White,
					Scale: scale,
				},
			})
		}
		return out
	}

	out := bar("Left", -width*0.8, percLeft, leftBarColor)
	return append(out, bar("Right", width*0.8, percRight, rightBarColor)...)
}

func (g *GridPanel) trajectory(t float64) []*scene.Actor {
	pts := g.src.CenterOfForceUpTo(t)
	if len(pts) == 0 {
		return nil
	}
	var out []*scene.Actor
	if len(pts) > 1 {
		line := make([]scene.Vec3, len(pts))
		for i, p := range pts {
			line[i] = scene.V(p.X, p.Y, 0.25)
		}
		out = append(out, &scene.Actor{
			Name:  "CoFTrajectory",
			Kind:  scene.Dynamic,
			Shape: &scene.Polyline{Points: line, Color: trajectoryColor, Width: 2},
		})
	}
	last := pts[len(pts)-1]
	out = append(out, &scene.Actor{
		Name:  "CoFMarker",
		Kind:  scene.Dynamic,
		Shape: &scene.Disc{Center: scene.V(last.X, last.Y, 0.27), Radius: 0.10, Color: cofMarkerColor},
	})
	return out
}

// HandleSelection toggles the selected tooth. Outlines restyle at once; the
// heatmap emphasis follows on the next RenderAt.
func (g *GridPanel) HandleSelection(sel Selection) {
	prev := g.selection
	g.toggle(sel)
	if prev == g.selection {
		return
	}
	g.restyleOutlines()
	g.dirty = true
}

func (g *GridPanel) CaptureImage() (*image.RGBA, error) {
	if g.opts.Size.X <= 0 || g.opts.Size.Y <= 0 {
		return nil, ErrNoImage
	}
	return g.rasterize(g.proj), nil
}

func (g *GridPanel) Pick(p image.Point) (string, bool) {
	g.rasterize(g.proj)
	return g.scene.Pick(p)
}

func (g *GridPanel) ParseElement(name string) (int, error) {
	return parseToothName(name, OutlinePrefix, HeatmapPrefix)
}

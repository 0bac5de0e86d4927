package panel

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
	xdraw "golang.org/x/image/draw"

	"github.com/san-kum/forceview/internal/forcedata"
)

const (
	graphTitle   = "Bite Force Over Time"
	noToothTitle = "(No tooth selected)"
	minGraphYMax = 10.0
)

// GraphPanel plots the total force of a few teeth up to the current time.
// It has no selectable elements.
type GraphPanel struct {
	src    forcedata.Source
	size   image.Point
	dpi    int
	bg     color.Color
	logger *slog.Logger

	teeth    []int
	current  float64
	rendered bool

	img   *image.RGBA
	dirty bool
}

func NewGraph(src forcedata.Source, dpi int, opts Options) *GraphPanel {
	opts = opts.withDefaults(image.Pt(1200, 400))
	if dpi <= 0 {
		dpi = 100
	}
	return &GraphPanel{
		src:    src,
		size:   opts.Size,
		dpi:    dpi,
		bg:     opts.Background,
		logger: opts.Logger.With("panel", Graph.String()),
		dirty:  true,
	}
}

func (g *GraphPanel) ID() ID { return Graph }

func (g *GraphPanel) Size() image.Point { return g.size }

func (g *GraphPanel) InitializeStatic() error { return nil }

func (g *GraphPanel) Current() (float64, bool) { return g.current, g.rendered }

func (g *GraphPanel) RenderAt(t float64) {
	g.current, g.rendered = t, true
	g.dirty = true
}

// SetTeeth replaces the plotted teeth.
func (g *GraphPanel) SetTeeth(ids []int) {
	g.teeth = append(g.teeth[:0:0], ids...)
	g.dirty = true
}

func (g *GraphPanel) Teeth() []int { return g.teeth }

// Title is the plot title for the current tooth set.
func (g *GraphPanel) Title() string {
	if len(g.teeth) == 0 {
		return graphTitle + " " + noToothTitle
	}
	ids := make([]string, len(g.teeth))
	for i, id := range g.teeth {
		ids[i] = fmt.Sprint(id)
	}
	return fmt.Sprintf("%s (Teeth: %s)", graphTitle, strings.Join(ids, ", "))
}

// YRange is the y axis extent: the displayed teeth's full-series peak with
// a floor of 10, padded below and above.
func (g *GraphPanel) YRange() (float64, float64) {
	ymax := minGraphYMax
	for _, id := range g.teeth {
		if _, vals := g.src.ForceSeries(id); len(vals) > 0 {
			ymax = max(ymax, floats.Max(vals))
		}
	}
	return -ymax * 0.05, ymax * 1.1
}

// visiblePoints returns the tooth's samples at or before t.
func visiblePoints(times, vals []float64, t float64) plotter.XYs {
	n := sort.Search(len(times), func(i int) bool { return times[i] > t })
	pts := make(plotter.XYs, n)
	for i := 0; i < n; i++ {
		pts[i] = plotter.XY{X: times[i], Y: vals[i]}
	}
	return pts
}

func (g *GraphPanel) build() (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = g.Title()
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Force (N)"
	p.BackgroundColor = color.White
	p.Add(plotter.NewGrid())

	at := forcedata.Resolve(g.src, g.current)
	for i, id := range g.teeth {
		times, vals := g.src.ForceSeries(id)
		line, err := plotter.NewLine(visiblePoints(times, vals, at))
		if err != nil {
			return nil, fmt.Errorf("tooth %d line: %w", id, err)
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(1.5)
		if len(line.XYs) > 0 {
			p.Add(line)
		}
		p.Legend.Add(fmt.Sprintf("Tooth %d", id), line)
	}
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	ymin, ymax := g.YRange()
	if g.rendered {
		marker, err := plotter.NewLine(plotter.XYs{{X: at, Y: ymin}, {X: at, Y: ymax}})
		if err != nil {
			return nil, fmt.Errorf("time indicator: %w", err)
		}
		marker.Color = color.Gray{Y: 128}
		marker.Width = vg.Points(1)
		marker.Dashes = []vg.Length{vg.Points(1), vg.Points(3)}
		p.Add(marker)
	}

	ts := g.src.Timestamps()
	if len(ts) > 0 {
		p.X.Min, p.X.Max = ts[0], ts[len(ts)-1]
	} else {
		p.X.Min, p.X.Max = 0, 1
	}
	if p.X.Max <= p.X.Min {
		p.X.Max = p.X.Min + 1
	}
	p.Y.Min, p.Y.Max = ymin, ymax
	return p, nil
}

func (g *GraphPanel) CaptureImage() (*image.RGBA, error) {
	if g.img != nil && !g.dirty {
		return g.img, nil
	}
	if g.size.X <= 0 || g.size.Y <= 0 {
		return nil, ErrNoImage
	}
	p, err := g.build()
	if err != nil {
		g.logger.Warn("graph build failed", "err", err)
		return nil, fmt.Errorf("%w: %v", ErrNoImage, err)
	}

	dpi := float64(g.dpi)
	w := vg.Length(float64(g.size.X)/dpi) * vg.Inch
	h := vg.Length(float64(g.size.Y)/dpi) * vg.Inch
	c := vgimg.NewWith(vgimg.UseWH(w, h), vgimg.UseDPI(g.dpi), vgimg.UseBackgroundColor(g.bg))
	p.Draw(draw.New(c))

	img := image.NewRGBA(image.Rectangle{Max: g.size})
	src := c.Image()
	xdraw.Copy(img, image.Point{}, src, src.Bounds(), xdraw.Src, nil)
	g.img = img
	g.dirty = false
	return img, nil
}

// Package panel implements the force panels: the 2D arch heatmap (Grid), the
// 3D bar chart (Bars) and the force-over-time graph (Graph).
package panel

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"strconv"
	"strings"

	xdraw "golang.org/x/image/draw"

	"github.com/san-kum/forceview/internal/forcedata"
	"github.com/san-kum/forceview/internal/scene"
)

var (
	ErrAlreadyInitialized = errors.New("panel: static actors already initialized")
	ErrNoImage            = errors.New("panel: no rendered image")
	ErrBadElement         = errors.New("panel: unrecognized element name")
)

type ID int

const (
	Grid ID = iota
	Bars
	Graph
)

func (id ID) String() string {
	switch id {
	case Grid:
		return "grid"
	case Bars:
		return "bars"
	case Graph:
		return "graph"
	}
	return "panel(" + strconv.Itoa(int(id)) + ")"
}

// Renderer is one independently rendered panel.
type Renderer interface {
	ID() ID
	// Size is the panel's native resolution in pixels.
	Size() image.Point
	InitializeStatic() error
	// RenderAt replaces the panel's dynamic content for timestamp t.
	RenderAt(t float64)
	// Current reports the last timestamp rendered.
	Current() (float64, bool)
	// CaptureImage returns the panel's pixels reflecting the latest render
	// and selection. The returned image must not be modified.
	CaptureImage() (*image.RGBA, error)
}

// Selectable is a Renderer whose elements can be clicked and highlighted.
type Selectable interface {
	Renderer
	// HandleSelection updates selection state only; the caller re-renders.
	HandleSelection(sel Selection)
	Selection() Selection
	// Pick returns the element name under a panel-local pixel.
	Pick(p image.Point) (string, bool)
	// ParseElement extracts the tooth id from an element name.
	ParseElement(name string) (int, error)
}

// Selection is at most one selected tooth.
type Selection struct {
	Tooth int
	Valid bool
}

var None = Selection{}

func Select(tooth int) Selection { return Selection{Tooth: tooth, Valid: true} }

func (s Selection) String() string {
	if !s.Valid {
		return "none"
	}
	return strconv.Itoa(s.Tooth)
}

type Options struct {
	Size       image.Point
	MaxForce   float64
	Background color.Color
	Logger     *slog.Logger
}

func (o Options) withDefaults(def image.Point) Options {
	if o.Size.X <= 0 || o.Size.Y <= 0 {
		o.Size = def
	}
	if o.Background == nil {
		o.Background = color.White
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// selectablePanel holds the state shared by Grid and Bars: the owned scene,
// selection, the last timestamp and the lazily rasterized image.
type selectablePanel struct {
	id     ID
	src    forcedata.Source
	scene  *scene.Scene
	opts   Options
	fmax   float64
	logger *slog.Logger

	initialized bool
	current     float64
	rendered    bool
	selection   Selection

	img   *image.RGBA
	dirty bool
}

func newSelectablePanel(id ID, src forcedata.Source, opts Options, def image.Point) selectablePanel {
	opts = opts.withDefaults(def)
	fmax := opts.MaxForce
	if fmax <= 0 {
		fmax = src.MaxForce()
	}
	if fmax <= 0 {
		fmax = 1
	}
	return selectablePanel{
		id:     id,
		src:    src,
		scene:  scene.New(),
		opts:   opts,
		fmax:   fmax,
		logger: opts.Logger.With("panel", id.String()),
		dirty:  true,
	}
}

func (p *selectablePanel) ID() ID { return p.id }

func (p *selectablePanel) Size() image.Point { return p.opts.Size }

func (p *selectablePanel) Scene() *scene.Scene { return p.scene }

func (p *selectablePanel) MaxForce() float64 { return p.fmax }

func (p *selectablePanel) Current() (float64, bool) { return p.current, p.rendered }

func (p *selectablePanel) Selection() Selection { return p.selection }

// toggle applies the selection rule: picking the selected tooth clears it.
func (p *selectablePanel) toggle(sel Selection) {
	switch {
	case !sel.Valid:
		p.selection = None
	case p.selection.Valid && p.selection.Tooth == sel.Tooth:
		p.selection = None
	default:
		p.selection = sel
	}
}

func (p *selectablePanel) rasterize(proj scene.Projection) *image.RGBA {
	if p.img == nil || p.dirty {
		img := image.NewRGBA(image.Rectangle{Max: p.opts.Size})
		xdraw.Draw(img, img.Bounds(), image.NewUniform(p.opts.Background), image.Point{}, xdraw.Src)
		p.scene.Draw(img, proj)
		p.img = img
		p.dirty = false
	}
	return p.img
}

func parseToothName(name string, prefixes ...string) (int, error) {
	for _, prefix := range prefixes {
		if rest, ok := strings.CutPrefix(name, prefix); ok {
			id, err := strconv.Atoi(rest)
			if err != nil {
				return 0, fmt.Errorf("%w: %q", ErrBadElement, name)
			}
			return id, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrBadElement, name)
}

// textScale picks a bitmap-font magnification for a panel height.
func textScale(h int) int {
	return max(1, h/360)
}

var (
	timeBackground = scene.WithAlpha(color.White, 0.7)
	selectColor    = color.NRGBA{0, 255, 0, 255}
)

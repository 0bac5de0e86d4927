// Package compositor merges the independently rendered panel images into one
// output canvas per frame.
package compositor

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"

	xdraw "golang.org/x/image/draw"

	"github.com/san-kum/forceview/internal/panel"
)

var (
	ErrCanvasSize = errors.New("compositor: canvas size must be positive")
	ErrOverlap    = errors.New("compositor: assigned rectangles overlap")
	ErrOutside    = errors.New("compositor: rectangle outside canvas")
	ErrNoWriter   = errors.New("compositor: no frame writer")
)

// Assignment places one panel on the canvas.
type Assignment struct {
	Panel panel.Renderer
	Rect  image.Rectangle
}

// FrameWriter consumes finished canvases.
type FrameWriter interface {
	WriteFrame(frame *image.RGBA) error
}

type Compositor struct {
	size        image.Point
	bg          color.Color
	assignments []Assignment
	scaler      xdraw.Interpolator
	writer      FrameWriter
	logger      *slog.Logger
	frames      uint64
}

func New(size image.Point, bg color.Color, assignments []Assignment, logger *slog.Logger) (*Compositor, error) {
	if size.X <= 0 || size.Y <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrCanvasSize, size)
	}
	if bg == nil {
		bg = color.White
	}
	if logger == nil {
		logger = slog.Default()
	}
	bounds := image.Rectangle{Max: size}
	for i, a := range assignments {
		if !a.Rect.In(bounds) {
			return nil, fmt.Errorf("%w: %v not in %v", ErrOutside, a.Rect, bounds)
		}
		for _, b := range assignments[:i] {
			if a.Rect.Overlaps(b.Rect) {
				return nil, fmt.Errorf("%w: %v and %v", ErrOverlap, a.Rect, b.Rect)
			}
		}
	}
	return &Compositor{
		size:        size,
		bg:          bg,
		assignments: append([]Assignment(nil), assignments...),
		scaler:      xdraw.BiLinear,
		logger:      logger.With("component", "compositor"),
	}, nil
}

// DefaultAssignments puts grid and bars side by side across the top fraction
// of the canvas and the graph across the remainder. Nil panels are skipped.
func DefaultAssignments(canvas image.Point, topFraction float64, grid, bars, graph panel.Renderer) []Assignment {
	topH := int(float64(canvas.Y) * topFraction)
	half := canvas.X / 2
	var out []Assignment
	add := func(p panel.Renderer, r image.Rectangle) {
		if p != nil && !r.Empty() {
			out = append(out, Assignment{Panel: p, Rect: r})
		}
	}
	add(grid, image.Rect(0, 0, half, topH))
	add(bars, image.Rect(half, 0, canvas.X, topH))
	add(graph, image.Rect(0, topH, canvas.X, canvas.Y))
	return out
}

func (c *Compositor) Size() image.Point         { return c.size }
func (c *Compositor) Assignments() []Assignment { return c.assignments }
func (c *Compositor) Frames() uint64            { return c.frames }
func (c *Compositor) SetWriter(w FrameWriter)   { c.writer = w }

// Compose renders every assigned panel at t, captures it and scales it into
// its rectangle on a fresh canvas. Panels that were showing another
// timestamp are returned to it afterwards. Capture failures leave the
// rectangle as background and are returned, not fatal.
func (c *Compositor) Compose(t float64) (*image.RGBA, []error) {
	canvas := image.NewRGBA(image.Rectangle{Max: c.size})
	xdraw.Draw(canvas, canvas.Bounds(), image.NewUniform(c.bg), image.Point{}, xdraw.Src)

	// panels render one at a time, in assignment order
	var failed []error
	for _, a := range c.assignments {
		if err := c.place(canvas, a, t); err != nil {
			failed = append(failed, err)
		}
	}
	return canvas, failed
}

// place captures one panel at t and scales it into its rectangle. A panel
// rendered at another timestamp is put back afterwards.
func (c *Compositor) place(canvas *image.RGBA, a Assignment, t float64) error {
	prev, had := a.Panel.Current()
	override := !had || prev != t
	if override {
		a.Panel.RenderAt(t)
	}

	img, err := a.Panel.CaptureImage()
	switch {
	case err != nil:
	case img == nil || img.Bounds().Empty():
		err = panel.ErrNoImage
	default:
		c.scaler.Scale(canvas, a.Rect, img, img.Bounds(), xdraw.Src, nil)
	}
	if err != nil {
		c.logger.Warn("panel capture failed", "panel", a.Panel.ID().String(), "t", t, "err", err)
		err = fmt.Errorf("%s: %w", a.Panel.ID(), err)
	}

	if override && had {
		a.Panel.RenderAt(prev)
	}
	return err
}

// CaptureAndWrite composes the frame for t and hands it to the writer.
func (c *Compositor) CaptureAndWrite(t float64) error {
	if c.writer == nil {
		return ErrNoWriter
	}
	frame, _ := c.Compose(t)
	if err := c.writer.WriteFrame(frame); err != nil {
		return fmt.Errorf("write frame at %.3fs: %w", t, err)
	}
	c.frames++
	return nil
}

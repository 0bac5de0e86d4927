// Package timeline drives every panel through the shared timestamp sequence.
package timeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

var (
	ErrNoTimestamps = errors.New("timeline: no timestamps")
	ErrIndexRange   = errors.New("timeline: index out of range")
)

type State int

const (
	Stopped State = iota
	Playing
)

func (s State) String() string {
	if s == Playing {
		return "playing"
	}
	return "stopped"
}

// Renderer is anything redrawn for a timestamp.
type Renderer interface {
	RenderAt(t float64)
}

// FrameExporter receives one composited frame per tick.
type FrameExporter interface {
	CaptureAndWrite(t float64) error
}

// Observer is notified after each render with the timestamp and its index.
type Observer interface {
	OnFrame(t float64, index int)
}

type ObserverFunc func(t float64, index int)

func (f ObserverFunc) OnFrame(t float64, index int) { f(t, index) }

// Controller owns the timestamp index and play state. It is driven from a
// single goroutine and is not safe for concurrent use.
type Controller struct {
	times    []float64
	index    int
	state    State
	interval time.Duration

	renderers []Renderer
	observers []Observer
	exporter  FrameExporter

	last     float64
	rendered bool
	ticks    uint64

	logger *slog.Logger
}

func New(times []float64, fps int, logger *slog.Logger) (*Controller, error) {
	if len(times) == 0 {
		return nil, ErrNoTimestamps
	}
	if fps <= 0 {
		return nil, fmt.Errorf("fps must be positive, got %d", fps)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		times:    times,
		interval: time.Second / time.Duration(fps),
		logger:   logger.With("component", "timeline"),
	}, nil
}

func (c *Controller) Add(r Renderer) { c.renderers = append(c.renderers, r) }

func (c *Controller) AddObserver(o Observer) { c.observers = append(c.observers, o) }

// SetExporter starts handing frames to e on every tick. A nil e stops export.
func (c *Controller) SetExporter(e FrameExporter) { c.exporter = e }

func (c *Controller) Exporting() bool { return c.exporter != nil }

func (c *Controller) Play() {
	if c.index < 0 || c.index >= len(c.times) {
		c.index = 0
	}
	if c.state != Playing {
		c.logger.Debug("play", "index", c.index)
	}
	c.state = Playing
}

func (c *Controller) Pause() {
	if c.state == Playing {
		c.logger.Debug("pause", "index", c.index)
	}
	c.state = Stopped
}

// Toggle flips between Playing and Stopped.
func (c *Controller) Toggle() {
	if c.state == Playing {
		c.Pause()
	} else {
		c.Play()
	}
}

func (c *Controller) State() State          { return c.state }
func (c *Controller) Playing() bool         { return c.state == Playing }
func (c *Controller) Index() int            { return c.index }
func (c *Controller) Len() int              { return len(c.times) }
func (c *Controller) Ticks() uint64         { return c.ticks }
func (c *Controller) Timestamps() []float64 { return c.times }

// Interval is the time between ticks.
func (c *Controller) Interval() time.Duration { return c.interval }

// Last reports the most recently rendered timestamp.
func (c *Controller) Last() (float64, bool) { return c.last, c.rendered }

// SetIndex moves the cursor without rendering.
func (c *Controller) SetIndex(i int) error {
	if i < 0 || i >= len(c.times) {
		return fmt.Errorf("%w: %d not in [0,%d)", ErrIndexRange, i, len(c.times))
	}
	c.index = i
	return nil
}

// Step moves the cursor by delta, wrapping at both ends, and renders the
// timestamp it lands on.
func (c *Controller) Step(delta int) float64 {
	n := len(c.times)
	c.index = ((c.index+delta)%n + n) % n
	return c.Render()
}

// Render draws the timestamp at the cursor on every panel without advancing.
func (c *Controller) Render() float64 {
	t := c.times[c.index]
	c.renderAll(t)
	c.notify(t, c.index)
	return t
}

// Tick renders the cursor timestamp, exports a frame when export is on and
// advances the cursor, looping back to 0 after the last timestamp.
func (c *Controller) Tick() float64 {
	i := c.index
	t := c.times[i]
	c.renderAll(t)
	if c.exporter != nil {
		if err := c.exporter.CaptureAndWrite(t); err != nil {
			c.logger.Error("frame export failed, disabling export", "t", t, "err", err)
			c.exporter = nil
		}
	}
	c.index = (i + 1) % len(c.times)
	c.ticks++
	c.notify(t, i)
	return t
}

func (c *Controller) renderAll(t float64) {
	for _, r := range c.renderers {
		r.RenderAt(t)
	}
	c.last, c.rendered = t, true
}

func (c *Controller) notify(t float64, index int) {
	for _, o := range c.observers {
		o.OnFrame(t, index)
	}
}

// Run ticks at the configured interval while Playing until ctx is done.
func (c *Controller) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if c.state == Playing {
				c.Tick()
			}
		}
	}
}

// Sweep ticks once through every timestamp from index 0 without waiting,
// for offline export. The cursor ends back at 0.
func (c *Controller) Sweep(ctx context.Context) error {
	c.index = 0
	for range c.times {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		c.Tick()
	}
	return nil
}

// Package app wires the data source, panels, dispatcher, timeline and
// compositor into one interactive session.
package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/san-kum/forceview/internal/compositor"
	"github.com/san-kum/forceview/internal/config"
	"github.com/san-kum/forceview/internal/dispatch"
	"github.com/san-kum/forceview/internal/forcedata"
	"github.com/san-kum/forceview/internal/layout"
	"github.com/san-kum/forceview/internal/panel"
	"github.com/san-kum/forceview/internal/timeline"
	"github.com/san-kum/forceview/internal/video"
)

var (
	ErrNoElements = errors.New("app: data source has no elements")
	ErrExporting  = errors.New("app: export already running")
)

const (
	GridViewport = 0
	BarsViewport = 1
)

// cofSource is implemented by sources that derive their center-of-force
// trajectory from cell centers.
type cofSource interface {
	ComputeCenterOfForce(centers map[int]forcedata.Point)
}

type Session struct {
	cfg    *config.Config
	src    forcedata.Source
	logger *slog.Logger

	grid  *panel.GridPanel
	bars  *panel.BarsPanel
	graph *panel.GraphPanel

	registry   *dispatch.Registry
	dispatcher *dispatch.Dispatcher
	timeline   *timeline.Controller
	compositor *compositor.Compositor

	initialTeeth []int
	recorder     *video.Recorder
	exportPath   string
}

// LoadData builds the configured data source.
func LoadData(cfg config.DataConfig) (*forcedata.Matrix, error) {
	switch cfg.Source {
	case config.SourceCSV:
		return forcedata.LoadCSV(cfg.Path)
	case config.SourceSimulate, "":
		return forcedata.Simulate(forcedata.SimConfig{
			Teeth:    cfg.Teeth,
			Sensors:  cfg.Sensors,
			Duration: cfg.Duration,
			Rate:     cfg.Rate,
			Seed:     cfg.Seed,
		})
	}
	return nil, fmt.Errorf("%w: unknown data source %q", config.ErrInvalid, cfg.Source)
}

func New(cfg *config.Config, src forcedata.Source, logger *slog.Logger) (*Session, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if src == nil || len(src.ToothIDs()) == 0 || len(src.Timestamps()) == 0 {
		logger.Error("no force data to display")
		return nil, ErrNoElements
	}

	s := &Session{cfg: cfg, src: src, logger: logger}
	teeth := src.ToothIDs()

	cells := layout.ArchCells(teeth, layout.GridArchWidth, layout.GridArchDepth)
	if c, ok := src.(cofSource); ok {
		c.ComputeCenterOfForce(layout.Centers(cells))
	}
	bases := layout.BarBases(teeth, layout.BarArchWidth, layout.BarArchDepth)

	opts := func(w, h int) panel.Options {
		return panel.Options{Size: image.Pt(w, h), MaxForce: cfg.MaxForce, Logger: logger}
	}
	s.grid = panel.NewGrid(src, cells, opts(cfg.Panels.Grid.Width, cfg.Panels.Grid.Height))
	s.bars = panel.NewBars(src, bases, opts(cfg.Panels.Bars.Width, cfg.Panels.Bars.Height))
	s.graph = panel.NewGraph(src, cfg.Panels.Graph.DPI, opts(cfg.Panels.Graph.Width, cfg.Panels.Graph.Height))
	for _, p := range []panel.Renderer{s.grid, s.bars, s.graph} {
		if err := p.InitializeStatic(); err != nil {
			return nil, fmt.Errorf("initialize %s: %w", p.ID(), err)
		}
	}

	s.initialTeeth = teeth[:min(2, len(teeth))]
	s.graph.SetTeeth(s.initialTeeth)

	var err error
	s.timeline, err = timeline.New(src.Timestamps(), cfg.FPS, logger)
	if err != nil {
		return nil, err
	}
	s.timeline.Add(s.grid)
	s.timeline.Add(s.bars)
	s.timeline.Add(s.graph)

	canvas := image.Pt(cfg.Canvas.Width, cfg.Canvas.Height)
	assignments := compositor.DefaultAssignments(canvas, cfg.TopFraction, s.grid, s.bars, s.graph)
	s.compositor, err = compositor.New(canvas, cfg.BackgroundColor(), assignments, logger)
	if err != nil {
		return nil, err
	}

	s.registry = dispatch.NewRegistry()
	for _, a := range assignments {
		var index int
		switch a.Panel.ID() {
		case panel.Grid:
			index = GridViewport
		case panel.Bars:
			index = BarsViewport
		default:
			continue
		}
		if err := s.registry.Register(index, a.Panel.(panel.Selectable), a.Rect); err != nil {
			return nil, err
		}
	}
	s.dispatcher = dispatch.NewDispatcher(s.registry, s.timeline, logger)
	s.dispatcher.OnSelect(s.onSelect)

	s.timeline.Render()
	logger.Info("session ready", "teeth", len(teeth), "timestamps", len(src.Timestamps()), "fmax", s.grid.MaxForce())
	return s, nil
}

// onSelect makes the graph follow the selected tooth and fall back to the
// initial teeth once nothing is selected.
func (s *Session) onSelect(id panel.ID, sel panel.Selection) {
	if sel.Valid {
		s.graph.SetTeeth([]int{sel.Tooth})
	} else if _, ok := s.Selected(); !ok {
		s.graph.SetTeeth(s.initialTeeth)
	}
	if t, ok := s.timeline.Last(); ok && !s.timeline.Playing() {
		s.graph.RenderAt(t)
	}
	s.logger.Debug("selection", "panel", id.String(), "tooth", sel.String())
}

func (s *Session) Config() *config.Config             { return s.cfg }
func (s *Session) Source() forcedata.Source           { return s.src }
func (s *Session) Timeline() *timeline.Controller     { return s.timeline }
func (s *Session) Grid() *panel.GridPanel             { return s.grid }
func (s *Session) Bars() *panel.BarsPanel             { return s.bars }
func (s *Session) Graph() *panel.GraphPanel           { return s.graph }
func (s *Session) Compositor() *compositor.Compositor { return s.compositor }

// CanvasSize is the size of the live surface and of exported frames.
func (s *Session) CanvasSize() image.Point { return s.compositor.Size() }

// Selected reports the tooth selected on any panel.
func (s *Session) Selected() (panel.Selection, bool) {
	for _, p := range s.registry.Panels() {
		if sel := p.Selection(); sel.Valid {
			return sel, true
		}
	}
	return panel.None, false
}

// Click routes a click at a pixel of the live surface.
func (s *Session) Click(pt image.Point) dispatch.Result {
	return s.dispatcher.Dispatch(s.registry.Pick(pt))
}

// Dispatch routes an already resolved pointer event.
func (s *Session) Dispatch(ev dispatch.Event) dispatch.Result {
	return s.dispatcher.Dispatch(ev)
}

// Preview composites the panels as they currently stand.
func (s *Session) Preview() *image.RGBA {
	t, ok := s.timeline.Last()
	if !ok {
		t = s.timeline.Render()
	}
	frame, _ := s.compositor.Compose(t)
	return frame
}

// DetailText describes the selected tooth at the current timestamp.
func (s *Session) DetailText() string {
	sel, ok := s.Selected()
	t, rendered := s.timeline.Last()
	if !ok || !rendered {
		return panel.DetailPrompt
	}
	return panel.Detail(s.src, sel.Tooth, t)
}

// StartExport opens sink at the canvas size and records one frame per tick.
// A sink that cannot be opened leaves the animation running unrecorded.
func (s *Session) StartExport(sink video.Sink, path string) error {
	if s.recorder != nil {
		return ErrExporting
	}
	size := s.CanvasSize()
	rec, err := video.Record(sink, size.X, size.Y, float64(s.cfg.FPS), s.logger)
	if err != nil {
		s.logger.Warn("export unavailable", "path", path, "err", err)
		return err
	}
	s.recorder, s.exportPath = rec, path
	s.compositor.SetWriter(rec)
	s.timeline.SetExporter(s.compositor)
	s.logger.Info("export started", "path", path)
	return nil
}

// Exporting reports whether frames are still being recorded. A failed
// write stops recording without stopping the animation.
func (s *Session) Exporting() bool { return s.recorder != nil && s.timeline.Exporting() }

func (s *Session) ExportPath() string { return s.exportPath }

// StopExport closes the recorder. It is a no-op when not exporting.
func (s *Session) StopExport() error {
	if s.recorder == nil {
		return nil
	}
	s.timeline.SetExporter(nil)
	s.compositor.SetWriter(nil)
	err := s.recorder.Close()
	s.logger.Info("export stopped", "path", s.exportPath, "written", s.recorder.Written(), "dropped", s.recorder.Dropped())
	s.recorder = nil
	return err
}

// Export renders every timestamp loops times into sink without waiting
// between frames.
func (s *Session) Export(ctx context.Context, sink video.Sink, path string, loops int) error {
	if err := s.StartExport(sink, path); err != nil {
		return err
	}
	s.recorder.SetBlocking(true)
	var err error
	for i := 0; i < max(1, loops) && err == nil; i++ {
		err = s.timeline.Sweep(ctx)
		if !s.timeline.Exporting() {
			break
		}
	}
	return errors.Join(err, s.StopExport())
}

// Close releases the export resource. It is safe to call more than once.
func (s *Session) Close() error {
	s.timeline.Pause()
	return s.StopExport()
}

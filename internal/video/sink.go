// Package video persists composited frames.
package video

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/san-kum/forceview/internal/config"
)

var (
	ErrNotOpen       = errors.New("video: sink not open")
	ErrAlreadyOpen   = errors.New("video: sink already open")
	ErrFrameSize     = errors.New("video: frame size does not match sink")
	ErrUnavailable   = errors.New("video: encoder unavailable")
	ErrUnknownFormat = errors.New("video: unknown format")
	ErrClosed        = errors.New("video: recorder closed")
)

// Sink accepts fixed-size frames at a fixed rate. Close is safe to call
// on a sink that was never opened or is already closed.
type Sink interface {
	Open(width, height int, fps float64) error
	WriteFrame(frame *image.RGBA) error
	Close() error
}

// geometry is the opened state shared by every sink.
type geometry struct {
	w, h int
	fps  float64
	open bool
}

func (g *geometry) start(w, h int, fps float64) error {
	if g.open {
		return ErrAlreadyOpen
	}
	if w <= 0 || h <= 0 || fps <= 0 {
		return fmt.Errorf("invalid geometry %dx%d@%g", w, h, fps)
	}
	g.w, g.h, g.fps, g.open = w, h, fps, true
	return nil
}

func (g *geometry) check(frame *image.RGBA) error {
	if !g.open {
		return ErrNotOpen
	}
	if frame == nil {
		return fmt.Errorf("%w: nil frame", ErrFrameSize)
	}
	if sz := frame.Bounds().Size(); sz.X != g.w || sz.Y != g.h {
		return fmt.Errorf("%w: got %dx%d, want %dx%d", ErrFrameSize, sz.X, sz.Y, g.w, g.h)
	}
	return nil
}

// DefaultPath names an output for format with a short random suffix.
func DefaultPath(format string) string {
	id := strings.SplitN(uuid.NewString(), "-", 2)[0]
	switch format {
	case config.FormatGIF:
		return "forceview-" + id + ".gif"
	case config.FormatPNG:
		return "forceview-" + id + "-frames"
	}
	return "forceview-" + id + ".mp4"
}

// NewSink builds the sink for a configured format. An empty path gets
// DefaultPath.
func NewSink(format, path string, logger *slog.Logger) (Sink, string, error) {
	if path == "" {
		path = DefaultPath(format)
	}
	switch format {
	case config.FormatFFMPEG, "":
		return NewFFMPEG(path, logger), path, nil
	case config.FormatGIF:
		return NewGIF(path), path, nil
	case config.FormatPNG:
		return NewPNGSequence(path), path, nil
	}
	return nil, "", fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

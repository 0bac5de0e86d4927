package video

import (
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
)

// GIF collects paletted frames and encodes the animation on Close.
type GIF struct {
	geometry
	path   string
	frames []*image.Paletted
	delay  int
}

func NewGIF(path string) *GIF { return &GIF{path: path} }

func (g *GIF) Open(width, height int, fps float64) error {
	if err := g.start(width, height, fps); err != nil {
		return err
	}
	// gif delays are in hundredths of a second
	g.delay = max(1, int(100/fps+0.5))
	g.frames = g.frames[:0]
	return nil
}

func (g *GIF) WriteFrame(frame *image.RGBA) error {
	if err := g.check(frame); err != nil {
		return err
	}
	p := image.NewPaletted(frame.Bounds(), palette.Plan9)
	draw.FloydSteinberg.Draw(p, p.Bounds(), frame, frame.Bounds().Min)
	g.frames = append(g.frames, p)
	return nil
}

func (g *GIF) Len() int { return len(g.frames) }

func (g *GIF) Close() error {
	if !g.open {
		return nil
	}
	g.open = false
	if len(g.frames) == 0 {
		return nil
	}

	f, err := os.Create(g.path)
	if err != nil {
		return fmt.Errorf("create gif: %w", err)
	}
	anim := &gif.GIF{
		Image: g.frames,
		Delay: make([]int, len(g.frames)),
	}
	for i := range anim.Delay {
		anim.Delay[i] = g.delay
	}
	err = gif.EncodeAll(f, anim)
	g.frames = nil
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("encode gif: %w", err)
	}
	return nil
}

// PNGSequence writes each frame as a numbered PNG inside a directory.
type PNGSequence struct {
	geometry
	dir string
	n   int
}

func NewPNGSequence(dir string) *PNGSequence { return &PNGSequence{dir: dir} }

func (s *PNGSequence) Open(width, height int, fps float64) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return s.start(width, height, fps)
}

func (s *PNGSequence) WriteFrame(frame *image.RGBA) error {
	if err := s.check(frame); err != nil {
		return err
	}
	name := filepath.Join(s.dir, fmt.Sprintf("frame_%05d.png", s.n))
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := png.Encode(f, frame); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", name, err)
	}
	s.n++
	return f.Close()
}

func (s *PNGSequence) Count() int { return s.n }

func (s *PNGSequence) Close() error {
	s.open = false
	return nil
}

// Memory keeps copies of every frame.
type Memory struct {
	geometry
	Frames []*image.RGBA
	closed int
}

func (m *Memory) Open(width, height int, fps float64) error {
	return m.start(width, height, fps)
}

func (m *Memory) WriteFrame(frame *image.RGBA) error {
	if err := m.check(frame); err != nil {
		return err
	}
	cp := image.NewRGBA(frame.Bounds())
	copy(cp.Pix, frame.Pix)
	if frame.Stride != cp.Stride {
		draw.Draw(cp, cp.Bounds(), frame, frame.Bounds().Min, draw.Src)
	}
	m.Frames = append(m.Frames, cp)
	return nil
}

func (m *Memory) Close() error {
	if m.open {
		m.closed++
	}
	m.open = false
	return nil
}

// Closed reports how many times an open Memory sink was closed.
func (m *Memory) Closed() int { return m.closed }

package tui

import (
	"fmt"
	"io"
	"time"
)

const (
	clearLine  = "\r\033[2K"
	hideCursor = "\033[?25l"
	showCursor = "\033[?25h"
)

// Progress prints a one-line export progress bar as timeline frames are
// rendered. Redraws are limited to refresh per second.
type Progress struct {
	w         io.Writer
	total     int
	refresh   int
	lastFrame time.Time
	frames    int
}

func NewProgress(w io.Writer, total, refresh int) *Progress {
	return &Progress{w: w, total: max(1, total), refresh: max(1, refresh)}
}

func (p *Progress) OnFrame(t float64, index int) {
	p.frames++
	last := p.frames >= p.total
	if !last && time.Since(p.lastFrame) < time.Second/time.Duration(p.refresh) {
		return
	}
	p.lastFrame = time.Now()
	frac := float64(p.frames) / float64(p.total)
	fmt.Fprintf(p.w, "%s  %s %3.0f%%  frame %d/%d  t=%.2fs", clearLine, ProgressBar(frac, 30), 100*frac, p.frames, p.total, t)
}

func (p *Progress) Frames() int { return p.frames }

func (p *Progress) Start() { fmt.Fprint(p.w, hideCursor) }

func (p *Progress) Stop() { fmt.Fprint(p.w, "\n"+showCursor) }

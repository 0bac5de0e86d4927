package tui

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/forceview/internal/app"
	"github.com/san-kum/forceview/internal/config"
)

func TestCanvasSet(t *testing.T) {
	c := NewCanvas(2, 1)
	c.Set(0, 0)
	c.Set(1, 3)
	c.Set(3, 1)
	c.Set(-1, 0)
	c.Set(4, 0)

	want := string([]rune{0x2800 | 0x1 | 0x80, 0x2800 | 0x10})
	if got := c.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	c.Clear()
	if got := c.String(); got != strings.Repeat(string(rune(0x2800)), 2) {
		t.Errorf("after Clear = %q", got)
	}
}

func TestCanvasDrawLine(t *testing.T) {
	c := NewCanvas(4, 2)
	c.DrawLine(0, 0, 7, 7)
	dots := 0
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if c.Grid[y/4][x/2]&pixelMap[y%4][x%2] != 0 {
				dots++
				if x != y {
					t.Errorf("dot (%d,%d) off the diagonal", x, y)
				}
			}
		}
	}
	if dots != 8 {
		t.Errorf("dots = %d, want 8", dots)
	}
}

func TestCanvasMapping(t *testing.T) {
	c := NewCanvas(10, 5)
	surface := image.Pt(200, 100)

	tests := []struct {
		col, row int
		want     image.Point
	}{
		{0, 0, image.Pt(10, 10)},
		{9, 4, image.Pt(190, 90)},
		{5, 2, image.Pt(110, 50)},
	}
	for _, tt := range tests {
		if got := c.ToSurface(tt.col, tt.row, surface); got != tt.want {
			t.Errorf("ToSurface(%d,%d) = %v, want %v", tt.col, tt.row, got, tt.want)
		}
	}

	if got := c.ToDots(image.Rect(0, 0, 100, 100), surface); got != image.Rect(0, 0, 10, 20) {
		t.Errorf("ToDots = %v", got)
	}
}

func TestCanvasDrawImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 80, 80))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{210, 210, 210, 255}), image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(0, 0, 40, 40), image.NewUniform(color.RGBA{0, 0, 0, 255}), image.Point{}, draw.Src)

	c := NewCanvas(4, 2)
	c.DrawImage(img, 210, lumaThreshold)

	full := rune(0x28FF)
	blank := rune(0x2800)
	if c.Grid[0][0] != full || c.Grid[0][1] != full {
		t.Errorf("dark quarter not filled: %q", c.String())
	}
	if c.Grid[1][3] != blank || c.Grid[0][3] != blank {
		t.Errorf("background drawn: %q", c.String())
	}
}

func TestProgressBar(t *testing.T) {
	tests := []struct {
		frac float64
		want string
	}{
		{0, "░░░░"},
		{0.5, "██░░"},
		{1, "████"},
		{2, "████"},
		{-1, "░░░░"},
	}
	for _, tt := range tests {
		if got := ProgressBar(tt.frac, 4); got != tt.want {
			t.Errorf("ProgressBar(%v) = %q, want %q", tt.frac, got, tt.want)
		}
	}
}

func TestThemes(t *testing.T) {
	if GetTheme("retro").Name != "retro" {
		t.Error("retro theme not found")
	}
	if GetTheme("nope").Name != ThemeClinic.Name {
		t.Error("unknown theme should fall back to clinic")
	}
	th := ThemeClinic
	for range Themes {
		th = NextTheme(th)
	}
	if th.Name != ThemeClinic.Name {
		t.Errorf("cycling all themes ended on %s", th.Name)
	}
}

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, 3, 1)
	p.Start()
	for i := 0; i < 3; i++ {
		p.OnFrame(float64(i)*0.1, i)
	}
	p.Stop()

	out := buf.String()
	if p.Frames() != 3 {
		t.Errorf("Frames() = %d", p.Frames())
	}
	if !strings.Contains(out, "frame 3/3") || !strings.Contains(out, "100%") {
		t.Errorf("final frame not drawn: %q", out)
	}
}

func newTestModel(t *testing.T, cfg *config.Config) (model, *app.Session) {
	t.Helper()
	cfg.Data.Duration = 1
	cfg.Data.Rate = 10
	src, err := app.LoadData(cfg.Data)
	if err != nil {
		t.Fatal(err)
	}
	s, err := app.New(cfg, src, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return New(s, nil).(model), s
}

func send(m model, msg tea.Msg) (model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(model), cmd
}

func key(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModelPlayback(t *testing.T) {
	m, s := newTestModel(t, config.GetPreset("preview"))
	tl := s.Timeline()

	m, _ = send(m, TickMsg{})
	if tl.Index() != 0 {
		t.Fatalf("tick while paused moved the cursor to %d", tl.Index())
	}

	m, _ = send(m, key(" "))
	if !tl.Playing() {
		t.Fatal("space did not start playback")
	}
	m, cmd := send(m, TickMsg{})
	if tl.Index() != 1 || cmd == nil {
		t.Errorf("index = %d, cmd = %v after tick", tl.Index(), cmd)
	}
	if !strings.Contains(m.View(), "PLAYING") {
		t.Error("status does not show playback")
	}

	m, _ = send(m, key(" "))
	m, _ = send(m, key("]"))
	if tl.Index() != 2 {
		t.Errorf("] moved to %d, want 2", tl.Index())
	}
	m, _ = send(m, key("["))
	m, _ = send(m, key("["))
	if tl.Index() != 0 {
		t.Errorf("[ moved to %d, want 0", tl.Index())
	}

	_, cmd = send(m, key("q"))
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q does not quit")
	}
}

func TestModelCameraKeys(t *testing.T) {
	m, s := newTestModel(t, config.GetPreset("preview"))
	cam := s.Bars().Camera()
	home := cam.Position
	dist := func() float64 { return cam.Position.Sub(cam.FocalPoint).Length() }
	start := dist()

	m, _ = send(m, key("+"))
	if dist() >= start {
		t.Errorf("+ did not move closer: %v -> %v", start, dist())
	}
	m, _ = send(m, key("-"))
	m, _ = send(m, key("-"))
	if dist() <= start {
		t.Errorf("- did not move away: %v -> %v", start, dist())
	}
	m, _ = send(m, key("a"))
	m, _ = send(m, key("c"))
	if cam.Position != home {
		t.Errorf("c left the camera at %v, want %v", cam.Position, home)
	}
	if m.notice != "camera reset" {
		t.Errorf("notice = %q", m.notice)
	}
}

func TestModelResizeKeepsAspect(t *testing.T) {
	m, s := newTestModel(t, config.GetPreset("preview"))
	m, _ = send(m, tea.WindowSizeMsg{Width: 160, Height: 50})

	size := m.previewSize()
	surface := s.CanvasSize()
	ratio := float64(2*size.X) / float64(4*size.Y)
	want := float64(surface.X) / float64(surface.Y)
	if ratio < want*0.85 || ratio > want*1.15 {
		t.Errorf("preview %v has dot ratio %.2f, want about %.2f", size, ratio, want)
	}
	if size.X+sideWidth+2 > 160 {
		t.Errorf("preview %v does not leave room for the side panel", size)
	}
	if lines := strings.Count(m.preview, "\n") + 1; lines != size.Y {
		t.Errorf("preview has %d lines, want %d", lines, size.Y)
	}
}

func TestModelClickSelectsTooth(t *testing.T) {
	m, s := newTestModel(t, config.GetPreset("preview"))
	size := m.previewSize()

	for row := 0; row < size.Y; row++ {
		for col := 0; col < size.X/2; col++ {
			m, _ = send(m, tea.MouseMsg{
				X:      col + previewLeft,
				Y:      row + previewTop,
				Action: tea.MouseActionPress,
				Button: tea.MouseButtonLeft,
			})
			if sel, ok := s.Selected(); ok {
				if !strings.Contains(m.notice, "tooth") {
					t.Errorf("notice = %q", m.notice)
				}
				if got := s.Graph().Teeth(); len(got) != 1 || got[0] != sel.Tooth {
					t.Errorf("graph teeth = %v, want [%d]", got, sel.Tooth)
				}
				if !strings.Contains(m.View(), "Tooth ID:") {
					t.Error("detail text missing from view")
				}
				return
			}
		}
	}
	t.Fatal("no preview cell selected a tooth")
}

func TestModelClickOffPreviewClearsSelection(t *testing.T) {
	m, s := newTestModel(t, config.GetPreset("preview"))
	size := m.previewSize()

	press := func(x, y int) {
		m, _ = send(m, tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	}
	for row := 0; row < size.Y; row++ {
		for col := 0; col < size.X/2; col++ {
			if _, ok := s.Selected(); !ok {
				press(col+previewLeft, row+previewTop)
			}
		}
	}
	if _, ok := s.Selected(); !ok {
		t.Fatal("no preview cell selected a tooth")
	}

	// the side panel starts right of the preview box
	press(size.X+previewLeft+10, previewTop)
	if sel, ok := s.Selected(); ok {
		t.Errorf("selection %v survived a press beside the preview", sel)
	}
	if m.notice != "selection cleared" {
		t.Errorf("notice = %q", m.notice)
	}
}

func TestModelExportToggle(t *testing.T) {
	cfg := config.GetPreset("preview")
	cfg.Export.Format = config.FormatPNG
	cfg.Export.Path = filepath.Join(t.TempDir(), "frames")
	m, s := newTestModel(t, cfg)

	m, _ = send(m, key("e"))
	if !s.Exporting() {
		t.Fatalf("export not started: %q", m.notice)
	}
	m, _ = send(m, key(" "))
	for i := 0; i < 3; i++ {
		m, _ = send(m, TickMsg{})
	}
	m, _ = send(m, key("e"))
	if s.Exporting() {
		t.Fatal("export still running")
	}
	if !strings.HasPrefix(m.notice, "saved") {
		t.Errorf("notice = %q", m.notice)
	}

	entries, err := os.ReadDir(cfg.Export.Path)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) == 0 {
		t.Error("no frames written")
	}
}

// Package tui hosts a forceview session in the terminal.
package tui

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/forceview/internal/app"
	"github.com/san-kum/forceview/internal/dispatch"
	"github.com/san-kum/forceview/internal/video"
)

const (
	sideWidth = 48

	// the preview box starts below the header line and inside its border
	previewTop  = 2
	previewLeft = 1

	// dots darker or lighter than the background by more than this are drawn
	lumaThreshold = 18
	orbitStep     = 10.0
	zoomStep      = 1.2
)

type TickMsg time.Time

func tick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return TickMsg(t) })
}

type model struct {
	session *app.Session
	logger  *slog.Logger

	canvas  *Canvas
	preview string
	bgLuma  uint8

	theme    Theme
	st       styles
	showHelp bool
	notice   string

	width  int
	height int
}

// New builds the terminal model for an already wired session.
func New(s *app.Session, logger *slog.Logger) tea.Model {
	if logger == nil {
		logger = slog.Default()
	}
	bg := color.GrayModel.Convert(s.Config().BackgroundColor()).(color.Gray)
	m := model{
		session: s,
		logger:  logger.With("component", "tui"),
		bgLuma:  bg.Y,
		theme:   ThemeClinic,
		st:      newStyles(ThemeClinic),
		width:   120,
		height:  36,
	}
	m.resize()
	m.refresh()
	return m
}

// Run starts the terminal program and blocks until the user quits or ctx
// is cancelled.
func Run(ctx context.Context, s *app.Session, logger *slog.Logger) error {
	p := tea.NewProgram(New(s, logger), tea.WithContext(ctx), tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (m model) Init() tea.Cmd { return tick(m.session.Timeline().Interval()) }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
			m.click(msg.X-previewLeft, msg.Y-previewTop)
			m.refresh()
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		m.refresh()
		return m, nil
	case TickMsg:
		tl := m.session.Timeline()
		if tl.Playing() {
			tl.Tick()
			m.refresh()
		}
		return m, tick(tl.Interval())
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	tl := m.session.Timeline()
	switch msg.String() {
	case "q", "ctrl+c":
		if err := m.session.Close(); err != nil {
			m.logger.Error("close session", "err", err)
		}
		return m, tea.Quit
	case " ":
		tl.Toggle()
	case "[":
		tl.Step(-1)
	case "]":
		tl.Step(1)
	case "e":
		m.toggleExport()
	case "c":
		m.session.Bars().ResetCamera()
		m.notice = "camera reset"
	case "a":
		m.session.Bars().Orbit(-orbitStep)
	case "d":
		m.session.Bars().Orbit(orbitStep)
	case "+", "=":
		m.session.Bars().Zoom(zoomStep)
	case "-":
		m.session.Bars().Zoom(1 / zoomStep)
	case "t":
		m.theme = NextTheme(m.theme)
		m.st = newStyles(m.theme)
		m.notice = "theme " + m.theme.Name
	case "?":
		m.showHelp = !m.showHelp
	default:
		return m, nil
	}
	m.refresh()
	return m, nil
}

func (m *model) toggleExport() {
	s := m.session
	if s.Exporting() {
		if err := s.StopExport(); err != nil {
			m.notice = "export failed: " + err.Error()
			return
		}
		m.notice = "saved " + s.ExportPath()
		return
	}
	// a recorder disabled by a write error is still held; release it first
	if err := s.StopExport(); err != nil {
		m.logger.Warn("previous export", "err", err)
	}
	cfg := s.Config().Export
	sink, path, err := video.NewSink(cfg.Format, cfg.Path, m.logger)
	if err == nil {
		err = s.StartExport(sink, path)
	}
	if err != nil {
		m.notice = "export unavailable: " + err.Error()
		return
	}
	m.notice = "recording " + path
}

// click routes a press on preview cell (col, row). A press anywhere off the
// preview clears every selection.
func (m *model) click(col, row int) {
	var res dispatch.Result
	if col < 0 || row < 0 || col >= m.canvas.Width || row >= m.canvas.Height {
		res = m.session.Dispatch(dispatch.Outside(image.Pt(col, row)))
	} else {
		res = m.session.Click(m.canvas.ToSurface(col, row, m.session.CanvasSize()))
	}
	switch {
	case res.Kind == dispatch.GlobalDeselect:
		m.notice = "selection cleared"
	case res.Selection.Valid:
		m.notice = fmt.Sprintf("%s: tooth %d", res.Panel.ID(), res.Selection.Tooth)
	default:
		m.notice = res.Panel.ID().String() + ": nothing selected"
	}
}

// resize fits the preview into the space left of the side panel while
// keeping the surface aspect ratio.
func (m *model) resize() {
	surface := m.session.CanvasSize()
	cw := max(16, m.width-sideWidth-2*previewLeft)
	ch := max(4, m.height-previewTop-3)
	// a cell is 2 dots wide and 4 dots tall
	if fit := cw * surface.Y / (2 * surface.X); fit < ch {
		ch = max(4, fit)
	} else {
		cw = max(16, ch*2*surface.X/surface.Y)
	}
	if m.canvas == nil || m.canvas.Width != cw || m.canvas.Height != ch {
		m.canvas = NewCanvas(cw, ch)
	}
}

func (m *model) refresh() {
	frame := m.session.Preview()
	surface := frame.Bounds().Size()
	m.canvas.Clear()
	m.canvas.DrawImage(frame, m.bgLuma, lumaThreshold)
	for _, a := range m.session.Compositor().Assignments() {
		m.canvas.Rect(m.canvas.ToDots(a.Rect, surface))
	}
	m.preview = m.canvas.String()
}

func (m model) View() string {
	tl := m.session.Timeline()

	status := m.st.stopped.Render("■ PAUSED")
	if tl.Playing() {
		status = m.st.playing.Render("▶ PLAYING")
	}
	if m.session.Exporting() {
		status += "  " + m.st.recording.Render("● REC")
	}
	header := m.st.header.Render("forceview") + "  " + status

	canvasView := m.st.canvas.Render(m.preview)
	body := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, m.st.side.Render(m.sidePanel()))

	footer := m.st.help.Render("space play  [ ] step  click select  e export  c camera  ? help  q quit")
	if m.showHelp {
		footer = m.helpView()
	}
	return header + "\n" + body + "\n" + footer
}

func (m model) sidePanel() string {
	s := m.session
	tl := s.Timeline()
	times := tl.Timestamps()

	t, _ := tl.Last()
	end := times[len(times)-1]
	frac := 1.0
	if end > times[0] {
		frac = (t - times[0]) / (end - times[0])
	}

	var b strings.Builder
	row := func(label, value string) {
		b.WriteString(m.st.label.Render(label) + m.st.value.Render(value) + "\n")
	}
	row("time", fmt.Sprintf("%.2fs / %.2fs", t, end))
	b.WriteString(ProgressBar(frac, sideWidth-8) + "\n")
	row("frame", fmt.Sprintf("%d / %d", tl.Index(), tl.Len()))
	row("fps", fmt.Sprintf("%.0f", 1/tl.Interval().Seconds()))
	sel := "none"
	if cur, ok := s.Selected(); ok {
		sel = cur.String()
	}
	row("tooth", sel)
	if s.Exporting() {
		row("export", s.ExportPath())
	}
	if m.notice != "" {
		b.WriteString(m.st.help.Render(m.notice) + "\n")
	}

	b.WriteString("\n")
	if g := m.forceGraph(t); g != "" {
		b.WriteString(m.st.graph.Render(g) + "\n\n")
	}
	b.WriteString(m.st.detail.Render(s.DetailText()))
	return b.String()
}

// forceGraph plots the total force of the graphed teeth up to t.
func (m model) forceGraph(t float64) string {
	teeth := m.session.Graph().Teeth()
	var series [][]float64
	for _, tooth := range teeth {
		times, vals := m.session.Source().ForceSeries(tooth)
		n := sort.Search(len(times), func(i int) bool { return times[i] > t })
		if n < 2 {
			continue
		}
		series = append(series, vals[:n])
	}
	if len(series) == 0 {
		return ""
	}
	caption := "Force (N), teeth"
	for _, tooth := range teeth {
		caption += fmt.Sprintf(" %d", tooth)
	}
	return asciigraph.PlotMany(series,
		asciigraph.Height(6),
		asciigraph.Width(sideWidth-14),
		asciigraph.Caption(caption),
	)
}

func (m model) helpView() string {
	keys := [][2]string{
		{"space", "play / pause"},
		{"[ ]", "previous / next timestamp"},
		{"click", "select a tooth on the grid or bars"},
		{"a d", "orbit the bars view"},
		{"+ -", "zoom the bars view"},
		{"c", "reset the bars camera"},
		{"e", "start / stop export"},
		{"t", "cycle theme"},
		{"q", "quit"},
	}
	var b strings.Builder
	for _, k := range keys {
		b.WriteString(m.st.value.Render(fmt.Sprintf("%-7s", k[0])) + m.st.help.Render(k[1]) + "\n")
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.theme.Primary).
		Padding(0, 1).
		Render(strings.TrimRight(b.String(), "\n"))
}

// previewSize is the size of the braille preview in cells.
func (m model) previewSize() image.Point { return image.Pt(m.canvas.Width, m.canvas.Height) }

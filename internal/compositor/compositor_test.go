package compositor

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/forceview/internal/panel"
)

type solidPanel struct {
	id       panel.ID
	size     image.Point
	fill     color.RGBA
	fail     error
	empty    bool
	current  float64
	rendered bool
	renders  []float64
	order    *[]panel.ID
}

func (p *solidPanel) ID() panel.ID             { return p.id }
func (p *solidPanel) Size() image.Point        { return p.size }
func (p *solidPanel) InitializeStatic() error  { return nil }
func (p *solidPanel) Current() (float64, bool) { return p.current, p.rendered }

func (p *solidPanel) RenderAt(t float64) {
	p.current, p.rendered = t, true
	p.renders = append(p.renders, t)
	if p.order != nil {
		*p.order = append(*p.order, p.id)
	}
}

func (p *solidPanel) CaptureImage() (*image.RGBA, error) {
	if p.fail != nil {
		return nil, p.fail
	}
	if p.empty {
		return &image.RGBA{}, nil
	}
	img := image.NewRGBA(image.Rectangle{Max: p.size})
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = p.fill.R, p.fill.G, p.fill.B, p.fill.A
	}
	return img, nil
}

type frameLog struct {
	frames []*image.RGBA
	err    error
}

func (f *frameLog) WriteFrame(frame *image.RGBA) error {
	if f.err != nil {
		return f.err
	}
	f.frames = append(f.frames, frame)
	return nil
}

var (
	bg    = color.RGBA{210, 210, 210, 255}
	red   = color.RGBA{255, 0, 0, 255}
	green = color.RGBA{0, 255, 0, 255}
	blue  = color.RGBA{0, 0, 255, 255}
)

func threePanels() (*solidPanel, *solidPanel, *solidPanel) {
	return &solidPanel{id: panel.Grid, size: image.Pt(80, 60), fill: red},
		&solidPanel{id: panel.Bars, size: image.Pt(80, 60), fill: green},
		&solidPanel{id: panel.Graph, size: image.Pt(120, 40), fill: blue}
}

func TestComposeFillsRectanglesAndBackground(t *testing.T) {
	grid, bars, graph := threePanels()
	assignments := []Assignment{
		{Panel: grid, Rect: image.Rect(0, 0, 40, 30)},
		{Panel: bars, Rect: image.Rect(50, 0, 100, 30)},
		{Panel: graph, Rect: image.Rect(0, 40, 100, 60)},
	}
	c, err := New(image.Pt(100, 60), bg, assignments, nil)
	require.NoError(t, err)

	frame, errs := c.Compose(1.5)
	assert.Empty(t, errs)
	assert.Equal(t, image.Pt(100, 60), frame.Bounds().Size())

	assert.Equal(t, red, frame.RGBAAt(20, 15))
	assert.Equal(t, green, frame.RGBAAt(75, 15))
	assert.Equal(t, blue, frame.RGBAAt(50, 50))
	assert.Equal(t, bg, frame.RGBAAt(45, 10), "gap between top panels")
	assert.Equal(t, bg, frame.RGBAAt(10, 35), "gap above graph")
}

func TestComposeFailedCaptureLeavesBackground(t *testing.T) {
	grid, bars, graph := threePanels()
	bars.fail = panel.ErrNoImage
	c, err := New(image.Pt(100, 60), bg, DefaultAssignments(image.Pt(100, 60), 0.5, grid, bars, graph), nil)
	require.NoError(t, err)

	frame, errs := c.Compose(0)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], panel.ErrNoImage)

	assert.Equal(t, red, frame.RGBAAt(10, 10))
	assert.Equal(t, bg, frame.RGBAAt(75, 10))
	assert.Equal(t, blue, frame.RGBAAt(50, 45))
}

func TestComposeRestoresOverriddenTimestamp(t *testing.T) {
	grid, bars, graph := threePanels()
	grid.RenderAt(1.0)
	bars.RenderAt(2.0)
	c, err := New(image.Pt(100, 60), bg, DefaultAssignments(image.Pt(100, 60), 0.65, grid, bars, graph), nil)
	require.NoError(t, err)

	_, errs := c.Compose(2.0)
	assert.Empty(t, errs)

	cur, _ := grid.Current()
	assert.Equal(t, 1.0, cur, "grid returned to its live timestamp")
	assert.Equal(t, []float64{1.0, 2.0, 1.0}, grid.renders)
	assert.Equal(t, []float64{2.0}, bars.renders, "already current, no re-render")
	cur, ok := graph.Current()
	assert.True(t, ok)
	assert.Equal(t, 2.0, cur)
}

func TestComposeNonUniformScale(t *testing.T) {
	p := &solidPanel{id: panel.Grid, size: image.Pt(10, 10), fill: red}
	c, err := New(image.Pt(40, 20), bg, []Assignment{{Panel: p, Rect: image.Rect(0, 0, 40, 20)}}, nil)
	require.NoError(t, err)

	frame, _ := c.Compose(0)
	for _, pt := range []image.Point{{0, 0}, {39, 0}, {0, 19}, {39, 19}, {20, 10}} {
		assert.Equal(t, red, frame.RGBAAt(pt.X, pt.Y), "pixel %v", pt)
	}
}

func TestNewValidation(t *testing.T) {
	p := &solidPanel{size: image.Pt(10, 10)}

	_, err := New(image.Pt(0, 10), bg, nil, nil)
	assert.ErrorIs(t, err, ErrCanvasSize)

	_, err = New(image.Pt(50, 50), bg, []Assignment{
		{Panel: p, Rect: image.Rect(0, 0, 30, 30)},
		{Panel: p, Rect: image.Rect(20, 20, 50, 50)},
	}, nil)
	assert.ErrorIs(t, err, ErrOverlap)

	_, err = New(image.Pt(50, 50), bg, []Assignment{{Panel: p, Rect: image.Rect(40, 40, 60, 60)}}, nil)
	assert.ErrorIs(t, err, ErrOutside)
}

func TestDefaultAssignments(t *testing.T) {
	grid, bars, graph := threePanels()
	got := DefaultAssignments(image.Pt(1920, 1080), 0.65, grid, bars, graph)
	require.Len(t, got, 3)
	assert.Equal(t, image.Rect(0, 0, 960, 702), got[0].Rect)
	assert.Equal(t, image.Rect(960, 0, 1920, 702), got[1].Rect)
	assert.Equal(t, image.Rect(0, 702, 1920, 1080), got[2].Rect)

	assert.Len(t, DefaultAssignments(image.Pt(100, 100), 0.5, grid, nil, graph), 2)
}

func TestCaptureAndWrite(t *testing.T) {
	grid, bars, graph := threePanels()
	c, err := New(image.Pt(64, 48), bg, DefaultAssignments(image.Pt(64, 48), 0.65, grid, bars, graph), nil)
	require.NoError(t, err)

	assert.ErrorIs(t, c.CaptureAndWrite(0), ErrNoWriter)

	log := &frameLog{}
	c.SetWriter(log)
	require.NoError(t, c.CaptureAndWrite(0))
	require.NoError(t, c.CaptureAndWrite(0.1))
	require.Len(t, log.frames, 2)
	assert.NotSame(t, log.frames[0], log.frames[1], "fresh canvas per frame")
	assert.Equal(t, uint64(2), c.Frames())

	boom := errors.New("broken pipe")
	log.err = boom
	assert.ErrorIs(t, c.CaptureAndWrite(0.2), boom)
}

func TestComposeSamePanelTwice(t *testing.T) {
	grid, _, _ := threePanels()
	grid.current, grid.rendered = 1, true
	c, err := New(image.Pt(100, 40), bg, []Assignment{
		{Panel: grid, Rect: image.Rect(0, 0, 50, 40)},
		{Panel: grid, Rect: image.Rect(50, 0, 100, 40)},
	}, nil)
	require.NoError(t, err)

	frame, errs := c.Compose(2)
	assert.Empty(t, errs)
	assert.Equal(t, red, frame.RGBAAt(10, 10))
	assert.Equal(t, red, frame.RGBAAt(90, 10))
	assert.Equal(t, []float64{2, 1, 2, 1}, grid.renders)
}

func TestComposeEmptyCaptureLeavesBackground(t *testing.T) {
	grid, bars, graph := threePanels()
	graph.empty = true
	c, err := New(image.Pt(100, 60), bg, DefaultAssignments(image.Pt(100, 60), 0.5, grid, bars, graph), nil)
	require.NoError(t, err)

	frame, errs := c.Compose(0)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], panel.ErrNoImage)
	assert.Contains(t, errs[0].Error(), panel.Graph.String())

	assert.Equal(t, red, frame.RGBAAt(10, 10))
	assert.Equal(t, green, frame.RGBAAt(75, 10))
	assert.Equal(t, bg, frame.RGBAAt(50, 45))
}

func TestComposeRendersInAssignmentOrder(t *testing.T) {
	var order []panel.ID
	grid, bars, graph := threePanels()
	for _, p := range []*solidPanel{grid, bars, graph} {
		p.order = &order
	}
	c, err := New(image.Pt(100, 60), bg, []Assignment{
		{Panel: graph, Rect: image.Rect(0, 40, 100, 60)},
		{Panel: grid, Rect: image.Rect(0, 0, 50, 40)},
		{Panel: bars, Rect: image.Rect(50, 0, 100, 40)},
	}, nil)
	require.NoError(t, err)

	for _, ts := range []float64{0.5, 1.0} {
		_, errs := c.Compose(ts)
		require.Empty(t, errs)
	}
	// the second pass overrides and restores each panel before moving on
	want := []panel.ID{
		panel.Graph, panel.Grid, panel.Bars,
		panel.Graph, panel.Graph, panel.Grid, panel.Grid, panel.Bars, panel.Bars,
	}
	assert.Equal(t, want, order)
}

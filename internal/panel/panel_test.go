package panel

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/forceview/internal/forcedata"
	"github.com/san-kum/forceview/internal/layout"
	"github.com/san-kum/forceview/internal/scene"
)

const loadedIdx = 3

// fixture has 16 teeth with 4 sensors over 10 timestamps. At timestamps[3]
// tooth 5 reads [10,0,0,0], tooth 1 carries 30 and tooth 16 carries 20.
func fixture(t *testing.T) *forcedata.Matrix {
	t.Helper()
	times := make([]float64, 10)
	for i := range times {
		times[i] = float64(i) * 0.5
	}
	series := make(map[forcedata.Key][]float64)
	for tooth := 1; tooth <= 16; tooth++ {
		for sensor := 1; sensor <= 4; sensor++ {
			series[forcedata.Key{Tooth: tooth, Sensor: sensor}] = make([]float64, len(times))
		}
	}
	series[forcedata.Key{Tooth: 5, Sensor: 1}][loadedIdx] = 10
	series[forcedata.Key{Tooth: 1, Sensor: 2}][loadedIdx] = 30
	series[forcedata.Key{Tooth: 16, Sensor: 4}][loadedIdx] = 20
	series[forcedata.Key{Tooth: 2, Sensor: 1}][7] = 40

	m, err := forcedata.NewMatrixFromSeries(times, series)
	require.NoError(t, err)
	m.ComputeCenterOfForce(layout.Centers(layout.ArchCells(m.ToothIDs(), layout.GridArchWidth, layout.GridArchDepth)))
	return m
}

func newGrid(t *testing.T, src forcedata.Source) *GridPanel {
	t.Helper()
	cells := layout.ArchCells(src.ToothIDs(), layout.GridArchWidth, layout.GridArchDepth)
	g := NewGrid(src, cells, Options{Size: image.Pt(400, 300), MaxForce: 100})
	require.NoError(t, g.InitializeStatic())
	return g
}

func newBars(t *testing.T, src forcedata.Source) *BarsPanel {
	t.Helper()
	bases := layout.BarBases(src.ToothIDs(), layout.BarArchWidth, layout.BarArchDepth)
	b := NewBars(src, bases, Options{Size: image.Pt(400, 300), MaxForce: 100})
	require.NoError(t, b.InitializeStatic())
	return b
}

func TestBandBoundaries(t *testing.T) {
	tests := []struct {
		n    float64
		want int
	}{
		{0, 0},
		{0.009, 0},
		{0.01, 1},
		{0.10, 1},
		{0.25, 2},
		{0.5, 3},
		{0.75, 4},
		{0.9, 5},
		{1, 5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Band(tt.n), "band of %v", tt.n)
	}
	assert.Equal(t, scene.RGB(0.2, 0.4, 1), BandColor(0.10))
	assert.Equal(t, scene.RGB(0.9, 0, 0.2), BandColor(0.9))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, 0.1, Normalize(10, 100))
	assert.Equal(t, 1.0, Normalize(250, 100))
	assert.Zero(t, Normalize(0.0005, 100))
	assert.Zero(t, Normalize(-3, 100))
	assert.Zero(t, Normalize(10, 0))

	assert.Zero(t, BarHeight(0.0005, 100))
	assert.InDelta(t, MinBarHeight, BarHeight(0.001, 100), 1e-3)
	assert.Equal(t, MaxBarHeight, BarHeight(100, 100))
}

func TestPercentages(t *testing.T) {
	totals := map[int]float64{1: 30, 5: 10, 16: 20, 3: 0}
	pct := Percentages(totals, PositiveTotal([]float64{30, 10, 20, 0}))

	sum := 0.0
	for _, p := range pct {
		sum += p
	}
	assert.InDelta(t, 100, sum, 1e-9)
	assert.Equal(t, "16.7%", FormatPercent(pct[5]))

	zero := Percentages(map[int]float64{1: 0, 2: 0}, 0)
	for _, p := range zero {
		assert.Zero(t, p)
	}
}

func TestSideTotals(t *testing.T) {
	centers := map[int]float64{1: -3, 2: 0, 3: 0.005, 4: 2}
	totals := map[int]float64{1: 10, 2: 4, 3: 2, 4: 6}
	left, right := SideTotals(centers, totals)
	assert.Equal(t, 6.0+2+1, left)
	assert.Equal(t, 10.0+2+1, right)
}

func TestGridEndToEnd(t *testing.T) {
	src := fixture(t)
	g := newGrid(t, src)
	ts := src.Timestamps()[loadedIdx]

	g.RenderAt(ts)

	label := g.Scene().Find("Percent_Tooth_5")
	require.NotNil(t, label)
	assert.Equal(t, "16.7%", label.Shape.(*scene.Label).Text)

	quad := g.Scene().Find(HeatmapPrefix + "5").Shape.(*scene.Quad)
	assert.Equal(t, [4]float64{0, 0, 10, 0}, quad.Values, "sensor 1 sits top-left")
	assert.Equal(t, 100.0, quad.Max)

	left := g.Scene().Find("LeftBarPercent")
	right := g.Scene().Find("RightBarPercent")
	require.NotNil(t, left)
	require.NotNil(t, right)
	assert.Equal(t, "33%", left.Shape.(*scene.Label).Text)
	assert.Equal(t, "67%", right.Shape.(*scene.Label).Text)
}

func TestGridRenderReplacesDynamic(t *testing.T) {
	src := fixture(t)
	g := newGrid(t, src)
	ts := src.Timestamps()

	g.RenderAt(ts[loadedIdx])
	once := g.Scene().DynamicCount()
	static := g.Scene().StaticCount()

	g.RenderAt(ts[loadedIdx])
	assert.Equal(t, once, g.Scene().DynamicCount(), "idempotent render")
	assert.Equal(t, "16.7%", g.Scene().Find("Percent_Tooth_5").Shape.(*scene.Label).Text)

	g.RenderAt(ts[loadedIdx+1])
	g.RenderAt(ts[loadedIdx])
	assert.Equal(t, once, g.Scene().DynamicCount())
	assert.Equal(t, static, g.Scene().StaticCount(), "static actors untouched")

	g.RenderAt(ts[8])
	assert.Equal(t, "0.0%", g.Scene().Find("Percent_Tooth_5").Shape.(*scene.Label).Text)
	cur, ok := g.Current()
	assert.True(t, ok)
	assert.Equal(t, ts[8], cur)
}

func TestGridInitializeTwice(t *testing.T) {
	g := newGrid(t, fixture(t))
	assert.ErrorIs(t, g.InitializeStatic(), ErrAlreadyInitialized)
}

func TestGridSelection(t *testing.T) {
	src := fixture(t)
	g := newGrid(t, src)
	g.RenderAt(src.Timestamps()[loadedIdx])

	ts := src.Timestamps()[loadedIdx]
	heat := g.Scene().Find(HeatmapPrefix + "3")

	g.HandleSelection(Select(3))
	assert.Equal(t, Select(3), g.Selection())
	outline := g.Scene().Find(OutlinePrefix + "3").Shape.(*scene.Rect)
	assert.Equal(t, 3.0, outline.StrokeWidth)
	assert.Same(t, heat, g.Scene().Find(HeatmapPrefix+"3"), "selection alone does not rebuild dynamic actors")

	g.RenderAt(ts)
	assert.Equal(t, 1.0, g.Scene().Find(HeatmapPrefix+"3").Shape.(*scene.Quad).Alpha)

	g.HandleSelection(Select(3))
	assert.Equal(t, None, g.Selection(), "second click toggles off")
	assert.Equal(t, 1.0, outline.StrokeWidth)

	g.HandleSelection(Select(3))
	g.HandleSelection(Select(7))
	g.RenderAt(ts)
	assert.Equal(t, Select(7), g.Selection())
	assert.Equal(t, 1.0, outline.StrokeWidth, "previous highlight cleared")
	assert.Equal(t, 0.75, g.Scene().Find(HeatmapPrefix+"3").Shape.(*scene.Quad).Alpha)

	g.HandleSelection(None)
	assert.False(t, g.Selection().Valid)
}

func TestGridCaptureAndPick(t *testing.T) {
	src := fixture(t)
	g := newGrid(t, src)
	g.RenderAt(src.Timestamps()[loadedIdx])

	img, err := g.CaptureImage()
	require.NoError(t, err)
	assert.Equal(t, image.Pt(400, 300), img.Bounds().Size())

	var c5 forcedata.Point
	for _, c := range g.cells {
		if c.ToothID == 5 {
			c5 = c.Center
		}
	}
	x, y, _, _ := g.Projection().Project(scene.V(c5.X, c5.Y, 0), 400, 300)
	name, ok := g.Pick(image.Pt(int(x), int(y)))
	require.True(t, ok)
	id, err := g.ParseElement(name)
	require.NoError(t, err)
	assert.Equal(t, 5, id)

	_, ok = g.Pick(image.Pt(1, 1))
	assert.False(t, ok)

	g.HandleSelection(Select(5))
	again, err := g.CaptureImage()
	require.NoError(t, err)
	assert.NotSame(t, img, again, "selection forces a fresh raster")
}

func TestParseElement(t *testing.T) {
	g := newGrid(t, fixture(t))
	b := newBars(t, fixture(t))

	tests := []struct {
		p    Selectable
		name string
		want int
		ok   bool
	}{
		{g, "Outline_Tooth_12", 12, true},
		{g, "Heatmap_Tooth_3", 3, true},
		{g, "Heatmap_Tooth_x", 0, false},
		{g, "Bar_Tooth_3", 0, false},
		{b, "Bar_Tooth_9", 9, true},
		{b, "Time", 0, false},
	}
	for _, tt := range tests {
		id, err := tt.p.ParseElement(tt.name)
		if tt.ok {
			assert.NoError(t, err, tt.name)
			assert.Equal(t, tt.want, id, tt.name)
		} else {
			assert.ErrorIs(t, err, ErrBadElement, tt.name)
		}
	}
}

func TestGridNoData(t *testing.T) {
	src := fixture(t)
	g := NewGrid(src, nil, Options{Size: image.Pt(200, 100)})
	require.NoError(t, g.InitializeStatic())
	g.RenderAt(0)

	assert.Equal(t, 0, g.Scene().DynamicCount())
	require.NotNil(t, g.Scene().Find("NoData"))
	assert.Equal(t, NoGridData, g.Scene().Find("NoData").Shape.(*scene.Overlay).Text)
}

func TestBarsEndToEnd(t *testing.T) {
	src := fixture(t)
	b := newBars(t, src)
	b.RenderAt(src.Timestamps()[loadedIdx])

	bar := b.Scene().Find(BarPrefix + "5")
	require.NotNil(t, bar)
	box := bar.Shape.(*scene.Box)
	assert.Equal(t, scene.WithAlpha(scene.RGB(0.2, 0.4, 1), 0.92), box.Color)
	assert.InDelta(t, 0.1+0.1*4.9, box.Height, 1e-9)

	assert.Nil(t, b.Scene().Find(BarPrefix+"6"), "unloaded teeth have no bar")
	// time text plus three loaded teeth
	assert.Equal(t, 4, b.Scene().DynamicCount())

	b.RenderAt(src.Timestamps()[0])
	assert.Equal(t, 1, b.Scene().DynamicCount())
}

func TestBarsSelectionAndPick(t *testing.T) {
	src := fixture(t)
	b := newBars(t, src)
	b.RenderAt(src.Timestamps()[loadedIdx])

	var base layout.Base
	for _, p := range b.bases {
		if p.ToothID == 5 {
			base = p
		}
	}
	x, y, _, ok := b.Camera().Project(scene.V(base.X, base.Y, 0.3), 400, 300)
	require.True(t, ok)
	name, hit := b.Pick(image.Pt(int(x), int(y)))
	require.True(t, hit)
	assert.Equal(t, BarPrefix+"5", name)

	ts := src.Timestamps()[loadedIdx]
	b.HandleSelection(Select(5))
	assert.Nil(t, b.Scene().Find(BarPrefix+"5").Shape.(*scene.Box).Outline, "outline waits for the next render")
	b.RenderAt(ts)
	assert.NotNil(t, b.Scene().Find(BarPrefix+"5").Shape.(*scene.Box).Outline)
	b.HandleSelection(Select(5))
	b.RenderAt(ts)
	assert.Nil(t, b.Scene().Find(BarPrefix+"5").Shape.(*scene.Box).Outline)

	pos := b.Camera().Position
	b.Orbit(20)
	assert.NotEqual(t, pos, b.Camera().Position)
	b.ResetCamera()
	assert.Equal(t, pos, b.Camera().Position)

	dist := b.Camera().Position.Sub(b.Camera().FocalPoint).Length()
	b.Zoom(2)
	assert.InDelta(t, dist/2, b.Camera().Position.Sub(b.Camera().FocalPoint).Length(), 1e-9)
	b.Zoom(0.5)
	assert.InDelta(t, dist, b.Camera().Position.Sub(b.Camera().FocalPoint).Length(), 1e-9)
}

func TestGraph(t *testing.T) {
	src := fixture(t)
	g := NewGraph(src, 100, Options{Size: image.Pt(600, 200)})
	require.NoError(t, g.InitializeStatic())

	assert.Equal(t, "Bite Force Over Time (No tooth selected)", g.Title())
	g.SetTeeth([]int{1, 2})
	assert.Equal(t, "Bite Force Over Time (Teeth: 1, 2)", g.Title())

	lo, hi := g.YRange()
	assert.InDelta(t, -2.0, lo, 1e-9)
	assert.InDelta(t, 44.0, hi, 1e-9)

	g.SetTeeth([]int{5})
	lo, hi = g.YRange()
	assert.InDelta(t, -0.5, lo, 1e-9, "floor of 10 applies")
	assert.InDelta(t, 11.0, hi, 1e-9)

	g.RenderAt(src.Timestamps()[loadedIdx])
	img, err := g.CaptureImage()
	require.NoError(t, err)
	assert.Equal(t, image.Pt(600, 200), img.Bounds().Size())

	cached, err := g.CaptureImage()
	require.NoError(t, err)
	assert.Same(t, img, cached, "clean graph reuses its raster")
}

func TestVisiblePoints(t *testing.T) {
	times := []float64{0, 1, 2, 3}
	vals := []float64{5, 6, 7, 8}
	assert.Len(t, visiblePoints(times, vals, 1.5), 2)
	assert.Len(t, visiblePoints(times, vals, 2), 3, "timestamp itself included")
	assert.Len(t, visiblePoints(times, vals, -1), 0)
}

func TestDetail(t *testing.T) {
	src := fixture(t)
	got := Detail(src, 5, src.Timestamps()[loadedIdx])
	want := "Tooth ID: 5\nForces @ 1.5s:\n S1:10.0N\n S2:0.0N\n S3:0.0N\n S4:0.0N\nTotal: 10.0N"
	assert.Equal(t, want, got)
}

func TestRenderBetweenSamplesUsesNearestTimestamp(t *testing.T) {
	src := fixture(t)
	loaded := src.Timestamps()[loadedIdx]
	between := loaded - 0.1

	g := newGrid(t, src)
	g.RenderAt(between)

	assert.Equal(t, "16.7%", g.Scene().Find("Percent_Tooth_5").Shape.(*scene.Label).Text)
	assert.Equal(t, "Time: 1.5s", g.Scene().Find("Time").Shape.(*scene.Overlay).Text)

	marker := g.Scene().Find("CoFMarker")
	require.NotNil(t, marker, "heatmap frame has force, so its center of force is drawn")
	var want forcedata.Point
	for _, p := range src.Trajectory() {
		if p.T == loaded {
			want = p.Point
		}
	}
	center := marker.Shape.(*scene.Disc).Center
	assert.InDelta(t, want.X, center.X, 1e-9)
	assert.InDelta(t, want.Y, center.Y, 1e-9)

	cur, _ := g.Current()
	assert.Equal(t, between, cur, "requested timestamp is kept")

	b := newBars(t, src)
	b.RenderAt(between)
	assert.Equal(t, "Time: 1.5s", b.Scene().Find("Time").Shape.(*scene.Overlay).Text)

	assert.Equal(t, Detail(src, 5, loaded), Detail(src, 5, between))
}

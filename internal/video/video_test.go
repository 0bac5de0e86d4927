package video

import (
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/forceview/internal/config"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestMemorySinkContract(t *testing.T) {
	m := &Memory{}
	assert.ErrorIs(t, m.WriteFrame(solid(4, 4, color.RGBA{A: 255})), ErrNotOpen)
	assert.NoError(t, m.Close(), "close before open")

	require.NoError(t, m.Open(4, 3, 10))
	assert.ErrorIs(t, m.Open(4, 3, 10), ErrAlreadyOpen)
	assert.ErrorIs(t, m.WriteFrame(solid(3, 4, color.RGBA{})), ErrFrameSize)
	assert.ErrorIs(t, m.WriteFrame(nil), ErrFrameSize)

	src := solid(4, 3, color.RGBA{R: 9, A: 255})
	require.NoError(t, m.WriteFrame(src))
	src.Pix[0] = 200
	assert.Equal(t, uint8(9), m.Frames[0].Pix[0], "frame copied")

	assert.NoError(t, m.Close())
	assert.NoError(t, m.Close())
	assert.Equal(t, 1, m.Closed())
}

func TestOpenRejectsBadGeometry(t *testing.T) {
	m := &Memory{}
	assert.Error(t, m.Open(0, 10, 10))
	assert.Error(t, m.Open(10, 10, 0))
}

func TestPNGSequence(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "frames")
	s := NewPNGSequence(dir)
	require.NoError(t, s.Open(8, 6, 5))
	require.NoError(t, s.WriteFrame(solid(8, 6, color.RGBA{G: 255, A: 255})))
	require.NoError(t, s.WriteFrame(solid(8, 6, color.RGBA{B: 255, A: 255})))
	require.NoError(t, s.Close())
	assert.Equal(t, 2, s.Count())

	f, err := os.Open(filepath.Join(dir, "frame_00001.png"))
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(8, 6), img.Bounds().Size())
	_, _, b, _ := img.At(3, 3).RGBA()
	assert.Equal(t, uint32(0xffff), b)
}

func TestGIF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.gif")
	g := NewGIF(path)
	require.NoError(t, g.Open(10, 10, 10))
	for i := 0; i < 3; i++ {
		require.NoError(t, g.WriteFrame(solid(10, 10, color.RGBA{R: uint8(80 * i), A: 255})))
	}
	assert.Equal(t, 3, g.Len())
	require.NoError(t, g.Close())
	require.NoError(t, g.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	anim, err := gif.DecodeAll(f)
	require.NoError(t, err)
	assert.Len(t, anim.Image, 3)
	assert.Equal(t, []int{10, 10, 10}, anim.Delay)
}

func TestFFMPEGUnavailable(t *testing.T) {
	f := NewFFMPEG(filepath.Join(t.TempDir(), "out.mp4"), nil)
	f.Binary = "forceview-no-such-encoder"
	assert.ErrorIs(t, f.Open(64, 48, 10), ErrUnavailable)
	assert.ErrorIs(t, f.WriteFrame(solid(64, 48, color.RGBA{})), ErrNotOpen)
	assert.NoError(t, f.Close())
}

func TestFFMPEGArgs(t *testing.T) {
	f := NewFFMPEG("out.mp4", nil)
	f.w, f.h, f.fps = 1920, 1080, 10
	args := strings.Join(f.args(), " ")
	assert.Contains(t, args, "-f rawvideo -pix_fmt rgba -s 1920x1080 -r 10.00 -i -")
	assert.True(t, strings.HasSuffix(args, "out.mp4"))
}

func TestNewSink(t *testing.T) {
	s, path, err := NewSink(config.FormatGIF, "", nil)
	require.NoError(t, err)
	assert.IsType(t, &GIF{}, s)
	assert.Regexp(t, `^forceview-[0-9a-f]{8}\.gif$`, path)

	s, path, err = NewSink(config.FormatPNG, "dir", nil)
	require.NoError(t, err)
	assert.IsType(t, &PNGSequence{}, s)
	assert.Equal(t, "dir", path)

	s, _, err = NewSink(config.FormatFFMPEG, "", nil)
	require.NoError(t, err)
	assert.IsType(t, &FFMPEG{}, s)

	_, _, err = NewSink("webm", "", nil)
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

// gatedSink blocks each write until released.
type gatedSink struct {
	Memory
	gate chan struct{}
	fail error
}

func (g *gatedSink) WriteFrame(frame *image.RGBA) error {
	<-g.gate
	if g.fail != nil {
		return g.fail
	}
	return g.Memory.WriteFrame(frame)
}

func TestRecorderWritesAndCloses(t *testing.T) {
	m := &Memory{}
	r, err := Record(m, 4, 4, 10, nil)
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		require.NoError(t, r.WriteFrame(solid(4, 4, color.RGBA{A: 255})))
	}
	require.NoError(t, r.Close())
	require.NoError(t, r.Close())

	assert.Equal(t, uint64(2), r.Written())
	assert.Len(t, m.Frames, 2)
	assert.Equal(t, 1, m.Closed())
	assert.ErrorIs(t, r.WriteFrame(solid(4, 4, color.RGBA{})), ErrClosed)
}

func TestRecorderDropsWhenEncoderIsBehind(t *testing.T) {
	g := &gatedSink{gate: make(chan struct{})}
	r, err := Record(g, 2, 2, 10, nil)
	require.NoError(t, err)

	frame := solid(2, 2, color.RGBA{A: 255})
	// one frame in the writer, QueueSize waiting, the rest dropped
	require.NoError(t, r.WriteFrame(frame))
	assert.Eventually(t, func() bool { return len(r.queue) == 0 }, time.Second, time.Millisecond)
	for i := 0; i < QueueSize+3; i++ {
		require.NoError(t, r.WriteFrame(frame))
	}
	assert.Equal(t, uint64(3), r.Dropped())

	close(g.gate)
	require.NoError(t, r.Close())
	assert.Equal(t, uint64(1+QueueSize), r.Written())
}

func TestRecorderSurfacesWriteError(t *testing.T) {
	boom := errors.New("disk full")
	g := &gatedSink{gate: make(chan struct{}), fail: boom}
	close(g.gate)
	r, err := Record(g, 2, 2, 10, nil)
	require.NoError(t, err)

	require.NoError(t, r.WriteFrame(solid(2, 2, color.RGBA{})))
	assert.Eventually(t, func() bool { return r.WriteFrame(solid(2, 2, color.RGBA{})) != nil }, time.Second, time.Millisecond)
	assert.ErrorIs(t, r.Close(), boom)
	assert.Zero(t, r.Written())
}

func TestRecordOpenFailure(t *testing.T) {
	f := NewFFMPEG("x.mp4", nil)
	f.Binary = "forceview-no-such-encoder"
	_, err := Record(f, 4, 4, 10, nil)
	assert.ErrorIs(t, err, ErrUnavailable)
}

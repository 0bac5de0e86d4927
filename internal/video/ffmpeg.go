package video

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os/exec"
	"strings"
)

// FFMPEG pipes raw RGBA frames into an ffmpeg process that encodes H.264.
type FFMPEG struct {
	geometry
	Binary string
	path   string
	logger *slog.Logger

	encoder *exec.Cmd
	pipe    io.WriteCloser
	stderr  bytes.Buffer
	row     []byte
}

func NewFFMPEG(path string, logger *slog.Logger) *FFMPEG {
	if logger == nil {
		logger = slog.Default()
	}
	return &FFMPEG{Binary: "ffmpeg", path: path, logger: logger.With("sink", "ffmpeg")}
}

func (f *FFMPEG) Path() string { return f.path }

func (f *FFMPEG) args() []string {
	return []string{
		"-v", "error",
		"-y",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", f.w, f.h),
		"-r", fmt.Sprintf("%.02f", f.fps),
		"-i", "-",
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "18",
		// libx264 needs even dimensions for yuv420p
		"-vf", "pad=ceil(iw/2)*2:ceil(ih/2)*2",
		"-pix_fmt", "yuv420p",
		f.path,
	}
}

func (f *FFMPEG) Open(width, height int, fps float64) error {
	bin, err := exec.LookPath(f.Binary)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := f.start(width, height, fps); err != nil {
		return err
	}

	f.encoder = exec.Command(bin, f.args()...)
	f.encoder.Stderr = &f.stderr
	f.pipe, err = f.encoder.StdinPipe()
	if err != nil {
		f.open = false
		return fmt.Errorf("ffmpeg stdin: %w", err)
	}
	if err := f.encoder.Start(); err != nil {
		f.open = false
		f.pipe = nil
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	f.logger.Info("encoding", "path", f.path, "size", fmt.Sprintf("%dx%d", width, height), "fps", fps)
	return nil
}

func (f *FFMPEG) WriteFrame(frame *image.RGBA) error {
	if err := f.check(frame); err != nil {
		return err
	}
	stride := f.w * 4
	if frame.Stride == stride && frame.Rect.Min == (image.Point{}) {
		_, err := f.pipe.Write(frame.Pix[:stride*f.h])
		return err
	}
	for y := frame.Rect.Min.Y; y < frame.Rect.Max.Y; y++ {
		off := frame.PixOffset(frame.Rect.Min.X, y)
		f.row = append(f.row[:0], frame.Pix[off:off+stride]...)
		if _, err := f.pipe.Write(f.row); err != nil {
			return err
		}
	}
	return nil
}

func (f *FFMPEG) Close() error {
	if f.pipe == nil {
		return nil
	}
	f.pipe.Close()
	err := f.encoder.Wait()
	f.pipe, f.encoder, f.open = nil, nil, false
	if err != nil {
		if msg := strings.TrimSpace(f.stderr.String()); msg != "" {
			return fmt.Errorf("ffmpeg: %w: %s", err, msg)
		}
		return fmt.Errorf("ffmpeg: %w", err)
	}
	return nil
}

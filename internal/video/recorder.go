package video

import (
	"errors"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"
)

// QueueSize bounds the frames waiting for the encoder.
const QueueSize = 2

// Recorder owns a sink for one export session. Frames are handed to a
// writer goroutine through a bounded queue; when the queue is full the
// frame is dropped so the caller never waits on the encoder.
type Recorder struct {
	sink   Sink
	logger *slog.Logger

	queue chan *image.RGBA
	done  chan struct{}

	mu       sync.Mutex
	closed   bool
	blocking bool

	errMu sync.Mutex
	err   error

	written atomic.Uint64
	dropped atomic.Uint64

	closeOnce sync.Once
	closeErr  error
}

// Record opens sink and starts the writer goroutine.
func Record(sink Sink, width, height int, fps float64, logger *slog.Logger) (*Recorder, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := sink.Open(width, height, fps); err != nil {
		sink.Close()
		return nil, err
	}
	r := &Recorder{
		sink:   sink,
		logger: logger.With("component", "recorder"),
		queue:  make(chan *image.RGBA, QueueSize),
		done:   make(chan struct{}),
	}
	go r.loop()
	return r, nil
}

func (r *Recorder) loop() {
	defer close(r.done)
	for frame := range r.queue {
		if r.failed() != nil {
			continue
		}
		if err := r.sink.WriteFrame(frame); err != nil {
			r.logger.Error("write frame", "err", err)
			r.errMu.Lock()
			r.err = err
			r.errMu.Unlock()
			continue
		}
		r.written.Add(1)
	}
}

func (r *Recorder) failed() error {
	r.errMu.Lock()
	defer r.errMu.Unlock()
	return r.err
}

// SetBlocking makes WriteFrame wait for queue space instead of dropping,
// for offline exports where no frame may be lost.
func (r *Recorder) SetBlocking(b bool) {
	r.mu.Lock()
	r.blocking = b
	r.mu.Unlock()
}

// WriteFrame queues a frame. It returns the sink's first write error so the
// caller can stop exporting; the frame must not be modified afterwards.
func (r *Recorder) WriteFrame(frame *image.RGBA) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	if err := r.failed(); err != nil {
		return err
	}
	if r.blocking {
		r.queue <- frame
		return nil
	}
	select {
	case r.queue <- frame:
	default:
		if n := r.dropped.Add(1); n == 1 || n%100 == 0 {
			r.logger.Warn("encoder behind, dropping frames", "dropped", n)
		}
	}
	return nil
}

func (r *Recorder) Written() uint64 { return r.written.Load() }
func (r *Recorder) Dropped() uint64 { return r.dropped.Load() }

// Close drains queued frames and closes the sink. It is idempotent.
func (r *Recorder) Close() error {
	r.closeOnce.Do(func() {
		r.mu.Lock()
		r.closed = true
		close(r.queue)
		r.mu.Unlock()

		<-r.done
		r.closeErr = errors.Join(r.failed(), r.sink.Close())
		r.logger.Info("recording closed", "written", r.Written(), "dropped", r.Dropped())
	})
	return r.closeErr
}

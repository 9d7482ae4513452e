// ABOUTME: Bridge between push-style device callbacks and blocking interleaved reads
// ABOUTME: Shared by the malgo and PulseAudio drivers
package capture

import (
	"context"
	"fmt"
	"sync"
	"syscall"
)

// ringSeconds is how much captured audio the ring buffer holds between reads
const ringSeconds = 4

// ringStream buffers callback audio until a reader takes it. The ring is
// allocated on Commit once the frame size is known.
type ringStream struct {
	ring   *RingBuffer
	notify chan struct{}
	done   chan struct{}
	once   sync.Once
}

func newRingStream() *ringStream {
	return &ringStream{
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// allocate sizes the ring for ringSeconds of audio
func (s *ringStream) allocate(rate, frameBytes int) {
	s.ring = NewRingBuffer(rate * ringSeconds * frameBytes)
}

// Write stores callback audio and wakes a blocked reader. Bytes that do not
// fit are dropped, so the callback never blocks.
func (s *ringStream) Write(p []byte) (int, error) {
	s.ring.Write(p)
	select {
	case s.notify <- struct{}{}:
	default:
	}
	return len(p), nil
}

// read fills buf[:need] and returns how many bytes were copied
func (s *ringStream) read(ctx context.Context, buf []byte, need int) (int, error) {
	if s.ring == nil {
		return 0, nativeErr("read", syscall.EBADF, nil)
	}
	if need > len(buf) {
		return 0, nativeErr("read", syscall.EINVAL, fmt.Errorf("buffer holds %d bytes, need %d", len(buf), need))
	}

	got := 0
	for got < need {
		got += s.ring.Read(buf[got:need])
		if got == need {
			break
		}

		select {
		case <-s.notify:
		case <-s.done:
			return got, nativeErr("read", syscall.EBADF, fmt.Errorf("device closed"))
		case <-ctx.Done():
			return got, ctx.Err()
		}
	}
	return got, nil
}

func (s *ringStream) overruns() int {
	if s.ring == nil {
		return 0
	}
	return s.ring.Overruns()
}

// close wakes blocked readers with EBADF
func (s *ringStream) close() {
	s.once.Do(func() { close(s.done) })
}

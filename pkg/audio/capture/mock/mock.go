// ABOUTME: In-memory capture driver for tests
// ABOUTME: Scripts negotiation answers and read results and records every call
package mock

import (
	"context"
	"sync"

	"github.com/heywifi/heywifi-go/pkg/audio"
	"github.com/heywifi/heywifi-go/pkg/audio/capture"
)

// Read is one scripted ReadInterleaved result. Fill is copied into the
// buffer; Block makes the read wait for ctx to end.
type Read struct {
	Fill   []byte
	Frames int
	Err    error
	Block  bool
}

// Driver hands out a single Handle
type Driver struct {
	OpenErr error
	Handle  *Handle
}

// NewDriver returns a driver whose handle accepts everything
func NewDriver() *Driver {
	return &Driver{Handle: &Handle{}}
}

func (d *Driver) Name() string { return "mock" }

func (d *Driver) Open(device string) (capture.Handle, error) {
	d.Handle.record("open " + device)
	if d.OpenErr != nil {
		return nil, d.OpenErr
	}
	return d.Handle, nil
}

// Handle records calls and answers from its fields
type Handle struct {
	AccessErr   error
	FormatErr   error
	RateErr     error
	ChannelsErr error
	CommitErr   error
	DrainErr    error
	CloseErr    error

	// NegotiatedRate overrides the rate returned by SetRateNear when non-zero
	NegotiatedRate int

	// Reads are consumed in order; once exhausted reads return silence
	Reads []Read

	mu          sync.Mutex
	calls       []string
	Format      audio.SampleFormat
	Rate        int
	Channels    int
	ReadCount   int
	DrainCount  int
	CloseCount  int
	ReadFrames  []int
	afterReadFn func(n int)
}

// OnRead registers fn to run after every read
func (h *Handle) OnRead(fn func(n int)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.afterReadFn = fn
}

func (h *Handle) record(call string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, call)
}

// Mark appends an external event to the call log so tests can check ordering
// against collaborators
func (h *Handle) Mark(event string) {
	h.record(event)
}

// Calls returns the recorded call sequence
func (h *Handle) Calls() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.calls...)
}

func (h *Handle) SetAccess(access capture.Access) error {
	h.record("access")
	return h.AccessErr
}

func (h *Handle) SetFormat(format audio.SampleFormat) error {
	h.record("format")
	h.Format = format
	return h.FormatErr
}

func (h *Handle) SetRateNear(rate int) (int, error) {
	h.record("rate")
	if h.RateErr != nil {
		return 0, h.RateErr
	}
	h.Rate = rate
	if h.NegotiatedRate != 0 {
		h.Rate = h.NegotiatedRate
	}
	return h.Rate, nil
}

func (h *Handle) SetChannels(channels int) error {
	h.record("channels")
	h.Channels = channels
	return h.ChannelsErr
}

func (h *Handle) Commit() error {
	h.record("commit")
	return h.CommitErr
}

func (h *Handle) ReadInterleaved(ctx context.Context, buf []byte, frames int) (int, error) {
	h.record("read")

	h.mu.Lock()
	var next Read
	scripted := h.ReadCount < len(h.Reads)
	if scripted {
		next = h.Reads[h.ReadCount]
	}
	h.ReadCount++
	h.ReadFrames = append(h.ReadFrames, frames)
	after := h.afterReadFn
	h.mu.Unlock()

	n := frames
	if scripted {
		if next.Block {
			<-ctx.Done()
			return 0, ctx.Err()
		}
		if next.Err != nil {
			return next.Frames, next.Err
		}
		for i := range buf {
			buf[i] = 0
		}
		copy(buf, next.Fill)
		if next.Frames != 0 {
			n = next.Frames
		}
	}

	if after != nil {
		after(n)
	}
	return n, nil
}

func (h *Handle) Drain() error {
	h.record("drain")
	h.mu.Lock()
	h.DrainCount++
	h.mu.Unlock()
	return h.DrainErr
}

func (h *Handle) Close() error {
	h.record("close")
	h.mu.Lock()
	h.CloseCount++
	h.mu.Unlock()
	return h.CloseErr
}

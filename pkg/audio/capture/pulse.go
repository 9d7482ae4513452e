// ABOUTME: PulseAudio capture driver speaking the native protocol
// ABOUTME: Record stream data lands in the shared ring stream and is drained by blocking reads
package capture

import (
	"context"
	"fmt"
	"sync"
	"syscall"

	"github.com/jfreymuth/pulse"
	"github.com/jfreymuth/pulse/proto"
	"go.uber.org/zap"

	"github.com/heywifi/heywifi-go/pkg/audio"
)

// PulseDriver records from a PulseAudio (or PipeWire-pulse) server
type PulseDriver struct {
	logger *zap.Logger
}

// NewPulseDriver creates a PulseAudio driver
func NewPulseDriver(logger *zap.Logger) *PulseDriver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PulseDriver{logger: logger}
}

func (d *PulseDriver) Name() string { return "pulse" }

// Open connects to the server and resolves the source by name. "default"
// leaves the choice to the server.
func (d *PulseDriver) Open(device string) (Handle, error) {
	client, err := pulse.NewClient()
	if err != nil {
		return nil, nativeErr("connect", syscall.EIO, err)
	}

	h := &pulseHandle{
		logger:   d.logger,
		client:   client,
		format:   audio.FormatF32LE,
		rate:     DefaultSampleRate,
		channels: DefaultChannels,
		stream:   newRingStream(),
	}

	if device != DefaultDevice {
		source, err := client.SourceByID(device)
		if err != nil {
			h.Close()
			return nil, nativeErr(fmt.Sprintf("open %q", device), syscall.ENODEV, err)
		}
		h.source = source
	}
	return h, nil
}

type pulseHandle struct {
	logger *zap.Logger
	client *pulse.Client
	source *pulse.Source
	record *pulse.RecordStream

	format   audio.SampleFormat
	rate     int
	channels int

	stream *ringStream

	mu      sync.Mutex
	stopped bool
	closed  bool
}

func (h *pulseHandle) SetAccess(access Access) error {
	if access != AccessRWInterleaved {
		return nativeErr("set access "+access.String(), syscall.EINVAL, nil)
	}
	return nil
}

func (h *pulseHandle) SetFormat(format audio.SampleFormat) error {
	if _, err := pulseFormat(format); err != nil {
		return nativeErr("set format", syscall.EINVAL, err)
	}
	h.format = format
	return nil
}

// SetRateNear picks the nearest standard rate; the server resamples
func (h *pulseHandle) SetRateNear(rate int) (int, error) {
	h.rate = nearestRate(rate)
	return h.rate, nil
}

// SetChannels accepts mono or stereo channel maps
func (h *pulseHandle) SetChannels(channels int) error {
	if channels != 1 && channels != 2 {
		return nativeErr("set channels", syscall.EINVAL, fmt.Errorf("%d channels (pulse supports 1 or 2)", channels))
	}
	h.channels = channels
	return nil
}

// Commit creates and starts the record stream
func (h *pulseHandle) Commit() error {
	format, err := pulseFormat(h.format)
	if err != nil {
		return nativeErr("commit", syscall.EINVAL, err)
	}

	h.stream.allocate(h.rate, h.format.BytesPerSample()*h.channels)

	opts := []pulse.RecordOption{pulse.RecordSampleRate(h.rate), pulse.RecordMono}
	if h.channels == 2 {
		opts[1] = pulse.RecordStereo
	}
	if h.source != nil {
		opts = append(opts, pulse.RecordSource(h.source))
	}

	record, err := h.client.NewRecord(pulse.NewWriter(h.stream, format), opts...)
	if err != nil {
		return nativeErr("create record stream", syscall.EIO, err)
	}
	record.Start()
	h.record = record
	return nil
}

// ReadInterleaved blocks until frames frames were copied out of the ring buffer
func (h *pulseHandle) ReadInterleaved(ctx context.Context, buf []byte, frames int) (int, error) {
	frameBytes := h.format.BytesPerSample() * h.channels
	got, err := h.stream.read(ctx, buf, frames*frameBytes)
	if err != nil {
		if ctx.Err() == nil && h.record != nil && h.record.Error() != nil {
			err = nativeErr("read", syscall.EIO, h.record.Error())
		}
		return got / frameBytes, err
	}

	if overruns := h.stream.overruns(); overruns > 0 {
		h.logger.Debug("capture overruns", zap.Int("count", overruns))
	}
	return frames, nil
}

// Drain stops the record stream
func (h *pulseHandle) Drain() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.record == nil || h.stopped {
		return nil
	}
	h.stopped = true
	h.record.Stop()
	return nil
}

// Close releases the stream and the server connection exactly once
func (h *pulseHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true
	h.stream.close()

	if h.record != nil {
		h.record.Close()
		h.record = nil
	}
	if h.client != nil {
		h.client.Close()
		h.client = nil
	}
	return nil
}

// pulseFormat maps a sample format to the PulseAudio wire format. The client
// library has no packed 24-bit format, so s24 is rejected.
func pulseFormat(format audio.SampleFormat) (byte, error) {
	switch format {
	case audio.FormatU8:
		return proto.FormatUint8, nil
	case audio.FormatS16LE:
		return proto.FormatInt16LE, nil
	case audio.FormatS32LE:
		return proto.FormatInt32LE, nil
	case audio.FormatF32LE:
		return proto.FormatFloat32LE, nil
	default:
		return 0, fmt.Errorf("unsupported sample format: %v", format)
	}
}

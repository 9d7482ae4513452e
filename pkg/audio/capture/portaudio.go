//go:build portaudio

// ABOUTME: PortAudio capture driver
// ABOUTME: Blocking-read capture stream using PortAudio
package capture

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"syscall"

	"github.com/gordonklaus/portaudio"
	"go.uber.org/zap"

	"github.com/heywifi/heywifi-go/pkg/audio"
)

// periodFrames is the PortAudio host buffer size; reads loop over periods
const periodFrames = 1024

// PortAudioDriver opens PortAudio input devices
type PortAudioDriver struct {
	logger *zap.Logger
}

// NewPortAudioDriver creates a PortAudio capture driver
func NewPortAudioDriver(logger *zap.Logger) Driver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PortAudioDriver{logger: logger}
}

func (d *PortAudioDriver) Name() string { return "portaudio" }

// Open initializes PortAudio and resolves the input device by name
func (d *PortAudioDriver) Open(device string) (Handle, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, nativeErr("initialize portaudio", syscall.EIO, err)
	}

	info, err := findInputDevice(device)
	if err != nil {
		portaudio.Terminate()
		return nil, err
	}

	return &portAudioHandle{
		logger:   d.logger,
		info:     info,
		format:   audio.FormatF32LE,
		rate:     DefaultSampleRate,
		channels: DefaultChannels,
	}, nil
}

func findInputDevice(name string) (*portaudio.DeviceInfo, error) {
	if name == DefaultDevice {
		info, err := portaudio.DefaultInputDevice()
		if err != nil {
			return nil, nativeErr("open default input", syscall.ENODEV, err)
		}
		return info, nil
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, nativeErr("enumerate devices", syscall.EIO, err)
	}
	for _, info := range devices {
		if info.Name == name && info.MaxInputChannels > 0 {
			return info, nil
		}
	}
	return nil, nativeErr(fmt.Sprintf("open %q", name), syscall.ENODEV, nil)
}

type portAudioHandle struct {
	logger *zap.Logger
	info   *portaudio.DeviceInfo
	stream *portaudio.Stream

	format   audio.SampleFormat
	rate     int
	channels int

	// exactly one period slice is non-nil, matching format
	periodU8  []uint8
	period16  []int16
	period32  []int32
	periodF32 []float32

	stopped bool
	closed  bool
}

func (h *portAudioHandle) SetAccess(access Access) error {
	if access != AccessRWInterleaved {
		return nativeErr("set access "+access.String(), syscall.EINVAL, nil)
	}
	return nil
}

func (h *portAudioHandle) SetFormat(format audio.SampleFormat) error {
	switch format {
	case audio.FormatU8, audio.FormatS16LE, audio.FormatS32LE, audio.FormatF32LE:
		h.format = format
		return nil
	default:
		return nativeErr("set format", syscall.EINVAL, fmt.Errorf("portaudio cannot capture %v", format))
	}
}

func (h *portAudioHandle) SetRateNear(rate int) (int, error) {
	h.rate = nearestRate(rate)
	return h.rate, nil
}

func (h *portAudioHandle) SetChannels(channels int) error {
	if channels < 1 || channels > h.info.MaxInputChannels {
		return nativeErr("set channels", syscall.EINVAL,
			fmt.Errorf("%s supports up to %d input channels", h.info.Name, h.info.MaxInputChannels))
	}
	h.channels = channels
	return nil
}

// Commit opens and starts the input stream
func (h *portAudioHandle) Commit() error {
	params := portaudio.LowLatencyParameters(h.info, nil)
	params.Input.Channels = h.channels
	params.SampleRate = float64(h.rate)
	params.FramesPerBuffer = periodFrames

	samples := periodFrames * h.channels
	var buffer interface{}
	switch h.format {
	case audio.FormatU8:
		h.periodU8 = make([]uint8, samples)
		buffer = h.periodU8
	case audio.FormatS16LE:
		h.period16 = make([]int16, samples)
		buffer = h.period16
	case audio.FormatS32LE:
		h.period32 = make([]int32, samples)
		buffer = h.period32
	default:
		h.periodF32 = make([]float32, samples)
		buffer = h.periodF32
	}

	stream, err := portaudio.OpenStream(params, buffer)
	if err != nil {
		return nativeErr("open stream", syscall.EIO, err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nativeErr("start stream", syscall.EIO, err)
	}
	h.stream = stream
	return nil
}

// ReadInterleaved reads whole periods until frames frames were copied. The
// last period may be partly discarded.
func (h *portAudioHandle) ReadInterleaved(ctx context.Context, buf []byte, frames int) (int, error) {
	if h.stream == nil {
		return 0, nativeErr("read", syscall.EBADF, nil)
	}

	bps := h.format.BytesPerSample()
	frameBytes := bps * h.channels
	need := frames * frameBytes
	if need > len(buf) {
		return 0, nativeErr("read", syscall.EINVAL, fmt.Errorf("buffer holds %d bytes, need %d", len(buf), need))
	}

	got := 0
	for got < need {
		if err := ctx.Err(); err != nil {
			return got / frameBytes, err
		}

		if err := h.stream.Read(); err != nil {
			if errors.Is(err, portaudio.InputOverflowed) {
				h.logger.Debug("input overflowed")
			} else {
				return got / frameBytes, nativeErr("read", syscall.EIO, err)
			}
		}
		got += h.encodePeriod(buf[got:need])
	}
	return frames, nil
}

// encodePeriod serializes the current period into dst and returns bytes written
func (h *portAudioHandle) encodePeriod(dst []byte) int {
	bps := h.format.BytesPerSample()
	n := 0
	switch h.format {
	case audio.FormatU8:
		n = copy(dst, h.periodU8)
	case audio.FormatS16LE:
		for i := 0; i < len(h.period16) && n+bps <= len(dst); i++ {
			binary.LittleEndian.PutUint16(dst[n:], uint16(h.period16[i]))
			n += bps
		}
	case audio.FormatS32LE:
		for i := 0; i < len(h.period32) && n+bps <= len(dst); i++ {
			binary.LittleEndian.PutUint32(dst[n:], uint32(h.period32[i]))
			n += bps
		}
	default:
		for i := 0; i < len(h.periodF32) && n+bps <= len(dst); i++ {
			binary.LittleEndian.PutUint32(dst[n:], math.Float32bits(h.periodF32[i]))
			n += bps
		}
	}
	return n
}

func (h *portAudioHandle) Drain() error {
	if h.stream == nil || h.stopped {
		return nil
	}
	h.stopped = true
	return h.stream.Stop()
}

func (h *portAudioHandle) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true

	if h.stream != nil {
		if !h.stopped {
			h.stream.Stop()
		}
		if err := h.stream.Close(); err != nil {
			h.logger.Warn("stream close error", zap.Error(err))
		}
		h.stream = nil
	}
	return portaudio.Terminate()
}

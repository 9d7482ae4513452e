// ABOUTME: Malgo-based capture driver
// ABOUTME: Uses miniaudio via malgo; the device callback feeds a ring buffer drained by blocking reads
package capture

import (
	"context"
	"fmt"
	"sync"
	"syscall"
	"unsafe"

	"github.com/gen2brain/malgo"
	"go.uber.org/zap"

	"github.com/heywifi/heywifi-go/pkg/audio"
)

// maxChannels matches MA_MAX_CHANNELS
const maxChannels = 254

// MalgoDriver opens miniaudio capture devices
type MalgoDriver struct {
	logger *zap.Logger
}

// NewMalgoDriver creates the default capture driver
func NewMalgoDriver(logger *zap.Logger) *MalgoDriver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MalgoDriver{logger: logger}
}

func (d *MalgoDriver) Name() string { return "malgo" }

// Open initializes a malgo context and resolves the device by name. "default"
// selects the system default capture device.
func (d *MalgoDriver) Open(device string) (Handle, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, nativeErr("init context", syscall.EIO, err)
	}

	h := &malgoHandle{
		logger:   d.logger,
		malgoCtx: ctx,
		format:   audio.FormatF32LE,
		rate:     DefaultSampleRate,
		channels: DefaultChannels,
		stream:   newRingStream(),
	}

	if device != DefaultDevice {
		infos, err := ctx.Devices(malgo.Capture)
		if err != nil {
			h.Close()
			return nil, nativeErr("enumerate devices", syscall.EIO, err)
		}
		found := false
		for i := range infos {
			if infos[i].Name() == device {
				h.infos = infos
				h.deviceID = infos[i].ID.Pointer()
				found = true
				break
			}
		}
		if !found {
			h.Close()
			return nil, nativeErr(fmt.Sprintf("open %q", device), syscall.ENODEV, nil)
		}
	}

	return h, nil
}

type malgoHandle struct {
	logger   *zap.Logger
	malgoCtx *malgo.AllocatedContext
	device   *malgo.Device

	// infos keeps the memory deviceID points into alive
	infos    []malgo.DeviceInfo
	deviceID unsafe.Pointer

	format   audio.SampleFormat
	rate     int
	channels int

	stream *ringStream

	mu      sync.Mutex
	stopped bool
	closed  bool
}

func (h *malgoHandle) SetAccess(access Access) error {
	if access != AccessRWInterleaved {
		return nativeErr("set access "+access.String(), syscall.EINVAL, nil)
	}
	return nil
}

func (h *malgoHandle) SetFormat(format audio.SampleFormat) error {
	if _, err := malgoFormat(format); err != nil {
		return nativeErr("set format", syscall.EINVAL, err)
	}
	h.format = format
	return nil
}

// SetRateNear picks the nearest standard rate; miniaudio converts from the
// hardware rate when they differ
func (h *malgoHandle) SetRateNear(rate int) (int, error) {
	h.rate = nearestRate(rate)
	return h.rate, nil
}

func (h *malgoHandle) SetChannels(channels int) error {
	if channels < 1 || channels > maxChannels {
		return nativeErr("set channels", syscall.EINVAL, fmt.Errorf("%d channels", channels))
	}
	h.channels = channels
	return nil
}

// Commit initializes and starts the capture device
func (h *malgoHandle) Commit() error {
	format, err := malgoFormat(h.format)
	if err != nil {
		return nativeErr("commit", syscall.EINVAL, err)
	}

	h.stream.allocate(h.rate, h.format.BytesPerSample()*h.channels)

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = format
	deviceConfig.Capture.Channels = uint32(h.channels)
	deviceConfig.Capture.DeviceID = h.deviceID
	deviceConfig.SampleRate = uint32(h.rate)
	deviceConfig.Alsa.NoMMap = 1

	onSamples := func(pOutputSample, pInputSamples []byte, frameCount uint32) {
		_, _ = h.stream.Write(pInputSamples)
	}

	device, err := malgo.InitDevice(h.malgoCtx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: onSamples,
	})
	if err != nil {
		return nativeErr("init device", syscall.EIO, err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		return nativeErr("start device", syscall.EIO, err)
	}

	h.device = device
	if actual := int(device.SampleRate()); actual != h.rate {
		h.logger.Debug("device converts sample rate", zap.Int("device_rate", actual), zap.Int("rate", h.rate))
	}
	return nil
}

// ReadInterleaved blocks until frames frames were copied out of the ring buffer
func (h *malgoHandle) ReadInterleaved(ctx context.Context, buf []byte, frames int) (int, error) {
	frameBytes := h.format.BytesPerSample() * h.channels
	got, err := h.stream.read(ctx, buf, frames*frameBytes)
	if err != nil {
		return got / frameBytes, err
	}

	if overruns := h.stream.overruns(); overruns > 0 {
		h.logger.Debug("capture overruns", zap.Int("count", overruns))
	}
	return frames, nil
}

// Drain stops the device; buffered audio is discarded with the ring
func (h *malgoHandle) Drain() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.device == nil || h.stopped {
		return nil
	}
	h.stopped = true
	return h.device.Stop()
}

// Close releases the device and the malgo context exactly once
func (h *malgoHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true
	h.stream.close()

	if h.device != nil {
		if !h.stopped {
			if err := h.device.Stop(); err != nil {
				h.logger.Warn("device stop error", zap.Error(err))
			}
		}
		h.device.Uninit()
		h.device = nil
	}

	if h.malgoCtx != nil {
		if err := h.malgoCtx.Uninit(); err != nil {
			h.logger.Warn("malgo context uninit error", zap.Error(err))
		}
		h.malgoCtx.Free()
		h.malgoCtx = nil
	}
	return nil
}

// malgoFormat maps a sample format to the miniaudio format
func malgoFormat(format audio.SampleFormat) (malgo.FormatType, error) {
	switch format {
	case audio.FormatU8:
		return malgo.FormatU8, nil
	case audio.FormatS16LE:
		return malgo.FormatS16, nil
	case audio.FormatS24LE:
		return malgo.FormatS24, nil
	case audio.FormatS32LE:
		return malgo.FormatS32, nil
	case audio.FormatF32LE:
		return malgo.FormatF32, nil
	default:
		return malgo.FormatUnknown, fmt.Errorf("unsupported sample format: %v", format)
	}
}

// ABOUTME: Audio source owning one capture device for a session
// ABOUTME: Negotiates parameters, allocates the capture buffer and runs blocking reads
package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"syscall"

	"go.uber.org/zap"
)

// Source owns a capture handle and its buffer for the lifetime of a session
type Source struct {
	driver Driver
	logger *zap.Logger

	mu         sync.Mutex
	handle     Handle
	negotiated Negotiated
	buf        []byte
	request    Config
	opened     bool
	closed     bool
}

// NewSource creates a source that opens devices through driver
func NewSource(driver Driver, logger *zap.Logger) *Source {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Source{
		driver: driver,
		logger: logger.With(zap.String("component", "capture"), zap.String("driver", driver.Name())),
	}
}

// Open opens the device and negotiates access, format, rate and channels in
// that order, stopping at the first rejection. On failure the partially
// opened handle is kept so Close can release it.
func (s *Source) Open(cfg Config) (Negotiated, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.opened || s.closed {
		return Negotiated{}, fmt.Errorf("capture source already used")
	}
	s.opened = true

	if err := cfg.Validate(); err != nil {
		return Negotiated{}, &AudioError{Kind: KindDeviceOpen, Err: err}
	}

	s.logger.Debug("opening capture handle", zap.String("device", cfg.Device))
	handle, err := s.driver.Open(cfg.Device)
	if err != nil {
		s.logger.Error("audio open error", zap.String("device", cfg.Device), zap.Error(err))
		return Negotiated{}, newAudioError(KindDeviceOpen, err)
	}
	s.handle = handle

	s.logger.Debug("setting access type", zap.Stringer("access", AccessRWInterleaved))
	if err := handle.SetAccess(AccessRWInterleaved); err != nil {
		s.logger.Error("error with access type", zap.Error(err))
		return Negotiated{}, newAudioError(KindAccessReject, err)
	}

	s.logger.Debug("setting audio format", zap.Stringer("format", cfg.Format))
	if err := handle.SetFormat(cfg.Format); err != nil {
		s.logger.Error("error with format", zap.Stringer("format", cfg.Format), zap.Error(err))
		return Negotiated{}, newAudioError(KindFormatReject, err)
	}

	s.logger.Debug("setting sample rate", zap.Int("rate", cfg.SampleRate))
	rate, err := handle.SetRateNear(cfg.SampleRate)
	if err != nil {
		s.logger.Error("error with sample rate", zap.Int("rate", cfg.SampleRate), zap.Error(err))
		return Negotiated{}, newAudioError(KindRateReject, err)
	}
	if rate <= 0 {
		return Negotiated{}, &AudioError{Kind: KindRateReject, Err: fmt.Errorf("device negotiated invalid rate %d", rate)}
	}
	if rate != cfg.SampleRate {
		s.logger.Info("sample rate negotiated", zap.Int("requested", cfg.SampleRate), zap.Int("rate", rate))
	}

	s.logger.Debug("setting channels", zap.Int("channels", cfg.Channels))
	if err := handle.SetChannels(cfg.Channels); err != nil {
		s.logger.Error("error with channels", zap.Int("channels", cfg.Channels), zap.Error(err))
		return Negotiated{}, newAudioError(KindChannelReject, err)
	}

	s.logger.Debug("committing hardware params")
	if err := handle.Commit(); err != nil {
		s.logger.Error("error while setting params", zap.Error(err))
		return Negotiated{}, newAudioError(KindCommitFailed, err)
	}

	chunkBytes, framesPerRead, err := chunkLayout(cfg.BufferFrames, cfg.Format, cfg.Channels)
	if err != nil {
		s.logger.Error("not enough memory", zap.Error(err))
		return Negotiated{}, &AudioError{Kind: KindOutOfMemory, Err: err}
	}

	s.logger.Debug("allocating capture buffer", zap.Int("bytes", chunkBytes))
	s.buf = make([]byte, chunkBytes)
	s.request = cfg
	s.negotiated = Negotiated{
		Device:        cfg.Device,
		Format:        cfg.Format,
		SampleRate:    rate,
		Channels:      cfg.Channels,
		BufferFrames:  cfg.BufferFrames,
		ChunkBytes:    chunkBytes,
		FramesPerRead: framesPerRead,
	}

	s.logger.Info("capture device ready",
		zap.String("device", cfg.Device),
		zap.Stringer("format", s.negotiated.StreamFormat()),
		zap.Int("frames_per_read", framesPerRead))
	return s.negotiated, nil
}

// Negotiated returns the values accepted by the device
func (s *Source) Negotiated() Negotiated {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.negotiated
}

// Buffer returns the capture buffer filled by ReadFrames
func (s *Source) Buffer() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf
}

// ReadFrames issues one blocking read of FramesPerRead frames into the
// capture buffer. Device failures come back as KindIO with the native code.
func (s *Source) ReadFrames(ctx context.Context) (int, error) {
	s.mu.Lock()
	handle, buf, frames, timeout := s.handle, s.buf, s.negotiated.FramesPerRead, s.request.ReadTimeout
	s.mu.Unlock()

	if handle == nil || buf == nil {
		return 0, &AudioError{Kind: KindIO, Code: -int(syscall.EBADF), Err: fmt.Errorf("capture source not open")}
	}

	readCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		readCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	n, err := handle.ReadInterleaved(readCtx, buf, frames)
	if err != nil {
		// Caller cancellation is not a device failure
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return n, ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			err = nativeErr("read", syscall.ETIMEDOUT, err)
		}
		s.logger.Error("capture read failed", zap.Error(err))
		return n, newAudioError(KindIO, err)
	}
	return n, nil
}

// Close frees the capture buffer, then drains and closes the device. It is
// idempotent and safe after a failed Open.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.buf = nil

	if s.handle == nil {
		return nil
	}
	handle := s.handle
	s.handle = nil

	if err := handle.Drain(); err != nil {
		s.logger.Warn("drain failed", zap.Error(err))
	}

	s.logger.Debug("closing capture handle")
	if err := handle.Close(); err != nil {
		return fmt.Errorf("close capture device: %w", err)
	}
	return nil
}

// ABOUTME: Tests for the capture source lifecycle
// ABOUTME: Covers negotiation order, buffer arithmetic, read errors and idempotent close
package capture_test

import (
	"context"
	"errors"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heywifi/heywifi-go/pkg/audio"
	"github.com/heywifi/heywifi-go/pkg/audio/capture"
	"github.com/heywifi/heywifi-go/pkg/audio/capture/mock"
)

func TestOpenNegotiatesInOrder(t *testing.T) {
	driver := mock.NewDriver()
	src := capture.NewSource(driver, nil)

	cfg := capture.DefaultConfig()
	negotiated, err := src.Open(cfg)
	require.NoError(t, err)

	assert.Equal(t, []string{"open default", "access", "format", "rate", "channels", "commit"}, driver.Handle.Calls())
	assert.Equal(t, audio.FormatF32LE, negotiated.Format)
	assert.Equal(t, 44100, negotiated.SampleRate)
	assert.Equal(t, 1, negotiated.Channels)
	assert.Equal(t, 16384*4, negotiated.ChunkBytes)
	assert.Equal(t, 16384, negotiated.FramesPerRead)
	assert.Len(t, src.Buffer(), negotiated.ChunkBytes)
}

func TestOpenBufferArithmetic(t *testing.T) {
	formats := []audio.SampleFormat{audio.FormatU8, audio.FormatS16LE, audio.FormatS24LE, audio.FormatS32LE, audio.FormatF32LE}

	for _, format := range formats {
		for _, channels := range []int{1, 2, 6} {
			for _, frames := range []int{1, 1000, 16384} {
				src := capture.NewSource(mock.NewDriver(), nil)
				cfg := capture.Config{Device: "default", Format: format, SampleRate: 48000, Channels: channels, BufferFrames: frames}

				negotiated, err := src.Open(cfg)
				require.NoError(t, err)

				frameBytes := format.BytesPerSample() * channels
				assert.Zero(t, negotiated.ChunkBytes%frameBytes, "%s x%d", format, channels)
				assert.Equal(t, frames, negotiated.FramesPerRead)
				assert.Greater(t, negotiated.FramesPerRead, 0)
				assert.Equal(t, frameBytes, negotiated.FrameBytes())
			}
		}
	}
}

func TestOpenUsesNegotiatedRate(t *testing.T) {
	driver := mock.NewDriver()
	driver.Handle.NegotiatedRate = 48000
	src := capture.NewSource(driver, nil)

	cfg := capture.DefaultConfig()
	cfg.Channels = 2
	negotiated, err := src.Open(cfg)
	require.NoError(t, err)

	assert.NotEqual(t, cfg.SampleRate, negotiated.SampleRate)
	assert.Equal(t, 48000, negotiated.SampleRate)
	assert.Equal(t, 48000, negotiated.StreamFormat().SampleRate)
	assert.Equal(t, cfg.BufferFrames*4*2, negotiated.ChunkBytes)
}

func TestOpenFailsFast(t *testing.T) {
	reject := &capture.NativeError{Op: "test", Code: -int(syscall.EINVAL)}

	tests := []struct {
		name      string
		setup     func(h *mock.Handle)
		sentinel  error
		lastCall  string
		callCount int
	}{
		{"access", func(h *mock.Handle) { h.AccessErr = reject }, capture.ErrAccessReject, "access", 2},
		{"format", func(h *mock.Handle) { h.FormatErr = reject }, capture.ErrFormatReject, "format", 3},
		{"rate", func(h *mock.Handle) { h.RateErr = reject }, capture.ErrRateReject, "rate", 4},
		{"channels", func(h *mock.Handle) { h.ChannelsErr = reject }, capture.ErrChannelReject, "channels", 5},
		{"commit", func(h *mock.Handle) { h.CommitErr = reject }, capture.ErrCommitFailed, "commit", 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			driver := mock.NewDriver()
			tt.setup(driver.Handle)
			src := capture.NewSource(driver, nil)

			_, err := src.Open(capture.DefaultConfig())
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.sentinel), "got %v", err)
			assert.Equal(t, -int(syscall.EINVAL), capture.NativeCode(err))

			calls := driver.Handle.Calls()
			assert.Len(t, calls, tt.callCount)
			assert.Equal(t, tt.lastCall, calls[len(calls)-1])

			// the partially opened handle is released by Close
			require.NoError(t, src.Close())
			assert.Equal(t, 1, driver.Handle.CloseCount)
		})
	}
}

func TestOpenDeviceFailure(t *testing.T) {
	driver := mock.NewDriver()
	driver.OpenErr = &capture.NativeError{Op: "open", Code: -int(syscall.ENODEV)}
	src := capture.NewSource(driver, nil)

	_, err := src.Open(capture.DefaultConfig())
	require.Error(t, err)
	assert.ErrorIs(t, err, capture.ErrDeviceOpen)
	assert.Equal(t, -int(syscall.ENODEV), capture.NativeCode(err))

	require.NoError(t, src.Close())
	require.NoError(t, src.Close())
	assert.Zero(t, driver.Handle.CloseCount)
}

func TestOpenInvalidConfig(t *testing.T) {
	src := capture.NewSource(mock.NewDriver(), nil)
	cfg := capture.DefaultConfig()
	cfg.Channels = 0

	_, err := src.Open(cfg)
	assert.ErrorIs(t, err, capture.ErrDeviceOpen)
}

func TestOpenOutOfMemory(t *testing.T) {
	driver := mock.NewDriver()
	src := capture.NewSource(driver, nil)
	cfg := capture.DefaultConfig()
	cfg.BufferFrames = capture.MaxChunkBytes

	_, err := src.Open(cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, capture.ErrOutOfMemory)
	assert.Nil(t, src.Buffer())

	_, err = src.ReadFrames(context.Background())
	assert.ErrorIs(t, err, capture.ErrIO)
	assert.Zero(t, driver.Handle.ReadCount)
}

func TestOpenTwice(t *testing.T) {
	src := capture.NewSource(mock.NewDriver(), nil)
	_, err := src.Open(capture.DefaultConfig())
	require.NoError(t, err)

	_, err = src.Open(capture.DefaultConfig())
	assert.Error(t, err)
}

func TestReadFrames(t *testing.T) {
	driver := mock.NewDriver()
	driver.Handle.Reads = nil
	src := capture.NewSource(driver, nil)

	cfg := capture.DefaultConfig()
	cfg.BufferFrames = 256
	_, err := src.Open(cfg)
	require.NoError(t, err)

	n, err := src.ReadFrames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 256, n)
	assert.Equal(t, []int{256}, driver.Handle.ReadFrames)
}

func TestReadFramesDeviceError(t *testing.T) {
	driver := mock.NewDriver()
	driver.Handle.Reads = []mock.Read{
		{Err: &capture.NativeError{Op: "read", Code: -int(syscall.EPIPE)}},
	}
	src := capture.NewSource(driver, nil)
	_, err := src.Open(capture.DefaultConfig())
	require.NoError(t, err)

	_, err = src.ReadFrames(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, capture.ErrIO)

	var aerr *capture.AudioError
	require.True(t, errors.As(err, &aerr))
	assert.Equal(t, capture.KindIO, aerr.Kind)
	assert.Equal(t, -int(syscall.EPIPE), aerr.Code)
}

func TestReadFramesTimeout(t *testing.T) {
	driver := mock.NewDriver()
	driver.Handle.Reads = []mock.Read{{Block: true}}
	src := capture.NewSource(driver, nil)

	cfg := capture.DefaultConfig()
	cfg.ReadTimeout = 10 * time.Millisecond
	_, err := src.Open(cfg)
	require.NoError(t, err)

	_, err = src.ReadFrames(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, capture.ErrIO)
	assert.Equal(t, -int(syscall.ETIMEDOUT), capture.NativeCode(err))
}

func TestReadFramesCanceled(t *testing.T) {
	driver := mock.NewDriver()
	driver.Handle.Reads = []mock.Read{{Block: true}}
	src := capture.NewSource(driver, nil)
	_, err := src.Open(capture.DefaultConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = src.ReadFrames(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, capture.ErrIO)
}

func TestCloseIsIdempotent(t *testing.T) {
	driver := mock.NewDriver()
	src := capture.NewSource(driver, nil)
	_, err := src.Open(capture.DefaultConfig())
	require.NoError(t, err)

	require.NoError(t, src.Close())
	require.NoError(t, src.Close())

	assert.Equal(t, 1, driver.Handle.DrainCount)
	assert.Equal(t, 1, driver.Handle.CloseCount)
	assert.Nil(t, src.Buffer())

	calls := driver.Handle.Calls()
	assert.Equal(t, []string{"drain", "close"}, calls[len(calls)-2:])
}

func TestCloseWithoutOpen(t *testing.T) {
	src := capture.NewSource(mock.NewDriver(), nil)
	assert.NoError(t, src.Close())
	assert.NoError(t, src.Close())
}

func TestCloseIgnoresDrainError(t *testing.T) {
	driver := mock.NewDriver()
	driver.Handle.DrainErr = errors.New("drain failed")
	src := capture.NewSource(driver, nil)
	_, err := src.Open(capture.DefaultConfig())
	require.NoError(t, err)

	assert.NoError(t, src.Close())
	assert.Equal(t, 1, driver.Handle.CloseCount)
}

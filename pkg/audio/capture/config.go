// ABOUTME: Capture configuration and negotiated parameters
// ABOUTME: Holds requested device settings and the buffer arithmetic derived from them
package capture

import (
	"fmt"
	"time"

	"github.com/heywifi/heywifi-go/pkg/audio"
)

const (
	DefaultDevice       = "default"
	DefaultSampleRate   = 44100
	DefaultChannels     = 1
	DefaultBufferFrames = 16384

	// MaxChunkBytes caps a single capture buffer allocation
	MaxChunkBytes = 64 << 20
)

// Config is the capture request
type Config struct {
	Device       string
	Format       audio.SampleFormat
	SampleRate   int
	Channels     int
	BufferFrames int

	// ReadTimeout bounds a single read; zero blocks until the buffer is full
	ReadTimeout time.Duration
}

// DefaultConfig returns the request used when nothing is configured
func DefaultConfig() Config {
	return Config{
		Device:       DefaultDevice,
		Format:       audio.FormatF32LE,
		SampleRate:   DefaultSampleRate,
		Channels:     DefaultChannels,
		BufferFrames: DefaultBufferFrames,
	}
}

// Validate rejects requests no device could satisfy
func (c Config) Validate() error {
	if c.Device == "" {
		return fmt.Errorf("capture device name is empty")
	}
	if !c.Format.Valid() {
		return fmt.Errorf("invalid sample format: %v", c.Format)
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", c.SampleRate)
	}
	if c.Channels <= 0 {
		return fmt.Errorf("channel count must be positive, got %d", c.Channels)
	}
	if c.BufferFrames <= 0 {
		return fmt.Errorf("buffer size must be positive, got %d frames", c.BufferFrames)
	}
	if c.ReadTimeout < 0 {
		return fmt.Errorf("read timeout must not be negative, got %s", c.ReadTimeout)
	}
	return nil
}

// Negotiated holds the values the device accepted plus the buffer layout derived
// from them. Everything downstream of Open uses these, never the request.
type Negotiated struct {
	Device       string
	Format       audio.SampleFormat
	SampleRate   int
	Channels     int
	BufferFrames int

	// ChunkBytes = BufferFrames * BytesPerSample * Channels
	ChunkBytes int
	// FramesPerRead = ChunkBytes / (BytesPerSample * Channels)
	FramesPerRead int
}

// StreamFormat returns the negotiated stream description
func (n Negotiated) StreamFormat() audio.Format {
	return audio.Format{
		Sample:     n.Format,
		SampleRate: n.SampleRate,
		Channels:   n.Channels,
	}
}

// FrameBytes returns the size of one interleaved frame
func (n Negotiated) FrameBytes() int {
	return n.Format.BytesPerSample() * n.Channels
}

// chunkLayout computes the capture buffer size and frames per read. It fails
// when the buffer would exceed MaxChunkBytes.
func chunkLayout(frames int, format audio.SampleFormat, channels int) (chunkBytes, framesPerRead int, err error) {
	frameBytes := format.BytesPerSample() * channels
	if frameBytes <= 0 || frames <= 0 {
		return 0, 0, fmt.Errorf("invalid layout: %d frames of %d bytes", frames, frameBytes)
	}
	if frames > MaxChunkBytes/frameBytes {
		return 0, 0, fmt.Errorf("capture buffer of %d frames x %d bytes exceeds %d bytes", frames, frameBytes, MaxChunkBytes)
	}

	chunkBytes = frames * format.BytesPerSample() * channels
	framesPerRead = chunkBytes / frameBytes
	return chunkBytes, framesPerRead, nil
}

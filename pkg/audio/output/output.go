// ABOUTME: Audio output interface definition
// ABOUTME: Common interface for playback backends and the chime built on it
package output

import (
	"context"
	"io"
)

// Output plays signed 16-bit little-endian interleaved PCM
type Output interface {
	// Play blocks until pcm is exhausted and played, or ctx ends
	Play(ctx context.Context, pcm io.Reader) error

	// Close releases output resources
	Close() error
}

// Chime plays a fixed tone on an Output
type Chime struct {
	out  Output
	tone Tone
}

// NewChime creates a chime that plays tone on out
func NewChime(out Output, tone Tone) *Chime {
	return &Chime{out: out, tone: tone}
}

// Acknowledge plays the tone once
func (c *Chime) Acknowledge(ctx context.Context) error {
	return c.out.Play(ctx, c.tone.Reader())
}

// Close releases the underlying output
func (c *Chime) Close() error {
	return c.out.Close()
}

// ABOUTME: Sine tone generator
// ABOUTME: Renders a faded sine burst as 16-bit PCM for the acknowledgement chime
package output

import (
	"bytes"
	"io"
	"math"
	"time"

	"github.com/heywifi/heywifi-go/pkg/audio"
)

const fadeDuration = 5 * time.Millisecond

// Tone is a sine burst
type Tone struct {
	Frequency  float64
	Duration   time.Duration
	SampleRate int
	Channels   int
	// Volume is 0-100
	Volume int
}

// DefaultAckTone is a quarter second A5 at half volume
func DefaultAckTone() Tone {
	return Tone{
		Frequency:  880,
		Duration:   250 * time.Millisecond,
		SampleRate: 44100,
		Channels:   2,
		Volume:     50,
	}
}

// Frames returns the number of frames the tone lasts
func (t Tone) Frames() int {
	if t.SampleRate <= 0 || t.Duration <= 0 {
		return 0
	}
	return int(int64(t.Duration) * int64(t.SampleRate) / int64(time.Second))
}

// PCM renders the tone with short linear fades at both ends
func (t Tone) PCM() []byte {
	frames := t.Frames()
	channels := t.Channels
	if channels <= 0 {
		channels = 1
	}

	fade := int(int64(fadeDuration) * int64(t.SampleRate) / int64(time.Second))
	if fade > frames/2 {
		fade = frames / 2
	}
	gain := getVolumeMultiplier(t.Volume)

	bps := audio.FormatS16LE.BytesPerSample()
	out := make([]byte, frames*channels*bps)
	for i := 0; i < frames; i++ {
		env := 1.0
		if fade > 0 {
			if i < fade {
				env = float64(i) / float64(fade)
			} else if rem := frames - 1 - i; rem < fade {
				env = float64(rem) / float64(fade)
			}
		}

		phase := 2 * math.Pi * t.Frequency * float64(i) / float64(t.SampleRate)
		v := float32(math.Sin(phase) * gain * env)
		for ch := 0; ch < channels; ch++ {
			audio.EncodeSample(out[(i*channels+ch)*bps:], audio.FormatS16LE, v)
		}
	}
	return out
}

// Reader returns the rendered tone as a stream
func (t Tone) Reader() io.Reader {
	return bytes.NewReader(t.PCM())
}

// getVolumeMultiplier converts a 0-100 volume into a gain, clamping out of
// range values
func getVolumeMultiplier(volume int) float64 {
	if volume < 0 {
		volume = 0
	}
	if volume > 100 {
		volume = 100
	}
	return float64(volume) / 100.0
}

// ABOUTME: Tests for PCM conversions
// ABOUTME: Covers per-format sample decoding and channel downmixing
package audio

import (
	"math"
	"testing"
)

func TestEncodeDecodeSample(t *testing.T) {
	formats := []SampleFormat{FormatU8, FormatS16LE, FormatS24LE, FormatS32LE, FormatF32LE}
	values := []float32{0, 0.5, -0.5, 0.25, -1}

	for _, format := range formats {
		// u8 has 1/128 resolution
		tolerance := 1.0 / 100.0
		buf := make([]byte, format.BytesPerSample())

		for _, v := range values {
			EncodeSample(buf, format, v)
			got := DecodeSample(buf, format)
			if math.Abs(float64(got-v)) > tolerance {
				t.Errorf("%s: expected %f, got %f", format, v, got)
			}
		}
	}
}

func TestEncodeSampleClamps(t *testing.T) {
	buf := make([]byte, 2)
	EncodeSample(buf, FormatS16LE, 3.0)
	if got := DecodeSample(buf, FormatS16LE); got < 0.999 {
		t.Errorf("expected clamped full scale, got %f", got)
	}

	EncodeSample(buf, FormatS16LE, -3.0)
	if got := DecodeSample(buf, FormatS16LE); got != -1 {
		t.Errorf("expected -1, got %f", got)
	}
}

func TestToMonoAveragesChannels(t *testing.T) {
	format := Format{Sample: FormatF32LE, SampleRate: 44100, Channels: 2}
	frames := []float32{0.5, 0.1, -0.2, -0.4, 1, 1}

	buf := make([]byte, len(frames)*4)
	for i, v := range frames {
		EncodeSample(buf[i*4:], FormatF32LE, v)
	}

	mono := ToMono(nil, buf, format, 3)
	expected := []float32{0.3, -0.3, 1}
	if len(mono) != len(expected) {
		t.Fatalf("expected %d samples, got %d", len(expected), len(mono))
	}
	for i := range expected {
		if math.Abs(float64(mono[i]-expected[i])) > 1e-6 {
			t.Errorf("sample %d: expected %f, got %f", i, expected[i], mono[i])
		}
	}
}

func TestToMonoClampsFrameCount(t *testing.T) {
	format := Format{Sample: FormatS16LE, SampleRate: 8000, Channels: 1}
	buf := make([]byte, 8)

	mono := ToMono(make([]float32, 0, 16), buf, format, 100)
	if len(mono) != 4 {
		t.Errorf("expected 4 samples from an 8 byte buffer, got %d", len(mono))
	}

	if got := ToMono(nil, buf, format, 0); len(got) != 0 {
		t.Errorf("expected no samples for zero frames, got %d", len(got))
	}
}

// ABOUTME: PCM byte buffer conversions
// ABOUTME: Decodes and encodes single samples and downmixes interleaved frames to mono float32
package audio

import (
	"encoding/binary"
	"math"
)

// DecodeSample reads one sample at the start of src and normalizes it to [-1, 1]
func DecodeSample(src []byte, format SampleFormat) float32 {
	switch format {
	case FormatU8:
		return (float32(src[0]) - 128) / 128
	case FormatS16LE:
		return float32(int16(binary.LittleEndian.Uint16(src))) / 32768
	case FormatS24LE:
		return float32(SampleFrom24Bit([3]byte{src[0], src[1], src[2]})) / 8388608
	case FormatS32LE:
		return float32(float64(int32(binary.LittleEndian.Uint32(src))) / 2147483648)
	case FormatF32LE:
		return math.Float32frombits(binary.LittleEndian.Uint32(src))
	default:
		return 0
	}
}

// EncodeSample writes v (clamped to [-1, 1]) into dst using format
func EncodeSample(dst []byte, format SampleFormat, v float32) {
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}

	switch format {
	case FormatU8:
		dst[0] = byte(clampInt(int64(math.Round(float64(v)*128))+128, 0, 255))
	case FormatS16LE:
		s := clampInt(int64(math.Round(float64(v)*32768)), math.MinInt16, math.MaxInt16)
		binary.LittleEndian.PutUint16(dst, uint16(int16(s)))
	case FormatS24LE:
		s := clampInt(int64(math.Round(float64(v)*8388608)), Min24Bit, Max24Bit)
		b := SampleTo24Bit(int32(s))
		copy(dst, b[:])
	case FormatS32LE:
		s := clampInt(int64(math.Round(float64(v)*2147483648)), math.MinInt32, math.MaxInt32)
		binary.LittleEndian.PutUint32(dst, uint32(int32(s)))
	case FormatF32LE:
		binary.LittleEndian.PutUint32(dst, math.Float32bits(v))
	}
}

// ToMono converts the first frames frames of an interleaved buffer into one float32
// sample per frame, averaging across channels. dst is reused when large enough.
func ToMono(dst []float32, src []byte, format Format, frames int) []float32 {
	frameBytes := format.FrameBytes()
	if frameBytes == 0 || frames <= 0 {
		return dst[:0]
	}
	if avail := len(src) / frameBytes; frames > avail {
		frames = avail
	}

	if cap(dst) < frames {
		dst = make([]float32, frames)
	}
	dst = dst[:frames]

	bps := format.Sample.BytesPerSample()
	for i := 0; i < frames; i++ {
		frame := src[i*frameBytes:]
		var sum float32
		for ch := 0; ch < format.Channels; ch++ {
			sum += DecodeSample(frame[ch*bps:], format.Sample)
		}
		dst[i] = sum / float32(format.Channels)
	}
	return dst
}

func clampInt(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

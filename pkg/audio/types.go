// ABOUTME: Audio type definitions
// ABOUTME: Defines capture sample formats and interleaved stream formats
package audio

import (
	"fmt"
	"strings"
)

const (
	// 24-bit audio range constants
	Max24Bit = 8388607  // 2^23 - 1
	Min24Bit = -8388608 // -2^23
)

// SampleFormat identifies the encoding of one sample in a capture buffer.
// All multi-byte formats are little-endian.
type SampleFormat int

const (
	FormatUnknown SampleFormat = iota
	FormatU8
	FormatS16LE
	FormatS24LE // packed, 3 bytes per sample
	FormatS32LE
	FormatF32LE
)

// String returns the short name used on the command line
func (f SampleFormat) String() string {
	switch f {
	case FormatU8:
		return "u8"
	case FormatS16LE:
		return "s16"
	case FormatS24LE:
		return "s24"
	case FormatS32LE:
		return "s32"
	case FormatF32LE:
		return "f32"
	default:
		return fmt.Sprintf("unknown(%d)", int(f))
	}
}

// Width returns the sample width in bits
func (f SampleFormat) Width() int {
	return f.BytesPerSample() * 8
}

// BytesPerSample returns the storage size of one sample, or 0 for unknown formats
func (f SampleFormat) BytesPerSample() int {
	switch f {
	case FormatU8:
		return 1
	case FormatS16LE:
		return 2
	case FormatS24LE:
		return 3
	case FormatS32LE, FormatF32LE:
		return 4
	default:
		return 0
	}
}

// IsFloat reports whether samples are IEEE-754 floating point
func (f SampleFormat) IsFloat() bool {
	return f == FormatF32LE
}

// Valid reports whether f is a known format
func (f SampleFormat) Valid() bool {
	return f.BytesPerSample() > 0
}

// ParseSampleFormat accepts the short names plus the common ALSA-style aliases
func ParseSampleFormat(s string) (SampleFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "u8":
		return FormatU8, nil
	case "s16", "s16le", "s16_le", "int16":
		return FormatS16LE, nil
	case "s24", "s24le", "s24_3le", "int24":
		return FormatS24LE, nil
	case "s32", "s32le", "s32_le", "int32":
		return FormatS32LE, nil
	case "f32", "f32le", "float", "float_le", "float32":
		return FormatF32LE, nil
	default:
		return FormatUnknown, fmt.Errorf("unsupported sample format: %q (supported: u8, s16, s24, s32, f32)", s)
	}
}

// Format describes an interleaved PCM stream
type Format struct {
	Sample     SampleFormat
	SampleRate int
	Channels   int
}

// FrameBytes returns the size of one frame (one sample per channel)
func (f Format) FrameBytes() int {
	return f.Sample.BytesPerSample() * f.Channels
}

// String renders the format the way log lines show it
func (f Format) String() string {
	return fmt.Sprintf("%s %dHz %dch", f.Sample, f.SampleRate, f.Channels)
}

// SampleFromInt16 converts int16 sample to int32 (left-justified in 24-bit)
func SampleFromInt16(sample int16) int32 {
	return int32(sample) << 8
}

// SampleToInt16 converts a 24-bit range int32 sample to int16
func SampleToInt16(sample int32) int16 {
	return int16(sample >> 8)
}

// SampleTo24Bit converts int32 to 24-bit packed bytes (little-endian)
func SampleTo24Bit(sample int32) [3]byte {
	return [3]byte{
		byte(sample),
		byte(sample >> 8),
		byte(sample >> 16),
	}
}

// SampleFrom24Bit converts 24-bit packed bytes to int32 (little-endian)
func SampleFrom24Bit(b [3]byte) int32 {
	val := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
	// Sign extend from 24-bit to 32-bit
	if val&0x800000 != 0 {
		val |= ^0xFFFFFF
	}
	return val
}

// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines SampleFormat, Format and PCM conversion helpers
// Package audio provides the PCM types shared by the capture and modem layers.
//
//   - SampleFormat: encoding of one sample (u8, s16, s24, s32, f32; little-endian)
//   - Format: sample format plus rate and channel count of an interleaved stream
//
// Conversion helpers decode raw capture bytes into normalized float32 values,
// which is what the acoustic modem consumes:
//
//	format := audio.Format{Sample: audio.FormatS16LE, SampleRate: 44100, Channels: 2}
//	mono := audio.ToMono(nil, buf, format, frames)
package audio

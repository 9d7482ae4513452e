// ABOUTME: Audio capture package for reading microphone input
// ABOUTME: Provides the Source lifecycle over pluggable capture drivers
// Package capture owns the capture device of a listening session.
//
// A Source opens a device through a Driver, negotiates access type, sample
// format, sample rate and channel count (in that order), allocates one
// capture buffer sized from the negotiated values and then fills it with a
// blocking read per call.
//
// Drivers:
//   - malgo: miniaudio capture device (default)
//   - portaudio: blocking PortAudio stream (build with -tags portaudio)
//   - pulse: PulseAudio record stream, mono or stereo
//   - file: WAV/MP3/FLAC recordings, selected with a "file:<path>" device name
//
// Example:
//
//	src := capture.NewSource(capture.NewMalgoDriver(logger), logger)
//	defer src.Close()
//	negotiated, err := src.Open(capture.DefaultConfig())
//	frames, err := src.ReadFrames(ctx)
package capture

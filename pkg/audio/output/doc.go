// ABOUTME: Audio output package for short feedback sounds
// ABOUTME: Provides the Output interface, an oto backend and a sine tone generator
// Package output plays short feedback sounds, such as the chime that confirms
// a credential was received.
//
// Example:
//
//	tone := output.DefaultAckTone()
//	chime := output.NewChime(output.NewOto(tone.SampleRate, tone.Channels, logger), tone)
//	err := chime.Acknowledge(ctx)
package output

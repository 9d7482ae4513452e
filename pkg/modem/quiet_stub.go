//go:build !quiet

// ABOUTME: Stub libquiet binding for builds without -tags quiet
// ABOUTME: Always fails decoder construction with a descriptive error
package modem

import "errors"

// NewQuietDecoder reports that libquiet support was not compiled in
func NewQuietDecoder(profile Profile, sampleRate int) (Decoder, error) {
	return nil, &ConfigError{
		Kind:    KindDecoderCreate,
		Path:    profile.Path,
		Profile: profile.Name,
		Err:     errors.New("libquiet support not enabled (build with -tags quiet)"),
	}
}

// ABOUTME: Modem decoder adapter
// ABOUTME: Converts captured chunks to mono float32, feeds the decoder and polls for messages
package modem

import (
	"errors"
	"sync"

	"github.com/heywifi/heywifi-go/pkg/audio"
	"go.uber.org/zap"
)

// DefaultMessageSize bounds a single received message
const DefaultMessageSize = 255

// Adapter owns one decoder instance for the lifetime of a session
type Adapter struct {
	decoder Decoder
	format  audio.Format
	logger  *zap.Logger

	mono    []float32
	message []byte

	closeOnce sync.Once
	closeErr  error
	// closed is only accessed from the goroutine running the session, so it needs no lock
	closed bool
}

// NewAdapter builds a decoder for profile at the capture's negotiated rate.
// maxMessage sizes the receive buffer; messages longer than that are cut by
// the decoder.
func NewAdapter(factory Factory, profile Profile, format audio.Format, maxMessage int, logger *zap.Logger) (*Adapter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxMessage <= 0 {
		maxMessage = DefaultMessageSize
	}
	if format.SampleRate <= 0 || format.Channels <= 0 || !format.Sample.Valid() {
		return nil, &ConfigError{Kind: KindDecoderCreate, Profile: profile.Name, Path: profile.Path, Err: errInvalidFormat(format)}
	}

	dec, err := factory(profile, format.SampleRate)
	if err != nil {
		var cerr *ConfigError
		if errors.As(err, &cerr) {
			return nil, err
		}
		return nil, &ConfigError{Kind: KindDecoderCreate, Profile: profile.Name, Path: profile.Path, Err: err}
	}

	logger.Debug("decoder created",
		zap.String("profile", profile.Name),
		zap.Int("rate", format.SampleRate),
		zap.Int("max_message", maxMessage))

	return &Adapter{
		decoder: dec,
		format:  format,
		logger:  logger,
		message: make([]byte, maxMessage),
	}, nil
}

// Format returns the capture format the adapter converts from
func (a *Adapter) Format() audio.Format {
	return a.format
}

// Consume feeds the first frames frames of raw to the decoder
func (a *Adapter) Consume(raw []byte, frames int) {
	if a.closed || frames <= 0 {
		return
	}
	a.mono = audio.ToMono(a.mono, raw, a.format, frames)
	if len(a.mono) == 0 {
		return
	}
	a.decoder.Consume(a.mono)
}

// TryReceive returns the next complete message, if any. The returned slice is
// only valid until the next call.
func (a *Adapter) TryReceive() ([]byte, bool) {
	if a.closed {
		return nil, false
	}
	n := a.decoder.Receive(a.message)
	if n < 0 {
		return nil, false
	}
	if n > len(a.message) {
		n = len(a.message)
	}
	return a.message[:n], true
}

// Close destroys the decoder. Further calls are no-ops.
func (a *Adapter) Close() error {
	a.closeOnce.Do(func() {
		a.closed = true
		a.closeErr = a.decoder.Close()
		a.mono = nil
	})
	return a.closeErr
}

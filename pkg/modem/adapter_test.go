// ABOUTME: Tests for the decoder adapter
// ABOUTME: Uses the scripted decoder to cover downmix, polling and close
package modem_test

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/heywifi/heywifi-go/pkg/audio"
	"github.com/heywifi/heywifi-go/pkg/modem"
	"github.com/heywifi/heywifi-go/pkg/modem/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var stereoF32 = audio.Format{Sample: audio.FormatF32LE, SampleRate: 48000, Channels: 2}

func f32Frames(samples ...float32) []byte {
	buf := make([]byte, 4*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(s))
	}
	return buf
}

func TestNewAdapterPassesRateAndProfile(t *testing.T) {
	dec := &mock.Decoder{}
	profile := modem.Profile{Name: "wave"}

	a, err := modem.NewAdapter(mock.Factory(dec, nil), profile, stereoF32, 0, nil)
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, 48000, dec.SampleRate)
	assert.Equal(t, "wave", dec.Profile.Name)
	assert.Equal(t, stereoF32, a.Format())
}

func TestNewAdapterFactoryFailure(t *testing.T) {
	_, err := modem.NewAdapter(mock.Factory(nil, errors.New("boom")), modem.Profile{Name: "wave"}, stereoF32, 255, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, modem.ErrDecoderCreate)
	assert.Contains(t, err.Error(), "boom")
}

func TestNewAdapterKeepsConfigErrorKind(t *testing.T) {
	cause := &modem.ConfigError{Kind: modem.KindProfileNotFound, Profile: "wave"}
	_, err := modem.NewAdapter(mock.Factory(nil, cause), modem.Profile{Name: "wave"}, stereoF32, 255, nil)
	assert.ErrorIs(t, err, modem.ErrProfileNotFound)
}

func TestNewAdapterKeepsWrappedConfigError(t *testing.T) {
	cause := &modem.ConfigError{Kind: modem.KindProfileNotFound, Profile: "wave"}
	wrapped := fmt.Errorf("quiet: %w", cause)

	_, err := modem.NewAdapter(mock.Factory(nil, wrapped), modem.Profile{Name: "wave"}, stereoF32, 255, nil)
	require.Error(t, err)
	assert.Same(t, wrapped, err)
	assert.ErrorIs(t, err, modem.ErrProfileNotFound)
	assert.NotErrorIs(t, err, modem.ErrDecoderCreate)
}

func TestNewAdapterRejectsUnusableFormat(t *testing.T) {
	dec := &mock.Decoder{}
	_, err := modem.NewAdapter(mock.Factory(dec, nil), modem.Profile{Name: "wave"}, audio.Format{}, 255, nil)
	assert.ErrorIs(t, err, modem.ErrDecoderCreate)
}

func TestAdapterConsumeDownmixes(t *testing.T) {
	dec := &mock.Decoder{}
	a, err := modem.NewAdapter(mock.Factory(dec, nil), modem.Profile{Name: "wave"}, stereoF32, 255, nil)
	require.NoError(t, err)

	raw := f32Frames(0.5, -0.5, 1, 0, 0.25, 0.75)
	a.Consume(raw, 3)

	assert.Equal(t, 1, dec.ConsumeCount)
	assert.Equal(t, 3, dec.Samples)
	assert.InDeltaSlice(t, []float32{0, 0.5, 0.5}, dec.LastBlock, 1e-6)
}

func TestAdapterConsumeOnlyFramesRead(t *testing.T) {
	dec := &mock.Decoder{}
	a, err := modem.NewAdapter(mock.Factory(dec, nil), modem.Profile{Name: "wave"}, stereoF32, 255, nil)
	require.NoError(t, err)

	raw := f32Frames(0.5, 0.5, 1, 1, 0.25, 0.25, 0.1, 0.1)
	a.Consume(raw, 2)
	assert.Equal(t, 2, dec.Samples)

	a.Consume(raw, 0)
	assert.Equal(t, 1, dec.ConsumeCount)
}

func TestAdapterTryReceive(t *testing.T) {
	dec := &mock.Decoder{Messages: []mock.Message{{After: 2, Data: []byte{3, 'f', 'o', 'o', 0}}}}
	a, err := modem.NewAdapter(mock.Factory(dec, nil), modem.Profile{Name: "wave"}, stereoF32, 255, nil)
	require.NoError(t, err)

	raw := f32Frames(0, 0)
	a.Consume(raw, 1)
	_, ok := a.TryReceive()
	assert.False(t, ok)

	a.Consume(raw, 1)
	msg, ok := a.TryReceive()
	require.True(t, ok)
	assert.Equal(t, []byte{3, 'f', 'o', 'o', 0}, msg)

	_, ok = a.TryReceive()
	assert.False(t, ok)
}

func TestAdapterMessageSizeCap(t *testing.T) {
	dec := &mock.Decoder{Messages: []mock.Message{{Data: []byte("0123456789")}}}
	a, err := modem.NewAdapter(mock.Factory(dec, nil), modem.Profile{Name: "wave"}, stereoF32, 4, nil)
	require.NoError(t, err)

	msg, ok := a.TryReceive()
	require.True(t, ok)
	assert.Equal(t, []byte("0123"), msg)
}

func TestAdapterCloseOnce(t *testing.T) {
	dec := &mock.Decoder{CloseErr: errors.New("teardown")}
	a, err := modem.NewAdapter(mock.Factory(dec, nil), modem.Profile{Name: "wave"}, stereoF32, 255, nil)
	require.NoError(t, err)

	assert.EqualError(t, a.Close(), "teardown")
	assert.EqualError(t, a.Close(), "teardown")
	assert.Equal(t, 1, dec.Closes())

	a.Consume(f32Frames(0, 0), 1)
	assert.Equal(t, 0, dec.ConsumeCount)
	_, ok := a.TryReceive()
	assert.False(t, ok)
}

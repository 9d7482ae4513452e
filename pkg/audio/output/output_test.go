// ABOUTME: Audio output tests
// ABOUTME: Verifies tone rendering and chime playback through a recording output
package output

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"testing"
	"time"
)

type recordingOutput struct {
	played [][]byte
	err    error
	closed int
}

func (r *recordingOutput) Play(ctx context.Context, pcm io.Reader) error {
	data, err := io.ReadAll(pcm)
	if err != nil {
		return err
	}
	r.played = append(r.played, data)
	return r.err
}

func (r *recordingOutput) Close() error {
	r.closed++
	return nil
}

func TestOtoImplementsOutput(t *testing.T) {
	var _ Output = (*Oto)(nil)
}

func TestToneFrames(t *testing.T) {
	tone := DefaultAckTone()
	if got := tone.Frames(); got != 11025 {
		t.Errorf("Frames() = %d, want 11025", got)
	}
	if got := len(tone.PCM()); got != 11025*2*2 {
		t.Errorf("len(PCM()) = %d, want %d", got, 11025*4)
	}

	if (Tone{SampleRate: 0, Duration: time.Second}).Frames() != 0 {
		t.Error("zero sample rate should give zero frames")
	}
}

func TestToneShape(t *testing.T) {
	tone := Tone{Frequency: 1000, Duration: 100 * time.Millisecond, SampleRate: 48000, Channels: 2, Volume: 50}
	pcm := tone.PCM()

	var peak int16
	for i := 0; i < len(pcm); i += 4 {
		left := int16(binary.LittleEndian.Uint16(pcm[i:]))
		right := int16(binary.LittleEndian.Uint16(pcm[i+2:]))
		if left != right {
			t.Fatalf("frame %d: channels differ (%d vs %d)", i/4, left, right)
		}
		if left > peak {
			peak = left
		}
	}

	if first := int16(binary.LittleEndian.Uint16(pcm)); first != 0 {
		t.Errorf("first sample = %d, want 0 (fade in)", first)
	}
	want := int16(math.Round(0.5 * 32768))
	if peak > want || peak < want-200 {
		t.Errorf("peak = %d, want close to %d", peak, want)
	}
}

func TestGetVolumeMultiplier(t *testing.T) {
	tests := []struct {
		volume int
		want   float64
	}{
		{100, 1.0},
		{50, 0.5},
		{0, 0.0},
		{-10, 0.0},
		{150, 1.0},
	}
	for _, tt := range tests {
		if got := getVolumeMultiplier(tt.volume); got != tt.want {
			t.Errorf("getVolumeMultiplier(%d) = %v, want %v", tt.volume, got, tt.want)
		}
	}
}

func TestChimePlaysTone(t *testing.T) {
	out := &recordingOutput{}
	tone := Tone{Frequency: 880, Duration: 10 * time.Millisecond, SampleRate: 8000, Channels: 1, Volume: 100}
	chime := NewChime(out, tone)

	if err := chime.Acknowledge(context.Background()); err != nil {
		t.Fatalf("Acknowledge: %v", err)
	}
	if len(out.played) != 1 {
		t.Fatalf("played %d streams, want 1", len(out.played))
	}
	if !bytes.Equal(out.played[0], tone.PCM()) {
		t.Error("played stream differs from rendered tone")
	}

	out.err = errors.New("device busy")
	if err := chime.Acknowledge(context.Background()); err == nil {
		t.Error("expected playback error")
	}

	if err := chime.Close(); err != nil || out.closed != 1 {
		t.Errorf("Close: err=%v closed=%d", err, out.closed)
	}
}

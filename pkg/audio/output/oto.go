// ABOUTME: Oto-based audio output implementation
// ABOUTME: Plays 16-bit PCM streams through a lazily created process-wide oto context
package output

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"go.uber.org/zap"
)

// oto allows a single context per process
var (
	otoOnce sync.Once
	otoCtx  *oto.Context
	otoErr  error
	otoFmt  [2]int
)

func sharedContext(sampleRate, channels int) (*oto.Context, error) {
	otoOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: channels,
			Format:       oto.FormatSignedInt16LE,
		}
		ctx, ready, err := oto.NewContext(op)
		if err != nil {
			otoErr = fmt.Errorf("failed to create oto context: %w", err)
			return
		}
		<-ready
		otoCtx = ctx
		otoFmt = [2]int{sampleRate, channels}
	})
	if otoErr != nil {
		return nil, otoErr
	}
	if otoFmt != [2]int{sampleRate, channels} {
		return nil, fmt.Errorf("oto context already open at %dHz %dch", otoFmt[0], otoFmt[1])
	}
	return otoCtx, nil
}

// Oto output implementation using oto library
type Oto struct {
	sampleRate int
	channels   int
	logger     *zap.Logger

	mu     sync.Mutex
	ctx    *oto.Context
	closed bool
}

// NewOto creates an output for the given stream format. The device is opened
// on first Play.
func NewOto(sampleRate, channels int, logger *zap.Logger) *Oto {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Oto{sampleRate: sampleRate, channels: channels, logger: logger}
}

func (o *Oto) open() (*oto.Context, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return nil, fmt.Errorf("output closed")
	}
	if o.ctx != nil {
		return o.ctx, nil
	}

	ctx, err := sharedContext(o.sampleRate, o.channels)
	if err != nil {
		return nil, err
	}
	if err := ctx.Resume(); err != nil {
		return nil, fmt.Errorf("failed to resume oto context: %w", err)
	}
	o.ctx = ctx
	o.logger.Debug("audio output initialized", zap.Int("rate", o.sampleRate), zap.Int("channels", o.channels))
	return ctx, nil
}

// Play streams pcm to the device and waits for playback to finish
func (o *Oto) Play(ctx context.Context, pcm io.Reader) error {
	otoCtx, err := o.open()
	if err != nil {
		return err
	}

	player := otoCtx.NewPlayer(pcm)
	defer player.Close()
	player.Play()

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			player.Pause()
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return player.Err()
}

// Close suspends the device. The process-wide context stays allocated.
func (o *Oto) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return nil
	}
	o.closed = true
	if o.ctx != nil {
		return o.ctx.Suspend()
	}
	return nil
}

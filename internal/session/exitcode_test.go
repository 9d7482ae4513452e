// ABOUTME: Tests for exit status mapping
// ABOUTME: Also pins state names used in logs
package session

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/heywifi/heywifi-go/pkg/audio/capture"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, 0},
		{"device io error", &capture.AudioError{Kind: capture.KindIO, Code: -int(syscall.EPIPE)}, int(syscall.EPIPE)},
		{"positive code", &capture.AudioError{Kind: capture.KindIO, Code: 5}, 5},
		{"code out of range", &capture.AudioError{Kind: capture.KindIO, Code: -4000}, 1},
		{"no code", &capture.AudioError{Kind: capture.KindFormatReject}, 1},
		{"wrapped", fmt.Errorf("run: %w", &capture.AudioError{Kind: capture.KindIO, Code: -int(syscall.EIO)}), int(syscall.EIO)},
		{"canceled", context.Canceled, ExitCanceled},
		{"other", errors.New("boom"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "listening", StateListening.String())
	assert.Equal(t, "unknown", State(42).String())
	assert.True(t, StateAborted.Terminal())
	assert.False(t, StateListening.Terminal())
}

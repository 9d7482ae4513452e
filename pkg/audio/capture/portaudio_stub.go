//go:build !portaudio

// ABOUTME: PortAudio stub when library not available
// ABOUTME: Provides compile-time placeholder when PortAudio not installed
package capture

import (
	"fmt"
	"syscall"

	"go.uber.org/zap"
)

// PortAudioDriver capture driver (stub)
type PortAudioDriver struct{}

// NewPortAudioDriver creates a new PortAudio driver
func NewPortAudioDriver(logger *zap.Logger) Driver {
	return &PortAudioDriver{}
}

func (d *PortAudioDriver) Name() string { return "portaudio" }

// Open always fails in builds without PortAudio
func (d *PortAudioDriver) Open(device string) (Handle, error) {
	return nil, nativeErr("open "+device, syscall.ENOSYS,
		fmt.Errorf("PortAudio support not enabled (build with -tags portaudio)"))
}

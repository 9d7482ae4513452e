// ABOUTME: Capture driver boundary
// ABOUTME: Interfaces every device backend implements, modeled on hw-params negotiation
package capture

import (
	"context"
	"fmt"
	"strings"

	"github.com/heywifi/heywifi-go/pkg/audio"
	"go.uber.org/zap"
)

// Access is the sample layout used for reads
type Access int

const (
	AccessRWInterleaved Access = iota
	AccessRWNonInterleaved
)

func (a Access) String() string {
	if a == AccessRWInterleaved {
		return "rw-interleaved"
	}
	return "rw-noninterleaved"
}

// Driver opens capture devices by name
type Driver interface {
	Name() string
	Open(device string) (Handle, error)
}

// Handle is an opened capture device. Setters stage parameters and may be
// rejected; Commit applies them. ReadInterleaved blocks until frames frames
// have been copied into buf or the device fails.
type Handle interface {
	SetAccess(access Access) error
	SetFormat(format audio.SampleFormat) error
	// SetRateNear returns the supported rate closest to rate
	SetRateNear(rate int) (int, error)
	SetChannels(channels int) error
	Commit() error

	ReadInterleaved(ctx context.Context, buf []byte, frames int) (int, error)
	Drain() error
	Close() error
}

// FilePrefix selects the file driver regardless of the configured driver
const FilePrefix = "file:"

// IsFileDevice reports whether device names a recording instead of hardware
func IsFileDevice(device string) bool {
	return strings.HasPrefix(device, FilePrefix)
}

// Driver names accepted by SelectDriver
const (
	DriverMalgo     = "malgo"
	DriverPortAudio = "portaudio"
	DriverPulse     = "pulse"
	DriverFile      = "file"
)

// SelectDriver returns the driver for name. An empty name means malgo. A
// file: device always gets the file driver.
func SelectDriver(name, device string, logger *zap.Logger) (Driver, error) {
	if IsFileDevice(device) {
		return NewFileDriver(logger), nil
	}
	switch strings.ToLower(name) {
	case "", DriverMalgo:
		return NewMalgoDriver(logger), nil
	case DriverPortAudio:
		return NewPortAudioDriver(logger), nil
	case DriverPulse:
		return NewPulseDriver(logger), nil
	case DriverFile:
		return nil, fmt.Errorf("file driver needs a %s<path> device", FilePrefix)
	default:
		return nil, fmt.Errorf("unknown capture driver %q", name)
	}
}

// standardRates are the rates hardware drivers negotiate to
var standardRates = []int{
	8000, 11025, 16000, 22050, 24000, 32000, 44100, 48000,
	88200, 96000, 176400, 192000, 352800, 384000,
}

// nearestRate returns the standard rate closest to rate, preferring the
// higher rate on a tie
func nearestRate(rate int) int {
	best := standardRates[0]
	bestDiff := abs(rate - best)
	for _, r := range standardRates[1:] {
		if d := abs(rate - r); d <= bestDiff {
			best, bestDiff = r, d
		}
	}
	return best
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

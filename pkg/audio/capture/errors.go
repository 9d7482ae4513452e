// ABOUTME: Capture error taxonomy
// ABOUTME: Tags each failure with the negotiation step or I/O operation that produced it
package capture

import (
	"errors"
	"fmt"
	"syscall"
)

// ErrorKind tags where in the device lifecycle a failure happened
type ErrorKind string

const (
	KindDeviceOpen    ErrorKind = "device-open"
	KindAccessReject  ErrorKind = "access-reject"
	KindFormatReject  ErrorKind = "format-reject"
	KindRateReject    ErrorKind = "rate-reject"
	KindChannelReject ErrorKind = "channel-reject"
	KindCommitFailed  ErrorKind = "commit-failed"
	KindOutOfMemory   ErrorKind = "out-of-memory"
	KindIO            ErrorKind = "io"
)

// Sentinels for errors.Is
var (
	ErrDeviceOpen    = &AudioError{Kind: KindDeviceOpen}
	ErrAccessReject  = &AudioError{Kind: KindAccessReject}
	ErrFormatReject  = &AudioError{Kind: KindFormatReject}
	ErrRateReject    = &AudioError{Kind: KindRateReject}
	ErrChannelReject = &AudioError{Kind: KindChannelReject}
	ErrCommitFailed  = &AudioError{Kind: KindCommitFailed}
	ErrOutOfMemory   = &AudioError{Kind: KindOutOfMemory}
	ErrIO            = &AudioError{Kind: KindIO}
)

// AudioError is returned by every Source operation. Code carries the driver's
// native (negative, errno style) code when one is known.
type AudioError struct {
	Kind ErrorKind
	Code int
	Err  error
}

func (e *AudioError) Error() string {
	msg := "audio " + string(e.Kind)
	if e.Code != 0 {
		msg = fmt.Sprintf("%s (code %d)", msg, e.Code)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AudioError) Unwrap() error { return e.Err }

// Is matches sentinels by kind
func (e *AudioError) Is(target error) bool {
	t, ok := target.(*AudioError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Code == 0 && t.Err == nil
}

func newAudioError(kind ErrorKind, err error) *AudioError {
	return &AudioError{Kind: kind, Code: NativeCode(err), Err: err}
}

// NativeError is what drivers return for device failures. Code follows the
// ALSA convention of negative errno values.
type NativeError struct {
	Op   string
	Code int
	Err  error
}

func (e *NativeError) Error() string {
	msg := fmt.Sprintf("%s failed (%d)", e.Op, e.Code)
	if e.Code < 0 {
		msg = fmt.Sprintf("%s failed: %s (%d)", e.Op, syscall.Errno(-e.Code).Error(), e.Code)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *NativeError) Unwrap() error { return e.Err }

func nativeErr(op string, errno syscall.Errno, err error) *NativeError {
	return &NativeError{Op: op, Code: -int(errno), Err: err}
}

// NativeCode extracts the native code from err, or 0 when there is none
func NativeCode(err error) int {
	var nerr *NativeError
	if errors.As(err, &nerr) {
		return nerr.Code
	}
	var aerr *AudioError
	if errors.As(err, &aerr) {
		return aerr.Code
	}
	return 0
}

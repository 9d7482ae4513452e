// ABOUTME: Process exit status for a finished session
// ABOUTME: Maps device error codes through to the exit status where they fit
package session

import (
	"context"
	"errors"

	"github.com/heywifi/heywifi-go/pkg/audio/capture"
)

// ExitCanceled is returned when the session was interrupted
const ExitCanceled = 130

// ExitCode maps a Run error to a process exit status: 0 on success, the
// absolute native device code when it is in 1..125, ExitCanceled on
// cancellation and 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if errors.Is(err, context.Canceled) {
		return ExitCanceled
	}

	var aerr *capture.AudioError
	if errors.As(err, &aerr) {
		code := aerr.Code
		if code < 0 {
			code = -code
		}
		if code >= 1 && code <= 125 {
			return code
		}
	}
	return 1
}

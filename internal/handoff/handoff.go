// ABOUTME: Post-extraction credential hand-off
// ABOUTME: Logs recovered credentials or passes them to an external command with bounded runtime and output
package handoff

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"time"

	"github.com/heywifi/heywifi-go/pkg/payload"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	// DefaultTimeout bounds an external command
	DefaultTimeout = 30 * time.Second

	// MaxOutputSize is the maximum size of stdout/stderr to capture
	MaxOutputSize = 1024 * 1024

	// EnvSSID and EnvPassphrase carry the credential to the command
	EnvSSID       = "HEYWIFI_SSID"
	EnvPassphrase = "HEYWIFI_PASSPHRASE"
)

// ErrTimeout is returned when the command outlives its timeout
var ErrTimeout = errors.New("hand-off command timed out")

// Handler consumes a recovered credential
type Handler interface {
	Handle(ctx context.Context, rec payload.Record) error
}

// LogHandler only logs the credential. The passphrase appears at debug level.
type LogHandler struct {
	Logger *zap.Logger
}

func (h LogHandler) Handle(ctx context.Context, rec payload.Record) error {
	logger := h.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("credential received", zap.String("ssid", rec.SSIDString()))
	logger.Debug("credential passphrase", zap.String("passphrase", rec.PassphraseString()))
	return nil
}

// Result is the outcome of one command run
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// CommandHandler runs Path with the SSID and passphrase as arguments and in
// the environment
type CommandHandler struct {
	Path    string
	Timeout time.Duration
	Logger  *zap.Logger

	// LastResult holds the outcome of the most recent Handle call
	LastResult *Result
}

// NewCommandHandler creates a handler for path
func NewCommandHandler(path string, timeout time.Duration, logger *zap.Logger) *CommandHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &CommandHandler{Path: path, Timeout: timeout, Logger: logger}
}

func (h *CommandHandler) Handle(ctx context.Context, rec payload.Record) error {
	ctx, cancel := context.WithTimeout(ctx, h.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, h.Path, rec.SSIDString(), rec.PassphraseString())
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &limitedWriter{buf: &stdout, limit: MaxOutputSize}
	cmd.Stderr = &limitedWriter{buf: &stderr, limit: MaxOutputSize}
	cmd.Env = append(os.Environ(),
		EnvSSID+"="+rec.SSIDString(),
		EnvPassphrase+"="+rec.PassphraseString(),
	)

	h.Logger.Info("running hand-off command",
		zap.String("command", h.Path),
		zap.String("ssid", rec.SSIDString()),
		zap.Duration("timeout", h.Timeout),
	)

	start := time.Now()
	err := cmd.Run()
	result := &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}
	h.LastResult = result

	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			result.ExitCode = -1
			h.Logger.Warn("hand-off command timed out",
				zap.String("command", h.Path),
				zap.Duration("timeout", h.Timeout),
			)
			return errors.Wrapf(ErrTimeout, "%s after %s", h.Path, h.Timeout)
		}
		if exitErr, ok := err.(*exec.ExitError); ok {
			result.ExitCode = exitErr.ExitCode()
			h.Logger.Warn("hand-off command failed",
				zap.String("command", h.Path),
				zap.Int("exit_code", result.ExitCode),
				zap.String("stderr", result.Stderr),
			)
			return errors.Wrapf(err, "hand-off command %s", h.Path)
		}
		result.ExitCode = -1
		h.Logger.Error("hand-off command could not run",
			zap.String("command", h.Path),
			zap.Error(err),
		)
		return errors.Wrapf(err, "hand-off command %s", h.Path)
	}

	h.Logger.Info("hand-off command completed",
		zap.String("command", h.Path),
		zap.Duration("duration", result.Duration),
	)
	return nil
}

// limitedWriter wraps a buffer with a size limit
type limitedWriter struct {
	buf     *bytes.Buffer
	limit   int
	written int
}

func (w *limitedWriter) Write(p []byte) (n int, err error) {
	if w.written >= w.limit {
		return len(p), nil
	}

	remaining := w.limit - w.written
	q := p
	if len(q) > remaining {
		q = q[:remaining]
	}

	n, err = w.buf.Write(q)
	w.written += n
	return len(p), err
}

// ABOUTME: Leveled logger construction
// ABOUTME: Builds a zap logger with an extra trace level below debug and an optional JSON log file
package logging

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// TraceLevel is one step more verbose than debug
const TraceLevel = zapcore.DebugLevel - 1

// ParseLevel accepts trace, debug, info, warn and error (case-insensitive)
func ParseLevel(s string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return TraceLevel, nil
	case "", "info":
		return zapcore.InfoLevel, nil
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", s)
	}
	return lvl, nil
}

// LevelFromVerbosity maps repeated -v flags: 0 info, 1 debug, 2+ trace
func LevelFromVerbosity(v int) zapcore.Level {
	switch {
	case v >= 2:
		return TraceLevel
	case v == 1:
		return zapcore.DebugLevel
	default:
		return zapcore.InfoLevel
	}
}

// LevelName returns the lowercase name used in configuration
func LevelName(lvl zapcore.Level) string {
	if lvl == TraceLevel {
		return "trace"
	}
	return lvl.String()
}

// New builds a logger at level. console writes human readable lines to
// stderr; a non-empty file also receives every entry as JSON. With neither the
// logger discards everything.
func New(level zapcore.Level, file string, console bool) (*zap.Logger, error) {
	enabler := zap.NewAtomicLevelAt(level)

	var cores []zapcore.Core
	if console {
		consoleCfg := zap.NewDevelopmentEncoderConfig()
		consoleCfg.EncodeLevel = colorLevelEncoder
		consoleCfg.EncodeCaller = nil
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), zapcore.Lock(os.Stderr), enabler))
	}

	if file != "" {
		f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		fileCfg := zap.NewProductionEncoderConfig()
		fileCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		fileCfg.EncodeLevel = levelEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileCfg), zapcore.AddSync(f), enabler))
	}

	return zap.New(zapcore.NewTee(cores...)), nil
}

// Trace logs at TraceLevel
func Trace(logger *zap.Logger, msg string, fields ...zap.Field) {
	if ce := logger.Check(TraceLevel, msg); ce != nil {
		ce.Write(fields...)
	}
}

func levelEncoder(lvl zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	if lvl == TraceLevel {
		enc.AppendString("trace")
		return
	}
	zapcore.LowercaseLevelEncoder(lvl, enc)
}

func colorLevelEncoder(lvl zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	if lvl == TraceLevel {
		enc.AppendString("\x1b[90mTRACE\x1b[0m")
		return
	}
	zapcore.CapitalColorLevelEncoder(lvl, enc)
}

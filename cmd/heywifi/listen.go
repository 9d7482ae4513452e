// ABOUTME: listen command implementation
// ABOUTME: Wires configuration, logging, capture, decoder, hand-off, metrics and TUI into one session
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/heywifi/heywifi-go/internal/config"
	"github.com/heywifi/heywifi-go/internal/handoff"
	"github.com/heywifi/heywifi-go/internal/logging"
	"github.com/heywifi/heywifi-go/internal/metrics"
	"github.com/heywifi/heywifi-go/internal/session"
	"github.com/heywifi/heywifi-go/internal/ui"
	"github.com/heywifi/heywifi-go/internal/version"
	"github.com/heywifi/heywifi-go/pkg/audio/capture"
	"github.com/heywifi/heywifi-go/pkg/audio/output"
	"github.com/heywifi/heywifi-go/pkg/modem"
)

func runListen(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd.Flags())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	captureCfg, err := cfg.CaptureConfig()
	if err != nil {
		return err
	}
	driver, err := capture.SelectDriver(cfg.Driver, cfg.Device, logger)
	if err != nil {
		return err
	}

	logger.Info("starting receiver",
		zap.String("version", version.Version),
		zap.String("driver", driver.Name()),
		zap.String("device", cfg.Device),
		zap.String("profile", cfg.Profile))

	deps := session.Deps{
		Driver:  driver,
		Factory: modem.NewQuietDecoder,
		Handler: newHandler(cfg, logger),
		Metrics: startMetrics(ctx, cfg, logger),
		Logger:  logger,
	}

	if cfg.AckTone {
		tone := output.DefaultAckTone()
		chime := output.NewChime(output.NewOto(tone.SampleRate, tone.Channels, logger), tone)
		defer func() { _ = chime.Close() }()
		deps.Acknowledger = chime
	}

	var prog *ui.Program
	tuiDone := make(chan struct{})
	if cfg.TUI {
		prog = ui.New(stop)
		deps.OnStatus = prog.OnStatus
		go func() {
			defer close(tuiDone)
			if err := prog.Run(); err != nil {
				logger.Error("status view failed", zap.Error(err))
			}
		}()
	}

	ctrl := session.New(session.Options{
		Capture:      captureCfg,
		ProfilesFile: cfg.ProfilesFile,
		Profile:      cfg.Profile,
		MessageSize:  cfg.MessageSize,
	}, deps)

	rec, err := ctrl.Run(ctx)

	if prog != nil {
		prog.Done(err)
		<-tuiDone
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), rec.SSIDString())
	return nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	var level zapcore.Level
	if verbosity > 0 {
		level = logging.LevelFromVerbosity(verbosity)
	} else {
		lvl, err := logging.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, err
		}
		level = lvl
	}
	return logging.New(level, cfg.LogFile, !cfg.TUI)
}

func newHandler(cfg *config.Config, logger *zap.Logger) handoff.Handler {
	if cfg.Exec == "" {
		return handoff.LogHandler{Logger: logger}
	}
	return handoff.NewCommandHandler(cfg.Exec, cfg.ExecTimeout, logger)
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zap.Logger) *metrics.Metrics {
	if cfg.MetricsAddr == "" {
		return nil
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewMetrics(reg)

	go func() {
		if err := metrics.Serve(ctx, cfg.MetricsAddr, reg, logger); err != nil {
			logger.Error("metrics endpoint failed", zap.Error(err))
		}
	}()
	return m
}

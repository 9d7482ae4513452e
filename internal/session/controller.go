// ABOUTME: Session controller for one provisioning attempt
// ABOUTME: Opens capture, builds the decoder, runs the read loop and tears everything down in order
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/heywifi/heywifi-go/internal/handoff"
	"github.com/heywifi/heywifi-go/internal/logging"
	"github.com/heywifi/heywifi-go/internal/metrics"
	"github.com/heywifi/heywifi-go/pkg/audio"
	"github.com/heywifi/heywifi-go/pkg/audio/capture"
	"github.com/heywifi/heywifi-go/pkg/modem"
	"github.com/heywifi/heywifi-go/pkg/payload"
)

// Acknowledger signals a successful extraction to the person provisioning
type Acknowledger interface {
	Acknowledge(ctx context.Context) error
}

// Options are the per-run settings
type Options struct {
	Capture      capture.Config
	ProfilesFile string
	Profile      string
	MessageSize  int
}

// Deps are the collaborators a Controller drives. Driver and Factory are
// required; everything else may be nil.
type Deps struct {
	Driver       capture.Driver
	Factory      modem.Factory
	Handler      handoff.Handler
	Acknowledger Acknowledger
	Metrics      *metrics.Metrics
	Logger       *zap.Logger

	// OnStatus is called on every state change and after every read
	OnStatus func(Status)
}

// Status is a snapshot of a running session
type Status struct {
	ID        string
	State     State
	Device    string
	Format    audio.Format
	Frames    uint64
	Messages  int
	Truncated int
	SSID      string
	Err       error
}

// Controller runs a single capture → decode → extract session
type Controller struct {
	opts   Options
	deps   Deps
	logger *zap.Logger

	mu     sync.Mutex
	status Status
}

// New creates a controller. It panics if deps lacks a driver or factory.
func New(opts Options, deps Deps) *Controller {
	if deps.Driver == nil || deps.Factory == nil {
		panic("session: Driver and Factory are required")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if opts.MessageSize <= 0 {
		opts.MessageSize = modem.DefaultMessageSize
	}

	id := uuid.New().String()
	return &Controller{
		opts:   opts,
		deps:   deps,
		logger: deps.Logger.With(zap.String("session", id)),
		status: Status{ID: id, State: StateIdle, Device: opts.Capture.Device},
	}
}

// ID returns the session identifier used in logs
func (c *Controller) ID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status.ID
}

// Status returns the current snapshot
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// State returns the current state
func (c *Controller) State() State {
	return c.Status().State
}

// Run executes the session until a credential is extracted, the device fails
// or ctx ends. Resources are released on every path before Run returns; the
// hand-off and acknowledgement run after teardown.
func (c *Controller) Run(ctx context.Context) (payload.Record, error) {
	c.deps.Metrics.SetState(int(StateIdle))

	source := capture.NewSource(c.deps.Driver, c.logger)
	var adapter *modem.Adapter

	rec, err := c.prepareAndListen(ctx, source, &adapter)
	if err != nil {
		c.fail(err)
	} else {
		c.setState(StateExtracted)
	}

	c.teardown(source, adapter)
	c.setState(StateClosed)

	if err != nil {
		return payload.Record{}, err
	}

	if err := c.handOff(ctx, rec); err != nil {
		return rec, err
	}
	return rec, nil
}

func (c *Controller) prepareAndListen(ctx context.Context, source *capture.Source, adapter **modem.Adapter) (payload.Record, error) {
	negotiated, err := source.Open(c.opts.Capture)
	if err != nil {
		return payload.Record{}, err
	}
	c.update(func(s *Status) {
		s.Device = negotiated.Device
		s.Format = negotiated.StreamFormat()
	})
	c.setState(StateDeviceReady)

	profile, err := modem.LoadProfile(c.opts.ProfilesFile, c.opts.Profile)
	if err != nil {
		c.logger.Error("failed to load decoder profile",
			zap.String("file", c.opts.ProfilesFile),
			zap.String("profile", c.opts.Profile),
			zap.Error(err))
		return payload.Record{}, err
	}

	a, err := modem.NewAdapter(c.deps.Factory, profile, negotiated.StreamFormat(), c.opts.MessageSize, c.logger)
	if err != nil {
		c.logger.Error("failed to create decoder", zap.Error(err))
		return payload.Record{}, err
	}
	*adapter = a
	c.setState(StateDecoderReady)

	return c.listen(ctx, source, a)
}

func (c *Controller) listen(ctx context.Context, source *capture.Source, adapter *modem.Adapter) (payload.Record, error) {
	c.setState(StateListening)
	c.logger.Info("listening for credentials",
		zap.String("profile", c.opts.Profile),
		zap.Stringer("format", adapter.Format()))

	start := time.Now()
	defer func() { c.deps.Metrics.ObserveListen(time.Since(start)) }()

	buf := source.Buffer()
	for {
		if err := ctx.Err(); err != nil {
			return payload.Record{}, err
		}

		frames, err := source.ReadFrames(ctx)
		if err != nil {
			if ctx.Err() == nil {
				c.deps.Metrics.RecordReadError()
			}
			return payload.Record{}, err
		}
		logging.Trace(c.logger, "frames read", zap.Int("frames", frames))
		c.deps.Metrics.RecordFrames(frames)
		c.update(func(s *Status) { s.Frames += uint64(frames) })

		adapter.Consume(buf, frames)

		msg, ok := adapter.TryReceive()
		if !ok {
			continue
		}
		c.deps.Metrics.RecordMessage()
		c.update(func(s *Status) { s.Messages++ })
		c.logger.Debug("message received", zap.Int("bytes", len(msg)))

		rec, err := payload.Extract(msg)
		if err != nil {
			if errors.Is(err, payload.ErrTruncated) {
				c.deps.Metrics.RecordTruncated()
				c.update(func(s *Status) { s.Truncated++ })
				c.logger.Warn("discarding truncated payload", zap.Error(err))
				continue
			}
			return payload.Record{}, err
		}

		c.update(func(s *Status) { s.SSID = rec.SSIDString() })
		c.logger.Info("credential extracted", zap.String("ssid", rec.SSIDString()))
		return rec, nil
	}
}

// teardown destroys the decoder, then frees the capture buffer and drains and
// closes the device. It runs whatever state the session ended in.
func (c *Controller) teardown(source *capture.Source, adapter *modem.Adapter) {
	if adapter != nil {
		if err := adapter.Close(); err != nil {
			c.logger.Warn("decoder close failed", zap.Error(err))
		}
	}
	if err := source.Close(); err != nil {
		c.logger.Warn("capture close failed", zap.Error(err))
	}
}

func (c *Controller) handOff(ctx context.Context, rec payload.Record) error {
	if c.deps.Acknowledger != nil {
		if err := c.deps.Acknowledger.Acknowledge(ctx); err != nil {
			c.logger.Warn("acknowledgement tone failed", zap.Error(err))
		}
	}
	if c.deps.Handler == nil {
		return nil
	}
	if err := c.deps.Handler.Handle(ctx, rec); err != nil {
		c.logger.Error("credential hand-off failed", zap.Error(err))
		return fmt.Errorf("hand-off: %w", err)
	}
	return nil
}

func (c *Controller) fail(err error) {
	c.update(func(s *Status) { s.Err = err })
	if errors.Is(err, context.Canceled) {
		c.logger.Info("session canceled")
	} else {
		c.logger.Error("session aborted", zap.Error(err), zap.Int("exit_code", ExitCode(err)))
	}
	c.setState(StateAborted)
}

func (c *Controller) setState(state State) {
	c.mu.Lock()
	prev := c.status.State
	c.status.State = state
	c.mu.Unlock()

	if prev != state {
		c.logger.Debug("session state", zap.Stringer("from", prev), zap.Stringer("to", state))
	}
	c.deps.Metrics.SetState(int(state))
	c.notify()
}

func (c *Controller) update(fn func(s *Status)) {
	c.mu.Lock()
	fn(&c.status)
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) notify() {
	if c.deps.OnStatus == nil {
		return
	}
	c.deps.OnStatus(c.Status())
}

package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"convergedash/internal/logging"
	"convergedash/internal/models"
)

const (
	// DefaultInterval is the pause between two poll cycles.
	DefaultInterval = 60 * time.Second
	// DefaultTimeout bounds a single poll cycle.
	DefaultTimeout = 15 * time.Second
)

// Renderer draws a health status somewhere a human can see it.
type Renderer interface {
	RenderHealthy()
	RenderUnhealthy()
	RenderUnreachable()
}

// Render dispatches status to the matching Renderer method.
func Render(r Renderer, status models.HealthStatus) {
	switch status {
	case models.Healthy:
		r.RenderHealthy()
	case models.Unhealthy:
		r.RenderUnhealthy()
	default:
		r.RenderUnreachable()
	}
}

// Config holds the poller's timing.
type Config struct {
	Interval time.Duration
	Timeout  time.Duration
}

// Poller periodically checks backend health and renders the outcome.
type Poller struct {
	interval time.Duration
	timeout  time.Duration
	checker  HealthChecker
	renderer Renderer
	log      *logrus.Entry

	startOnce sync.Once
	stopOnce  sync.Once
	started   chan struct{}
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// New creates a poller. The per-cycle timeout is kept below the interval so a
// pending request never outlives the next tick.
func New(cfg Config, checker HealthChecker, renderer Renderer) (*Poller, error) {
	if cfg.Interval <= 0 {
		return nil, errors.New("poller: interval must be > 0")
	}
	if checker == nil {
		return nil, errors.New("poller: health checker required")
	}
	if renderer == nil {
		return nil, errors.New("poller: renderer required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if timeout >= cfg.Interval {
		timeout = cfg.Interval * 9 / 10
	}

	return &Poller{
		interval: cfg.Interval,
		timeout:  timeout,
		checker:  checker,
		renderer: renderer,
		log:      logging.WithComponent("poller"),
		started:  make(chan struct{}),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Interval returns the configured poll interval.
func (p *Poller) Interval() time.Duration { return p.interval }

// Timeout returns the effective per-cycle timeout.
func (p *Poller) Timeout() time.Duration { return p.timeout }

// Start polls once immediately and then on every interval until Stop.
// Calling Start more than once has no effect.
func (p *Poller) Start() {
	p.startOnce.Do(func() {
		close(p.started)
		go p.run()
	})
}

// Stop cancels any in-flight cycle and waits for the loop to exit.
// It is safe to call before Start and more than once.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopCh)
	})
	select {
	case <-p.started:
		<-p.doneCh
	default:
	}
}

// PollOnce runs one check-and-render cycle and returns the resolved status.
// A failed check is rendered as Unreachable and never escapes the cycle.
// If ctx itself is canceled (shutdown) the result is returned but not drawn.
func (p *Poller) PollOnce(ctx context.Context) models.HealthStatus {
	checkCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	status, err := p.checker.Check(checkCtx)
	if err != nil {
		status = models.Unreachable
		if errors.Is(ctx.Err(), context.Canceled) {
			p.log.WithError(err).Debug("poll aborted")
			return status
		}
		p.log.WithError(err).Debug("health check failed")
	}
	Render(p.renderer, status)
	return status
}

func (p *Poller) run() {
	defer close(p.doneCh)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-p.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	p.PollOnce(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.PollOnce(ctx)
		case <-p.stopCh:
			return
		}
	}
}

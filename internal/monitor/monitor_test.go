package monitor

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"convergedash/internal/models"
)

type fakeChecker struct {
	mu     sync.Mutex
	status models.HealthStatus
	err    error
	calls  atomic.Int32
}

func (f *fakeChecker) set(status models.HealthStatus, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status, f.err = status, err
}

func (f *fakeChecker) Check(context.Context) (models.HealthStatus, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status, f.err
}

type recordingRenderer struct {
	mu       sync.Mutex
	rendered []models.HealthStatus
}

func (r *recordingRenderer) add(s models.HealthStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rendered = append(r.rendered, s)
}

func (r *recordingRenderer) RenderHealthy()     { r.add(models.Healthy) }
func (r *recordingRenderer) RenderUnhealthy()   { r.add(models.Unhealthy) }
func (r *recordingRenderer) RenderUnreachable() { r.add(models.Unreachable) }

func (r *recordingRenderer) snapshot() []models.HealthStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.HealthStatus, len(r.rendered))
	copy(out, r.rendered)
	return out
}

func newTestPoller(t *testing.T, interval time.Duration, checker HealthChecker) (*Poller, *recordingRenderer) {
	t.Helper()
	renderer := &recordingRenderer{}
	p, err := New(Config{Interval: interval}, checker, renderer)
	require.NoError(t, err)
	return p, renderer
}

func TestPollOnce_MapsResult(t *testing.T) {
	tests := []struct {
		name   string
		status models.HealthStatus
		err    error
		want   models.HealthStatus
	}{
		{name: "healthy", status: models.Healthy, want: models.Healthy},
		{name: "unhealthy", status: models.Unhealthy, want: models.Unhealthy},
		{name: "failure", status: models.Unreachable, err: &HealthCheckFailure{Endpoint: "x", Err: errors.New("refused")}, want: models.Unreachable},
		{name: "error overrides status", status: models.Healthy, err: errors.New("decode"), want: models.Unreachable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := &fakeChecker{}
			checker.set(tt.status, tt.err)
			p, renderer := newTestPoller(t, time.Minute, checker)

			got := p.PollOnce(context.Background())
			assert.Equal(t, tt.want, got)
			assert.Equal(t, []models.HealthStatus{tt.want}, renderer.snapshot())
		})
	}
}

func TestPollOnce_Idempotent(t *testing.T) {
	checker := &fakeChecker{}
	checker.set(models.Unhealthy, nil)
	p, renderer := newTestPoller(t, time.Minute, checker)

	first := p.PollOnce(context.Background())
	second := p.PollOnce(context.Background())

	assert.Equal(t, first, second)
	assert.Equal(t, []models.HealthStatus{models.Unhealthy, models.Unhealthy}, renderer.snapshot())
}

func TestPollOnce_AgainstEndpoint(t *testing.T) {
	srv := healthServer(t, http.StatusOK, `{"status":"healthy"}`)
	checker, err := NewChecker(srv.URL, srv.Client())
	require.NoError(t, err)

	p, renderer := newTestPoller(t, time.Minute, checker)
	assert.Equal(t, models.Healthy, p.PollOnce(context.Background()))
	assert.Equal(t, []models.HealthStatus{models.Healthy}, renderer.snapshot())
}

func TestPollOnce_CanceledParentSkipsRender(t *testing.T) {
	checker := &fakeChecker{}
	checker.set(models.Unreachable, context.Canceled)
	p, renderer := newTestPoller(t, time.Minute, checker)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Equal(t, models.Unreachable, p.PollOnce(ctx))
	assert.Empty(t, renderer.snapshot())
}

func TestStart_PollsImmediatelyAndOnTick(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	checker := &fakeChecker{}
	checker.set(models.Healthy, nil)
	p, renderer := newTestPoller(t, 20*time.Millisecond, checker)

	p.Start()
	p.Start()
	require.Eventually(t, func() bool {
		return len(renderer.snapshot()) >= 3
	}, 2*time.Second, 5*time.Millisecond)
	p.Stop()
	p.Stop()

	calls := checker.calls.Load()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, calls, checker.calls.Load(), "no polls after Stop")
	for _, s := range renderer.snapshot() {
		assert.Equal(t, models.Healthy, s)
	}
}

func TestStart_FirstPollBeforeInterval(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	checker := &fakeChecker{}
	checker.set(models.Unhealthy, nil)
	p, renderer := newTestPoller(t, time.Hour, checker)

	p.Start()
	defer p.Stop()

	require.Eventually(t, func() bool {
		return len(renderer.snapshot()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []models.HealthStatus{models.Unhealthy}, renderer.snapshot())
}

func TestStop_BeforeStart(t *testing.T) {
	p, _ := newTestPoller(t, time.Minute, &fakeChecker{})
	done := make(chan struct{})
	go func() {
		p.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked without Start")
	}
}

func TestNew_Validation(t *testing.T) {
	renderer := &recordingRenderer{}
	checker := &fakeChecker{}

	_, err := New(Config{}, checker, renderer)
	assert.Error(t, err)
	_, err = New(Config{Interval: time.Minute}, nil, renderer)
	assert.Error(t, err)
	_, err = New(Config{Interval: time.Minute}, checker, nil)
	assert.Error(t, err)

	p, err := New(Config{Interval: DefaultInterval}, checker, renderer)
	require.NoError(t, err)
	assert.Equal(t, DefaultTimeout, p.Timeout())

	p, err = New(Config{Interval: 10 * time.Second, Timeout: time.Minute}, checker, renderer)
	require.NoError(t, err)
	assert.Equal(t, 9*time.Second, p.Timeout())
}

func TestRender_Dispatch(t *testing.T) {
	renderer := &recordingRenderer{}
	Render(renderer, models.Healthy)
	Render(renderer, models.Unhealthy)
	Render(renderer, models.Unreachable)
	Render(renderer, models.HealthStatus(99))

	assert.Equal(t, []models.HealthStatus{
		models.Healthy, models.Unhealthy, models.Unreachable, models.Unreachable,
	}, renderer.snapshot())
}

package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"convergedash/internal/models"
)

// HealthPath is the endpoint path polled on the dashboard backend.
const HealthPath = "/api/health"

const maxBodyBytes = 1 << 20

// HealthCheckFailure covers every way a health check can fail to produce a
// decodable report: transport errors, timeouts and malformed bodies.
type HealthCheckFailure struct {
	Endpoint   string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *HealthCheckFailure) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("health check %s (http %d): %v", e.Endpoint, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("health check %s: %v", e.Endpoint, e.Err)
}

func (e *HealthCheckFailure) Unwrap() error { return e.Err }

// Timeout reports whether the failure was caused by a deadline.
func (e *HealthCheckFailure) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

// IsHealthCheckFailure reports whether err is, or wraps, a HealthCheckFailure.
func IsHealthCheckFailure(err error) bool {
	var failure *HealthCheckFailure
	return errors.As(err, &failure)
}

// HealthChecker resolves the current health of the backend.
type HealthChecker interface {
	Check(ctx context.Context) (models.HealthStatus, error)
}

// Checker queries GET <base>/api/health over HTTP.
type Checker struct {
	endpoint string
	client   *http.Client
}

// NewChecker builds a checker for the given base URL. A nil client uses a
// default client without its own timeout; callers bound each check via ctx.
func NewChecker(baseURL string, client *http.Client) (*Checker, error) {
	base := strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return nil, errors.New("health checker: base url required")
	}
	if client == nil {
		client = &http.Client{}
	}
	return &Checker{
		endpoint: base + HealthPath,
		client:   client,
	}, nil
}

// Endpoint returns the full URL being polled.
func (c *Checker) Endpoint() string {
	return c.endpoint
}

// Check performs a single request. A decodable body always yields Healthy or
// Unhealthy, whatever the response code; everything else is a
// *HealthCheckFailure paired with Unreachable.
func (c *Checker) Check(ctx context.Context) (models.HealthStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return models.Unreachable, c.failure(0, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("request timed out: %w", err)
		}
		return models.Unreachable, c.failure(0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return models.Unreachable, c.failure(resp.StatusCode, fmt.Errorf("read body: %w", err))
	}

	report, err := models.ParseHealthReport(body)
	if err != nil {
		return models.Unreachable, c.failure(resp.StatusCode, fmt.Errorf("decode body: %w", err))
	}
	return report.Classify(), nil
}

func (c *Checker) failure(code int, err error) *HealthCheckFailure {
	return &HealthCheckFailure{Endpoint: c.endpoint, StatusCode: code, Err: err}
}

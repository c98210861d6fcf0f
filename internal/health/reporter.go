package health

import (
	"context"
	"sync"
	"time"

	"github.com/sbilibin2017/gw-transactions/internal/logger"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// DefaultInterval is how often checks run when no interval is configured.
const DefaultInterval = 15 * time.Second

// CheckFunc tests a single dependency. A nil error means it is usable.
type CheckFunc func(ctx context.Context) error

type check struct {
	name string
	fn   CheckFunc
}

// Reporter runs named dependency checks and publishes their status to a
// gRPC health server. The empty service name carries the overall status.
type Reporter struct {
	server   *health.Server
	interval time.Duration
	timeout  time.Duration
	checks   []check

	mu     sync.Mutex
	status map[string]healthpb.HealthCheckResponse_ServingStatus
}

// Option configures the Reporter
type Option func(*Reporter)

// WithInterval sets the period between check rounds.
func WithInterval(d time.Duration) Option {
	return func(r *Reporter) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithTimeout bounds a single check.
func WithTimeout(d time.Duration) Option {
	return func(r *Reporter) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithCheck registers a named dependency check.
func WithCheck(name string, fn CheckFunc) Option {
	return func(r *Reporter) {
		r.checks = append(r.checks, check{name: name, fn: fn})
	}
}

// NewReporter creates a Reporter publishing to server.
func NewReporter(server *health.Server, opts ...Option) *Reporter {
	r := &Reporter{
		server:   server,
		interval: DefaultInterval,
		timeout:  5 * time.Second,
		status:   make(map[string]healthpb.HealthCheckResponse_ServingStatus),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run checks immediately and then on every tick until ctx is done.
func (r *Reporter) Run(ctx context.Context) {
	r.CheckNow(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.server.Shutdown()
			return
		case <-ticker.C:
			r.CheckNow(ctx)
		}
	}
}

// CheckNow runs every check once and publishes the results.
// It reports whether all checks passed.
func (r *Reporter) CheckNow(ctx context.Context) bool {
	overall := healthpb.HealthCheckResponse_SERVING

	for _, c := range r.checks {
		status := r.evaluate(ctx, c)
		if status != healthpb.HealthCheckResponse_SERVING {
			overall = healthpb.HealthCheckResponse_NOT_SERVING
		}
		r.publish(c.name, status)
	}
	r.publish("", overall)

	return overall == healthpb.HealthCheckResponse_SERVING
}

// Status returns the last published status of service.
func (r *Reporter) Status(service string) healthpb.HealthCheckResponse_ServingStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	status, ok := r.status[service]
	if !ok {
		return healthpb.HealthCheckResponse_SERVICE_UNKNOWN
	}
	return status
}

func (r *Reporter) evaluate(ctx context.Context, c check) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := c.fn(ctx); err != nil {
		logger.Log.Warnw("health check failed", "check", c.name, "error", err)
		return healthpb.HealthCheckResponse_NOT_SERVING
	}
	return healthpb.HealthCheckResponse_SERVING
}

func (r *Reporter) publish(service string, status healthpb.HealthCheckResponse_ServingStatus) {
	r.mu.Lock()
	prev, seen := r.status[service]
	r.status[service] = status
	r.mu.Unlock()

	if seen && prev != status {
		logger.Log.Infow("health status changed", "service", service, "from", prev.String(), "to", status.String())
	}
	r.server.SetServingStatus(service, status)
}

// Package health publishes service health over the standard gRPC health
// protocol, driven by periodic dependency checks.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Service is the name reported alongside the overall ("") status.
const Service = "appointments.v1.Booking"

// Check probes one dependency, e.g. a database ping.
type Check func(ctx context.Context) error

type Checker struct {
	srv      *health.Server
	checks   map[string]Check
	interval time.Duration
	log      zerolog.Logger
}

func New(interval time.Duration, log zerolog.Logger) *Checker {
	return &Checker{
		srv:      health.NewServer(),
		checks:   make(map[string]Check),
		interval: interval,
		log:      log,
	}
}

// Add registers a named dependency check. Call before Run.
func (h *Checker) Add(name string, c Check) { h.checks[name] = c }

func (h *Checker) Register(s *grpc.Server) { healthpb.RegisterHealthServer(s, h.srv) }

// Probe runs every check once and publishes the result.
func (h *Checker) Probe(ctx context.Context) error {
	status := healthpb.HealthCheckResponse_SERVING
	var firstErr error
	for name, c := range h.checks {
		cctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := c(cctx)
		cancel()
		if err != nil {
			h.log.Warn().Err(err).Str("check", name).Msg("health check failed")
			status = healthpb.HealthCheckResponse_NOT_SERVING
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	h.srv.SetServingStatus("", status)
	h.srv.SetServingStatus(Service, status)
	return firstErr
}

// Run probes on every interval until ctx ends, then reports NOT_SERVING.
func (h *Checker) Run(ctx context.Context) {
	_ = h.Probe(ctx)
	t := time.NewTicker(h.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			h.srv.Shutdown()
			return
		case <-t.C:
			_ = h.Probe(ctx)
		}
	}
}

// Status returns the last published overall status.
func (h *Checker) Status(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	resp, err := h.srv.Check(ctx, &healthpb.HealthCheckRequest{})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN
	}
	return resp.GetStatus()
}

// Handler serves the last published status over HTTP: 200 while serving,
// 503 otherwise.
func (h *Checker) Handler() echo.HandlerFunc {
	return func(c echo.Context) error {
		st := h.Status(c.Request().Context())
		code := http.StatusOK
		if st != healthpb.HealthCheckResponse_SERVING {
			code = http.StatusServiceUnavailable
		}
		return c.JSON(code, map[string]string{"status": st.String()})
	}
}

package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func TestProbeFlipsStatus(t *testing.T) {
	ctx := context.Background()
	h := New(0, zerolog.Nop())

	var dbErr error
	h.Add("postgres", func(context.Context) error { return dbErr })

	assert.NoError(t, h.Probe(ctx))
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, h.Status(ctx))

	dbErr = errors.New("connection refused")
	assert.Error(t, h.Probe(ctx))
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, h.Status(ctx))

	resp, err := h.srv.Check(ctx, &healthpb.HealthCheckRequest{Service: Service})
	assert.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.GetStatus())

	dbErr = nil
	assert.NoError(t, h.Probe(ctx))
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, h.Status(ctx))
}

func TestRunStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := New(time.Hour, zerolog.Nop())
	h.Add("ok", func(context.Context) error { return nil })

	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()
	cancel()
	<-done
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, h.Status(context.Background()))
}

func TestHandler(t *testing.T) {
	h := New(0, zerolog.Nop())
	fail := true
	h.Add("redis", func(context.Context) error {
		if fail {
			return errors.New("down")
		}
		return nil
	})

	e := echo.New()
	e.GET("/healthz", h.Handler())
	get := func() *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		return rec
	}

	_ = h.Probe(context.Background())
	rec := get()
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "NOT_SERVING")

	fail = false
	_ = h.Probe(context.Background())
	assert.Equal(t, http.StatusOK, get().Code)
}

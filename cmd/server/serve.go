package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"doctor-appointments-api/internal/booking"
	"doctor-appointments-api/internal/cache"
	"doctor-appointments-api/internal/config"
	"doctor-appointments-api/internal/doctor"
	"doctor-appointments-api/internal/handler"
	"doctor-appointments-api/internal/health"
	"doctor-appointments-api/internal/metrics"
	"doctor-appointments-api/internal/middleware"
	"doctor-appointments-api/internal/platform/db"
	"doctor-appointments-api/internal/store"
)

// backend is what both the postgres and the in-memory store provide.
type backend interface {
	booking.AppointmentRepository
	booking.DoctorLookup
	doctor.Repository
	handler.Accounts
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and the gRPC health endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runServer(cfg)
		},
	}
}

func runServer(cfg *config.Config) error {
	logger := newLogger(cfg)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	checker := health.New(15*time.Second, logger)

	var st backend
	switch cfg.StoreDriver {
	case "memory":
		logger.Warn().Msg("using in-memory store, data is lost on restart")
		st = store.NewMemory()
	default:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return err
		}
		defer pool.Close()
		logger.Info().Msg("connected to postgres")
		checker.Add("postgres", pool.Ping)
		st = store.New(pool)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	opts := []booking.Option{
		booking.WithLogger(logger),
		booking.WithMetrics(metrics.NewBookingMetrics(reg)),
		booking.WithRange(cfg.AvailabilityDays, cfg.MaxAvailabilityDays),
	}
	var inv doctor.Invalidator
	if cfg.RedisURL != "" {
		ropt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return err
		}
		rdb := redis.NewClient(ropt)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			// the cache is optional; lookups fall through to the store
			logger.Warn().Err(err).Msg("redis unreachable at startup")
		}
		checker.Add("redis", func(ctx context.Context) error { return rdb.Ping(ctx).Err() })

		av := cache.NewAvailability(rdb, cfg.AvailabilityCacheTTL, logger)
		opts = append(opts, booking.WithCache(av))
		inv = av
	}

	bookings := booking.NewService(st, st, opts...)
	doctors := doctor.NewService(st, inv, logger)
	h := handler.New(bookings, doctors, st, cfg.JWTSecret, logger)

	if cfg.AdminEmail != "" {
		if err := h.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword, "Administrator"); err != nil {
			return err
		}
	}

	rl := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go rl.Run(ctx)
	go checker.Run(ctx)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.ErrorHandler(logger)

	e.Use(middleware.Recovery(logger))
	e.Use(echomw.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))
	e.Use(echomw.ContextTimeout(cfg.RequestTimeout))

	e.GET("/healthz", checker.Handler())
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	h.Routes(e, rl)

	// grpc carries only the standard health service
	gs := grpc.NewServer()
	checker.Register(gs)
	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		return err
	}

	errc := make(chan error, 2)
	go func() {
		logger.Info().Str("addr", lis.Addr().String()).Msg("grpc health listening")
		errc <- gs.Serve(lis)
	}()
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errc:
		logger.Error().Err(runErr).Msg("server error")
	}

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown failed")
	}
	gs.GracefulStop()
	logger.Info().Msg("server stopped")
	return runErr
}

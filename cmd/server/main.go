package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shareit/internal/api"
	"shareit/internal/config"
	"shareit/internal/database"
	"shareit/internal/events"
	"shareit/internal/logging"
	"shareit/internal/metrics"
	"shareit/internal/repository"
	"shareit/internal/service"
	"shareit/internal/worker"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	db, err := database.NewDB(cfg.Database, logger)
	if err != nil {
		logger.Error().Err(err).Str("driver", cfg.Database.Driver).Msg("init database")
		return err
	}
	defer db.Close()

	redisClient := initRedis(cfg, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := events.NewEventBus()
	natsConn := initEventForwarding(ctx, cfg, bus, redisClient, logger)
	if natsConn != nil {
		defer natsConn.Close()
	}

	svc := api.Services{
		Users:    service.NewUserService(db, logging.Component(logger, "users")),
		Items:    service.NewItemService(db, bus, logging.Component(logger, "items")),
		Bookings: service.NewBookingService(db, bus, cfg.Booking.StartGrace, logging.Component(logger, "bookings")),
		Requests: service.NewRequestService(db, logging.Component(logger, "requests")),
	}
	httpServer := api.NewHTTPServer(cfg, svc, db, logger)

	startMetrics(ctx, cfg.Monitoring.PrometheusEnabled, cfg.Monitoring.PrometheusPort, logger)

	return serve(ctx, httpServer, logger)
}

func loadConfigAndLogger() (*config.Config, *zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	logger, closer, err := logging.New(cfg.Logging, cfg.App, "server")
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logger, closer, nil
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(context.Background(), redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		_ = redisClient.Close()
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

// initEventForwarding bridges the in-process bus to NATS. Without NATS the
// events stay in process.
func initEventForwarding(ctx context.Context, cfg *config.Config, bus *events.EventBus, redisClient *redis.Client, logger *zerolog.Logger) *nats.Conn {
	if !cfg.NATS.Enabled {
		return nil
	}

	conn, err := nats.Connect(cfg.NATS.URL,
		nats.Name(cfg.App.Name+"-server"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		logger.Warn().Err(err).Str("url", cfg.NATS.URL).Msg("nats connection failed, events stay in process")
		return nil
	}

	forwarder := worker.NewEventForwarder(conn, redisClient, worker.ForwarderConfig{
		SubjectPrefix: cfg.NATS.SubjectPrefix,
		QueueSize:     cfg.NATS.QueueSize,
		Retry:         worker.RetryPolicy{MaxRetries: cfg.NATS.MaxRetries},
	}, logging.Component(logger, "event-forwarder"))
	bus.SubscribeAll(forwarder.Handle)
	go forwarder.Start(ctx)

	logger.Info().Str("url", cfg.NATS.URL).Str("subject_prefix", cfg.NATS.SubjectPrefix).Msg("nats connected")
	return conn
}

func startMetrics(ctx context.Context, enabled bool, port int, logger *zerolog.Logger) {
	if !enabled {
		return
	}

	metrics.Register()
	go startMetricsServer(ctx, port, logger)
}

func serve(ctx context.Context, httpServer *api.HTTPServer, logger *zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Start()
	}()

	logger.Info().Str("addr", httpServer.Addr()).Msg("shareit server started")

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("http server stopped")
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http server shutdown")
	}

	logger.Info().Msg("shareit server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}

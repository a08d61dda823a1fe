package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"example.com/mergington/internal/api"
	"example.com/mergington/internal/catalog"
	"example.com/mergington/internal/config"
	"example.com/mergington/internal/domain"
	"example.com/mergington/internal/logging"
	"example.com/mergington/internal/observability"
	"example.com/mergington/internal/outbox"
	"example.com/mergington/internal/registry"
	httptransport "example.com/mergington/internal/transport/http"
	"example.com/mergington/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Error("activities-service stopped", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	seed, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return err
	}
	reg, err := registry.NewInMemoryRegistry(seed, registry.WithSizeObserver(observability.SetRosterSize))
	if err != nil {
		return err
	}
	for _, activity := range seed {
		if len(activity.Participants) > activity.MaxParticipants {
			logger.Warn("seeded roster exceeds capacity",
				zap.String("activity", activity.Name),
				zap.Int("participants", len(activity.Participants)),
				zap.Int("max_participants", activity.MaxParticipants),
			)
		}
	}
	if !cfg.EnforceCapacity {
		logger.Info("capacity enforcement disabled, signups may exceed max_participants")
	}

	publisher := outbox.NewPublisher(outbox.PublisherConfig{
		Brokers:        cfg.KafkaBrokers,
		Topic:          cfg.RosterTopic,
		BufferSize:     cfg.EventBufferSize,
		PublishTimeout: cfg.EventPublishTimeout,
	}, logger)
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("close roster publisher", zap.Error(err))
		}
	}()
	if len(cfg.KafkaBrokers) > 0 {
		logger.Info("publishing roster events", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.RosterTopic))
	}

	service := domain.NewService(reg,
		domain.WithPublisher(publisher),
		domain.WithLogger(logger),
		domain.WithCapacityEnforcement(cfg.EnforceCapacity),
	)

	mux := http.NewServeMux()
	api.NewHandler(service, logger).RegisterRoutes(mux)
	web.RegisterRoutes(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	server := httptransport.NewServer(httptransport.ServerConfig{
		Address:      cfg.HTTPAddress,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}, httptransport.Chain(mux,
		httptransport.RequestID(),
		httptransport.RequestLogger(logger),
		httptransport.CORS(cfg.CORSAllowedOrigin),
	))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("activities-service listening", zap.String("address", cfg.HTTPAddress), zap.Int("activities", len(seed)))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
	}
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dejobratic/dualwrite/internal/config"
	"github.com/dejobratic/dualwrite/internal/database"
	idemmemory "github.com/dejobratic/dualwrite/internal/idempotency/memory"
	idempostgres "github.com/dejobratic/dualwrite/internal/idempotency/postgres"
	idemredis "github.com/dejobratic/dualwrite/internal/idempotency/redis"
	"github.com/dejobratic/dualwrite/internal/kafka"
	"github.com/dejobratic/dualwrite/internal/orders/adapters"
	httpadapter "github.com/dejobratic/dualwrite/internal/orders/adapters/http"
	orderskafka "github.com/dejobratic/dualwrite/internal/orders/adapters/kafka"
	orderspostgres "github.com/dejobratic/dualwrite/internal/orders/adapters/postgres"
	ordersapp "github.com/dejobratic/dualwrite/internal/orders/app"
	"github.com/dejobratic/dualwrite/internal/orders/domain"
	ordersmetrics "github.com/dejobratic/dualwrite/internal/orders/metrics"
	"github.com/dejobratic/dualwrite/internal/orders/ports"
	"github.com/dejobratic/dualwrite/internal/telemetry"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

const meterName = "github.com/dejobratic/dualwrite"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := telemetry.NewLogger(os.Stdout, telemetry.ParseLevel(cfg.Telemetry.LogLevel))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("service stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	registry := telemetry.NewPrometheusRegistry()
	promReader, err := telemetry.NewPrometheusReader(registry)
	if err != nil {
		return fmt.Errorf("create prometheus reader: %w", err)
	}

	tel, err := telemetry.Initialize(ctx, telemetry.Config{
		ServiceName:    cfg.Service.Name,
		ServiceVersion: cfg.Service.Version,
		Environment:    cfg.Service.Environment,
		OTLPEndpoint:   cfg.Telemetry.OTelEndpoint,
		EnableTracing:  cfg.Telemetry.EnableTracing,
		EnableMetrics:  cfg.Telemetry.EnableMetrics,
		SampleRate:     cfg.Telemetry.SampleRate,
	}, append(telemetry.LocalExporters(cfg.Telemetry.OTelEndpoint), telemetry.WithMetricReader(promReader))...)
	if err != nil {
		return fmt.Errorf("initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown failed", "error", err)
		}
	}()

	meter := tel.Meter(meterName)
	dbMetrics, err := database.NewMetrics(meter)
	if err != nil {
		return err
	}
	kafkaMetrics, err := kafka.NewMetrics(meter)
	if err != nil {
		return err
	}
	orderMetrics, err := ordersmetrics.NewMetrics(meter)
	if err != nil {
		return err
	}
	httpMetrics, err := httpadapter.NewMetrics(meter)
	if err != nil {
		return err
	}

	pool, err := database.NewPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		return fmt.Errorf("create database pool: %w", err)
	}
	defer pool.Close()

	if cfg.Database.AutoMigrate {
		logger.Info("running database migrations", "path", cfg.Database.MigrationsPath)
		version, err := database.RunMigrations(cfg.Database.URL, cfg.Database.MigrationsPath)
		if err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		logger.Info("migrations completed successfully", "version", version)
	}

	tx := database.NewTxManager(pool)
	repo := adapters.NewObservableRepository(orderspostgres.NewRepository(pool, tx), dbMetrics)

	kafkaClient := kafka.NewClient(cfg.Kafka.Brokers)
	var writer kafka.MessageWriter
	if kafkaClient.Enabled() {
		writer = kafkaClient.NewWriter(cfg.Kafka.OrderCreatedTopic, cfg.Kafka.WriteTimeout)
	} else {
		logger.Warn("no kafka brokers configured, order events will be discarded")
		writer = kafka.NewNoopWriter(logger)
	}
	defer func() {
		if err := writer.Close(); err != nil {
			logger.Error("failed to close kafka writer", "error", err)
		}
	}()

	publisher := adapters.NewObservableEventPublisher(
		orderskafka.NewPublisher(writer, cfg.Kafka.WriteTimeout),
		kafkaMetrics,
		cfg.Kafka.OrderCreatedTopic,
	)

	idemStore, err := newIdempotencyStore(ctx, cfg.Idempotency, pool)
	if err != nil {
		return err
	}

	service := ordersapp.NewService(repo, publisher, tx, idemStore, domain.NewFactory(), logger, orderMetrics,
		ordersapp.WithChaosMode(cfg.Chaos.Enabled))
	if cfg.Chaos.Enabled {
		logger.Warn("chaos mode enabled, POST /chaos/phantom-event is mounted")
	}

	router := httpadapter.NewRouter(httpadapter.NewHandler(service, logger), httpadapter.RouterConfig{
		Logger:         logger,
		Metrics:        httpMetrics,
		MetricsPath:    cfg.HTTP.MetricsPath,
		MetricsHandler: telemetry.MetricsHandler(registry),
		Ready: func(ctx context.Context) error {
			return database.CheckHealth(ctx, pool)
		},
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("http server starting", "port", cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownGrace)*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		logger.Info("http server stopped")
		return nil
	})

	if kafkaClient.Enabled() {
		reader := kafkaClient.NewReader(cfg.Kafka.OrderCancelledTopic, cfg.Kafka.ConsumerGroup)
		consumer := orderskafka.NewCancellationConsumer(reader, service.CancelHandler(), logger,
			orderskafka.WithTopic(cfg.Kafka.OrderCancelledTopic),
			orderskafka.WithConsumerMetrics(kafkaMetrics),
		)
		g.Go(func() error {
			defer func() {
				if err := reader.Close(); err != nil {
					logger.Error("failed to close kafka reader", "error", err)
				}
			}()
			return consumer.Run(gctx)
		})
	} else {
		logger.Warn("no kafka brokers configured, order.cancelled consumer disabled")
	}

	return g.Wait()
}

func newIdempotencyStore(ctx context.Context, cfg config.IdempotencyConfig, pool *pgxpool.Pool) (ports.IdempotencyStore, error) {
	switch cfg.Backend {
	case config.IdempotencyRedis:
		store := idemredis.NewStore(idemredis.NewClient(cfg.RedisAddr), cfg.TTL)
		if err := store.Ping(ctx); err != nil {
			return nil, fmt.Errorf("connect redis idempotency store: %w", err)
		}
		return store, nil
	case config.IdempotencyMemory:
		return idemmemory.NewStore(idemmemory.WithTTL(cfg.TTL)), nil
	default:
		store := idempostgres.NewStore(pool, cfg.TTL)
		if purged, err := store.PurgeExpired(ctx); err != nil {
			return nil, err
		} else if purged > 0 {
			slog.InfoContext(ctx, "purged expired idempotency keys", "count", purged)
		}
		return store, nil
	}
}

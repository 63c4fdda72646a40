package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/rocketscienceinc/gomoku-backend/internal/config"
	"github.com/rocketscienceinc/gomoku-backend/internal/metrics"
	"github.com/rocketscienceinc/gomoku-backend/internal/repository"
	"github.com/rocketscienceinc/gomoku-backend/internal/repository/storage"
	"github.com/rocketscienceinc/gomoku-backend/transport/rest"
	"github.com/rocketscienceinc/gomoku-backend/transport/websocket"
)

var (
	ErrAddrNotFound  = errors.New("redis address string is empty")
	ErrUnknownBroker = errors.New("unknown relay broker")
)

// RunApp - runs the relay.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	broker, closeBroker, err := initBroker(ctx, logger, conf)
	if err != nil {
		return err
	}
	defer closeBroker()

	audit, closeAudit, err := initAudit(ctx, logger, conf)
	if err != nil {
		return err
	}
	defer closeAudit()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	relay := websocket.New(logger, broker, audit, metrics.NewRelay(registry), websocket.Options{
		PingPeriod:     conf.Relay.PingPeriod,
		ClaimTTL:       conf.Relay.ChannelTTL,
		MaxMessageSize: conf.Relay.MaxMessageSize,
	})

	if conf.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	log.Info("Starting relay", "port", conf.HTTPPort, "broker", conf.Relay.Broker)

	if err = rest.Start(ctx, logger, conf.HTTPPort, rest.NewRouter(logger, relay, audit, registry)); err != nil {
		return fmt.Errorf("HTTP server error: %w", err)
	}

	log.Info("Application context canceled, shutting down")

	return nil
}

func initBroker(ctx context.Context, logger *slog.Logger, conf *config.Config) (websocket.Broker, func(), error) {
	switch conf.Relay.Broker {
	case config.BrokerMemory:
		return repository.NewMemoryBroker(), func() {}, nil
	case config.BrokerRedis:
		redisAddrString := conf.Redis.GetRedisAddr()
		if redisAddrString == "" {
			return nil, nil, ErrAddrNotFound
		}

		redisStorage, err := storage.NewRedisStorage(ctx, redisAddrString)
		if err != nil {
			return nil, nil, fmt.Errorf("could not connect to redis storage: %w", err)
		}

		return repository.NewRedisBroker(redisStorage.Connection), func() {
			if err = redisStorage.Close(); err != nil {
				logger.Error("could not close redis storage", "error", err)
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownBroker, conf.Relay.Broker)
	}
}

func initAudit(ctx context.Context, logger *slog.Logger, conf *config.Config) (repository.AuditRepository, func(), error) {
	if conf.Postgres.DSN == "" {
		logger.Info("no postgres dsn configured, channel audit disabled")
		return repository.NewNoopAuditRepository(), func() {}, nil
	}

	postgresStorage, err := storage.NewPostgresStorage(ctx, conf.Postgres.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("could not connect to postgres storage: %w", err)
	}

	if err = postgresStorage.Init(ctx); err != nil {
		postgresStorage.Close()
		return nil, nil, fmt.Errorf("could not init postgres storage: %w", err)
	}

	return repository.NewAuditRepository(postgresStorage.Connection), postgresStorage.Close, nil
}

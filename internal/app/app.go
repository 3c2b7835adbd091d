package app

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

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/kirinyoku/cineseat/internal/config"
	"github.com/kirinyoku/cineseat/internal/domain"
	"github.com/kirinyoku/cineseat/internal/metrics"
	"github.com/kirinyoku/cineseat/internal/postgres"
	"github.com/kirinyoku/cineseat/internal/queue"
	"github.com/kirinyoku/cineseat/internal/redis"
	postgresrepo "github.com/kirinyoku/cineseat/internal/repository/postgres"
	redisrepo "github.com/kirinyoku/cineseat/internal/repository/redis"
	"github.com/kirinyoku/cineseat/internal/service"
	"github.com/kirinyoku/cineseat/internal/service/cinema"
	"github.com/kirinyoku/cineseat/internal/service/purchase"
	httpgin "github.com/kirinyoku/cineseat/internal/transport/http/gin"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	httpServer *http.Server

	pool      *pgxpool.Pool
	rdb       *goredis.Client
	cache     *redisrepo.Cache
	pubsub    *redisrepo.SeatsSoldPubSub
	publisher *queue.Publisher
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	dsn := cfg.Postgres.DSN()

	if cfg.Postgres.MigrateOnStart {
		if err := postgresrepo.Migrate(dsn); err != nil {
			return nil, fmt.Errorf("failed to apply migrations: %w", err)
		}
		logger.Info("database schema is up to date")
	}

	// a stuck seat lock ends as a lost race (409) before the purchase
	// deadline would turn it into a 500
	pgxPool, err := postgres.New(ctx, postgres.Config{
		DSN:         dsn,
		MaxConns:    cfg.Postgres.MaxConns,
		LockTimeout: cfg.Purchase.Timeout / 2,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres: %w", err)
	}

	rdb, err := redis.New(ctx, redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		pgxPool.Close()
		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	}

	// Initialize repositories
	store := postgresrepo.NewStore(pgxPool)
	cache := redisrepo.New(rdb)
	pubsub := redisrepo.NewSeatsSoldPubSub(rdb)
	limiter := redisrepo.NewSlidingWindowLimiter(rdb, "purchase", cfg.RateLimit.Requests, cfg.RateLimit.Window)
	idempotencyStore := redisrepo.NewIdempotencyStore(rdb, cfg.Purchase.IdempotencyTTL, cfg.Purchase.Timeout*2)

	publishers := []purchase.Publisher{pubsub}

	var publisher *queue.Publisher
	if cfg.RabbitMQ.URL != "" {
		publisher, err = queue.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue)
		if err != nil {
			// sales must not depend on the broker
			logger.Warn("rabbitmq unavailable, seats sold events will not be queued", "error", err)
		} else {
			publishers = append(publishers, publisher)
		}
	}

	m := metrics.New()

	// Initialize services
	services := service.NewServices(store, cache, limiter, m, service.Config{
		Cinema: cinema.Config{
			CinemaTTL:       cfg.Redis.CinemaTTL,
			AvailabilityTTL: cfg.Redis.AvailabilityTTL,
		},
		Purchase: purchase.Config{
			Timeout: cfg.Purchase.Timeout,
			Logger:  logger,
		},
	}, publishers...)

	router := httpgin.NewRouter(httpgin.Deps{
		Cinemas:        services.Cinema,
		Purchases:      services.Purchase,
		Idempotency:    idempotencyStore,
		Metrics:        m,
		MetricsHandler: promhttp.Handler(),
		Health:         store.Ping,
		Logger:         logger,
	})

	return &App{
		cfg:    cfg,
		logger: logger,
		httpServer: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
		pool:      pgxPool,
		rdb:       rdb,
		cache:     cache,
		pubsub:    pubsub,
		publisher: publisher,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	defer a.close()

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server
	g.Go(func() error {
		a.logger.Info("HTTP server listening", "host", a.cfg.Server.Host, "port", a.cfg.Server.Port)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	})

	// Sales committed by other instances invalidate our view of the cinema.
	g.Go(func() error {
		err := a.pubsub.Subscribe(gCtx, func(ctx context.Context, ev domain.SeatsSold) {
			if err := a.cache.InvalidateCinema(ctx, ev.ExternalID); err != nil {
				a.logger.Warn("failed to invalidate cinema cache", "cinema_id", ev.ExternalID, "error", err)
			}
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("seats sold subscription: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down HTTP server")
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.httpServer.Shutdown(ctx)
	})

	return g.Wait()
}

func (a *App) close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Warn("failed to close rabbitmq publisher", "error", err)
		}
	}

	if err := a.rdb.Close(); err != nil {
		a.logger.Warn("failed to close redis client", "error", err)
	}

	a.pool.Close()
}

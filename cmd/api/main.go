package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/baharkarakas/mfs-backend/internal/api"
	"github.com/baharkarakas/mfs-backend/internal/auth"
	"github.com/baharkarakas/mfs-backend/internal/config"
	"github.com/baharkarakas/mfs-backend/internal/db"
	"github.com/baharkarakas/mfs-backend/internal/events"
	"github.com/baharkarakas/mfs-backend/internal/logger"
	"github.com/baharkarakas/mfs-backend/internal/metrics"
	"github.com/baharkarakas/mfs-backend/internal/middleware"
	"github.com/baharkarakas/mfs-backend/internal/policy"
	repo "github.com/baharkarakas/mfs-backend/internal/repository"
	"github.com/baharkarakas/mfs-backend/internal/repository/memory"
	"github.com/baharkarakas/mfs-backend/internal/repository/postgres"
	"github.com/baharkarakas/mfs-backend/internal/services"
	"github.com/baharkarakas/mfs-backend/internal/worker"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load(".")
	if err != nil {
		slog.Error("config", "err", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Env)
	slog.SetDefault(log)
	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	fees, err := cfg.FeeSchedule()
	if err != nil {
		return err
	}
	cashAmount, err := cfg.CashRequest()
	if err != nil {
		return err
	}

	repos, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	adminID, err := services.EnsureAdmin(ctx, repos.Accounts, services.AdminSeed{
		Name:         cfg.AdminName,
		MobileNumber: cfg.AdminMobile,
		Email:        cfg.AdminEmail,
		NID:          cfg.AdminNID,
		PIN:          cfg.AdminPIN,
	})
	if err != nil {
		return err
	}

	var pub events.Publisher = events.Nop{}
	if cfg.RabbitMQURL != "" {
		amqpPub, err := events.NewAMQPPublisher(cfg.RabbitMQURL, cfg.EventsExchange)
		if err != nil {
			log.Warn("rabbitmq unavailable, events disabled", "err", err)
		} else {
			pub = amqpPub
		}
	}
	defer pub.Close()

	// Stopped before pub is closed so queued events still go out.
	wp := worker.NewPool(cfg.WorkerCount, 256, log)
	defer wp.Stop()

	limiter, closeLimiter := newLimiter(ctx, cfg, log)
	defer closeLimiter()

	deps := services.Deps{
		Repos:   repos,
		Policy:  policy.New(fees),
		Events:  events.NewDispatcher(pub, wp, log),
		Log:     log,
		AdminID: adminID,
	}
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)

	r := api.NewRouter(api.RouterDeps{
		Accounts: services.NewAccountService(deps, tokens),
		Balance:  services.NewBalanceService(repos.Accounts),
		Txns:     services.NewTransactionService(deps),
		Requests: services.NewRequestService(deps, cashAmount, cfg.SettlementAudit),
		History:  services.NewHistoryService(repos.Accounts, repos.Transactions, cfg.HistoryPageSize),
		Limiter:  limiter,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", "port", cfg.HTTPPort, "storage", cfg.StorageDriver, "settlement_audit", cfg.SettlementAudit)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg config.Config, log *slog.Logger) (repo.Repositories, func(), error) {
	if cfg.StorageDriver == "memory" {
		log.Warn("using in-memory storage; data is lost on restart")
		return memory.New().Repositories(), func() {}, nil
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, 5*time.Second)
	if err != nil {
		return repo.Repositories{}, nil, err
	}
	if cfg.Migrate {
		if err := db.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return repo.Repositories{}, nil, err
		}
	}
	return postgres.NewRepositories(pool), pool.Close, nil
}

// newLimiter uses Redis when REDIS_URL is set and reachable, with the
// in-process bucket as fallback.
func newLimiter(ctx context.Context, cfg config.Config, log *slog.Logger) (middleware.Limiter, func()) {
	if cfg.RateRPS <= 0 {
		return nil, func() {}
	}
	local := middleware.NewLocalLimiter(cfg.RateRPS)
	if cfg.RedisURL == "" {
		return local, func() {}
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Warn("invalid REDIS_URL, using local rate limiter", "err", err)
		return local, func() {}
	}
	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn("redis unreachable, using local rate limiter", "err", err)
		_ = client.Close()
		return local, func() {}
	}

	return middleware.FallbackLimiter{
		Primary:   middleware.NewRedisLimiter(client, cfg.RatePrefix, cfg.RateRPS, time.Second),
		Secondary: local,
		Log:       log,
	}, func() { _ = client.Close() }
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/0gfoundation/0g-reward-payout/internal/config"
	"github.com/0gfoundation/0g-reward-payout/internal/httpapi"
	"github.com/0gfoundation/0g-reward-payout/internal/idempotency"
	"github.com/0gfoundation/0g-reward-payout/internal/ledger"
	"github.com/0gfoundation/0g-reward-payout/internal/payer"
	"github.com/0gfoundation/0g-reward-payout/internal/rewards"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync() //nolint:errcheck

	// A missing .env is fine; real deployments inject the environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn("load .env", zap.Error(err))
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config load failed", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── Payer wallet ──────────────────────────────────────────────────────────
	id, err := payer.FromBase58(cfg.Reward.WalletSecret)
	if err != nil {
		log.Fatal("invalid REWARD_WALLET_SECRET_BASE58", zap.Error(err))
	}
	if err := rewards.CheckAmount(cfg.Reward.DefaultSOL); err != nil {
		log.Fatal("invalid REWARD_SOL_DEFAULT",
			zap.Float64("default_sol", cfg.Reward.DefaultSOL),
			zap.Error(err),
		)
	}

	// ── Ledger client ─────────────────────────────────────────────────────────
	onchain := ledger.NewClient(cfg.Chain.RPCURL, cfg.Chain.RPCTimeout())

	// ── Idempotency store ─────────────────────────────────────────────────────
	store, closeStore, err := newStore(ctx, cfg)
	if err != nil {
		log.Fatal("idempotency store init failed", zap.Error(err))
	}
	defer closeStore()

	if interval := cfg.Idempotency.SweepInterval(); interval > 0 {
		go idempotency.RunSweeper(ctx, store, interval, time.Now, log)
	}

	// ── Reward service ────────────────────────────────────────────────────────
	svc := rewards.NewService(id, onchain, store, cfg.Reward.DefaultSOL, log)

	// ── HTTP server ───────────────────────────────────────────────────────────
	router := httpapi.NewRouter(httpapi.NewHandler(svc, cfg.Chain.RPCURL, log), log)
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: httpapi.WithCORS(router),
	}

	go func() {
		log.Info("HTTP server starting",
			zap.Int("port", cfg.Server.Port),
			zap.String("rpc", cfg.Chain.RPCURL),
			zap.String("from_wallet", id.String()),
			zap.String("idempotency_backend", cfg.Idempotency.Backend),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	log.Info("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	}
	log.Info("shutdown complete")
}

// newStore builds the configured idempotency backend. The returned func
// releases its connections.
func newStore(ctx context.Context, cfg *config.Config) (idempotency.Store, func(), error) {
	switch cfg.Idempotency.Backend {
	case config.BackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close() //nolint:errcheck
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		return idempotency.NewRedisStore(rdb, cfg.Idempotency.TTL()), func() { rdb.Close() }, nil //nolint:errcheck
	case config.BackendMemory:
		return idempotency.NewMemoryStore(cfg.Idempotency.TTL()), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown idempotency backend %q", cfg.Idempotency.Backend)
	}
}

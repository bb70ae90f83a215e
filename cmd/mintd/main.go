package main

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/0gfoundation/0g-genesis-mint/internal/api"
	"github.com/0gfoundation/0g-genesis-mint/internal/auth"
	"github.com/0gfoundation/0g-genesis-mint/internal/chain"
	"github.com/0gfoundation/0g-genesis-mint/internal/config"
	"github.com/0gfoundation/0g-genesis-mint/internal/mint"
	"github.com/0gfoundation/0g-genesis-mint/internal/sequence"
	"github.com/0gfoundation/0g-genesis-mint/internal/store"
	"github.com/0gfoundation/0g-genesis-mint/internal/voucher"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync() //nolint:errcheck

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config load failed", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── Chain ID check (optional) ─────────────────────────────────────────────
	if cfg.Chain.RPCURL != "" {
		if err := checkChain(ctx, cfg); err != nil {
			log.Fatal("chain check failed", zap.Error(err))
		}
	}

	// ── Redis (auth nonces always; state too unless STORE_BACKEND=memory) ─────
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal("redis ping failed", zap.Error(err))
	}

	var st store.Store
	sinks := mint.MultiSink{mint.NewLogSink(log)}
	switch cfg.Store.Backend {
	case "memory":
		log.Warn("using in-memory store: mint state is lost on restart")
		st = store.NewMemory()
	default:
		st = store.NewRedis(rdb)
		sinks = append(sinks, mint.NewRedisSink(rdb, cfg.Mint.EventQueue))
	}

	// ── Voucher authorizer ────────────────────────────────────────────────────
	domain := voucher.NewDomain(big.NewInt(cfg.Chain.ChainID), common.HexToAddress(cfg.Chain.ContractAddress))
	authz, err := voucher.NewAuthorizer(common.HexToAddress(cfg.Mint.VoucherSigner), domain)
	if err != nil {
		log.Fatal("voucher authorizer init failed", zap.Error(err))
	}

	// ── Mint coordinator ──────────────────────────────────────────────────────
	single, batch, err := cfg.Mint.Prices()
	if err != nil {
		log.Fatal("invalid prices", zap.Error(err))
	}
	coord, err := mint.NewCoordinator(st, authz, sequence.New(sequence.MaxSupply),
		mint.Prices{Single: single, Batch: batch}, sinks, log)
	if err != nil {
		log.Fatal("mint coordinator init failed", zap.Error(err))
	}

	// ── HTTP server ───────────────────────────────────────────────────────────
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	api.NewHandler(coord, log).Register(r.Group("/api"), auth.Middleware(rdb))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Info("HTTP server starting",
			zap.Int("port", cfg.Server.Port),
			zap.String("store", cfg.Store.Backend),
			zap.String("signer", authz.Signer().Hex()),
			zap.Int64("chain_id", cfg.Chain.ChainID),
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

// checkChain confirms RPC_URL serves the chain the vouchers are signed for.
func checkChain(ctx context.Context, cfg *config.Config) error {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	c, err := chain.Dial(dialCtx, cfg.Chain.RPCURL)
	if err != nil {
		return err
	}
	defer c.Close()
	return chain.VerifyChainID(dialCtx, c, cfg.Chain.ChainID)
}

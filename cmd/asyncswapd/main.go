package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/TheOnma/async-swap-hook/config"
	"github.com/TheOnma/async-swap-hook/core/types"
	"github.com/TheOnma/async-swap-hook/gateway/middleware"
	"github.com/TheOnma/async-swap-hook/native/asyncswap"
	"github.com/TheOnma/async-swap-hook/native/simpool"
	"github.com/TheOnma/async-swap-hook/observability/logging"
	"github.com/TheOnma/async-swap-hook/observability/metrics"
	"github.com/TheOnma/async-swap-hook/rpc"
	"github.com/TheOnma/async-swap-hook/state"
	"github.com/TheOnma/async-swap-hook/storage"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "./config.toml", "path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.Setup("asyncswapd", cfg.Environment)

	hook, err := types.ParseAddress(cfg.HookAddress)
	if err != nil {
		logger.Error("parse hook address", "err", err)
		os.Exit(1)
	}
	vault, err := types.ParseAddress(cfg.VaultAddress)
	if err != nil {
		logger.Error("parse vault address", "err", err)
		os.Exit(1)
	}
	poolAddr, err := types.ParseAddress(cfg.PoolAddress)
	if err != nil {
		logger.Error("parse pool address", "err", err)
		os.Exit(1)
	}

	db, err := storage.NewLevelDB(filepath.Join(cfg.DataDir, "ledger"))
	if err != nil {
		logger.Error("open database", "dir", cfg.DataDir, "err", err)
		os.Exit(1)
	}
	defer db.Close()

	manager := state.NewManager(db, vault)
	if err := seedGenesis(manager, cfg.Genesis); err != nil {
		logger.Error("seed genesis balances", "err", err)
		os.Exit(1)
	}

	pool := simpool.New(manager, poolAddr)
	if err := configurePools(pool, cfg.Pools); err != nil {
		logger.Error("configure pools", "err", err)
		os.Exit(1)
	}

	engine, err := asyncswap.NewEngine(hook, cfg.AsyncSwap.Params())
	if err != nil {
		logger.Error("construct engine", "err", err)
		os.Exit(1)
	}
	engine.SetState(manager)
	engine.SetPool(pool)
	engine.SetEmitter(metrics.NewRecorder(nil))

	router := simpool.NewRouter(pool, engine)
	server := rpc.NewServer(engine, manager.Ledger(), router, logger, middleware.RateLimit{
		RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
		Burst:             cfg.RateLimit.Burst,
	})

	httpServer := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("asyncswapd listening", "addr", cfg.ListenAddress, "env", cfg.Environment)
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", "err", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", "err", err)
		}
	}
}

// seedGenesis credits the configured balances. It runs on every boot but only
// tops an account up to the configured amount, so restarts do not mint.
func seedGenesis(manager *state.Manager, accounts []config.GenesisAccount) error {
	for _, entry := range accounts {
		addr, err := types.ParseAddress(entry.Address)
		if err != nil {
			return err
		}
		currency, err := asyncswap.NormalizeCurrency(entry.Currency)
		if err != nil {
			return err
		}
		target, ok := new(big.Int).SetString(strings.TrimSpace(entry.Balance), 10)
		if !ok || target.Sign() < 0 {
			return fmt.Errorf("invalid genesis balance %q", entry.Balance)
		}
		account, err := manager.GetAccount(addr[:])
		if err != nil {
			return err
		}
		if account == nil {
			account = types.NewAccount()
		}
		if account.Balance(currency).Cmp(target) >= 0 {
			continue
		}
		account.SetBalance(currency, target)
		if err := manager.PutAccount(addr[:], account); err != nil {
			return err
		}
	}
	return nil
}

func configurePools(pool *simpool.Pool, configs []config.PoolConfig) error {
	for _, entry := range configs {
		c0, err := asyncswap.NormalizeCurrency(entry.Currency0)
		if err != nil {
			return err
		}
		c1, err := asyncswap.NormalizeCurrency(entry.Currency1)
		if err != nil {
			return err
		}
		key := asyncswap.PoolKey{Currency0: c0, Currency1: c1, FeePips: entry.FeePips}
		if err := key.Validate(); err != nil {
			return err
		}
		price, ok := new(big.Int).SetString(strings.TrimSpace(entry.SqrtPriceX96), 10)
		if !ok {
			return fmt.Errorf("invalid pool price %q", entry.SqrtPriceX96)
		}
		liquidity, ok := new(big.Int).SetString(strings.TrimSpace(entry.Liquidity), 10)
		if !ok {
			return fmt.Errorf("invalid pool liquidity %q", entry.Liquidity)
		}
		pool.SetSlot0(key, price, liquidity)
	}
	return nil
}

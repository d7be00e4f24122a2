package config

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/TheOnma/async-swap-hook/core/types"
	"github.com/TheOnma/async-swap-hook/native/asyncswap"
)

var defaultPoolAddress = "0x" + strings.Repeat("b0", 20)

// Config is the daemon configuration, loaded from TOML.
type Config struct {
	ListenAddress string          `toml:"ListenAddress"`
	DataDir       string          `toml:"DataDir"`
	Environment   string          `toml:"Environment"`
	HookAddress   string          `toml:"HookAddress"`
	VaultAddress  string          `toml:"VaultAddress"`
	PoolAddress   string          `toml:"PoolAddress"`
	AsyncSwap     AsyncSwapConfig `toml:"AsyncSwap"`
	RateLimit     RateLimitConfig `toml:"RateLimit"`
	Genesis       []GenesisAccount `toml:"Genesis"`
	Pools         []PoolConfig     `toml:"Pools"`
}

// GenesisAccount seeds a balance on first boot so the simulated pool has
// funds to trade against.
type GenesisAccount struct {
	Address  string `toml:"Address"`
	Currency string `toml:"Currency"`
	Balance  string `toml:"Balance"`
}

// PoolConfig declares a pool slot the daemon initializes at startup.
type PoolConfig struct {
	Currency0    string `toml:"Currency0"`
	Currency1    string `toml:"Currency1"`
	FeePips      uint32 `toml:"FeePips"`
	SqrtPriceX96 string `toml:"SqrtPriceX96"`
	Liquidity    string `toml:"Liquidity"`
}

// AsyncSwapConfig mirrors the hook parameters fixed at deployment.
type AsyncSwapConfig struct {
	ThresholdBps      uint32 `toml:"ThresholdBps"`
	MinDelaySeconds   int64  `toml:"MinDelaySeconds"`
	WindowSeconds     int64  `toml:"WindowSeconds"`
	MaxPendingSeconds int64  `toml:"MaxPendingSeconds"`
	ExecutorFeeBps    uint32 `toml:"ExecutorFeeBps"`
}

// RateLimitConfig bounds mutating RPC calls per client.
type RateLimitConfig struct {
	RequestsPerMinute float64 `toml:"RequestsPerMinute"`
	Burst             int     `toml:"Burst"`
}

// Params converts the configuration block into engine parameters.
func (c AsyncSwapConfig) Params() asyncswap.Params {
	return asyncswap.Params{
		ThresholdBps:      c.ThresholdBps,
		MinDelaySeconds:   c.MinDelaySeconds,
		WindowSeconds:     c.WindowSeconds,
		MaxPendingSeconds: c.MaxPendingSeconds,
		ExecutorFeeBps:    c.ExecutorFeeBps,
	}
}

// Load loads the configuration from the given path, creating a default file
// when none exists.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration domain.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ListenAddress) == "" {
		return fmt.Errorf("config: ListenAddress required")
	}
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("config: DataDir required")
	}
	hook, err := types.ParseAddress(c.HookAddress)
	if err != nil {
		return fmt.Errorf("config: HookAddress: %w", err)
	}
	vault, err := types.ParseAddress(c.VaultAddress)
	if err != nil {
		return fmt.Errorf("config: VaultAddress: %w", err)
	}
	if hook == vault {
		return fmt.Errorf("config: HookAddress and VaultAddress must differ")
	}
	pool, err := types.ParseAddress(c.PoolAddress)
	if err != nil {
		return fmt.Errorf("config: PoolAddress: %w", err)
	}
	if pool == vault || pool == hook {
		return fmt.Errorf("config: PoolAddress must differ from HookAddress and VaultAddress")
	}
	for i, account := range c.Genesis {
		if _, err := types.ParseAddress(account.Address); err != nil {
			return fmt.Errorf("config: Genesis[%d].Address: %w", i, err)
		}
		if strings.TrimSpace(account.Currency) == "" {
			return fmt.Errorf("config: Genesis[%d].Currency required", i)
		}
		balance, ok := new(big.Int).SetString(strings.TrimSpace(account.Balance), 10)
		if !ok || balance.Sign() < 0 {
			return fmt.Errorf("config: Genesis[%d].Balance must be a non-negative integer", i)
		}
	}
	for i, pool := range c.Pools {
		c0, err := asyncswap.NormalizeCurrency(pool.Currency0)
		if err != nil {
			return fmt.Errorf("config: Pools[%d]: %w", i, err)
		}
		c1, err := asyncswap.NormalizeCurrency(pool.Currency1)
		if err != nil {
			return fmt.Errorf("config: Pools[%d]: %w", i, err)
		}
		key := asyncswap.PoolKey{Currency0: c0, Currency1: c1, FeePips: pool.FeePips}
		if err := key.Validate(); err != nil {
			return fmt.Errorf("config: Pools[%d]: %w", i, err)
		}
		price, ok := new(big.Int).SetString(strings.TrimSpace(pool.SqrtPriceX96), 10)
		if !ok || price.Sign() <= 0 {
			return fmt.Errorf("config: Pools[%d].SqrtPriceX96 must be a positive integer", i)
		}
		liquidity, ok := new(big.Int).SetString(strings.TrimSpace(pool.Liquidity), 10)
		if !ok || liquidity.Sign() < 0 {
			return fmt.Errorf("config: Pools[%d].Liquidity must be a non-negative integer", i)
		}
	}
	if err := c.AsyncSwap.Params().Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.RateLimit.RequestsPerMinute < 0 {
		return fmt.Errorf("config: RateLimit.RequestsPerMinute must be non-negative")
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.ListenAddress) == "" {
		cfg.ListenAddress = ":8645"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./asyncswap-data"
	}
	if strings.TrimSpace(cfg.Environment) == "" {
		cfg.Environment = "dev"
	}
	if strings.TrimSpace(cfg.PoolAddress) == "" {
		cfg.PoolAddress = defaultPoolAddress
	}
	if cfg.AsyncSwap == (AsyncSwapConfig{}) {
		cfg.AsyncSwap = defaultAsyncSwap()
	}
	if cfg.RateLimit == (RateLimitConfig{}) {
		cfg.RateLimit = RateLimitConfig{RequestsPerMinute: 120, Burst: 20}
	}
}

func defaultAsyncSwap() AsyncSwapConfig {
	params := asyncswap.DefaultParams()
	return AsyncSwapConfig{
		ThresholdBps:      params.ThresholdBps,
		MinDelaySeconds:   params.MinDelaySeconds,
		WindowSeconds:     params.WindowSeconds,
		MaxPendingSeconds: params.MaxPendingSeconds,
		ExecutorFeeBps:    params.ExecutorFeeBps,
	}
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := &Config{
		ListenAddress: ":8645",
		DataDir:       "./asyncswap-data",
		Environment:   "dev",
		HookAddress:   "0x" + strings.Repeat("a5", 20),
		VaultAddress:  "0x" + strings.Repeat("ec", 20),
		PoolAddress:   defaultPoolAddress,
		AsyncSwap:     defaultAsyncSwap(),
		RateLimit:     RateLimitConfig{RequestsPerMinute: 120, Burst: 20},
	}
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return toml.NewEncoder(file).Encode(cfg)
}

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

type Config struct {
	Chain       ChainConfig
	Reward      RewardConfig
	Idempotency IdempotencyConfig
	Redis       RedisConfig
	Server      ServerConfig
}

type ChainConfig struct {
	RPCURL        string `mapstructure:"rpc_url"`
	RPCTimeoutSec int64  `mapstructure:"rpc_timeout_sec"`
}

type RewardConfig struct {
	DefaultSOL   float64 `mapstructure:"default_sol"`
	WalletSecret string  `mapstructure:"wallet_secret"`
}

type IdempotencyConfig struct {
	Backend          string `mapstructure:"backend"`
	TTLSec           int64  `mapstructure:"ttl_sec"`
	SweepIntervalSec int64  `mapstructure:"sweep_interval_sec"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// RPCTimeout is the bound applied to every ledger RPC call.
func (c ChainConfig) RPCTimeout() time.Duration {
	return time.Duration(c.RPCTimeoutSec) * time.Second
}

// TTL is the idempotency retention window.
func (c IdempotencyConfig) TTL() time.Duration {
	return time.Duration(c.TTLSec) * time.Second
}

// SweepInterval is zero when only the per-request sweep should run.
func (c IdempotencyConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalSec) * time.Second
}

func Load() (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("chain.rpc_url", "https://api.devnet.solana.com")
	v.SetDefault("chain.rpc_timeout_sec", 30)
	v.SetDefault("reward.default_sol", 0.01)
	v.SetDefault("idempotency.backend", BackendMemory)
	v.SetDefault("idempotency.ttl_sec", 7*24*60*60)
	v.SetDefault("idempotency.sweep_interval_sec", 0)
	v.SetDefault("redis.addr", "redis:6379")

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")
	_ = v.ReadInConfig()

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicit env bindings
	bindings := map[string]string{
		"chain.rpc_url":                  "SOLANA_RPC_URL",
		"chain.rpc_timeout_sec":          "RPC_TIMEOUT_SEC",
		"reward.default_sol":             "REWARD_SOL_DEFAULT",
		"reward.wallet_secret":           "REWARD_WALLET_SECRET_BASE58",
		"idempotency.backend":            "IDEMPOTENCY_BACKEND",
		"idempotency.ttl_sec":            "IDEMPOTENCY_TTL_SEC",
		"idempotency.sweep_interval_sec": "IDEMPOTENCY_SWEEP_INTERVAL_SEC",
		"redis.addr":                     "REDIS_ADDR",
		"redis.password":                 "REDIS_PASSWORD",
		"server.port":                    "PORT",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	type req struct {
		val  string
		name string
	}
	for _, r := range []req{
		{c.Chain.RPCURL, "SOLANA_RPC_URL"},
		{c.Reward.WalletSecret, "REWARD_WALLET_SECRET_BASE58"},
	} {
		if r.val == "" {
			return fmt.Errorf("required config missing: %s", r.name)
		}
	}
	if c.Chain.RPCTimeoutSec <= 0 {
		return fmt.Errorf("RPC_TIMEOUT_SEC must be positive")
	}
	if c.Idempotency.TTLSec <= 0 {
		return fmt.Errorf("IDEMPOTENCY_TTL_SEC must be positive")
	}
	if c.Idempotency.SweepIntervalSec < 0 {
		return fmt.Errorf("IDEMPOTENCY_SWEEP_INTERVAL_SEC must not be negative")
	}
	switch c.Idempotency.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("required config missing: REDIS_ADDR")
		}
	default:
		return fmt.Errorf("unknown IDEMPOTENCY_BACKEND %q", c.Idempotency.Backend)
	}
	return nil
}

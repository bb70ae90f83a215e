package config

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"
)

type Config struct {
	Redis  RedisConfig
	Store  StoreConfig
	Mint   MintConfig
	Chain  ChainConfig
	Server ServerConfig
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
}

type StoreConfig struct {
	Backend string `mapstructure:"backend"` // "redis" | "memory"
}

type MintConfig struct {
	Price         string `mapstructure:"price"`
	BatchPrice    string `mapstructure:"batch_price"`
	VoucherSigner string `mapstructure:"voucher_signer"`
	EventQueue    string `mapstructure:"event_queue"`
}

type ChainConfig struct {
	RPCURL          string `mapstructure:"rpc_url"`
	ContractAddress string `mapstructure:"contract_address"`
	ChainID         int64  `mapstructure:"chain_id"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

func Load() (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("store.backend", "redis")
	v.SetDefault("redis.addr", "redis:6379")
	v.SetDefault("mint.price", "10000000000000000")
	v.SetDefault("mint.batch_price", "50000000000000000")
	v.SetDefault("mint.event_queue", "mint:events")

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
		"redis.addr":             "REDIS_ADDR",
		"redis.password":         "REDIS_PASSWORD",
		"store.backend":          "STORE_BACKEND",
		"mint.price":             "MINT_PRICE",
		"mint.batch_price":       "MINT_BATCH_PRICE",
		"mint.voucher_signer":    "VOUCHER_SIGNER",
		"mint.event_queue":       "MINT_EVENT_QUEUE",
		"chain.rpc_url":          "RPC_URL",
		"chain.contract_address": "MINT_CONTRACT",
		"chain.chain_id":         "CHAIN_ID",
		"server.port":            "PORT",
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
	for _, r := range []struct {
		val  string
		name string
	}{
		{c.Chain.ContractAddress, "MINT_CONTRACT"},
		{c.Mint.VoucherSigner, "VOUCHER_SIGNER"},
	} {
		if r.val == "" {
			return fmt.Errorf("required config missing: %s", r.name)
		}
		if !common.IsHexAddress(r.val) {
			return fmt.Errorf("invalid address in %s: %q", r.name, r.val)
		}
	}
	if c.Chain.ChainID <= 0 {
		return fmt.Errorf("required config missing: CHAIN_ID")
	}
	if _, _, err := c.Mint.Prices(); err != nil {
		return err
	}
	switch c.Store.Backend {
	case "redis":
		if c.Redis.Addr == "" {
			return fmt.Errorf("required config missing: REDIS_ADDR")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.Store.Backend)
	}
	return nil
}

// Prices parses the single and batch prices as wei.
func (m MintConfig) Prices() (single, batch *big.Int, err error) {
	single, ok := new(big.Int).SetString(m.Price, 10)
	if !ok || single.Sign() < 0 {
		return nil, nil, fmt.Errorf("invalid MINT_PRICE %q", m.Price)
	}
	batch, ok = new(big.Int).SetString(m.BatchPrice, 10)
	if !ok || batch.Sign() < 0 {
		return nil, nil, fmt.Errorf("invalid MINT_BATCH_PRICE %q", m.BatchPrice)
	}
	return single, batch, nil
}

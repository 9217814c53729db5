package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"unstakePool/internal/amount"
	"unstakePool/internal/pool"
	"unstakePool/internal/retry"
)

const envPrefix = "UNSTAKE"

// PoolConfig holds the pool parameters and the optional on-chain price source.
// Decimal values are kept as strings until Params parses them exactly.
type PoolConfig struct {
	Price           string
	MinFee          string
	MaxFee          string
	LiquidityTarget string
	PriceContract   string
	PriceDecimals   int32
	RPCURL          string
	MaxRetries      int
	RetryBackoff    time.Duration
	LogLevel        string
}

// LoadPool merges config file, environment variables, and flags into PoolConfig.
func LoadPool(cfgFile string, flags *pflag.FlagSet) (PoolConfig, error) {
	v, err := newViper(cfgFile, flags, nil)
	if err != nil {
		return PoolConfig{}, err
	}
	return poolConfig(v), nil
}

// Params parses the configured decimals into pool parameters. Price must be
// set, either directly or by the caller after reading it from PriceContract.
func (c PoolConfig) Params() (pool.Params, error) {
	if strings.TrimSpace(c.Price) == "" {
		return pool.Params{}, fmt.Errorf("price is required")
	}
	price, err := amount.Parse[amount.PriceUnit](c.Price)
	if err != nil {
		return pool.Params{}, fmt.Errorf("parse price: %w", err)
	}
	if price.IsZero() {
		return pool.Params{}, fmt.Errorf("price must be positive")
	}
	minFee, err := amount.Parse[amount.PercentageUnit](c.MinFee)
	if err != nil {
		return pool.Params{}, fmt.Errorf("parse min-fee: %w", err)
	}
	maxFee, err := amount.Parse[amount.PercentageUnit](c.MaxFee)
	if err != nil {
		return pool.Params{}, fmt.Errorf("parse max-fee: %w", err)
	}
	if minFee.Greater(maxFee) {
		return pool.Params{}, fmt.Errorf("min-fee %s is above max-fee %s", minFee, maxFee)
	}
	if maxFee.Greater(amount.MustUnits[amount.PercentageUnit](1)) {
		return pool.Params{}, fmt.Errorf("max-fee %s is above 1", maxFee)
	}
	target, err := amount.Parse[amount.TokenUnit](c.LiquidityTarget)
	if err != nil {
		return pool.Params{}, fmt.Errorf("parse liquidity-target: %w", err)
	}

	return pool.Params{
		Price:           price,
		MinFee:          minFee,
		MaxFee:          maxFee,
		LiquidityTarget: target,
	}, nil
}

// RetryPolicy returns the retry settings for RPC and storage calls.
func (c PoolConfig) RetryPolicy() retry.Policy {
	return retry.Policy{MaxRetries: c.MaxRetries, Backoff: c.RetryBackoff}
}

func poolConfig(v *viper.Viper) PoolConfig {
	return PoolConfig{
		Price:           v.GetString("price"),
		MinFee:          v.GetString("min-fee"),
		MaxFee:          v.GetString("max-fee"),
		LiquidityTarget: v.GetString("liquidity-target"),
		PriceContract:   v.GetString("price-contract"),
		PriceDecimals:   v.GetInt32("price-decimals"),
		RPCURL:          v.GetString("rpc"),
		MaxRetries:      v.GetInt("max-retries"),
		RetryBackoff:    v.GetDuration("retry-backoff"),
		LogLevel:        v.GetString("log-level"),
	}
}

func newViper(cfgFile string, flags *pflag.FlagSet, defaults map[string]interface{}) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("min-fee", "0")
	v.SetDefault("price-decimals", 0)
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("log-level", "info")
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	return v, nil
}

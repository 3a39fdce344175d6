package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// VolumeConfig holds configuration values loaded from flags, env, or
// config file.
type VolumeConfig struct {
	RPCURL            string
	Platforms         []string
	Days              int
	MoralisURL        string
	MoralisKey        string
	RaribleURL        string
	TransferChunkSize int
	PriceChunkSize    int
	BlockBatchSize    uint64
	MaxRetries        int
	RetryBackoff      time.Duration
	Out               string
	PGDSN             string
	LogLevel          string
}

// LoadVolume merges config file, environment variables, and flags into
// VolumeConfig.
func LoadVolume(cfgFile string, flags *pflag.FlagSet) (VolumeConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("NFTVOLUME")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("days", 30)
	v.SetDefault("transfer-chunk", 100)
	v.SetDefault("price-chunk", 25)
	v.SetDefault("block-batch", uint64(50000))
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return VolumeConfig{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return VolumeConfig{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return VolumeConfig{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := VolumeConfig{
		RPCURL:            v.GetString("rpc"),
		Platforms:         getStringSlice(v, "platform"),
		Days:              v.GetInt("days"),
		MoralisURL:        v.GetString("moralis-url"),
		MoralisKey:        v.GetString("moralis-key"),
		RaribleURL:        v.GetString("rarible-url"),
		TransferChunkSize: v.GetInt("transfer-chunk"),
		PriceChunkSize:    v.GetInt("price-chunk"),
		BlockBatchSize:    v.GetUint64("block-batch"),
		MaxRetries:        v.GetInt("max-retries"),
		RetryBackoff:      v.GetDuration("retry-backoff"),
		Out:               v.GetString("out"),
		PGDSN:             v.GetString("pg-dsn"),
		LogLevel:          v.GetString("log-level"),
	}

	return cfg, nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}

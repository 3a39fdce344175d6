package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "nftvolume",
		Short:        "NFT marketplace trade volume extractor",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	volumeCmd := &cobra.Command{
		Use:   "volume",
		Short: "Report sale and swap volume per marketplace",
		RunE:  runVolume,
	}

	volumeCmd.Flags().String("rpc", "", "Ethereum RPC URL (Alchemy endpoint)")
	volumeCmd.Flags().StringSlice("platform", nil, "marketplaces to scan (default all)")
	volumeCmd.Flags().Int("days", 30, "trade window in days")
	volumeCmd.Flags().String("moralis-url", "", "Moralis API base URL")
	volumeCmd.Flags().String("moralis-key", "", "Moralis API key")
	volumeCmd.Flags().String("rarible-url", "", "Rarible API base URL")
	volumeCmd.Flags().Int("transfer-chunk", 100, "concurrent transfer fetches per batch")
	volumeCmd.Flags().Int("price-chunk", 25, "concurrent price lookups per batch")
	volumeCmd.Flags().Uint64("block-batch", 50000, "blocks per log query")
	volumeCmd.Flags().Int("max-retries", 5, "maximum retry attempts for chain queries")
	volumeCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	volumeCmd.Flags().String("out", "", "optional JSONL path for enriched trades")
	volumeCmd.Flags().String("pg-dsn", "", "optional Postgres DSN for trades and stats")
	volumeCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(volumeCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

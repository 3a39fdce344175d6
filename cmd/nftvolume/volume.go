package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tradeScope/internal/chain"
	"tradeScope/internal/config"
	"tradeScope/internal/market"
	"tradeScope/internal/model"
	"tradeScope/internal/pricing"
	"tradeScope/internal/storage"
	"tradeScope/internal/storage/postgres"
	"tradeScope/internal/transfers"
)

func runVolume(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadVolume(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	if cfg.MoralisKey == "" {
		return fmt.Errorf("moralis key is required")
	}

	platforms, err := market.ParsePlatforms(cfg.Platforms)
	if err != nil {
		return err
	}
	if len(platforms) == 0 {
		platforms = market.AllPlatforms()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	transferClient := transfers.NewClient(chainClient.RPC(), logger)
	moralis := pricing.NewMoralisClient(cfg.MoralisURL, cfg.MoralisKey)
	rarible := pricing.NewRaribleClient(cfg.RaribleURL)
	oracle := pricing.NewOracle(pricing.OracleConfig{ChunkSize: cfg.PriceChunkSize}, moralis, rarible, moralis, logger)

	service := market.NewService(market.ServiceConfig{
		BlockBatchSize: cfg.BlockBatchSize,
		MaxRetries:     cfg.MaxRetries,
		RetryBackoff:   cfg.RetryBackoff,
	}, chainClient, logger)

	var sink storage.TradeStorage
	if cfg.Out != "" {
		sink = storage.NewJsonlStorage(cfg.Out)
	}

	var store *postgres.Store
	if cfg.PGDSN != "" {
		store, err = postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
	}

	fromDate := time.Now().AddDate(0, 0, -cfg.Days)
	fromBlock, err := moralis.BlockForDate(ctx, fromDate)
	if err != nil {
		return fmt.Errorf("resolve from block: %w", err)
	}
	toBlock, err := chainClient.LatestBlockNumber(ctx)
	if err != nil {
		return fmt.Errorf("get latest block: %w", err)
	}

	logger.Info("volume start",
		zap.Int("days", cfg.Days),
		zap.Uint64("from", fromBlock),
		zap.Uint64("to", toBlock),
		zap.Int("platforms", len(platforms)),
	)

	for _, platform := range platforms {
		if err := runPlatform(ctx, platform, fromBlock, toBlock, cfg, service, transferClient, oracle, sink, store, logger); err != nil {
			return err
		}
	}

	return nil
}

func runPlatform(
	ctx context.Context,
	platform market.Platform,
	fromBlock, toBlock uint64,
	cfg config.VolumeConfig,
	service *market.Service,
	transferClient *transfers.Client,
	oracle *pricing.Oracle,
	sink storage.TradeStorage,
	store *postgres.Store,
	logger *zap.Logger,
) error {
	simpleTrades, err := service.SimpleTrades(ctx, platform, fromBlock, toBlock)
	if err != nil {
		return fmt.Errorf("%s: decode trades: %w", platform, err)
	}

	trades, err := market.AddAssets(ctx, simpleTrades, transferClient, cfg.TransferChunkSize)
	if err != nil {
		return fmt.Errorf("%s: attach assets: %w", platform, err)
	}

	valued, err := oracle.AddValue(ctx, trades)
	if err != nil {
		return fmt.Errorf("%s: value assets: %w", platform, err)
	}

	sales, swaps := market.Classify(valued)
	saleVolume := pricing.TotalVolume(sales)
	swapVolume := pricing.TotalVolume(swaps)

	printReport(platform, cfg.Days, sales, swaps, saleVolume, swapVolume)

	logger.Info("platform complete",
		zap.String("platform", string(platform)),
		zap.Int("trades", len(valued)),
		zap.Int("sales", len(sales)),
		zap.Int("swaps", len(swaps)),
		zap.Float64("sale_volume_usd", saleVolume),
		zap.Float64("swap_volume_usd", swapVolume),
	)

	if sink != nil {
		if err := sink.PutTradeBatch(string(platform), valued); err != nil {
			return fmt.Errorf("%s: store trades: %w", platform, err)
		}
	}
	if store != nil {
		if err := store.InsertTrades(ctx, string(platform), valued); err != nil {
			return fmt.Errorf("%s: insert trades: %w", platform, err)
		}
		stats := model.VolumeStats{
			Platform:      string(platform),
			Days:          cfg.Days,
			FromBlock:     fromBlock,
			ToBlock:       toBlock,
			Sales:         len(sales),
			Swaps:         len(swaps),
			SaleVolumeUSD: saleVolume,
			SwapVolumeUSD: swapVolume,
			GeneratedAt:   time.Now().UTC().Format(time.RFC3339),
		}
		if err := store.InsertVolumeStats(ctx, stats); err != nil {
			return fmt.Errorf("%s: insert stats: %w", platform, err)
		}
	}

	return nil
}

func printReport(platform market.Platform, days int, sales, swaps []model.Trade, saleVolume, swapVolume float64) {
	swapThousands := int(math.Round(swapVolume / 1000))
	saleThousands := int(math.Round(saleVolume / 1000))

	averageSwap := 0
	if len(swaps) > 0 {
		averageSwap = int(math.Round(float64(swapThousands) / float64(len(swaps))))
	}
	averageSale := 0
	if len(sales) > 0 {
		averageSale = int(math.Round(float64(saleThousands) / float64(len(sales))))
	}

	fmt.Printf("%s %dd:\n", platform, days)
	fmt.Printf("  Swaps: %d ($%dk total / $%dk average)\n", len(swaps), swapThousands, averageSwap)
	fmt.Printf("  Sales: %d ($%dk total / $%dk average)\n", len(sales), saleThousands, averageSale)
}

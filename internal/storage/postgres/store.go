package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tradeScope/internal/model"
)

// Store provides Postgres persistence for enriched trades and run stats.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// InsertTrades upserts enriched trades, one row per settlement transaction.
func (s *Store) InsertTrades(ctx context.Context, platform string, trades []model.Trade) error {
	if len(trades) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, trade := range trades {
		makerAssets, err := json.Marshal(trade.MakerAssets)
		if err != nil {
			return fmt.Errorf("marshal maker assets: %w", err)
		}
		takerAssets, err := json.Marshal(trade.TakerAssets)
		if err != nil {
			return fmt.Errorf("marshal taker assets: %w", err)
		}
		batch.Queue(`
			INSERT INTO nft_trades (
				platform, tx_hash, block_number, maker, taker, maker_assets, taker_assets, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
			ON CONFLICT (platform, tx_hash)
			DO UPDATE SET
				maker_assets = EXCLUDED.maker_assets,
				taker_assets = EXCLUDED.taker_assets,
				updated_at = now()
		`,
			platform,
			trade.TransactionHash,
			int64(trade.BlockNumber),
			trade.Maker,
			trade.Taker,
			makerAssets,
			takerAssets,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range trades {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// InsertVolumeStats records the per-platform summary of one run.
func (s *Store) InsertVolumeStats(ctx context.Context, stats model.VolumeStats) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO volume_stats (
			platform, days, from_block, to_block, sales, swaps,
			sale_volume_usd, swap_volume_usd, generated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		stats.Platform,
		stats.Days,
		int64(stats.FromBlock),
		int64(stats.ToBlock),
		stats.Sales,
		stats.Swaps,
		stats.SaleVolumeUSD,
		stats.SwapVolumeUSD,
		stats.GeneratedAt,
	)
	return err
}

package storage

import "tradeScope/internal/model"

// TradeStorage defines a sink for enriched trades.
type TradeStorage interface {
	PutTradeBatch(platform string, trades []model.Trade) error
}

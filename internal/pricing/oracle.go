package pricing

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"tradeScope/internal/chunk"
	"tradeScope/internal/model"
)

// DefaultPriceChunkSize bounds concurrent price lookups; the pricing
// services tolerate far less parallelism than the transfer endpoint.
const DefaultPriceChunkSize = 25

// wethAddress stands in for raw ETH when resolving a pricing key.
const wethAddress = "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"

// nftPricingWindow is the fixed recency window for NFT pricing. It is
// deliberately independent of the trade window requested by the caller:
// collections always price against their trailing week of sales.
const nftPricingWindow = 7 * 24 * time.Hour

// TokenPricer resolves a USD unit price for a fungible token contract.
type TokenPricer interface {
	TokenPrice(ctx context.Context, contractAddress string) (float64, error)
}

// ActivitySource lists recent matched sales for an NFT collection.
type ActivitySource interface {
	CollectionSales(ctx context.Context, contractAddress string) ([]Sale, error)
}

// BlockResolver maps a timestamp to the nearest block number.
type BlockResolver interface {
	BlockForDate(ctx context.Context, date time.Time) (uint64, error)
}

// OracleConfig tunes the oracle.
type OracleConfig struct {
	ChunkSize int
	Now       func() time.Time
}

// Oracle resolves USD prices for the assets referenced by a trade set.
// Lookups fail soft: an unresolvable asset prices at zero so one bad
// contract never aborts a run.
type Oracle struct {
	cfg      OracleConfig
	tokens   TokenPricer
	activity ActivitySource
	blocks   BlockResolver
	logger   *zap.Logger
}

// NewOracle builds an Oracle from its client handles.
func NewOracle(cfg OracleConfig, tokens TokenPricer, activity ActivitySource, blocks BlockResolver, logger *zap.Logger) *Oracle {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultPriceChunkSize
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Oracle{
		cfg:      cfg,
		tokens:   tokens,
		activity: activity,
		blocks:   blocks,
		logger:   logger,
	}
}

// EffectiveAddress is the pricing key for an asset: raw ETH collapses onto
// the wrapped-native contract, everything else prices by its own contract.
func EffectiveAddress(asset model.Asset) string {
	if asset.Class == model.AssetETH {
		return wethAddress
	}
	return asset.ContractAddress
}

type priceResult struct {
	address string
	price   float64
}

// PriceMap resolves one USD unit price per unique effective address across
// the trade set. The wrapped-native contract is seeded first so native
// transfers always have a price to resolve against.
func (o *Oracle) PriceMap(ctx context.Context, trades []model.Trade) (map[string]float64, error) {
	assets := make([]model.Asset, 0, 1+len(trades)*2)
	assets = append(assets, model.Asset{Class: model.AssetERC20, ContractAddress: wethAddress})
	for _, trade := range trades {
		assets = append(assets, trade.Assets()...)
	}

	seen := make(map[string]struct{}, len(assets))
	unique := make([]model.Asset, 0, len(assets))
	for _, asset := range assets {
		address := EffectiveAddress(asset)
		if address == "" {
			continue
		}
		if _, ok := seen[address]; ok {
			continue
		}
		seen[address] = struct{}{}
		unique = append(unique, asset)
	}

	results, err := chunk.Run(ctx, unique, o.cfg.ChunkSize, o.resolvePrice)
	if err != nil {
		return nil, err
	}

	prices := make(map[string]float64, len(results))
	for _, result := range results {
		prices[result.address] = result.price
	}
	return prices, nil
}

// resolvePrice never fails: lookup errors degrade to a zero price.
func (o *Oracle) resolvePrice(ctx context.Context, asset model.Asset) (priceResult, error) {
	address := EffectiveAddress(asset)

	var price float64
	switch asset.Class {
	case model.AssetETH, model.AssetERC20:
		price = o.fungiblePrice(ctx, address)
	default:
		price = o.collectionPrice(ctx, address)
	}
	if price < 0 {
		price = 0
	}
	return priceResult{address: address, price: price}, nil
}

func (o *Oracle) fungiblePrice(ctx context.Context, address string) float64 {
	price, err := o.tokens.TokenPrice(ctx, address)
	if err != nil {
		o.logger.Warn("token price lookup failed", zap.String("contract", address), zap.Error(err))
		return 0
	}
	return price
}

// collectionPrice averages the USD prices of the collection's matched
// sales over the trailing week. No qualifying sales means a zero price.
func (o *Oracle) collectionPrice(ctx context.Context, address string) float64 {
	cutoffDate := o.cfg.Now().Add(-nftPricingWindow)
	cutoffBlock, err := o.blocks.BlockForDate(ctx, cutoffDate)
	if err != nil {
		o.logger.Warn("block for date lookup failed", zap.String("contract", address), zap.Error(err))
		return 0
	}

	sales, err := o.activity.CollectionSales(ctx, address)
	if err != nil {
		o.logger.Warn("collection sales lookup failed", zap.String("contract", address), zap.Error(err))
		return 0
	}

	var total float64
	var count int
	for _, sale := range sales {
		if sale.BlockNumber <= cutoffBlock {
			continue
		}
		if sale.PriceUSD != nil {
			total += *sale.PriceUSD
		}
		count++
	}
	if count == 0 {
		return 0
	}
	return total / float64(count)
}

// AddValue returns a copy of the trade set with a USD value attached to
// every asset. The input trades are not modified.
func (o *Oracle) AddValue(ctx context.Context, trades []model.Trade) ([]model.Trade, error) {
	prices, err := o.PriceMap(ctx, trades)
	if err != nil {
		return nil, err
	}
	return ApplyPrices(trades, prices), nil
}

// ApplyPrices computes value = price * amount (amount defaulting to 1)
// for every asset instance against the price map.
func ApplyPrices(trades []model.Trade, prices map[string]float64) []model.Trade {
	out := make([]model.Trade, 0, len(trades))
	for _, trade := range trades {
		valued := trade
		valued.MakerAssets = valuedAssets(trade.MakerAssets, prices)
		valued.TakerAssets = valuedAssets(trade.TakerAssets, prices)
		out = append(out, valued)
	}
	return out
}

func valuedAssets(assets []model.Asset, prices map[string]float64) []model.Asset {
	out := make([]model.Asset, 0, len(assets))
	for _, asset := range assets {
		amount := 1.0
		if asset.Amount != nil {
			amount = *asset.Amount
		}
		value := prices[EffectiveAddress(asset)] * amount
		asset.Value = &value
		out = append(out, asset)
	}
	return out
}

// TotalVolume sums every asset value across both sides of every trade,
// rounded to the nearest USD. Unvalued assets count as zero.
func TotalVolume(trades []model.Trade) float64 {
	var total float64
	for _, trade := range trades {
		for _, asset := range trade.Assets() {
			if asset.Value != nil {
				total += *asset.Value
			}
		}
	}
	return math.Round(total)
}

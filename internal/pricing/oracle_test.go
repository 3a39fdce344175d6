package pricing

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"tradeScope/internal/model"
)

type fakeTokenPricer struct {
	mu     sync.Mutex
	prices map[string]float64
	errs   map[string]error
	calls  []string
}

func (f *fakeTokenPricer) TokenPrice(_ context.Context, address string) (float64, error) {
	f.mu.Lock()
	f.calls = append(f.calls, address)
	f.mu.Unlock()
	if err, ok := f.errs[address]; ok {
		return 0, err
	}
	return f.prices[address], nil
}

type fakeActivitySource struct {
	sales map[string][]Sale
	err   error
}

func (f *fakeActivitySource) CollectionSales(_ context.Context, address string) ([]Sale, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.sales[address], nil
}

type fakeBlockResolver struct {
	block uint64
	err   error
	dates []time.Time
}

func (f *fakeBlockResolver) BlockForDate(_ context.Context, date time.Time) (uint64, error) {
	f.dates = append(f.dates, date)
	if f.err != nil {
		return 0, f.err
	}
	return f.block, nil
}

func usd(v float64) *float64 {
	return &v
}

func newTestOracle(tokens *fakeTokenPricer, activity *fakeActivitySource, blocks *fakeBlockResolver) *Oracle {
	return NewOracle(OracleConfig{ChunkSize: 5}, tokens, activity, blocks, zap.NewNop())
}

func TestEffectiveAddress(t *testing.T) {
	if got := EffectiveAddress(model.Asset{Class: model.AssetETH}); got != wethAddress {
		t.Fatalf("ETH should resolve to the wrapped-native address: %s", got)
	}
	if got := EffectiveAddress(model.Asset{Class: model.AssetERC20, ContractAddress: "0xaa"}); got != "0xaa" {
		t.Fatalf("token should resolve to its own contract: %s", got)
	}
}

func TestPriceMapDeduplicates(t *testing.T) {
	tokens := &fakeTokenPricer{prices: map[string]float64{
		wethAddress: 2000,
		"0xaa":      3,
	}}
	oracle := newTestOracle(tokens, &fakeActivitySource{}, &fakeBlockResolver{})

	trades := []model.Trade{{
		MakerAssets: []model.Asset{
			{Class: model.AssetERC20, ContractAddress: wethAddress},
			{Class: model.AssetERC20, ContractAddress: wethAddress},
		},
		TakerAssets: []model.Asset{
			{Class: model.AssetETH},
			{Class: model.AssetERC20, ContractAddress: "0xaa"},
		},
	}}

	prices, err := oracle.PriceMap(context.Background(), trades)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(prices) != 2 {
		t.Fatalf("expected 2 unique price entries, got %d: %+v", len(prices), prices)
	}
	if prices[wethAddress] != 2000 || prices["0xaa"] != 3 {
		t.Fatalf("prices mismatch: %+v", prices)
	}
	if len(tokens.calls) != 2 {
		t.Fatalf("expected one lookup per unique address, got %d", len(tokens.calls))
	}
}

func TestPriceFailureIsolation(t *testing.T) {
	tokens := &fakeTokenPricer{
		prices: map[string]float64{wethAddress: 2000, "0xaa": 10, "0xcc": 30},
		errs:   map[string]error{"0xbb": fmt.Errorf("rate limited")},
	}
	oracle := newTestOracle(tokens, &fakeActivitySource{}, &fakeBlockResolver{})

	trades := []model.Trade{{
		MakerAssets: []model.Asset{
			{Class: model.AssetERC20, ContractAddress: "0xaa", Amount: usd(1)},
			{Class: model.AssetERC20, ContractAddress: "0xbb", Amount: usd(1)},
			{Class: model.AssetERC20, ContractAddress: "0xcc", Amount: usd(1)},
		},
	}}

	valued, err := oracle.AddValue(context.Background(), trades)
	if err != nil {
		t.Fatalf("pricing failure must not abort the run: %v", err)
	}

	assets := valued[0].MakerAssets
	if *assets[0].Value != 10 || *assets[1].Value != 0 || *assets[2].Value != 30 {
		t.Fatalf("values mismatch: %v %v %v", *assets[0].Value, *assets[1].Value, *assets[2].Value)
	}
}

func TestCollectionPriceAveragesRecentSales(t *testing.T) {
	now := time.Date(2022, 6, 15, 12, 0, 0, 0, time.UTC)
	blocks := &fakeBlockResolver{block: 100}
	activity := &fakeActivitySource{sales: map[string][]Sale{
		"0xnft": {
			{BlockNumber: 160, PriceUSD: usd(200)},
			{BlockNumber: 150, PriceUSD: usd(100)},
			{BlockNumber: 140, PriceUSD: nil},
			{BlockNumber: 90, PriceUSD: usd(9999)},
		},
	}}
	oracle := NewOracle(OracleConfig{ChunkSize: 5, Now: func() time.Time { return now }},
		&fakeTokenPricer{}, activity, blocks, zap.NewNop())

	price := oracle.collectionPrice(context.Background(), "0xnft")

	// Three sales sit after the cutoff block; the unpriced one counts as 0.
	if price != 100 {
		t.Fatalf("expected mean price 100, got %v", price)
	}

	wantCutoff := now.Add(-7 * 24 * time.Hour)
	if len(blocks.dates) != 1 || !blocks.dates[0].Equal(wantCutoff) {
		t.Fatalf("cutoff date mismatch: %+v", blocks.dates)
	}
}

func TestCollectionPriceNoRecentSales(t *testing.T) {
	blocks := &fakeBlockResolver{block: 1000}
	activity := &fakeActivitySource{sales: map[string][]Sale{
		"0xnft": {{BlockNumber: 900, PriceUSD: usd(50)}},
	}}
	oracle := newTestOracle(&fakeTokenPricer{}, activity, blocks)

	if price := oracle.collectionPrice(context.Background(), "0xnft"); price != 0 {
		t.Fatalf("expected zero price without qualifying sales, got %v", price)
	}
}

func TestCollectionPriceFailsSoft(t *testing.T) {
	oracle := newTestOracle(&fakeTokenPricer{}, &fakeActivitySource{err: fmt.Errorf("api down")}, &fakeBlockResolver{})
	if price := oracle.collectionPrice(context.Background(), "0xnft"); price != 0 {
		t.Fatalf("expected zero price on activity failure, got %v", price)
	}

	oracle = newTestOracle(&fakeTokenPricer{}, &fakeActivitySource{}, &fakeBlockResolver{err: fmt.Errorf("api down")})
	if price := oracle.collectionPrice(context.Background(), "0xnft"); price != 0 {
		t.Fatalf("expected zero price on block lookup failure, got %v", price)
	}
}

func TestAddValueDoesNotMutateInput(t *testing.T) {
	tokens := &fakeTokenPricer{prices: map[string]float64{wethAddress: 2000, "0xaa": 10}}
	oracle := newTestOracle(tokens, &fakeActivitySource{}, &fakeBlockResolver{})

	trades := []model.Trade{{
		MakerAssets: []model.Asset{{Class: model.AssetERC20, ContractAddress: "0xaa", Amount: usd(3)}},
		TakerAssets: []model.Asset{{Class: model.AssetETH, Amount: usd(0.5)}},
	}}

	valued, err := oracle.AddValue(context.Background(), trades)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if trades[0].MakerAssets[0].Value != nil || trades[0].TakerAssets[0].Value != nil {
		t.Fatalf("input trades must not be mutated: %+v", trades[0])
	}
	if *valued[0].MakerAssets[0].Value != 30 {
		t.Fatalf("maker value mismatch: %v", *valued[0].MakerAssets[0].Value)
	}
	if *valued[0].TakerAssets[0].Value != 1000 {
		t.Fatalf("taker value mismatch: %v", *valued[0].TakerAssets[0].Value)
	}
}

func TestAddValueDefaultsAmountToOne(t *testing.T) {
	tokens := &fakeTokenPricer{prices: map[string]float64{wethAddress: 2000}}
	activity := &fakeActivitySource{sales: map[string][]Sale{
		"0xnft": {{BlockNumber: 200, PriceUSD: usd(75)}},
	}}
	oracle := newTestOracle(tokens, activity, &fakeBlockResolver{block: 100})

	trades := []model.Trade{{
		MakerAssets: []model.Asset{{Class: model.AssetERC721, ContractAddress: "0xnft"}},
	}}

	valued, err := oracle.AddValue(context.Background(), trades)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *valued[0].MakerAssets[0].Value != 75 {
		t.Fatalf("single NFT should value at unit price: %v", *valued[0].MakerAssets[0].Value)
	}
}

func TestTotalVolume(t *testing.T) {
	trade := model.Trade{
		MakerAssets: []model.Asset{{Class: model.AssetERC721, Value: usd(100)}},
		TakerAssets: []model.Asset{{Class: model.AssetETH, Value: usd(50)}},
	}

	got := TotalVolume([]model.Trade{trade, trade})
	if got != 300 {
		t.Fatalf("expected total volume 300, got %v", got)
	}
}

func TestTotalVolumeTreatsMissingValueAsZero(t *testing.T) {
	trade := model.Trade{
		MakerAssets: []model.Asset{{Class: model.AssetERC721}},
		TakerAssets: []model.Asset{{Class: model.AssetETH, Value: usd(49.6)}},
	}

	if got := TotalVolume([]model.Trade{trade}); got != 50 {
		t.Fatalf("expected rounded volume 50, got %v", got)
	}
}

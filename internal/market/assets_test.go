package market

import (
	"context"
	"fmt"
	"testing"

	"tradeScope/internal/model"
	"tradeScope/internal/transfers"
)

type fakeTransferSource struct {
	byAddress map[string][]transfers.Transfer
	err       error
}

func (f *fakeTransferSource) TransfersTo(_ context.Context, _ uint64, toAddress, _ string) ([]transfers.Transfer, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byAddress[toAddress], nil
}

func TestAssetFromTransfer(t *testing.T) {
	value := 1.5
	eth := AssetFromTransfer(transfers.Transfer{Category: "external", Value: &value})
	if eth.Class != model.AssetETH || eth.ContractAddress != "" {
		t.Fatalf("external transfer should map to ETH with no contract: %+v", eth)
	}
	if eth.Amount == nil || *eth.Amount != 1.5 {
		t.Fatalf("amount mismatch: %+v", eth)
	}

	internal := AssetFromTransfer(transfers.Transfer{Category: "internal", Value: &value})
	if internal.Class != model.AssetETH {
		t.Fatalf("internal transfer should map to ETH: %+v", internal)
	}

	erc721 := AssetFromTransfer(transfers.Transfer{
		Category:    "erc721",
		RawContract: transfers.RawContract{Address: "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"},
	})
	if erc721.Class != model.AssetERC721 {
		t.Fatalf("class mismatch: %+v", erc721)
	}
	if erc721.ContractAddress != "0xaAaAaAaaAaAaAaaAaAAAAAAAAaaaAaAaAaaAaaAa" {
		t.Fatalf("contract should be checksummed: %s", erc721.ContractAddress)
	}
	if erc721.Amount != nil {
		t.Fatalf("single NFT transfer should carry no amount: %+v", erc721)
	}
}

func TestAddAssetsSides(t *testing.T) {
	maker := "0x1111111111111111111111111111111111111111"
	taker := "0x2222222222222222222222222222222222222222"
	value := 2.0

	source := &fakeTransferSource{byAddress: map[string][]transfers.Transfer{
		// Assets received by the taker are what the maker gave up.
		taker: {{Category: "erc721", Hash: "0x01", RawContract: transfers.RawContract{Address: "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"}}},
		maker: {{Category: "external", Hash: "0x01", Value: &value}},
	}}

	simple := []model.SimpleTrade{
		{TransactionHash: "0x01", BlockNumber: 10, Maker: maker, Taker: taker},
		{TransactionHash: "0x02", BlockNumber: 11, Maker: "0x3333333333333333333333333333333333333333", Taker: "0x4444444444444444444444444444444444444444"},
	}

	trades, err := AddAssets(context.Background(), simple, source, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(trades) != len(simple) {
		t.Fatalf("output length mismatch: %d != %d", len(trades), len(simple))
	}

	if len(trades[0].MakerAssets) != 1 || trades[0].MakerAssets[0].Class != model.AssetERC721 {
		t.Fatalf("maker assets mismatch: %+v", trades[0].MakerAssets)
	}
	if len(trades[0].TakerAssets) != 1 || trades[0].TakerAssets[0].Class != model.AssetETH {
		t.Fatalf("taker assets mismatch: %+v", trades[0].TakerAssets)
	}

	// An address with no transfers yields empty asset lists, not an error.
	if len(trades[1].MakerAssets) != 0 || len(trades[1].TakerAssets) != 0 {
		t.Fatalf("expected empty asset lists: %+v", trades[1])
	}
}

func TestAddAssetsPropagatesFailure(t *testing.T) {
	source := &fakeTransferSource{err: fmt.Errorf("transfer service down")}
	simple := []model.SimpleTrade{{TransactionHash: "0x01", BlockNumber: 10}}

	if _, err := AddAssets(context.Background(), simple, source, 10); err == nil {
		t.Fatalf("expected transfer failure to propagate")
	}
}

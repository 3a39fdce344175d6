package market

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"tradeScope/internal/chunk"
	"tradeScope/internal/model"
	"tradeScope/internal/transfers"
)

// DefaultTransferChunkSize bounds concurrent transfer fetches.
const DefaultTransferChunkSize = 100

// TransferSource provides the asset transfers received by an address
// within one transaction.
type TransferSource interface {
	TransfersTo(ctx context.Context, blockNumber uint64, toAddress, txHash string) ([]transfers.Transfer, error)
}

// AddAssets resolves each trade's moved assets. Transfers addressed to the
// taker are what the maker gave up, and vice versa. The output has the
// same length and order as the input; a side with no transfers gets an
// empty asset list.
func AddAssets(ctx context.Context, simpleTrades []model.SimpleTrade, source TransferSource, chunkSize int) ([]model.Trade, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultTransferChunkSize
	}

	return chunk.Run(ctx, simpleTrades, chunkSize, func(ctx context.Context, trade model.SimpleTrade) (model.Trade, error) {
		makerTransfers, err := source.TransfersTo(ctx, trade.BlockNumber, trade.Taker, trade.TransactionHash)
		if err != nil {
			return model.Trade{}, fmt.Errorf("maker transfers for %s: %w", trade.TransactionHash, err)
		}
		takerTransfers, err := source.TransfersTo(ctx, trade.BlockNumber, trade.Maker, trade.TransactionHash)
		if err != nil {
			return model.Trade{}, fmt.Errorf("taker transfers for %s: %w", trade.TransactionHash, err)
		}

		return model.Trade{
			SimpleTrade: trade,
			MakerAssets: assetsFromTransfers(makerTransfers),
			TakerAssets: assetsFromTransfers(takerTransfers),
		}, nil
	})
}

func assetsFromTransfers(records []transfers.Transfer) []model.Asset {
	assets := make([]model.Asset, 0, len(records))
	for _, record := range records {
		assets = append(assets, AssetFromTransfer(record))
	}
	return assets
}

// AssetFromTransfer maps a raw transfer record onto an Asset. Native
// currency categories collapse into ETH with no contract; token categories
// carry their checksummed contract address.
func AssetFromTransfer(record transfers.Transfer) model.Asset {
	switch record.Category {
	case "external", "internal":
		return model.Asset{
			Class:  model.AssetETH,
			Amount: record.Value,
		}
	default:
		address := ""
		if record.RawContract.Address != "" {
			address = common.HexToAddress(record.RawContract.Address).Hex()
		}
		return model.Asset{
			Class:           model.AssetClass(strings.ToUpper(record.Category)),
			ContractAddress: address,
			Amount:          record.Value,
		}
	}
}

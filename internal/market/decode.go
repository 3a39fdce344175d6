package market

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"tradeScope/internal/model"
)

// decodeNFTTraderLog extracts the parties from a swapEvent log. The taker
// is the indexed creator address; the maker sits in the second data word.
func decodeNFTTraderLog(log types.Log) (model.SimpleTrade, error) {
	if len(log.Topics) < 2 {
		return model.SimpleTrade{}, fmt.Errorf("swapEvent log %s: expected 2 topics, got %d", log.TxHash.Hex(), len(log.Topics))
	}
	if len(log.Data) < 64 {
		return model.SimpleTrade{}, fmt.Errorf("swapEvent log %s: data too short: %d bytes", log.TxHash.Hex(), len(log.Data))
	}

	return model.SimpleTrade{
		TransactionHash: log.TxHash.Hex(),
		BlockNumber:     log.BlockNumber,
		Maker:           addressFromWord(log.Data, 1),
		Taker:           addressFromTopic(log.Topics[1]),
	}, nil
}

// decodeSwapKiwiLog extracts the parties from a SwapExecuted log, where
// both are indexed.
func decodeSwapKiwiLog(log types.Log) (model.SimpleTrade, error) {
	if len(log.Topics) < 3 {
		return model.SimpleTrade{}, fmt.Errorf("SwapExecuted log %s: expected 3 topics, got %d", log.TxHash.Hex(), len(log.Topics))
	}

	return model.SimpleTrade{
		TransactionHash: log.TxHash.Hex(),
		BlockNumber:     log.BlockNumber,
		Maker:           addressFromTopic(log.Topics[1]),
		Taker:           addressFromTopic(log.Topics[2]),
	}, nil
}

// settlementTrade scans a receipt for the 0x Fill event that settled the
// primary log's transaction. The maker is the indexed address in the Fill
// topic; the taker occupies the first data word. Returns false when the
// transaction settled off-exchange.
func settlementTrade(primary types.Log, receipt *types.Receipt) (model.SimpleTrade, bool) {
	if receipt == nil {
		return model.SimpleTrade{}, false
	}
	for _, log := range receipt.Logs {
		if log == nil || log.Address != zxExchangeAddress {
			continue
		}
		if len(log.Topics) < 2 || log.Topics[0] != fillTopic {
			continue
		}
		if len(log.Data) < 32 {
			continue
		}
		return model.SimpleTrade{
			TransactionHash: primary.TxHash.Hex(),
			BlockNumber:     primary.BlockNumber,
			Maker:           addressFromTopic(log.Topics[1]),
			Taker:           addressFromWord(log.Data, 0),
		}, true
	}
	return model.SimpleTrade{}, false
}

// addressFromTopic takes the low 20 bytes of a 32-byte topic word and
// returns the checksummed address.
func addressFromTopic(topic common.Hash) string {
	return common.BytesToAddress(topic.Bytes()).Hex()
}

// addressFromWord takes the low 20 bytes of the word-th 32-byte data word.
// Callers must have checked the data length.
func addressFromWord(data []byte, word int) string {
	return common.BytesToAddress(data[word*32+12 : (word+1)*32]).Hex()
}

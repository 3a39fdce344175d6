package market

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"tradeScope/internal/model"
)

// ChainReader is the slice of chain access the decoders need.
type ChainReader interface {
	FilterLogs(ctx context.Context, fromBlock, toBlock uint64, addresses []common.Address, topics [][]common.Hash) ([]types.Log, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// ServiceConfig holds runtime settings for trade extraction.
type ServiceConfig struct {
	BlockBatchSize uint64
	MaxRetries     int
	RetryBackoff   time.Duration
}

// Service extracts marketplace trades from on-chain event logs.
type Service struct {
	cfg    ServiceConfig
	chain  ChainReader
	logger *zap.Logger
}

// NewService builds a Service with its dependencies.
func NewService(cfg ServiceConfig, chain ChainReader, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BlockBatchSize == 0 {
		cfg.BlockBatchSize = 50000
	}
	return &Service{
		cfg:    cfg,
		chain:  chain,
		logger: logger,
	}
}

// SimpleTrades returns the decoded trades for one platform over an
// inclusive block range, in log order.
func (s *Service) SimpleTrades(ctx context.Context, platform Platform, fromBlock, toBlock uint64) ([]model.SimpleTrade, error) {
	if s.chain == nil {
		return nil, fmt.Errorf("chain reader is nil")
	}

	switch platform {
	case PlatformSudoswap:
		return s.sudoswapTrades(ctx, fromBlock, toBlock)
	case PlatformNFTTrader:
		return s.nftTraderTrades(ctx, fromBlock, toBlock)
	case PlatformSwapKiwi:
		return s.swapKiwiTrades(ctx, fromBlock, toBlock)
	default:
		return nil, fmt.Errorf("unsupported platform: %s", platform)
	}
}

// sudoswapTrades resolves trades indirectly. The pair events only signal
// that a swap settled; the parties live in the 0x Fill event of the same
// transaction, so each candidate needs a receipt scan. A receipt without
// a Fill drops the candidate.
func (s *Service) sudoswapTrades(ctx context.Context, fromBlock, toBlock uint64) ([]model.SimpleTrade, error) {
	logs, err := s.filterLogs(ctx, fromBlock, toBlock,
		[]common.Address{sudoswapAddress},
		[]common.Hash{swapNFTInPairTopic, swapNFTOutPairTopic},
	)
	if err != nil {
		return nil, err
	}

	trades := make([]model.SimpleTrade, 0, len(logs))
	seen := make(map[common.Hash]struct{})
	for _, primary := range logs {
		if _, ok := seen[primary.TxHash]; ok {
			continue
		}
		seen[primary.TxHash] = struct{}{}

		receipt, err := s.receiptWithRetry(ctx, primary.TxHash)
		if err != nil {
			return nil, fmt.Errorf("fetch receipt %s: %w", primary.TxHash.Hex(), err)
		}

		trade, ok := settlementTrade(primary, receipt)
		if !ok {
			s.logger.Debug("no settlement fill in receipt", zap.String("tx_hash", primary.TxHash.Hex()))
			continue
		}
		trades = append(trades, trade)
	}

	return trades, nil
}

func (s *Service) nftTraderTrades(ctx context.Context, fromBlock, toBlock uint64) ([]model.SimpleTrade, error) {
	logs, err := s.filterLogs(ctx, fromBlock, toBlock,
		[]common.Address{nftTraderAddress},
		[]common.Hash{swapEventTopic},
	)
	if err != nil {
		return nil, err
	}

	trades := make([]model.SimpleTrade, 0, len(logs))
	for _, log := range logs {
		trade, err := decodeNFTTraderLog(log)
		if err != nil {
			return nil, err
		}
		trades = append(trades, trade)
	}
	return trades, nil
}

func (s *Service) swapKiwiTrades(ctx context.Context, fromBlock, toBlock uint64) ([]model.SimpleTrade, error) {
	logsV13, err := s.filterLogs(ctx, fromBlock, toBlock,
		[]common.Address{swapKiwiV13Address},
		[]common.Hash{swapExecutedTopic},
	)
	if err != nil {
		return nil, err
	}
	logsV14, err := s.filterLogs(ctx, fromBlock, toBlock,
		[]common.Address{swapKiwiAddress},
		[]common.Hash{swapExecutedTopic},
	)
	if err != nil {
		return nil, err
	}

	logs := append(logsV13, logsV14...)
	trades := make([]model.SimpleTrade, 0, len(logs))
	for _, log := range logs {
		trade, err := decodeSwapKiwiLog(log)
		if err != nil {
			return nil, err
		}
		trades = append(trades, trade)
	}
	return trades, nil
}

// filterLogs queries one address set over the range, splitting it into
// block batches so single requests stay within provider limits.
func (s *Service) filterLogs(ctx context.Context, fromBlock, toBlock uint64, addresses []common.Address, topic0 []common.Hash) ([]types.Log, error) {
	ranges, err := splitBlockRange(fromBlock, toBlock, s.cfg.BlockBatchSize)
	if err != nil {
		return nil, err
	}

	var logs []types.Log
	for _, blockRange := range ranges {
		var batch []types.Log
		err := withRetry(ctx, s.cfg.MaxRetries, s.cfg.RetryBackoff, func(ctx context.Context) error {
			var err error
			batch, err = s.chain.FilterLogs(ctx, blockRange.From, blockRange.To, addresses, [][]common.Hash{topic0})
			if err != nil {
				s.logger.Warn("filter logs failed",
					zap.Error(err),
					zap.Uint64("from", blockRange.From),
					zap.Uint64("to", blockRange.To),
				)
			}
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("filter logs: %w", err)
		}
		logs = append(logs, batch...)
	}
	return logs, nil
}

func (s *Service) receiptWithRetry(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	var receipt *types.Receipt
	err := withRetry(ctx, s.cfg.MaxRetries, s.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		receipt, err = s.chain.TransactionReceipt(ctx, txHash)
		if err != nil {
			s.logger.Warn("receipt fetch failed", zap.Error(err), zap.String("tx_hash", txHash.Hex()))
		}
		return err
	})
	return receipt, err
}

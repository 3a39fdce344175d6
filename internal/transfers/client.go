// Package transfers retrieves per-transaction asset transfers through the
// provider's alchemy_getAssetTransfers extension method.
package transfers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"
)

// transferCategories covers native currency moves (direct and internal)
// plus the three token standards.
var transferCategories = []string{"external", "internal", "erc20", "erc721", "erc1155"}

// Caller abstracts the JSON-RPC transport.
type Caller interface {
	CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error
}

// Transfer is one asset-transfer record as reported by the provider.
type Transfer struct {
	Category    string      `json:"category"`
	Hash        string      `json:"hash"`
	Value       *float64    `json:"value"`
	RawContract RawContract `json:"rawContract"`
}

// RawContract references the token contract behind a transfer, empty for
// native currency.
type RawContract struct {
	Address string `json:"address"`
}

type transferParams struct {
	FromBlock string   `json:"fromBlock"`
	ToBlock   string   `json:"toBlock"`
	Category  []string `json:"category"`
	ToAddress string   `json:"toAddress"`
	PageKey   string   `json:"pageKey,omitempty"`
}

type transferPage struct {
	Transfers []Transfer `json:"transfers"`
	PageKey   string     `json:"pageKey"`
}

// Client queries asset transfers.
type Client struct {
	rpc    Caller
	logger *zap.Logger
}

// NewClient builds a transfer client on top of an RPC caller.
func NewClient(rpc Caller, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{rpc: rpc, logger: logger}
}

// TransfersTo returns every transfer addressed to toAddress within one
// block, restricted to the given transaction. Pages are drained one at a
// time while the provider returns a continuation key; later pages land
// ahead of earlier ones in the merge. Order across pages is immaterial
// since a transaction never spans them, and order within a page is kept.
// Failures surface to the caller untouched.
func (c *Client) TransfersTo(ctx context.Context, blockNumber uint64, toAddress, txHash string) ([]Transfer, error) {
	blockHex := hexutil.EncodeUint64(blockNumber)

	var pages [][]Transfer
	pageKey := ""
	for {
		params := transferParams{
			FromBlock: blockHex,
			ToBlock:   blockHex,
			Category:  transferCategories,
			ToAddress: toAddress,
			PageKey:   pageKey,
		}

		var raw json.RawMessage
		if err := c.rpc.CallContext(ctx, &raw, "alchemy_getAssetTransfers", params); err != nil {
			return nil, fmt.Errorf("asset transfers query: %w", err)
		}

		var page transferPage
		if err := json.Unmarshal(raw, &page); err != nil {
			return nil, fmt.Errorf("decode asset transfers response: %w", err)
		}

		pages = append(pages, page.Transfers)
		if page.PageKey == "" {
			break
		}
		pageKey = page.PageKey
	}

	var out []Transfer
	for i := len(pages) - 1; i >= 0; i-- {
		for _, transfer := range pages[i] {
			if strings.EqualFold(transfer.Hash, txHash) {
				out = append(out, transfer)
			}
		}
	}

	c.logger.Debug("asset transfers fetched",
		zap.Uint64("block_number", blockNumber),
		zap.String("to_address", toAddress),
		zap.Int("pages", len(pages)),
		zap.Int("matched", len(out)),
	)

	return out, nil
}

package market

import "tradeScope/internal/model"

// Classify partitions trades into sales and swaps. A sale moves NFTs out
// of exactly one side against non-NFT consideration; a swap moves NFTs out
// of both sides. A trade with no NFT on either side matched a settlement
// event without an NFT actually changing hands and lands in neither set.
// Both outputs preserve input order and are disjoint.
func Classify(trades []model.Trade) (sales, swaps []model.Trade) {
	for _, trade := range trades {
		makerHasNFTs := hasNFT(trade.MakerAssets)
		takerHasNFTs := hasNFT(trade.TakerAssets)

		switch {
		case makerHasNFTs && takerHasNFTs:
			swaps = append(swaps, trade)
		case makerHasNFTs || takerHasNFTs:
			sales = append(sales, trade)
		}
	}
	return sales, swaps
}

func hasNFT(assets []model.Asset) bool {
	for _, asset := range assets {
		if asset.Class.IsNFT() {
			return true
		}
	}
	return false
}

package model

// AssetClass identifies what kind of asset moved in a transfer.
type AssetClass string

const (
	AssetETH     AssetClass = "ETH"
	AssetERC20   AssetClass = "ERC20"
	AssetERC721  AssetClass = "ERC721"
	AssetERC1155 AssetClass = "ERC1155"
)

// IsNFT reports whether the class is one of the non-fungible standards.
func (c AssetClass) IsNFT() bool {
	return c == AssetERC721 || c == AssetERC1155
}

// SimpleTrade identifies a single decoded trade event before asset resolution.
// Maker and taker are EIP-55 checksummed addresses.
type SimpleTrade struct {
	TransactionHash string `json:"transaction_hash"`
	BlockNumber     uint64 `json:"block_number"`
	Maker           string `json:"maker"`
	Taker           string `json:"taker"`
}

// Asset is a single asset observed moving within a settlement transaction.
// ContractAddress is empty only for ETH. Amount is nil when the transfer
// carries no quantity (a single non-fungible transfer counts as 1).
// Value is populated by the value enricher and nil before that.
type Asset struct {
	Class           AssetClass `json:"class"`
	ContractAddress string     `json:"contract_address,omitempty"`
	Amount          *float64   `json:"amount,omitempty"`
	Value           *float64   `json:"value,omitempty"`
}

// Trade is a SimpleTrade enriched with the assets each party gave up.
// MakerAssets flowed out of the maker (into the taker) and TakerAssets
// flowed out of the taker, as observed in the settlement transaction.
type Trade struct {
	SimpleTrade
	MakerAssets []Asset `json:"maker_assets"`
	TakerAssets []Asset `json:"taker_assets"`
}

// Assets returns both sides' assets in maker-then-taker order.
func (t Trade) Assets() []Asset {
	out := make([]Asset, 0, len(t.MakerAssets)+len(t.TakerAssets))
	out = append(out, t.MakerAssets...)
	out = append(out, t.TakerAssets...)
	return out
}

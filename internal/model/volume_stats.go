package model

// VolumeStats summarizes one platform run for reporting and persistence.
type VolumeStats struct {
	Platform      string  `json:"platform"`
	Days          int     `json:"days"`
	FromBlock     uint64  `json:"from_block"`
	ToBlock       uint64  `json:"to_block"`
	Sales         int     `json:"sales"`
	Swaps         int     `json:"swaps"`
	SaleVolumeUSD float64 `json:"sale_volume_usd"`
	SwapVolumeUSD float64 `json:"swap_volume_usd"`
	GeneratedAt   string  `json:"generated_at"`
}

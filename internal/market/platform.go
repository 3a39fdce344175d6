package market

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Platform identifies a supported NFT marketplace.
type Platform string

const (
	PlatformSudoswap  Platform = "Sudoswap"
	PlatformNFTTrader Platform = "NFTTrader"
	PlatformSwapKiwi  Platform = "Swap.kiwi"
)

// AllPlatforms lists every supported marketplace.
func AllPlatforms() []Platform {
	return []Platform{PlatformSudoswap, PlatformNFTTrader, PlatformSwapKiwi}
}

// ParsePlatforms converts platform names into Platform values.
func ParsePlatforms(inputs []string) ([]Platform, error) {
	platforms := make([]Platform, 0, len(inputs))
	for _, input := range inputs {
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		matched := false
		for _, platform := range AllPlatforms() {
			if strings.EqualFold(input, string(platform)) {
				platforms = append(platforms, platform)
				matched = true
				break
			}
		}
		if !matched {
			return nil, fmt.Errorf("unknown platform: %s", input)
		}
	}
	return platforms, nil
}

// Mainnet deployments.
var (
	// 0x exchange, through which Sudoswap orders settle.
	zxExchangeAddress = common.HexToAddress("0x080bf510FCbF18b91105470639e9561022937712")
	sudoswapAddress   = common.HexToAddress("0x4e2f98c96e2d595a83AFa35888C4af58Ac343E44")
	nftTraderAddress  = common.HexToAddress("0xC310e760778ECBca4C65B6C559874757A4c4Ece0")
	// Swap.kiwi emits the same event from two deployed versions.
	swapKiwiAddress    = common.HexToAddress("0x4748495153FB86637e4fDD8E50e3c1f611f15930")
	swapKiwiV13Address = common.HexToAddress("0x1c1919Ec9de318b58fA66baE7449438C673E10B8")
)

// Event signature topics.
var (
	fillTopic           = crypto.Keccak256Hash([]byte("Fill(address,address,address,address,uint256,uint256,uint256,uint256,bytes32,bytes,bytes)"))
	swapNFTInPairTopic  = crypto.Keccak256Hash([]byte("SwapNFTInPair()"))
	swapNFTOutPairTopic = crypto.Keccak256Hash([]byte("SwapNFTOutPair()"))
	swapEventTopic      = crypto.Keccak256Hash([]byte("swapEvent(address,uint256,uint8,uint256,address)"))
	swapExecutedTopic   = crypto.Keccak256Hash([]byte("SwapExecuted(address,address,uint256)"))
)

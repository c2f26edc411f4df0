// Package bridge implements the cross-chain gateway used for deposits and
// withdrawals: asset dictionary lookups, attestation retrieval, transfer
// completion checks and redemption submission.
package bridge

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vexlabs/govex/venue/types"
)

// Dictionary describes the bridge's view of supported assets and contracts.
// It is immutable after construction; lookups are keyed by chain plus
// lowercase token address.
type Dictionary struct {
	// FastPathAssets maps chain -> set of token addresses (lowercase) that
	// qualify for the stablecoin-native fast path.
	FastPathAssets map[types.Chain][]string `yaml:"fast_path_assets"`

	// HubChain is the fast-path hub. Transfers originating on the hub itself
	// always take the general path.
	HubChain types.Chain `yaml:"hub_chain"`

	// WrappedNative lists instrument ids that wrap a chain's gas currency.
	WrappedNative []string `yaml:"wrapped_native"`

	// FastPathContracts maps chain -> fast-path (burn/mint) contract address.
	FastPathContracts map[types.Chain]string `yaml:"fast_path_contracts"`

	// BridgeContracts maps chain -> general bridge contract address.
	BridgeContracts map[types.Chain]string `yaml:"bridge_contracts"`

	// StableTokens maps chain -> canonical stable token address.
	StableTokens map[types.Chain]string `yaml:"stable_tokens"`
}

// DefaultDictionary returns the built-in production dictionary.
func DefaultDictionary() *Dictionary {
	return &Dictionary{
		FastPathAssets: map[types.Chain][]string{
			types.ChainAvalanche: {"0xb97ef9ef8734c71904d8002f8b6bc66dd9c48a6e"},
			types.ChainArbitrum:  {"0xaf88d065e77c8cc2239327c5edb3a432268e5831"},
			types.ChainBase:      {"0x833589fcd6edb6e08f4c7c32d4f71b54bda02913"},
		},
		HubChain:      types.ChainEthereum,
		WrappedNative: []string{"ETH", "AVAX"},
		FastPathContracts: map[types.Chain]string{
			types.ChainEthereum:  "0xBd3fa81B58Ba92a82136038B25aDec7066af3155",
			types.ChainAvalanche: "0x6B25532e1060CE10cc3B0A99e5683b91BFDe6982",
			types.ChainArbitrum:  "0x19330d10D9Cc8751218eaf51E8885D058642E08A",
			types.ChainBase:      "0x1682Ae6375C4E4A97e4B583BC394c861A46D8962",
		},
		BridgeContracts: map[types.Chain]string{
			types.ChainEthereum:  "0x3ee18B2214AFF97000D974cf647E7C347E8fa585",
			types.ChainAvalanche: "0x0e082F06FF657D94310cB8cE8B0D9a04541d8052",
			types.ChainArbitrum:  "0x0b2402144Bb366A632D14B83F244D2e0e21bD39c",
			types.ChainBase:      "0x8d2de8d2f73F1F4cAB472AC9A881C9b123C79627",
		},
		StableTokens: map[types.Chain]string{
			types.ChainEthereum:  "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
			types.ChainAvalanche: "0xB97EF9Ef8734C71904D8002F8b6Bc66Dd9c48a6E",
			types.ChainArbitrum:  "0xaf88d065e77c8cC2239327C5EDb3A432268e5831",
			types.ChainBase:      "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
		},
	}
}

// LoadDictionaryFile reads a dictionary from a yaml file.
func LoadDictionaryFile(path string) (*Dictionary, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dictionary file: %w", err)
	}
	var d Dictionary
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("parse dictionary file: %w", err)
	}
	if d.HubChain == "" {
		return nil, fmt.Errorf("dictionary file %s: hub_chain is required", path)
	}
	return &d, nil
}

// IsFastPathAsset reports whether the token on the given chain qualifies for
// the stablecoin-native fast path. The hub chain itself is excluded: hub
// transfers go through the general path.
func (d *Dictionary) IsFastPathAsset(chain types.Chain, token string) bool {
	if chain == d.HubChain {
		return false
	}
	token = strings.ToLower(token)
	for _, t := range d.FastPathAssets[chain] {
		if strings.ToLower(t) == token {
			return true
		}
	}
	return false
}

// IsWrappedNativeCurrency reports whether the instrument wraps a chain's gas
// currency (transfers carry value instead of an ERC20 movement).
func (d *Dictionary) IsWrappedNativeCurrency(instrumentID string) bool {
	for _, id := range d.WrappedNative {
		if id == instrumentID {
			return true
		}
	}
	return false
}

// FastPathHubChain returns the fast-path hub chain.
func (d *Dictionary) FastPathHubChain() types.Chain {
	return d.HubChain
}

// FastPathContract returns the fast-path contract address on a chain.
func (d *Dictionary) FastPathContract(chain types.Chain) (string, error) {
	addr, ok := d.FastPathContracts[chain]
	if !ok {
		return "", fmt.Errorf("no fast-path contract on chain %q", chain)
	}
	return addr, nil
}

// BridgeContract returns the general bridge contract address on a chain.
func (d *Dictionary) BridgeContract(chain types.Chain) (string, error) {
	addr, ok := d.BridgeContracts[chain]
	if !ok {
		return "", fmt.Errorf("no bridge contract on chain %q", chain)
	}
	return addr, nil
}

// StableToken returns the canonical stable token address on a chain.
func (d *Dictionary) StableToken(chain types.Chain) (string, error) {
	addr, ok := d.StableTokens[chain]
	if !ok {
		return "", fmt.Errorf("no stable token on chain %q", chain)
	}
	return addr, nil
}

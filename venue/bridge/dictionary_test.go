package bridge

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vexlabs/govex/venue/types"
)

func TestIsFastPathAsset(t *testing.T) {
	d := DefaultDictionary()

	// lookup is case-insensitive
	assert.True(t, d.IsFastPathAsset(types.ChainAvalanche, "0xB97EF9Ef8734C71904D8002F8b6Bc66Dd9c48a6E"))
	assert.True(t, d.IsFastPathAsset(types.ChainAvalanche, "0xb97ef9ef8734c71904d8002f8b6bc66dd9c48a6e"))

	// unknown token
	assert.False(t, d.IsFastPathAsset(types.ChainAvalanche, "0x0000000000000000000000000000000000000001"))

	// the hub chain always takes the general path, even for listed tokens
	hubStable, err := d.StableToken(d.FastPathHubChain())
	require.NoError(t, err)
	assert.False(t, d.IsFastPathAsset(d.FastPathHubChain(), hubStable))
}

func TestIsWrappedNativeCurrency(t *testing.T) {
	d := DefaultDictionary()
	assert.True(t, d.IsWrappedNativeCurrency("ETH"))
	assert.True(t, d.IsWrappedNativeCurrency("AVAX"))
	assert.False(t, d.IsWrappedNativeCurrency("USDC"))
}

func TestContractLookups(t *testing.T) {
	d := DefaultDictionary()

	for _, chain := range []types.Chain{types.ChainEthereum, types.ChainAvalanche, types.ChainArbitrum, types.ChainBase} {
		addr, err := d.BridgeContract(chain)
		require.NoError(t, err)
		assert.NotEmpty(t, addr)
	}

	// the native ledger has no EVM contracts
	_, err := d.BridgeContract(types.ChainNative)
	assert.Error(t, err)
	_, err = d.FastPathContract(types.ChainNative)
	assert.Error(t, err)
	_, err = d.StableToken(types.ChainNative)
	assert.Error(t, err)
}

func TestLoadDictionaryFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dictionary.yaml")
	content := `
hub_chain: ethereum
wrapped_native: [ETH]
fast_path_assets:
  base:
    - "0x833589fcd6edb6e08f4c7c32d4f71b54bda02913"
bridge_contracts:
  base: "0x8d2de8d2f73F1F4cAB472AC9A881C9b123C79627"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	d, err := LoadDictionaryFile(path)
	require.NoError(t, err)
	assert.Equal(t, types.ChainEthereum, d.FastPathHubChain())
	assert.True(t, d.IsFastPathAsset(types.ChainBase, "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"))
	assert.True(t, d.IsWrappedNativeCurrency("ETH"))
}

func TestLoadDictionaryFileRequiresHub(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dictionary.yaml")
	require.NoError(t, os.WriteFile(path, []byte("wrapped_native: [ETH]\n"), 0o600))

	_, err := LoadDictionaryFile(path)
	assert.Error(t, err)
}

func TestAttestationOptionsDefaults(t *testing.T) {
	var nilOpts *AttestationOptions
	o := nilOpts.withDefaults()
	assert.Equal(t, defaultAttestationTimeout, o.Timeout)
	assert.Equal(t, defaultAttestationRetries, o.MaxRetries)
	assert.Equal(t, defaultPollInterval, o.PollInterval)

	partial := (&AttestationOptions{MaxRetries: 3}).withDefaults()
	assert.Equal(t, 3, partial.MaxRetries)
	assert.Equal(t, defaultAttestationTimeout, partial.Timeout)
}

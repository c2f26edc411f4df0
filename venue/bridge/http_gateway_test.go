package bridge

import (
	"context"
	"encoding/base64"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vexlabs/govex/venue/types"
)

func testGateway(t *testing.T) *HTTPGateway {
	t.Helper()
	g, err := NewHTTPGateway(GatewayConfig{})
	require.NoError(t, err)
	return g
}

func TestSequenceFromForeignTx(t *testing.T) {
	g := testGateway(t)
	contract, err := g.dict.BridgeContract(types.ChainEthereum)
	require.NoError(t, err)

	data := make([]byte, 32)
	big.NewInt(77).FillBytes(data)
	receipt := &ethtypes.Receipt{
		TxHash: common.HexToHash("0xaa"),
		Logs: []*ethtypes.Log{
			// unrelated log from another contract
			{Address: common.HexToAddress("0x01"), Topics: []common.Hash{common.HexToHash("0x02")}},
			{
				Address: common.HexToAddress(contract),
				Topics:  []common.Hash{transferInitiatedTopic},
				Data:    data,
			},
		},
	}

	seq, err := g.SequenceFromForeignTx(context.Background(), types.ChainEthereum, receipt)
	require.NoError(t, err)
	assert.Equal(t, uint64(77), seq)
}

func TestSequenceFromForeignTxNoLog(t *testing.T) {
	g := testGateway(t)

	receipt := &ethtypes.Receipt{
		TxHash: common.HexToHash("0xbb"),
		Logs:   []*ethtypes.Log{},
	}
	_, err := g.SequenceFromForeignTx(context.Background(), types.ChainEthereum, receipt)
	assert.Error(t, err)
}

func TestSequenceFromForeignTxMalformedLog(t *testing.T) {
	g := testGateway(t)
	contract, err := g.dict.BridgeContract(types.ChainEthereum)
	require.NoError(t, err)

	receipt := &ethtypes.Receipt{
		TxHash: common.HexToHash("0xcc"),
		Logs: []*ethtypes.Log{
			{
				Address: common.HexToAddress(contract),
				Topics:  []common.Hash{transferInitiatedTopic},
				Data:    []byte{0x01}, // too short
			},
		},
	}
	_, err = g.SequenceFromForeignTx(context.Background(), types.ChainEthereum, receipt)
	assert.Error(t, err)
}

func TestClientRequiresConfiguredEndpoint(t *testing.T) {
	g := testGateway(t)
	_, err := g.client(types.ChainArbitrum)
	assert.Error(t, err)
}

func TestFetchAttestationPollsUntilAvailable(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"attestation":"` + base64.StdEncoding.EncodeToString([]byte("signed")) + `"}`))
	}))
	defer srv.Close()

	g, err := NewHTTPGateway(GatewayConfig{AttestationURL: srv.URL})
	require.NoError(t, err)

	att, err := g.FetchAttestation(context.Background(), types.ChainNative, 42, &AttestationOptions{
		Timeout:      time.Second,
		MaxRetries:   5,
		PollInterval: time.Millisecond,
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("signed"), att)
	assert.Equal(t, 3, calls)
}

func TestFetchAttestationRetryBudgetExhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	g, err := NewHTTPGateway(GatewayConfig{AttestationURL: srv.URL})
	require.NoError(t, err)

	_, err = g.FetchAttestation(context.Background(), types.ChainNative, 42, &AttestationOptions{
		Timeout:      time.Second,
		MaxRetries:   2,
		PollInterval: time.Millisecond,
	})
	assert.ErrorIs(t, err, ErrAttestationTimeout)
}

func TestIsSequenceEnqueued(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/attestations/1/42/status" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"enqueued":true}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	g, err := NewHTTPGateway(GatewayConfig{AttestationURL: srv.URL})
	require.NoError(t, err)

	ok, err := g.IsSequenceEnqueued(context.Background(), types.ChainNative, 42)
	require.NoError(t, err)
	assert.True(t, ok)

	// unknown sequence is "not yet", not an error
	ok, err = g.IsSequenceEnqueued(context.Background(), types.ChainNative, 43)
	require.NoError(t, err)
	assert.False(t, ok)
}

package bridge

import (
	"context"
	"encoding/base64"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/vexlabs/govex/pkg/logger"
	"github.com/vexlabs/govex/venue/signing"
	"github.com/vexlabs/govex/venue/types"
)

// ErrAttestationTimeout means the attestation network did not produce the
// signed attestation within the caller's retry budget.
var ErrAttestationTimeout = errors.New("bridge: attestation not available within retry budget")

// bridgeABI is the subset of the general bridge contract this layer calls.
const bridgeABI = `[
	{"inputs":[{"name":"token","type":"address"},{"name":"amount","type":"uint256"},{"name":"recipientChain","type":"uint16"},{"name":"recipient","type":"bytes32"}],"name":"transferTokens","outputs":[{"name":"sequence","type":"uint64"}],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[{"name":"recipientChain","type":"uint16"},{"name":"recipient","type":"bytes32"}],"name":"wrapAndTransfer","outputs":[{"name":"sequence","type":"uint64"}],"stateMutability":"payable","type":"function"},
	{"inputs":[{"name":"encodedAttestation","type":"bytes"}],"name":"completeTransfer","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[{"name":"hash","type":"bytes32"}],"name":"isTransferCompleted","outputs":[{"name":"","type":"bool"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"name":"nativeChain","type":"uint16"},{"name":"assetId","type":"uint64"}],"name":"mirrorAsset","outputs":[{"name":"","type":"address"}],"stateMutability":"view","type":"function"}
]`

// fastPathABI is the stablecoin burn/mint contract surface.
const fastPathABI = `[
	{"inputs":[{"name":"amount","type":"uint256"},{"name":"destinationChain","type":"uint16"},{"name":"mintRecipient","type":"bytes32"},{"name":"burnToken","type":"address"}],"name":"depositForBurn","outputs":[{"name":"nonce","type":"uint64"}],"stateMutability":"nonpayable","type":"function"}
]`

// transferInitiatedTopic is the log topic the bridge contract emits with the
// outbound sequence number.
var transferInitiatedTopic = crypto.Keccak256Hash([]byte("TransferInitiated(uint64,uint16,bytes32)"))

// GatewayConfig configures the HTTP gateway.
type GatewayConfig struct {
	// AttestationURL is the attestation network's REST endpoint.
	AttestationURL string

	// RPCEndpoints maps EVM chains to their RPC node URLs.
	RPCEndpoints map[types.Chain]string

	// Dict overrides the built-in dictionary when non-nil.
	Dict *Dictionary
}

var _ Gateway = (*HTTPGateway)(nil)

// HTTPGateway implements Gateway against the attestation network's REST API
// and per-chain RPC nodes.
type HTTPGateway struct {
	http *resty.Client
	dict *Dictionary
	rpc  map[types.Chain]string
	log  *logrus.Entry

	bridgeABI   abi.ABI
	fastPathABI abi.ABI

	mu      sync.Mutex
	clients map[types.Chain]*ethclient.Client

	// receiptWait is the poll interval while waiting for a receipt.
	receiptWait time.Duration
}

// NewHTTPGateway creates a gateway. It fails only on malformed embedded ABIs,
// which indicates a build problem rather than a runtime condition.
func NewHTTPGateway(cfg GatewayConfig) (*HTTPGateway, error) {
	parsedBridge, err := abi.JSON(strings.NewReader(bridgeABI))
	if err != nil {
		return nil, fmt.Errorf("parse bridge ABI: %w", err)
	}
	parsedFastPath, err := abi.JSON(strings.NewReader(fastPathABI))
	if err != nil {
		return nil, fmt.Errorf("parse fast-path ABI: %w", err)
	}

	dict := cfg.Dict
	if dict == nil {
		dict = DefaultDictionary()
	}

	return &HTTPGateway{
		http: resty.New().
			SetBaseURL(cfg.AttestationURL).
			SetTimeout(15 * time.Second),
		dict:        dict,
		rpc:         cfg.RPCEndpoints,
		log:         logger.Component("bridge"),
		bridgeABI:   parsedBridge,
		fastPathABI: parsedFastPath,
		clients:     make(map[types.Chain]*ethclient.Client),
		receiptWait: 3 * time.Second,
	}, nil
}

// Dictionary returns the asset dictionary.
func (g *HTTPGateway) Dictionary() *Dictionary {
	return g.dict
}

// client returns (and caches) the RPC client for a chain.
func (g *HTTPGateway) client(chain types.Chain) (*ethclient.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if c, ok := g.clients[chain]; ok {
		return c, nil
	}
	url, ok := g.rpc[chain]
	if !ok {
		return nil, fmt.Errorf("no RPC endpoint configured for chain %q", chain)
	}
	c, err := ethclient.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial %s RPC: %w", chain, err)
	}
	g.clients[chain] = c
	return c, nil
}

// ResolveMirrorAsset asks the bridge contract on the target chain which token
// mirrors the native asset.
func (g *HTTPGateway) ResolveMirrorAsset(ctx context.Context, assetID uint64, target types.Chain) (common.Address, error) {
	ec, err := g.client(target)
	if err != nil {
		return common.Address{}, err
	}
	contract, err := g.dict.BridgeContract(target)
	if err != nil {
		return common.Address{}, err
	}
	nativeWire, err := types.ChainNative.WireID()
	if err != nil {
		return common.Address{}, err
	}

	data, err := g.bridgeABI.Pack("mirrorAsset", nativeWire, assetID)
	if err != nil {
		return common.Address{}, fmt.Errorf("pack mirrorAsset: %w", err)
	}
	to := common.HexToAddress(contract)
	result, err := ec.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return common.Address{}, fmt.Errorf("call mirrorAsset: %w", err)
	}
	var mirror common.Address
	if err := g.bridgeABI.UnpackIntoInterface(&mirror, "mirrorAsset", result); err != nil {
		return common.Address{}, fmt.Errorf("unpack mirrorAsset: %w", err)
	}
	return mirror, nil
}

// SubmitTransfer submits the bridge deposit transaction on the origin chain.
func (g *HTTPGateway) SubmitTransfer(ctx context.Context, p TransferParams, signer *signing.EVMSigner) (*ethtypes.Receipt, error) {
	ec, err := g.client(p.Chain)
	if err != nil {
		return nil, err
	}
	nativeWire, err := types.ChainNative.WireID()
	if err != nil {
		return nil, err
	}

	var contractAddr string
	var data []byte
	value := big.NewInt(0)
	recipient := [32]byte(p.Recipient)

	switch {
	case p.FastPath:
		contractAddr, err = g.dict.FastPathContract(p.Chain)
		if err != nil {
			return nil, err
		}
		data, err = g.fastPathABI.Pack("depositForBurn", p.Amount, nativeWire, recipient, p.Token)
	case p.NativeValue != nil:
		contractAddr, err = g.dict.BridgeContract(p.Chain)
		if err != nil {
			return nil, err
		}
		value = p.NativeValue
		data, err = g.bridgeABI.Pack("wrapAndTransfer", nativeWire, recipient)
	default:
		contractAddr, err = g.dict.BridgeContract(p.Chain)
		if err != nil {
			return nil, err
		}
		data, err = g.bridgeABI.Pack("transferTokens", p.Token, p.Amount, nativeWire, recipient)
	}
	if err != nil {
		return nil, fmt.Errorf("pack transfer call: %w", err)
	}

	receipt, err := g.sendTx(ctx, ec, p.Chain, signer, common.HexToAddress(contractAddr), value, data, 0, nil)
	if err != nil {
		return nil, err
	}
	g.log.WithFields(logrus.Fields{
		"chain":     p.Chain,
		"tx":        receipt.TxHash.Hex(),
		"fast_path": p.FastPath,
	}).Info("bridge transfer submitted")
	return receipt, nil
}

// SequenceFromNativeTx asks the attestation network for the sequence emitted
// by a confirmed native-ledger transaction.
func (g *HTTPGateway) SequenceFromNativeTx(ctx context.Context, txID string) (uint64, error) {
	var out struct {
		Sequence uint64 `json:"sequence"`
	}
	resp, err := g.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetPathParam("txid", txID).
		Get("/v1/sequences/native/{txid}")
	if err != nil {
		return 0, fmt.Errorf("fetch native sequence: %w", err)
	}
	if resp.IsError() {
		return 0, fmt.Errorf("fetch native sequence: HTTP %d: %s", resp.StatusCode(), resp.String())
	}
	return out.Sequence, nil
}

// SequenceFromForeignTx extracts the sequence from the bridge contract's
// TransferInitiated log in the receipt.
func (g *HTTPGateway) SequenceFromForeignTx(ctx context.Context, chain types.Chain, receipt *ethtypes.Receipt) (uint64, error) {
	contract, err := g.dict.BridgeContract(chain)
	if err != nil {
		return 0, err
	}
	fastPath, fastPathErr := g.dict.FastPathContract(chain)

	for _, lg := range receipt.Logs {
		fromBridge := lg.Address == common.HexToAddress(contract)
		fromFastPath := fastPathErr == nil && lg.Address == common.HexToAddress(fastPath)
		if !fromBridge && !fromFastPath {
			continue
		}
		if len(lg.Topics) == 0 || lg.Topics[0] != transferInitiatedTopic {
			continue
		}
		if len(lg.Data) < 32 {
			return 0, fmt.Errorf("malformed TransferInitiated log in tx %s", receipt.TxHash.Hex())
		}
		return new(big.Int).SetBytes(lg.Data[:32]).Uint64(), nil
	}
	return 0, fmt.Errorf("no TransferInitiated log in tx %s", receipt.TxHash.Hex())
}

// FetchAttestation polls the attestation network until the signed attestation
// for (emitter, sequence) is available or the retry budget is exhausted.
func (g *HTTPGateway) FetchAttestation(ctx context.Context, emitter types.Chain, sequence uint64, opts *AttestationOptions) ([]byte, error) {
	o := opts.withDefaults()
	wire, err := emitter.WireID()
	if err != nil {
		return nil, err
	}

	var out struct {
		Attestation string `json:"attestation"`
	}
	for attempt := 0; attempt < o.MaxRetries; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, o.Timeout)
		resp, err := g.http.R().
			SetContext(attemptCtx).
			SetResult(&out).
			Get(fmt.Sprintf("/v1/attestations/%d/%d", wire, sequence))
		cancel()

		switch {
		case err != nil:
			return nil, fmt.Errorf("fetch attestation: %w", err)
		case resp.StatusCode() == http.StatusNotFound:
			// Not produced yet; keep polling.
		case resp.IsError():
			return nil, fmt.Errorf("fetch attestation: HTTP %d: %s", resp.StatusCode(), resp.String())
		default:
			raw, err := base64.StdEncoding.DecodeString(out.Attestation)
			if err != nil {
				return nil, fmt.Errorf("decode attestation: %w", err)
			}
			return raw, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(o.PollInterval):
		}
	}
	return nil, errors.Wrapf(ErrAttestationTimeout, "emitter=%s seq=%d", emitter, sequence)
}

// IsSequenceEnqueued reports whether the attestation network has observed the
// sequence.
func (g *HTTPGateway) IsSequenceEnqueued(ctx context.Context, emitter types.Chain, sequence uint64) (bool, error) {
	wire, err := emitter.WireID()
	if err != nil {
		return false, err
	}
	var out struct {
		Enqueued bool `json:"enqueued"`
	}
	resp, err := g.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get(fmt.Sprintf("/v1/attestations/%d/%d/status", wire, sequence))
	if err != nil {
		return false, fmt.Errorf("fetch sequence status: %w", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return false, nil
	}
	if resp.IsError() {
		return false, fmt.Errorf("fetch sequence status: HTTP %d: %s", resp.StatusCode(), resp.String())
	}
	return out.Enqueued, nil
}

// IsNativeTransferComplete reports whether the attestation has been redeemed
// on the native ledger.
func (g *HTTPGateway) IsNativeTransferComplete(ctx context.Context, attestation []byte) (bool, error) {
	hash := crypto.Keccak256Hash(attestation)
	var out struct {
		Completed bool `json:"completed"`
	}
	resp, err := g.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetPathParam("hash", hash.Hex()).
		Get("/v1/redemptions/native/{hash}")
	if err != nil {
		return false, fmt.Errorf("fetch native redemption status: %w", err)
	}
	if resp.IsError() {
		return false, fmt.Errorf("fetch native redemption status: HTTP %d: %s", resp.StatusCode(), resp.String())
	}
	return out.Completed, nil
}

// IsForeignTransferComplete checks the bridge contract on the destination
// chain for redemption of the attestation.
func (g *HTTPGateway) IsForeignTransferComplete(ctx context.Context, attestation []byte, chain types.Chain) (bool, error) {
	ec, err := g.client(chain)
	if err != nil {
		return false, err
	}
	contract, err := g.dict.BridgeContract(chain)
	if err != nil {
		return false, err
	}

	hash := crypto.Keccak256Hash(attestation)
	data, err := g.bridgeABI.Pack("isTransferCompleted", [32]byte(hash))
	if err != nil {
		return false, fmt.Errorf("pack isTransferCompleted: %w", err)
	}
	to := common.HexToAddress(contract)
	result, err := ec.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return false, fmt.Errorf("call isTransferCompleted: %w", err)
	}
	var completed bool
	if err := g.bridgeABI.UnpackIntoInterface(&completed, "isTransferCompleted", result); err != nil {
		return false, fmt.Errorf("unpack isTransferCompleted: %w", err)
	}
	return completed, nil
}

// SubmitForeignRedeem submits completeTransfer on the signer's chain and
// waits for the receipt. Status checking is the caller's responsibility.
func (g *HTTPGateway) SubmitForeignRedeem(ctx context.Context, destAsset common.Address, attestation []byte, signer *signing.EVMSigner, overrides TxOverrides) (*ethtypes.Receipt, error) {
	chain := signer.Chain()
	ec, err := g.client(chain)
	if err != nil {
		return nil, err
	}
	contract, err := g.dict.BridgeContract(chain)
	if err != nil {
		return nil, err
	}

	data, err := g.bridgeABI.Pack("completeTransfer", attestation)
	if err != nil {
		return nil, fmt.Errorf("pack completeTransfer: %w", err)
	}

	receipt, err := g.sendTx(ctx, ec, chain, signer, common.HexToAddress(contract), big.NewInt(0), data, overrides.GasLimit, overrides.GasPrice)
	if err != nil {
		return nil, err
	}
	g.log.WithFields(logrus.Fields{
		"chain":  chain,
		"tx":     receipt.TxHash.Hex(),
		"asset":  destAsset.Hex(),
		"status": receipt.Status,
	}).Info("redemption submitted")
	return receipt, nil
}

// sendTx builds, signs and submits a legacy transaction, then waits for the
// receipt. gasLimit 0 means estimate; gasPrice nil means suggested price.
func (g *HTTPGateway) sendTx(ctx context.Context, ec *ethclient.Client, chain types.Chain, signer *signing.EVMSigner, to common.Address, value *big.Int, data []byte, gasLimit uint64, gasPrice *big.Int) (*ethtypes.Receipt, error) {
	from := signer.CommonAddress()

	nonce, err := ec.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("fetch nonce: %w", err)
	}
	if gasPrice == nil {
		gasPrice, err = ec.SuggestGasPrice(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetch gas price: %w", err)
		}
	}
	if gasLimit == 0 {
		gasLimit, err = ec.EstimateGas(ctx, ethereum.CallMsg{
			From:  from,
			To:    &to,
			Data:  data,
			Value: value,
		})
		if err != nil {
			return nil, fmt.Errorf("estimate gas: %w", err)
		}
	}

	chainID, err := chain.EVMChainID()
	if err != nil {
		return nil, err
	}
	tx := ethtypes.NewTransaction(nonce, to, value, gasLimit, gasPrice, data)
	signed, err := signer.SignTx(tx, big.NewInt(chainID))
	if err != nil {
		return nil, err
	}
	if err := ec.SendTransaction(ctx, signed); err != nil {
		return nil, fmt.Errorf("send transaction: %w", err)
	}
	return g.waitReceipt(ctx, ec, signed.Hash())
}

// waitReceipt polls until the receipt appears or the context ends.
func (g *HTTPGateway) waitReceipt(ctx context.Context, ec *ethclient.Client, hash common.Hash) (*ethtypes.Receipt, error) {
	for {
		receipt, err := ec.TransactionReceipt(ctx, hash)
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			return nil, fmt.Errorf("fetch receipt: %w", err)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(g.receiptWait):
		}
	}
}

package bridge

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/vexlabs/govex/venue/signing"
	"github.com/vexlabs/govex/venue/types"
)

// AttestationOptions controls attestation polling. Zero values fall back to
// the defaults below; callers forward these straight from their own API.
type AttestationOptions struct {
	// Timeout bounds a single fetch attempt.
	Timeout time.Duration

	// MaxRetries bounds the number of poll attempts.
	MaxRetries int

	// PollInterval is the wait between attempts.
	PollInterval time.Duration
}

const (
	defaultAttestationTimeout = 10 * time.Second
	defaultAttestationRetries = 30
	defaultPollInterval       = 5 * time.Second
)

func (o *AttestationOptions) withDefaults() AttestationOptions {
	out := AttestationOptions{
		Timeout:      defaultAttestationTimeout,
		MaxRetries:   defaultAttestationRetries,
		PollInterval: defaultPollInterval,
	}
	if o == nil {
		return out
	}
	if o.Timeout > 0 {
		out.Timeout = o.Timeout
	}
	if o.MaxRetries > 0 {
		out.MaxRetries = o.MaxRetries
	}
	if o.PollInterval > 0 {
		out.PollInterval = o.PollInterval
	}
	return out
}

// TxOverrides carries explicit transaction parameters for redemption
// submission. The redemption path always pins the gas limit.
type TxOverrides struct {
	GasLimit uint64
	GasPrice *big.Int
}

// TransferParams describes a bridge deposit submission on an EVM chain.
type TransferParams struct {
	// Chain is the origin chain.
	Chain types.Chain

	// Token is the origin-chain token contract.
	Token common.Address

	// Amount in the token's minor units.
	Amount *big.Int

	// Recipient is the venue account identity the deposit credits.
	Recipient types.AccountID

	// FastPath selects the stablecoin-native burn/mint variant.
	FastPath bool

	// NativeValue, when non-nil, sends chain gas currency instead of an
	// ERC20 movement (wrapped-native instruments).
	NativeValue *big.Int
}

// Gateway is the bridge collaborator contract. The HTTP implementation talks
// to the attestation network and per-chain RPC nodes; tests substitute fakes.
type Gateway interface {
	// Dictionary returns the asset dictionary.
	Dictionary() *Dictionary

	// ResolveMirrorAsset asks the bridge contract on the target chain which
	// token mirrors the given native asset.
	ResolveMirrorAsset(ctx context.Context, assetID uint64, target types.Chain) (common.Address, error)

	// EnsureAllowance grants the bridge contract spending allowance for the
	// token when the existing allowance is insufficient. It reports whether
	// an approval transaction was submitted.
	EnsureAllowance(ctx context.Context, chain types.Chain, token common.Address, amount *big.Int, signer *signing.EVMSigner) (bool, error)

	// SubmitTransfer submits the bridge deposit transaction and waits for
	// its receipt.
	SubmitTransfer(ctx context.Context, p TransferParams, signer *signing.EVMSigner) (*ethtypes.Receipt, error)

	// SequenceFromNativeTx derives the outbound sequence number from a
	// confirmed native-ledger transaction.
	SequenceFromNativeTx(ctx context.Context, txID string) (uint64, error)

	// SequenceFromForeignTx extracts the sequence number from a foreign
	// transaction receipt.
	SequenceFromForeignTx(ctx context.Context, chain types.Chain, receipt *ethtypes.Receipt) (uint64, error)

	// FetchAttestation polls the attestation network for the signed
	// attestation of (emitter, sequence).
	FetchAttestation(ctx context.Context, emitter types.Chain, sequence uint64, opts *AttestationOptions) ([]byte, error)

	// IsSequenceEnqueued reports whether the attestation network has seen
	// the sequence (usable before the attestation itself is available).
	IsSequenceEnqueued(ctx context.Context, emitter types.Chain, sequence uint64) (bool, error)

	// IsNativeTransferComplete reports whether an attestation has been
	// redeemed on the native ledger.
	IsNativeTransferComplete(ctx context.Context, attestation []byte) (bool, error)

	// IsForeignTransferComplete reports whether an attestation has been
	// redeemed on the given foreign chain.
	IsForeignTransferComplete(ctx context.Context, attestation []byte, chain types.Chain) (bool, error)

	// SubmitForeignRedeem submits the redemption transaction for an
	// attestation on the signer's chain and waits for its receipt.
	SubmitForeignRedeem(ctx context.Context, destAsset common.Address, attestation []byte, signer *signing.EVMSigner, overrides TxOverrides) (*ethtypes.Receipt, error)
}

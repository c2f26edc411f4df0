package client

import (
	"context"
	"encoding/base64"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"

	"github.com/vexlabs/govex/venue/bridge"
	"github.com/vexlabs/govex/venue/ledger"
	"github.com/vexlabs/govex/venue/signing"
	"github.com/vexlabs/govex/venue/types"
)

// redeemGasLimit 赎回交易固定的 gas 上限（不走估算，证明校验的开销稳定）
const redeemGasLimit = 450_000

// NativeResult 原生链操作的结果
// Completed 把确认超时转换为 false 而不是错误——"尚未确认"是预期的
// 瞬态，不是故障；传输错误照常传播。
type NativeResult struct {
	TxID string

	ledger *ledger.Client
	rounds uint64
}

// Completed 轮询确认状态
func (r *NativeResult) Completed(ctx context.Context) (bool, error) {
	err := r.ledger.WaitForConfirmation(ctx, r.TxID, r.rounds)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ledger.ErrConfirmationTimeout) {
		return false, nil
	}
	return false, err
}

// RedeemOutcome 赎回结果
// 快速路径的转账不需要赎回，NotRequired 显式告诉调用方这一点，
// 避免调用方把"不需要"误判为"没做"。
type RedeemOutcome struct {
	// NotRequired 快速路径：赎回由桥/场馆带外完成
	NotRequired bool

	// Receipt 外链赎回交易的回执（提现方向）
	Receipt *ethtypes.Receipt

	// VenueTxID 场馆侧证明提交的 ID（入金方向）
	VenueTxID string
}

// BridgeTransfer 跨链转账句柄
//
// 调用作用域的状态机：sequence 和 attestation 各自最多获取一次并
// 记忆化，redeemed 只允许 false→true 一次。句柄不持久化——进程
// 退出后必须用桥/场馆自己的持久记录（sequence）恢复，而不是句柄。
type BridgeTransfer struct {
	mu          sync.Mutex
	seq         *uint64
	attestation []byte
	redeemed    bool

	c        *Client
	fastPath bool

	// emitter 转账发起的链；destChain 资产到达的链
	emitter   types.Chain
	destChain types.Chain

	instrument types.Instrument

	// 序列号来源二选一：已确认的原生交易，或外链回执
	nativeTxID     string
	foreignReceipt *ethtypes.Receipt
}

// FastPath 是否走稳定币快速路径
func (t *BridgeTransfer) FastPath() bool {
	return t.fastPath
}

// Sequence 解析出站序列号（记忆化，底层解析只发生一次）
func (t *BridgeTransfer) Sequence(ctx context.Context) (uint64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sequenceLocked(ctx)
}

func (t *BridgeTransfer) sequenceLocked(ctx context.Context) (uint64, error) {
	if t.seq != nil {
		return *t.seq, nil
	}

	var seq uint64
	var err error
	if t.nativeTxID != "" {
		// 序列号要等原生交易确认后才存在，这里超时是错误而非 false
		if err = t.c.ledger.WaitForConfirmation(ctx, t.nativeTxID, t.c.confirmRounds); err != nil {
			return 0, err
		}
		seq, err = t.c.gateway.SequenceFromNativeTx(ctx, t.nativeTxID)
	} else {
		seq, err = t.c.gateway.SequenceFromForeignTx(ctx, t.emitter, t.foreignReceipt)
	}
	if err != nil {
		return 0, err
	}
	t.seq = &seq
	return seq, nil
}

// WaitForAttestation 轮询桥网络获取签名证明（记忆化）
// 快速路径不需要证明，直接返回空结果。
func (t *BridgeTransfer) WaitForAttestation(ctx context.Context, opts *bridge.AttestationOptions) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.attestationLocked(ctx, opts)
}

func (t *BridgeTransfer) attestationLocked(ctx context.Context, opts *bridge.AttestationOptions) ([]byte, error) {
	if t.fastPath {
		return nil, nil
	}
	if t.attestation != nil {
		return t.attestation, nil
	}

	seq, err := t.sequenceLocked(ctx)
	if err != nil {
		return nil, err
	}
	att, err := t.c.gateway.FetchAttestation(ctx, t.emitter, seq, opts)
	if err != nil {
		return nil, err
	}
	t.attestation = att
	return att, nil
}

// Enqueued 桥网络是否已观察到该序列号（证明可用之前就能查询）
func (t *BridgeTransfer) Enqueued(ctx context.Context) (bool, error) {
	seq, err := t.Sequence(ctx)
	if err != nil {
		return false, err
	}
	return t.c.gateway.IsSequenceEnqueued(ctx, t.emitter, seq)
}

// Completed 目标链上的转账是否已完成
//
// 快速路径没有证明可查：赎回由桥带外完成，调用方通过 Redeem /
// RedeemAndSubmit 确认后句柄进入终态，在那之前返回 false 而不是错误。
// 一般路径在证明可用之前调用且尚未赎回时返回 ErrAttestationUnavailable。
func (t *BridgeTransfer) Completed(ctx context.Context) (bool, error) {
	t.mu.Lock()
	att := t.attestation
	redeemed := t.redeemed
	t.mu.Unlock()

	if redeemed {
		return true, nil
	}
	if t.fastPath {
		return false, nil
	}
	if att == nil {
		return false, ErrAttestationUnavailable
	}
	if t.destChain == types.ChainNative {
		return t.c.gateway.IsNativeTransferComplete(ctx, att)
	}
	return t.c.gateway.IsForeignTransferComplete(ctx, att, t.destChain)
}

// Redeem 在目标外链上赎回（提现方向）
//
// 幂等守卫：第二次调用在第一次成功之后必须失败，绝不重复提交。
// 赎回交易用固定 gas 上限，不做估算。
func (t *BridgeTransfer) Redeem(ctx context.Context, signer *signing.EVMSigner, opts *bridge.AttestationOptions) (*RedeemOutcome, error) {
	if t.fastPath {
		// 不提交任何交易，重复调用也是空操作；确认后句柄进入终态
		t.mu.Lock()
		t.redeemed = true
		t.mu.Unlock()
		return &RedeemOutcome{NotRequired: true}, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.redeemed {
		return nil, ErrAlreadyRedeemed
	}
	if signer == nil || signer.Chain() != t.destChain {
		return nil, errors.Wrapf(ErrWrongSignerChain, "需要 %s 链的签名能力", t.destChain)
	}

	att, err := t.attestationLocked(ctx, opts)
	if err != nil {
		return nil, err
	}

	destAsset, err := t.destAssetLocked(ctx)
	if err != nil {
		return nil, err
	}
	receipt, err := t.c.gateway.SubmitForeignRedeem(ctx, destAsset, att, signer, bridge.TxOverrides{
		GasLimit: redeemGasLimit,
	})
	if err != nil {
		return nil, err
	}
	if receipt.Status != ethtypes.ReceiptStatusSuccessful {
		return nil, errors.Wrapf(ErrRedeemFailed, "tx %s", receipt.TxHash.Hex())
	}

	t.redeemed = true
	return &RedeemOutcome{Receipt: receipt}, nil
}

// destAssetLocked 解析资产在目标链上的代币地址
// 目录映射存在时与桥解析的镜像资产交叉核对，不一致视为数据完整性
// 故障；映射缺失时直接使用桥的解析结果。
func (t *BridgeTransfer) destAssetLocked(ctx context.Context) (common.Address, error) {
	mirror, err := t.c.gateway.ResolveMirrorAsset(ctx, t.instrument.AssetID, t.destChain)
	if err != nil {
		return common.Address{}, err
	}
	if ct, ok := t.instrument.TokenOn(t.destChain); ok {
		if !strings.EqualFold(mirror.Hex(), ct.Address) {
			return common.Address{}, errors.Wrapf(ErrAssetMappingMismatch,
				"目录 %s vs 桥 %s", ct.Address, mirror.Hex())
		}
		return common.HexToAddress(ct.Address), nil
	}
	return mirror, nil
}

// redeemRequest 入金证明提交体
type redeemRequest struct {
	InstrumentID string `json:"instrument_id"`
	Attestation  string `json:"attestation"`
	Account      string `json:"account"`
}

// redeemResponse 入金证明提交结果
type redeemResponse struct {
	TxID string `json:"tx_id"`
}

// RedeemAndSubmit 等待证明并把它作为入金凭证提交给场馆（入金方向）
// 与 Redeem 共享同一个幂等守卫。
func (t *BridgeTransfer) RedeemAndSubmit(ctx context.Context, opts *bridge.AttestationOptions) (*RedeemOutcome, error) {
	if t.fastPath {
		t.mu.Lock()
		t.redeemed = true
		t.mu.Unlock()
		return &RedeemOutcome{NotRequired: true}, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.redeemed {
		return nil, ErrAlreadyRedeemed
	}

	att, err := t.attestationLocked(ctx, opts)
	if err != nil {
		return nil, err
	}

	var out redeemResponse
	req := redeemRequest{
		InstrumentID: t.instrument.ID,
		Attestation:  base64.StdEncoding.EncodeToString(att),
		Account:      t.c.accountID.String(),
	}
	if err := t.c.post(ctx, limitTransfers, "/v1/deposits/redeem", req, &out); err != nil {
		return nil, err
	}

	t.redeemed = true
	return &RedeemOutcome{VenueTxID: out.TxID}, nil
}

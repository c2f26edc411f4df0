package client

import (
	"context"
	"encoding/binary"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/vexlabs/govex/venue/bridge"
	"github.com/vexlabs/govex/venue/ledger"
	"github.com/vexlabs/govex/venue/signing"
	"github.com/vexlabs/govex/venue/types"
)

// depositAppArg 入金合约调用的方法参数
var depositAppArg = []byte("deposit")

// NativeDepositParams 原生链入金参数
type NativeDepositParams struct {
	// Funder 出资方的原生签名能力
	Funder *signing.NativeSigner

	// Amount 入金数量
	Amount types.InstrumentAmount

	// RepayAmount 随入金偿还的借款数量，可为零
	RepayAmount types.InstrumentAmount
}

// DepositNative 原生链入金
//
// 构造一个原子交易组：出资转账 + 逻辑合约调用。只有出资腿需要
// 外部签名；合约调用腿由场馆发布的逻辑程序背书。
func (c *Client) DepositNative(ctx context.Context, p NativeDepositParams) (*NativeResult, error) {
	if !p.Amount.IsPositive() {
		return nil, errors.Wrap(ErrNonPositiveAmount, "入金数量")
	}
	if p.Funder == nil {
		return nil, errors.New("出资方签名能力不能为空")
	}

	slot, err := c.slotFor(ctx, p.Amount.Instrument.ID)
	if err != nil {
		return nil, err
	}
	minor, err := p.Amount.Minor()
	if err != nil {
		return nil, err
	}
	repayMinor, err := p.RepayAmount.Minor()
	if err != nil {
		return nil, err
	}

	sp, err := c.ledger.SuggestedParams(ctx)
	if err != nil {
		return nil, err
	}

	funderID, err := signing.AccountIDFor(p.Funder)
	if err != nil {
		return nil, err
	}

	funding := &ledger.Transaction{
		Type:       ledger.TxTypeTransfer,
		Sender:     funderID,
		Receiver:   c.serverAccount,
		AssetID:    p.Amount.Instrument.AssetID,
		Amount:     minor,
		Fee:        sp.MinFee,
		FirstValid: sp.CurrentHeight,
		LastValid:  sp.CurrentHeight + sp.ValidityWindow,
	}

	repayArg := make([]byte, 8)
	binary.BigEndian.PutUint64(repayArg, repayMinor)
	appCall := &ledger.Transaction{
		Type:       ledger.TxTypeAppCall,
		Sender:     c.accountID,
		AppID:      c.appID,
		AppArgs:    [][]byte{depositAppArg, {byte(slot)}, repayArg},
		Fee:        sp.MinFee,
		FirstValid: sp.CurrentHeight,
		LastValid:  sp.CurrentHeight + sp.ValidityWindow,
	}

	if err := ledger.Group(funding, appCall); err != nil {
		return nil, err
	}

	sig, err := p.Funder.Sign(funding.Encode())
	if err != nil {
		return nil, err
	}
	group := []ledger.SignedTransaction{
		funding.SignedBy(sig),
		appCall.SignedByLogic(c.logicProgram),
	}

	txID, err := c.ledger.SubmitGroup(ctx, group)
	if err != nil {
		return nil, err
	}
	c.log.WithFields(logrus.Fields{
		"instrument": p.Amount.Instrument.ID,
		"amount":     p.Amount.String(),
		"tx_id":      txID,
	}).Info("原生链入金已提交")

	return &NativeResult{TxID: txID, ledger: c.ledger, rounds: c.confirmRounds}, nil
}

// BridgeDepositParams 跨链入金参数
type BridgeDepositParams struct {
	// Funder 源链上的出资方签名能力
	Funder *signing.EVMSigner

	// Chain 源链
	Chain types.Chain

	// Amount 入金数量
	Amount types.InstrumentAmount
}

// DepositBridge 跨链入金
//
// 流程：解析资产在源链上的代币映射；快速路径资产跳过映射校验和
// 授权；一般路径先把目录映射与桥自己解析的镜像资产交叉核对（防止
// 服务端目录被篡改或过期），再按需授权；最后提交桥交易并返回
// 异步完成句柄。
func (c *Client) DepositBridge(ctx context.Context, p BridgeDepositParams) (*BridgeTransfer, error) {
	if !p.Amount.IsPositive() {
		return nil, errors.Wrap(ErrNonPositiveAmount, "入金数量")
	}
	if p.Funder == nil || p.Funder.Chain() != p.Chain {
		return nil, errors.Wrapf(ErrWrongSignerChain, "需要 %s 链的签名能力", p.Chain)
	}

	ins := p.Amount.Instrument
	dict := c.gateway.Dictionary()

	token, hasMapping := ins.TokenOn(p.Chain)
	fastPath := hasMapping && dict.IsFastPathAsset(p.Chain, token.Address)
	wrappedNative := dict.IsWrappedNativeCurrency(ins.ID)

	if !fastPath && !wrappedNative {
		if !hasMapping {
			return nil, errors.Wrapf(ErrNoTokenMapping, "%s 在 %s 上", ins.ID, p.Chain)
		}
		mirror, err := c.gateway.ResolveMirrorAsset(ctx, ins.AssetID, p.Chain)
		if err != nil {
			return nil, err
		}
		if !strings.EqualFold(mirror.Hex(), token.Address) {
			return nil, errors.Wrapf(ErrAssetMappingMismatch,
				"目录 %s vs 桥 %s", token.Address, mirror.Hex())
		}
	}

	decimals := ins.Decimals
	if hasMapping {
		decimals = token.Decimals
	}
	if wrappedNative {
		// 交易携带的是链上燃料货币，精度跟链走而不是账本资产
		nd, err := p.Chain.NativeDecimals()
		if err != nil {
			return nil, err
		}
		decimals = nd
	}
	minor, err := p.Amount.MinorBig(decimals)
	if err != nil {
		return nil, err
	}

	params := bridge.TransferParams{
		Chain:     p.Chain,
		Token:     common.HexToAddress(token.Address),
		Amount:    minor,
		Recipient: c.accountID,
		FastPath:  fastPath,
	}
	if wrappedNative {
		params.NativeValue = minor
	} else if !fastPath {
		approved, err := c.gateway.EnsureAllowance(ctx, p.Chain, params.Token, minor, p.Funder)
		if err != nil {
			return nil, err
		}
		if approved {
			c.log.WithField("token", token.Address).Debug("已补足桥合约授权")
		}
	}

	receipt, err := c.gateway.SubmitTransfer(ctx, params, p.Funder)
	if err != nil {
		return nil, err
	}
	c.log.WithFields(logrus.Fields{
		"instrument": ins.ID,
		"amount":     p.Amount.String(),
		"chain":      p.Chain,
		"fast_path":  fastPath,
		"tx":         receipt.TxHash.Hex(),
	}).Info("跨链入金已提交")

	return &BridgeTransfer{
		c:              c,
		fastPath:       fastPath,
		emitter:        p.Chain,
		destChain:      types.ChainNative,
		instrument:     ins,
		foreignReceipt: receipt,
	}, nil
}

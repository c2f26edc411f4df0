package client

import (
	"context"
	"encoding/base64"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/vexlabs/govex/venue/codec"
	"github.com/vexlabs/govex/venue/types"
)

// WithdrawParams 提现参数
type WithdrawParams struct {
	// Amount 提现数量
	Amount types.InstrumentAmount

	// Chain 目的链
	Chain types.Chain

	// Destination 目的地址
	// EVM 链为 0x 前缀十六进制地址，原生链为 base64 账户标识。
	Destination string

	// MaxFees 可接受的最大手续费
	MaxFees types.InstrumentAmount

	// MaxBorrow 允许借入的最大数量，可为零
	MaxBorrow types.InstrumentAmount
}

// WithdrawResult 提现结果
// 原生链目的地填 Native，跨链目的地填 Transfer，二者只有其一。
type WithdrawResult struct {
	// TxID 场馆返回的提现交易 ID
	TxID string

	Native   *NativeResult
	Transfer *BridgeTransfer
}

// withdrawRequest 提现提交体（数量一律十进制字符串，字节字段 base64）
type withdrawRequest struct {
	InstrumentID string `json:"instrument_id"`
	Amount       string `json:"amount"`
	Chain        string `json:"chain"`
	Destination  string `json:"destination"`
	MaxFees      string `json:"max_fees"`
	MaxBorrow    string `json:"max_borrow"`
	Signature    string `json:"signature"`
	Lease        string `json:"lease"`
	LastValid    uint64 `json:"last_valid"`
}

// withdrawResponse 提现提交结果
type withdrawResponse struct {
	TxID string `json:"tx_id"`
}

// Withdraw 提现
//
// 签名并提交提现操作。目的地是原生链时返回带确认检查的简单结果；
// 跨链目的地返回跨链转账句柄，由调用方驱动证明获取与赎回。
func (c *Client) Withdraw(ctx context.Context, p WithdrawParams) (*WithdrawResult, error) {
	if !p.Amount.IsPositive() {
		return nil, errors.Wrap(ErrNonPositiveAmount, "提现数量")
	}

	destBytes, err := decodeDestination(p.Chain, p.Destination)
	if err != nil {
		return nil, err
	}
	slot, err := c.slotFor(ctx, p.Amount.Instrument.ID)
	if err != nil {
		return nil, err
	}
	minor, err := p.Amount.Minor()
	if err != nil {
		return nil, err
	}
	feesMinor, err := p.MaxFees.Minor()
	if err != nil {
		return nil, err
	}
	borrowMinor, err := p.MaxBorrow.Minor()
	if err != nil {
		return nil, err
	}

	encoded, err := codec.EncodeWithdraw(codec.WithdrawOp{
		Slot:      slot,
		Amount:    minor,
		Dest:      codec.Destination{Chain: p.Chain, Address: destBytes},
		MaxBorrow: borrowMinor,
		MaxFees:   feesMinor,
	})
	if err != nil {
		return nil, err
	}
	ticket, err := c.coordinator.SignOperation(ctx, encoded, c.accountID, c.signer)
	if err != nil {
		return nil, err
	}

	var out withdrawResponse
	req := withdrawRequest{
		InstrumentID: p.Amount.Instrument.ID,
		Amount:       p.Amount.String(),
		Chain:        string(p.Chain),
		Destination:  p.Destination,
		MaxFees:      p.MaxFees.String(),
		MaxBorrow:    p.MaxBorrow.String(),
		Signature:    base64.StdEncoding.EncodeToString(ticket.Signature),
		Lease:        base64.StdEncoding.EncodeToString(ticket.Replay.Lease[:]),
		LastValid:    ticket.Replay.LastValid,
	}
	path := "/v1/accounts/" + c.accountID.String() + "/withdraw"
	if err := c.post(ctx, limitTransfers, path, req, &out); err != nil {
		return nil, err
	}
	c.log.WithFields(logrus.Fields{
		"instrument": p.Amount.Instrument.ID,
		"amount":     p.Amount.String(),
		"chain":      p.Chain,
		"tx_id":      out.TxID,
	}).Info("提现已提交")

	if p.Chain == types.ChainNative {
		return &WithdrawResult{
			TxID:   out.TxID,
			Native: &NativeResult{TxID: out.TxID, ledger: c.ledger, rounds: c.confirmRounds},
		}, nil
	}

	ins := p.Amount.Instrument
	fastPath := false
	if ct, ok := ins.TokenOn(p.Chain); ok {
		fastPath = c.gateway.Dictionary().IsFastPathAsset(p.Chain, ct.Address)
	}
	return &WithdrawResult{
		TxID: out.TxID,
		Transfer: &BridgeTransfer{
			c:          c,
			fastPath:   fastPath,
			emitter:    types.ChainNative,
			destChain:  p.Chain,
			instrument: ins,
			nativeTxID: out.TxID,
		},
	}, nil
}

// decodeDestination 解析目的地址字节
func decodeDestination(chain types.Chain, dest string) ([]byte, error) {
	if chain == types.ChainNative {
		id, err := types.AccountIDFromString(dest)
		if err != nil {
			return nil, err
		}
		return id[:], nil
	}
	if !common.IsHexAddress(dest) {
		return nil, errors.Errorf("非法的 %s 地址: %q", chain, dest)
	}
	return common.HexToAddress(dest).Bytes(), nil
}

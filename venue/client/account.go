package client

import (
	"context"
	"encoding/base64"
	"time"

	"github.com/pkg/errors"

	"github.com/vexlabs/govex/venue/codec"
	"github.com/vexlabs/govex/venue/types"
)

// poolMoveRequest 资金池转移提交体
type poolMoveRequest struct {
	InstrumentID string `json:"instrument_id"`
	Amount       string `json:"amount"`
	Direction    string `json:"direction"`
	Signature    string `json:"signature"`
	Lease        string `json:"lease"`
	LastValid    uint64 `json:"last_valid"`
}

// opResponse 通用操作提交结果
type opResponse struct {
	TxID string `json:"tx_id"`
}

// PoolMove 在现金余额和资金池之间转移
// toPool 为 true 入池，false 出池；数量必须严格为正。
func (c *Client) PoolMove(ctx context.Context, amount types.InstrumentAmount, toPool bool) (string, error) {
	if !amount.IsPositive() {
		return "", errors.Wrap(ErrNonPositiveAmount, "转移数量")
	}
	slot, err := c.slotFor(ctx, amount.Instrument.ID)
	if err != nil {
		return "", err
	}
	minor, err := amount.Minor()
	if err != nil {
		return "", err
	}

	signed := int64(minor)
	direction := "deposit"
	if !toPool {
		signed = -signed
		direction = "withdraw"
	}
	encoded := codec.EncodePoolMove(codec.PoolMoveOp{Slot: slot, Amount: signed})
	ticket, err := c.coordinator.SignOperation(ctx, encoded, c.accountID, c.signer)
	if err != nil {
		return "", err
	}

	var out opResponse
	req := poolMoveRequest{
		InstrumentID: amount.Instrument.ID,
		Amount:       amount.String(),
		Direction:    direction,
		Signature:    base64.StdEncoding.EncodeToString(ticket.Signature),
		Lease:        base64.StdEncoding.EncodeToString(ticket.Replay.Lease[:]),
		LastValid:    ticket.Replay.LastValid,
	}
	path := "/v1/accounts/" + c.accountID.String() + "/pool"
	if err := c.post(ctx, limitTransfers, path, req, &out); err != nil {
		return "", err
	}
	return out.TxID, nil
}

// delegateRequest 委托提交体
type delegateRequest struct {
	Delegate  string `json:"delegate"`
	CreatedOn uint64 `json:"created_on"`
	ExpiresOn uint64 `json:"expires_on"`
	Signature string `json:"signature"`
	Lease     string `json:"lease"`
	LastValid uint64 `json:"last_valid"`
}

// Delegate 授权另一个账户代表本账户操作，到期自动失效
func (c *Client) Delegate(ctx context.Context, delegate types.AccountID, expiresOn time.Time) (string, error) {
	now := time.Now()
	if expiresOn.Before(now) {
		return "", errors.Wrapf(ErrExpiryInPast, "%s", expiresOn)
	}

	encoded := codec.EncodeDelegate(codec.DelegateOp{
		Delegate:  delegate,
		CreatedOn: uint64(now.Unix()),
		ExpiresOn: uint64(expiresOn.Unix()),
	})
	ticket, err := c.coordinator.SignOperation(ctx, encoded, c.accountID, c.signer)
	if err != nil {
		return "", err
	}

	var out opResponse
	req := delegateRequest{
		Delegate:  delegate.String(),
		CreatedOn: uint64(now.Unix()),
		ExpiresOn: uint64(expiresOn.Unix()),
		Signature: base64.StdEncoding.EncodeToString(ticket.Signature),
		Lease:     base64.StdEncoding.EncodeToString(ticket.Replay.Lease[:]),
		LastValid: ticket.Replay.LastValid,
	}
	path := "/v1/accounts/" + c.accountID.String() + "/delegate"
	if err := c.post(ctx, limitTransfers, path, req, &out); err != nil {
		return "", err
	}
	return out.TxID, nil
}

// BasketAmount 清算篮子里的一项
type BasketAmount struct {
	Amount types.InstrumentAmount
}

// liquidateRequest 清算提交体
type liquidateRequest struct {
	Target    string            `json:"target"`
	Cash      map[string]string `json:"cash,omitempty"`
	Pool      map[string]string `json:"pool,omitempty"`
	Signature string            `json:"signature"`
	Lease     string            `json:"lease"`
	LastValid uint64            `json:"last_valid"`
}

// Liquidate 清算目标账户
// cash 和 pool 分别是从目标账户现金余额和资金池接管的资产篮子。
func (c *Client) Liquidate(ctx context.Context, target types.AccountID, cash, pool []BasketAmount) (string, error) {
	if len(cash) == 0 && len(pool) == 0 {
		return "", errors.New("清算篮子不能为空")
	}

	toEntries := func(basket []BasketAmount) ([]codec.BasketEntry, map[string]string, error) {
		entries := make([]codec.BasketEntry, 0, len(basket))
		body := make(map[string]string, len(basket))
		for _, b := range basket {
			if !b.Amount.IsPositive() {
				return nil, nil, errors.Wrap(ErrNonPositiveAmount, "清算篮子数量")
			}
			slot, err := c.slotFor(ctx, b.Amount.Instrument.ID)
			if err != nil {
				return nil, nil, err
			}
			minor, err := b.Amount.Minor()
			if err != nil {
				return nil, nil, err
			}
			entries = append(entries, codec.BasketEntry{Slot: slot, Amount: minor})
			body[b.Amount.Instrument.ID] = b.Amount.String()
		}
		return entries, body, nil
	}

	cashEntries, cashBody, err := toEntries(cash)
	if err != nil {
		return "", err
	}
	poolEntries, poolBody, err := toEntries(pool)
	if err != nil {
		return "", err
	}

	encoded, err := codec.EncodeLiquidate(codec.LiquidateOp{
		Target: target,
		Cash:   cashEntries,
		Pool:   poolEntries,
	})
	if err != nil {
		return "", err
	}
	ticket, err := c.coordinator.SignOperation(ctx, encoded, c.accountID, c.signer)
	if err != nil {
		return "", err
	}

	var out opResponse
	req := liquidateRequest{
		Target:    target.String(),
		Cash:      cashBody,
		Pool:      poolBody,
		Signature: base64.StdEncoding.EncodeToString(ticket.Signature),
		Lease:     base64.StdEncoding.EncodeToString(ticket.Replay.Lease[:]),
		LastValid: ticket.Replay.LastValid,
	}
	path := "/v1/accounts/" + c.accountID.String() + "/liquidate"
	if err := c.post(ctx, limitTransfers, path, req, &out); err != nil {
		return "", err
	}
	return out.TxID, nil
}

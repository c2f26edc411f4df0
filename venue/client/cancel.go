package client

import (
	"context"
	"encoding/base64"
	"time"

	"github.com/pkg/errors"

	"github.com/vexlabs/govex/venue/codec"
)

// cancelRequest 撤单提交体
type cancelRequest struct {
	OrderIDs       []string `json:"order_ids,omitempty"`
	AllOrdersUntil uint64   `json:"all_orders_until,omitempty"`
	Market         string   `json:"market,omitempty"`
	Signature      string   `json:"signature"`
	Lease          string   `json:"lease"`
	LastValid      uint64   `json:"last_valid"`
}

// CancelAck 撤单结果
type CancelAck struct {
	// Cancelled 实际撤销的订单 ID
	Cancelled []string `json:"cancelled"`
}

// submitCancel 签名并提交撤单请求
// 三种撤单入口只差谓词，签名和提交路径完全一致。
func (c *Client) submitCancel(ctx context.Context, op codec.CancelOp) (*CancelAck, error) {
	encoded, err := codec.EncodeCancel(op)
	if err != nil {
		return nil, err
	}
	ticket, err := c.coordinator.SignOperation(ctx, encoded, c.accountID, c.signer)
	if err != nil {
		return nil, err
	}

	req := cancelRequest{
		OrderIDs:       op.OrderIDs,
		AllOrdersUntil: op.AllOrdersUntil,
		Market:         op.Market,
		Signature:      base64.StdEncoding.EncodeToString(ticket.Signature),
		Lease:          base64.StdEncoding.EncodeToString(ticket.Replay.Lease[:]),
		LastValid:      ticket.Replay.LastValid,
	}
	var out CancelAck
	if err := c.post(ctx, limitOrders, "/v1/orders/cancel", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CancelOrders 按订单 ID 撤单
func (c *Client) CancelOrders(ctx context.Context, orderIDs ...string) (*CancelAck, error) {
	if len(orderIDs) == 0 {
		return nil, errors.New("撤单请求至少需要一个订单 ID")
	}
	return c.submitCancel(ctx, codec.CancelOp{OrderIDs: orderIDs})
}

// CancelAllOrders 撤销当前时刻之前的全部订单
func (c *Client) CancelAllOrders(ctx context.Context) (*CancelAck, error) {
	return c.submitCancel(ctx, codec.CancelOp{
		AllOrdersUntil: uint64(time.Now().UnixMilli()),
	})
}

// CancelAllOrdersByMarket 撤销某市场当前时刻之前的全部订单
func (c *Client) CancelAllOrdersByMarket(ctx context.Context, market string) (*CancelAck, error) {
	if market == "" {
		return nil, errors.New("市场 ID 不能为空")
	}
	return c.submitCancel(ctx, codec.CancelOp{
		AllOrdersUntil: uint64(time.Now().UnixMilli()),
		Market:         market,
	})
}

package client

import (
	"context"
	"encoding/base64"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/vexlabs/govex/venue/codec"
	"github.com/vexlabs/govex/venue/types"
)

// nextNonce 签发下一个订单 nonce
// 以 Unix 毫秒起步；同一毫秒内连续调用强制 +1，保证严格递增。
func (c *Client) nextNonce() uint64 {
	for {
		prev := c.prevNonce.Load()
		next := time.Now().UnixMilli()
		if next <= prev {
			next = prev + 1
		}
		if c.prevNonce.CompareAndSwap(prev, next) {
			return uint64(next)
		}
	}
}

// settlementLegs 结算票据的买卖两腿
type settlementLegs struct {
	sellInstrument types.Instrument
	sellAmount     types.InstrumentAmount
	buyInstrument  types.Instrument
	buyAmount      types.InstrumentAmount
}

// deriveLegs 从订单参数推导结算两腿
//
// 卖单：卖出基础资产，买入 数量×价格 的计价资产。
// 买单：卖出 数量×价格 的计价资产，买入基础资产。
// 市价单没有价格，对侧数量取对应资产的零值，由撮合决定实际成交。
func deriveLegs(base, quote types.Instrument, p types.OrderParams) (settlementLegs, error) {
	var legs settlementLegs

	quoteEquiv := types.ZeroAmount(quote)
	if p.Type == types.OrderTypeLimit {
		if p.Price == nil || !p.Price.IsPositive() {
			return legs, ErrMissingPrice
		}
		quoteEquiv = types.NewAmountFromDecimal(quote, p.Amount.Decimal().Mul(*p.Price))
	}

	switch p.Side {
	case types.SideSell:
		legs = settlementLegs{
			sellInstrument: base,
			sellAmount:     p.Amount,
			buyInstrument:  quote,
			buyAmount:      quoteEquiv,
		}
	case types.SideBuy:
		legs = settlementLegs{
			sellInstrument: quote,
			sellAmount:     quoteEquiv,
			buyInstrument:  base,
			buyAmount:      p.Amount,
		}
	default:
		return legs, errors.Errorf("非法的订单方向: %q", p.Side)
	}
	return legs, nil
}

// validateOrder 下单前的同步校验，失败不发起任何网络调用
func validateOrder(p types.OrderParams, legs settlementLegs, now time.Time) error {
	if !p.Amount.IsPositive() {
		return errors.Wrap(ErrNonPositiveAmount, "订单数量")
	}
	if p.ExpiresOn != nil && p.ExpiresOn.Before(now) {
		return errors.Wrapf(ErrExpiryInPast, "%s", p.ExpiresOn)
	}
	// 借入绑定卖出腿资产，偿还绑定买入腿资产
	if p.MaxBorrow != nil {
		if !p.MaxBorrow.IsPositive() {
			return errors.Wrap(ErrNonPositiveAmount, "最大借入")
		}
		if p.MaxBorrow.Instrument.ID != legs.sellInstrument.ID {
			return errors.Errorf("最大借入必须以卖出腿资产 %s 计，而不是 %s",
				legs.sellInstrument.ID, p.MaxBorrow.Instrument.ID)
		}
	}
	if p.MaxRepay != nil {
		if !p.MaxRepay.IsPositive() {
			return errors.Wrap(ErrNonPositiveAmount, "最大偿还")
		}
		if p.MaxRepay.Instrument.ID != legs.buyInstrument.ID {
			return errors.Errorf("最大偿还必须以买入腿资产 %s 计，而不是 %s",
				legs.buyInstrument.ID, p.MaxRepay.Instrument.ID)
		}
	}
	return nil
}

// orderRequest 下单提交体
type orderRequest struct {
	Market        string `json:"market"`
	Side          string `json:"side"`
	Type          string `json:"type"`
	Size          string `json:"size"`
	Price         string `json:"price,omitempty"`
	Nonce         uint64 `json:"nonce"`
	ExpiresOn     uint64 `json:"expires_on,omitempty"`
	ClientOrderID string `json:"client_order_id"`
	MaxBorrow     string `json:"max_borrow,omitempty"`
	MaxRepay      string `json:"max_repay,omitempty"`
	Signature     string `json:"signature"`
	Lease         string `json:"lease"`
	LastValid     uint64 `json:"last_valid"`
}

// CreateOrder 下单
//
// 推导结算两腿、校验、签发 nonce、解析槽位、签名结算票据并提交。
// 数量和价格以十进制字符串传输，签名相关字节 base64 编码。
func (c *Client) CreateOrder(ctx context.Context, p types.OrderParams) (*types.PlacedOrder, error) {
	market, err := c.Market(ctx, p.Market)
	if err != nil {
		return nil, err
	}
	base, err := c.Instrument(ctx, market.BaseInstrument)
	if err != nil {
		return nil, err
	}
	quote, err := c.Instrument(ctx, market.QuoteInstrument)
	if err != nil {
		return nil, err
	}
	if p.Amount.Instrument.ID != base.ID {
		return nil, errors.Errorf("订单数量必须以基础资产 %s 计，而不是 %s",
			base.ID, p.Amount.Instrument.ID)
	}

	legs, err := deriveLegs(base, quote, p)
	if err != nil {
		return nil, err
	}
	if err := validateOrder(p, legs, time.Now()); err != nil {
		return nil, err
	}

	sellSlot, err := c.slotFor(ctx, legs.sellInstrument.ID)
	if err != nil {
		return nil, err
	}
	buySlot, err := c.slotFor(ctx, legs.buyInstrument.ID)
	if err != nil {
		return nil, err
	}

	sellMinor, err := legs.sellAmount.Minor()
	if err != nil {
		return nil, err
	}
	buyMinor, err := legs.buyAmount.Minor()
	if err != nil {
		return nil, err
	}
	var borrowMinor, repayMinor uint64
	if p.MaxBorrow != nil {
		if borrowMinor, err = p.MaxBorrow.Minor(); err != nil {
			return nil, err
		}
	}
	if p.MaxRepay != nil {
		if repayMinor, err = p.MaxRepay.Minor(); err != nil {
			return nil, err
		}
	}

	nonce := c.nextNonce()
	var expiresOn uint64
	if p.ExpiresOn != nil {
		expiresOn = uint64(p.ExpiresOn.Unix())
	}

	encoded := codec.EncodeSettlement(codec.SettlementOp{
		Nonce:      nonce,
		ExpiresOn:  expiresOn,
		SellSlot:   sellSlot,
		SellAmount: sellMinor,
		MaxBorrow:  borrowMinor,
		BuySlot:    buySlot,
		BuyAmount:  buyMinor,
		MaxRepay:   repayMinor,
	})
	ticket, err := c.coordinator.SignOperation(ctx, encoded, c.accountID, c.signer)
	if err != nil {
		return nil, err
	}

	clientOrderID := p.ClientOrderID
	if clientOrderID == "" {
		clientOrderID = uuid.NewString()
	}
	req := orderRequest{
		Market:        p.Market,
		Side:          string(p.Side),
		Type:          string(p.Type),
		Size:          p.Amount.String(),
		Nonce:         nonce,
		ExpiresOn:     expiresOn,
		ClientOrderID: clientOrderID,
		Signature:     base64.StdEncoding.EncodeToString(ticket.Signature),
		Lease:         base64.StdEncoding.EncodeToString(ticket.Replay.Lease[:]),
		LastValid:     ticket.Replay.LastValid,
	}
	if p.Type == types.OrderTypeLimit {
		req.Price = p.Price.String()
	}
	if p.MaxBorrow != nil {
		req.MaxBorrow = p.MaxBorrow.String()
	}
	if p.MaxRepay != nil {
		req.MaxRepay = p.MaxRepay.String()
	}

	var out types.PlacedOrder
	if err := c.post(ctx, limitOrders, "/v1/orders", req, &out); err != nil {
		return nil, err
	}
	out.Nonce = nonce
	if out.ClientOrderID == "" {
		out.ClientOrderID = clientOrderID
	}
	c.log.WithFields(logrus.Fields{
		"market": p.Market,
		"side":   p.Side,
		"size":   p.Amount.String(),
		"order":  out.OrderID,
	}).Info("订单已提交")
	return &out, nil
}

// CreateOrders 批量下单
// 每个元素的市场 ID 必须与给定市场一致，否则整批失败，不部分提交。
func (c *Client) CreateOrders(ctx context.Context, market string, orders []types.OrderParams) ([]*types.PlacedOrder, error) {
	for i, p := range orders {
		if p.Market != market {
			return nil, errors.Wrapf(ErrMarketMismatch, "第 %d 个订单: %q vs %q", i, p.Market, market)
		}
	}

	placed := make([]*types.PlacedOrder, 0, len(orders))
	for _, p := range orders {
		o, err := c.CreateOrder(ctx, p)
		if err != nil {
			return placed, err
		}
		placed = append(placed, o)
	}
	return placed, nil
}

// OpenOrders 查询账户在某市场的开放订单，market 为空时查询全部
func (c *Client) OpenOrders(ctx context.Context, market string) ([]types.OpenOrder, error) {
	path := "/v1/accounts/" + c.accountID.String() + "/orders"
	if market != "" {
		path += "?market=" + market
	}
	var out []types.OpenOrder
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side 订单方向
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// OrderType 订单类型
type OrderType string

const (
	OrderTypeLimit  OrderType = "limit"
	OrderTypeMarket OrderType = "market"
)

// OrderParams 下单参数
type OrderParams struct {
	// Market 市场 ID，批量下单时每个元素必须一致
	Market string

	// Side 方向
	Side Side

	// Type limit 或 market
	Type OrderType

	// Amount 基础资产数量
	Amount InstrumentAmount

	// Price 限价（limit 订单必填，market 订单忽略）
	Price *decimal.Decimal

	// MaxBorrow 最大借入数量，可选
	// buy 订单借入计价资产，sell 订单借入基础资产。
	MaxBorrow *InstrumentAmount

	// MaxRepay 最大偿还数量，可选
	MaxRepay *InstrumentAmount

	// ExpiresOn 过期时间，可选；不得早于创建时刻
	ExpiresOn *time.Time

	// ClientOrderID 调用方自定义订单 ID，可选
	ClientOrderID string
}

// PlacedOrder 下单结果
type PlacedOrder struct {
	// OrderID 服务端分配的订单 ID
	OrderID string `json:"id"`

	// ClientOrderID 调用方自定义 ID（原样返回）
	ClientOrderID string `json:"client_order_id,omitempty"`

	// Nonce 本次订单使用的账户 nonce
	Nonce uint64 `json:"nonce"`

	// Size 客户端可见的数量（十进制字符串）
	Size string `json:"size"`

	// Price 客户端可见的价格（十进制字符串，市价单为空）
	Price string `json:"price,omitempty"`

	// Status 服务端状态
	Status string `json:"status,omitempty"`
}

// OpenOrder 开放订单（查询接口返回）
type OpenOrder struct {
	OrderID   string `json:"id"`
	Market    string `json:"market"`
	Side      Side   `json:"side"`
	Size      string `json:"size"`
	Remaining string `json:"remaining"`
	Price     string `json:"price,omitempty"`
	CreatedOn int64  `json:"created_on"`
}

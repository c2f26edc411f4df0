package types

import (
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// ChainToken 某条链上对应的代币信息
type ChainToken struct {
	Chain    Chain  `json:"chain"`
	Address  string `json:"address"`
	Decimals int    `json:"decimals"`
}

// Instrument 可交易资产描述（来自服务端目录，不可变）
type Instrument struct {
	// ID 资产标识（例如 "USDC"、"BTC"）
	ID string `json:"id"`

	// AssetID 原生账本上的资产编号
	AssetID uint64 `json:"asset_id"`

	// Decimals 小数精度
	Decimals int `json:"decimals"`

	// Chains 各链上的代币映射
	Chains []ChainToken `json:"chains,omitempty"`
}

// TokenOn 查找某条链上的代币映射
func (i Instrument) TokenOn(chain Chain) (ChainToken, bool) {
	for _, ct := range i.Chains {
		if ct.Chain == chain {
			return ct, true
		}
	}
	return ChainToken{}, false
}

// InstrumentAmount 绑定到单一资产的定点数量
// 不允许用非法的十进制字符串构造；算术运算保持资产绑定不变。
type InstrumentAmount struct {
	Instrument Instrument
	val        decimal.Decimal
}

// NewAmount 从十进制字符串构造数量
func NewAmount(instrument Instrument, value string) (InstrumentAmount, error) {
	s := strings.TrimSpace(value)
	if s == "" {
		return InstrumentAmount{}, fmt.Errorf("数量不能为空")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return InstrumentAmount{}, fmt.Errorf("非法的数量 %q: %w", value, err)
	}
	return InstrumentAmount{Instrument: instrument, val: d}, nil
}

// NewAmountFromDecimal 从 decimal 构造数量
func NewAmountFromDecimal(instrument Instrument, d decimal.Decimal) InstrumentAmount {
	return InstrumentAmount{Instrument: instrument, val: d}
}

// ZeroAmount 返回某资产的零数量
func ZeroAmount(instrument Instrument) InstrumentAmount {
	return InstrumentAmount{Instrument: instrument, val: decimal.Zero}
}

// AmountFromMinor 从最小单位整数构造数量
func AmountFromMinor(instrument Instrument, minor uint64) InstrumentAmount {
	d := decimal.NewFromBigInt(new(big.Int).SetUint64(minor), -int32(instrument.Decimals))
	return InstrumentAmount{Instrument: instrument, val: d}
}

// Decimal 返回十进制值
func (a InstrumentAmount) Decimal() decimal.Decimal {
	return a.val
}

// String 返回 REST 接口使用的十进制字符串
func (a InstrumentAmount) String() string {
	return a.val.String()
}

// IsPositive 是否严格大于零（所有资金操作的前置条件）
func (a InstrumentAmount) IsPositive() bool {
	return a.val.IsPositive()
}

// IsZero 是否为零
func (a InstrumentAmount) IsZero() bool {
	return a.val.IsZero()
}

// Add 同资产数量相加
func (a InstrumentAmount) Add(b InstrumentAmount) (InstrumentAmount, error) {
	if a.Instrument.ID != b.Instrument.ID {
		return InstrumentAmount{}, fmt.Errorf("资产不匹配: %s vs %s", a.Instrument.ID, b.Instrument.ID)
	}
	return InstrumentAmount{Instrument: a.Instrument, val: a.val.Add(b.val)}, nil
}

// Sub 同资产数量相减
func (a InstrumentAmount) Sub(b InstrumentAmount) (InstrumentAmount, error) {
	if a.Instrument.ID != b.Instrument.ID {
		return InstrumentAmount{}, fmt.Errorf("资产不匹配: %s vs %s", a.Instrument.ID, b.Instrument.ID)
	}
	return InstrumentAmount{Instrument: a.Instrument, val: a.val.Sub(b.val)}, nil
}

// Minor 转换为账本最小单位整数
// 如果数量按资产精度放大后不是整数、为负数或超出 uint64 范围，返回错误。
func (a InstrumentAmount) Minor() (uint64, error) {
	shifted := a.val.Shift(int32(a.Instrument.Decimals))
	if !shifted.IsInteger() {
		return 0, fmt.Errorf("数量 %s 无法表示为 %s 的最小单位（精度 %d）",
			a.val.String(), a.Instrument.ID, a.Instrument.Decimals)
	}
	if shifted.IsNegative() {
		return 0, fmt.Errorf("数量 %s 为负数，无法表示为最小单位", a.val.String())
	}
	bi := shifted.BigInt()
	if !bi.IsUint64() {
		return 0, fmt.Errorf("数量 %s 超出最小单位的表示范围", a.val.String())
	}
	return bi.Uint64(), nil
}

// MinorBig 转换为最小单位的大整数（EVM 侧使用目标链精度）
func (a InstrumentAmount) MinorBig(decimals int) (*big.Int, error) {
	if decimals < 0 || decimals > math.MaxInt32 {
		return nil, fmt.Errorf("非法的精度: %d", decimals)
	}
	shifted := a.val.Shift(int32(decimals))
	if !shifted.IsInteger() {
		return nil, fmt.Errorf("数量 %s 无法表示为精度 %d 的最小单位", a.val.String(), decimals)
	}
	if shifted.IsNegative() {
		return nil, fmt.Errorf("数量 %s 为负数，无法表示为最小单位", a.val.String())
	}
	return shifted.BigInt(), nil
}

// Market 市场描述（交易对）
type Market struct {
	// ID 市场标识（例如 "BTC-USDC"）
	ID string `json:"id"`

	// BaseInstrument 基础资产 ID
	BaseInstrument string `json:"base_instrument"`

	// QuoteInstrument 计价资产 ID
	QuoteInstrument string `json:"quote_instrument"`

	// PriceDecimals 价格精度
	PriceDecimals int `json:"price_decimals"`

	// SizeDecimals 数量精度
	SizeDecimals int `json:"size_decimals"`
}

// Package codec 实现账本操作的规范字节编码。
//
// 所有编码函数都是纯函数：相同的输入永远产生相同的字节序列，
// 远端校验器会按同一布局重算并验证签名，因此这里的布局一旦
// 上线就不能改动。数值字段一律使用大端序，变长字段带长度前缀。
package codec

import (
	"encoding/binary"
	"fmt"

	"github.com/vexlabs/govex/venue/types"
)

// 操作类型标签（编码的首字节）
const (
	TagWithdraw   byte = 0x01
	TagPoolMove   byte = 0x02
	TagDelegate   byte = 0x03
	TagLiquidate  byte = 0x04
	TagSettlement byte = 0x05
	TagCancel     byte = 0x06
)

// Destination 提现目的地
type Destination struct {
	Chain   types.Chain
	Address []byte
}

// WithdrawOp 提现操作
type WithdrawOp struct {
	Slot      types.SlotID
	Amount    uint64 // 最小单位
	Dest      Destination
	MaxBorrow uint64
	MaxFees   uint64
}

// EncodeWithdraw 编码提现操作
func EncodeWithdraw(op WithdrawOp) ([]byte, error) {
	wireID, err := op.Dest.Chain.WireID()
	if err != nil {
		return nil, err
	}
	if len(op.Dest.Address) == 0 || len(op.Dest.Address) > 255 {
		return nil, fmt.Errorf("非法的目的地址长度: %d", len(op.Dest.Address))
	}
	buf := make([]byte, 0, 2+8+2+1+len(op.Dest.Address)+16)
	buf = append(buf, TagWithdraw, byte(op.Slot))
	buf = binary.BigEndian.AppendUint64(buf, op.Amount)
	buf = binary.BigEndian.AppendUint16(buf, wireID)
	buf = append(buf, byte(len(op.Dest.Address)))
	buf = append(buf, op.Dest.Address...)
	buf = binary.BigEndian.AppendUint64(buf, op.MaxBorrow)
	buf = binary.BigEndian.AppendUint64(buf, op.MaxFees)
	return buf, nil
}

// PoolMoveOp 资金池转移操作（正数入池，负数出池）
type PoolMoveOp struct {
	Slot   types.SlotID
	Amount int64 // 最小单位，带符号
}

// EncodePoolMove 编码资金池转移操作
func EncodePoolMove(op PoolMoveOp) []byte {
	buf := make([]byte, 0, 2+8)
	buf = append(buf, TagPoolMove, byte(op.Slot))
	// 带符号数量按二进制补码编码
	buf = binary.BigEndian.AppendUint64(buf, uint64(op.Amount))
	return buf
}

// DelegateOp 委托操作
type DelegateOp struct {
	Delegate  types.AccountID
	CreatedOn uint64 // Unix 秒
	ExpiresOn uint64 // Unix 秒
}

// EncodeDelegate 编码委托操作
func EncodeDelegate(op DelegateOp) []byte {
	buf := make([]byte, 0, 1+32+16)
	buf = append(buf, TagDelegate)
	buf = append(buf, op.Delegate[:]...)
	buf = binary.BigEndian.AppendUint64(buf, op.CreatedOn)
	buf = binary.BigEndian.AppendUint64(buf, op.ExpiresOn)
	return buf
}

// BasketEntry 清算篮子中的一项
type BasketEntry struct {
	Slot   types.SlotID
	Amount uint64 // 最小单位
}

// LiquidateOp 清算操作
type LiquidateOp struct {
	Target types.AccountID
	Cash   []BasketEntry
	Pool   []BasketEntry
}

// EncodeLiquidate 编码清算操作
func EncodeLiquidate(op LiquidateOp) ([]byte, error) {
	if len(op.Cash) > 255 || len(op.Pool) > 255 {
		return nil, fmt.Errorf("清算篮子过大: cash=%d pool=%d", len(op.Cash), len(op.Pool))
	}
	buf := make([]byte, 0, 1+32+2+9*(len(op.Cash)+len(op.Pool)))
	buf = append(buf, TagLiquidate)
	buf = append(buf, op.Target[:]...)
	buf = appendBasket(buf, op.Cash)
	buf = appendBasket(buf, op.Pool)
	return buf, nil
}

func appendBasket(buf []byte, basket []BasketEntry) []byte {
	buf = append(buf, byte(len(basket)))
	for _, e := range basket {
		buf = append(buf, byte(e.Slot))
		buf = binary.BigEndian.AppendUint64(buf, e.Amount)
	}
	return buf
}

// SettlementOp 结算票据（签名后证明账户同意订单的买卖条款）
type SettlementOp struct {
	Nonce     uint64
	ExpiresOn uint64 // Unix 秒，0 表示不过期

	SellSlot   types.SlotID
	SellAmount uint64 // 最小单位
	MaxBorrow  uint64 // 卖出腿资产的最大借入量

	BuySlot   types.SlotID
	BuyAmount uint64 // 最小单位
	MaxRepay  uint64 // 买入腿资产的最大偿还量
}

// EncodeSettlement 编码结算票据
func EncodeSettlement(op SettlementOp) []byte {
	buf := make([]byte, 0, 1+16+2*17)
	buf = append(buf, TagSettlement)
	buf = binary.BigEndian.AppendUint64(buf, op.Nonce)
	buf = binary.BigEndian.AppendUint64(buf, op.ExpiresOn)
	buf = append(buf, byte(op.SellSlot))
	buf = binary.BigEndian.AppendUint64(buf, op.SellAmount)
	buf = binary.BigEndian.AppendUint64(buf, op.MaxBorrow)
	buf = append(buf, byte(op.BuySlot))
	buf = binary.BigEndian.AppendUint64(buf, op.BuyAmount)
	buf = binary.BigEndian.AppendUint64(buf, op.MaxRepay)
	return buf
}

// CancelOp 撤单请求
// 三种谓词只取其一：显式订单 ID 集合、全局时间截止、按市场的时间截止。
type CancelOp struct {
	// OrderIDs 要撤销的订单 ID 集合
	OrderIDs []string

	// AllOrdersUntil 撤销该时刻（Unix 毫秒）之前的全部订单
	AllOrdersUntil uint64

	// Market 限定市场（与 AllOrdersUntil 搭配使用）
	Market string
}

// EncodeCancel 编码撤单请求
func EncodeCancel(op CancelOp) ([]byte, error) {
	if len(op.OrderIDs) == 0 && op.AllOrdersUntil == 0 {
		return nil, fmt.Errorf("撤单请求必须指定订单 ID 或时间截止")
	}
	if len(op.OrderIDs) > 0 && op.AllOrdersUntil != 0 {
		return nil, fmt.Errorf("订单 ID 集合与时间截止不能同时指定")
	}
	if len(op.OrderIDs) > 65535 {
		return nil, fmt.Errorf("撤单数量过多: %d", len(op.OrderIDs))
	}
	if len(op.Market) > 255 {
		return nil, fmt.Errorf("市场 ID 过长: %d", len(op.Market))
	}

	buf := []byte{TagCancel}
	buf = append(buf, byte(len(op.Market)))
	buf = append(buf, op.Market...)
	buf = binary.BigEndian.AppendUint64(buf, op.AllOrdersUntil)
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(op.OrderIDs)))
	for _, id := range op.OrderIDs {
		if id == "" {
			return nil, fmt.Errorf("订单 ID 不能为空")
		}
		if len(id) > 255 {
			return nil, fmt.Errorf("订单 ID 过长: %d", len(id))
		}
		buf = append(buf, byte(len(id)))
		buf = append(buf, id...)
	}
	return buf, nil
}

// SigningMessage 构造最终的签名消息
// 布局: encodedOp || accountID(32) || lease(32) || lastValid(8 BE)
func SigningMessage(encodedOp []byte, account types.AccountID, rp types.ReplayParams) []byte {
	msg := make([]byte, 0, len(encodedOp)+32+32+8)
	msg = append(msg, encodedOp...)
	msg = append(msg, account[:]...)
	msg = append(msg, rp.Lease[:]...)
	msg = binary.BigEndian.AppendUint64(msg, rp.LastValid)
	return msg
}

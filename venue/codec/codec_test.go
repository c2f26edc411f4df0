package codec

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/vexlabs/govex/venue/types"
)

func TestEncodeWithdrawDeterministic(t *testing.T) {
	op := WithdrawOp{
		Slot:   3,
		Amount: 1_000_000,
		Dest: Destination{
			Chain:   types.ChainEthereum,
			Address: bytes.Repeat([]byte{0xAB}, 20),
		},
		MaxBorrow: 500,
		MaxFees:   42,
	}
	a, err := EncodeWithdraw(op)
	if err != nil {
		t.Fatalf("EncodeWithdraw error: %v", err)
	}
	b, err := EncodeWithdraw(op)
	if err != nil {
		t.Fatalf("EncodeWithdraw error: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatalf("同一输入产生了不同的编码:\n%x\n%x", a, b)
	}
}

func TestEncodeWithdrawLayout(t *testing.T) {
	addr := bytes.Repeat([]byte{0xCD}, 20)
	buf, err := EncodeWithdraw(WithdrawOp{
		Slot:      7,
		Amount:    123456789,
		Dest:      Destination{Chain: types.ChainAvalanche, Address: addr},
		MaxBorrow: 11,
		MaxFees:   22,
	})
	if err != nil {
		t.Fatalf("EncodeWithdraw error: %v", err)
	}

	if buf[0] != TagWithdraw {
		t.Fatalf("首字节应为标签 0x%02x, got 0x%02x", TagWithdraw, buf[0])
	}
	if buf[1] != 7 {
		t.Fatalf("slot got=%d want=7", buf[1])
	}
	if got := binary.BigEndian.Uint64(buf[2:10]); got != 123456789 {
		t.Fatalf("amount got=%d want=123456789", got)
	}
	// avalanche 的 wire 编号是 6
	if got := binary.BigEndian.Uint16(buf[10:12]); got != 6 {
		t.Fatalf("wire id got=%d want=6", got)
	}
	if buf[12] != 20 {
		t.Fatalf("地址长度前缀 got=%d want=20", buf[12])
	}
	if !bytes.Equal(buf[13:33], addr) {
		t.Fatalf("地址字节不匹配")
	}
	if got := binary.BigEndian.Uint64(buf[33:41]); got != 11 {
		t.Fatalf("max borrow got=%d want=11", got)
	}
	if got := binary.BigEndian.Uint64(buf[41:49]); got != 22 {
		t.Fatalf("max fees got=%d want=22", got)
	}
	if len(buf) != 49 {
		t.Fatalf("编码长度 got=%d want=49", len(buf))
	}
}

func TestEncodeWithdrawBadAddress(t *testing.T) {
	_, err := EncodeWithdraw(WithdrawOp{
		Slot:   1,
		Amount: 1,
		Dest:   Destination{Chain: types.ChainEthereum, Address: nil},
	})
	if err == nil {
		t.Fatal("空地址应当失败")
	}
	_, err = EncodeWithdraw(WithdrawOp{
		Slot:   1,
		Amount: 1,
		Dest:   Destination{Chain: types.ChainEthereum, Address: make([]byte, 256)},
	})
	if err == nil {
		t.Fatal("超长地址应当失败")
	}
}

func TestEncodePoolMoveSigned(t *testing.T) {
	in := EncodePoolMove(PoolMoveOp{Slot: 2, Amount: 100})
	out := EncodePoolMove(PoolMoveOp{Slot: 2, Amount: -100})

	if in[0] != TagPoolMove || out[0] != TagPoolMove {
		t.Fatal("标签错误")
	}
	if got := int64(binary.BigEndian.Uint64(in[2:10])); got != 100 {
		t.Fatalf("入池数量 got=%d want=100", got)
	}
	// 负数按二进制补码
	if got := int64(binary.BigEndian.Uint64(out[2:10])); got != -100 {
		t.Fatalf("出池数量 got=%d want=-100", got)
	}
}

func TestEncodeSettlementLayout(t *testing.T) {
	buf := EncodeSettlement(SettlementOp{
		Nonce:      9999,
		ExpiresOn:  1700000000,
		SellSlot:   1,
		SellAmount: 50,
		MaxBorrow:  5,
		BuySlot:    2,
		BuyAmount:  100,
		MaxRepay:   10,
	})
	if buf[0] != TagSettlement {
		t.Fatalf("标签 got=0x%02x", buf[0])
	}
	if got := binary.BigEndian.Uint64(buf[1:9]); got != 9999 {
		t.Fatalf("nonce got=%d", got)
	}
	if got := binary.BigEndian.Uint64(buf[9:17]); got != 1700000000 {
		t.Fatalf("expires got=%d", got)
	}
	if buf[17] != 1 || buf[34] != 2 {
		t.Fatalf("槽位编码错误: sell=%d buy=%d", buf[17], buf[34])
	}
	if len(buf) != 51 {
		t.Fatalf("编码长度 got=%d want=51", len(buf))
	}
}

func TestEncodeLiquidateBasketLimit(t *testing.T) {
	big := make([]BasketEntry, 256)
	_, err := EncodeLiquidate(LiquidateOp{Cash: big})
	if err == nil {
		t.Fatal("超过 255 项的篮子应当失败")
	}
}

func TestEncodeCancelPredicates(t *testing.T) {
	// 谓词缺失
	if _, err := EncodeCancel(CancelOp{}); err == nil {
		t.Fatal("空撤单请求应当失败")
	}
	// 两种谓词同时给出
	if _, err := EncodeCancel(CancelOp{OrderIDs: []string{"a"}, AllOrdersUntil: 1}); err == nil {
		t.Fatal("同时指定 ID 和截止时间应当失败")
	}
	// 空订单 ID
	if _, err := EncodeCancel(CancelOp{OrderIDs: []string{""}}); err == nil {
		t.Fatal("空订单 ID 应当失败")
	}

	byIDs, err := EncodeCancel(CancelOp{OrderIDs: []string{"o1", "o2"}})
	if err != nil {
		t.Fatalf("EncodeCancel error: %v", err)
	}
	if byIDs[0] != TagCancel {
		t.Fatalf("标签 got=0x%02x", byIDs[0])
	}

	until, err := EncodeCancel(CancelOp{AllOrdersUntil: 12345, Market: "BTC-USDC"})
	if err != nil {
		t.Fatalf("EncodeCancel error: %v", err)
	}
	if bytes.Equal(byIDs, until) {
		t.Fatal("不同谓词的编码不应相同")
	}
}

func TestSigningMessageLayout(t *testing.T) {
	encoded := []byte{0x01, 0x02, 0x03}
	var account types.AccountID
	account[0] = 0xAA
	var rp types.ReplayParams
	rp.Lease[0] = 0xBB
	rp.LastValid = 777

	msg := SigningMessage(encoded, account, rp)
	if len(msg) != 3+32+32+8 {
		t.Fatalf("消息长度 got=%d want=%d", len(msg), 3+32+32+8)
	}
	if !bytes.Equal(msg[:3], encoded) {
		t.Fatal("操作编码段不匹配")
	}
	if !bytes.Equal(msg[3:35], account[:]) {
		t.Fatal("账户段不匹配")
	}
	if !bytes.Equal(msg[35:67], rp.Lease[:]) {
		t.Fatal("lease 段不匹配")
	}
	if got := binary.BigEndian.Uint64(msg[67:75]); got != 777 {
		t.Fatalf("lastValid got=%d want=777", got)
	}
}

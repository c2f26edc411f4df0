package types

import "testing"

var testBTC = Instrument{ID: "BTC", AssetID: 1, Decimals: 8}

func TestNewAmountRejectsMalformed(t *testing.T) {
	for _, bad := range []string{"", "  ", "abc", "1.2.3", "1e", "--1"} {
		if _, err := NewAmount(testBTC, bad); err == nil {
			t.Fatalf("非法数量 %q 应当被拒绝", bad)
		}
	}
}

func TestAmountMinorRoundTrip(t *testing.T) {
	// 最小单位与十进制字符串互转应当无损
	a, err := NewAmount(testBTC, "1.5")
	if err != nil {
		t.Fatalf("NewAmount error: %v", err)
	}
	minor, err := a.Minor()
	if err != nil {
		t.Fatalf("Minor error: %v", err)
	}
	if minor != 150_000_000 {
		t.Fatalf("minor got=%d want=150000000", minor)
	}
	back := AmountFromMinor(testBTC, minor)
	if back.String() != "1.5" {
		t.Fatalf("round trip got=%q want=%q", back.String(), "1.5")
	}
}

func TestAmountMinorNonIntegral(t *testing.T) {
	// 超出精度的数量无法表示为最小单位
	a, err := NewAmount(testBTC, "0.000000001")
	if err != nil {
		t.Fatalf("NewAmount error: %v", err)
	}
	if _, err := a.Minor(); err == nil {
		t.Fatal("非整数最小单位应当失败")
	}
}

func TestAmountMinorNegative(t *testing.T) {
	a, err := NewAmount(testBTC, "-1")
	if err != nil {
		t.Fatalf("NewAmount error: %v", err)
	}
	if a.IsPositive() {
		t.Fatal("-1 不应为正")
	}
	if _, err := a.Minor(); err == nil {
		t.Fatal("负数量转最小单位应当失败")
	}
}

func TestAmountArithmeticKeepsInstrument(t *testing.T) {
	usdc := Instrument{ID: "USDC", AssetID: 2, Decimals: 6}

	a, _ := NewAmount(testBTC, "1")
	b, _ := NewAmount(testBTC, "0.25")
	sum, err := a.Add(b)
	if err != nil {
		t.Fatalf("Add error: %v", err)
	}
	if sum.Instrument.ID != "BTC" || sum.String() != "1.25" {
		t.Fatalf("Add got=%s %s", sum.Instrument.ID, sum.String())
	}

	c, _ := NewAmount(usdc, "1")
	if _, err := a.Add(c); err == nil {
		t.Fatal("跨资产相加应当失败")
	}
	if _, err := a.Sub(c); err == nil {
		t.Fatal("跨资产相减应当失败")
	}
}

func TestTokenOn(t *testing.T) {
	ins := Instrument{
		ID: "USDC",
		Chains: []ChainToken{
			{Chain: ChainEthereum, Address: "0xabc", Decimals: 6},
		},
	}
	if _, ok := ins.TokenOn(ChainEthereum); !ok {
		t.Fatal("应当找到 ethereum 映射")
	}
	if _, ok := ins.TokenOn(ChainBase); ok {
		t.Fatal("base 上不应有映射")
	}
}

func TestNativeDecimals(t *testing.T) {
	// EVM 燃料货币统一 18 位精度；原生账本没有燃料货币概念
	for _, c := range []Chain{ChainEthereum, ChainAvalanche, ChainArbitrum, ChainBase} {
		d, err := c.NativeDecimals()
		if err != nil {
			t.Fatalf("NativeDecimals(%s) error: %v", c, err)
		}
		if d != 18 {
			t.Fatalf("NativeDecimals(%s) got=%d want=18", c, d)
		}
	}
	if _, err := ChainNative.NativeDecimals(); err == nil {
		t.Fatal("原生链不应有燃料货币精度")
	}
}

func TestParseChain(t *testing.T) {
	c, err := ParseChain(" Ethereum ")
	if err != nil {
		t.Fatalf("ParseChain error: %v", err)
	}
	if c != ChainEthereum {
		t.Fatalf("got=%q", c)
	}
	if _, err := ParseChain("solana"); err == nil {
		t.Fatal("未知链名应当失败")
	}
}

package types

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Chain 链标识
type Chain string

const (
	// ChainNative 场内原生账本（交易所的结算链）
	ChainNative Chain = "native"

	ChainEthereum  Chain = "ethereum"
	ChainAvalanche Chain = "avalanche"
	ChainArbitrum  Chain = "arbitrum"
	ChainBase      Chain = "base"
)

// chainWireIDs 跨链消息里使用的链编号（与桥的 wire 格式一致）
var chainWireIDs = map[Chain]uint16{
	ChainNative:    1,
	ChainEthereum:  2,
	ChainAvalanche: 6,
	ChainArbitrum:  23,
	ChainBase:      30,
}

// evmChainIDs EVM 链的 chainId（用于交易签名）
var evmChainIDs = map[Chain]int64{
	ChainEthereum:  1,
	ChainAvalanche: 43114,
	ChainArbitrum:  42161,
	ChainBase:      8453,
}

// ParseChain 解析链名称
func ParseChain(s string) (Chain, error) {
	c := Chain(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := chainWireIDs[c]; !ok {
		return "", fmt.Errorf("未知的链名称: %q", s)
	}
	return c, nil
}

// WireID 返回跨链消息中的链编号
func (c Chain) WireID() (uint16, error) {
	id, ok := chainWireIDs[c]
	if !ok {
		return 0, fmt.Errorf("未知的链: %q", c)
	}
	return id, nil
}

// EVMChainID 返回 EVM chainId（仅对 EVM 链有效）
func (c Chain) EVMChainID() (int64, error) {
	id, ok := evmChainIDs[c]
	if !ok {
		return 0, fmt.Errorf("链 %q 不是 EVM 链", c)
	}
	return id, nil
}

// IsEVM 是否为 EVM 家族链
func (c Chain) IsEVM() bool {
	_, ok := evmChainIDs[c]
	return ok
}

// evmNativeDecimals EVM 燃料货币（wei）的精度
const evmNativeDecimals = 18

// NativeDecimals 返回链原生燃料货币的精度（仅对 EVM 链有效）
// 携带 value 的交易必须用这个精度换算，而不是账本资产的精度。
func (c Chain) NativeDecimals() (int, error) {
	if !c.IsEVM() {
		return 0, fmt.Errorf("链 %q 不是 EVM 链", c)
	}
	return evmNativeDecimals, nil
}

// SlotID 账户内的资产槽位编号（用于结算票据的紧凑编码）
type SlotID uint8

// AccountID 场内账户标识（32 字节）
type AccountID [32]byte

// String 返回 base64 编码的账户标识
// 用 URL 安全字母表且不带填充，可以直接拼进 REST 路径。
func (a AccountID) String() string {
	return base64.RawURLEncoding.EncodeToString(a[:])
}

// AccountIDFromString 从 base64 字符串解析账户标识
func AccountIDFromString(s string) (AccountID, error) {
	var a AccountID
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return a, fmt.Errorf("解析账户标识失败: %w", err)
	}
	if len(raw) != len(a) {
		return a, fmt.Errorf("账户标识长度错误: 期望 %d 字节，得到 %d", len(a), len(raw))
	}
	copy(a[:], raw)
	return a, nil
}

// ReplayParams 防重放参数
// Lease 必须每次签名都重新随机生成；LastValid 是签名有效的账本高度上界。
type ReplayParams struct {
	Lease     [32]byte
	LastValid uint64
}

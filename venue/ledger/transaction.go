package ledger

import (
	"crypto/sha512"
	"encoding/base32"
	"encoding/base64"
	"encoding/binary"
	"fmt"

	"github.com/vexlabs/govex/venue/types"
)

// TxType 交易类型
type TxType string

const (
	// TxTypeTransfer 资产转账
	TxTypeTransfer TxType = "xfer"

	// TxTypeAppCall 逻辑合约调用
	TxTypeAppCall TxType = "appl"
)

// 域分隔前缀：交易编码与组承诺各用一个，避免哈希混淆
var (
	txDomainPrefix    = []byte("VTX")
	groupDomainPrefix = []byte("VTG")
)

// Transaction 原生账本交易（本层只需要入金组用到的最小子集）
type Transaction struct {
	Type   TxType
	Sender types.AccountID

	// 转账字段
	Receiver types.AccountID
	AssetID  uint64
	Amount   uint64 // 最小单位

	// 合约调用字段
	AppID   uint64
	AppArgs [][]byte

	// 通用字段
	Fee        uint64
	FirstValid uint64
	LastValid  uint64
	Note       []byte

	// group 所属交易组的承诺哈希（由 Group 填充）
	group [32]byte
}

// Encode 生成交易的规范字节编码
// 布局固定：前缀 || 类型 || 发送方 || 类型相关字段 || 通用字段 || 组哈希。
func (t *Transaction) Encode() []byte {
	buf := make([]byte, 0, 256)
	buf = append(buf, txDomainPrefix...)
	buf = append(buf, byte(len(t.Type)))
	buf = append(buf, t.Type...)
	buf = append(buf, t.Sender[:]...)

	switch t.Type {
	case TxTypeTransfer:
		buf = append(buf, t.Receiver[:]...)
		buf = binary.BigEndian.AppendUint64(buf, t.AssetID)
		buf = binary.BigEndian.AppendUint64(buf, t.Amount)
	case TxTypeAppCall:
		buf = binary.BigEndian.AppendUint64(buf, t.AppID)
		buf = append(buf, byte(len(t.AppArgs)))
		for _, arg := range t.AppArgs {
			buf = binary.BigEndian.AppendUint16(buf, uint16(len(arg)))
			buf = append(buf, arg...)
		}
	}

	buf = binary.BigEndian.AppendUint64(buf, t.Fee)
	buf = binary.BigEndian.AppendUint64(buf, t.FirstValid)
	buf = binary.BigEndian.AppendUint64(buf, t.LastValid)
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(t.Note)))
	buf = append(buf, t.Note...)
	buf = append(buf, t.group[:]...)
	return buf
}

// ID 交易 ID（编码的 sha512/256，base32 无填充）
func (t *Transaction) ID() string {
	sum := sha512.Sum512_256(t.Encode())
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(sum[:])
}

// Group 计算交易组承诺并写回每笔交易
// 组内任何一笔被单独重放都会因组哈希不匹配被拒绝。
func Group(txs ...*Transaction) error {
	if len(txs) < 2 {
		return fmt.Errorf("交易组至少需要两笔交易")
	}
	if len(txs) > 16 {
		return fmt.Errorf("交易组过大: %d", len(txs))
	}

	buf := make([]byte, 0, len(groupDomainPrefix)+32*len(txs))
	buf = append(buf, groupDomainPrefix...)
	for _, tx := range txs {
		// 组哈希基于未分组状态的交易编码
		tx.group = [32]byte{}
		sum := sha512.Sum512_256(tx.Encode())
		buf = append(buf, sum[:]...)
	}

	gid := sha512.Sum512_256(buf)
	for _, tx := range txs {
		tx.group = gid
	}
	return nil
}

// SignedTransaction 已签名交易
type SignedTransaction struct {
	// TxnBytes 交易编码（base64）
	TxnBytes string `json:"txn"`

	// Signature ed25519 签名（base64），逻辑签名交易为空
	Signature string `json:"sig,omitempty"`

	// LogicProgram 逻辑签名程序（base64），普通签名交易为空
	LogicProgram string `json:"lsig,omitempty"`
}

// SignedBy 用外部签名能力的输出组装已签名交易
func (t *Transaction) SignedBy(signature []byte) SignedTransaction {
	return SignedTransaction{
		TxnBytes:  base64.StdEncoding.EncodeToString(t.Encode()),
		Signature: base64.StdEncoding.EncodeToString(signature),
	}
}

// SignedByLogic 用委托逻辑程序组装已签名交易
// 入金组里合约调用腿由场馆发布的逻辑程序背书，而不是用户私钥。
func (t *Transaction) SignedByLogic(program []byte) SignedTransaction {
	return SignedTransaction{
		TxnBytes:     base64.StdEncoding.EncodeToString(t.Encode()),
		LogicProgram: base64.StdEncoding.EncodeToString(program),
	}
}

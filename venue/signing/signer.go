// Package signing 提供签名能力与签名协调器。
//
// 两种签名能力按链家族区分：原生账本使用 ed25519，EVM 家族使用
// secp256k1。调用入口处做一次类型判定，之后不再到处探测类型。
package signing

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	hdwallet "github.com/miguelmota/go-ethereum-hdwallet"

	"github.com/vexlabs/govex/venue/types"
)

// Signer 签名能力
type Signer interface {
	// Address 签名者地址（链家族各自的格式）
	Address() string

	// PublicKey 公钥字节
	PublicKey() []byte

	// Chain 签名者所属的链
	Chain() types.Chain

	// Sign 对消息签名
	Sign(message []byte) ([]byte, error)
}

// NativeSigner 原生账本签名者（ed25519）
type NativeSigner struct {
	priv ed25519.PrivateKey
}

// NewNativeSigner 从 32 字节种子创建原生签名者
func NewNativeSigner(seed []byte) (*NativeSigner, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("种子长度错误: 期望 %d 字节，得到 %d", ed25519.SeedSize, len(seed))
	}
	return &NativeSigner{priv: ed25519.NewKeyFromSeed(seed)}, nil
}

// NativeSignerFromBase64 从 base64 种子创建原生签名者
func NativeSignerFromBase64(seed string) (*NativeSigner, error) {
	raw, err := base64.StdEncoding.DecodeString(seed)
	if err != nil {
		return nil, fmt.Errorf("解析种子失败: %w", err)
	}
	return NewNativeSigner(raw)
}

// Address 返回 base64 编码的公钥
func (s *NativeSigner) Address() string {
	return base64.StdEncoding.EncodeToString(s.PublicKey())
}

// PublicKey 返回 ed25519 公钥（32 字节）
func (s *NativeSigner) PublicKey() []byte {
	return s.priv.Public().(ed25519.PublicKey)
}

// Chain 原生签名者属于原生账本
func (s *NativeSigner) Chain() types.Chain {
	return types.ChainNative
}

// Sign 产生 64 字节 ed25519 签名
func (s *NativeSigner) Sign(message []byte) ([]byte, error) {
	return ed25519.Sign(s.priv, message), nil
}

// EVMSigner EVM 家族签名者（secp256k1）
type EVMSigner struct {
	priv  *ecdsa.PrivateKey
	chain types.Chain
}

// NewEVMSigner 从十六进制私钥创建 EVM 签名者
func NewEVMSigner(hexKey string, chain types.Chain) (*EVMSigner, error) {
	if !chain.IsEVM() {
		return nil, fmt.Errorf("链 %q 不是 EVM 链", chain)
	}
	priv, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("解析私钥失败: %w", err)
	}
	return &EVMSigner{priv: priv, chain: chain}, nil
}

// EVMSignerFromMnemonic 从助记词派生 EVM 签名者
// path 为空时使用默认路径 m/44'/60'/0'/0/0。
func EVMSignerFromMnemonic(mnemonic, path string, chain types.Chain) (*EVMSigner, error) {
	if !chain.IsEVM() {
		return nil, fmt.Errorf("链 %q 不是 EVM 链", chain)
	}
	wallet, err := hdwallet.NewFromMnemonic(mnemonic)
	if err != nil {
		return nil, fmt.Errorf("解析助记词失败: %w", err)
	}
	if path == "" {
		path = "m/44'/60'/0'/0/0"
	}
	derivation, err := hdwallet.ParseDerivationPath(path)
	if err != nil {
		return nil, fmt.Errorf("解析派生路径失败: %w", err)
	}
	account, err := wallet.Derive(derivation, false)
	if err != nil {
		return nil, fmt.Errorf("派生账户失败: %w", err)
	}
	priv, err := wallet.PrivateKey(account)
	if err != nil {
		return nil, fmt.Errorf("导出私钥失败: %w", err)
	}
	return &EVMSigner{priv: priv, chain: chain}, nil
}

// Address 返回 0x 前缀的校验和地址
func (s *EVMSigner) Address() string {
	return crypto.PubkeyToAddress(s.priv.PublicKey).Hex()
}

// CommonAddress 返回 go-ethereum 地址类型
func (s *EVMSigner) CommonAddress() common.Address {
	return crypto.PubkeyToAddress(s.priv.PublicKey)
}

// PublicKey 返回未压缩公钥字节
func (s *EVMSigner) PublicKey() []byte {
	return crypto.FromECDSAPub(&s.priv.PublicKey)
}

// Chain 返回签名者所属的 EVM 链
func (s *EVMSigner) Chain() types.Chain {
	return s.chain
}

// Sign 对消息做 EIP-191 前缀哈希后签名（r||s||v，65 字节）
func (s *EVMSigner) Sign(message []byte) ([]byte, error) {
	prefixed := fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(message), message)
	hash := crypto.Keccak256Hash([]byte(prefixed))
	sig, err := crypto.Sign(hash.Bytes(), s.priv)
	if err != nil {
		return nil, fmt.Errorf("签名失败: %w", err)
	}
	return sig, nil
}

// SignTx 对链上交易做 EIP-155 签名
func (s *EVMSigner) SignTx(tx *ethtypes.Transaction, chainID *big.Int) (*ethtypes.Transaction, error) {
	signed, err := ethtypes.SignTx(tx, ethtypes.NewEIP155Signer(chainID), s.priv)
	if err != nil {
		return nil, fmt.Errorf("签名交易失败: %w", err)
	}
	return signed, nil
}

// AccountIDFor 从签名能力推导场内账户标识
// 原生签名者直接使用 ed25519 公钥；EVM 签名者把 20 字节地址
// 放入 32 字节标识的尾部，首字节标记链家族。
func AccountIDFor(signer Signer) (types.AccountID, error) {
	var id types.AccountID
	switch s := signer.(type) {
	case *NativeSigner:
		copy(id[:], s.PublicKey())
		return id, nil
	case *EVMSigner:
		id[0] = 0xE1
		copy(id[12:], s.CommonAddress().Bytes())
		return id, nil
	default:
		return id, fmt.Errorf("不支持的签名能力类型: %T", signer)
	}
}

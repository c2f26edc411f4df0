package client

import "github.com/pkg/errors"

// 校验与幂等守卫错误
// 这些错误在发起任何网络调用之前同步抛出，永远不重试。
var (
	// ErrNonPositiveAmount 资金操作的数量必须严格为正
	ErrNonPositiveAmount = errors.New("client: amount must be strictly positive")

	// ErrExpiryInPast 过期时间早于当前时刻
	ErrExpiryInPast = errors.New("client: expiry is in the past")

	// ErrMarketMismatch 批量下单中出现了不一致的市场 ID
	ErrMarketMismatch = errors.New("client: order market does not match batch market")

	// ErrMissingPrice 限价单缺少价格
	ErrMissingPrice = errors.New("client: limit order requires a price")

	// ErrNoTokenMapping 资产在目标链上没有代币映射
	ErrNoTokenMapping = errors.New("client: instrument has no token mapping on chain")

	// ErrAssetMappingMismatch 服务端目录与桥解析的镜像资产不一致
	// 数据完整性故障，需要人工排查，不是瞬态条件。
	ErrAssetMappingMismatch = errors.New("client: catalog token mapping disagrees with bridge mirror asset")

	// ErrAlreadyRedeemed 赎回已经成功过一次
	ErrAlreadyRedeemed = errors.New("client: transfer already redeemed")

	// ErrAttestationUnavailable 在证明可用之前调用了完成检查
	ErrAttestationUnavailable = errors.New("client: attestation not yet available")

	// ErrRedeemFailed 赎回交易上链后状态为失败
	ErrRedeemFailed = errors.New("client: redemption transaction reverted")

	// ErrWrongSignerChain 签名能力所属的链与操作要求不符
	ErrWrongSignerChain = errors.New("client: signer chain does not match operation chain")

	// ErrUnknownInstrument 目录中不存在该资产
	ErrUnknownInstrument = errors.New("client: unknown instrument")

	// ErrUnknownMarket 目录中不存在该市场
	ErrUnknownMarket = errors.New("client: unknown market")
)

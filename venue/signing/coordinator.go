package signing

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"

	"github.com/vexlabs/govex/venue/codec"
	"github.com/vexlabs/govex/venue/ledger"
	"github.com/vexlabs/govex/venue/types"
)

// HeightSource 提供当前账本参数（由 ledger.Client 实现）
type HeightSource interface {
	SuggestedParams(ctx context.Context) (ledger.SuggestedParams, error)
}

// ReplaySource 防重放参数来源
//
// 每次调用都返回全新的随机 lease 和最新的高度上界，不做缓存。
// 同一账户并发发起多次签名时，两次调用互不感知——串行化由调用方
// 负责（场馆侧会对 lease 去重，但并发签名仍可能浪费其中一个）。
type ReplaySource struct {
	ledger HeightSource
	rand   io.Reader
}

// NewReplaySource 创建防重放参数来源
func NewReplaySource(lc HeightSource) *ReplaySource {
	return &ReplaySource{ledger: lc, rand: rand.Reader}
}

// Params 获取一组新的防重放参数
func (s *ReplaySource) Params(ctx context.Context) (types.ReplayParams, error) {
	var rp types.ReplayParams

	sp, err := s.ledger.SuggestedParams(ctx)
	if err != nil {
		return rp, fmt.Errorf("获取账本参数失败: %w", err)
	}
	if _, err := io.ReadFull(s.rand, rp.Lease[:]); err != nil {
		return rp, fmt.Errorf("生成 lease 失败: %w", err)
	}
	rp.LastValid = sp.CurrentHeight + sp.ValidityWindow
	return rp, nil
}

// Ticket 已签名操作票据（提交给场馆的最终形态）
// 创建后不再修改；本层不持久化，场馆是唯一的记录系统。
type Ticket struct {
	EncodedOp []byte
	Account   types.AccountID
	Replay    types.ReplayParams
	Signature []byte
}

// Coordinator 签名协调器
// 把编码后的操作、账户身份和防重放参数组装成签名消息并调用签名能力。
type Coordinator struct {
	replay *ReplaySource
}

// NewCoordinator 创建签名协调器
func NewCoordinator(replay *ReplaySource) *Coordinator {
	return &Coordinator{replay: replay}
}

// SignOperation 签名一个已编码的操作
//
// 消耗一个随机 lease。签名失败（用户拒绝、传输错误）时不重试，
// 失效的 lease 直接丢弃，调用方需从参数获取重新开始。
func (c *Coordinator) SignOperation(ctx context.Context, encodedOp []byte, account types.AccountID, signer Signer) (*Ticket, error) {
	rp, err := c.replay.Params(ctx)
	if err != nil {
		return nil, err
	}

	msg := codec.SigningMessage(encodedOp, account, rp)
	sig, err := signer.Sign(msg)
	if err != nil {
		return nil, fmt.Errorf("签名操作失败: %w", err)
	}

	return &Ticket{
		EncodedOp: encodedOp,
		Account:   account,
		Replay:    rp,
		Signature: sig,
	}, nil
}

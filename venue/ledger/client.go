// Package ledger 封装原生账本节点的 REST 接口。
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/vexlabs/govex/pkg/logger"
)

// ErrConfirmationTimeout 等待确认超过最大轮数
var ErrConfirmationTimeout = errors.New("ledger: confirmation timeout")

// SuggestedParams 当前网络参数
type SuggestedParams struct {
	// CurrentHeight 当前账本高度
	CurrentHeight uint64 `json:"current_height"`

	// ValidityWindow 交易有效窗口（高度数）
	ValidityWindow uint64 `json:"validity_window"`

	// MinFee 最低手续费（最小单位）
	MinFee uint64 `json:"min_fee"`

	// GenesisID 网络标识
	GenesisID string `json:"genesis_id"`
}

// PendingInfo 待确认交易信息
type PendingInfo struct {
	// ConfirmedHeight 交易被确认的高度，0 表示仍在池中
	ConfirmedHeight uint64 `json:"confirmed_height"`

	// PoolError 交易被拒绝时的原因
	PoolError string `json:"pool_error,omitempty"`
}

// Client 原生账本 REST 客户端
type Client struct {
	http *resty.Client
	log  *logrus.Entry

	// roundWait 每轮确认轮询之间的等待时间
	roundWait time.Duration
}

// NewClient 创建账本客户端
func NewClient(baseURL string) *Client {
	http := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15 * time.Second).
		SetHeader("Accept", "application/json")

	return &Client{
		http:      http,
		log:       logger.Component("ledger"),
		roundWait: time.Second,
	}
}

// SetRoundWait 设置确认轮询间隔（测试用）
func (c *Client) SetRoundWait(d time.Duration) {
	c.roundWait = d
}

// SuggestedParams 查询当前网络参数
func (c *Client) SuggestedParams(ctx context.Context) (SuggestedParams, error) {
	var out SuggestedParams
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/v1/transactions/params")
	if err != nil {
		return SuggestedParams{}, fmt.Errorf("查询账本参数失败: %w", err)
	}
	if resp.IsError() {
		return SuggestedParams{}, fmt.Errorf("查询账本参数失败: HTTP %d: %s", resp.StatusCode(), resp.String())
	}
	return out, nil
}

// submitResponse 提交交易的返回体
type submitResponse struct {
	TxID string `json:"tx_id"`
}

// SubmitGroup 提交一个交易组（已签名）
// 返回组内第一笔交易的 ID。
func (c *Client) SubmitGroup(ctx context.Context, group []SignedTransaction) (string, error) {
	if len(group) == 0 {
		return "", fmt.Errorf("交易组不能为空")
	}
	var out submitResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{"transactions": group}).
		SetResult(&out).
		Post("/v1/transactions")
	if err != nil {
		return "", fmt.Errorf("提交交易组失败: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("提交交易组失败: HTTP %d: %s", resp.StatusCode(), resp.String())
	}
	c.log.WithField("tx_id", out.TxID).Debug("交易组已提交")
	return out.TxID, nil
}

// PendingInfo 查询待确认交易
func (c *Client) PendingInfo(ctx context.Context, txID string) (PendingInfo, error) {
	var out PendingInfo
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetPathParam("txid", txID).
		Get("/v1/transactions/pending/{txid}")
	if err != nil {
		return PendingInfo{}, fmt.Errorf("查询交易状态失败: %w", err)
	}
	if resp.IsError() {
		return PendingInfo{}, fmt.Errorf("查询交易状态失败: HTTP %d: %s", resp.StatusCode(), resp.String())
	}
	return out, nil
}

// WaitForConfirmation 等待交易确认，最多轮询 maxRounds 轮
// 超过轮数返回 ErrConfirmationTimeout；交易被池拒绝时返回拒绝原因。
func (c *Client) WaitForConfirmation(ctx context.Context, txID string, maxRounds uint64) error {
	for round := uint64(0); round < maxRounds; round++ {
		info, err := c.PendingInfo(ctx, txID)
		if err != nil {
			return err
		}
		if info.PoolError != "" {
			return fmt.Errorf("交易被拒绝: %s", info.PoolError)
		}
		if info.ConfirmedHeight > 0 {
			c.log.WithFields(logrus.Fields{
				"tx_id":  txID,
				"height": info.ConfirmedHeight,
			}).Debug("交易已确认")
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.roundWait):
		}
	}
	return errors.Wrapf(ErrConfirmationTimeout, "tx %s after %d rounds", txID, maxRounds)
}

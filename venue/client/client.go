// Package client 是场馆的编排层：入金/提现编排、签名订单生命周期
// 和跨链转账句柄。所有会动资金的操作都经过签名协调器产生带防重放
// 参数的签名票据，场馆是唯一的记录系统，本层不持久化任何状态。
package client

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/vexlabs/govex/pkg/cache"
	"github.com/vexlabs/govex/pkg/logger"
	"github.com/vexlabs/govex/pkg/ratelimit"
	"github.com/vexlabs/govex/venue/bridge"
	"github.com/vexlabs/govex/venue/ledger"
	"github.com/vexlabs/govex/venue/signing"
	"github.com/vexlabs/govex/venue/types"
)

// 速率限制类别
const (
	limitOrders    = "orders"
	limitTransfers = "transfers"
)

// defaultConfirmRounds 原生链确认轮询的默认上限
const defaultConfirmRounds = 10

// Config 客户端配置
type Config struct {
	// BaseURL 场馆 REST 接口地址
	BaseURL string

	// LedgerURL 原生账本节点地址
	LedgerURL string

	// Gateway 跨链网关（测试可注入假实现）
	Gateway bridge.Gateway

	// Signer 账户的签名能力
	Signer signing.Signer

	// AppID 场馆在原生账本上的逻辑合约编号
	AppID uint64

	// ServerAccount 场馆在原生账本上的资金账户
	ServerAccount types.AccountID

	// LogicProgram 场馆发布的入金组背书程序
	LogicProgram []byte

	// ConfirmRounds 确认轮询上限，0 使用默认值
	ConfirmRounds uint64
}

// Client 场馆编排客户端
type Client struct {
	http    *resty.Client
	ledger  *ledger.Client
	gateway bridge.Gateway
	limits  *ratelimit.Manager
	log     *logrus.Entry

	signer    signing.Signer
	accountID types.AccountID

	replay      *signing.ReplaySource
	coordinator *signing.Coordinator

	// 目录缓存：populate-once，加载后不再失效
	instruments *cache.InMemoryCache[string, types.Instrument]
	markets     *cache.InMemoryCache[string, types.Market]
	slots       *cache.InMemoryCache[string, types.SlotID]
	catalogMu   sync.Mutex
	catalogOK   bool

	// prevNonce 上一次签发的订单 nonce（Unix 毫秒起步）
	prevNonce atomic.Int64

	appID         uint64
	serverAccount types.AccountID
	logicProgram  []byte
	confirmRounds uint64
}

// NewClient 创建客户端
func NewClient(cfg Config) (*Client, error) {
	if cfg.Signer == nil {
		return nil, fmt.Errorf("签名能力不能为空")
	}
	accountID, err := signing.AccountIDFor(cfg.Signer)
	if err != nil {
		return nil, err
	}

	lc := ledger.NewClient(cfg.LedgerURL)
	replay := signing.NewReplaySource(lc)

	limits := ratelimit.NewManager()
	limits.Register(limitOrders, 20, 10)
	limits.Register(limitTransfers, 5, 1)

	rounds := cfg.ConfirmRounds
	if rounds == 0 {
		rounds = defaultConfirmRounds
	}

	return &Client{
		http: resty.New().
			SetBaseURL(cfg.BaseURL).
			SetTimeout(15 * time.Second).
			SetHeader("Content-Type", "application/json"),
		ledger:  lc,
		gateway: cfg.Gateway,
		limits:  limits,
		log:     logger.Component("client"),

		signer:    cfg.Signer,
		accountID: accountID,

		replay:      replay,
		coordinator: signing.NewCoordinator(replay),

		instruments: cache.NewInMemoryCache[string, types.Instrument](0),
		markets:     cache.NewInMemoryCache[string, types.Market](0),
		slots:       cache.NewInMemoryCache[string, types.SlotID](0),

		appID:         cfg.AppID,
		serverAccount: cfg.ServerAccount,
		logicProgram:  cfg.LogicProgram,
		confirmRounds: rounds,
	}, nil
}

// AccountID 返回账户标识
func (c *Client) AccountID() types.AccountID {
	return c.accountID
}

// Ledger 返回底层账本客户端
func (c *Client) Ledger() *ledger.Client {
	return c.ledger
}

package client

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/vexlabs/govex/venue/types"
)

// slotEntry 账户槽位表的一项
type slotEntry struct {
	InstrumentID string       `json:"instrument_id"`
	Slot         types.SlotID `json:"slot"`
}

// ensureCatalog 加载资产/市场目录和账户槽位表
// populate-once：首次成功加载后不再请求，也不会失效。
func (c *Client) ensureCatalog(ctx context.Context) error {
	c.catalogMu.Lock()
	defer c.catalogMu.Unlock()
	if c.catalogOK {
		return nil
	}

	var (
		instruments []types.Instrument
		markets     []types.Market
		slots       []slotEntry
	)
	// 三个只读目录请求互不依赖，并发发起后汇合
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.get(gctx, "/v1/instruments", &instruments) })
	g.Go(func() error { return c.get(gctx, "/v1/markets", &markets) })
	g.Go(func() error { return c.get(gctx, "/v1/accounts/"+c.accountID.String()+"/slots", &slots) })
	if err := g.Wait(); err != nil {
		return err
	}

	for _, ins := range instruments {
		c.instruments.SetOnce(ins.ID, ins)
	}
	for _, m := range markets {
		c.markets.SetOnce(m.ID, m)
	}
	for _, s := range slots {
		c.slots.SetOnce(s.InstrumentID, s.Slot)
	}

	c.catalogOK = true
	c.log.WithField("instruments", len(instruments)).Debug("目录已加载")
	return nil
}

// Instrument 按 ID 查找资产
func (c *Client) Instrument(ctx context.Context, id string) (types.Instrument, error) {
	if err := c.ensureCatalog(ctx); err != nil {
		return types.Instrument{}, err
	}
	ins, ok := c.instruments.Get(id)
	if !ok {
		return types.Instrument{}, errors.Wrap(ErrUnknownInstrument, id)
	}
	return ins, nil
}

// Market 按 ID 查找市场
func (c *Client) Market(ctx context.Context, id string) (types.Market, error) {
	if err := c.ensureCatalog(ctx); err != nil {
		return types.Market{}, err
	}
	m, ok := c.markets.Get(id)
	if !ok {
		return types.Market{}, errors.Wrap(ErrUnknownMarket, id)
	}
	return m, nil
}

// slotFor 解析资产在账户内的槽位编号
func (c *Client) slotFor(ctx context.Context, instrumentID string) (types.SlotID, error) {
	if err := c.ensureCatalog(ctx); err != nil {
		return 0, err
	}
	slot, ok := c.slots.Get(instrumentID)
	if !ok {
		return 0, errors.Wrapf(ErrUnknownInstrument, "%s 没有槽位", instrumentID)
	}
	return slot, nil
}

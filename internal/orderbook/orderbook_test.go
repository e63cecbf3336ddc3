package orderbook

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathanyu/limitbook/internal/domain"
)

func newOrder(id, owner uint64, side domain.Side, price, qty uint64) *domain.Order {
	now := time.Unix(0, int64(id)) // distinct, deterministic per-test timestamps
	return &domain.Order{
		ID:         id,
		OwnerID:    owner,
		Side:       side,
		Price:      price,
		Qty:        qty,
		TsReceived: now,
		TsExecuted: now,
	}
}

func seqFrom(n uint64) func() uint64 {
	return func() uint64 {
		n++
		return n
	}
}

func TestAddResting(t *testing.T) {
	b := NewBook()
	b.AddResting(newOrder(1, 1, domain.Sell, 10010, 1000))

	lvl, ok := b.Best(domain.Sell)
	require.True(t, ok)
	assert.Equal(t, uint64(10010), lvl.price)
	assert.Equal(t, uint64(1000), b.TotalQty(domain.Sell))
	assert.True(t, b.Has(1))
}

func TestAddMultipleOrdersSamePriceAggregates(t *testing.T) {
	b := NewBook()
	b.AddResting(newOrder(1, 1, domain.Sell, 10010, 500))
	b.AddResting(newOrder(2, 1, domain.Sell, 10010, 300))

	lvl, ok := b.Best(domain.Sell)
	require.True(t, ok)
	assert.Equal(t, uint64(800), lvl.totalQty)
}

func TestBestPriceTracking(t *testing.T) {
	b := NewBook()
	b.AddResting(newOrder(1, 1, domain.Buy, 9990, 100))
	b.AddResting(newOrder(2, 1, domain.Buy, 10000, 100))
	b.AddResting(newOrder(3, 1, domain.Buy, 9980, 100))

	lvl, ok := b.Best(domain.Buy)
	require.True(t, ok)
	assert.Equal(t, uint64(10000), lvl.price)

	b.AddResting(newOrder(4, 1, domain.Sell, 10050, 100))
	b.AddResting(newOrder(5, 1, domain.Sell, 10020, 100))
	alvl, ok := b.Best(domain.Sell)
	require.True(t, ok)
	assert.Equal(t, uint64(10020), alvl.price)
}

func TestRemoveRestingDropsEmptyLevel(t *testing.T) {
	b := NewBook()
	b.AddResting(newOrder(1, 1, domain.Buy, 9990, 100))

	removed, ok := b.RemoveResting(1)
	require.True(t, ok)
	assert.Equal(t, uint64(1), removed.ID)
	assert.False(t, b.Has(1))
	_, ok = b.Best(domain.Buy)
	assert.False(t, ok)
	assert.Equal(t, uint64(0), b.TotalQty(domain.Buy))
}

func TestRemoveRestingUnknownID(t *testing.T) {
	b := NewBook()
	_, ok := b.RemoveResting(999)
	assert.False(t, ok)
}

func TestReduceRestingPreservesQueuePosition(t *testing.T) {
	b := NewBook()
	b.AddResting(newOrder(1, 1, domain.Buy, 100, 50))
	b.AddResting(newOrder(2, 1, domain.Buy, 100, 50))

	ok := b.ReduceResting(1, 20)
	require.True(t, ok)

	lvl, _ := b.Best(domain.Buy)
	assert.Equal(t, uint64(70), lvl.totalQty)

	front := lvl.orders.Front().Value.(*domain.Order)
	assert.Equal(t, uint64(1), front.ID)
	assert.Equal(t, uint64(20), front.Qty)
}

func TestFillAgainstLevelFIFO(t *testing.T) {
	b := NewBook()
	b.AddResting(newOrder(1, 1, domain.Sell, 100, 30))
	b.AddResting(newOrder(2, 2, domain.Sell, 100, 50))

	incoming := newOrder(3, 3, domain.Buy, 100, 60)
	lvl, ok := b.Best(domain.Sell)
	require.True(t, ok)

	trades := b.FillAgainstLevel(lvl, incoming, seqFrom(0))
	require.Len(t, trades, 2)

	assert.Equal(t, uint64(1), trades[0].RestingOrderID)
	assert.Equal(t, uint64(30), trades[0].Qty)
	assert.Equal(t, uint64(2), trades[1].RestingOrderID)
	assert.Equal(t, uint64(30), trades[1].Qty)

	assert.Equal(t, uint64(0), incoming.Qty)
	assert.False(t, b.Has(1))
	assert.True(t, b.Has(2))
	remaining, _ := b.Lookup(2)
	assert.Equal(t, uint64(20), remaining.Qty)
	assert.Equal(t, uint64(20), b.TotalQty(domain.Sell))
}

func TestFillAgainstLevelDrainsLevel(t *testing.T) {
	b := NewBook()
	b.AddResting(newOrder(1, 1, domain.Sell, 100, 30))

	incoming := newOrder(2, 2, domain.Buy, 100, 100)
	lvl, ok := b.Best(domain.Sell)
	require.True(t, ok)

	trades := b.FillAgainstLevel(lvl, incoming, seqFrom(0))
	require.Len(t, trades, 1)
	assert.Equal(t, uint64(70), incoming.Qty)
	_, ok = b.Best(domain.Sell)
	assert.False(t, ok)
}

func TestSnapshot(t *testing.T) {
	b := NewBook()
	b.AddResting(newOrder(1, 1, domain.Buy, 9990, 100))
	b.AddResting(newOrder(2, 1, domain.Sell, 10010, 200))

	tob := b.Snapshot()
	assert.True(t, tob.HasBid)
	assert.Equal(t, uint64(9990), tob.BestBid)
	assert.Equal(t, uint64(100), tob.BidQty)
	assert.True(t, tob.HasAsk)
	assert.Equal(t, uint64(10010), tob.BestAsk)
	assert.Equal(t, uint64(200), tob.AskQty)

	mid, ok := tob.Mid()
	assert.True(t, ok)
	assert.Equal(t, uint64(10000), mid)

	spread, ok := tob.Spread()
	assert.True(t, ok)
	assert.Equal(t, uint64(20), spread)
}

func TestDepthOrdering(t *testing.T) {
	b := NewBook()
	b.AddResting(newOrder(1, 1, domain.Buy, 9990, 100))
	b.AddResting(newOrder(2, 1, domain.Buy, 10000, 100))
	b.AddResting(newOrder(3, 1, domain.Sell, 10050, 100))
	b.AddResting(newOrder(4, 1, domain.Sell, 10020, 100))

	bids, asks := b.Depth(0)
	require.Len(t, bids, 2)
	assert.Equal(t, uint64(10000), bids[0].Price)
	assert.Equal(t, uint64(9990), bids[1].Price)

	require.Len(t, asks, 2)
	assert.Equal(t, uint64(10020), asks[0].Price)
	assert.Equal(t, uint64(10050), asks[1].Price)
}

package portfolio

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathanyu/limitbook/internal/domain"
)

func newTestAccountant() *Accountant {
	return NewAccountant(decimal.NewFromFloat(0.01))
}

func trade(aggressorID, aggressorOwner uint64, aggressorSide domain.Side, restingID, restingOwner, price, qty uint64) domain.Trade {
	return domain.Trade{
		AggressorOrderID: aggressorID,
		AggressorOwnerID: aggressorOwner,
		AggressorSide:    aggressorSide,
		RestingOrderID:   restingID,
		RestingOwnerID:   restingOwner,
		Price:            price,
		Qty:              qty,
	}
}

func TestAccountantOpensLongPosition(t *testing.T) {
	a := newTestAccountant()
	a.OnTradeExecuted(trade(1, 100, domain.Buy, 2, 200, 10000, 10))

	buyer := a.Position(100)
	assert.Equal(t, int64(10), buyer.Qty)
	assert.True(t, buyer.AvgCost.Equal(decimal.NewFromFloat(100)))

	seller := a.Position(200)
	assert.Equal(t, int64(-10), seller.Qty)
	assert.True(t, seller.AvgCost.Equal(decimal.NewFromFloat(100)))
}

func TestAccountantAveragesCostOnAdditionalBuys(t *testing.T) {
	a := newTestAccountant()
	a.OnTradeExecuted(trade(1, 100, domain.Buy, 2, 200, 10000, 10)) // buy 10 @ 100.00
	a.OnTradeExecuted(trade(3, 100, domain.Buy, 4, 200, 11000, 10)) // buy 10 @ 110.00

	buyer := a.Position(100)
	assert.Equal(t, int64(20), buyer.Qty)
	assert.True(t, buyer.AvgCost.Equal(decimal.NewFromFloat(105)), "avg cost should be (100+110)/2 = 105, got %s", buyer.AvgCost)
}

func TestAccountantRealizesPnLOnClosingTrade(t *testing.T) {
	a := newTestAccountant()
	a.OnTradeExecuted(trade(1, 100, domain.Buy, 2, 200, 10000, 10)) // owner 100 buys 10 @ 100.00

	// owner 100 now sells 4 @ 120.00, closing part of the long at a profit
	a.OnTradeExecuted(trade(3, 300, domain.Buy, 4, 100, 12000, 4))

	pos := a.Position(100)
	assert.Equal(t, int64(6), pos.Qty)
	assert.True(t, pos.RealizedPnL.Equal(decimal.NewFromFloat(80)), "4 * (120-100) = 80, got %s", pos.RealizedPnL)
	assert.True(t, pos.AvgCost.Equal(decimal.NewFromFloat(100)), "avg cost of the remaining 6 units is unchanged")
}

func TestAccountantReversesPositionAcrossFlat(t *testing.T) {
	a := newTestAccountant()
	a.OnTradeExecuted(trade(1, 100, domain.Buy, 2, 200, 10000, 10)) // owner 100 long 10 @ 100.00

	// owner 100 sells 15: closes the long 10 and opens a short 5, all at 90.00
	a.OnTradeExecuted(trade(3, 300, domain.Buy, 4, 100, 9000, 15))

	pos := a.Position(100)
	assert.Equal(t, int64(-5), pos.Qty)
	assert.True(t, pos.RealizedPnL.Equal(decimal.NewFromFloat(-100)), "10 * (90-100) = -100, got %s", pos.RealizedPnL)
	assert.True(t, pos.AvgCost.Equal(decimal.NewFromFloat(90)), "new short opened at 90.00")
}

func TestAccountantUnrealizedPnL(t *testing.T) {
	a := newTestAccountant()
	a.OnTradeExecuted(trade(1, 100, domain.Buy, 2, 200, 10000, 10))

	pnl := a.UnrealizedPnL(100, 11000)
	assert.True(t, pnl.Equal(decimal.NewFromFloat(100)), "10 * (110-100) = 100, got %s", pnl)
}

func TestAccountantUnknownOwnerIsZero(t *testing.T) {
	a := newTestAccountant()
	pos := a.Position(999)
	require.Equal(t, uint64(999), pos.OwnerID)
	assert.Equal(t, int64(0), pos.Qty)
	assert.True(t, pos.RealizedPnL.IsZero())
}

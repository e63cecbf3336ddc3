// Package portfolio implements the P&L accountant spec.md lists as an
// out-of-scope collaborator: a per-owner position and realized/unrealized
// P&L tracker driven entirely by the engine's trade event stream.
package portfolio

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/nathanyu/limitbook/internal/domain"
)

// Position is one owner's running state. Qty is signed: positive is net
// long, negative is net short. AvgCost and RealizedPnL are money-valued,
// converted from engine ticks at the moment a trade is recorded.
type Position struct {
	OwnerID     uint64
	Qty         int64
	AvgCost     decimal.Decimal
	RealizedPnL decimal.Decimal
	Trades      uint64
}

// Accountant is an events.Observer tracking a Position per owner id. It
// needs a tick size to convert the engine's integer tick prices into
// currency; every money-valued field it reports is in that currency.
type Accountant struct {
	mu       sync.RWMutex
	tickSize decimal.Decimal
	byOwner  map[uint64]*Position
}

// NewAccountant creates an accountant that values one tick at tickSize
// units of currency (e.g. decimal.NewFromFloat(0.01) for cent ticks).
func NewAccountant(tickSize decimal.Decimal) *Accountant {
	return &Accountant{tickSize: tickSize, byOwner: make(map[uint64]*Position)}
}

func (a *Accountant) price(ticks uint64) decimal.Decimal {
	return decimal.NewFromInt(int64(ticks)).Mul(a.tickSize)
}

func (a *Accountant) position(ownerID uint64) *Position {
	p, ok := a.byOwner[ownerID]
	if !ok {
		p = &Position{OwnerID: ownerID}
		a.byOwner[ownerID] = p
	}
	return p
}

// Position returns a copy of an owner's current state, or the zero value
// if the owner has never traded.
func (a *Accountant) Position(ownerID uint64) Position {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if p, ok := a.byOwner[ownerID]; ok {
		return *p
	}
	return Position{OwnerID: ownerID}
}

// UnrealizedPnL values an owner's open position at a current market price
// (in ticks), average-cost method.
func (a *Accountant) UnrealizedPnL(ownerID uint64, marketPriceTicks uint64) decimal.Decimal {
	pos := a.Position(ownerID)
	if pos.Qty == 0 {
		return decimal.Zero
	}
	mkt := a.price(marketPriceTicks)
	delta := mkt.Sub(pos.AvgCost)
	return delta.Mul(decimal.NewFromInt(pos.Qty))
}

// OnTradeExecuted applies one fill's effect to both sides of the trade
// using the average-cost method: a fill that extends a position rolls its
// cost into the average; a fill that reduces or reverses a position
// realizes P&L against the existing average before adjusting it.
func (a *Accountant) OnTradeExecuted(trade domain.Trade) {
	a.mu.Lock()
	defer a.mu.Unlock()

	px := a.price(trade.Price)
	qty := int64(trade.Qty)

	aggressorQty := qty
	if trade.AggressorSide == domain.Sell {
		aggressorQty = -qty
	}
	a.applyFill(a.position(trade.AggressorOwnerID), aggressorQty, px)
	a.applyFill(a.position(trade.RestingOwnerID), -aggressorQty, px)
}

// applyFill moves a position by signed delta at price px. When delta
// extends the existing position (same sign, or opening from flat) the
// trade's cost rolls into the average. When it reduces or reverses the
// position, the closed portion realizes P&L against the prior average
// before the remainder (if any, on a reversal) opens a new average at px.
func (a *Accountant) applyFill(pos *Position, delta int64, px decimal.Decimal) {
	pos.Trades++
	qty := decimal.NewFromInt(delta)

	switch {
	case pos.Qty == 0 || sameSign(pos.Qty, delta):
		total := decimal.NewFromInt(pos.Qty)
		newTotal := total.Add(qty)
		if !newTotal.IsZero() {
			pos.AvgCost = pos.AvgCost.Mul(total.Abs()).Add(px.Mul(qty.Abs())).Div(newTotal.Abs())
		}
		pos.Qty += delta
	default:
		closing := delta
		if abs64(delta) > abs64(pos.Qty) {
			closing = -pos.Qty
		}
		pos.RealizedPnL = pos.RealizedPnL.Add(px.Sub(pos.AvgCost).Mul(decimal.NewFromInt(closing)).Neg())
		pos.Qty += closing
		remainder := delta - closing
		if remainder != 0 {
			pos.AvgCost = px
			pos.Qty += remainder
		} else if pos.Qty == 0 {
			pos.AvgCost = decimal.Zero
		}
	}
}

func sameSign(a, b int64) bool {
	return (a > 0 && b > 0) || (a < 0 && b < 0)
}

func abs64(a int64) int64 {
	if a < 0 {
		return -a
	}
	return a
}

// OnOrderAcknowledged, OnOrderCancelled, OnOrderModified, OnOrderRejected,
// and OnTopOfBookUpdate are not meaningful to a P&L accountant: it only
// cares about fills, not resting-order lifecycle or book depth.
func (a *Accountant) OnOrderAcknowledged(domain.Order)               {}
func (a *Accountant) OnOrderCancelled(uint64)                        {}
func (a *Accountant) OnOrderModified(domain.Order)                   {}
func (a *Accountant) OnOrderRejected(uint64, domain.RejectReason)    {}
func (a *Accountant) OnTopOfBookUpdate(domain.TopOfBook)             {}

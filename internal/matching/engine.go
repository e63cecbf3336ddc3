// Package matching implements the single-symbol matching engine: the
// cross loop, cancel, and cancel-and-replace modify, notifying a
// registered set of observers synchronously as it goes.
package matching

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nathanyu/limitbook/internal/domain"
	"github.com/nathanyu/limitbook/internal/events"
	"github.com/nathanyu/limitbook/internal/orderbook"
)

// RejectError is returned when a command cannot be applied. The same
// rejection is also delivered to observers via OnOrderRejected before the
// call returns it.
type RejectError struct {
	OrderID uint64
	Reason  domain.RejectReason
}

func (e *RejectError) Error() string {
	return fmt.Sprintf("order %d rejected: %s", e.OrderID, e.Reason)
}

// Engine is a single-symbol, single-threaded-cooperative matching engine.
// It holds no locks; a caller driving it from more than one goroutine must
// serialize calls itself, typically with internal/sequencer in front of
// it.
type Engine struct {
	book      *orderbook.Book
	observers *events.Registry
	execSeq   uint64
}

// NewEngine creates an empty engine reporting events to observers.
func NewEngine(observers *events.Registry) *Engine {
	return &Engine{book: orderbook.NewBook(), observers: observers}
}

func (e *Engine) nextExecID() uint64 {
	e.execSeq++
	return e.execSeq
}

// RegisterObserver adds an observer to the engine's notification list and
// returns the handle to unregister it with.
func (e *Engine) RegisterObserver(o events.Observer) uuid.UUID {
	return e.observers.Register(o)
}

// UnregisterObserver removes a previously registered observer.
func (e *Engine) UnregisterObserver(id uuid.UUID) {
	e.observers.Unregister(id)
}

// AddNow is Add with both timestamps set to the current wall clock.
func (e *Engine) AddNow(id, ownerID uint64, side domain.Side, price, qty uint64) error {
	now := time.Now()
	return e.Add(id, ownerID, side, price, qty, now, now)
}

// Add submits a new order. qty must be non-zero and id must not already
// be known to the book. The order crosses against the opposite ladder
// first; any residual then comes to rest.
func (e *Engine) Add(id, ownerID uint64, side domain.Side, price, qty uint64, tsReceived, tsExecuted time.Time) error {
	if qty == 0 {
		return e.reject(id, domain.InvalidQuantity)
	}
	if e.book.Has(id) {
		return e.reject(id, domain.DuplicateID)
	}

	order := &domain.Order{
		ID: id, OwnerID: ownerID, Side: side, Price: price, Qty: qty,
		TsReceived: tsReceived, TsExecuted: tsExecuted,
	}

	before := e.book.Snapshot()
	e.cross(order)

	if order.Qty > 0 {
		e.book.AddResting(order)
		e.observers.NotifyAcknowledged(*order)
	}
	e.maybeNotifyTopOfBook(before)
	return nil
}

// Cancel removes a resting order. It is rejected with NotFound if id is
// not currently resting (including if it was never known, or has already
// been fully filled or cancelled).
func (e *Engine) Cancel(id uint64) error {
	if !e.book.Has(id) {
		return e.reject(id, domain.NotFound)
	}
	before := e.book.Snapshot()
	e.book.RemoveResting(id)
	e.observers.NotifyCancelled(id)
	e.maybeNotifyTopOfBook(before)
	return nil
}

// ModifyNow is Modify with the fresh timestamp set to the current wall
// clock.
func (e *Engine) ModifyNow(id uint64, newPrice, newQty uint64) error {
	return e.Modify(id, newPrice, newQty, time.Now())
}

// Modify changes a resting order's price and/or quantity by cancelling it
// and resubmitting it as a new order, except that a pure quantity
// reduction at the same price is applied in place to preserve the order's
// time priority. A price change or a quantity increase loses priority and
// re-enters the cross loop, which may produce trades before any residual
// rests again. now is used as the fresh ts_executed when priority is
// lost; it is ignored for a pure reduction, which keeps both of the
// order's original timestamps.
func (e *Engine) Modify(id uint64, newPrice, newQty uint64, now time.Time) error {
	existing, ok := e.book.Lookup(id)
	if !ok {
		return e.reject(id, domain.NotFound)
	}
	if newQty == 0 {
		return e.reject(id, domain.InvalidQuantity)
	}

	before := e.book.Snapshot()

	if newPrice == existing.Price && newQty <= existing.Qty {
		e.book.ReduceResting(id, newQty)
		updated, _ := e.book.Lookup(id)
		e.observers.NotifyModified(*updated)
		e.maybeNotifyTopOfBook(before)
		return nil
	}

	side, ownerID, tsReceived := existing.Side, existing.OwnerID, existing.TsReceived
	e.book.RemoveResting(id)

	replacement := &domain.Order{
		ID: id, OwnerID: ownerID, Side: side, Price: newPrice, Qty: newQty,
		TsReceived: tsReceived, TsExecuted: now,
	}
	e.cross(replacement)

	if replacement.Qty > 0 {
		e.book.AddResting(replacement)
		e.observers.NotifyModified(*replacement)
	}
	e.maybeNotifyTopOfBook(before)
	return nil
}

// cross drains the opposite ladder against incoming until it is either
// exhausted or the best opposite price no longer crosses incoming's
// limit, emitting one TradeExecuted per fill as it goes.
func (e *Engine) cross(incoming *domain.Order) {
	for incoming.Qty > 0 {
		lvl, ok := e.book.Best(incoming.Side.Opposite())
		if !ok || !crosses(incoming.Side, incoming.Price, lvl.Price()) {
			break
		}
		trades := e.book.FillAgainstLevel(lvl, incoming, e.nextExecID)
		for _, t := range trades {
			e.observers.NotifyTrade(t)
		}
	}
}

func crosses(side domain.Side, incomingPrice, restingPrice uint64) bool {
	if side == domain.Buy {
		return incomingPrice >= restingPrice
	}
	return incomingPrice <= restingPrice
}

func (e *Engine) reject(id uint64, reason domain.RejectReason) error {
	e.observers.NotifyRejected(id, reason)
	return &RejectError{OrderID: id, Reason: reason}
}

func (e *Engine) maybeNotifyTopOfBook(before domain.TopOfBook) {
	after := e.book.Snapshot()
	if !before.Equal(after) {
		e.observers.NotifyTopOfBook(after)
	}
}

// TopOfBook returns the current best bid/ask snapshot.
func (e *Engine) TopOfBook() domain.TopOfBook {
	return e.book.Snapshot()
}

// TotalQty returns the sum of resting quantity on a side.
func (e *Engine) TotalQty(side domain.Side) uint64 {
	return e.book.TotalQty(side)
}

// Depth returns an aggregated view of both ladders, best price first.
func (e *Engine) Depth(depth int) (bids, asks []domain.PriceLevelView) {
	return e.book.Depth(depth)
}

package orderbook

import (
	"container/list"

	"github.com/nathanyu/limitbook/internal/domain"
)

// priceLevel is a FIFO queue of resting orders at a single price, plus a
// cached total quantity so the book can answer queries in O(1) without
// walking the queue.
type priceLevel struct {
	price    uint64
	orders   *list.List // of *domain.Order
	totalQty uint64
}

func newPriceLevel(price uint64) *priceLevel {
	return &priceLevel{price: price, orders: list.New()}
}

// enqueue appends an order to the tail of the queue, giving it the lowest
// time priority at this price.
func (l *priceLevel) enqueue(o *domain.Order) *list.Element {
	l.totalQty += o.Qty
	return l.orders.PushBack(o)
}

// remove drops an order from the queue given its element. It panics if the
// element is not in this level's queue: that is a corrupted back-reference,
// which the book's invariants make unreachable.
func (l *priceLevel) remove(elem *list.Element) {
	o := elem.Value.(*domain.Order)
	n := l.orders.Len()
	l.orders.Remove(elem)
	if l.orders.Len() == n {
		panic("orderbook: order not found in price level")
	}
	l.totalQty -= o.Qty
}

func (l *priceLevel) empty() bool {
	return l.orders.Len() == 0
}

// Price returns the level's price. Exported so callers outside this
// package that hold a level returned by Book can read it.
func (l *priceLevel) Price() uint64 { return l.price }

// TotalQty returns the level's cached resting quantity.
func (l *priceLevel) TotalQty() uint64 { return l.totalQty }

// fillUpTo consumes resting orders from the head of the queue against an
// incoming order, strictly in arrival order, until the incoming order is
// exhausted or the level is drained. Every touched maker produces exactly
// one trade at the maker's price. Makers reduced to zero quantity are
// popped from the queue here and their ids returned so the caller can drop
// them from the book's id index.
func (l *priceLevel) fillUpTo(incoming *domain.Order, nextExecID func() uint64) (trades []domain.Trade, filledIDs []uint64) {
	for incoming.Qty > 0 && l.orders.Len() > 0 {
		front := l.orders.Front()
		maker := front.Value.(*domain.Order)

		qty := incoming.Qty
		if maker.Qty < qty {
			qty = maker.Qty
		}

		incoming.Qty -= qty
		maker.Qty -= qty
		l.totalQty -= qty

		trades = append(trades, domain.Trade{
			ExecutionID:      nextExecID(),
			AggressorOrderID: incoming.ID,
			AggressorOwnerID: incoming.OwnerID,
			AggressorSide:    incoming.Side,
			RestingOrderID:   maker.ID,
			RestingOwnerID:   maker.OwnerID,
			Price:            maker.Price,
			Qty:              qty,
			TsReceived:       incoming.TsReceived,
			TsExecuted:       incoming.TsExecuted,
		})

		if maker.Qty == 0 {
			l.orders.Remove(front)
			filledIDs = append(filledIDs, maker.ID)
		}
	}
	return trades, filledIDs
}

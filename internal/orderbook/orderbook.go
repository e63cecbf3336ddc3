// Package orderbook implements the two-sided, price-time priority book for
// a single instrument: two price-ordered ladders and an id index over the
// orders resting on them.
package orderbook

import (
	"container/list"

	"github.com/google/btree"

	"github.com/nathanyu/limitbook/internal/domain"
)

// restingOrder is the book's private back-reference from an order id to
// its queue position, kept out of domain.Order so that type stays a plain,
// JSON-able value everywhere else in the repository.
type restingOrder struct {
	order *domain.Order
	elem  *list.Element
	level *priceLevel
}

// Book holds both ladders of a single instrument's order book: a bid
// ladder ordered by descending price and an ask ladder ordered by
// ascending price, plus a flat index for O(1) lookup/cancel by order id.
type Book struct {
	bids  *btree.BTreeG[*priceLevel]
	asks  *btree.BTreeG[*priceLevel]
	index map[uint64]*restingOrder

	bidQty uint64
	askQty uint64
}

// NewBook creates an empty book.
func NewBook() *Book {
	return &Book{
		bids:  btree.NewG(32, func(a, b *priceLevel) bool { return a.price > b.price }),
		asks:  btree.NewG(32, func(a, b *priceLevel) bool { return a.price < b.price }),
		index: make(map[uint64]*restingOrder),
	}
}

func (b *Book) ladder(side domain.Side) *btree.BTreeG[*priceLevel] {
	if side == domain.Buy {
		return b.bids
	}
	return b.asks
}

// Has reports whether an order id is currently resting in the book.
func (b *Book) Has(id uint64) bool {
	_, ok := b.index[id]
	return ok
}

// Lookup returns the resting order for an id without removing it.
func (b *Book) Lookup(id uint64) (*domain.Order, bool) {
	entry, ok := b.index[id]
	if !ok {
		return nil, false
	}
	return entry.order, true
}

// Best returns the best (highest bid / lowest ask) price level on a side,
// or false if that side is empty.
func (b *Book) Best(side domain.Side) (*priceLevel, bool) {
	return b.ladder(side).Min()
}

// TotalQty returns the sum of resting quantity across every price level on
// a side, maintained incrementally so the query is O(1).
func (b *Book) TotalQty(side domain.Side) uint64 {
	if side == domain.Buy {
		return b.bidQty
	}
	return b.askQty
}

func (b *Book) addQty(side domain.Side, qty uint64) {
	if side == domain.Buy {
		b.bidQty += qty
	} else {
		b.askQty += qty
	}
}

func (b *Book) subQty(side domain.Side, qty uint64) {
	if side == domain.Buy {
		b.bidQty -= qty
	} else {
		b.askQty -= qty
	}
}

// level returns the price level for (side, price), creating and inserting
// an empty one into the ladder if none exists yet.
func (b *Book) level(side domain.Side, price uint64) *priceLevel {
	tree := b.ladder(side)
	if existing, ok := tree.Get(&priceLevel{price: price}); ok {
		return existing
	}
	lvl := newPriceLevel(price)
	tree.ReplaceOrInsert(lvl)
	return lvl
}

// AddResting inserts an order as a new resting order at the tail of its
// price's FIFO queue and indexes it by id. The caller must already have
// verified the id is not a duplicate.
func (b *Book) AddResting(o *domain.Order) {
	lvl := b.level(o.Side, o.Price)
	elem := lvl.enqueue(o)
	b.index[o.ID] = &restingOrder{order: o, elem: elem, level: lvl}
	b.addQty(o.Side, o.Qty)
}

// RemoveResting removes a resting order by id, dropping its price level
// from the ladder if that was the last order there. It returns the
// removed order, or false if the id is not currently resting.
func (b *Book) RemoveResting(id uint64) (*domain.Order, bool) {
	entry, ok := b.index[id]
	if !ok {
		return nil, false
	}
	entry.level.remove(entry.elem)
	delete(b.index, id)
	b.subQty(entry.order.Side, entry.order.Qty)
	if entry.level.empty() {
		b.ladder(entry.order.Side).Delete(entry.level)
	}
	return entry.order, true
}

// ReduceResting shrinks a resting order's quantity in place, preserving
// its position in the FIFO queue. It is the primitive behind a pure
// quantity-reduction modify, which spec.md §4.6 requires to keep time
// priority.
func (b *Book) ReduceResting(id uint64, newQty uint64) bool {
	entry, ok := b.index[id]
	if !ok {
		return false
	}
	delta := entry.order.Qty - newQty
	entry.order.Qty = newQty
	entry.level.totalQty -= delta
	b.subQty(entry.order.Side, delta)
	return true
}

// FillAgainstLevel matches incoming against the resting orders at lvl
// (which must belong to the ladder opposite incoming's side), removing
// fully-consumed makers from the book's id index and dropping the level
// from its ladder if it ends up empty. It returns the trades produced.
func (b *Book) FillAgainstLevel(lvl *priceLevel, incoming *domain.Order, nextExecID func() uint64) []domain.Trade {
	levelSide := incoming.Side.Opposite()
	before := lvl.totalQty
	trades, filledIDs := lvl.fillUpTo(incoming, nextExecID)
	consumed := before - lvl.totalQty
	b.subQty(levelSide, consumed)
	for _, id := range filledIDs {
		delete(b.index, id)
	}
	if lvl.empty() {
		b.ladder(levelSide).Delete(lvl)
	}
	return trades
}

// Snapshot returns the current best-price/quantity view of both ladders.
func (b *Book) Snapshot() domain.TopOfBook {
	var tob domain.TopOfBook
	if lvl, ok := b.bids.Min(); ok {
		tob.HasBid = true
		tob.BestBid = lvl.price
		tob.BidQty = lvl.totalQty
	}
	if lvl, ok := b.asks.Min(); ok {
		tob.HasAsk = true
		tob.BestAsk = lvl.price
		tob.AskQty = lvl.totalQty
	}
	return tob
}

// Depth returns up to depth aggregated price levels per side, bids ordered
// best-first (descending price) and asks ordered best-first (ascending
// price). depth<=0 means unlimited.
func (b *Book) Depth(depth int) (bids, asks []domain.PriceLevelView) {
	bids = collectLevels(b.bids, depth)
	asks = collectLevels(b.asks, depth)
	return bids, asks
}

func collectLevels(tree *btree.BTreeG[*priceLevel], depth int) []domain.PriceLevelView {
	var out []domain.PriceLevelView
	tree.Ascend(func(lvl *priceLevel) bool {
		out = append(out, domain.PriceLevelView{Price: lvl.price, Qty: lvl.totalQty})
		return depth <= 0 || len(out) < depth
	})
	return out
}

// Package domain holds the value types shared by the order book core and
// every adapter that sits on top of it.
package domain

import "time"

// Side identifies which ladder of the book an order belongs to.
type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Buy {
		return "buy"
	}
	return "sell"
}

// Opposite returns the other side of the book.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// RejectReason classifies why a command could not be applied.
type RejectReason int

const (
	// InvalidQuantity means a zero quantity was supplied to an add or a
	// modify.
	InvalidQuantity RejectReason = iota
	// DuplicateID means an add reused the id of an order currently resting
	// in the book.
	DuplicateID
	// NotFound means a cancel or modify referenced an order id the book
	// has no record of.
	NotFound
	// AlreadyConsumed means the order id existed but has already been
	// fully filled or cancelled. Callers should treat it identically to
	// NotFound; it exists only to make that case nameable in logs.
	AlreadyConsumed
)

func (r RejectReason) String() string {
	switch r {
	case InvalidQuantity:
		return "invalid_quantity"
	case DuplicateID:
		return "duplicate_id"
	case NotFound:
		return "not_found"
	case AlreadyConsumed:
		return "already_consumed"
	default:
		return "unknown"
	}
}

// Order is a resting or incoming limit order. Price and Qty are expressed
// in the instrument's fixed tick size; the core never interprets them as
// currency or fractional units.
type Order struct {
	ID         uint64
	OwnerID    uint64
	Side       Side
	Price      uint64
	Qty        uint64
	TsReceived time.Time
	TsExecuted time.Time
}

// Trade is a single fill produced by matching an incoming order against a
// resting one. It always executes at the resting (maker) order's price.
type Trade struct {
	ExecutionID      uint64
	AggressorOrderID uint64
	AggressorOwnerID uint64
	AggressorSide    Side
	RestingOrderID   uint64
	RestingOwnerID   uint64
	Price            uint64
	Qty              uint64
	TsReceived       time.Time
	TsExecuted       time.Time
}

// TopOfBook is a best-price/quantity snapshot of both ladders. HasBid/HasAsk
// are false when that side of the book is empty, in which case the
// corresponding price and quantity fields are zero and not meaningful.
type TopOfBook struct {
	BestBid uint64
	BidQty  uint64
	HasBid  bool
	BestAsk uint64
	AskQty  uint64
	HasAsk  bool
}

// Equal reports whether two snapshots carry the same observable state. The
// engine uses this to decide whether a TopOfBookUpdate is due.
func (t TopOfBook) Equal(o TopOfBook) bool {
	return t.BestBid == o.BestBid && t.BidQty == o.BidQty && t.HasBid == o.HasBid &&
		t.BestAsk == o.BestAsk && t.AskQty == o.AskQty && t.HasAsk == o.HasAsk
}

// Mid returns the midpoint price when both sides are present.
func (t TopOfBook) Mid() (uint64, bool) {
	if !t.HasBid || !t.HasAsk {
		return 0, false
	}
	return (t.BestBid + t.BestAsk) / 2, true
}

// PriceLevelView is a read-only aggregated view of one price level, used
// by depth snapshots and market-data sinks.
type PriceLevelView struct {
	Price uint64
	Qty   uint64
}

// Candlestick is one OHLCV bar built from the trade stream.
type Candlestick struct {
	Open, High, Low, Close uint64
	Volume                 uint64
	BucketStart            time.Time
	Interval               time.Duration
}

// Spread returns BestAsk-BestBid when both sides are present.
func (t TopOfBook) Spread() (uint64, bool) {
	if !t.HasBid || !t.HasAsk {
		return 0, false
	}
	return t.BestAsk - t.BestBid, true
}

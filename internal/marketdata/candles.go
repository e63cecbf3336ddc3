// Package marketdata implements the market-data listeners spec.md lists
// as out-of-scope collaborators: a candlestick publisher, a top-of-book
// CSV sink, and a WebSocket broadcaster, all driven by the engine's
// observer callbacks rather than a polling loop.
package marketdata

import (
	"sync"
	"time"

	"github.com/nathanyu/limitbook/internal/domain"
)

const ringBufferCapacity = 100

// RingBuffer is a fixed-size circular buffer of completed candles, kept
// from the teacher's own implementation — it is already the right data
// structure for "the last N completed bars" and needs no change beyond
// dropping the per-symbol map this single-instrument package has no use
// for.
type RingBuffer struct {
	data  [ringBufferCapacity]domain.Candlestick
	head  int
	count int
}

func (rb *RingBuffer) push(c domain.Candlestick) {
	rb.data[rb.head] = c
	rb.head = (rb.head + 1) % ringBufferCapacity
	if rb.count < ringBufferCapacity {
		rb.count++
	}
}

// Recent returns up to n of the most recently completed candles, oldest
// first.
func (rb *RingBuffer) Recent(n int) []domain.Candlestick {
	if n <= 0 || rb.count == 0 {
		return nil
	}
	if n > rb.count {
		n = rb.count
	}
	out := make([]domain.Candlestick, n)
	start := (rb.head - n + ringBufferCapacity) % ringBufferCapacity
	for i := 0; i < n; i++ {
		out[i] = rb.data[(start+i)%ringBufferCapacity]
	}
	return out
}

// CandlePublisher is an events.Observer building fixed-interval OHLCV bars
// from the trade stream. Unlike the teacher's ticker-driven rotation, a
// bucket closes the moment a trade's timestamp falls outside it — there
// is no background goroutine, matching the engine's synchronous callback
// contract.
type CandlePublisher struct {
	mu       sync.RWMutex
	interval time.Duration
	ring     RingBuffer
	current  domain.Candlestick
	open     bool
}

// NewCandlePublisher creates a publisher bucketing trades into bars of
// the given interval (e.g. time.Minute).
func NewCandlePublisher(interval time.Duration) *CandlePublisher {
	return &CandlePublisher{interval: interval}
}

func (p *CandlePublisher) bucketOf(ts time.Time) time.Time {
	return ts.Truncate(p.interval)
}

// OnTradeExecuted folds one trade into the current bar, rotating the
// previous bar into the ring buffer first if the trade belongs to a new
// bucket.
func (p *CandlePublisher) OnTradeExecuted(trade domain.Trade) {
	p.mu.Lock()
	defer p.mu.Unlock()

	bucket := p.bucketOf(trade.TsExecuted)
	if p.open && bucket.After(p.current.BucketStart) {
		p.ring.push(p.current)
		p.open = false
	}
	if !p.open {
		p.current = domain.Candlestick{
			Open: trade.Price, High: trade.Price, Low: trade.Price, Close: trade.Price,
			Volume: trade.Qty, BucketStart: bucket, Interval: p.interval,
		}
		p.open = true
		return
	}

	if trade.Price > p.current.High {
		p.current.High = trade.Price
	}
	if trade.Price < p.current.Low {
		p.current.Low = trade.Price
	}
	p.current.Close = trade.Price
	p.current.Volume += trade.Qty
}

// Recent returns up to n completed candles plus the candle currently
// being built, oldest first.
func (p *CandlePublisher) Recent(n int) []domain.Candlestick {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := p.ring.Recent(n)
	if p.open {
		out = append(out, p.current)
	}
	return out
}

func (p *CandlePublisher) OnOrderAcknowledged(domain.Order)            {}
func (p *CandlePublisher) OnOrderCancelled(uint64)                     {}
func (p *CandlePublisher) OnOrderModified(domain.Order)                {}
func (p *CandlePublisher) OnOrderRejected(uint64, domain.RejectReason) {}
func (p *CandlePublisher) OnTopOfBookUpdate(domain.TopOfBook)          {}

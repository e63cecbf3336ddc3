package marketdata

import (
	"encoding/csv"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/nathanyu/limitbook/internal/domain"
)

var csvHeader = []string{"timestamp_ns", "best_bid", "best_ask", "bid_qty", "ask_qty", "mid", "spread"}

// CSVSink is an events.Observer writing one row per top-of-book change,
// grounded on the original tracker's snapshot shape. No third-party CSV
// library appears anywhere in the retrieved pack for this kind of flat
// tabular sink, so this uses the standard library's encoding/csv.
type CSVSink struct {
	mu  sync.Mutex
	w   *csv.Writer
	now func() time.Time
}

// NewCSVSink wraps dst (typically an *os.File) with a buffered CSV
// writer and writes the header row immediately.
func NewCSVSink(dst io.Writer, now func() time.Time) *CSVSink {
	w := csv.NewWriter(dst)
	_ = w.Write(csvHeader)
	w.Flush()
	return &CSVSink{w: w, now: now}
}

// OnTopOfBookUpdate writes one row per change. The caller is responsible
// for checking Close/flush semantics of dst; CSVSink flushes after every
// row so a reader tailing the file always sees the latest snapshot.
func (s *CSVSink) OnTopOfBookUpdate(tob domain.TopOfBook) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var bid, ask, bidQty, askQty, mid, spread string
	if tob.HasBid {
		bid = strconv.FormatUint(tob.BestBid, 10)
		bidQty = strconv.FormatUint(tob.BidQty, 10)
	}
	if tob.HasAsk {
		ask = strconv.FormatUint(tob.BestAsk, 10)
		askQty = strconv.FormatUint(tob.AskQty, 10)
	}
	if m, ok := tob.Mid(); ok {
		mid = strconv.FormatUint(m, 10)
	}
	if sp, ok := tob.Spread(); ok {
		spread = strconv.FormatUint(sp, 10)
	}

	_ = s.w.Write([]string{
		strconv.FormatInt(s.now().UnixNano(), 10),
		bid, ask, bidQty, askQty, mid, spread,
	})
	s.w.Flush()
}

func (s *CSVSink) OnTradeExecuted(domain.Trade)                   {}
func (s *CSVSink) OnOrderAcknowledged(domain.Order)               {}
func (s *CSVSink) OnOrderCancelled(uint64)                        {}
func (s *CSVSink) OnOrderModified(domain.Order)                   {}
func (s *CSVSink) OnOrderRejected(uint64, domain.RejectReason)    {}

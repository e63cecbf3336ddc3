package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathanyu/limitbook/internal/domain"
	"github.com/nathanyu/limitbook/internal/events"
	"github.com/nathanyu/limitbook/internal/matching"
	"github.com/nathanyu/limitbook/internal/sequencer"
)

func newTestConsumer(t *testing.T, symbol string, priceScale uint64) (*FeedConsumer, *matching.Engine) {
	t.Helper()
	engine := matching.NewEngine(events.NewRegistry(nil))
	seq := sequencer.NewSequencer(engine, 8, nil)
	seq.Start()
	t.Cleanup(seq.Stop)
	return &FeedConsumer{seq: seq, symbol: symbol, priceScale: priceScale}, engine
}

func TestFeedConsumerTranslatesAdd(t *testing.T) {
	c, engine := newTestConsumer(t, "ABC", 1000)

	msg := `{"action":"add","symbol":"ABC","order_id":1,"owner_id":7,"side":"buy","price":10000000,"qty":50,"ts_nanos":1700000000000000000}`
	require.NoError(t, c.handle([]byte(msg)))

	assert.Equal(t, uint64(50), engine.TotalQty(domain.Buy))
	tob := engine.TopOfBook()
	require.True(t, tob.HasBid)
	assert.Equal(t, uint64(10000), tob.BestBid) // 10_000_000 / 1000 price scale
}

func TestFeedConsumerDropsOtherSymbols(t *testing.T) {
	c, engine := newTestConsumer(t, "ABC", 1000)

	msg := `{"action":"add","symbol":"XYZ","order_id":1,"owner_id":7,"side":"buy","price":10000000,"qty":50}`
	require.NoError(t, c.handle([]byte(msg)))

	assert.Equal(t, uint64(0), engine.TotalQty(domain.Buy))
}

func TestFeedConsumerCancelAndModify(t *testing.T) {
	c, engine := newTestConsumer(t, "ABC", 1)

	add := `{"action":"add","symbol":"ABC","order_id":1,"owner_id":7,"side":"sell","price":100,"qty":10}`
	require.NoError(t, c.handle([]byte(add)))
	assert.Equal(t, uint64(10), engine.TotalQty(domain.Sell))

	modify := `{"action":"modify","symbol":"ABC","order_id":1,"price":100,"qty":5}`
	require.NoError(t, c.handle([]byte(modify)))
	assert.Equal(t, uint64(5), engine.TotalQty(domain.Sell))

	cancel := `{"action":"cancel","symbol":"ABC","order_id":1}`
	require.NoError(t, c.handle([]byte(cancel)))
	assert.Equal(t, uint64(0), engine.TotalQty(domain.Sell))
}

func TestFeedConsumerRejectedCommandDoesNotError(t *testing.T) {
	c, engine := newTestConsumer(t, "ABC", 1)

	// Zero quantity is rejected by the engine, not by the adapter; handle
	// itself must not surface that as a decode/translate error, matching
	// how a dropped feed message is logged and skipped rather than
	// treated as fatal.
	msg := `{"action":"add","symbol":"ABC","order_id":1,"owner_id":7,"side":"buy","price":100,"qty":0}`
	require.NoError(t, c.handle([]byte(msg)))
	assert.Equal(t, uint64(0), engine.TotalQty(domain.Buy))
}

func TestFeedConsumerRejectsUnknownAction(t *testing.T) {
	c, _ := newTestConsumer(t, "ABC", 1)

	err := c.handle([]byte(`{"action":"replace","symbol":"ABC","order_id":1}`))
	require.Error(t, err)
}

func TestFeedConsumerRejectsUnknownSide(t *testing.T) {
	c, _ := newTestConsumer(t, "ABC", 1)

	err := c.handle([]byte(`{"action":"add","symbol":"ABC","order_id":1,"side":"hold","price":100,"qty":1}`))
	require.Error(t, err)
}

func TestFeedConsumerNoPriceScaleIsIdentity(t *testing.T) {
	c, engine := newTestConsumer(t, "ABC", 0)

	msg := `{"action":"add","symbol":"ABC","order_id":1,"owner_id":1,"side":"buy","price":42,"qty":1}`
	require.NoError(t, c.handle([]byte(msg)))

	tob := engine.TopOfBook()
	require.True(t, tob.HasBid)
	assert.Equal(t, uint64(42), tob.BestBid)
}

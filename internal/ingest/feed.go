// Package ingest implements the market-data ingest adapter spec.md lists as
// an out-of-scope collaborator: it consumes an upstream exchange feed's
// add/cancel/modify messages and turns each into a sequencer.Command,
// scaling the feed's nano-precision prices down to the engine's integer
// ticks. Symbol filtering is the adapter's job; the core never sees a
// symbol field at all.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/nathanyu/limitbook/internal/domain"
	"github.com/nathanyu/limitbook/internal/logging"
	"github.com/nathanyu/limitbook/internal/sequencer"
)

// Action identifies which of the upstream feed's three message kinds a
// FeedMessage carries.
type Action string

const (
	ActionAdd    Action = "add"
	ActionCancel Action = "cancel"
	ActionModify Action = "modify"
)

// FeedMessage is the JSON envelope the upstream feed publishes. Price is
// nano-precision (10^-9 currency units per whole unit); the consumer
// divides it by PriceScale to get the engine's integer ticks. Symbol
// routes a multi-instrument upstream feed to this single-symbol engine;
// messages for any other symbol are dropped.
type FeedMessage struct {
	Action  Action `json:"action"`
	Symbol  string `json:"symbol"`
	OrderID uint64 `json:"order_id"`
	OwnerID uint64 `json:"owner_id"`
	Side    string `json:"side"`
	Price   uint64 `json:"price"`
	Qty     uint64 `json:"qty"`
	TsNanos int64  `json:"ts_nanos"`
}

// FeedConsumer reads FeedMessages off a Kafka topic and submits the
// corresponding sequencer.Command to the engine in front of it, one
// message at a time, per spec.md §5's single-consumer requirement.
type FeedConsumer struct {
	reader     *kafka.Reader
	seq        *sequencer.Sequencer
	symbol     string
	priceScale uint64
	log        *logging.Logger
}

// Config holds the knobs a FeedConsumer needs beyond the Sequencer it
// feeds.
type Config struct {
	Brokers    []string
	Topic      string
	GroupID    string
	Symbol     string
	PriceScale uint64
}

// NewFeedConsumer creates a consumer reading cfg.Topic from cfg.Brokers as
// consumer group cfg.GroupID, submitting translated commands to seq.
func NewFeedConsumer(cfg Config, seq *sequencer.Sequencer, log *logging.Logger) *FeedConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: cfg.Brokers,
		Topic:   cfg.Topic,
		GroupID: cfg.GroupID,
	})
	return &FeedConsumer{reader: reader, seq: seq, symbol: cfg.Symbol, priceScale: cfg.PriceScale, log: log}
}

// Run blocks, reading and applying messages until ctx is cancelled or the
// reader returns a fatal error. It is meant to be driven from its own
// goroutine.
func (c *FeedConsumer) Run(ctx context.Context) error {
	if c.log != nil {
		c.log.Sugar().Infow("feed consumer started", "topic", c.reader.Config().Topic, "symbol", c.symbol)
	}
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("ingest: read message: %w", err)
		}
		if err := c.handle(msg.Value); err != nil && c.log != nil {
			c.log.Sugar().Warnw("dropping unprocessable feed message", "error", err)
		}
	}
}

// Close releases the underlying Kafka reader.
func (c *FeedConsumer) Close() error {
	return c.reader.Close()
}

func (c *FeedConsumer) handle(raw []byte) error {
	var fm FeedMessage
	if err := json.Unmarshal(raw, &fm); err != nil {
		return fmt.Errorf("decode feed message: %w", err)
	}
	if fm.Symbol != "" && fm.Symbol != c.symbol {
		return nil
	}

	cmd, err := c.translate(fm)
	if err != nil {
		return err
	}

	if err := c.seq.Submit(cmd); err != nil {
		if c.log != nil {
			c.log.Sugar().Warnw("feed command rejected", "order_id", fm.OrderID, "action", fm.Action, "error", err)
		}
	}
	return nil
}

func (c *FeedConsumer) translate(fm FeedMessage) (*sequencer.Command, error) {
	ticks := c.toTicks(fm.Price)
	ts := time.Unix(0, fm.TsNanos)

	switch fm.Action {
	case ActionAdd:
		side, err := parseSide(fm.Side)
		if err != nil {
			return nil, err
		}
		return sequencer.NewAdd(fm.OrderID, fm.OwnerID, side, ticks, fm.Qty, ts, ts), nil
	case ActionCancel:
		return sequencer.NewCancel(fm.OrderID), nil
	case ActionModify:
		return sequencer.NewModify(fm.OrderID, ticks, fm.Qty, ts), nil
	default:
		return nil, fmt.Errorf("unknown feed action %q", fm.Action)
	}
}

// toTicks scales a nano-precision upstream price down to the engine's
// integer tick size. Conversion happens here and only here; the core
// never interprets ticks as currency, per spec.md §9.
func (c *FeedConsumer) toTicks(nanoPrice uint64) uint64 {
	if c.priceScale == 0 {
		return nanoPrice
	}
	return nanoPrice / c.priceScale
}

func parseSide(s string) (domain.Side, error) {
	switch s {
	case "buy", "b", "1":
		return domain.Buy, nil
	case "sell", "s", "2":
		return domain.Sell, nil
	default:
		return 0, fmt.Errorf("unknown feed side %q", s)
	}
}

// Package sequencer provides the single-consumer command queue spec.md
// calls for in front of the matching engine: any number of producer
// goroutines can submit commands concurrently, but they are applied to
// the engine one at a time, from the sequencer's own goroutine, which is
// what lets the engine itself stay lock-free.
package sequencer

import (
	"sync/atomic"
	"time"

	"github.com/nathanyu/limitbook/internal/domain"
	"github.com/nathanyu/limitbook/internal/logging"
	"github.com/nathanyu/limitbook/internal/matching"
)

type kind int

const (
	kindAdd kind = iota
	kindCancel
	kindModify
)

// Command is one unit of work submitted to the sequencer.
type Command struct {
	kind kind

	orderID, ownerID   uint64
	side               domain.Side
	price, qty         uint64
	tsReceived, tsNow  time.Time

	reply chan error
}

// NewAdd builds an add command.
func NewAdd(orderID, ownerID uint64, side domain.Side, price, qty uint64, tsReceived, tsExecuted time.Time) *Command {
	return &Command{kind: kindAdd, orderID: orderID, ownerID: ownerID, side: side, price: price, qty: qty, tsReceived: tsReceived, tsNow: tsExecuted, reply: make(chan error, 1)}
}

// NewCancel builds a cancel command.
func NewCancel(orderID uint64) *Command {
	return &Command{kind: kindCancel, orderID: orderID, reply: make(chan error, 1)}
}

// NewModify builds a modify command. tsNow is used as the fresh
// ts_executed if the modify loses time priority.
func NewModify(orderID uint64, newPrice, newQty uint64, tsNow time.Time) *Command {
	return &Command{kind: kindModify, orderID: orderID, price: newPrice, qty: newQty, tsNow: tsNow, reply: make(chan error, 1)}
}

// Sequencer applies accepted commands to the engine on its own goroutine,
// one at a time, advancing a monotonically increasing inbound sequence
// counter for each command it applies.
type Sequencer struct {
	inboundSeq atomic.Uint64
	engine     *matching.Engine
	log        *logging.Logger

	in   chan *Command
	done chan struct{}
}

// NewSequencer creates a sequencer wired to engine. bufferSize sizes the
// inbound command channel.
func NewSequencer(engine *matching.Engine, bufferSize int, log *logging.Logger) *Sequencer {
	return &Sequencer{
		engine: engine,
		log:    log,
		in:     make(chan *Command, bufferSize),
		done:   make(chan struct{}),
	}
}

// Start begins the sequencer's single-consumer loop in a goroutine.
func (s *Sequencer) Start() {
	go s.run()
}

// Stop signals the loop to exit after draining any command already
// accepted.
func (s *Sequencer) Stop() {
	close(s.done)
}

// Submit enqueues a command and blocks until it has been applied to the
// engine, returning the same error Add/Cancel/Modify would have returned
// directly.
func (s *Sequencer) Submit(cmd *Command) error {
	s.in <- cmd
	return <-cmd.reply
}

func (s *Sequencer) run() {
	if s.log != nil {
		s.log.Info("sequencer started")
	}
	for {
		select {
		case cmd := <-s.in:
			s.apply(cmd)
		case <-s.done:
			for {
				select {
				case cmd := <-s.in:
					s.apply(cmd)
				default:
					if s.log != nil {
						s.log.Info("sequencer stopped")
					}
					return
				}
			}
		}
	}
}

func (s *Sequencer) apply(cmd *Command) {
	s.inboundSeq.Add(1)

	var err error
	switch cmd.kind {
	case kindAdd:
		err = s.engine.Add(cmd.orderID, cmd.ownerID, cmd.side, cmd.price, cmd.qty, cmd.tsReceived, cmd.tsNow)
	case kindCancel:
		err = s.engine.Cancel(cmd.orderID)
	case kindModify:
		err = s.engine.Modify(cmd.orderID, cmd.price, cmd.qty, cmd.tsNow)
	}
	cmd.reply <- err
}

// CurrentInboundSeq returns the number of commands applied so far.
func (s *Sequencer) CurrentInboundSeq() uint64 {
	return s.inboundSeq.Load()
}

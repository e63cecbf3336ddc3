package marketdata

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nathanyu/limitbook/internal/domain"
)

type subscription struct {
	ch chan Message
}

type hub struct {
	mu   sync.RWMutex
	subs map[*subscription]struct{}
}

func newHub() *hub {
	return &hub{subs: make(map[*subscription]struct{})}
}

func (h *hub) subscribe(buffer int) *subscription {
	sub := &subscription{ch: make(chan Message, buffer)}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

func (h *hub) unsubscribe(sub *subscription) {
	h.mu.Lock()
	delete(h.subs, sub)
	h.mu.Unlock()
	close(sub.ch)
}

func (h *hub) broadcast(msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs {
		select {
		case sub.ch <- msg:
		default:
			// slow subscriber: drop rather than block the caller, which is
			// the matching engine's own goroutine.
		}
	}
}

// Message is the envelope pushed to every WebSocket subscriber.
type Message struct {
	Kind  string          `json:"kind"`
	Trade *domain.Trade   `json:"trade,omitempty"`
	TOB   *domain.TopOfBook `json:"top_of_book,omitempty"`
}

// Broadcaster is an events.Observer fanning TradeExecuted and
// TopOfBookUpdate events out to any number of WebSocket subscribers,
// grounded on the pack's generic pub/sub hub pattern.
type Broadcaster struct {
	hub      *hub
	upgrader websocket.Upgrader
}

// NewBroadcaster creates an empty broadcaster. Origin checking is left to
// the caller's reverse proxy/gateway configuration, matching the pack's
// own permissive demo upgraders.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		hub:      newHub(),
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
	}
}

// ServeHTTP upgrades the connection and streams messages to it until the
// client disconnects or a write fails.
func (b *Broadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	sub := b.hub.subscribe(32)
	defer b.hub.unsubscribe(sub)

	for msg := range sub.ch {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

func (b *Broadcaster) OnTradeExecuted(trade domain.Trade) {
	b.hub.broadcast(Message{Kind: "trade", Trade: &trade})
}

func (b *Broadcaster) OnTopOfBookUpdate(tob domain.TopOfBook) {
	b.hub.broadcast(Message{Kind: "top_of_book", TOB: &tob})
}

func (b *Broadcaster) OnOrderAcknowledged(domain.Order)            {}
func (b *Broadcaster) OnOrderCancelled(uint64)                     {}
func (b *Broadcaster) OnOrderModified(domain.Order)                {}
func (b *Broadcaster) OnOrderRejected(uint64, domain.RejectReason) {}

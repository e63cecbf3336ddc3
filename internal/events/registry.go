package events

import (
	"sync"

	"github.com/google/uuid"

	"github.com/nathanyu/limitbook/internal/domain"
	"github.com/nathanyu/limitbook/internal/logging"
)

// Registry fans out engine events to every registered Observer, in
// registration order, and is the only thing in this repository that
// catches a panic: a misbehaving observer must not abort the command that
// triggered it.
type Registry struct {
	mu   sync.RWMutex
	ids  []uuid.UUID
	obs  map[uuid.UUID]Observer
	log  *logging.Logger
}

// NewRegistry creates an empty registry. log may be nil in tests; a nil
// logger silently drops the warning a recovered panic would otherwise
// produce.
func NewRegistry(log *logging.Logger) *Registry {
	return &Registry{obs: make(map[uuid.UUID]Observer), log: log}
}

// Register adds an observer and returns the handle to unregister it with.
func (r *Registry) Register(o Observer) uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := uuid.New()
	r.obs[id] = o
	r.ids = append(r.ids, id)
	return id
}

// Unregister removes a previously registered observer. It is a no-op if
// the handle is unknown (already unregistered, or never valid).
func (r *Registry) Unregister(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.obs[id]; !ok {
		return
	}
	delete(r.obs, id)
	for i, existing := range r.ids {
		if existing == id {
			r.ids = append(r.ids[:i], r.ids[i+1:]...)
			break
		}
	}
}

func (r *Registry) snapshot() []Observer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Observer, 0, len(r.ids))
	for _, id := range r.ids {
		out = append(out, r.obs[id])
	}
	return out
}

func (r *Registry) guard(name string, fn func()) {
	defer func() {
		if rec := recover(); rec != nil && r.log != nil {
			r.log.Sugar().Warnw("observer panicked, continuing", "callback", name, "recover", rec)
		}
	}()
	fn()
}

// NotifyTrade delivers a TradeExecuted event to every observer.
func (r *Registry) NotifyTrade(trade domain.Trade) {
	for _, o := range r.snapshot() {
		o := o
		r.guard("OnTradeExecuted", func() { o.OnTradeExecuted(trade) })
	}
}

// NotifyAcknowledged delivers an OrderAcknowledged event.
func (r *Registry) NotifyAcknowledged(order domain.Order) {
	for _, o := range r.snapshot() {
		o := o
		r.guard("OnOrderAcknowledged", func() { o.OnOrderAcknowledged(order) })
	}
}

// NotifyCancelled delivers an OrderCancelled event.
func (r *Registry) NotifyCancelled(orderID uint64) {
	for _, o := range r.snapshot() {
		o := o
		r.guard("OnOrderCancelled", func() { o.OnOrderCancelled(orderID) })
	}
}

// NotifyModified delivers an OrderModified event.
func (r *Registry) NotifyModified(order domain.Order) {
	for _, o := range r.snapshot() {
		o := o
		r.guard("OnOrderModified", func() { o.OnOrderModified(order) })
	}
}

// NotifyRejected delivers an OrderRejected event.
func (r *Registry) NotifyRejected(orderID uint64, reason domain.RejectReason) {
	for _, o := range r.snapshot() {
		o := o
		r.guard("OnOrderRejected", func() { o.OnOrderRejected(orderID, reason) })
	}
}

// NotifyTopOfBook delivers a TopOfBookUpdate event.
func (r *Registry) NotifyTopOfBook(tob domain.TopOfBook) {
	for _, o := range r.snapshot() {
		o := o
		r.guard("OnTopOfBookUpdate", func() { o.OnTopOfBookUpdate(tob) })
	}
}

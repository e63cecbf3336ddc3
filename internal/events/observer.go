// Package events implements the synchronous observer protocol the
// matching engine notifies on every add, cancel, and modify.
package events

import "github.com/nathanyu/limitbook/internal/domain"

// Observer receives the engine's event stream. Every method is called
// synchronously, from inside the engine command that produced the event,
// on the engine's single logical thread of execution — an observer must
// not call back into the engine from within any of these methods.
type Observer interface {
	// OnTradeExecuted fires once per fill, in the order the fills occurred
	// within the triggering command.
	OnTradeExecuted(trade domain.Trade)
	// OnOrderAcknowledged fires when an order (or the residual of one)
	// comes to rest on the book.
	OnOrderAcknowledged(order domain.Order)
	// OnOrderCancelled fires when an order is removed from the book by an
	// explicit cancel.
	OnOrderCancelled(orderID uint64)
	// OnOrderModified fires when a modify leaves a residual resting on the
	// book, after any re-matching it triggered. It does not fire when the
	// residual is fully consumed by the re-match, nor on a rejected
	// modify.
	OnOrderModified(order domain.Order)
	// OnOrderRejected fires when a command could not be applied.
	OnOrderRejected(orderID uint64, reason domain.RejectReason)
	// OnTopOfBookUpdate fires at most once per command, only when the
	// best price or quantity on either side actually changed.
	OnTopOfBookUpdate(tob domain.TopOfBook)
}

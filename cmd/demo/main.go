// Command demo is a non-HTTP walkthrough of the matching engine's modify
// semantics, reproducing the upstream modify-order scenario step by step
// and printing the book's top-of-book after each step.
package main

import (
	"fmt"
	"time"

	"github.com/nathanyu/limitbook/internal/domain"
	"github.com/nathanyu/limitbook/internal/events"
	"github.com/nathanyu/limitbook/internal/matching"
)

func printTopOfBook(engine *matching.Engine, description string) {
	tob := engine.TopOfBook()
	fmt.Printf("\n%s:\n", description)

	if tob.HasBid {
		fmt.Printf("  Best Bid: %d (qty: %d)\n", tob.BestBid, tob.BidQty)
	} else {
		fmt.Println("  Best Bid: N/A")
	}
	if tob.HasAsk {
		fmt.Printf("  Best Ask: %d (qty: %d)\n", tob.BestAsk, tob.AskQty)
	} else {
		fmt.Println("  Best Ask: N/A")
	}
	fmt.Printf("  Total bid qty: %d, total ask qty: %d\n",
		engine.TotalQty(domain.Buy), engine.TotalQty(domain.Sell))
}

func main() {
	fmt.Println("=== Matching engine modify demonstration ===")

	engine := matching.NewEngine(events.NewRegistry(nil))
	now := time.Now()

	fmt.Println("\n1. Setting up initial orders:")
	mustAdd(engine, 1001, 1, domain.Buy, 100, 9900, now)
	mustAdd(engine, 1002, 2, domain.Buy, 200, 9850, now)
	mustAdd(engine, 2001, 3, domain.Sell, 150, 10100, now)
	mustAdd(engine, 2002, 4, domain.Sell, 100, 10200, now)
	printTopOfBook(engine, "Initial order book state")

	fmt.Println("\n2. Modifying order 1001 quantity from 100 to 75:")
	mustModify(engine, 1001, 9900, 75, now)
	printTopOfBook(engine, "After quantity reduction")

	fmt.Println("\n3. Modifying order 1001 quantity from 75 to 125:")
	mustModify(engine, 1001, 9900, 125, now)
	printTopOfBook(engine, "After quantity increase")

	fmt.Println("\n4. Modifying order 1001 price from 99.00 to 99.50 (no match):")
	mustModify(engine, 1001, 9950, 125, now)
	printTopOfBook(engine, "After price increase, no match")

	fmt.Println("\n5. Modifying order 1001 to cross the spread (price 10250):")
	mustModify(engine, 1001, 10250, 125, now)
	printTopOfBook(engine, "After matching modification")

	fmt.Println("\n6. Adding more orders:")
	mustAdd(engine, 3001, 5, domain.Buy, 50, 9800, now)
	mustAdd(engine, 3002, 6, domain.Sell, 75, 10150, now)
	printTopOfBook(engine, "After adding more orders")

	fmt.Println("\n7. Modifying sell order 3002 to price 9800 (should cause a full match):")
	mustModify(engine, 3002, 9800, 75, now)
	printTopOfBook(engine, "After aggressive price modification")

	fmt.Println("\n=== Demonstration complete ===")
}

func mustAdd(engine *matching.Engine, id, owner uint64, side domain.Side, qty, price uint64, ts time.Time) {
	if err := engine.Add(id, owner, side, price, qty, ts, ts); err != nil {
		panic(fmt.Sprintf("add %d: %v", id, err))
	}
}

func mustModify(engine *matching.Engine, id, newPrice, newQty uint64, ts time.Time) {
	if err := engine.Modify(id, newPrice, newQty, ts); err != nil {
		panic(fmt.Sprintf("modify %d: %v", id, err))
	}
}

// Package gateway exposes the matching engine's command/query API over
// HTTP, translating requests into sequencer.Command submissions and
// direct engine queries, generalized from the teacher's gin handlers.
package gateway

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nathanyu/limitbook/internal/domain"
	"github.com/nathanyu/limitbook/internal/matching"
	"github.com/nathanyu/limitbook/internal/sequencer"
)

// Gateway holds the HTTP handler dependencies.
type Gateway struct {
	seq    *sequencer.Sequencer
	engine *matching.Engine
}

// New creates a Gateway submitting commands through seq and answering
// queries directly from engine.
func New(seq *sequencer.Sequencer, engine *matching.Engine) *Gateway {
	return &Gateway{seq: seq, engine: engine}
}

// RegisterRoutes sets up the Gin routes.
func (g *Gateway) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", g.Health)

	v1 := r.Group("/v1")
	{
		v1.POST("/orders", g.PlaceOrder)
		v1.DELETE("/orders/:id", g.CancelOrder)
		v1.PATCH("/orders/:id", g.ModifyOrder)
		v1.GET("/book", g.GetTopOfBook)
		v1.GET("/book/l2", g.GetDepth)
	}
}

// Health returns a health check response.
func (g *Gateway) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "limitbook"})
}

func parseSide(s string) (domain.Side, error) {
	switch s {
	case "buy":
		return domain.Buy, nil
	case "sell":
		return domain.Sell, nil
	default:
		return 0, errors.New("side must be 'buy' or 'sell'")
	}
}

func parseOrderID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be a non-negative integer"})
		return 0, false
	}
	return id, true
}

// placeOrderRequest is the request body for POST /v1/orders.
type placeOrderRequest struct {
	OrderID uint64 `json:"order_id" binding:"required"`
	OwnerID uint64 `json:"owner_id" binding:"required"`
	Side    string `json:"side" binding:"required"`
	Price   uint64 `json:"price" binding:"required,gt=0"`
	Qty     uint64 `json:"qty" binding:"required,gt=0"`
}

// PlaceOrder handles POST /v1/orders.
func (g *Gateway) PlaceOrder(c *gin.Context) {
	var req placeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	side, err := parseSide(req.Side)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	now := time.Now()
	cmd := sequencer.NewAdd(req.OrderID, req.OwnerID, side, req.Price, req.Qty, now, now)
	if err := g.seq.Submit(cmd); err != nil {
		writeRejectError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"order_id": req.OrderID})
}

// CancelOrder handles DELETE /v1/orders/:id.
func (g *Gateway) CancelOrder(c *gin.Context) {
	id, ok := parseOrderID(c)
	if !ok {
		return
	}

	if err := g.seq.Submit(sequencer.NewCancel(id)); err != nil {
		writeRejectError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order_id": id, "status": "cancelled"})
}

// modifyOrderRequest is the request body for PATCH /v1/orders/:id.
type modifyOrderRequest struct {
	Price uint64 `json:"price" binding:"required,gt=0"`
	Qty   uint64 `json:"qty" binding:"required,gt=0"`
}

// ModifyOrder handles PATCH /v1/orders/:id.
func (g *Gateway) ModifyOrder(c *gin.Context) {
	id, ok := parseOrderID(c)
	if !ok {
		return
	}
	var req modifyOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cmd := sequencer.NewModify(id, req.Price, req.Qty, time.Now())
	if err := g.seq.Submit(cmd); err != nil {
		writeRejectError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order_id": id, "status": "modified"})
}

// GetTopOfBook handles GET /v1/book.
func (g *Gateway) GetTopOfBook(c *gin.Context) {
	tob := g.engine.TopOfBook()
	resp := gin.H{
		"has_bid": tob.HasBid,
		"has_ask": tob.HasAsk,
	}
	if tob.HasBid {
		resp["best_bid"] = tob.BestBid
		resp["bid_qty"] = tob.BidQty
	}
	if tob.HasAsk {
		resp["best_ask"] = tob.BestAsk
		resp["ask_qty"] = tob.AskQty
	}
	if mid, ok := tob.Mid(); ok {
		resp["mid"] = mid
	}
	if spread, ok := tob.Spread(); ok {
		resp["spread"] = spread
	}
	c.JSON(http.StatusOK, resp)
}

// GetDepth handles GET /v1/book/l2.
func (g *Gateway) GetDepth(c *gin.Context) {
	depth := 10
	if q := c.Query("depth"); q != "" {
		if n, err := strconv.Atoi(q); err == nil && n > 0 {
			depth = n
		}
	}

	bids, asks := g.engine.Depth(depth)
	c.JSON(http.StatusOK, gin.H{"bids": bids, "asks": asks})
}

func writeRejectError(c *gin.Context, err error) {
	var rejectErr *matching.RejectError
	if errors.As(err, &rejectErr) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":    rejectErr.Error(),
			"order_id": rejectErr.OrderID,
			"reason":   rejectErr.Reason.String(),
		})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

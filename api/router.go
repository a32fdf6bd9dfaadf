package api

import (
	"net/http"
	"strconv"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"pricebook/domain"
	"pricebook/orderbook"
)

const (
	defaultDepth = 20
	maxDepth     = 1000
)

// Books is the read side of the book store
type Books interface {
	Book(symbol string) (*orderbook.OrderBook, bool)
	Symbols() []string
}

type handler struct {
	books Books
}

type bestResponse struct {
	Symbol string   `json:"symbol"`
	Bid    []string `json:"bid"`
	Ask    []string `json:"ask"`
}

type depthResponse struct {
	Symbol string     `json:"symbol"`
	Bids   [][]string `json:"bids"`
	Asks   [][]string `json:"asks"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewRouter builds the HTTP query surface over books
func NewRouter(books Books, gatherer prometheus.Gatherer, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(ginzap.Ginzap(logger, time.RFC3339, true))
	router.Use(ginzap.RecoveryWithZap(logger, true))

	h := &handler{books: books}

	router.GET("/healthz", h.health)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	v1 := router.Group("/v1/books")
	{
		v1.GET("", h.listBooks)
		v1.GET("/:symbol/best", h.best)
		v1.GET("/:symbol/depth", h.depth)
		v1.GET("/:symbol/snapshot", h.snapshot)
	}

	return router
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handler) listBooks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"symbols": h.books.Symbols()})
}

// book resolves :symbol or writes a 404
func (h *handler) book(c *gin.Context) (*orderbook.OrderBook, bool) {
	symbol := c.Param("symbol")
	book, ok := h.books.Book(symbol)
	if !ok {
		c.JSON(http.StatusNotFound, errorResponse{Error: "unknown symbol " + symbol})
		return nil, false
	}
	return book, true
}

func (h *handler) best(c *gin.Context) {
	book, ok := h.book(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, bestResponse{
		Symbol: book.Symbol(),
		Bid:    domain.FormatLevel(book.GetBestBid()),
		Ask:    domain.FormatLevel(book.GetBestAsk()),
	})
}

func (h *handler) depth(c *gin.Context) {
	book, ok := h.book(c)
	if !ok {
		return
	}

	levels := defaultDepth
	if raw := c.Query("levels"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxDepth {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "levels must be between 1 and " + strconv.Itoa(maxDepth)})
			return
		}
		levels = n
	}

	bids, asks := book.GetDepth(levels)
	c.JSON(http.StatusOK, depthResponse{
		Symbol: book.Symbol(),
		Bids:   formatLevels(bids),
		Asks:   formatLevels(asks),
	})
}

func (h *handler) snapshot(c *gin.Context) {
	book, ok := h.book(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, book.ToSnapshot())
}

func formatLevels(levels []domain.PriceLevel) [][]string {
	out := make([][]string, len(levels))
	for i, l := range levels {
		out[i] = domain.FormatLevel(l)
	}
	return out
}

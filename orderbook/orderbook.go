package orderbook

import (
	"golang.org/x/sync/errgroup"

	"pricebook/domain"
)

// IOrderBook defines the read side of an order book
type IOrderBook interface {
	// Symbol returns the instrument the book belongs to
	Symbol() string

	// GetBestBid returns the highest bid level
	GetBestBid() domain.PriceLevel

	// GetBestAsk returns the lowest ask level
	GetBestAsk() domain.PriceLevel

	// GetDepth returns up to levels price levels per side, best first
	GetDepth(levels int) (bids, asks []domain.PriceLevel)

	// ToSnapshot serializes both sides in the exchange wire format
	ToSnapshot() domain.Snapshot
}

// OrderBook pairs the bid and ask ledgers of one symbol
// Bids and asks each carry their own lock, so the two sides can be updated
// concurrently. The ledgers are never handed out; all writes go through
// ApplyUpdates.
type OrderBook struct {
	symbol string
	bids   *PriceLedger // descending price
	asks   *PriceLedger // ascending price
}

var _ IOrderBook = (*OrderBook)(nil)

// NewOrderBook creates an empty order book for a symbol
func NewOrderBook(symbol string) *OrderBook {
	return NewOrderBookWithIndex(symbol, RedBlackType)
}

// NewOrderBookWithIndex creates an empty order book backed by the given index
func NewOrderBookWithIndex(symbol string, indexType IndexType) *OrderBook {
	return &OrderBook{
		symbol: symbol,
		bids:   NewPriceLedgerWithIndex(Descending, indexType),
		asks:   NewPriceLedgerWithIndex(Ascending, indexType),
	}
}

// Symbol returns the book's symbol
func (ob *OrderBook) Symbol() string {
	return ob.symbol
}

// GetBestBid returns the highest bid, or the zero level when there are no bids
func (ob *OrderBook) GetBestBid() domain.PriceLevel {
	return ob.bids.GetOptimalPrice()
}

// GetBestAsk returns the lowest ask, or the zero level when there are no asks
func (ob *OrderBook) GetBestAsk() domain.PriceLevel {
	return ob.asks.GetOptimalPrice()
}

// ApplyUpdates applies level changes in slice order, bids then asks
// A nil or empty slice leaves that side untouched.
func (ob *OrderBook) ApplyUpdates(bids, asks []domain.PriceLevel) {
	for _, l := range bids {
		ob.bids.Upsert(l)
	}
	for _, l := range asks {
		ob.asks.Upsert(l)
	}
}

// ApplyUpdatesParallel applies bid and ask changes on two goroutines and waits
// for both. Used to seed large snapshots.
func (ob *OrderBook) ApplyUpdatesParallel(bids, asks []domain.PriceLevel) {
	// Upsert cannot fail; the group is only the join point
	var g errgroup.Group
	g.Go(func() error {
		for _, l := range bids {
			ob.bids.Upsert(l)
		}
		return nil
	})
	g.Go(func() error {
		for _, l := range asks {
			ob.asks.Upsert(l)
		}
		return nil
	})
	_ = g.Wait()
}

// GetDepth returns the market depth
func (ob *OrderBook) GetDepth(levels int) (bids, asks []domain.PriceLevel) {
	return ob.bids.Depth(levels), ob.asks.Depth(levels)
}

// ToSnapshot converts the book back to a raw snapshot, best levels first
func (ob *OrderBook) ToSnapshot() domain.Snapshot {
	return domain.Snapshot{
		Bids: formatLevels(ob.bids.ToOrderedSequence()),
		Asks: formatLevels(ob.asks.ToOrderedSequence()),
	}
}

func formatLevels(levels []domain.PriceLevel) [][]string {
	raw := make([][]string, len(levels))
	for i, l := range levels {
		raw[i] = domain.FormatLevel(l)
	}
	return raw
}

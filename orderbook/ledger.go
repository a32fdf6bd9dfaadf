package orderbook

import (
	"math"
	"sync"

	"pricebook/domain"
)

// expectedLevels pre-sizes the quantity map for a typical exchange depth
const expectedLevels = 5000

// PriceLedger is one side (bids or asks) of a book
// Architecture: HashMap + ordered price index under one mutex
//
//   - quantities: price -> quantity, O(1) lookup and overwrite
//   - index: ordered set of the same prices, O(log n) insert/remove/best
//
// The map and the index always hold the same prices and every stored quantity
// is non-zero. Both are only touched with mu held.
type PriceLedger struct {
	mu         sync.Mutex
	direction  Direction
	quantities map[float64]float64
	index      priceIndex
}

// NewPriceLedger creates a ledger backed by the default red-black index
func NewPriceLedger(direction Direction) *PriceLedger {
	return NewPriceLedgerWithIndex(direction, RedBlackType)
}

// NewPriceLedgerWithIndex creates a ledger with the given index implementation
func NewPriceLedgerWithIndex(direction Direction, indexType IndexType) *PriceLedger {
	return &PriceLedger{
		direction:  direction,
		quantities: make(map[float64]float64, expectedLevels),
		index:      newPriceIndex(indexType, direction),
	}
}

// Direction returns the sort order of the side
func (pl *PriceLedger) Direction() Direction {
	return pl.direction
}

// Upsert sets or deletes the level keyed by its price
// Quantity 0 removes the price; removing a price that was never seen is a
// no-op since feeds can report deletes for levels the local book missed.
func (pl *PriceLedger) Upsert(level domain.PriceLevel) {
	if math.IsNaN(level.Price) {
		return
	}

	pl.mu.Lock()
	defer pl.mu.Unlock()

	_, exists := pl.quantities[level.Price]

	if level.Quantity == 0 {
		if exists {
			delete(pl.quantities, level.Price)
			pl.index.Remove(level.Price)
		}
		return
	}

	pl.quantities[level.Price] = level.Quantity
	if !exists {
		pl.index.Insert(level.Price)
	}
}

// GetOptimalPrice returns the best level: highest price for bids, lowest for
// asks. An empty side returns the zero PriceLevel.
func (pl *PriceLedger) GetOptimalPrice() domain.PriceLevel {
	pl.mu.Lock()
	defer pl.mu.Unlock()

	price, ok := pl.index.Best()
	if !ok {
		return domain.PriceLevel{}
	}
	return domain.PriceLevel{Price: price, Quantity: pl.quantities[price]}
}

// Quantity returns the resting quantity at price
func (pl *PriceLedger) Quantity(price float64) (float64, bool) {
	pl.mu.Lock()
	defer pl.mu.Unlock()

	q, ok := pl.quantities[price]
	return q, ok
}

// ToOrderedSequence copies every level, best first
func (pl *PriceLedger) ToOrderedSequence() []domain.PriceLevel {
	pl.mu.Lock()
	defer pl.mu.Unlock()

	return pl.collect(pl.index.Len())
}

// Depth copies at most maxLevels levels, best first
func (pl *PriceLedger) Depth(maxLevels int) []domain.PriceLevel {
	if maxLevels <= 0 {
		return nil
	}

	pl.mu.Lock()
	defer pl.mu.Unlock()

	return pl.collect(min(maxLevels, pl.index.Len()))
}

// Len returns the number of resting price levels
func (pl *PriceLedger) Len() int {
	pl.mu.Lock()
	defer pl.mu.Unlock()

	return pl.index.Len()
}

// collect must be called with mu held
func (pl *PriceLedger) collect(n int) []domain.PriceLevel {
	levels := make([]domain.PriceLevel, 0, n)
	if n == 0 {
		return levels
	}

	pl.index.Walk(func(price float64) bool {
		levels = append(levels, domain.PriceLevel{Price: price, Quantity: pl.quantities[price]})
		return len(levels) < n
	})
	return levels
}

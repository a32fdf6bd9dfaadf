package orderbook

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricebook/domain"
)

func scenarioBook(t *testing.T, it IndexType) *OrderBook {
	t.Helper()

	bids, dropped := domain.ToPriceLevels([][]string{
		{"0.0024", "14.70000000"},
		{"0.0022", "6.40000000"},
		{"0.0020", "9.70000000"},
	})
	require.Zero(t, dropped)
	asks, dropped := domain.ToPriceLevels([][]string{
		{"0.0024", "14.90000000"},
		{"0.0026", "3.60000000"},
		{"0.0028", "1.00000000"},
	})
	require.Zero(t, dropped)

	ob := NewOrderBookWithIndex("bnbbtc", it)
	ob.ApplyUpdates(bids, asks)
	return ob
}

func TestOrderBookEmpty(t *testing.T) {
	ob := NewOrderBook("ethbtc")

	assert.Equal(t, "ethbtc", ob.Symbol())
	assert.Equal(t, domain.PriceLevel{}, ob.GetBestBid())
	assert.Equal(t, domain.PriceLevel{}, ob.GetBestAsk())

	snap := ob.ToSnapshot()
	assert.NotNil(t, snap.Bids)
	assert.NotNil(t, snap.Asks)
	assert.Empty(t, snap.Bids)
	assert.Empty(t, snap.Asks)
}

func TestOrderBookBestPrices(t *testing.T) {
	forEachIndex(t, func(t *testing.T, it IndexType) {
		ob := scenarioBook(t, it)

		assert.Equal(t, domain.PriceLevel{Price: 0.0024, Quantity: 14.7}, ob.GetBestBid())
		assert.Equal(t, domain.PriceLevel{Price: 0.0024, Quantity: 14.9}, ob.GetBestAsk())
	})
}

// TestOrderBookNilSideUntouched a nil side in an update leaves that side as is
func TestOrderBookNilSideUntouched(t *testing.T) {
	ob := scenarioBook(t, RedBlackType)

	ob.ApplyUpdates([]domain.PriceLevel{{Price: 0.0024, Quantity: 0}}, nil)

	assert.Equal(t, domain.PriceLevel{Price: 0.0022, Quantity: 6.4}, ob.GetBestBid())
	assert.Equal(t, domain.PriceLevel{Price: 0.0024, Quantity: 14.9}, ob.GetBestAsk())
}

func TestOrderBookToSnapshot(t *testing.T) {
	forEachIndex(t, func(t *testing.T, it IndexType) {
		ob := scenarioBook(t, it)

		snap := ob.ToSnapshot()

		assert.Equal(t, [][]string{
			{"0.0024", "14.70000000"},
			{"0.0022", "6.40000000"},
			{"0.0020", "9.70000000"},
		}, snap.Bids)
		assert.Equal(t, [][]string{
			{"0.0024", "14.90000000"},
			{"0.0026", "3.60000000"},
			{"0.0028", "1.00000000"},
		}, snap.Asks)
	})
}

// TestOrderBookSnapshotReload a snapshot loaded into a fresh book reproduces it
func TestOrderBookSnapshotReload(t *testing.T) {
	ob := scenarioBook(t, RedBlackType)
	snap := ob.ToSnapshot()

	bids, _ := domain.ToPriceLevels(snap.Bids)
	asks, _ := domain.ToPriceLevels(snap.Asks)
	reloaded := NewOrderBook("bnbbtc")
	reloaded.ApplyUpdates(bids, asks)

	assert.Equal(t, snap, reloaded.ToSnapshot())
}

func TestOrderBookApplyUpdatesParallel(t *testing.T) {
	forEachIndex(t, func(t *testing.T, it IndexType) {
		bids := make([]domain.PriceLevel, 0, 2000)
		asks := make([]domain.PriceLevel, 0, 2000)
		for i := 1; i <= 2000; i++ {
			bids = append(bids, domain.PriceLevel{Price: float64(i), Quantity: 1})
			asks = append(asks, domain.PriceLevel{Price: float64(i + 2000), Quantity: 2})
		}

		serial := NewOrderBookWithIndex("x", it)
		serial.ApplyUpdates(bids, asks)
		parallel := NewOrderBookWithIndex("x", it)
		parallel.ApplyUpdatesParallel(bids, asks)

		assert.Equal(t, serial.ToSnapshot(), parallel.ToSnapshot())
		assert.Equal(t, domain.PriceLevel{Price: 2000, Quantity: 1}, parallel.GetBestBid())
		assert.Equal(t, domain.PriceLevel{Price: 2001, Quantity: 2}, parallel.GetBestAsk())
	})
}

func TestOrderBookGetDepth(t *testing.T) {
	ob := scenarioBook(t, RedBlackType)

	bids, asks := ob.GetDepth(2)

	assert.Equal(t, []domain.PriceLevel{
		{Price: 0.0024, Quantity: 14.7},
		{Price: 0.0022, Quantity: 6.4},
	}, bids)
	assert.Equal(t, []domain.PriceLevel{
		{Price: 0.0024, Quantity: 14.9},
		{Price: 0.0026, Quantity: 3.6},
	}, asks)

	bids, asks = ob.GetDepth(10)
	assert.Len(t, bids, 3)
	assert.Len(t, asks, 3)
}

// TestOrderBookConcurrentReaders readers never observe a torn side
func TestOrderBookConcurrentReaders(t *testing.T) {
	ob := NewOrderBook("x")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 1; i <= 2000; i++ {
			ob.ApplyUpdates(
				[]domain.PriceLevel{{Price: float64(i), Quantity: 1}},
				[]domain.PriceLevel{{Price: float64(10000 - i), Quantity: 1}},
			)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 2000; i++ {
			snap := ob.ToSnapshot()
			levels, dropped := domain.ToPriceLevels(snap.Bids)
			if dropped != 0 {
				t.Errorf("snapshot produced %d unparsable levels", dropped)
				return
			}
			for j := 1; j < len(levels); j++ {
				if levels[j-1].Price <= levels[j].Price {
					t.Errorf("bids out of order at %d", j)
					return
				}
			}
		}
	}()
	wg.Wait()

	assert.Equal(t, domain.PriceLevel{Price: 2000, Quantity: 1}, ob.GetBestBid())
	assert.Equal(t, domain.PriceLevel{Price: 8000, Quantity: 1}, ob.GetBestAsk())
}

package store

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"pricebook/dispatch"
	"pricebook/domain"
	"pricebook/metrics"
	"pricebook/orderbook"
)

// Store maps symbols to their current order book
// Snapshots replace a symbol's book wholesale; diffs go through the
// dispatcher. A diff racing a snapshot reload for the same symbol may land on
// either book.
type Store struct {
	books      sync.Map // symbol -> *orderbook.OrderBook
	dispatcher dispatch.Dispatcher
	indexType  orderbook.IndexType
	logger     *zap.Logger
}

// Option configures a Store
type Option func(*Store)

// WithLogger sets the store logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithIndexType selects the price index used for new books
func WithIndexType(t orderbook.IndexType) Option {
	return func(s *Store) {
		s.indexType = t
	}
}

// New creates an empty store that applies diffs through d
func New(d dispatch.Dispatcher, opts ...Option) *Store {
	s := &Store{
		dispatcher: d,
		indexType:  orderbook.RedBlackType,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadSnapshot builds a fresh book from snap and makes it the symbol's book
func (s *Store) LoadSnapshot(symbol string, snap domain.Snapshot) {
	s.loadSnapshot(symbol, snap, false)
}

// LoadSnapshotParallel is LoadSnapshot with both sides seeded concurrently
func (s *Store) LoadSnapshotParallel(symbol string, snap domain.Snapshot) {
	s.loadSnapshot(symbol, snap, true)
}

func (s *Store) loadSnapshot(symbol string, snap domain.Snapshot, parallel bool) {
	bids, droppedBids := domain.ToPriceLevels(snap.Bids)
	asks, droppedAsks := domain.ToPriceLevels(snap.Asks)
	if droppedBids > 0 || droppedAsks > 0 {
		metrics.LevelsDroppedTotal.WithLabelValues(metrics.SideBid).Add(float64(droppedBids))
		metrics.LevelsDroppedTotal.WithLabelValues(metrics.SideAsk).Add(float64(droppedAsks))
		s.logger.Warn("snapshot contained unparsable levels",
			zap.String("symbol", symbol),
			zap.Int("dropped", droppedBids+droppedAsks))
	}

	book := orderbook.NewOrderBookWithIndex(symbol, s.indexType)
	if parallel {
		book.ApplyUpdatesParallel(bids, asks)
	} else {
		book.ApplyUpdates(bids, asks)
	}

	// publish only once fully seeded
	s.books.Store(symbol, book)
	metrics.SnapshotsLoadedTotal.Inc()

	s.logger.Debug("loaded snapshot",
		zap.String("symbol", symbol),
		zap.Int("bids", len(bids)),
		zap.Int("asks", len(asks)))
}

// ApplyDiffUpdate hands update to the dispatcher
// A symbol without a snapshot gets an empty book. The only error is
// dispatch.ErrClosed.
func (s *Store) ApplyDiffUpdate(update domain.DiffUpdate) error {
	book, ok := s.Book(update.Symbol)
	if !ok {
		actual, loaded := s.books.LoadOrStore(update.Symbol,
			orderbook.NewOrderBookWithIndex(update.Symbol, s.indexType))
		book = actual.(*orderbook.OrderBook)
		if !loaded {
			s.logger.Debug("diff for unknown symbol, seeded empty book",
				zap.String("symbol", update.Symbol),
				zap.String("update_id", update.ID))
		}
	}
	return s.dispatcher.Dispatch(book, update)
}

// GetBestBidPrice returns the best bid, zero when the symbol is unknown
func (s *Store) GetBestBidPrice(symbol string) domain.PriceLevel {
	book, ok := s.Book(symbol)
	if !ok {
		return domain.PriceLevel{}
	}
	return book.GetBestBid()
}

// GetBestAskPrice returns the best ask, zero when the symbol is unknown
func (s *Store) GetBestAskPrice(symbol string) domain.PriceLevel {
	book, ok := s.Book(symbol)
	if !ok {
		return domain.PriceLevel{}
	}
	return book.GetBestAsk()
}

// GetSnapshot serializes the symbol's book, zero when the symbol is unknown
func (s *Store) GetSnapshot(symbol string) domain.Snapshot {
	book, ok := s.Book(symbol)
	if !ok {
		return domain.Snapshot{}
	}
	return book.ToSnapshot()
}

// Subscribe registers an observer with the dispatcher
func (s *Store) Subscribe(fn dispatch.Observer) {
	s.dispatcher.Subscribe(fn)
}

// AwaitDispatchedEvent returns a completion handle when the dispatcher
// applies updates asynchronously; ok is false otherwise.
func (s *Store) AwaitDispatchedEvent(symbol, id string) (*dispatch.Completion, bool) {
	a, ok := s.dispatcher.(dispatch.Awaiter)
	if !ok {
		return nil, false
	}
	return a.AwaitDispatchedEvent(symbol, id), true
}

// Book returns the symbol's current book
func (s *Store) Book(symbol string) (*orderbook.OrderBook, bool) {
	v, ok := s.books.Load(symbol)
	if !ok {
		return nil, false
	}
	return v.(*orderbook.OrderBook), true
}

// Symbols returns every known symbol, sorted
func (s *Store) Symbols() []string {
	symbols := make([]string, 0)
	s.books.Range(func(k, _ any) bool {
		symbols = append(symbols, k.(string))
		return true
	})
	sort.Strings(symbols)
	return symbols
}

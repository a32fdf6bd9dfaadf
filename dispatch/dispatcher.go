package dispatch

import (
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"pricebook/domain"
	"pricebook/metrics"
	"pricebook/orderbook"
)

// ErrClosed is returned by Dispatch once the dispatcher has been closed
var ErrClosed = errors.New("dispatch: dispatcher closed")

// Observer is notified after an update has been applied to its book
// Observers run on the goroutine that applied the update and must not block.
type Observer func(update domain.DiffUpdate)

// Dispatcher applies diff updates to books
type Dispatcher interface {
	// Dispatch applies update to book, now or later depending on the strategy
	Dispatch(book *orderbook.OrderBook, update domain.DiffUpdate) error

	// Subscribe registers an observer for every applied update
	Subscribe(fn Observer)
}

// Awaiter is implemented by dispatchers that apply updates asynchronously
type Awaiter interface {
	// AwaitDispatchedEvent returns a handle resolved once the update with the
	// given id has been applied to the symbol's book
	AwaitDispatchedEvent(symbol, id string) *Completion
}

// Option configures a dispatcher
type Option func(*options)

type options struct {
	logger *zap.Logger
}

// WithLogger sets the logger used for dropped levels and observer panics
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// applier is the part both strategies share: parse, apply, count, notify
type applier struct {
	name   string
	logger *zap.Logger

	observers atomic.Value // []Observer, copy-on-write
	mu        sync.Mutex   // serializes Subscribe
}

func newApplier(name string, logger *zap.Logger) *applier {
	a := &applier{
		name:   name,
		logger: logger.With(zap.String("dispatcher", name)),
	}
	a.observers.Store([]Observer(nil))
	return a
}

// Subscribe adds an observer; updates already applied are not replayed
func (a *applier) Subscribe(fn Observer) {
	if fn == nil {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	current := a.observers.Load().([]Observer)
	next := make([]Observer, len(current), len(current)+1)
	copy(next, current)
	a.observers.Store(append(next, fn))
}

func (a *applier) apply(book *orderbook.OrderBook, update domain.DiffUpdate) {
	bids, droppedBids := domain.ToPriceLevels(update.Bids)
	asks, droppedAsks := domain.ToPriceLevels(update.Asks)
	if droppedBids > 0 || droppedAsks > 0 {
		metrics.LevelsDroppedTotal.WithLabelValues(metrics.SideBid).Add(float64(droppedBids))
		metrics.LevelsDroppedTotal.WithLabelValues(metrics.SideAsk).Add(float64(droppedAsks))
		a.logger.Debug("skipped unparsable levels",
			zap.String("symbol", update.Symbol),
			zap.String("update_id", update.ID),
			zap.Int("dropped", droppedBids+droppedAsks))
	}

	book.ApplyUpdates(bids, asks)
	metrics.DiffUpdatesAppliedTotal.WithLabelValues(a.name).Inc()

	for _, fn := range a.observers.Load().([]Observer) {
		a.notify(fn, update)
	}
}

// notify runs one observer; a panic is logged and swallowed so the caller
// keeps processing
func (a *applier) notify(fn Observer, update domain.DiffUpdate) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("observer panicked",
				zap.String("symbol", update.Symbol),
				zap.String("update_id", update.ID),
				zap.Any("panic", r))
		}
	}()
	fn(update)
}

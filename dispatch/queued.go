package dispatch

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"pricebook/domain"
	"pricebook/metrics"
	"pricebook/orderbook"
)

// Queued applies updates asynchronously, one worker goroutine per symbol
// Architecture:
//   - Each worker owns ONE symbol and an unbounded FIFO of (book, update) jobs
//   - Dispatch only enqueues, it never waits for the worker
//   - Per symbol, updates apply in Dispatch order; symbols run independently
//
// Worker lookup uses atomic.Value for lock-free reads:
//   - atomic.Value stores an immutable map[string]*worker
//   - Write path is copy-on-write under mu, only taken for a new symbol
type Queued struct {
	*applier

	workers     atomic.Value // map[string]*worker, copy-on-write
	mu          sync.Mutex   // guards worker creation and closed
	closed      atomic.Bool
	completions *completionRegistry
}

var (
	_ Dispatcher = (*Queued)(nil)
	_ Awaiter    = (*Queued)(nil)
)

// worker drains one symbol's queue
type worker struct {
	symbol string
	queue  *updateQueue
	done   chan struct{}
}

// NewQueued creates an asynchronous per-symbol dispatcher
func NewQueued(opts ...Option) *Queued {
	o := buildOptions(opts)
	q := &Queued{
		applier:     newApplier("queued", o.logger),
		completions: newCompletionRegistry(),
	}
	q.workers.Store(make(map[string]*worker))
	return q
}

// Dispatch enqueues update for book and returns immediately
// The update is applied to this book even if the store has swapped in a new
// one for the symbol by the time the worker gets to it.
func (q *Queued) Dispatch(book *orderbook.OrderBook, update domain.DiffUpdate) error {
	w, err := q.worker(update.Symbol)
	if err != nil {
		return err
	}

	metrics.PendingUpdates.Inc()
	if !w.queue.push(job{book: book, update: update}) {
		metrics.PendingUpdates.Dec()
		return ErrClosed
	}
	return nil
}

// worker returns the worker for a symbol (creates and starts it if not exists)
func (q *Queued) worker(symbol string) (*worker, error) {
	// Fast path: lock-free read
	workers := q.workers.Load().(map[string]*worker)
	if w, ok := workers[symbol]; ok {
		return w, nil
	}

	// Slow path: first update for this symbol
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed.Load() {
		return nil, ErrClosed
	}

	// Double-check: another goroutine might have created it
	workers = q.workers.Load().(map[string]*worker)
	if w, ok := workers[symbol]; ok {
		return w, nil
	}

	w := &worker{
		symbol: symbol,
		queue:  newUpdateQueue(),
		done:   make(chan struct{}),
	}
	go q.run(w)

	next := make(map[string]*worker, len(workers)+1)
	for k, v := range workers {
		next[k] = v
	}
	next[symbol] = w
	q.workers.Store(next)

	metrics.DispatchWorkers.Inc()
	q.logger.Debug("started worker", zap.String("symbol", symbol))

	return w, nil
}

// run is the consumer loop of one worker
func (q *Queued) run(w *worker) {
	defer func() {
		metrics.DispatchWorkers.Dec()
		close(w.done)
	}()

	var spare []job
	for {
		batch, closed := w.queue.drain(spare)
		if len(batch) == 0 {
			if closed {
				return
			}
			<-w.queue.signal
			continue
		}

		for i := range batch {
			j := &batch[i]
			q.apply(j.book, j.update)
			q.completions.resolve(completionKey{symbol: w.symbol, id: j.update.ID})
			metrics.PendingUpdates.Dec()
		}

		// drop references before the slice is reused
		clear(batch)
		spare = batch
	}
}

// AwaitDispatchedEvent returns the handle for an update, creating it if needed
// The handle may be requested before the update is dispatched. A handle
// requested after its update was applied never resolves; use Release or a
// context deadline on Wait.
func (q *Queued) AwaitDispatchedEvent(symbol, id string) *Completion {
	return q.completions.getOrCreate(completionKey{symbol: symbol, id: id})
}

// Release forgets an unresolved handle
func (q *Queued) Release(symbol, id string) {
	q.completions.release(completionKey{symbol: symbol, id: id})
}

// Pending returns the number of registered, unresolved handles
func (q *Queued) Pending() int {
	return q.completions.size()
}

// Workers returns the number of live per-symbol workers
func (q *Queued) Workers() int {
	n := 0
	for _, w := range q.workers.Load().(map[string]*worker) {
		select {
		case <-w.done:
		default:
			n++
		}
	}
	return n
}

// Close stops accepting updates and waits for every worker to drain its queue
// Later Dispatch calls return ErrClosed. If ctx ends first, workers keep
// draining in the background and ctx.Err() is returned.
func (q *Queued) Close(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed.Swap(true) {
		for _, w := range q.workers.Load().(map[string]*worker) {
			w.queue.close()
		}
	}
	workers := q.workers.Load().(map[string]*worker)
	q.mu.Unlock()

	for _, w := range workers {
		select {
		case <-w.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

package dispatch

import (
	"pricebook/domain"
	"pricebook/orderbook"
)

// Immediate applies each update on the caller's goroutine before Dispatch
// returns. Concurrent callers for the same book are serialized only by the
// ledger locks, so their relative order is whatever the scheduler picks.
type Immediate struct {
	*applier
}

var _ Dispatcher = (*Immediate)(nil)

// NewImmediate creates a synchronous dispatcher
func NewImmediate(opts ...Option) *Immediate {
	o := buildOptions(opts)
	return &Immediate{applier: newApplier("immediate", o.logger)}
}

// Dispatch applies the update and notifies observers. It never fails.
func (d *Immediate) Dispatch(book *orderbook.OrderBook, update domain.DiffUpdate) error {
	d.apply(book, update)
	return nil
}

package dispatch

import (
	"context"
	"sync"
)

// completionKey identifies an awaited update
// A struct key keeps ("a:b","c") and ("a","b:c") apart.
type completionKey struct {
	symbol string
	id     string
}

// Completion resolves once the awaited update has been applied
type Completion struct {
	done chan struct{}
	once sync.Once
}

func newCompletion() *Completion {
	return &Completion{done: make(chan struct{})}
}

// Done is closed when the update has been applied
func (c *Completion) Done() <-chan struct{} {
	return c.done
}

// Wait blocks until the update has been applied or ctx ends
func (c *Completion) Wait(ctx context.Context) error {
	select {
	case <-c.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Completion) resolve() {
	c.once.Do(func() {
		close(c.done)
	})
}

// completionRegistry holds handles for updates that have not been applied yet
type completionRegistry struct {
	mu      sync.Mutex
	pending map[completionKey]*Completion
}

func newCompletionRegistry() *completionRegistry {
	return &completionRegistry{pending: make(map[completionKey]*Completion)}
}

// getOrCreate returns the pending handle for key, creating one if needed
func (r *completionRegistry) getOrCreate(key completionKey) *Completion {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.pending[key]
	if !ok {
		c = newCompletion()
		r.pending[key] = c
	}
	return c
}

// resolve removes and resolves the handle for key, if any
func (r *completionRegistry) resolve(key completionKey) {
	r.mu.Lock()
	c, ok := r.pending[key]
	if ok {
		delete(r.pending, key)
	}
	r.mu.Unlock()

	if ok {
		c.resolve()
	}
}

// release drops a handle without resolving it
func (r *completionRegistry) release(key completionKey) {
	r.mu.Lock()
	delete(r.pending, key)
	r.mu.Unlock()
}

func (r *completionRegistry) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.pending)
}

package feed

import (
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

// IDGenerator assigns ids to feed updates that arrive without one
// Format: prefix + counter (e.g. "feed-1", "feed-2"). The counter is shared by
// every symbol, so ids are unique per generator.
//
// Builders come from a sync.Pool so Next does not allocate beyond the result.
type IDGenerator struct {
	prefix      string
	counter     atomic.Uint64
	builderPool sync.Pool
}

// NewIDGenerator creates a generator with the given prefix
func NewIDGenerator(prefix string) *IDGenerator {
	gen := &IDGenerator{prefix: prefix}
	gen.builderPool = sync.Pool{
		New: func() any {
			b := &strings.Builder{}
			b.Grow(len(prefix) + 20) // max uint64 digits
			return b
		},
	}
	return gen
}

// Next returns the next id
func (g *IDGenerator) Next() string {
	count := g.counter.Add(1)

	b := g.builderPool.Get().(*strings.Builder)
	defer func() {
		b.Reset()
		g.builderPool.Put(b)
	}()

	b.WriteString(g.prefix)
	b.WriteString(strconv.FormatUint(count, 10))
	return b.String()
}

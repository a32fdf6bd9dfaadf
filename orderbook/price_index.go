package orderbook

// priceIndex keeps the set of prices of one ledger side ordered so that the
// best price is always first.
// Implementations: red-black tree (gods), B-tree (google/btree, tidwall/btree).
//
// priceIndex is not safe for concurrent use, the owning PriceLedger locks around it.
type priceIndex interface {
	// Insert adds a price; inserting an existing price is a no-op
	Insert(price float64)

	// Remove deletes a price; removing an unknown price is a no-op
	Remove(price float64)

	// Best returns the first price under the side's ordering
	Best() (float64, bool)

	// Walk visits prices best-first until fn returns false
	Walk(fn func(price float64) bool)

	// Len returns the number of prices
	Len() int
}

// Direction is the sort order of a ledger side.
type Direction int

const (
	// Ascending puts the lowest price first (asks)
	Ascending Direction = iota
	// Descending puts the highest price first (bids)
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "descending"
	}
	return "ascending"
}

// better reports whether price a sorts before price b for this direction.
func (d Direction) better(a, b float64) bool {
	if d == Descending {
		return a > b
	}
	return a < b
}

// compare is better expressed as a three-way comparator.
func (d Direction) compare(a, b float64) int {
	switch {
	case d.better(a, b):
		return -1
	case d.better(b, a):
		return 1
	}
	return 0
}

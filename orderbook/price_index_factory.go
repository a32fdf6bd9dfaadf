package orderbook

import (
	"fmt"
	"strings"

	rbt "github.com/emirpasic/gods/v2/trees/redblacktree"
	gbtree "github.com/google/btree"
	tbtree "github.com/tidwall/btree"
)

// IndexType selects the ordered structure behind a ledger side
type IndexType int

const (
	// RedBlackType red-black tree, O(log n) insert/remove/best (default)
	RedBlackType IndexType = iota

	// BTreeType google/btree B-tree, better cache locality on deep books
	BTreeType

	// TidwallBTreeType tidwall/btree B-tree
	TidwallBTreeType
)

// btreeDegree keeps nodes around a cache line or two of float64 keys
const btreeDegree = 16

func (t IndexType) String() string {
	switch t {
	case BTreeType:
		return "btree"
	case TidwallBTreeType:
		return "tidwall"
	default:
		return "redblack"
	}
}

// ParseIndexType maps a config name to an IndexType
func ParseIndexType(name string) (IndexType, error) {
	switch strings.ToLower(name) {
	case "", "redblack", "rbtree":
		return RedBlackType, nil
	case "btree":
		return BTreeType, nil
	case "tidwall":
		return TidwallBTreeType, nil
	}
	return RedBlackType, fmt.Errorf("unknown index type %q", name)
}

// newPriceIndex builds the index for the given type and direction
func newPriceIndex(t IndexType, dir Direction) priceIndex {
	switch t {
	case BTreeType:
		return newBTreeIndex(dir)
	case TidwallBTreeType:
		return newTidwallIndex(dir)
	default:
		return newRedBlackIndex(dir)
	}
}

// ========== red-black tree ==========

type redBlackIndex struct {
	tree *rbt.Tree[float64, struct{}]
}

var _ priceIndex = (*redBlackIndex)(nil)

func newRedBlackIndex(dir Direction) *redBlackIndex {
	return &redBlackIndex{
		tree: rbt.NewWith[float64, struct{}](dir.compare),
	}
}

func (r *redBlackIndex) Insert(price float64) {
	r.tree.Put(price, struct{}{})
}

func (r *redBlackIndex) Remove(price float64) {
	r.tree.Remove(price)
}

// Best the leftmost node is the best price under the comparator
func (r *redBlackIndex) Best() (float64, bool) {
	node := r.tree.Left()
	if node == nil {
		return 0, false
	}
	return node.Key, true
}

func (r *redBlackIndex) Walk(fn func(price float64) bool) {
	it := r.tree.Iterator()
	for it.Next() {
		if !fn(it.Key()) {
			return
		}
	}
}

func (r *redBlackIndex) Len() int {
	return r.tree.Size()
}

// ========== google/btree ==========

type bTreeIndex struct {
	tree *gbtree.BTreeG[float64]
}

var _ priceIndex = (*bTreeIndex)(nil)

func newBTreeIndex(dir Direction) *bTreeIndex {
	return &bTreeIndex{
		tree: gbtree.NewG[float64](btreeDegree, dir.better),
	}
}

func (b *bTreeIndex) Insert(price float64) {
	b.tree.ReplaceOrInsert(price)
}

func (b *bTreeIndex) Remove(price float64) {
	b.tree.Delete(price)
}

func (b *bTreeIndex) Best() (float64, bool) {
	return b.tree.Min()
}

func (b *bTreeIndex) Walk(fn func(price float64) bool) {
	b.tree.Ascend(gbtree.ItemIteratorG[float64](fn))
}

func (b *bTreeIndex) Len() int {
	return b.tree.Len()
}

// ========== tidwall/btree ==========

type tidwallIndex struct {
	tree *tbtree.BTreeG[float64]
}

var _ priceIndex = (*tidwallIndex)(nil)

func newTidwallIndex(dir Direction) *tidwallIndex {
	return &tidwallIndex{
		tree: tbtree.NewBTreeGOptions[float64](dir.better, tbtree.Options{
			Degree:  btreeDegree,
			NoLocks: true, // PriceLedger already holds its own lock
		}),
	}
}

func (t *tidwallIndex) Insert(price float64) {
	t.tree.Set(price)
}

func (t *tidwallIndex) Remove(price float64) {
	t.tree.Delete(price)
}

func (t *tidwallIndex) Best() (float64, bool) {
	return t.tree.Min()
}

func (t *tidwallIndex) Walk(fn func(price float64) bool) {
	t.tree.Scan(fn)
}

func (t *tidwallIndex) Len() int {
	return t.tree.Len()
}

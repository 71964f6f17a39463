package search

import (
	"container/heap"
	"time"

	"github.com/bdx-project/bdx/internal/record"
)

// cursor is one shard's hydrated, key-sorted match list and the
// shard's commit time, used to break ties on duplicate keys.
type cursor struct {
	records   []record.Symbol
	pos       int
	createdAt time.Time
}

// headHeap is a min-heap of cursors ordered by each cursor's current
// head key, giving a k-way merge across shards (spec §4.6).
type headHeap []*cursor

func (h headHeap) Len() int { return len(h) }

func (h headHeap) Less(i, j int) bool {
	return h[i].records[h[i].pos].Key().Less(h[j].records[h[j].pos].Key())
}

func (h headHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *headHeap) Push(x any) { *h = append(*h, x.(*cursor)) }

func (h *headHeap) Pop() any {
	old := *h
	n := len(old)
	c := old[n-1]
	*h = old[:n-1]
	return c
}

// Iterator walks merged, deduplicated matches in (path, address)
// order. A fresh Iterator is built per Searcher.Iterate call, so
// restarting a traversal is simply calling Iterate again.
type Iterator struct {
	heap *headHeap
}

// Next returns the next match, or ok=false once exhausted. When two
// or more shards hold a record under the same key, the one from the
// most recently created shard wins; the others are silently skipped
// (spec §4.6's explicit non-dedup-across-generations policy).
func (it *Iterator) Next() (record.Symbol, bool, error) {
	h := it.heap
	if h.Len() == 0 {
		return record.Symbol{}, false, nil
	}

	key := (*h)[0].records[(*h)[0].pos].Key()

	var (
		best     record.Symbol
		bestTime time.Time
		haveBest bool
	)
	for h.Len() > 0 && (*h)[0].records[(*h)[0].pos].Key() == key {
		c := heap.Pop(h).(*cursor)
		if !haveBest || c.createdAt.After(bestTime) {
			best = c.records[c.pos]
			bestTime = c.createdAt
			haveBest = true
		}
		c.pos++
		if c.pos < len(c.records) {
			heap.Push(h, c)
		}
	}
	return best, true, nil
}

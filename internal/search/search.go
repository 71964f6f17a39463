// Package search answers a parsed query against a store.Reader's
// shards: a k-way merge by (path, address) across shards, newer-shard
// wins on key collision (spec §4.6).
package search

import (
	"container/heap"
	"sort"

	"github.com/bdx-project/bdx/internal/query"
	"github.com/bdx-project/bdx/internal/record"
	"github.com/bdx-project/bdx/internal/store"
)

// Searcher answers queries against a fixed reader snapshot.
type Searcher struct {
	reader *store.Reader
}

func New(reader *store.Reader) *Searcher {
	return &Searcher{reader: reader}
}

// Search returns up to limit matching records in (path, address)
// order. limit <= 0 means unbounded.
func (s *Searcher) Search(q string, limit int) ([]record.Symbol, error) {
	it, err := s.Iterate(q)
	if err != nil {
		return nil, err
	}
	var out []record.Symbol
	for {
		rec, ok, err := it.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		out = append(out, rec)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// Count returns the total match count. It runs the same merge as
// Search, so every match is hydrated from its shard; it does not count
// from posting lists alone.
func (s *Searcher) Count(q string) (int, error) {
	it, err := s.Iterate(q)
	if err != nil {
		return 0, err
	}
	n := 0
	for {
		_, ok, err := it.Next()
		if err != nil {
			return 0, err
		}
		if !ok {
			break
		}
		n++
	}
	return n, nil
}

// Iterate returns a lazy, restartable (fresh state each call) sequence
// over q's matches, used directly by the graph engine for relocation
// target lookups.
func (s *Searcher) Iterate(q string) (*Iterator, error) {
	node, err := query.Parse(q)
	if err != nil {
		return nil, err
	}
	return s.iterateNode(node)
}

func (s *Searcher) iterateNode(node query.Node) (*Iterator, error) {
	h := &headHeap{}
	heap.Init(h)
	for _, shard := range s.reader.Shards() {
		ids, err := query.Eval(node, shard)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			continue
		}
		recs := make([]record.Symbol, 0, len(ids))
		for _, id := range ids {
			rec, err := shard.Get(id)
			if err != nil {
				return nil, err
			}
			// A shard is immutable once written, but a later run may
			// remove or recompile rec.Path into a different shard
			// without touching this one (spec §8 "Removal"): only
			// records whose file still currently resolves to this
			// shard in the manifest are live.
			if fs, ok := s.reader.Manifest().Get(rec.Path); !ok || fs.ShardID != shard.ID() {
				continue
			}
			recs = append(recs, rec)
		}
		sort.Slice(recs, func(i, j int) bool { return recs[i].Key().Less(recs[j].Key()) })
		heap.Push(h, &cursor{records: recs, createdAt: shard.CreatedAt()})
	}
	return &Iterator{heap: h}, nil
}

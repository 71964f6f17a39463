// Package graph enumerates reference paths between two symbol sets,
// walking relocation-derived edges over a Searcher (spec §4.7).
package graph

import (
	"container/heap"
	"context"
	"fmt"

	"github.com/bdx-project/bdx/internal/bdxerr"
	"github.com/bdx-project/bdx/internal/record"
	"github.com/bdx-project/bdx/internal/search"
)

// Algorithm selects the traversal order paths are discovered in.
type Algorithm string

const (
	BFS   Algorithm = "BFS"
	DFS   Algorithm = "DFS"
	AStar Algorithm = "ASTAR"
)

// Options configures one FindPaths call.
type Options struct {
	Algorithm Algorithm
	MaxPaths  int // stop after this many paths
	MaxDepth  int // max edges per path; 0 = unbounded
}

// Path is one sequence of symbol records from a source match to a
// sink match, each consecutive pair joined by a relocation edge.
type Path []record.Symbol

// FindPaths enumerates up to opts.MaxPaths distinct paths from any
// match of srcQuery to any match of sinkQuery. Within one path a node
// cannot repeat; across different returned paths, nodes may repeat
// (spec §9 "per-path, not global, visited set").
func FindPaths(ctx context.Context, searcher *search.Searcher, srcQuery, sinkQuery string, opts Options) ([]Path, error) {
	sources, err := searcher.Search(srcQuery, 0)
	if err != nil {
		return nil, err
	}
	sinks, err := searcher.Search(sinkQuery, 0)
	if err != nil {
		return nil, err
	}
	sinkKeys := make(map[record.Key]bool, len(sinks))
	for _, s := range sinks {
		sinkKeys[s.Key()] = true
	}

	w := &walker{searcher: searcher, sinkKeys: sinkKeys, maxDepth: opts.MaxDepth}

	switch opts.Algorithm {
	case DFS:
		return w.dfs(ctx, sources, opts.MaxPaths)
	case AStar:
		return w.astar(ctx, sources, opts.MaxPaths)
	default:
		return w.bfs(ctx, sources, opts.MaxPaths)
	}
}

// walker shares edge expansion across all three traversal strategies.
type walker struct {
	searcher *search.Searcher
	sinkKeys map[record.Key]bool
	maxDepth int
}

// frontierItem is one in-progress path plus the set of node keys it
// has already visited (enforced per-path, spec §9).
type frontierItem struct {
	path    Path
	visited map[record.Key]bool
}

func startItem(src record.Symbol) frontierItem {
	return frontierItem{
		path:    Path{src},
		visited: map[record.Key]bool{src.Key(): true},
	}
}

// expand returns one frontierItem per distinct symbol reachable from
// the path's last node via a relocation edge, skipping any symbol
// already visited on this path (spec §4.7 edge model).
func (w *walker) expand(item frontierItem) ([]frontierItem, error) {
	last := item.path[len(item.path)-1]
	var out []frontierItem
	seen := map[record.Key]bool{}
	for _, name := range last.Relocations {
		if name == "" {
			continue
		}
		targets, err := w.searcher.Search(fmt.Sprintf("fullname:%q", name), 0)
		if err != nil {
			return nil, err
		}
		for _, t := range targets {
			key := t.Key()
			if item.visited[key] || seen[key] {
				continue
			}
			seen[key] = true
			visited := make(map[record.Key]bool, len(item.visited)+1)
			for k := range item.visited {
				visited[k] = true
			}
			visited[key] = true
			path := make(Path, len(item.path)+1)
			copy(path, item.path)
			path[len(item.path)] = t
			out = append(out, frontierItem{path: path, visited: visited})
		}
	}
	return out, nil
}

func (w *walker) isSink(item frontierItem) bool {
	return w.sinkKeys[item.path[len(item.path)-1].Key()]
}

func (w *walker) atMaxDepth(item frontierItem) bool {
	return w.maxDepth > 0 && len(item.path)-1 >= w.maxDepth
}

// bfs explores by edge count: paths discovered first are shortest.
func (w *walker) bfs(ctx context.Context, sources []record.Symbol, maxPaths int) ([]Path, error) {
	var queue []frontierItem
	for _, s := range sources {
		queue = append(queue, startItem(s))
	}

	var found []Path
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return found, bdxerr.Cancelled("")
		}
		item := queue[0]
		queue = queue[1:]

		if w.isSink(item) {
			found = append(found, item.path)
			if maxPaths > 0 && len(found) >= maxPaths {
				return found, nil
			}
			continue
		}
		if w.atMaxDepth(item) {
			continue
		}
		next, err := w.expand(item)
		if err != nil {
			return nil, err
		}
		queue = append(queue, next...)
	}
	return found, nil
}

// dfs explores depth-first, useful when sinks are sparse and long
// paths are acceptable.
func (w *walker) dfs(ctx context.Context, sources []record.Symbol, maxPaths int) ([]Path, error) {
	stack := make([]frontierItem, 0, len(sources))
	for i := len(sources) - 1; i >= 0; i-- {
		stack = append(stack, startItem(sources[i]))
	}

	var found []Path
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return found, bdxerr.Cancelled("")
		}
		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if w.isSink(item) {
			found = append(found, item.path)
			if maxPaths > 0 && len(found) >= maxPaths {
				return found, nil
			}
			continue
		}
		if w.atMaxDepth(item) {
			continue
		}
		next, err := w.expand(item)
		if err != nil {
			return nil, err
		}
		for i := len(next) - 1; i >= 0; i-- {
			stack = append(stack, next[i])
		}
	}
	return found, nil
}

// astar orders the frontier by edges-so-far plus a cheap admissible
// heuristic (0 at a sink, 1 otherwise), ties broken by insertion
// order (spec §4.7).
func (w *walker) astar(ctx context.Context, sources []record.Symbol, maxPaths int) ([]Path, error) {
	pq := &priorityQueue{}
	heap.Init(pq)
	seq := 0
	for _, s := range sources {
		heap.Push(pq, &pqEntry{item: startItem(s), cost: w.heuristic(startItem(s)), seq: seq})
		seq++
	}

	var found []Path
	for pq.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return found, bdxerr.Cancelled("")
		}
		entry := heap.Pop(pq).(*pqEntry)
		item := entry.item

		if w.isSink(item) {
			found = append(found, item.path)
			if maxPaths > 0 && len(found) >= maxPaths {
				return found, nil
			}
			continue
		}
		if w.atMaxDepth(item) {
			continue
		}
		next, err := w.expand(item)
		if err != nil {
			return nil, err
		}
		for _, n := range next {
			heap.Push(pq, &pqEntry{item: n, cost: len(n.path) - 1 + w.heuristic(n), seq: seq})
			seq++
		}
	}
	return found, nil
}

// heuristic is 0 at a sink and 1 otherwise: admissible because the
// true remaining edge count to any sink is always >= 0, and >= 1 from
// a non-sink node.
func (w *walker) heuristic(item frontierItem) int {
	if w.isSink(item) {
		return 0
	}
	return 1
}

type pqEntry struct {
	item frontierItem
	cost int
	seq  int
}

type priorityQueue []*pqEntry

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].cost != pq[j].cost {
		return pq[i].cost < pq[j].cost
	}
	return pq[i].seq < pq[j].seq
}

func (pq priorityQueue) Swap(i, j int) { pq[i], pq[j] = pq[j], pq[i] }

func (pq *priorityQueue) Push(x any) { *pq = append(*pq, x.(*pqEntry)) }

func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	e := old[n-1]
	*pq = old[:n-1]
	return e
}

package query

import (
	"github.com/bdx-project/bdx/internal/store"
)

// Eval lowers n against one shard's posting/range iterators, spec
// §4.5's "leaves become posting-list or range iterators; booleans
// become intersection/union/complement", and returns the matching
// local ids in sorted order.
func Eval(n Node, shard *store.Shard) ([]uint32, error) {
	switch v := n.(type) {
	case *Term:
		return shard.Postings(v.Field, v.Value)
	case *Prefix:
		return shard.PostingsPrefix(v.Field, v.Value)
	case *RangeMatch:
		return shard.RangeQuery(v.Field, v.Range.Lo, v.Range.Hi)
	case *And:
		return evalAnd(v, shard)
	case *Or:
		return evalOr(v, shard)
	case *Not:
		return evalNot(v, shard)
	default:
		return nil, nil
	}
}

func evalAnd(n *And, shard *store.Shard) ([]uint32, error) {
	if len(n.Children) == 0 {
		return nil, nil
	}
	acc, err := Eval(n.Children[0], shard)
	if err != nil {
		return nil, err
	}
	for _, c := range n.Children[1:] {
		ids, err := Eval(c, shard)
		if err != nil {
			return nil, err
		}
		acc = intersect(acc, ids)
		if len(acc) == 0 {
			return acc, nil
		}
	}
	return acc, nil
}

func evalOr(n *Or, shard *store.Shard) ([]uint32, error) {
	var acc []uint32
	for _, c := range n.Children {
		ids, err := Eval(c, shard)
		if err != nil {
			return nil, err
		}
		acc = union(acc, ids)
	}
	return acc, nil
}

func evalNot(n *Not, shard *store.Shard) ([]uint32, error) {
	all, err := shard.AllIDs()
	if err != nil {
		return nil, err
	}
	child, err := Eval(n.Child, shard)
	if err != nil {
		return nil, err
	}
	return difference(all, child), nil
}

// intersect, union, and difference assume both inputs are sorted and
// free of duplicates, which every Shard accessor guarantees.

func intersect(a, b []uint32) []uint32 {
	var out []uint32
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			out = append(out, a[i])
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return out
}

func union(a, b []uint32) []uint32 {
	out := make([]uint32, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			out = append(out, a[i])
			i++
			j++
		case a[i] < b[j]:
			out = append(out, a[i])
			i++
		default:
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}

func difference(a, b []uint32) []uint32 {
	var out []uint32
	j := 0
	for _, v := range a {
		for j < len(b) && b[j] < v {
			j++
		}
		if j < len(b) && b[j] == v {
			continue
		}
		out = append(out, v)
	}
	return out
}

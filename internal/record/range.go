package record

import "golang.org/x/exp/constraints"

// Range is a closed-or-open numeric interval used by the address,
// size, and mtime field kinds (spec §4.2, §4.5). A nil Lo or Hi means
// that end is unbounded ("100.." or "..100").
type Range[T constraints.Integer] struct {
	Lo, Hi *T
}

// Contains reports whether v falls within the range, inclusive on
// both ends (spec §8 "Range closure": size:100..200 matches 100 and
// 200; size:..100 matches 0).
func (r Range[T]) Contains(v T) bool {
	if r.Lo != nil && v < *r.Lo {
		return false
	}
	if r.Hi != nil && v > *r.Hi {
		return false
	}
	return true
}

// Point returns a Range that matches exactly v.
func Point[T constraints.Integer](v T) Range[T] {
	return Range[T]{Lo: &v, Hi: &v}
}

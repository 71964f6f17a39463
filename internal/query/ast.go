package query

import "github.com/bdx-project/bdx/internal/record"

// Node is one node of a parsed query's boolean/leaf tree (spec §4.5).
// The parser produces these; Eval in plan.go lowers them against
// a single shard's posting/range iterators.
type Node interface{ node() }

// And is a conjunction of two or more children (explicit "AND" or
// implicit juxtaposition — the grammar treats both identically).
type And struct{ Children []Node }

// Or is a disjunction of two or more children.
type Or struct{ Children []Node }

// Not negates its child relative to the full set of ids in a shard.
type Not struct{ Child Node }

// Term matches one exact posting-list entry in field.
type Term struct {
	Field string
	Value string
}

// Prefix matches every posting-list entry in field whose term starts
// with Value (spec §4.5 "prefix-only" wildcards).
type Prefix struct {
	Field string
	Value string
}

// RangeMatch matches field's range-indexed posting within Range
// (either bound nil for unbounded, spec §8 "Range closure").
type RangeMatch struct {
	Field string
	Range record.Range[uint64]
}

func (*And) node()        {}
func (*Or) node()         {}
func (*Not) node()        {}
func (*Term) node()       {}
func (*Prefix) node()     {}
func (*RangeMatch) node() {}

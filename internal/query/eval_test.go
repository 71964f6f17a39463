package query

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bdx-project/bdx/internal/record"
	"github.com/bdx-project/bdx/internal/store"
)

func testShard(t *testing.T) *store.Shard {
	t.Helper()
	dir := t.TempDir()
	s, err := store.Open(dir)
	require.NoError(t, err)
	w, err := s.Writer()
	require.NoError(t, err)
	sw, err := w.NewShard()
	require.NoError(t, err)

	recs := []record.Symbol{
		{Path: "a.o", Name: "FooBar", Section: ".text", Type: record.KindFunc, Address: 0x1000, Size: 0x10},
		{Path: "a.o", Name: "BazQux", Section: ".data", Type: record.KindObject, Address: 0x2000, Size: 0x20, Relocations: []string{"FooBar"}},
	}
	require.NoError(t, sw.AddFile("a.o", recs))
	w.SetFile("a.o", sw.ID(), recs[0].MTime)
	require.NoError(t, w.Commit())

	r, err := s.Reader()
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	require.Len(t, r.Shards(), 1)
	return r.Shards()[0]
}

func TestEvalTermMatchesTokenizedSubword(t *testing.T) {
	shard := testShard(t)
	n, err := Parse("foo")
	require.NoError(t, err)
	ids, err := Eval(n, shard)
	require.NoError(t, err)
	require.Len(t, ids, 1)
}

func TestEvalAndNarrows(t *testing.T) {
	shard := testShard(t)
	n, err := Parse("foo baz")
	require.NoError(t, err)
	ids, err := Eval(n, shard)
	require.NoError(t, err)
	require.Empty(t, ids, "FooBar and BazQux are different records")
}

func TestEvalOrUnions(t *testing.T) {
	shard := testShard(t)
	n, err := Parse("foo OR baz")
	require.NoError(t, err)
	ids, err := Eval(n, shard)
	require.NoError(t, err)
	require.Len(t, ids, 2)
}

func TestEvalNotComplements(t *testing.T) {
	shard := testShard(t)
	n, err := Parse("NOT foo")
	require.NoError(t, err)
	ids, err := Eval(n, shard)
	require.NoError(t, err)
	require.Len(t, ids, 1)
}

func TestEvalRangeMatch(t *testing.T) {
	shard := testShard(t)
	n, err := Parse("address:0x1000..0x1500")
	require.NoError(t, err)
	ids, err := Eval(n, shard)
	require.NoError(t, err)
	require.Len(t, ids, 1)
}

func TestEvalRelocationsWildcardFindsRecordsWithAnyRelocation(t *testing.T) {
	shard := testShard(t)
	n, err := Parse("relocations:*")
	require.NoError(t, err)
	ids, err := Eval(n, shard)
	require.NoError(t, err)
	require.Len(t, ids, 1)
}

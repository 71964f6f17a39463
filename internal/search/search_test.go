package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bdx-project/bdx/internal/record"
	"github.com/bdx-project/bdx/internal/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestSearchReturnsOrderedHydratedRecords(t *testing.T) {
	s := openTestStore(t)

	w, err := s.Writer()
	require.NoError(t, err)
	sw, err := w.NewShard()
	require.NoError(t, err)
	recs := []record.Symbol{
		{Path: "b.o", Name: "foo", Address: 0x100},
		{Path: "a.o", Name: "foo", Address: 0x200},
	}
	require.NoError(t, sw.AddFile("b.o", recs[:1]))
	require.NoError(t, sw.AddFile("a.o", recs[1:]))
	w.SetFile("a.o", sw.ID(), time.Unix(1, 0))
	w.SetFile("b.o", sw.ID(), time.Unix(1, 0))
	require.NoError(t, w.Commit())

	r, err := s.Reader()
	require.NoError(t, err)
	defer r.Close()

	results, err := New(r).Search("foo", 0)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, "a.o", results[0].Path, "results must be ordered by (path, address)")
	require.Equal(t, "b.o", results[1].Path)
}

func TestSearchLimit(t *testing.T) {
	s := openTestStore(t)
	w, err := s.Writer()
	require.NoError(t, err)
	sw, err := w.NewShard()
	require.NoError(t, err)
	recs := []record.Symbol{
		{Path: "a.o", Name: "foo", Address: 1},
		{Path: "a.o", Name: "foo", Address: 2},
		{Path: "a.o", Name: "foo", Address: 3},
	}
	require.NoError(t, sw.AddFile("a.o", recs))
	w.SetFile("a.o", sw.ID(), time.Unix(1, 0))
	require.NoError(t, w.Commit())

	r, err := s.Reader()
	require.NoError(t, err)
	defer r.Close()

	results, err := New(r).Search("foo", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
}

func TestCount(t *testing.T) {
	s := openTestStore(t)
	w, err := s.Writer()
	require.NoError(t, err)
	sw, err := w.NewShard()
	require.NoError(t, err)
	recs := []record.Symbol{
		{Path: "a.o", Name: "foo", Address: 1},
		{Path: "a.o", Name: "bar", Address: 2},
	}
	require.NoError(t, sw.AddFile("a.o", recs))
	w.SetFile("a.o", sw.ID(), time.Unix(1, 0))
	require.NoError(t, w.Commit())

	r, err := s.Reader()
	require.NoError(t, err)
	defer r.Close()

	n, err := New(r).Count("foo OR bar")
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func TestSearchSkipsRecordsFromRemovedFileSharingALiveShard(t *testing.T) {
	s := openTestStore(t)

	w1, err := s.Writer()
	require.NoError(t, err)
	sw1, err := w1.NewShard()
	require.NoError(t, err)
	require.NoError(t, sw1.AddFile("a.o", []record.Symbol{{Path: "a.o", Name: "foo", Address: 1}}))
	require.NoError(t, sw1.AddFile("b.o", []record.Symbol{{Path: "b.o", Name: "foo", Address: 2}}))
	w1.SetFile("a.o", sw1.ID(), time.Unix(1, 0))
	w1.SetFile("b.o", sw1.ID(), time.Unix(1, 0))
	require.NoError(t, w1.Commit())

	// A later run removes b.o without touching a.o. b.o's records
	// physically remain in shard1, which a.o still references, so
	// shard1 can't be garbage collected.
	w2, err := s.Writer()
	require.NoError(t, err)
	w2.RemoveFile("b.o")
	require.NoError(t, w2.Commit())

	r, err := s.Reader()
	require.NoError(t, err)
	defer r.Close()
	require.Len(t, r.Shards(), 1, "shard1 is still referenced by a.o and must survive GC")

	results, err := New(r).Search("foo", 0)
	require.NoError(t, err)
	require.Len(t, results, 1, "b.o's stale record must not be returned after removal")
	require.Equal(t, "a.o", results[0].Path)
}

func TestSearchAcrossShardsMergesInKeyOrder(t *testing.T) {
	s := openTestStore(t)

	w1, err := s.Writer()
	require.NoError(t, err)
	sw1, err := w1.NewShard()
	require.NoError(t, err)
	require.NoError(t, sw1.AddFile("a.o", []record.Symbol{{Path: "a.o", Name: "foo", Address: 1}}))
	w1.SetFile("a.o", sw1.ID(), time.Unix(1, 0))
	require.NoError(t, w1.Commit())

	w2, err := s.Writer()
	require.NoError(t, err)
	sw2, err := w2.NewShard()
	require.NoError(t, err)
	require.NoError(t, sw2.AddFile("b.o", []record.Symbol{{Path: "b.o", Name: "foo", Address: 1}}))
	w2.SetFile("b.o", sw2.ID(), time.Unix(1, 0))
	require.NoError(t, w2.Commit())

	r, err := s.Reader()
	require.NoError(t, err)
	defer r.Close()
	require.Len(t, r.Shards(), 2)

	results, err := New(r).Search("foo", 0)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, "a.o", results[0].Path)
	require.Equal(t, "b.o", results[1].Path)
}

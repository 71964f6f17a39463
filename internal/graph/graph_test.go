package graph

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bdx-project/bdx/internal/record"
	"github.com/bdx-project/bdx/internal/search"
	"github.com/bdx-project/bdx/internal/store"
)

func chainStore(t *testing.T) *search.Searcher {
	t.Helper()
	s, err := store.Open(t.TempDir())
	require.NoError(t, err)
	w, err := s.Writer()
	require.NoError(t, err)
	sw, err := w.NewShard()
	require.NoError(t, err)

	recs := []record.Symbol{
		{Path: "a.o", Name: "uses_c_function", Address: 1, Relocations: []string{"c_function"}},
		{Path: "a.o", Name: "c_function", Address: 2, Relocations: []string{"leaf"}},
		{Path: "a.o", Name: "leaf", Address: 3},
		{Path: "a.o", Name: "unrelated", Address: 4},
	}
	require.NoError(t, sw.AddFile("a.o", recs))
	w.SetFile("a.o", sw.ID(), time.Unix(1, 0))
	require.NoError(t, w.Commit())

	r, err := s.Reader()
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return search.New(r)
}

func TestFindPathsBFSDirectEdge(t *testing.T) {
	searcher := chainStore(t)
	paths, err := FindPaths(context.Background(), searcher,
		`fullname:uses_c_function`, `fullname:c_function`, Options{Algorithm: BFS, MaxPaths: 1})
	require.NoError(t, err)
	require.Len(t, paths, 1)
	require.Len(t, paths[0], 2)
	require.Equal(t, "uses_c_function", paths[0][0].Name)
	require.Equal(t, "c_function", paths[0][1].Name)
}

func TestFindPathsTransitive(t *testing.T) {
	searcher := chainStore(t)
	paths, err := FindPaths(context.Background(), searcher,
		`fullname:uses_c_function`, `fullname:leaf`, Options{Algorithm: BFS, MaxPaths: 1})
	require.NoError(t, err)
	require.Len(t, paths, 1)
	require.Len(t, paths[0], 3)
}

func TestFindPathsNoEdgeReturnsEmpty(t *testing.T) {
	searcher := chainStore(t)
	paths, err := FindPaths(context.Background(), searcher,
		`fullname:unrelated`, `fullname:leaf`, Options{Algorithm: BFS, MaxPaths: 1})
	require.NoError(t, err)
	require.Empty(t, paths)
}

func TestFindPathsMaxDepthPrunesLongPaths(t *testing.T) {
	searcher := chainStore(t)
	paths, err := FindPaths(context.Background(), searcher,
		`fullname:uses_c_function`, `fullname:leaf`, Options{Algorithm: BFS, MaxPaths: 1, MaxDepth: 1})
	require.NoError(t, err)
	require.Empty(t, paths, "leaf is 2 edges away, beyond MaxDepth 1")
}

func TestFindPathsDFSAndAStarAgreeOnDirectEdge(t *testing.T) {
	searcher := chainStore(t)
	for _, algo := range []Algorithm{DFS, AStar} {
		paths, err := FindPaths(context.Background(), searcher,
			`fullname:uses_c_function`, `fullname:c_function`, Options{Algorithm: algo, MaxPaths: 1})
		require.NoError(t, err)
		require.Lenf(t, paths, 1, "algorithm %s", algo)
		require.Equal(t, "c_function", paths[0][len(paths[0])-1].Name)
	}
}

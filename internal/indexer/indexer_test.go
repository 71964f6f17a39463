package indexer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bdx-project/bdx/internal/store"
)

func writerWithManifest(t *testing.T, files map[string]time.Time) *store.Writer {
	t.Helper()
	s, err := store.Open(t.TempDir())
	require.NoError(t, err)
	w, err := s.Writer()
	require.NoError(t, err)
	for path, mtime := range files {
		w.SetFile(path, "shard-seed", mtime)
	}
	require.NoError(t, w.Commit())

	w2, err := s.Writer()
	require.NoError(t, err)
	return w2
}

func TestComputeWorkSetAdded(t *testing.T) {
	w := writerWithManifest(t, nil)
	ws := ComputeWorkSet(w.Base(), []Candidate{{Path: "a.o", MTime: time.Unix(1, 0)}})
	require.Equal(t, []string{"a.o"}, ws.Added)
	require.Empty(t, ws.Changed)
	require.Empty(t, ws.Removed)
}

func TestComputeWorkSetChangedByMTime(t *testing.T) {
	t0 := time.Unix(1, 0)
	w := writerWithManifest(t, map[string]time.Time{"a.o": t0})

	t1 := time.Unix(2, 0)
	ws := ComputeWorkSet(w.Base(), []Candidate{{Path: "a.o", MTime: t1}})
	require.Empty(t, ws.Added)
	require.Equal(t, []string{"a.o"}, ws.Changed)
	require.Empty(t, ws.Removed)
}

func TestComputeWorkSetUnchangedIsNeitherAddedNorChanged(t *testing.T) {
	t0 := time.Unix(1, 0)
	w := writerWithManifest(t, map[string]time.Time{"a.o": t0})

	ws := ComputeWorkSet(w.Base(), []Candidate{{Path: "a.o", MTime: t0}})
	require.Empty(t, ws.Added)
	require.Empty(t, ws.Changed)
	require.Empty(t, ws.Removed)
}

func TestComputeWorkSetRemoved(t *testing.T) {
	w := writerWithManifest(t, map[string]time.Time{"a.o": time.Unix(1, 0), "b.o": time.Unix(1, 0)})

	ws := ComputeWorkSet(w.Base(), []Candidate{{Path: "a.o", MTime: time.Unix(1, 0)}})
	require.Empty(t, ws.Added)
	require.Empty(t, ws.Changed)
	require.Equal(t, []string{"b.o"}, ws.Removed)
}

func TestRunNoopWhenNothingChanged(t *testing.T) {
	t0 := time.Unix(1, 0)
	w := writerWithManifest(t, map[string]time.Time{"a.o": t0})

	summary, err := Run(context.Background(), w, []Candidate{{Path: "a.o", MTime: t0}}, Options{NumProcesses: 2}, nil)
	require.NoError(t, err)
	require.Equal(t, Summary{}, summary)
}

package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bdx-project/bdx/internal/record"
)

func TestWriterCommitPublishesManifestAndShard(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir)
	require.NoError(t, err)

	w, err := s.Writer()
	require.NoError(t, err)
	require.Empty(t, w.Base().Paths())

	sw, err := w.NewShard()
	require.NoError(t, err)

	recs := []record.Symbol{{Path: "a.o", Name: "foo", Section: ".text", Type: record.KindFunc, Address: 0x1000, Size: 0x10}}
	require.NoError(t, sw.AddFile("a.o", recs))

	mtime := time.Unix(1000, 0).UTC()
	w.SetFile("a.o", sw.ID(), mtime)
	require.NoError(t, w.Commit())

	r, err := s.Reader()
	require.NoError(t, err)
	defer r.Close()

	fs, ok := r.Manifest().Get("a.o")
	require.True(t, ok)
	require.Equal(t, sw.ID(), fs.ShardID)
	require.True(t, fs.MTime.Equal(mtime))
	require.Len(t, r.Shards(), 1)

	ids, err := r.Shards()[0].Postings("name", "foo")
	require.NoError(t, err)
	require.Equal(t, []uint32{0}, ids)
}

func TestWriterSecondWriterBlockedByLock(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir)
	require.NoError(t, err)

	w1, err := s.Writer()
	require.NoError(t, err)

	_, err = s.Writer()
	require.Error(t, err)

	require.NoError(t, w1.Abort())

	w2, err := s.Writer()
	require.NoError(t, err)
	require.NoError(t, w2.Commit())
}

func TestWriterAbortLeavesNoShardDirectory(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir)
	require.NoError(t, err)

	w, err := s.Writer()
	require.NoError(t, err)

	sw, err := w.NewShard()
	require.NoError(t, err)
	require.NoError(t, sw.AddFile("a.o", nil))

	require.NoError(t, w.Abort())
	require.NoDirExists(t, shardDir(dir, sw.ID()))

	r, err := s.Reader()
	require.NoError(t, err)
	defer r.Close()
	require.Empty(t, r.Shards())
}

func TestWriterGCRemovesSupersededShard(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir)
	require.NoError(t, err)

	w1, err := s.Writer()
	require.NoError(t, err)
	sw1, err := w1.NewShard()
	require.NoError(t, err)
	require.NoError(t, sw1.AddFile("a.o", []record.Symbol{{Path: "a.o", Name: "foo"}}))
	w1.SetFile("a.o", sw1.ID(), time.Unix(1, 0))
	require.NoError(t, w1.Commit())

	w2, err := s.Writer()
	require.NoError(t, err)
	sw2, err := w2.NewShard()
	require.NoError(t, err)
	require.NoError(t, sw2.AddFile("a.o", []record.Symbol{{Path: "a.o", Name: "bar"}}))
	w2.SetFile("a.o", sw2.ID(), time.Unix(2, 0))
	require.NoError(t, w2.Commit())

	r, err := s.Reader()
	require.NoError(t, err)
	defer r.Close()
	require.Len(t, r.Shards(), 1, "superseded shard should have been garbage collected")
}

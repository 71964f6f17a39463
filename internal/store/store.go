// Package store implements bdx's sharded on-disk index (spec §4.3): a
// manifest mapping each indexed file to the shard it last landed in,
// plus one immutable bbolt segment per shard supporting term lookup,
// prefix scan, range scan and record hydration.
package store

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bdx-project/bdx/internal/bdxerr"
	"github.com/bdx-project/bdx/internal/record"
)

// Store is a handle on an index directory. It does not itself hold any
// open file descriptors; Writer and Reader do.
type Store struct {
	dir string
}

// Open prepares dir as a store root, creating it and its schema marker
// if this is the first run, or validating the on-disk schema version
// against SchemaVersion otherwise (spec §7 SchemaVersionMismatch).
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, bdxerr.IndexErr(dir, err)
	}
	have, err := readSchemaVersion(dir)
	if err != nil {
		return nil, bdxerr.IndexErr(dir, err)
	}
	if have != SchemaVersion {
		return nil, bdxerr.SchemaMismatch(dir, have, SchemaVersion)
	}
	if err := writeSchemaVersion(dir); err != nil {
		return nil, bdxerr.IndexErr(dir, err)
	}
	return &Store{dir: dir}, nil
}

// Writer opens a single-writer transaction against the store: it
// acquires the writer lock, snapshots the current manifest, and lets
// the caller create new shards and publish a new manifest generation.
func (s *Store) Writer() (*Writer, error) {
	lock, err := acquireWriterLock(s.dir)
	if err != nil {
		return nil, err
	}
	base, err := readManifest(s.dir)
	if err != nil {
		lock.release()
		return nil, err
	}
	return &Writer{
		dir:    s.dir,
		lock:   lock,
		base:   base,
		next:   base.clone(),
		shards: map[string]*ShardWriter{},
	}, nil
}

// Reader opens every shard referenced by the current manifest
// generation for read-only querying. Readers never block on, or are
// blocked by, a concurrent Writer (spec §5).
func (s *Store) Reader() (*Reader, error) {
	m, err := readManifest(s.dir)
	if err != nil {
		return nil, err
	}
	r := &Reader{manifest: m}
	for id := range m.ShardIDs() {
		sh, err := openShard(s.dir, id)
		if err != nil {
			r.Close()
			return nil, err
		}
		r.shards = append(r.shards, sh)
	}
	return r, nil
}

// Writer is an in-progress single-writer transaction (spec §4.3 commit
// protocol, spec §5 single-writer rule).
type Writer struct {
	dir    string
	lock   *writerLock
	base   *Manifest
	next   *Manifest
	shards map[string]*ShardWriter
}

// Base returns the manifest generation this transaction started from,
// used by the indexer to compute its work set (added/changed/removed).
func (w *Writer) Base() *Manifest { return w.base }

// Dir returns the store root this transaction is writing into, for
// callers that need it to build a path-scoped error.
func (w *Writer) Dir() string { return w.dir }

// NewShard creates a fresh shard for this transaction to write
// records into.
func (w *Writer) NewShard() (*ShardWriter, error) {
	sw, err := createShardWriter(w.dir)
	if err != nil {
		return nil, err
	}
	w.shards[sw.ID()] = sw
	return sw, nil
}

// SetFile records that path now lives in shardID as of mtime, staged
// into the next manifest generation (not yet visible to readers).
func (w *Writer) SetFile(path, shardID string, mtime time.Time) {
	w.next.entries[path] = record.FileState{Path: path, MTime: mtime, ShardID: shardID}
}

// RemoveFile drops path from the next manifest generation.
func (w *Writer) RemoveFile(path string) {
	delete(w.next.entries, path)
}

// Commit closes every shard created in this transaction, atomically
// publishes the new manifest, garbage-collects shards no longer
// referenced by any file, and releases the writer lock (spec §4.3:
// "commit = close shard + rewrite manifest + release lock, in that
// order; a crash before manifest rename leaves the prior generation
// intact").
func (w *Writer) Commit() error {
	for _, sw := range w.shards {
		if err := sw.Close(); err != nil {
			return bdxerr.IndexErr(w.dir, err)
		}
	}
	if err := writeManifest(w.dir, w.next); err != nil {
		return err
	}
	if err := w.gcOrphans(); err != nil {
		return err
	}
	return w.lock.release()
}

// Abort discards every shard created in this transaction without
// publishing a new manifest (spec §5 cancellation semantics).
func (w *Writer) Abort() error {
	var firstErr error
	for _, sw := range w.shards {
		if err := sw.Abort(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := w.lock.release(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// gcOrphans removes shard directories no longer referenced by the
// just-published manifest: shards superseded by a reindex of all
// their files, and stale shard directories left behind by a writer
// that crashed between shard creation and manifest publish.
func (w *Writer) gcOrphans() error {
	live := w.next.ShardIDs()
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return bdxerr.IndexErr(w.dir, err)
	}
	for _, ent := range entries {
		if !ent.IsDir() || !strings.HasPrefix(ent.Name(), shardPrefix) {
			continue
		}
		id := strings.TrimPrefix(ent.Name(), shardPrefix)
		if live[id] {
			continue
		}
		if err := os.RemoveAll(filepath.Join(w.dir, ent.Name())); err != nil {
			return bdxerr.IndexErr(w.dir, err)
		}
	}
	return nil
}

// Reader is a read-only snapshot of every shard live in one manifest
// generation, used by search and graph traversal.
type Reader struct {
	manifest *Manifest
	shards   []*Shard
}

func (r *Reader) Manifest() *Manifest { return r.manifest }

func (r *Reader) Shards() []*Shard { return r.shards }

func (r *Reader) Close() error {
	var firstErr error
	for _, sh := range r.shards {
		if err := sh.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

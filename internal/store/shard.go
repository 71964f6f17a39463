package store

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/s2"
	bolt "go.etcd.io/bbolt"

	"github.com/bdx-project/bdx/internal/bdxerr"
	"github.com/bdx-project/bdx/internal/record"
)

// Bucket names within a shard's bbolt database (spec §4.3 "Shard: an
// immutable ... segment ... supporting: term lookup, posting
// iteration, range posting iteration ..., document retrieval by local
// id").
var (
	bucketRecords  = []byte("records")  // local id (uint32 BE) -> gob(record.Symbol)
	bucketPostings = []byte("postings") // "field\x00term" -> posting list
	bucketRange    = []byte("range")    // "field\x00" + uint64 BE value -> posting list
	bucketFiles    = []byte("files")    // path -> uint64 BE record count, shard-local bookkeeping
)

// compressThreshold is the posting-list byte length above which a
// value is s2-compressed before being stored (bounds shard size for
// high-cardinality terms like common tokens, spec §4.3 commentary).
const compressThreshold = 256

func shardDir(storeDir, id string) string {
	return filepath.Join(storeDir, shardPrefix+id)
}

func newShardID() string {
	return uuid.NewString()
}

// ShardWriter accumulates records for a single fresh shard. ShardWriters
// are created through a Writer, and only one Writer may be open against
// a store at a time (enforced by the store's lock file).
type ShardWriter struct {
	id     string
	dir    string
	db     *bolt.DB
	nextID uint32
}

func createShardWriter(storeDir string) (*ShardWriter, error) {
	id := newShardID()
	dir := shardDir(storeDir, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, bdxerr.IndexErr(dir, err)
	}
	db, err := bolt.Open(filepath.Join(dir, "data.bbolt"), 0o644, nil)
	if err != nil {
		return nil, bdxerr.IndexErr(dir, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketRecords, bucketPostings, bucketRange, bucketFiles} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, bdxerr.IndexErr(dir, err)
	}
	return &ShardWriter{id: id, dir: dir, db: db}, nil
}

func (w *ShardWriter) ID() string { return w.id }

// AddFile writes one object file's records (possibly empty, for a
// removed file re-emitted with no records) into this shard in a
// single transaction, assigning each record a local id and indexing
// every field per its schema kind.
func (w *ShardWriter) AddFile(path string, records []record.Symbol) error {
	return w.db.Update(func(tx *bolt.Tx) error {
		recB := tx.Bucket(bucketRecords)
		postB := tx.Bucket(bucketPostings)
		rangeB := tx.Bucket(bucketRange)
		filesB := tx.Bucket(bucketFiles)

		count := make([]byte, 8)
		binary.BigEndian.PutUint64(count, uint64(len(records)))
		if err := filesB.Put([]byte(path), count); err != nil {
			return err
		}

		postings := map[string][]uint32{}
		ranges := map[string][]uint32{}

		for _, rec := range records {
			id := w.nextID
			w.nextID++

			var buf bytes.Buffer
			if err := gob.NewEncoder(&buf).Encode(rec); err != nil {
				return err
			}
			if err := recB.Put(idKey(id), buf.Bytes()); err != nil {
				return err
			}

			for term := range termsFor(rec) {
				postings[term] = append(postings[term], id)
			}
			for _, rk := range rangeKeysFor(rec) {
				ranges[rk] = append(ranges[rk], id)
			}
		}

		for term, ids := range postings {
			if err := appendPosting(postB, []byte(term), ids); err != nil {
				return err
			}
		}
		for rk, ids := range ranges {
			if err := appendPosting(rangeB, []byte(rk), ids); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close finalizes the shard's bbolt file without removing it.
func (w *ShardWriter) Close() error { return w.db.Close() }

// Abort removes this shard's directory entirely (spec §5
// cancellation: "the shard directory is removed").
func (w *ShardWriter) Abort() error {
	w.db.Close()
	return os.RemoveAll(w.dir)
}

// Shard is an existing committed shard, opened read-only by openShard.
type Shard struct {
	id        string
	db        *bolt.DB
	createdAt time.Time
}

func openShard(storeDir, id string) (*Shard, error) {
	dir := shardDir(storeDir, id)
	dbPath := filepath.Join(dir, "data.bbolt")
	db, err := bolt.Open(dbPath, 0o444, &bolt.Options{ReadOnly: true})
	if err != nil {
		return nil, bdxerr.IndexErr(dir, err)
	}
	var createdAt time.Time
	if st, err := os.Stat(dbPath); err == nil {
		createdAt = st.ModTime()
	}
	return &Shard{id: id, db: db, createdAt: createdAt}, nil
}

func (s *Shard) ID() string { return s.id }

// CreatedAt returns the shard's commit time, used by the searcher to
// break (path,address) ties between shards in favor of the newest
// one (spec §4.6 "the newer shard's record wins").
func (s *Shard) CreatedAt() time.Time { return s.createdAt }

func (s *Shard) Close() error { return s.db.Close() }

// Get hydrates the record with local id from this shard.
func (s *Shard) Get(id uint32) (record.Symbol, error) {
	var rec record.Symbol
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketRecords).Get(idKey(id))
		if b == nil {
			return fmt.Errorf("shard %s: no record %d", s.id, id)
		}
		return gob.NewDecoder(bytes.NewReader(b)).Decode(&rec)
	})
	return rec, err
}

// AllIDs returns every local id in this shard, sorted, the universe a
// NOT query's complement is taken against.
func (s *Shard) AllIDs() ([]uint32, error) {
	var ids []uint32
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketRecords).ForEach(func(k, v []byte) error {
			ids = append(ids, binary.BigEndian.Uint32(k))
			return nil
		})
	})
	return ids, err
}

// Postings returns the sorted local ids for an exact term in a
// tokenized/whole-term/multi-term field.
func (s *Shard) Postings(field, term string) ([]uint32, error) {
	var ids []uint32
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketPostings).Get([]byte(postingKey(field, term)))
		ids = decodePosting(v)
		return nil
	})
	return ids, err
}

// PostingsPrefix returns the union of postings for every indexed term
// in field that starts with prefix (spec §4.5 prefix wildcards).
func (s *Shard) PostingsPrefix(field, prefix string) ([]uint32, error) {
	var ids []uint32
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketPostings).Cursor()
		pk := []byte(postingKey(field, prefix))
		for k, v := c.Seek(pk); k != nil && bytes.HasPrefix(k, []byte(field+"\x00")); k, v = c.Next() {
			term := string(k[len(field)+1:])
			if !hasPrefix(term, prefix) {
				if term > prefix {
					break
				}
				continue
			}
			ids = append(ids, decodePosting(v)...)
		}
		return nil
	})
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return dedupUint32(ids), err
}

// RangeQuery returns the ids whose indexed numeric field value falls
// within [lo, hi] inclusive (nil bound = unbounded), via bbolt's
// sorted-key cursor (spec §4.5 RANGE, §8 "Range closure").
func (s *Shard) RangeQuery(field string, lo, hi *uint64) ([]uint32, error) {
	var ids []uint32
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketRange).Cursor()
		prefix := []byte(field + "\x00")
		var start []byte
		if lo != nil {
			start = rangeKey(field, *lo)
		} else {
			start = prefix
		}
		for k, v := c.Seek(start); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			val := binary.BigEndian.Uint64(k[len(prefix):])
			if hi != nil && val > *hi {
				break
			}
			ids = append(ids, decodePosting(v)...)
		}
		return nil
	})
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, err
}

// Files returns the shard-local file -> record count bookkeeping used
// by `bdx stats` (spec.md SPEC_FULL.md §6 supplement).
func (s *Shard) Files() (map[string]int, error) {
	out := map[string]int{}
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketFiles).ForEach(func(k, v []byte) error {
			var n int
			if len(v) == 8 {
				n = int(binary.BigEndian.Uint64(v))
			}
			out[string(k)] = n
			return nil
		})
	})
	return out, err
}

func idKey(id uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, id)
	return b
}

func postingKey(field, term string) string { return field + "\x00" + term }

func rangeKey(field string, v uint64) []byte {
	b := make([]byte, len(field)+1+8)
	copy(b, field)
	b[len(field)] = 0
	binary.BigEndian.PutUint64(b[len(field)+1:], v)
	return b
}

func rangeKeysFor(rec record.Symbol) []string {
	return []string{
		string(rangeKey("address", rec.Address)),
		string(rangeKey("size", rec.Size)),
		string(rangeKey("mtime", uint64(rec.MTime.UnixNano()))),
	}
}

// appendPosting merges ids into the existing posting list stored at
// key, keeping the list sorted and deduplicated.
func appendPosting(b *bolt.Bucket, key []byte, ids []uint32) error {
	existing := decodePosting(b.Get(key))
	merged := append(existing, ids...)
	sort.Slice(merged, func(i, j int) bool { return merged[i] < merged[j] })
	merged = dedupUint32(merged)
	return b.Put(key, encodePosting(merged))
}

// encodePosting varint-delta encodes a sorted id list, then
// s2-compresses the result when it's large enough to be worth it
// (spec §4.3 commentary on bounding shard size for common terms).
func encodePosting(ids []uint32) []byte {
	buf := make([]byte, 0, len(ids)*2)
	var prev uint32
	tmp := make([]byte, binary.MaxVarintLen32)
	for _, id := range ids {
		n := binary.PutUvarint(tmp, uint64(id-prev))
		buf = append(buf, tmp[:n]...)
		prev = id
	}
	if len(buf) < compressThreshold {
		return append([]byte{0}, buf...)
	}
	return append([]byte{1}, s2.Encode(nil, buf)...)
}

func decodePosting(raw []byte) []uint32 {
	if len(raw) == 0 {
		return nil
	}
	tag, buf := raw[0], raw[1:]
	if tag == 1 {
		decoded, err := s2.Decode(nil, buf)
		if err != nil {
			return nil
		}
		buf = decoded
	}
	var ids []uint32
	var prev uint32
	for len(buf) > 0 {
		delta, n := binary.Uvarint(buf)
		if n <= 0 {
			break
		}
		prev += uint32(delta)
		ids = append(ids, prev)
		buf = buf[n:]
	}
	return ids
}

func dedupUint32(ids []uint32) []uint32 {
	if len(ids) == 0 {
		return ids
	}
	out := ids[:1]
	for _, id := range ids[1:] {
		if id != out[len(out)-1] {
			out = append(out, id)
		}
	}
	return out
}

func hasPrefix(s, prefix string) bool {
	if len(prefix) > len(s) {
		return false
	}
	return s[:len(prefix)] == prefix
}

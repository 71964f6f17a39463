package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bdx-project/bdx/internal/bdxerr"
	"github.com/bdx-project/bdx/internal/record"
)

// SchemaVersion is bumped whenever the on-disk shard/manifest format
// changes incompatibly (spec §7 SchemaVersionMismatch).
const SchemaVersion = 1

const (
	manifestName = "manifest"
	schemaName   = "schema.version"
	lockName     = ".lock"
	shardPrefix  = "shard-"
)

// manifestFile is the JSON-encoded persisted form of the manifest
// (spec §6 "manifest # versioned, atomic rename on commit"). Plain
// JSON + temp-write-then-rename is a deliberate stdlib choice for this
// small, flat, atomically-published file; see DESIGN.md.
type manifestFile struct {
	SchemaVersion int                `json:"schema_version"`
	Files         []manifestFileJSON `json:"files"`
}

type manifestFileJSON struct {
	Path    string    `json:"path"`
	MTime   time.Time `json:"mtime"`
	ShardID string    `json:"shard_id"`
}

// Manifest is the in-memory, queryable form: path -> FileState.
type Manifest struct {
	entries map[string]record.FileState
}

func newManifest() *Manifest {
	return &Manifest{entries: make(map[string]record.FileState)}
}

func (m *Manifest) Get(path string) (record.FileState, bool) {
	fs, ok := m.entries[path]
	return fs, ok
}

func (m *Manifest) Paths() []string {
	paths := make([]string, 0, len(m.entries))
	for p := range m.entries {
		paths = append(paths, p)
	}
	return paths
}

// ShardIDs returns the set of shard ids any file currently resolves
// to (spec §4.3 "A file appears in at most one shard. A shard may
// contain many files.").
func (m *Manifest) ShardIDs() map[string]bool {
	ids := make(map[string]bool)
	for _, fs := range m.entries {
		ids[fs.ShardID] = true
	}
	return ids
}

func (m *Manifest) clone() *Manifest {
	out := newManifest()
	for k, v := range m.entries {
		out.entries[k] = v
	}
	return out
}

func readSchemaVersion(dir string) (int, error) {
	b, err := os.ReadFile(filepath.Join(dir, schemaName))
	if os.IsNotExist(err) {
		return SchemaVersion, nil // fresh store: nothing written yet
	}
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(strings.TrimSpace(string(b)))
	if err != nil {
		return 0, err
	}
	return v, nil
}

func writeSchemaVersion(dir string) error {
	return os.WriteFile(filepath.Join(dir, schemaName), []byte(strconv.Itoa(SchemaVersion)), 0o644)
}

func readManifest(dir string) (*Manifest, error) {
	path := filepath.Join(dir, manifestName)
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return newManifest(), nil
	}
	if err != nil {
		return nil, bdxerr.IndexErr(dir, err)
	}
	var mf manifestFile
	if err := json.Unmarshal(b, &mf); err != nil {
		return nil, bdxerr.IndexErr(dir, err)
	}
	m := newManifest()
	for _, f := range mf.Files {
		m.entries[f.Path] = record.FileState{Path: f.Path, MTime: f.MTime, ShardID: f.ShardID}
	}
	return m, nil
}

// writeManifest atomically publishes m: write to a temp file in dir,
// fsync, then rename over the canonical manifest path (spec §4.3
// commit protocol).
func writeManifest(dir string, m *Manifest) error {
	mf := manifestFile{SchemaVersion: SchemaVersion}
	for _, fs := range m.entries {
		mf.Files = append(mf.Files, manifestFileJSON{Path: fs.Path, MTime: fs.MTime, ShardID: fs.ShardID})
	}
	b, err := json.MarshalIndent(&mf, "", "  ")
	if err != nil {
		return bdxerr.IndexErr(dir, err)
	}

	tmp, err := os.CreateTemp(dir, "manifest-*.tmp")
	if err != nil {
		return bdxerr.IndexErr(dir, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once renamed

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return bdxerr.IndexErr(dir, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return bdxerr.IndexErr(dir, err)
	}
	if err := tmp.Close(); err != nil {
		return bdxerr.IndexErr(dir, err)
	}
	if err := os.Rename(tmpPath, filepath.Join(dir, manifestName)); err != nil {
		return bdxerr.IndexErr(dir, err)
	}
	return nil
}

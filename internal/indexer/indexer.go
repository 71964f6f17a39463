// Package indexer drives one indexing run: it computes the work set
// against the current manifest, fans ELF parsing out across a bounded
// worker pool, and commits the results into a fresh shard (spec §4.4).
//
// Scheduling collapses the teacher's "separate process per parse"
// isolation into a goroutine pool: spec §9 licenses this substitution
// explicitly, since Go gives worker isolation memory safety for free
// and a crashing parse is recovered rather than needing a whole
// address space to contain it.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bdx-project/bdx/internal/bdxerr"
	"github.com/bdx-project/bdx/internal/elfreader"
	"github.com/bdx-project/bdx/internal/record"
	"github.com/bdx-project/bdx/internal/store"
)

// Options configures one Run call (spec §4.4 per-option flags).
type Options struct {
	NumProcesses     int
	IndexRelocations bool
	MinSymbolSize    uint64
	SourceResolver   elfreader.SourceResolver
}

func (o Options) workers() int {
	if o.NumProcesses > 0 {
		return o.NumProcesses
	}
	return 1
}

// Candidate is one file discovery.Walk or discovery.StatPaths found,
// carrying the mtime that drives work-set comparison.
type Candidate struct {
	Path  string
	MTime time.Time
}

// WorkSet is the added/changed/removed split spec §4.4 defines.
type WorkSet struct {
	Added   []string
	Changed []string
	Removed []string
}

// ComputeWorkSet compares candidates against base, the manifest
// generation a run starts from.
func ComputeWorkSet(base *store.Manifest, candidates []Candidate) WorkSet {
	var ws WorkSet
	seen := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		seen[c.Path] = true
		fs, ok := base.Get(c.Path)
		switch {
		case !ok:
			ws.Added = append(ws.Added, c.Path)
		case !fs.MTime.Equal(c.MTime):
			ws.Changed = append(ws.Changed, c.Path)
		}
	}
	for _, p := range base.Paths() {
		if !seen[p] {
			ws.Removed = append(ws.Removed, p)
		}
	}
	return ws
}

// Summary reports what one Run did.
type Summary struct {
	Added, Changed, Removed int
	FileErrors              error // multierr-combined, non-fatal bdxerr.KindFile errors
}

type workResult struct {
	path    string
	mtime   time.Time
	records []record.Symbol
	err     error
}

// Run executes one indexing pass against w, a transaction opened by
// store.Store.Writer. It does not call w.Commit or w.Abort; the caller
// decides the transaction's fate (cmd/bdx calls Commit on success,
// Abort on any error Run returns).
func Run(ctx context.Context, w *store.Writer, candidates []Candidate, opts Options, logger *slog.Logger) (Summary, error) {
	mtimeOf := make(map[string]time.Time, len(candidates))
	for _, c := range candidates {
		mtimeOf[c.Path] = c.MTime
	}

	ws := ComputeWorkSet(w.Base(), candidates)
	toProcess := append(append([]string{}, ws.Added...), ws.Changed...)

	summary := Summary{Added: len(ws.Added), Changed: len(ws.Changed), Removed: len(ws.Removed)}
	if len(toProcess) == 0 && len(ws.Removed) == 0 {
		return summary, nil // nothing changed: no shard, no manifest write
	}

	sw, err := w.NewShard()
	if err != nil {
		return summary, err
	}

	elfOpts := elfreader.Options{
		IndexRelocations: opts.IndexRelocations,
		MinSymbolSize:    opts.MinSymbolSize,
		SourceResolver:   opts.SourceResolver,
	}

	results := make(chan workResult, writeBufferCapacity(opts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.workers())
	for _, path := range toProcess {
		path := path
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					perr := bdxerr.FileErr(path, fmt.Errorf("panic parsing object: %v", r))
					select {
					case results <- workResult{path: path, err: perr}:
					case <-gctx.Done():
						err = gctx.Err()
					}
				}
			}()
			recs, parseErr := elfreader.Parse(path, elfOpts)
			select {
			case results <- workResult{path: path, mtime: mtimeOf[path], records: recs, err: parseErr}:
			case <-gctx.Done():
				return gctx.Err()
			}
			return nil
		})
	}
	go func() {
		g.Wait()
		close(results)
	}()

	var fileErrs []error
	for res := range results {
		if res.err != nil {
			if logger != nil {
				logger.Warn("skipping unreadable object", "path", res.path, "error", res.err)
			}
			fileErrs = append(fileErrs, res.err)
			continue
		}
		if err := sw.AddFile(res.path, res.records); err != nil {
			sw.Abort()
			return summary, bdxerr.IndexErr(res.path, err)
		}
		w.SetFile(res.path, sw.ID(), res.mtime)
	}

	if err := g.Wait(); err != nil {
		sw.Abort()
		return summary, bdxerr.Cancelled(w.Dir())
	}

	// Dropping the manifest entry is sufficient: a removed file's old
	// records stay physically on disk in whatever shard it used to
	// share with other, still-live files, but the search layer checks
	// each hit's path against the manifest before returning it, so a
	// dangling entry is never reachable (see internal/search).
	for _, path := range ws.Removed {
		w.RemoveFile(path)
	}

	summary.FileErrors = bdxerr.Combine(fileErrs...)
	return summary, nil
}

// writeBufferCapacity bounds how many parsed-but-uncommitted file
// results may queue before a worker's send blocks (spec §4.4
// backpressure: "the driver throttles dispatch when the write buffer
// exceeds a configurable byte budget" — approximated here as a file
// count, since record batches vary too widely in byte size to budget
// precisely without a first pass over them).
func writeBufferCapacity(opts Options) int {
	return opts.workers() * 2
}

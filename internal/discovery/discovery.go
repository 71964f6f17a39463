// Package discovery walks a directory tree to find candidate object
// files and their mtimes, the -d DIR front end (spec §1, §6).
package discovery

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bdx-project/bdx/internal/bdxerr"
	"github.com/bdx-project/bdx/internal/indexer"
)

// objectExtensions are the file suffixes treated as ELF relocatable
// objects during a directory walk.
var objectExtensions = []string{".o", ".a"}

// Walk returns every object file under root as an indexer.Candidate,
// carrying each file's current mtime for work-set comparison.
func Walk(root string) ([]indexer.Candidate, error) {
	var out []indexer.Candidate
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !hasObjectExtension(path) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		out = append(out, indexer.Candidate{Path: path, MTime: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, bdxerr.FileErr(root, err)
	}
	return out, nil
}

// StatPaths turns an explicit list of object paths (as compiledb.Load
// derives from a compilation database) into indexer.Candidates,
// stat'ing each for its mtime. A path that no longer exists on disk is
// reported as a non-fatal bdxerr.FileErr and skipped, rather than
// failing the whole run.
func StatPaths(paths []string) ([]indexer.Candidate, error) {
	out := make([]indexer.Candidate, 0, len(paths))
	var errs []error
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			errs = append(errs, bdxerr.FileErr(p, err))
			continue
		}
		out = append(out, indexer.Candidate{Path: p, MTime: info.ModTime()})
	}
	return out, bdxerr.Combine(errs...)
}

func hasObjectExtension(path string) bool {
	for _, ext := range objectExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

package store

import (
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/bdx-project/bdx/internal/bdxerr"
)

// writerLock enforces the single-writer/multi-reader rule (spec §5:
// "At most one writer may hold the index lock at a time ... readers
// never block on the writer lock"). Grounded on gofrs/flock, the
// standard advisory-locking library for this in the example corpus.
type writerLock struct {
	fl *flock.Flock
}

func acquireWriterLock(storeDir string) (*writerLock, error) {
	fl := flock.New(filepath.Join(storeDir, lockName))
	ok, err := fl.TryLock()
	if err != nil {
		return nil, bdxerr.IndexErr(storeDir, err)
	}
	if !ok {
		return nil, bdxerr.LockErr(storeDir)
	}
	return &writerLock{fl: fl}, nil
}

func (l *writerLock) release() error {
	return l.fl.Unlock()
}

package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bdx-project/bdx/internal/bdxerr"
)

func TestExitCodeForParseError(t *testing.T) {
	err := bdxerr.ParseErr("bad:query", 3, "unexpected token")
	require.Equal(t, 1, exitCodeFor(err))
}

func TestExitCodeForIndexErrors(t *testing.T) {
	for _, err := range []error{
		bdxerr.SchemaMismatch("/store", 1, 2),
		bdxerr.FileErr("/a.o", require.AnError),
		bdxerr.IndexErr("/store", require.AnError),
		bdxerr.LockErr("/store"),
		bdxerr.Cancelled("/store"),
	} {
		require.Equal(t, 3, exitCodeFor(err))
	}
}

func TestExitCodeForUsageErrorDefaultsToTwo(t *testing.T) {
	require.Equal(t, 2, exitCodeFor(require.AnError))
}

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bdx-project/bdx/internal/bdxerr"
)

// storeDir, when non-empty, is the flag-level override in config's
// precedence (flag > BDX_INDEX_DIR env > .bdx.yaml > default). It is a
// persistent flag so index/search/graph/stats all resolve the same
// store location the same way.
var (
	storeDir string
	verbose  bool
	logFile  string
)

var rootCmd = &cobra.Command{
	Use:   "bdx",
	Short: "Parallel, incremental ELF symbol indexer and query engine",
	Long: `bdx indexes symbol and relocation records out of ELF relocatable
objects into a sharded, incrementally-updatable on-disk store, and
answers boolean field queries and relocation-graph traversals against
it.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&storeDir, "store-dir", "", "index store directory (overrides BDX_INDEX_DIR and .bdx.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug-level logging")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write structured JSON logs to this file")

	rootCmd.AddCommand(indexCmd, searchCmd, graphCmd, statsCmd)
}

// Execute runs the command tree and maps the result to spec §6's
// process exit codes.
func Execute() int {
	err := rootCmd.Execute()
	if err == nil {
		return 0
	}
	fmt.Fprintln(os.Stderr, err)
	return exitCodeFor(err)
}

// exitCodeFor maps an error to spec §6's exit codes: 1 query-parse
// error, 2 usage error, 3 I/O or index error. 0 and 4 never originate
// here (4 is reserved for "no results", signalled by callers directly).
func exitCodeFor(err error) int {
	switch {
	case errors.Is(err, bdxerr.Sentinel(bdxerr.KindParse)):
		return 1
	case errors.Is(err, bdxerr.Sentinel(bdxerr.KindSchemaMismatch)),
		errors.Is(err, bdxerr.Sentinel(bdxerr.KindFile)),
		errors.Is(err, bdxerr.Sentinel(bdxerr.KindIndex)),
		errors.Is(err, bdxerr.Sentinel(bdxerr.KindLockContention)),
		errors.Is(err, bdxerr.Sentinel(bdxerr.KindCancelled)):
		return 3
	default:
		return 2
	}
}

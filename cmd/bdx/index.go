package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bdx-project/bdx/internal/compiledb"
	"github.com/bdx-project/bdx/internal/config"
	"github.com/bdx-project/bdx/internal/discovery"
	"github.com/bdx-project/bdx/internal/dwarfdump"
	"github.com/bdx-project/bdx/internal/indexer"
	"github.com/bdx-project/bdx/internal/logging"
	"github.com/bdx-project/bdx/internal/store"
)

var (
	indexDir     string
	indexCompDB  string
	indexOptions map[string]string
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index a directory of object files or a compilation database",
	Args:  cobra.NoArgs,
	RunE:  runIndex,
}

func init() {
	indexCmd.Flags().StringVarP(&indexDir, "dir", "d", "", "directory to walk for .o/.a object files")
	indexCmd.Flags().StringVarP(&indexCompDB, "compile-commands", "c", "", "path to a compile_commands.json")
	indexCmd.Flags().StringToStringVarP(&indexOptions, "opt", "o", nil, "indexing option override, key=value (num_processes, index_relocations, min_symbol_size, use_dwarfdump)")
}

func runIndex(cmd *cobra.Command, args []string) error {
	if (indexDir == "") == (indexCompDB == "") {
		return fmt.Errorf("bdx index: exactly one of -d DIR or -c FILE is required")
	}

	cfg, err := config.Load(storeDir)
	if err != nil {
		return err
	}
	if err := cfg.ApplyOptions(indexOptions); err != nil {
		return err
	}

	logger, closeLog, err := logging.New(logging.Options{Verbose: verbose, LogFile: logFile})
	if err != nil {
		return err
	}
	defer closeLog()

	var (
		candidates []indexer.Candidate
		statErrs   error
	)
	if indexDir != "" {
		candidates, err = discovery.Walk(indexDir)
		if err != nil {
			return err
		}
	} else {
		paths, err := compiledb.Load(indexCompDB)
		if err != nil {
			return err
		}
		candidates, statErrs = discovery.StatPaths(paths)
		if statErrs != nil {
			logger.Warn("some compile_commands.json entries are unreadable", "error", statErrs)
		}
	}

	st, err := store.Open(cfg.IndexDir)
	if err != nil {
		return err
	}
	w, err := st.Writer()
	if err != nil {
		return err
	}

	var resolver dwarfdump.Resolver
	opts := indexer.Options{
		NumProcesses:     cfg.NumProcesses,
		IndexRelocations: cfg.IndexRelocations,
		MinSymbolSize:    cfg.MinSymbolSize,
	}
	if cfg.UseDWARFDump {
		opts.SourceResolver = resolver
	}

	summary, err := indexer.Run(cmd.Context(), w, candidates, opts, logger)
	if err != nil {
		w.Abort()
		return err
	}
	if err := w.Commit(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "added %d, changed %d, removed %d\n", summary.Added, summary.Changed, summary.Removed)
	if summary.FileErrors != nil {
		fmt.Fprintln(cmd.OutOrStdout(), summary.FileErrors)
	}
	return nil
}

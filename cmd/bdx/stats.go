package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bdx-project/bdx/internal/config"
	"github.com/bdx-project/bdx/internal/store"
)

// statsCmd is the supplemented read-only reporting subcommand (not
// part of the distilled CLI surface, grounded on the teacher's own
// object-summary status view but adapted to a plain stdout report).
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Report per-shard record counts and manifest size",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(storeDir)
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.IndexDir)
	if err != nil {
		return err
	}
	reader, err := st.Reader()
	if err != nil {
		return err
	}
	defer reader.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "store: %s\n", cfg.IndexDir)
	fmt.Fprintf(out, "files tracked: %d\n", len(reader.Manifest().Paths()))
	fmt.Fprintf(out, "shards: %d\n", len(reader.Shards()))

	if info, err := os.Stat(filepath.Join(cfg.IndexDir, "manifest")); err == nil {
		fmt.Fprintf(out, "manifest size: %d bytes\n", info.Size())
	}

	for _, sh := range reader.Shards() {
		files, err := sh.Files()
		if err != nil {
			return err
		}
		var records int
		for _, count := range files {
			records += count
		}
		fmt.Fprintf(out, "  shard %s: %d files, %d records, created %s\n",
			sh.ID(), len(files), records, sh.CreatedAt().Format("2006-01-02T15:04:05Z07:00"))
	}
	return nil
}

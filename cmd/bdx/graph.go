package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bdx-project/bdx/internal/config"
	"github.com/bdx-project/bdx/internal/graph"
	"github.com/bdx-project/bdx/internal/record"
	"github.com/bdx-project/bdx/internal/search"
	"github.com/bdx-project/bdx/internal/store"
)

var (
	graphLimit     int
	graphAlgorithm string
	graphMaxDepth  int
)

var graphCmd = &cobra.Command{
	Use:   "graph SRC_QUERY SINK_QUERY",
	Short: "Emit a DOT graph of relocation-reachable paths between two symbol sets",
	Args:  cobra.ExactArgs(2),
	RunE:  runGraph,
}

func init() {
	graphCmd.Flags().IntVarP(&graphLimit, "num", "n", 0, "maximum number of paths to emit (0 = unbounded)")
	graphCmd.Flags().StringVar(&graphAlgorithm, "algorithm", "BFS", "traversal order: BFS, DFS, or ASTAR")
	graphCmd.Flags().IntVar(&graphMaxDepth, "max-depth", 0, "maximum edges per path (0 = unbounded)")
}

func runGraph(cmd *cobra.Command, args []string) error {
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

	opts := graph.Options{
		Algorithm: graph.Algorithm(strings.ToUpper(graphAlgorithm)),
		MaxPaths:  graphLimit,
		MaxDepth:  graphMaxDepth,
	}
	paths, err := graph.FindPaths(cmd.Context(), search.New(reader), args[0], args[1], opts)
	if err != nil {
		return err
	}

	return writeDOT(cmd.OutOrStdout(), paths)
}

// writeDOT renders paths as a directed graph: one node per distinct
// symbol, one edge per consecutive pair on any path.
func writeDOT(w io.Writer, paths []graph.Path) error {
	fmt.Fprintln(w, "digraph bdx {")
	seenNodes := map[record.Key]bool{}
	seenEdges := map[[2]record.Key]bool{}
	for _, path := range paths {
		for i, sym := range path {
			key := sym.Key()
			if !seenNodes[key] {
				seenNodes[key] = true
				fmt.Fprintf(w, "  %q [label=%q];\n", nodeID(sym), sym.Name)
			}
			if i == 0 {
				continue
			}
			prev := path[i-1]
			edgeKey := [2]record.Key{prev.Key(), key}
			if seenEdges[edgeKey] {
				continue
			}
			seenEdges[edgeKey] = true
			fmt.Fprintf(w, "  %q -> %q;\n", nodeID(prev), nodeID(sym))
		}
	}
	fmt.Fprintln(w, "}")
	return nil
}

func nodeID(sym record.Symbol) string {
	return fmt.Sprintf("%s:%x", sym.Path, sym.Address)
}

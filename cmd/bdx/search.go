package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/bdx-project/bdx/internal/config"
	"github.com/bdx-project/bdx/internal/demangle"
	"github.com/bdx-project/bdx/internal/search"
	"github.com/bdx-project/bdx/internal/store"
)

var (
	searchLimit    int
	searchDemangle bool
	searchFormat   string
)

var searchCmd = &cobra.Command{
	Use:   "search QUERY...",
	Short: "Query the symbol index",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "num", "n", 0, "maximum number of records to print (0 = unbounded)")
	searchCmd.Flags().BoolVar(&searchDemangle, "demangle-names", false, "demangle C++ names via an external c++filt-compatible tool")
	searchCmd.Flags().StringVarP(&searchFormat, "format", "f", "json", "output format: json, sexp, or a %{field} template")
}

func runSearch(cmd *cobra.Command, args []string) error {
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

	query := strings.Join(args, " ")
	recs, err := search.New(reader).Search(query, searchLimit)
	if err != nil {
		return err
	}

	var d demangle.Demangler
	if searchDemangle {
		d = demangle.CxxFilt{}
	}
	demangled, err := demangleNames(d, recs)
	if err != nil {
		return err
	}

	f := newFormatter(searchFormat)
	out := cmd.OutOrStdout()
	for _, rec := range recs {
		if err := f.write(out, rec, demangled[rec.Name]); err != nil {
			return err
		}
	}
	return nil
}

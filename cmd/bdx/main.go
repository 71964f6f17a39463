// Command bdx is the batch CLI front end over internal/indexer,
// internal/search and internal/graph (spec §6), replacing the
// teacher's interactive single-object HTTP viewer.
package main

import "os"

func main() {
	os.Exit(Execute())
}

// Package compiledb parses a compile_commands.json compilation
// database into the list of object file paths it implies, deriving
// each entry's ".o" output path from its compiler invocation (spec
// §1 treats the compilation-database format itself as an external,
// already-specified input).
package compiledb

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/bdx-project/bdx/internal/bdxerr"
)

// entry mirrors one compile_commands.json record. Command is split on
// whitespace when Arguments isn't present, matching both compilation
// database conventions in use.
type entry struct {
	Directory string   `json:"directory"`
	File      string   `json:"file"`
	Command   string   `json:"command"`
	Arguments []string `json:"arguments"`
	Output    string   `json:"output"`
}

// Load reads path and returns the absolute object-file path implied
// by each compile command: the explicit "output" field if present,
// otherwise the "-o" argument, otherwise file with its extension
// swapped to ".o".
func Load(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, bdxerr.FileErr(path, err)
	}
	var entries []entry
	if err := json.Unmarshal(b, &entries); err != nil {
		return nil, bdxerr.ParseErr(path, 0, "invalid compile_commands.json: "+err.Error())
	}

	out := make([]string, 0, len(entries))
	for _, e := range entries {
		objPath := e.objectPath()
		if !filepath.IsAbs(objPath) && e.Directory != "" {
			objPath = filepath.Join(e.Directory, objPath)
		}
		out = append(out, objPath)
	}
	return out, nil
}

func (e entry) objectPath() string {
	if e.Output != "" {
		return e.Output
	}
	args := e.Arguments
	if len(args) == 0 && e.Command != "" {
		args = strings.Fields(e.Command)
	}
	for i, a := range args {
		if a == "-o" && i+1 < len(args) {
			return args[i+1]
		}
		if strings.HasPrefix(a, "-o") && len(a) > 2 {
			return a[2:]
		}
	}
	ext := filepath.Ext(e.File)
	return strings.TrimSuffix(e.File, ext) + ".o"
}

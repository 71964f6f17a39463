// Package dwarfdump implements the dwarfdump-equivalent external
// collaborator elfreader.SourceResolver describes (spec §4.1 step 4,
// §9 "external collaborator boundaries": invoked as a subprocess with
// bounded input, falls back to "" on any failure).
package dwarfdump

import (
	"bufio"
	"context"
	"os/exec"
	"strings"
	"time"
)

// Resolver shells out to an external dwarfdump-compatible binary to
// recover a source file name when an object's own DWARF section is
// absent or stripped. It is opt-in (config's use_dwarfdump option)
// since most objects resolve their source from their own DWARF and
// never need it.
type Resolver struct {
	// Bin is the dwarfdump-compatible executable name, resolved via
	// exec.LookPath. Defaults to "dwarfdump" if empty.
	Bin string
	// Timeout bounds how long the subprocess may run before it is
	// killed and the resolution treated as a failure.
	Timeout time.Duration
}

const defaultTimeout = 5 * time.Second

// ResolveSource implements elfreader.SourceResolver. Any failure
// (missing binary, non-zero exit, timeout, unparseable output) yields
// "" rather than propagating an error, matching spec's "failures fall
// back to ... empty sources".
func (r Resolver) ResolveSource(objPath string) string {
	bin := r.Bin
	if bin == "" {
		bin = "dwarfdump"
	}
	if _, err := exec.LookPath(bin); err != nil {
		return ""
	}

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, bin, "--debug-line", objPath).Output()
	if err != nil {
		return ""
	}
	return firstSourceLine(out)
}

// firstSourceLine scans dwarfdump's line-table dump for the first
// "file_names[ N]" entry with a non-empty "name:" (on the header line
// or a following line), dwarfdump's name for a compile unit's source
// file.
func firstSourceLine(out []byte) string {
	sc := bufio.NewScanner(strings.NewReader(string(out)))
	inEntry := false
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(line, "file_names[") {
			inEntry = true
		}
		if !inEntry {
			continue
		}
		idx := strings.Index(line, "name: ")
		if idx < 0 {
			continue
		}
		name := strings.TrimSpace(line[idx+len("name: "):])
		name = strings.Trim(name, `"`)
		if name != "" {
			return name
		}
	}
	return ""
}

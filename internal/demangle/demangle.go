// Package demangle implements the demangler external collaborator
// (spec §1, §9): invoked as a subprocess with bounded input, falls
// back to the raw name on any failure. bdx never ships a demangling
// algorithm of its own; it shells out to whatever c++filt-compatible
// binary is on PATH, same as the teacher's own demangling TODO left
// this as an external concern.
package demangle

import (
	"bufio"
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"
)

// Demangler resolves mangled symbol names to a human-readable form.
type Demangler interface {
	Demangle(names []string) (map[string]string, error)
}

// CxxFilt shells out to c++filt (or an equivalent configured binary),
// piping every name to demangle on stdin and reading one demangled
// name per line back, in order.
type CxxFilt struct {
	Bin     string // defaults to "c++filt"
	Timeout time.Duration
}

const defaultTimeout = 5 * time.Second

// Demangle returns a best-effort name->demangled map. Names c++filt
// leaves unchanged (or any failure of the subprocess as a whole) are
// simply omitted from the result; callers fall back to the raw name.
func (c CxxFilt) Demangle(names []string) (map[string]string, error) {
	out := make(map[string]string, len(names))
	if len(names) == 0 {
		return out, nil
	}

	bin := c.Bin
	if bin == "" {
		bin = "c++filt"
	}
	if _, err := exec.LookPath(bin); err != nil {
		return out, nil
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, bin)
	cmd.Stdin = strings.NewReader(strings.Join(names, "\n") + "\n")
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return out, nil
	}

	sc := bufio.NewScanner(&stdout)
	for i := 0; sc.Scan() && i < len(names); i++ {
		demangled := sc.Text()
		if demangled != "" && demangled != names[i] {
			out[names[i]] = demangled
		}
	}
	return out, nil
}

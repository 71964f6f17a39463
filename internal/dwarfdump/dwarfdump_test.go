package dwarfdump

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestResolveSourceFallsBackToEmptyWhenBinaryMissing(t *testing.T) {
	r := Resolver{Bin: "no-such-dwarfdump-binary", Timeout: time.Second}
	require.Equal(t, "", r.ResolveSource("/any/path.o"))
}

func TestFirstSourceLineParsesFirstNonEmptyFileNamesEntry(t *testing.T) {
	out := []byte("file_names[  0]:\n  name: \"\"\nfile_names[  1]:\n  name: \"main.c\"\n")
	require.Equal(t, "main.c", firstSourceLine(out))
}

package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bdx-project/bdx/internal/graph"
	"github.com/bdx-project/bdx/internal/record"
)

func TestWriteDOTEmitsNodesAndEdgesOnce(t *testing.T) {
	a := record.Symbol{Path: "/a.o", Name: "a", Address: 1}
	b := record.Symbol{Path: "/a.o", Name: "b", Address: 2}
	paths := []graph.Path{{a, b}, {a, b}}

	var buf bytes.Buffer
	require.NoError(t, writeDOT(&buf, paths))

	out := buf.String()
	require.Equal(t, 1, strings.Count(out, `label="a"`))
	require.Equal(t, 1, strings.Count(out, "->"))
}

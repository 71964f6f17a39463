package record

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenizeCamelCase(t *testing.T) {
	require.Equal(t, []string{"cpp", "camel", "case", "symbol"}, Tokenize("CppCamelCaseSymbol"))
}

func TestTokenizeSnakeCase(t *testing.T) {
	require.Equal(t, []string{"uses", "c", "function"}, Tokenize("uses_c_function"))
}

func TestTokenizeDigitRuns(t *testing.T) {
	require.Equal(t, []string{"buf", "8", "kb"}, Tokenize("buf8kB"))
}

func TestTokenizeCaseFold(t *testing.T) {
	require.Equal(t, Tokenize("Camel"), Tokenize("camel"))
}

func TestTokenizePathSeparators(t *testing.T) {
	require.Equal(t, []string{"usr", "lib", "foo", "bar", "o"}, TokenizePath("/usr/lib/foo_bar.o"))
}

package demangle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDemangleFallsBackToEmptyMapWhenBinaryMissing(t *testing.T) {
	c := CxxFilt{Bin: "no-such-cxxfilt-binary", Timeout: time.Second}
	out, err := c.Demangle([]string{"_Z3fooi"})
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestDemangleEmptyInputIsNoop(t *testing.T) {
	c := CxxFilt{}
	out, err := c.Demangle(nil)
	require.NoError(t, err)
	require.Empty(t, out)
}

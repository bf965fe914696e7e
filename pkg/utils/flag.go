package utils

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/require"
)

// SetTestFlag sets the flag `name` to `value` until the test and its subtests are done.
// Flags are process globals: tests using it must not run in parallel with tests reading the same flag.
func SetTestFlag(t *testing.T, name, value string) {
	t.Helper()
	flagHolder := flag.Lookup(name)
	require.NotNil(t, flagHolder, "Flag %s not found", name)
	prevValue := flagHolder.Value.String()
	require.NoError(t, flagHolder.Value.Set(value), "Flag %s rejected %q", name, value)
	t.Cleanup(func() { _ = flagHolder.Value.Set(prevValue) })
}

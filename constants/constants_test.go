package constants

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromString(t *testing.T) {
	for _, name := range []string{"DefaultComputeBudget", "MaxComputeBudget", "MaxLedgerScan"} {
		c, ok := FromString(name)
		require.True(t, ok, name)
		_, set := DefaultValues[c]
		require.True(t, set, "%s has no default", name)
	}
	_, ok := FromString("EmissionCurve")
	require.False(t, ok)
}

func TestBudgetsAreOrdered(t *testing.T) {
	require.NotZero(t, Uint64(DefaultComputeBudget))
	require.LessOrEqual(t, Uint64(DefaultComputeBudget), Uint64(MaxComputeBudget))
	require.NotZero(t, Uint64(MaxLedgerScan))
}

package chaos

import (
	"math/bits"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nyxanic/disorder/x/disorder/types"
)

type countingMeter struct {
	total uint64
	calls map[string]int
}

func (m *countingMeter) Consume(units uint64, descriptor string) {
	m.total += units
	if m.calls == nil {
		m.calls = map[string]int{}
	}
	m.calls[descriptor]++
}

func TestGenerate_Deterministic(t *testing.T) {
	a := Generate(refKey, refIV, 8)
	b := Generate(refKey, refIV, 8)
	require.Equal(t, a, b)
	require.Len(t, a, 8)

	// a longer stream extends a shorter one
	require.Equal(t, a[:2], Generate(refKey, refIV, 2))
}

func TestGenerate_DependsOnKeyAndIV(t *testing.T) {
	base := Generate(refKey, refIV, 2)
	require.NotEqual(t, base, Generate(types.Key{refKey[0] ^ 1, refKey[1]}, refIV, 2))
	require.NotEqual(t, base, Generate(refKey, types.IV{refIV[0], refIV[1] ^ 1<<63}, 2))
}

func TestGenerate_Avalanche(t *testing.T) {
	base := Generate(refKey, refIV, 2)
	for bit := 0; bit < 128; bit++ {
		key := refKey
		key[bit/64] ^= 1 << (bit % 64)
		ks := Generate(key, refIV, 2)
		diff := bits.OnesCount64(base[0]^ks[0]) + bits.OnesCount64(base[1]^ks[1])
		// 128 output bits; an honest flip lands near 64
		require.Greater(t, diff, 32, "key bit %d changed only %d keystream bits", bit, diff)
		require.Less(t, diff, 96, "key bit %d changed %d keystream bits", bit, diff)
	}
}

func TestGenerate_NegativeCount(t *testing.T) {
	require.Empty(t, Generate(refKey, refIV, -1))
}

func TestGenerateMetered_ChargesKeystreamCost(t *testing.T) {
	for _, n := range []int{0, 1, 2, 5} {
		m := &countingMeter{}
		out := GenerateMetered(refKey, refIV, n, m)
		require.Equal(t, Generate(refKey, refIV, n), out)
		require.Equal(t, KeystreamCost(n), m.total)
		require.Equal(t, 1, m.calls["chaos/seed"])
		require.Equal(t, WarmupRounds, m.calls["chaos/warmup"])
		require.Equal(t, n, m.calls["chaos/advance"])
	}
}

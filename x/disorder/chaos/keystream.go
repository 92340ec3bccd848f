package chaos

import "github.com/nyxanic/disorder/x/disorder/types"

// WarmupRounds is the number of advances discarded after seeding.
const WarmupRounds = 8

// Compute units charged by GenerateMetered.
const (
	CostSeed    uint64 = 2_000
	CostAdvance uint64 = 1_000
	CostExtract uint64 = 200
)

// Meter is charged as the keystream is produced.
type Meter interface {
	Consume(units uint64, descriptor string)
}

type noopMeter struct{}

func (noopMeter) Consume(uint64, string) {}

// KeystreamCost returns the units GenerateMetered charges for count words.
func KeystreamCost(count int) uint64 {
	return CostSeed + uint64(WarmupRounds+count)*CostAdvance + uint64(count)*CostExtract
}

// Generate returns count keystream words for (key, iv). It allocates a fresh
// state per call; two calls with the same arguments return identical words.
func Generate(key types.Key, iv types.IV, count int) []uint64 {
	return GenerateMetered(key, iv, count, noopMeter{})
}

// GenerateMetered is Generate with every step charged to m. If m aborts the
// call, nothing computed so far escapes.
func GenerateMetered(key types.Key, iv types.IV, count int, m Meter) []uint64 {
	if count < 0 {
		count = 0
	}
	m.Consume(CostSeed, "chaos/seed")
	s := Seed(key, iv)
	for i := 0; i < WarmupRounds; i++ {
		m.Consume(CostAdvance, "chaos/warmup")
		s = Advance(s)
	}

	out := make([]uint64, count)
	for i := range out {
		m.Consume(CostAdvance, "chaos/advance")
		s = Advance(s)
		m.Consume(CostExtract, "chaos/extract")
		out[i] = Extract(s)
	}
	return out
}

package zk

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nyxanic/disorder/x/disorder/types"
)

var (
	testKey       = types.Key{0xDEADBEEF, 0xCAFEBABE}
	testIV        = types.IV{0x11112222, 0x33334444}
	testPlaintext = types.Block{100, 200}
)

var (
	groth16Once  sync.Once
	groth16Setup *SetupResult
	groth16Err   error

	plonkOnce  sync.Once
	plonkSetup *SetupResult
	plonkErr   error
)

// testGroth16 runs one Groth16 setup per test binary.
func testGroth16(t *testing.T) *SetupResult {
	t.Helper()
	groth16Once.Do(func() {
		SilenceGnark()
		groth16Setup, groth16Err = Setup(SchemeGroth16, TestSetupOptions())
	})
	require.NoError(t, groth16Err, "groth16 setup should succeed")
	return groth16Setup
}

// testPlonk runs one PLONK setup with the unsafe test SRS.
func testPlonk(t *testing.T) *SetupResult {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping PLONK setup in short mode")
	}
	plonkOnce.Do(func() {
		SilenceGnark()
		plonkSetup, plonkErr = Setup(SchemePlonk, TestSetupOptions())
	})
	require.NoError(t, plonkErr, "plonk setup should succeed")
	return plonkSetup
}

// testEnvelope proves the default test vector with setup.
func testEnvelope(t *testing.T, setup *SetupResult) ([]byte, Statement) {
	t.Helper()
	env, st, err := ProverFromSetup(setup).Prove(testKey, testIV, testPlaintext)
	require.NoError(t, err, "proof generation should succeed")
	return env, st
}

func testVerifier(t *testing.T, setup *SetupResult) *Verifier {
	t.Helper()
	v, err := NewVerifier(setup.VerifyingKeys())
	require.NoError(t, err)
	return v
}

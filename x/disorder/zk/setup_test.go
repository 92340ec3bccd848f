package zk

import (
	"context"
	"encoding/hex"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/kzg"
	"github.com/consensys/gnark/test/unsafekzg"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/blake2b"
)

func TestPlonkDomainSize(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping PLONK compilation in short mode")
	}
	cs, err := CompileCircuit(SchemePlonk)
	require.NoError(t, err)
	require.Equal(t, cs.GetNbConstraints()+cs.GetNbPublicVariables(), plonkDomainSize(cs))
	require.Greater(t, plonkDomainSize(cs), cs.GetNbConstraints())

	_, lagrange, err := unsafekzg.NewSRS(cs)
	require.NoError(t, err)
	require.Len(t, lagrange.(*kzg.SRS).Pk.G1, nextPowerOfTwo(plonkDomainSize(cs)))
}

func TestNextPowerOfTwo(t *testing.T) {
	for in, want := range map[int]int{0: 1, 1: 1, 2: 2, 3: 4, 1024: 1024, 1025: 2048} {
		require.Equal(t, want, nextPowerOfTwo(in), "n=%d", in)
	}
}

func TestSetupModeFile(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping PLONK setup in short mode")
	}
	SilenceGnark()
	cs, err := CompileCircuit(SchemePlonk)
	require.NoError(t, err)
	canonical, lagrange, err := unsafekzg.NewSRS(cs)
	require.NoError(t, err)

	dir := t.TempDir()
	opts := SetupOptions{
		Mode:            SetupModeFile,
		SRSPath:         filepath.Join(dir, "srs.dat"),
		SRSLagrangePath: filepath.Join(dir, "srs_lagrange.dat"),
	}
	require.NoError(t, saveBN254SRSToFile(canonical.(*kzg.SRS), opts.SRSPath))
	require.NoError(t, saveBN254SRSToFile(lagrange.(*kzg.SRS), opts.SRSLagrangePath))

	res, err := Setup(SchemePlonk, opts)
	require.NoError(t, err)

	env, _, err := ProverFromSetup(res).Prove(testKey, testIV, testPlaintext)
	require.NoError(t, err)
	v, err := NewVerifier(res.VerifyingKeys())
	require.NoError(t, err)
	out, _, err := verifyWithBudget(v, env, WorstCaseVerifyUnits)
	require.NoError(t, err)
	require.True(t, out.Valid, "err: %v", out.Err)

	opts.SRSLagrangePath = filepath.Join(dir, "missing.dat")
	_, err = Setup(SchemePlonk, opts)
	require.Error(t, err)
}

func TestLoadOrDownloadHermezSRS_Cached(t *testing.T) {
	const power = 10
	srs, err := kzg.NewSRS(64, big.NewInt(42))
	require.NoError(t, err)

	dir := t.TempDir()
	// 300 rows need a 512 point Lagrange basis.
	require.NoError(t, saveBN254SRSToFile(srs, filepath.Join(dir, "srs_bn254_10.dat")))
	require.NoError(t, saveBN254SRSToFile(srs, filepath.Join(dir, "srs_lagrange_bn254_10_512.dat")))

	canonical, lagrange, err := LoadOrDownloadHermezSRS(dir, power, 300)
	require.NoError(t, err)
	require.Len(t, canonical.Pk.G1, len(srs.Pk.G1))
	require.Len(t, lagrange.Pk.G1, len(srs.Pk.G1))
}

func TestLoadOrDownloadHermezSRS_PowerTooSmall(t *testing.T) {
	// 257 rows round up to 512, beyond 2^8.
	_, _, err := LoadOrDownloadHermezSRS(t.TempDir(), 8, 257)
	require.ErrorContains(t, err, "increase power")
}

func TestDownloadFile(t *testing.T) {
	payload := []byte("powers of tau")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ptau" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "file.ptau")
	require.NoError(t, DownloadFile(context.Background(), srv.URL+"/ptau", path))
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, payload, got)

	sum := blake2b.Sum512(payload)
	require.NoError(t, verifyFileBlake2b(path, hex.EncodeToString(sum[:])))
	require.ErrorContains(t, verifyFileBlake2b(path, "00"), "hash mismatch")

	err = DownloadFile(context.Background(), srv.URL+"/missing", filepath.Join(t.TempDir(), "x"))
	require.ErrorContains(t, err, "HTTP 404")
}

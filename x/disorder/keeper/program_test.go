package keeper

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/nyxanic/disorder/x/disorder/cipher"
	"github.com/nyxanic/disorder/x/disorder/testutil"
	"github.com/nyxanic/disorder/x/disorder/types"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestProgram(t *testing.T, verifier types.ProofVerifier, opts ...Option) *Program {
	t.Helper()
	db, err := NewLevelDB("", false)
	require.NoError(t, err)
	opts = append([]Option{
		WithLogger(zerolog.Nop()),
		WithClock(func() time.Time { return fixedNow }),
		WithComputeBudgets(200_000, 1_400_000),
	}, opts...)
	p, err := NewProgram(db, verifier, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestComputeLimit(t *testing.T) {
	p := newTestProgram(t, nil)
	require.Equal(t, uint64(200_000), p.ComputeLimit(0))
	require.Equal(t, uint64(5_000), p.ComputeLimit(5_000))
	require.Equal(t, uint64(1_400_000), p.ComputeLimit(1_400_000))
	require.Equal(t, uint64(1_400_000), p.ComputeLimit(9_000_000))

	clamped := newTestProgram(t, nil, WithComputeBudgets(2_000_000, 1_000))
	require.Equal(t, uint64(1_000), clamped.ComputeLimit(0))
}

func TestInitialize(t *testing.T) {
	ctrl := gomock.NewController(t)
	verifier := testutil.NewMockProofVerifier(ctrl)
	digests := []types.KeyDigest{{Scheme: "groth16", Digest: "ab"}}
	verifier.EXPECT().KeyDigests().Return(digests).Times(1)

	p := newTestProgram(t, verifier)
	ctx := context.Background()

	_, err := p.ProgramInfo(ctx)
	require.ErrorIs(t, err, types.ErrNotInitialized)

	info, err := p.Initialize(ctx)
	require.NoError(t, err)
	require.Equal(t, types.ProgramVersion, info.Version)
	require.Equal(t, digests, info.VerifyingKeys)
	require.True(t, fixedNow.Equal(info.InitializedAt))

	// second call returns the stored record without asking the verifier again
	again, err := p.Initialize(ctx)
	require.NoError(t, err)
	require.Equal(t, info.VerifyingKeys, again.VerifyingKeys)

	stored, err := p.ProgramInfo(ctx)
	require.NoError(t, err)
	require.Equal(t, info.Version, stored.Version)
}

func TestInitializeWithoutVerifier(t *testing.T) {
	p := newTestProgram(t, nil)
	info, err := p.Initialize(context.Background())
	require.NoError(t, err)
	require.Empty(t, info.VerifyingKeys)
}

func TestEncryptDecryptSim(t *testing.T) {
	p := newTestProgram(t, nil)
	ctx := context.Background()
	key := testutil.RandomKey()
	iv := testutil.RandomIV()
	pt := testutil.RandomBlock()

	enc, err := p.EncryptSim(ctx, types.CipherRequest{Key: key, IV: iv, Input: pt, Mode: types.ModeSimulate})
	require.NoError(t, err)
	require.Equal(t, cipher.Encrypt(key, iv, pt), enc.Output)
	require.Equal(t, cipher.WorstCaseUnits, enc.ComputeUsed)
	require.False(t, enc.Committed)
	require.Zero(t, p.LastSeq(), "simulate must not touch the ledger")

	dec, err := p.DecryptSim(ctx, types.CipherRequest{Key: key, IV: iv, Input: enc.Output, Mode: types.ModeCommit})
	require.NoError(t, err)
	require.Equal(t, pt, dec.Output)
	require.True(t, dec.Committed)
	require.Equal(t, uint64(1), dec.LedgerSeq)

	rec, err := p.GetRecord(ctx, dec.LedgerSeq)
	require.NoError(t, err)
	require.Equal(t, types.InstructionDecryptSim, rec.Instruction)
	require.Equal(t, iv, *rec.IV)
	require.Equal(t, enc.Output, *rec.Input)
	require.Equal(t, pt, *rec.Output)
	require.Equal(t, dec.ComputeUsed, rec.ComputeUsed)
	require.True(t, fixedNow.Equal(rec.CommittedAt))
}

func TestCipherBudgetExhausted(t *testing.T) {
	p := newTestProgram(t, nil)
	ctx := context.Background()

	resp, err := p.EncryptSim(ctx, types.CipherRequest{
		Key:           testutil.RandomKey(),
		IV:            testutil.RandomIV(),
		Input:         testutil.RandomBlock(),
		Mode:          types.ModeCommit,
		ComputeBudget: cipher.WorstCaseUnits - 1,
	})
	require.ErrorIs(t, err, types.ErrComputeExhausted)
	require.Nil(t, resp)
	require.Zero(t, p.LastSeq(), "an aborted instruction must not commit")
}

func TestCipherCanceledContext(t *testing.T) {
	p := newTestProgram(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.EncryptSim(ctx, types.CipherRequest{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestVerifyProofMissing(t *testing.T) {
	ctrl := gomock.NewController(t)
	verifier := testutil.NewMockProofVerifier(ctrl)
	// no VerifyEnvelope expectation: the verifier must not be reached
	p := newTestProgram(t, verifier)

	_, err := p.VerifyProof(context.Background(), types.VerifyRequest{Mode: types.ModeCommit})
	require.ErrorIs(t, err, types.ErrMissingProof)
	require.Zero(t, p.LastSeq())
}

func TestVerifyProofNoVerifier(t *testing.T) {
	p := newTestProgram(t, nil)
	_, err := p.VerifyProof(context.Background(), types.VerifyRequest{Proof: []byte{1}})
	require.ErrorIs(t, err, types.ErrNotInitialized)
}

func TestVerifyProof(t *testing.T) {
	digest := [32]byte{1, 2, 3}
	proof := []byte("envelope")

	t.Run("valid proof commits", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		verifier := testutil.NewMockProofVerifier(ctrl)
		verifier.EXPECT().VerifyEnvelope(proof, gomock.Any()).
			DoAndReturn(func(_ []byte, m types.ComputeMeter) types.VerificationResult {
				m.Consume(700_000, "verify")
				return types.VerificationResult{Valid: true, Scheme: "groth16", Digest: digest}
			})
		p := newTestProgram(t, verifier)

		resp, err := p.VerifyProof(context.Background(), types.VerifyRequest{
			Proof:         proof,
			Mode:          types.ModeCommit,
			ComputeBudget: 1_400_000,
		})
		require.NoError(t, err)
		require.Equal(t, digest, resp.Digest)
		require.Equal(t, uint64(700_000), resp.ComputeUsed)
		require.True(t, resp.Committed)

		rec, err := p.GetRecord(context.Background(), resp.LedgerSeq)
		require.NoError(t, err)
		require.Equal(t, types.InstructionVerifyProof, rec.Instruction)
		require.Equal(t, "0102030000000000000000000000000000000000000000000000000000000000", rec.ProofDigest)
		require.Equal(t, "groth16", rec.Scheme)
		require.Nil(t, rec.IV)
	})

	t.Run("simulate does not commit", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		verifier := testutil.NewMockProofVerifier(ctrl)
		verifier.EXPECT().VerifyEnvelope(proof, gomock.Any()).
			Return(types.VerificationResult{Valid: true, Scheme: "plonk", Digest: digest})
		p := newTestProgram(t, verifier)

		resp, err := p.VerifyProof(context.Background(), types.VerifyRequest{Proof: proof, Mode: types.ModeSimulate})
		require.NoError(t, err)
		require.False(t, resp.Committed)
		require.Zero(t, p.LastSeq())
	})

	t.Run("rejection passes the verifier error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		verifier := testutil.NewMockProofVerifier(ctrl)
		verifier.EXPECT().VerifyEnvelope(proof, gomock.Any()).
			Return(types.VerificationResult{
				Reason: types.ReasonInvalid,
				Err:    types.ErrVerificationFailed.Wrap("pairing check"),
			})
		p := newTestProgram(t, verifier)

		resp, err := p.VerifyProof(context.Background(), types.VerifyRequest{Proof: proof, Mode: types.ModeCommit})
		require.ErrorIs(t, err, types.ErrVerificationFailed)
		require.Nil(t, resp)
		require.Zero(t, p.LastSeq())
	})

	t.Run("invalid without error is still a failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		verifier := testutil.NewMockProofVerifier(ctrl)
		verifier.EXPECT().VerifyEnvelope(proof, gomock.Any()).Return(types.VerificationResult{})
		p := newTestProgram(t, verifier)

		_, err := p.VerifyProof(context.Background(), types.VerifyRequest{Proof: proof})
		require.ErrorIs(t, err, types.ErrVerificationFailed)
	})

	t.Run("budget exhaustion aborts", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		verifier := testutil.NewMockProofVerifier(ctrl)
		verifier.EXPECT().VerifyEnvelope(proof, gomock.Any()).
			DoAndReturn(func(_ []byte, m types.ComputeMeter) types.VerificationResult {
				m.Require(1_000_000, "verify precheck")
				return types.VerificationResult{Valid: true}
			})
		var logs bytes.Buffer
		p := newTestProgram(t, verifier, WithLogger(zerolog.New(&logs)))

		_, err := p.VerifyProof(context.Background(), types.VerifyRequest{Proof: proof, Mode: types.ModeCommit})
		require.ErrorIs(t, err, types.ErrComputeExhausted)
		require.Zero(t, p.LastSeq())
		require.Contains(t, logs.String(), `"reason":"budget"`)
	})
}

func TestRecords(t *testing.T) {
	p := newTestProgram(t, nil)
	ctx := context.Background()
	key := testutil.RandomKey()

	for i := 0; i < 5; i++ {
		_, err := p.EncryptSim(ctx, types.CipherRequest{
			Key:   key,
			IV:    types.IV{uint64(i), 0},
			Input: testutil.RandomBlock(),
			Mode:  types.ModeCommit,
		})
		require.NoError(t, err)
	}
	require.Equal(t, uint64(5), p.LastSeq())

	recs, err := p.Records(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Equal(t, uint64(2), recs[0].Seq)
	require.Equal(t, uint64(3), recs[1].Seq)
	require.Equal(t, types.IV{1, 0}, *recs[0].IV)

	all, err := p.Records(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 5)

	_, err = p.GetRecord(ctx, 6)
	require.ErrorIs(t, err, types.ErrRecordNotFound)
}

func TestRecordsScanCap(t *testing.T) {
	p := newTestProgram(t, nil)
	p.maxScan = 3
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		_, err := p.EncryptSim(ctx, types.CipherRequest{Mode: types.ModeCommit})
		require.NoError(t, err)
	}
	recs, err := p.Records(ctx, 1, 100)
	require.NoError(t, err)
	require.Len(t, recs, 3)
}

func TestSequenceSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger")
	ctx := context.Background()

	open := func() *Program {
		db, err := NewLevelDB(path, false)
		require.NoError(t, err)
		p, err := NewProgram(db, nil, WithLogger(zerolog.Nop()), WithSyncWrites(true))
		require.NoError(t, err)
		return p
	}

	p := open()
	_, err := p.Initialize(ctx)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := p.EncryptSim(ctx, types.CipherRequest{Mode: types.ModeCommit})
		require.NoError(t, err)
	}
	require.NoError(t, p.Close())

	p = open()
	defer p.Close()
	require.Equal(t, uint64(3), p.LastSeq())
	resp, err := p.DecryptSim(ctx, types.CipherRequest{Mode: types.ModeCommit})
	require.NoError(t, err)
	require.Equal(t, uint64(4), resp.LedgerSeq)

	_, err = p.ProgramInfo(ctx)
	require.NoError(t, err)
}

func TestCompactOnInit(t *testing.T) {
	db, err := NewLevelDB(filepath.Join(t.TempDir(), "ledger"), true)
	require.NoError(t, err)
	require.NoError(t, db.Close())
}

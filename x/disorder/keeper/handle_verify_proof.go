package keeper

import (
	"context"
	"encoding/hex"
	"errors"

	"github.com/nyxanic/disorder/x/disorder/budget"
	"github.com/nyxanic/disorder/x/disorder/types"
)

// VerifyProof checks a proof envelope against the embedded verifying keys.
// It returns a response only when the proof is accepted. A missing proof is
// rejected before the verifier is reached.
func (p *Program) VerifyProof(ctx context.Context, req types.VerifyRequest) (*types.VerifyResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(req.Proof) == 0 {
		return nil, types.ErrMissingProof.Wrap("verifyProof requires a proof envelope")
	}
	if p.verifier == nil {
		return nil, types.ErrNotInitialized.Wrap("no verifying key embedded")
	}
	limit := p.ComputeLimit(req.ComputeBudget)

	var res types.VerificationResult
	used, err := budget.Guard(limit, func(m *budget.Meter) error {
		res = p.verifier.VerifyEnvelope(req.Proof, m)
		if res.Err == nil && !res.Valid {
			return types.ErrVerificationFailed.Wrap("verifier returned no verdict")
		}
		return res.Err
	})
	if err != nil {
		if errors.Is(err, types.ErrComputeExhausted) {
			res.Reason = types.ReasonBudget
		}
		p.logger.Warn().Err(err).
			Str("reason", res.Reason.String()).
			Uint64("limit", limit).
			Int("proof_len", len(req.Proof)).
			Msg("proof rejected")
		return nil, err
	}

	digest := hex.EncodeToString(res.Digest[:])
	resp := &types.VerifyResponse{
		Digest:      res.Digest,
		Scheme:      res.Scheme,
		ComputeUsed: used,
	}
	if req.Mode == types.ModeCommit {
		seq, err := p.commit(types.Record{
			Instruction: types.InstructionVerifyProof,
			ProofDigest: digest,
			Scheme:      res.Scheme,
			ComputeUsed: used,
		})
		if err != nil {
			return nil, err
		}
		resp.Committed = true
		resp.LedgerSeq = seq
	}

	p.logger.Info().
		Str("digest", digest).
		Str("scheme", res.Scheme).
		Str("mode", req.Mode.String()).
		Uint64("compute_used", used).
		Msg("zk-disorder proof valid")
	return resp, nil
}

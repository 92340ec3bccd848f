package keeper

import (
	"context"

	"github.com/nyxanic/disorder/x/disorder/budget"
	"github.com/nyxanic/disorder/x/disorder/cipher"
	"github.com/nyxanic/disorder/x/disorder/types"
)

type cipherFunc func(types.Key, types.IV, types.Block, types.ComputeMeter) types.Block

// EncryptSim encrypts one block. The key is used for this call only.
func (p *Program) EncryptSim(ctx context.Context, req types.CipherRequest) (*types.CipherResponse, error) {
	return p.runCipher(ctx, types.InstructionEncryptSim, req, cipher.EncryptMetered)
}

// DecryptSim decrypts one block.
func (p *Program) DecryptSim(ctx context.Context, req types.CipherRequest) (*types.CipherResponse, error) {
	return p.runCipher(ctx, types.InstructionDecryptSim, req, cipher.DecryptMetered)
}

func (p *Program) runCipher(ctx context.Context, instruction string, req types.CipherRequest, fn cipherFunc) (*types.CipherResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	limit := p.ComputeLimit(req.ComputeBudget)

	var out types.Block
	used, err := budget.Guard(limit, func(m *budget.Meter) error {
		out = fn(req.Key, req.IV, req.Input, m)
		return nil
	})
	if err != nil {
		p.logger.Warn().Err(err).
			Str("instruction", instruction).
			Uint64("limit", limit).
			Msg("instruction aborted")
		return nil, err
	}

	resp := &types.CipherResponse{Output: out, ComputeUsed: used}
	if req.Mode == types.ModeCommit {
		iv, in := req.IV, req.Input
		seq, err := p.commit(types.Record{
			Instruction: instruction,
			IV:          &iv,
			Input:       &in,
			Output:      &out,
			ComputeUsed: used,
		})
		if err != nil {
			return nil, err
		}
		resp.Committed = true
		resp.LedgerSeq = seq
	}

	p.logger.Info().
		Str("instruction", instruction).
		Str("mode", req.Mode.String()).
		Stringer("iv", req.IV).
		Stringer("output", out).
		Uint64("compute_used", used).
		Msg("block processed")
	return resp, nil
}

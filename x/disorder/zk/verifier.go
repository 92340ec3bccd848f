package zk

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/plonk"
	"golang.org/x/crypto/blake2b"

	"github.com/nyxanic/disorder/x/disorder/types"
)

// VerifyingKeys are the keys embedded at initialization. A nil key disables
// its scheme.
type VerifyingKeys struct {
	Plonk   plonk.VerifyingKey
	Groth16 groth16.VerifyingKey
}

// Verifier checks proof envelopes against fixed verifying keys. It holds no
// mutable state and is safe for concurrent use.
type Verifier struct {
	keys    VerifyingKeys
	digests []types.KeyDigest
}

var _ types.ProofVerifier = (*Verifier)(nil)

// NewVerifier creates a verifier. At least one key is required.
func NewVerifier(keys VerifyingKeys) (*Verifier, error) {
	if keys.Plonk == nil && keys.Groth16 == nil {
		return nil, fmt.Errorf("no verifying key provided")
	}
	v := &Verifier{keys: keys}
	if keys.Plonk != nil {
		d, err := keyDigest(SchemePlonk, keys.Plonk)
		if err != nil {
			return nil, err
		}
		v.digests = append(v.digests, d)
	}
	if keys.Groth16 != nil {
		d, err := keyDigest(SchemeGroth16, keys.Groth16)
		if err != nil {
			return nil, err
		}
		v.digests = append(v.digests, d)
	}
	return v, nil
}

// NewVerifierFromBytes creates a verifier from serialized keys. Empty input
// disables the scheme.
func NewVerifierFromBytes(plonkVK, groth16VK []byte) (*Verifier, error) {
	var keys VerifyingKeys
	var err error
	if len(plonkVK) > 0 {
		if keys.Plonk, err = DeserializePlonkVerifyingKey(plonkVK); err != nil {
			return nil, err
		}
	}
	if len(groth16VK) > 0 {
		if keys.Groth16, err = DeserializeGroth16VerifyingKey(groth16VK); err != nil {
			return nil, err
		}
	}
	return NewVerifier(keys)
}

func keyDigest(scheme Scheme, vk io.WriterTo) (types.KeyDigest, error) {
	raw, err := SerializeKey(vk)
	if err != nil {
		return types.KeyDigest{}, err
	}
	sum := blake2b.Sum256(raw)
	return types.KeyDigest{Scheme: scheme.String(), Digest: hex.EncodeToString(sum[:])}, nil
}

// KeyDigests returns the BLAKE2b-256 digest of every embedded key.
func (v *Verifier) KeyDigests() []types.KeyDigest {
	return append([]types.KeyDigest(nil), v.digests...)
}

// Supports reports whether a key for scheme is embedded.
func (v *Verifier) Supports(scheme Scheme) bool {
	switch scheme {
	case SchemePlonk:
		return v.keys.Plonk != nil
	case SchemeGroth16:
		return v.keys.Groth16 != nil
	default:
		return false
	}
}

// Verify checks a parsed proof against its own statement.
func (v *Verifier) Verify(p *ParsedProof) types.VerificationResult {
	res := types.VerificationResult{Scheme: p.Scheme.String(), Digest: p.Digest}
	if !v.Supports(p.Scheme) {
		res.Reason = types.ReasonMalformed
		res.Err = types.ErrParse.Wrapf("no verifying key for scheme %s", p.Scheme)
		return res
	}

	pub, err := p.Statement.PublicWitness()
	if err != nil {
		res.Reason = types.ReasonInvalid
		res.Err = types.ErrVerificationFailed.Wrap(err.Error())
		return res
	}

	switch p.Scheme {
	case SchemePlonk:
		err = plonk.Verify(p.plonkProof, v.keys.Plonk, pub)
	case SchemeGroth16:
		err = groth16.Verify(p.groth16Proof, v.keys.Groth16, pub)
	}
	if err != nil {
		res.Reason = types.ReasonInvalid
		res.Err = types.ErrVerificationFailed.Wrapf("%s: %v", p.Scheme, err)
		return res
	}

	res.Valid = true
	return res
}

// VerifyEnvelope meters, parses and verifies an envelope. The worst case is
// required before anything else, so a budget that cannot cover every input
// aborts through the meter. Run it inside budget.Guard.
func (v *Verifier) VerifyEnvelope(envelope []byte, meter types.ComputeMeter) types.VerificationResult {
	meter.Require(WorstCaseVerifyUnits, "zk/verify")

	if len(envelope) == 0 {
		return types.VerificationResult{
			Reason: types.ReasonMissing,
			Err:    types.ErrMissingProof.Wrap("empty proof envelope"),
		}
	}

	meter.Consume(uint64(len(envelope))*CostEnvelopeByte, "zk/parse")
	p, err := ParseProof(envelope)
	if err != nil {
		return types.VerificationResult{
			Reason: types.ReasonMalformed,
			Digest: blake2b.Sum256(envelope),
			Err:    err,
		}
	}

	meter.Consume(VerifyCost(p.Scheme), "zk/pairing")
	return v.Verify(p)
}

// DeserializePlonkVerifyingKey reads a BN254 PLONK verifying key.
func DeserializePlonkVerifyingKey(data []byte) (plonk.VerifyingKey, error) {
	vk := plonk.NewVerifyingKey(ecc.BN254)
	if _, err := vk.ReadFrom(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("failed to deserialize plonk verifying key: %w", err)
	}
	return vk, nil
}

// DeserializeGroth16VerifyingKey reads a BN254 Groth16 verifying key.
func DeserializeGroth16VerifyingKey(data []byte) (groth16.VerifyingKey, error) {
	vk := groth16.NewVerifyingKey(ecc.BN254)
	if _, err := vk.ReadFrom(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("failed to deserialize groth16 verifying key: %w", err)
	}
	return vk, nil
}

package zk

import (
	"fmt"
	"io"

	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/plonk"
	"github.com/consensys/gnark/constraint"

	"github.com/nyxanic/disorder/x/disorder/types"
)

// Prover produces proof envelopes for one scheme. Proving happens off the
// verification path; only the envelope travels.
type Prover struct {
	scheme    Scheme
	cs        constraint.ConstraintSystem
	plonkPK   plonk.ProvingKey
	groth16PK groth16.ProvingKey
}

// NewPlonkProver creates a PLONK prover.
func NewPlonkProver(cs constraint.ConstraintSystem, pk plonk.ProvingKey) *Prover {
	return &Prover{scheme: SchemePlonk, cs: cs, plonkPK: pk}
}

// NewGroth16Prover creates a Groth16 prover.
func NewGroth16Prover(cs constraint.ConstraintSystem, pk groth16.ProvingKey) *Prover {
	return &Prover{scheme: SchemeGroth16, cs: cs, groth16PK: pk}
}

// ProverFromSetup creates a prover from a setup result.
func ProverFromSetup(setup *SetupResult) *Prover {
	if setup.Scheme == SchemeGroth16 {
		return NewGroth16Prover(setup.ConstraintSystem, setup.Groth16ProvingKey)
	}
	return NewPlonkProver(setup.ConstraintSystem, setup.PlonkProvingKey)
}

// Scheme returns the prover's proof system.
func (p *Prover) Scheme() Scheme {
	return p.scheme
}

// Prove encrypts plaintext under (key, iv) and proves it, returning the
// envelope and the statement it carries.
func (p *Prover) Prove(key types.Key, iv types.IV, plaintext types.Block) ([]byte, Statement, error) {
	st := NewStatement(key, iv, plaintext)
	env, err := p.ProveStatement(st, key)
	return env, st, err
}

// ProveStatement proves st with key as the witness. A key that does not open
// st fails here rather than producing an unverifiable proof.
func (p *Prover) ProveStatement(st Statement, key types.Key) ([]byte, error) {
	if !st.Opens(key) {
		return nil, fmt.Errorf("key does not satisfy the statement")
	}
	w, err := st.FullWitness(key)
	if err != nil {
		return nil, err
	}

	var proof io.WriterTo
	switch p.scheme {
	case SchemePlonk:
		proof, err = plonk.Prove(p.cs, p.plonkPK, w)
	case SchemeGroth16:
		proof, err = groth16.Prove(p.cs, p.groth16PK, w)
	default:
		return nil, fmt.Errorf("unsupported scheme %s", p.scheme)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to generate %s proof: %w", p.scheme, err)
	}
	return EncodeProof(p.scheme, proof, st)
}

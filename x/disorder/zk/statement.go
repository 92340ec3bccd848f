package zk

import (
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
	"github.com/consensys/gnark/backend/witness"
	"github.com/consensys/gnark/frontend"

	"github.com/nyxanic/disorder/x/disorder/cipher"
	"github.com/nyxanic/disorder/x/disorder/types"
)

// Commitment is a MiMC digest over the BN254 scalar field, big-endian.
type Commitment [fr.Bytes]byte

// String returns the commitment as hex.
func (c Commitment) String() string {
	return hex.EncodeToString(c[:])
}

// CommitKey returns MiMC(key[0], key[1]), matching the in-circuit hash.
func CommitKey(key types.Key) Commitment {
	h := mimc.NewMiMC()
	for _, w := range key {
		var e fr.Element
		e.SetUint64(w)
		b := e.Bytes()
		h.Write(b[:])
	}
	var c Commitment
	copy(c[:], h.Sum(nil))
	return c
}

// Statement is the public half of a proof: the claim that some key opening
// KeyCommitment encrypts Plaintext to Ciphertext under IV.
type Statement struct {
	IV            types.IV
	Plaintext     types.Block
	Ciphertext    types.Block
	KeyCommitment Commitment
}

// NewStatement computes the statement a holder of key can prove.
func NewStatement(key types.Key, iv types.IV, plaintext types.Block) Statement {
	return Statement{
		IV:            iv,
		Plaintext:     plaintext,
		Ciphertext:    cipher.Encrypt(key, iv, plaintext),
		KeyCommitment: CommitKey(key),
	}
}

// Opens reports whether key is consistent with the statement.
func (s Statement) Opens(key types.Key) bool {
	return CommitKey(key) == s.KeyCommitment &&
		cipher.Encrypt(key, s.IV, s.Plaintext) == s.Ciphertext
}

// Assignment returns the circuit assignment for the statement. The key is
// only set when non-nil.
func (s Statement) Assignment(key *types.Key) *DisorderCircuit {
	a := &DisorderCircuit{
		KeyCommitment: new(big.Int).SetBytes(s.KeyCommitment[:]),
	}
	for i := 0; i < types.BlockWords; i++ {
		a.IV[i] = s.IV[i]
		a.Plaintext[i] = s.Plaintext[i]
		a.Ciphertext[i] = s.Ciphertext[i]
		if key != nil {
			a.Key[i] = key[i]
		}
	}
	return a
}

// PublicWitness builds the public witness verifiers check proofs against.
func (s Statement) PublicWitness() (witness.Witness, error) {
	w, err := frontend.NewWitness(s.Assignment(nil), ecc.BN254.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return nil, fmt.Errorf("failed to create public witness: %w", err)
	}
	return w, nil
}

// FullWitness builds the prover's witness for key.
func (s Statement) FullWitness(key types.Key) (witness.Witness, error) {
	w, err := frontend.NewWitness(s.Assignment(&key), ecc.BN254.ScalarField())
	if err != nil {
		return nil, fmt.Errorf("failed to create witness: %w", err)
	}
	return w, nil
}

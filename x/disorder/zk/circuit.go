// Package zk proves and verifies statements about the disorder cipher.
//
// A proof shows that the prover knows a key committing to KeyCommitment that
// encrypts a public plaintext to a public ciphertext under a public IV. The
// whole keystream generator is arithmetized over the BN254 scalar field, and
// proofs are produced with either PLONK (KZG) or Groth16.
package zk

import (
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash/mimc"

	"github.com/nyxanic/disorder/x/disorder/types"
)

// DisorderCircuit proves knowledge of a key that opens KeyCommitment and
// encrypts Plaintext to Ciphertext under IV.
//
// Public inputs: IV, Plaintext, Ciphertext, KeyCommitment
// Private inputs: Key
//
// Constraints:
//  1. Every block and key word fits in 64 bits.
//  2. MiMC(Key[0], Key[1]) == KeyCommitment
//  3. Plaintext[i] XOR keystream(Key, IV)[i] == Ciphertext[i]
type DisorderCircuit struct {
	IV            [types.BlockWords]frontend.Variable `gnark:",public"`
	Plaintext     [types.BlockWords]frontend.Variable `gnark:",public"`
	Ciphertext    [types.BlockWords]frontend.Variable `gnark:",public"`
	KeyCommitment frontend.Variable                   `gnark:",public"`

	Key [types.BlockWords]frontend.Variable
}

// NbPublicInputs is the number of public field elements in a statement.
const NbPublicInputs = 3*types.BlockWords + 1

// Define implements frontend.Circuit.
func (c *DisorderCircuit) Define(api frontend.API) error {
	var key, iv, pt [types.BlockWords]word
	for i := 0; i < types.BlockWords; i++ {
		key[i] = toWord(api, c.Key[i])
		iv[i] = toWord(api, c.IV[i])
		pt[i] = toWord(api, c.Plaintext[i])
	}

	h, err := mimc.NewMiMC(api)
	if err != nil {
		return err
	}
	h.Write(c.Key[:]...)
	api.AssertIsEqual(h.Sum(), c.KeyCommitment)

	ks := keystreamWords(api, key, iv, types.BlockWords)
	for i := 0; i < types.BlockWords; i++ {
		ct := xorWords(api, pt[i], ks[i])
		api.AssertIsEqual(ct.pack(api), c.Ciphertext[i])
	}
	return nil
}

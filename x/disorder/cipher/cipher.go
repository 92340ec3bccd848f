// Package cipher implements the disorder block cipher: a two-word block is
// combined word-wise with the chaotic keystream by exclusive-or. There is no
// padding and no chaining; every call is independent.
package cipher

import (
	"github.com/nyxanic/disorder/x/disorder/chaos"
	"github.com/nyxanic/disorder/x/disorder/types"
)

// CostCombine is charged once per block for the XOR pass.
const CostCombine uint64 = 100

// WorstCaseUnits is the most a single Encrypt or Decrypt can charge.
var WorstCaseUnits = chaos.KeystreamCost(types.BlockWords) + CostCombine

// Encrypt returns the ciphertext of plaintext under (key, iv).
func Encrypt(key types.Key, iv types.IV, plaintext types.Block) types.Block {
	return combine(chaos.Generate(key, iv, types.BlockWords), plaintext)
}

// Decrypt returns the plaintext of ciphertext under (key, iv). It is the same
// operation as Encrypt.
func Decrypt(key types.Key, iv types.IV, ciphertext types.Block) types.Block {
	return combine(chaos.Generate(key, iv, types.BlockWords), ciphertext)
}

// EncryptMetered is Encrypt charged to m. The worst case is required up front
// so an insufficient budget aborts before any state is seeded.
func EncryptMetered(key types.Key, iv types.IV, plaintext types.Block, m types.ComputeMeter) types.Block {
	m.Require(WorstCaseUnits, "cipher/encrypt")
	ks := chaos.GenerateMetered(key, iv, types.BlockWords, m)
	m.Consume(CostCombine, "cipher/combine")
	return combine(ks, plaintext)
}

// DecryptMetered is Decrypt charged to m.
func DecryptMetered(key types.Key, iv types.IV, ciphertext types.Block, m types.ComputeMeter) types.Block {
	m.Require(WorstCaseUnits, "cipher/decrypt")
	ks := chaos.GenerateMetered(key, iv, types.BlockWords, m)
	m.Consume(CostCombine, "cipher/combine")
	return combine(ks, ciphertext)
}

func combine(ks []uint64, in types.Block) types.Block {
	var out types.Block
	for i := range in {
		out[i] = in[i] ^ ks[i]
	}
	return out
}

// Package chaos implements the hyperchaotic state engine behind the disorder
// cipher: a four-lane coupled map lattice of fixed-point logistic maps,
// perturbed by per-lane Weyl sequences.
//
// Every lane holds a Q0.64 fixed-point value in [0, 1). All arithmetic is
// integer arithmetic on uint64 with exact 128-bit products, so a trajectory is
// bit-identical on every platform. The same equations are arithmetized in
// x/disorder/zk; any change here must be mirrored there.
package chaos

import (
	"math/bits"

	"github.com/nyxanic/disorder/x/disorder/types"
)

// Lanes is the number of coupled maps in the lattice.
const Lanes = 4

// SeedDomain separates the seeding of this engine from other uses of the key
// ("disorder" in ASCII).
const SeedDomain uint64 = 0x6469736f72646572

// SplitMix64 finalizer multipliers used by the whitening step.
const (
	MixMul1 uint64 = 0xbf58476d1ce4e5b9
	MixMul2 uint64 = 0x94d049bb133111eb
)

// Weyl holds the odd per-lane increments of the perturbation sequence.
var Weyl = [Lanes]uint64{
	0x9e3779b97f4a7c15,
	0xc2b2ae3d27d4eb4f,
	0x165667b19e3779f9,
	0x27d4eb2f165667c5,
}

// State is the chaotic state of one call. It is a value type: Advance returns
// a new State and never mutates its argument.
type State struct {
	X    [Lanes]uint64
	Step uint64
}

// Seed derives the initial state from a key and an IV. Each input word is
// whitened with Mix64 and chained into the next lane; a second pass feeds the
// last lane back so every lane depends on every input bit.
func Seed(key types.Key, iv types.IV) State {
	var s State
	s.X[0] = Mix64(key[0] ^ SeedDomain)
	s.X[1] = Mix64(key[1] ^ s.X[0])
	s.X[2] = Mix64(iv[0] ^ s.X[1])
	s.X[3] = Mix64(iv[1] ^ s.X[2])

	s.X[0] = Mix64(s.X[0] ^ s.X[3])
	s.X[1] = Mix64(s.X[1] ^ s.X[0])
	s.X[2] = Mix64(s.X[2] ^ s.X[1])
	return s
}

// Advance performs one iteration of the lattice:
//
//	y_i  = logistic(x_i)
//	x_i' = y_i - y_i/4 + y_{i+1}/4 + Weyl_i*(step+1)   (mod 2^64)
//
// The coupling is a convex combination with epsilon = 1/4. The perturbation is
// non-zero at every step, so the zero state is not absorbing.
func Advance(s State) State {
	var y [Lanes]uint64
	for i := range s.X {
		y[i] = Logistic(s.X[i])
	}

	next := State{Step: s.Step + 1}
	for i := range y {
		nb := y[(i+1)%Lanes]
		next.X[i] = y[i] - y[i]>>2 + nb>>2 + Perturbation(i, s.Step)
	}
	return next
}

// Logistic evaluates the r = 4 logistic map on a Q0.64 value:
// 4*x*(1-x) = (x * ^x) >> 62. The product is below 2^126 so the result always
// fits in 64 bits.
func Logistic(x uint64) uint64 {
	hi, lo := bits.Mul64(x, ^x)
	return hi<<2 | lo>>62
}

// Perturbation returns the Weyl term added to lane i when advancing from step.
func Perturbation(lane int, step uint64) uint64 {
	return Weyl[lane] * (step + 1)
}

// Mix64 is the SplitMix64 finalizer. It is a bijection with full avalanche.
func Mix64(z uint64) uint64 {
	z = (z ^ z>>30) * MixMul1
	z = (z ^ z>>27) * MixMul2
	return z ^ z>>31
}

// Extract folds the lanes into one output word.
func Extract(s State) uint64 {
	return s.X[0] ^
		bits.RotateLeft64(s.X[1], 16) ^
		bits.RotateLeft64(s.X[2], 32) ^
		bits.RotateLeft64(s.X[3], 48)
}

package zk

import (
	"math"
	"math/big"

	"github.com/consensys/gnark/frontend"

	"github.com/nyxanic/disorder/x/disorder/chaos"
	"github.com/nyxanic/disorder/x/disorder/types"
)

// wordBits is the width of every chaos lane and block word.
const wordBits = 64

// word is a 64-bit value as little-endian boolean variables.
type word [wordBits]frontend.Variable

// lane is a chaos lane carried both packed and as bits, so the logistic step
// can use the packed value and the xor/rotate steps can use the bits.
type lane struct {
	v frontend.Variable
	b word
}

var two64 = new(big.Int).Lsh(big.NewInt(1), wordBits)

// toWord range-checks v to 64 bits and returns its bits.
func toWord(api frontend.API, v frontend.Variable) word {
	var w word
	copy(w[:], api.ToBinary(v, wordBits))
	return w
}

func (w word) pack(api frontend.API) frontend.Variable {
	return api.FromBinary(w[:]...)
}

func laneOf(api frontend.API, w word) lane {
	return lane{v: w.pack(api), b: w}
}

func xorWords(api frontend.API, a, b word) word {
	var out word
	for i := range out {
		out[i] = api.Xor(a[i], b[i])
	}
	return out
}

// xorConst xors w with a compile-time constant.
func xorConst(api frontend.API, w word, c uint64) word {
	var out word
	for i := range out {
		if (c>>uint(i))&1 == 1 {
			out[i] = api.Sub(1, w[i])
		} else {
			out[i] = w[i]
		}
	}
	return out
}

// xorShiftRight returns w ^ (w >> n).
func xorShiftRight(api frontend.API, w word, n int) word {
	var out word
	for i := range out {
		if i+n < wordBits {
			out[i] = api.Xor(w[i], w[i+n])
		} else {
			out[i] = w[i]
		}
	}
	return out
}

// mulConstLow returns the low 64 bits of w * c. The product is below 2^128,
// so its 128-bit decomposition is unique in the BN254 scalar field.
func mulConstLow(api frontend.API, w word, c uint64) word {
	prod := api.Mul(w.pack(api), c)
	b := api.ToBinary(prod, 2*wordBits)
	var out word
	copy(out[:], b[:wordBits])
	return out
}

// mix64 mirrors chaos.Mix64.
func mix64(api frontend.API, w word) word {
	w = xorShiftRight(api, w, 30)
	w = mulConstLow(api, w, chaos.MixMul1)
	w = xorShiftRight(api, w, 27)
	w = mulConstLow(api, w, chaos.MixMul2)
	return xorShiftRight(api, w, 31)
}

// seedLanes mirrors chaos.Seed.
func seedLanes(api frontend.API, key, iv [types.BlockWords]word) [chaos.Lanes]lane {
	var x [chaos.Lanes]word
	x[0] = mix64(api, xorConst(api, key[0], chaos.SeedDomain))
	x[1] = mix64(api, xorWords(api, key[1], x[0]))
	x[2] = mix64(api, xorWords(api, iv[0], x[1]))
	x[3] = mix64(api, xorWords(api, iv[1], x[2]))

	x[0] = mix64(api, xorWords(api, x[0], x[3]))
	x[1] = mix64(api, xorWords(api, x[1], x[0]))
	x[2] = mix64(api, xorWords(api, x[2], x[1]))

	var lanes [chaos.Lanes]lane
	for i := range x {
		lanes[i] = laneOf(api, x[i])
	}
	return lanes
}

// advanceLanes mirrors chaos.Advance for the given step.
func advanceLanes(api frontend.API, x [chaos.Lanes]lane, step uint64) [chaos.Lanes]lane {
	var y, q [chaos.Lanes]frontend.Variable
	for i := range x {
		// x * ^x < 2^126
		t := api.Mul(x[i].v, api.Sub(uint64(math.MaxUint64), x[i].v))
		tb := api.ToBinary(t, 126)
		y[i] = api.FromBinary(tb[62:126]...)
		q[i] = api.FromBinary(tb[64:126]...)
	}

	var next [chaos.Lanes]lane
	for i := range x {
		// y - y/4 + y'/4 + w < 2^65
		s := api.Add(api.Sub(y[i], q[i]), q[(i+1)%chaos.Lanes], chaos.Perturbation(i, step))
		sb := api.ToBinary(s, wordBits+1)
		copy(next[i].b[:], sb[:wordBits])
		next[i].v = api.Sub(s, api.Mul(sb[wordBits], two64))
	}
	return next
}

// rotl returns the bits of w rotated left by r.
func rotl(w word, r int) word {
	var out word
	for j := range out {
		out[j] = w[(j-r+wordBits)%wordBits]
	}
	return out
}

// extractWord mirrors chaos.Extract.
func extractWord(api frontend.API, x [chaos.Lanes]lane) word {
	out := xorWords(api, x[0].b, rotl(x[1].b, 16))
	out = xorWords(api, out, rotl(x[2].b, 32))
	return xorWords(api, out, rotl(x[3].b, 48))
}

// keystreamWords mirrors chaos.Generate.
func keystreamWords(api frontend.API, key, iv [types.BlockWords]word, count int) []word {
	x := seedLanes(api, key, iv)
	step := uint64(0)
	for i := 0; i < chaos.WarmupRounds; i++ {
		x = advanceLanes(api, x, step)
		step++
	}

	out := make([]word, count)
	for i := range out {
		x = advanceLanes(api, x, step)
		step++
		out[i] = extractWord(api, x)
	}
	return out
}

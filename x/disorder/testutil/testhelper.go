package testutil

import (
	"crypto/rand"
	"encoding/binary"

	"github.com/nyxanic/disorder/x/disorder/types"
)

func randomWords() [types.BlockWords]uint64 {
	var buf [8 * types.BlockWords]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic(err)
	}
	var w [types.BlockWords]uint64
	for i := range w {
		w[i] = binary.BigEndian.Uint64(buf[i*8:])
	}
	return w
}

// RandomKey returns a random key for test purpose
func RandomKey() types.Key { return types.Key(randomWords()) }

// RandomIV returns a random IV for test purpose
func RandomIV() types.IV { return types.IV(randomWords()) }

// RandomBlock returns a random block for test purpose
func RandomBlock() types.Block { return types.Block(randomWords()) }

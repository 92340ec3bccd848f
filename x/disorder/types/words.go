package types

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// BlockWords is the fixed width, in 64-bit words, of keys, IVs and blocks.
const BlockWords = 2

// Key is the secret cipher key. It is supplied per call and never persisted.
type Key [BlockWords]uint64

// IV is the public initialization vector.
type IV [BlockWords]uint64

// Block is a plaintext or ciphertext block.
type Block [BlockWords]uint64

// KeyFromWords converts a decoded word slice into a Key.
func KeyFromWords(words []uint64) (Key, error) {
	var k Key
	if len(words) != BlockWords {
		return k, ErrInvalidInputSize.Wrapf("key: expected %d words, got %d", BlockWords, len(words))
	}
	copy(k[:], words)
	return k, nil
}

// IVFromWords converts a decoded word slice into an IV.
func IVFromWords(words []uint64) (IV, error) {
	var iv IV
	if len(words) != BlockWords {
		return iv, ErrInvalidInputSize.Wrapf("iv: expected %d words, got %d", BlockWords, len(words))
	}
	copy(iv[:], words)
	return iv, nil
}

// BlockFromWords converts a decoded word slice into a Block.
func BlockFromWords(words []uint64) (Block, error) {
	var b Block
	if len(words) != BlockWords {
		return b, ErrInvalidInputSize.Wrapf("block: expected %d words, got %d", BlockWords, len(words))
	}
	copy(b[:], words)
	return b, nil
}

// String prints the IV as hex words.
func (iv IV) String() string {
	return fmt.Sprintf("[%#x %#x]", iv[0], iv[1])
}

func (b Block) String() string {
	return fmt.Sprintf("[%d %d]", b[0], b[1])
}

// ParseWords parses 0x-prefixed hex or decimal words, as given on a command
// line.
func ParseWords(in []string) ([]uint64, error) {
	out := make([]uint64, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		var (
			w   uint64
			err error
		)
		if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
			// hexutil rejects leading zeros
			if digits := strings.TrimLeft(s[2:], "0"); digits != "" || len(s) == 2 {
				w, err = hexutil.DecodeUint64("0x" + digits)
			}
		} else {
			w, err = strconv.ParseUint(s, 10, 64)
		}
		if err != nil {
			return nil, ErrParse.Wrapf("word %q: %v", s, err)
		}
		out = append(out, w)
	}
	return out, nil
}

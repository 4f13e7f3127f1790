package random

import (
	"crypto/rand"
	"io"
	"math/big"
)

// Random is the source of room codes and role draws
type Random interface {
	// Intn returns a random int in [0, n)
	Intn(n int) int

	// String returns length characters drawn uniformly from alphabet
	String(length int, alphabet string) string
}

// CryptoRandom implements Random on crypto/rand
type CryptoRandom struct {
	source io.Reader
}

// New creates a CryptoRandom reading from the OS entropy source
func New() *CryptoRandom {
	return &CryptoRandom{source: rand.Reader}
}

// Intn returns a uniformly distributed int in [0, n).
// rand.Int rejects out-of-range samples, so there is no modulo bias.
func (r *CryptoRandom) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	result, err := rand.Int(r.source, big.NewInt(int64(n)))
	if err != nil {
		panic("random: entropy source failed: " + err.Error())
	}
	return int(result.Int64())
}

// String reads random bytes in batches and keeps those below the largest
// multiple of len(alphabet) that fits in a byte, so every character is
// equally likely. Alphabets longer than 256 characters are not supported.
func (r *CryptoRandom) String(length int, alphabet string) string {
	if length <= 0 || len(alphabet) == 0 || len(alphabet) > 256 {
		return ""
	}
	limit := 256 - 256%len(alphabet)

	result := make([]byte, 0, length)
	buf := make([]byte, length*2)
	for len(result) < length {
		if _, err := io.ReadFull(r.source, buf); err != nil {
			panic("random: entropy source failed: " + err.Error())
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			result = append(result, alphabet[int(b)%len(alphabet)])
			if len(result) == length {
				break
			}
		}
	}
	return string(result)
}

// Coin returns 0 or 1 with equal probability
func Coin(r Random) int {
	return r.Intn(2)
}

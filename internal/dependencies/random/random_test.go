package random

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringRejectsBiasedBytes(t *testing.T) {
	// 255 is at the limit for a 3-character alphabet and must be skipped
	r := &CryptoRandom{source: bytes.NewReader([]byte{255, 0, 1, 2, 4, 5, 6, 7})}

	assert.Equal(t, "abcb", r.String(4, "abc"))
}

func TestStringUsesAlphabet(t *testing.T) {
	r := New()
	const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	for i := 0; i < 50; i++ {
		s := r.String(6, alphabet)
		assert.Len(t, s, 6)
		for _, c := range s {
			assert.True(t, strings.ContainsRune(alphabet, c), "unexpected %q", c)
		}
	}
}

func TestStringDegenerateInput(t *testing.T) {
	r := New()
	assert.Empty(t, r.String(0, "abc"))
	assert.Empty(t, r.String(4, ""))
}

func TestIntnRange(t *testing.T) {
	r := New()
	seen := map[int]bool{}
	for i := 0; i < 200; i++ {
		n := Coin(r)
		assert.Contains(t, []int{0, 1}, n)
		seen[n] = true
	}
	assert.Len(t, seen, 2)
	assert.Equal(t, 0, r.Intn(0))
}

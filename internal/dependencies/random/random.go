package random

import (
	"crypto/rand"
	"math/big"
)

// Random draws the bot's move; tests substitute a queued implementation.
type Random interface {
	// Intn returns a random int in [0, n)
	Intn(n int) int
}

// CryptoRandom implements Random using crypto/rand
type CryptoRandom struct{}

func New() *CryptoRandom {
	return &CryptoRandom{}
}

func (r *CryptoRandom) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	result, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(result.Int64())
}

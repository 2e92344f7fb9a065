// Package code generates room codes.
//
// Room codes double as access tokens: anyone who knows a code can join the
// room. Codes are therefore drawn from crypto/rand rather than a seeded PRNG.
package code

import (
	"crypto/rand"
	"math/big"
)

// Alphabet is the set of characters a room code is drawn from.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// DefaultLength is the code length used when none is configured.
const DefaultLength = 6

var alphabetSize = big.NewInt(int64(len(Alphabet)))

// Generate returns a code of the given length with every character drawn
// uniformly and independently from Alphabet.
func Generate(length int) string {
	if length <= 0 {
		return ""
	}

	buf := make([]byte, length)
	for i := range buf {
		buf[i] = Alphabet[randomIndex()]
	}
	return string(buf)
}

// randomIndex returns a uniform index into Alphabet. rand.Int rejects
// out-of-range samples, so there is no modulo bias.
func randomIndex() int64 {
	n, err := rand.Int(rand.Reader, alphabetSize)
	if err != nil {
		// crypto/rand.Reader does not fail on supported platforms.
		panic("code: crypto/rand unavailable: " + err.Error())
	}
	return n.Int64()
}

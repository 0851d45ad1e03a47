// Package roomid generates short join codes for rooms.
package roomid

import (
	"crypto/rand"
	"fmt"
	"strings"
)

// Crockford's base32 alphabet: no I, L, O or U, so codes survive being read
// aloud or retyped.
const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// Length is the fixed room code length.
const Length = 6

// RandSource interface for dependency injection of randomness
type RandSource interface {
	Intn(n int) int
}

// Generator produces room codes with configurable randomness.
type Generator struct {
	randSource RandSource
}

// NewGenerator creates a generator. A nil RandSource uses crypto/rand.
func NewGenerator(randSource RandSource) *Generator {
	return &Generator{randSource: randSource}
}

// Generate creates a new room code using the generator's RandSource.
func (g *Generator) Generate() string {
	var b strings.Builder
	b.Grow(Length)

	if g.randSource != nil {
		for i := 0; i < Length; i++ {
			b.WriteByte(alphabet[g.randSource.Intn(len(alphabet))])
		}
		return b.String()
	}

	buf := make([]byte, Length)
	if _, err := rand.Read(buf); err != nil {
		panic("failed to generate random bytes: " + err.Error())
	}
	for _, by := range buf {
		b.WriteByte(alphabet[int(by)%len(alphabet)])
	}
	return b.String()
}

// Validate checks that a room code is well formed.
func Validate(code string) error {
	if len(code) != Length {
		return fmt.Errorf("room code must be exactly %d characters, got %d", Length, len(code))
	}
	for i, ch := range code {
		if !strings.ContainsRune(alphabet, ch) {
			return fmt.Errorf("invalid character %c at position %d", ch, i)
		}
	}
	return nil
}

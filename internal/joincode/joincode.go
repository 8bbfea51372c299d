// Package joincode generates the short invite codes used to join groups.
package joincode

import (
	"crypto/rand"
	"fmt"
	"strings"
	"sync"
)

const (
	// Alphabet omits 0, O, 1 and I so codes survive being read aloud.
	Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	// Length is the number of symbols in a code. 32^8 is about 1.1e12.
	Length = 8
)

// Generator produces candidate join codes. Uniqueness is not its concern;
// the store enforces it and asks for another code on collision.
type Generator func() (string, error)

// New returns a random code drawn uniformly from Alphabet.
func New() (string, error) {
	buf := make([]byte, Length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	// len(Alphabet) divides 256, so the modulo is unbiased.
	for i, b := range buf {
		buf[i] = Alphabet[int(b)%len(Alphabet)]
	}
	return string(buf), nil
}

// Normalize trims surrounding whitespace and upper-cases a user-supplied code.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Valid reports whether code has the shape of a generated code.
func Valid(code string) bool {
	if len(code) != Length {
		return false
	}
	for i := 0; i < len(code); i++ {
		if strings.IndexByte(Alphabet, code[i]) < 0 {
			return false
		}
	}
	return true
}

// Sequence returns a Generator that yields codes in order and then falls back
// to New. Useful for forcing collisions. Safe for concurrent use.
func Sequence(codes ...string) Generator {
	var mu sync.Mutex
	next := 0
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		if next < len(codes) {
			c := codes[next]
			next++
			return c, nil
		}
		return New()
	}
}

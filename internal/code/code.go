package code

import (
	"math/rand/v2"
	"strings"
)

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// Length bounds for a short code
const (
	MinLength = 6
	MaxLength = 8
)

// reserved holds path segments that are routed elsewhere and can never
// resolve as a link.
var reserved = map[string]bool{
	"api":     true,
	"code":    true,
	"healthz": true,
	"links":   true,
	"metrics": true,
	"readyz":  true,
}

// Valid reports whether s matches ^[A-Za-z0-9]{6,8}$
func Valid(s string) bool {
	if len(s) < MinLength || len(s) > MaxLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isAlphanumeric(s[i]) {
			return false
		}
	}
	return true
}

// Reserved reports whether s collides with a fixed route segment.
// The comparison ignores case.
func Reserved(s string) bool {
	return reserved[strings.ToLower(s)]
}

func isAlphanumeric(c byte) bool {
	return (c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}

// Generator produces candidate codes.
type Generator interface {
	Generate() string
}

// RandomGenerator draws a length uniformly from [MinLength, MaxLength] and
// then each symbol uniformly from the 62-symbol alphabet. It aims at
// collision resistance, not unguessability.
type RandomGenerator struct{}

// NewRandomGenerator returns a generator backed by math/rand/v2.
func NewRandomGenerator() RandomGenerator {
	return RandomGenerator{}
}

// Generate returns a fresh candidate. Safe for concurrent use.
func (RandomGenerator) Generate() string {
	n := MinLength + rand.IntN(MaxLength-MinLength+1)
	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[rand.IntN(len(alphabet))]
	}
	return string(b)
}

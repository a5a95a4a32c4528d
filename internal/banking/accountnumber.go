package banking

import (
	"math/rand/v2"
	"sync"
)

// AccountNumberLength is the number of decimal digits in an account number.
const AccountNumberLength = 10

// NumberGenerator produces candidate account numbers. Candidates may collide; callers
// check uniqueness.
type NumberGenerator interface {
	Next() string
}

// RandomNumberGenerator draws each digit independently and uniformly from an injected
// source. Leading zeros are kept.
type RandomNumberGenerator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRandomNumberGenerator builds a generator over src. Pass a seeded source for
// reproducible sequences.
func NewRandomNumberGenerator(src rand.Source) *RandomNumberGenerator {
	return &RandomNumberGenerator{rnd: rand.New(src)}
}

// Next returns a fresh 10-digit candidate.
func (g *RandomNumberGenerator) Next() string {
	var digits [AccountNumberLength]byte

	g.mu.Lock()
	for i := range digits {
		digits[i] = '0' + byte(g.rnd.IntN(10))
	}
	g.mu.Unlock()

	return string(digits[:])
}

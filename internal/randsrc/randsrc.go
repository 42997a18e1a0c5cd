// Package randsrc provides the seeded PRNG contract shared by oram: a
// reproducible source for tests, and a secure one for production.
package randsrc

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"fmt"

	"golang.org/x/exp/rand"
)

// Source is a uniform PRNG used for leaf assignment and dummy-slot
// filling. It is never safe for use by multiple goroutines concurrently.
type Source interface {
	// Uint64 returns a uniformly random 64-bit value.
	Uint64() uint64

	// Intn returns a uniformly random value in [0, n). Panics if n <= 0.
	Intn(n int) int
}

type expSource struct {
	r *rand.Rand
}

func (s *expSource) Uint64() uint64 {
	return s.r.Uint64()
}

func (s *expSource) Intn(n int) int {
	return s.r.Intn(n)
}

// NewSeeded returns a Source seeded deterministically from seed, so a
// test run is reproducible across executions.
func NewSeeded(seed uint64) Source {
	return &expSource{r: rand.New(rand.NewSource(seed))}
}

// NewSecure returns a Source seeded from crypto/rand, for production use.
func NewSecure() (Source, error) {
	var buf [8]byte
	if _, err := cryptorand.Read(buf[:]); err != nil {
		return nil, fmt.Errorf("randsrc: reading secure seed: %w", err)
	}
	seed := binary.LittleEndian.Uint64(buf[:])
	return NewSeeded(seed), nil
}

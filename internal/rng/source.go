// Package rng provides the seeded randomness stream every generation step
// draws from. One stream serves one seed request.
package rng

import (
	"crypto/rand"
	"encoding/binary"
	randv2 "math/rand/v2"
)

// Source produces uniformly distributed integers.
type Source interface {
	// Intn returns a value in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}

// seeded is a deterministic PCG stream.
//
// Invariant: two seeded sources built from the same seed produce the same
// sequence of values for the same sequence of calls.
type seeded struct {
	r *randv2.Rand
}

// NewSeeded returns a deterministic Source for seed.
func NewSeeded(seed uint64) Source {
	return &seeded{r: randv2.New(randv2.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Intn returns a value in [0, n).
//
// Precondition: n > 0. Panics with "rng: Intn called with n <= 0" if n <= 0.
func (s *seeded) Intn(n int) int {
	if n <= 0 {
		panic("rng: Intn called with n <= 0")
	}
	return s.r.IntN(n)
}

// cryptoSource implements Source using crypto/rand. It is only used to pick
// a seed when the caller supplies none.
type cryptoSource struct{}

// NewCryptoSource returns a Source backed by crypto/rand.
func NewCryptoSource() Source {
	return cryptoSource{}
}

// Intn returns a cryptographically random value in [0, n).
//
// Precondition: n > 0.
func (cryptoSource) Intn(n int) int {
	if n <= 0 {
		panic("rng: Intn called with n <= 0")
	}
	return int(NewSeed() % uint64(n))
}

// NewSeed draws a fresh seed from crypto/rand.
//
// Panics with "rng: crypto/rand failure: <err>" if crypto/rand fails.
func NewSeed() uint64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic("rng: crypto/rand failure: " + err.Error())
	}
	return binary.LittleEndian.Uint64(b[:]) >> 1
}

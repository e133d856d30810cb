package mission

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"sync"
)

// RandomSource abstract
//
// Every roll in the engine goes through IntN so tests can swap in a seeded or
// scripted source.
type RandomSource interface {
	IntN(n int) int // [0, n)
}

// crypto random : default generation method
type cryptoSource struct{}

func (cryptoSource) Uint64() uint64 {
	var buf [8]byte
	if _, err := cryptoRand.Read(buf[:]); err != nil {
		// back to math/rand/v2
		return rand.Uint64()
	}
	return binary.BigEndian.Uint64(buf[:])
}

// DefaultRNG is unseeded and safe for concurrent use: the crypto source holds
// no state and rand.Rand adds none.
func DefaultRNG() RandomSource { return rand.New(cryptoSource{}) }

// NewSeededRNG gives a replicable source (tests, Monte Carlo). It is not safe
// for concurrent use; give each generation call its own.
func NewSeededRNG(seed uint64) RandomSource {
	return rand.New(rand.NewPCG(seed, 0))
}

type lockedSource struct {
	mu  sync.Mutex
	src RandomSource
}

func (l *lockedSource) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.IntN(n)
}

// Locked serializes src so concurrent generation calls can share it. The
// sequence each call sees then depends on scheduling.
func Locked(src RandomSource) RandomSource {
	return &lockedSource{src: src}
}

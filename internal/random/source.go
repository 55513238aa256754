// Package random provides the per-run normal variate generators used by the
// simulation engine. There is no package-level generator; callers construct
// one Source per run.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
)

// Source yields independent standard normal draws.
type Source interface {
	NextStandardNormal() float64
}

// pcgIncrement is the fixed second word of the PCG state for seeded runs.
const pcgIncrement = 0xda3e39cb94b95bdb

// PCG is a Source backed by a PCG generator from math/rand/v2.
type PCG struct {
	rng *rand.Rand
}

// NewSeeded returns a Source whose sequence is fully determined by seed.
func NewSeeded(seed uint64) *PCG {
	return &PCG{rng: rand.New(rand.NewPCG(seed, pcgIncrement))}
}

// NewEntropy returns a Source seeded from the operating system's entropy pool.
func NewEntropy() *PCG {
	return &PCG{rng: rand.New(rand.NewPCG(EntropySeed(), EntropySeed()))}
}

// New returns a seeded Source when seed is non-nil and an entropy-seeded one
// otherwise.
func New(seed *uint64) *PCG {
	if seed != nil {
		return NewSeeded(*seed)
	}
	return NewEntropy()
}

// NextStandardNormal returns a draw from N(0, 1).
func (p *PCG) NextStandardNormal() float64 {
	return p.rng.NormFloat64()
}

// EntropySeed draws a 64-bit seed from crypto/rand. It falls back to the
// runtime-seeded global generator if the entropy pool cannot be read.
func EntropySeed() uint64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return rand.Uint64()
	}
	return binary.LittleEndian.Uint64(b[:])
}

// RootSeed returns *seed, or a fresh entropy seed when seed is nil.
func RootSeed(seed *uint64) uint64 {
	if seed != nil {
		return *seed
	}
	return EntropySeed()
}

// DeriveSeed maps (root, index) to a well-mixed seed for the index-th
// sub-generator. Distinct indices under the same root give uncorrelated
// streams; the mapping is stable across releases.
func DeriveSeed(root, index uint64) uint64 {
	return splitMix64(root + (index+1)*0x9e3779b97f4a7c15)
}

func splitMix64(z uint64) uint64 {
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

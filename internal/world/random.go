package world

import (
	"hash/fnv"
	"math/rand"
)

// DefaultSeed is applied when no seed is configured.
const DefaultSeed = "lanefall-default"

// RNGFactory produces deterministic RNG instances for simulation subsystems.
type RNGFactory func(rootSeed, label string) *rand.Rand

// DeterministicSeedValue hashes a root seed plus a subsystem label into a
// stable 64-bit seed so every subsystem draws from its own stream.
func DeterministicSeedValue(rootSeed, label string) int64 {
	hasher := fnv.New64a()
	hasher.Write([]byte(rootSeed))
	hasher.Write([]byte{0})
	hasher.Write([]byte(label))
	sum := hasher.Sum64()
	if sum == 0 {
		sum = 1
	}
	return int64(sum)
}

// NewDeterministicRNG returns a rand.Rand seeded from the root seed and label.
func NewDeterministicRNG(rootSeed, label string) *rand.Rand {
	return rand.New(rand.NewSource(DeterministicSeedValue(rootSeed, label)))
}

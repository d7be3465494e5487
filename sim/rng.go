package sim

import (
	"hash/fnv"
	"math/rand"
)

// Subsystem names an independent random stream.
type Subsystem string

const (
	// SubsystemTraffic draws random packet endpoints and send gaps.
	// It is seeded with the run seed itself, so a given --seed always
	// reproduces the same traffic.
	SubsystemTraffic Subsystem = "traffic"

	// SubsystemLayout separates devices stacked on the same point.
	SubsystemLayout Subsystem = "layout"
)

// Streams hands out one deterministic *rand.Rand per subsystem, all derived
// from a single run seed. Drawing from one stream never shifts another.
//
// Derivation:
//   - SubsystemTraffic: seed
//   - any other subsystem: seed XOR fnv1a64(name)
//
// Not safe for concurrent use.
type Streams struct {
	seed    int64
	streams map[Subsystem]*rand.Rand
}

// NewStreams creates the stream set for a run seed.
func NewStreams(seed int64) *Streams {
	return &Streams{seed: seed, streams: make(map[Subsystem]*rand.Rand)}
}

// Seed returns the run seed.
func (s *Streams) Seed() int64 {
	return s.seed
}

// For returns the stream for sub, creating it on first use. Repeated calls
// return the same instance, so draws continue where they left off.
func (s *Streams) For(sub Subsystem) *rand.Rand {
	if r, ok := s.streams[sub]; ok {
		return r
	}
	r := rand.New(rand.NewSource(derivedSeed(s.seed, sub)))
	s.streams[sub] = r
	return r
}

func derivedSeed(seed int64, sub Subsystem) int64 {
	if sub == SubsystemTraffic {
		return seed
	}
	h := fnv.New64a()
	h.Write([]byte(sub))
	return seed ^ int64(h.Sum64())
}

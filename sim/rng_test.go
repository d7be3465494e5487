package sim

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStreams_SameSeedSameDraws(t *testing.T) {
	for _, seed := range []int64{42, 0, -1} {
		a, b := NewStreams(seed), NewStreams(seed)
		for i := 0; i < 3; i++ {
			assert.Equal(t, a.For(SubsystemLayout).Float64(), b.For(SubsystemLayout).Float64(), "seed %d draw %d", seed, i)
		}
	}
}

func TestStreams_SubsystemIsolation(t *testing.T) {
	// GIVEN two stream sets with the same seed
	a, b := NewStreams(42), NewStreams(42)

	// WHEN a draws heavily from traffic before touching layout
	for i := 0; i < 10; i++ {
		a.For(SubsystemTraffic).Float64()
	}

	// THEN its first layout draw is unaffected
	assert.Equal(t, b.For(SubsystemLayout).Float64(), a.For(SubsystemLayout).Float64())
}

func TestStreams_TrafficUsesRunSeed(t *testing.T) {
	want := rand.New(rand.NewSource(7)).Int63()
	assert.Equal(t, want, NewStreams(7).For(SubsystemTraffic).Int63())
}

func TestStreams_SubsystemsDiffer(t *testing.T) {
	s := NewStreams(7)
	assert.NotEqual(t, s.For(SubsystemTraffic).Int63(), s.For(SubsystemLayout).Int63())
}

func TestStreams_CachedPerSubsystem(t *testing.T) {
	s := NewStreams(1)
	assert.Same(t, s.For(SubsystemLayout), s.For(SubsystemLayout))
	assert.Equal(t, int64(1), s.Seed())
}

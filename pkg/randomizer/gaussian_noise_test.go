package randomizer_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/brianbland/fairrl/pkg/randomizer"
)

func TestGaussianNoise(t *testing.T) {
	gaussianNoise := randomizer.NewGaussianNoise(12345, 0.1)
	value := 1000.0
	max := value * 1.5

	for i := 0; i < 1000; i++ {
		randomized := gaussianNoise.AddRandomness(value, max)
		if randomized > max {
			t.Errorf("Randomized value is greater than max: %f", randomized)
		}
		if randomized < 0 {
			t.Errorf("Randomized value is negative: %f", randomized)
		}
	}
}

func TestGaussianNoise_ZeroStdDevIsIdentity(t *testing.T) {
	g := randomizer.NewGaussianNoise(1, 0)
	assert.Equal(t, 7.5, g.AddRandomness(7.5, 10))
}

func TestBurstRandomizer(t *testing.T) {
	burst := randomizer.NewBurstRandomizer(7, 1.0, 2, 2, 3.0)

	assert.Equal(t, 30.0, burst.AddRandomness(10, 100))
	assert.True(t, burst.InBurst)
	assert.Equal(t, 100.0, burst.AddRandomness(50, 100), "burst output is capped at max")

	burst.Reset()
	assert.False(t, burst.InBurst)
}

func TestCompoundRandomizer(t *testing.T) {
	c := randomizer.NewCompoundRandomizer(
		randomizer.NewBurstRandomizer(1, 1.0, 5, 5, 2.0),
		randomizer.NewGaussianNoise(1, 0),
	)
	assert.Equal(t, 8.0, c.AddRandomness(4, 100))
}

func TestRNG_Deterministic(t *testing.T) {
	a := randomizer.NewRNG(42)
	b := randomizer.NewRNG(42)
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Uint64(), b.Uint64())
	}

	copied := *a
	assert.Equal(t, a.Float64(), copied.Float64(), "value copies continue the same stream")
}

func TestRNG_Distributions(t *testing.T) {
	r := randomizer.NewRNG(3)
	const n = 20000

	var sum, sumNorm float64
	for i := 0; i < n; i++ {
		f := r.Float64()
		assert.True(t, f >= 0 && f < 1)
		sum += float64(r.Poisson(4))
		sumNorm += r.NormFloat64()
	}
	assert.InDelta(t, 4.0, sum/n, 0.1)
	assert.InDelta(t, 0.0, sumNorm/n, 0.05)
	assert.Zero(t, r.Poisson(0))

	counts := make([]int, 3)
	for i := 0; i < n; i++ {
		counts[r.Categorical([]float64{1, 0, 3})]++
	}
	assert.Zero(t, counts[1])
	assert.InDelta(t, 0.75, float64(counts[2])/n, 0.02)
	assert.False(t, math.IsNaN(r.NormFloat64()))
}

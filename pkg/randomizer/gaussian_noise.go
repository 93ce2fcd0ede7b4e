package randomizer

// GaussianNoise perturbs values multiplicatively with gaussian noise
type GaussianNoise struct {
	RNG    RNG
	StdDev float64
}

// NewGaussianNoise creates a new gaussian noise generator
func NewGaussianNoise(seed int64, stdDev float64) *GaussianNoise {
	return &GaussianNoise{
		RNG:    *NewRNG(seed),
		StdDev: stdDev,
	}
}

// AddRandomness scales value by (1 + noise), clamped to [0, max]
func (s *GaussianNoise) AddRandomness(value, max float64) float64 {
	if s.StdDev == 0 {
		return value
	}

	noise := s.RNG.NormFloat64() * s.StdDev
	result := value * (1.0 + noise)
	if result < 0 {
		result = 0
	}
	if result > max {
		result = max
	}
	return result
}

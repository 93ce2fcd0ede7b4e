package randomizer

// BurstRandomizer occasionally enters a burst of several steps during
// which values are multiplied by Intensity.
type BurstRandomizer struct {
	RNG RNG

	// Config
	Probability float64
	DurationMin int
	DurationMax int
	Intensity   float64

	// State
	InBurst   bool
	StepsLeft int
}

func NewBurstRandomizer(seed int64, probability float64, durationMin int, durationMax int, intensity float64) *BurstRandomizer {
	return &BurstRandomizer{
		RNG:         *NewRNG(seed),
		Probability: probability,
		DurationMin: durationMin,
		DurationMax: durationMax,
		Intensity:   intensity,
	}
}

func (s *BurstRandomizer) Reset() {
	s.InBurst = false
	s.StepsLeft = 0
}

func (s *BurstRandomizer) AddRandomness(value, max float64) float64 {
	if s.Probability == 0 {
		return value
	}

	if s.InBurst {
		s.StepsLeft--
		if s.StepsLeft <= 0 {
			s.InBurst = false
		}
	} else if s.RNG.Float64() < s.Probability {
		s.InBurst = true
		s.StepsLeft = s.DurationMin + s.RNG.Intn(s.DurationMax-s.DurationMin+1)
	}

	if s.InBurst {
		result := value * s.Intensity
		if result > max {
			result = max
		}
		return result
	}
	return value
}

// Package randomizer provides serializable noise sources for the simulators.
package randomizer

type Randomizer interface {
	AddRandomness(value, max float64) float64
}

type CompoundRandomizer struct {
	Randomizers []Randomizer
}

func NewCompoundRandomizer(randomizers ...Randomizer) *CompoundRandomizer {
	return &CompoundRandomizer{Randomizers: randomizers}
}

func (r *CompoundRandomizer) AddRandomness(value, max float64) float64 {
	for _, randomizer := range r.Randomizers {
		value = randomizer.AddRandomness(value, max)
	}
	return value
}

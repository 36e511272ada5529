package training

import "PipForge/internal/domain/models"

// Bounds for every learned component weight.
const (
	WeightMin = 0.0
	WeightMax = 30.0
)

// DefaultWeights are the hand-picked starting weights used before any
// optimization run has completed for a context.
func DefaultWeights() models.ComponentWeights {
	return models.ComponentWeights{
		Volume:      8,
		Session:     6,
		Pullback:    10,
		Momentum:    8,
		KeyLevel:    10,
		H1Confirm:   10,
		EMAAlign:    8,
		BBSignal:    5,
		RegimeAlign: 8,
		Pattern:     7,
	}
}

// ClampWeights bounds every component weight to [WeightMin, WeightMax].
func ClampWeights(w models.ComponentWeights) models.ComponentWeights {
	s := w.Slice()
	for i := range s {
		if s[i] < WeightMin {
			s[i] = WeightMin
		}
		if s[i] > WeightMax {
			s[i] = WeightMax
		}
	}
	return models.FromSlice(s)
}

package training

import (
	"math/rand"

	"PipForge/internal/domain/models"
)

const randomSearchSamples = 1000

// randomSearch draws candidate weight vectors uniformly from the
// allowed range and keeps the one with the lowest batch loss. The
// initial vector is scored first so the result never regresses below
// the current weights.
func randomSearch(initial models.ComponentWeights, batch []models.LabeledSignal, rng *rand.Rand) (models.ComponentWeights, float64, int) {
	best := ClampWeights(initial)
	bestLoss := Loss(best, batch)

	for i := 0; i < randomSearchSamples; i++ {
		var candidate [10]float64
		for j := range candidate {
			candidate[j] = WeightMin + rng.Float64()*(WeightMax-WeightMin)
		}
		w := models.FromSlice(candidate)
		if loss := Loss(w, batch); loss < bestLoss {
			best = w
			bestLoss = loss
		}
	}

	return best, bestLoss, randomSearchSamples
}

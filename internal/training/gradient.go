package training

import (
	"math"

	"PipForge/internal/domain/models"
)

const (
	gradientEpsilon   = 0.01
	gradientLearnRate = 0.1
	gradientMaxIters  = 100
	gradientTolerance = 1e-6
)

// gradientDescent refines the initial weights by central-difference
// gradient steps on the batch loss. It tracks the best vector seen so
// the result is never worse than the starting point, and stops early
// once the loss improvement between iterations drops below tolerance.
func gradientDescent(initial models.ComponentWeights, batch []models.LabeledSignal) (models.ComponentWeights, float64, int) {
	current := ClampWeights(initial).Slice()

	best := current
	bestLoss := Loss(models.FromSlice(best), batch)
	prevLoss := bestLoss

	iters := 0
	for iters < gradientMaxIters {
		iters++

		var grad [10]float64
		for i := range current {
			up := current
			down := current
			up[i] += gradientEpsilon
			down[i] -= gradientEpsilon
			grad[i] = (Loss(models.FromSlice(up), batch) - Loss(models.FromSlice(down), batch)) / (2 * gradientEpsilon)
		}

		for i := range current {
			current[i] -= gradientLearnRate * grad[i]
			if current[i] < WeightMin {
				current[i] = WeightMin
			}
			if current[i] > WeightMax {
				current[i] = WeightMax
			}
		}

		loss := Loss(models.FromSlice(current), batch)
		if loss < bestLoss {
			best = current
			bestLoss = loss
		}
		if math.Abs(prevLoss-loss) < gradientTolerance {
			break
		}
		prevLoss = loss
	}

	return models.FromSlice(best), bestLoss, iters
}

package service

import (
	"PipForge/internal/domain/models"
)

// Scorer turns a signal plus context weights into a weight result.
// Implementations must be pure: no I/O, no hidden state.
type Scorer interface {
	Score(sig models.Signal) models.WeightResult
}

// Labeler evaluates an open signal against the latest close price.
type Labeler interface {
	Evaluate(sig models.Signal, currentPrice float64) models.OutcomeEvaluation
}

// Optimizer searches the component-weight space over a labeled batch.
type Optimizer interface {
	Optimize(batch []models.LabeledSignal, initial models.ComponentWeights, method string) (OptimizeResult, error)
}

// OptimizeResult reports the best weights seen and their loss.
type OptimizeResult struct {
	Weights    models.ComponentWeights
	Loss       float64
	Iterations int
}

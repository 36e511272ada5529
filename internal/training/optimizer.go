package training

import (
	"fmt"
	"math/rand"
	"time"

	"PipForge/internal/domain/models"
	"PipForge/internal/domain/service"
)

// MinTrainingSamples is the smallest labeled batch the optimizer will
// accept. Smaller batches overfit badly enough that keeping the
// current weights is the better move.
const MinTrainingSamples = 50

// Supported optimization methods.
const (
	MethodGradientDescent = "gradient_descent"
	MethodRandomSearch    = "random_search"
)

// ErrInsufficientData is returned when the labeled batch is too small
// to train on.
type ErrInsufficientData struct {
	Got  int
	Want int
}

func (e *ErrInsufficientData) Error() string {
	return fmt.Sprintf("insufficient training data: got %d labeled signals, need %d", e.Got, e.Want)
}

// Optimizer implements service.Optimizer over the labeled-signal loss.
type Optimizer struct {
	rng *rand.Rand
}

// NewOptimizer builds an optimizer seeded from the clock. Tests can
// inject a deterministic source via NewOptimizerWithRand.
func NewOptimizer() *Optimizer {
	return NewOptimizerWithRand(rand.New(rand.NewSource(time.Now().UnixNano())))
}

func NewOptimizerWithRand(rng *rand.Rand) *Optimizer {
	return &Optimizer{rng: rng}
}

// Optimize searches for weights minimizing the batch loss starting
// from the given vector. An unknown method falls back to gradient
// descent.
func (o *Optimizer) Optimize(batch []models.LabeledSignal, initial models.ComponentWeights, method string) (service.OptimizeResult, error) {
	if len(batch) < MinTrainingSamples {
		return service.OptimizeResult{}, &ErrInsufficientData{Got: len(batch), Want: MinTrainingSamples}
	}

	var (
		weights models.ComponentWeights
		loss    float64
		iters   int
	)
	switch method {
	case MethodRandomSearch:
		weights, loss, iters = randomSearch(initial, batch, o.rng)
	default:
		weights, loss, iters = gradientDescent(initial, batch)
	}

	return service.OptimizeResult{Weights: weights, Loss: loss, Iterations: iters}, nil
}

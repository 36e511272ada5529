package training

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"PipForge/internal/domain/models"
)

// makeBatch builds n labeled signals alternating wins and losses.
// Winners carry the volume flag so a weight on it separates them.
func makeBatch(n int) []models.LabeledSignal {
	batch := make([]models.LabeledSignal, 0, n)
	for i := 0; i < n; i++ {
		s := models.LabeledSignal{Symbol: "EURUSD", Type: models.DirectionBuy}
		if i%2 == 0 {
			s.Outcome = models.OutcomeTPHit
			s.PnLPercent = 0.8 + 0.05*float64(i%5)
			s.Flags.VolumeConfirm = true
			s.Flags.StrongMomentum = true
		} else {
			s.Outcome = models.OutcomeSLHit
			s.PnLPercent = -0.45
			s.Flags.BBSignal = true
		}
		batch = append(batch, s)
	}
	return batch
}

func TestComputeConfidenceBounds(t *testing.T) {
	var noFlags models.ConfluenceFlags
	if got := ComputeConfidence(DefaultWeights(), noFlags); got != baseConfidence {
		t.Fatalf("no flags: got %v, want %v", got, baseConfidence)
	}

	all := models.ConfluenceFlags{
		VolumeConfirm: true, SessionAlign: true, PullbackEntry: true,
		StrongMomentum: true, KeyLevel: true, H1Confirm: true,
		EMAAlign: true, BBSignal: true, RegimeAlign: true, PatternConfirm: true,
	}
	max := models.FromSlice([10]float64{30, 30, 30, 30, 30, 30, 30, 30, 30, 30})
	if got := ComputeConfidence(max, all); got != confidenceCeiling {
		t.Fatalf("all flags at max weights: got %v, want ceiling %v", got, confidenceCeiling)
	}

	if got := ComputeConfidence(models.ComponentWeights{}, noFlags); got < confidenceFloor {
		t.Fatalf("confidence below floor: %v", got)
	}
}

func TestLossEmptySurvivors(t *testing.T) {
	// Zero weights leave every recomputed confidence at the base 55,
	// below the cutoff, so no signal survives.
	if got := Loss(models.ComponentWeights{}, makeBatch(10)); got != emptyBatchLoss {
		t.Fatalf("got %v, want %v", got, emptyBatchLoss)
	}
	if got := Loss(DefaultWeights(), nil); got != emptyBatchLoss {
		t.Fatalf("nil batch: got %v, want %v", got, emptyBatchLoss)
	}
}

func TestLossZeroVarianceReturns(t *testing.T) {
	batch := make([]models.LabeledSignal, 4)
	for i := range batch {
		batch[i] = models.LabeledSignal{
			Outcome:    models.OutcomeTPHit,
			PnLPercent: 1.0,
			Flags:      models.ConfluenceFlags{VolumeConfirm: true},
		}
	}
	w := models.ComponentWeights{Volume: 10}
	// Identical returns have zero variance, so sharpe and the
	// objective are both zero.
	if got := Loss(w, batch); got != 0 {
		t.Fatalf("got %v, want 0", got)
	}
}

func TestLossRewardsProfitableFilter(t *testing.T) {
	batch := makeBatch(60)
	// Weighting only the winners' flag keeps the profitable half.
	selective := models.ComponentWeights{Volume: 10}
	all := models.ComponentWeights{Volume: 10, BBSignal: 10}

	selLoss := Loss(selective, batch)
	allLoss := Loss(all, batch)
	if selLoss >= 0 {
		t.Fatalf("selective filter should score negative loss, got %v", selLoss)
	}
	if selLoss >= allLoss {
		t.Fatalf("selective filter should beat unfiltered: %v vs %v", selLoss, allLoss)
	}
}

func TestOptimizeInsufficientData(t *testing.T) {
	opt := NewOptimizer()
	_, err := opt.Optimize(makeBatch(MinTrainingSamples-1), DefaultWeights(), MethodGradientDescent)
	var insufficient *ErrInsufficientData
	if !errors.As(err, &insufficient) {
		t.Fatalf("want ErrInsufficientData, got %v", err)
	}
	if insufficient.Got != MinTrainingSamples-1 || insufficient.Want != MinTrainingSamples {
		t.Fatalf("unexpected counts: %+v", insufficient)
	}
}

func TestGradientDescentNeverRegresses(t *testing.T) {
	batch := makeBatch(80)
	initial := DefaultWeights()
	initialLoss := Loss(initial, batch)

	opt := NewOptimizer()
	res, err := opt.Optimize(batch, initial, MethodGradientDescent)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Loss > initialLoss {
		t.Fatalf("result loss %v worse than initial %v", res.Loss, initialLoss)
	}
	if res.Iterations < 1 || res.Iterations > gradientMaxIters {
		t.Fatalf("iterations out of range: %d", res.Iterations)
	}
	for _, v := range res.Weights.Slice() {
		if v < WeightMin || v > WeightMax {
			t.Fatalf("weight out of bounds: %v", v)
		}
	}
}

func TestRandomSearchNeverRegresses(t *testing.T) {
	batch := makeBatch(80)
	initial := DefaultWeights()
	initialLoss := Loss(initial, batch)

	opt := NewOptimizerWithRand(rand.New(rand.NewSource(42)))
	res, err := opt.Optimize(batch, initial, MethodRandomSearch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Loss > initialLoss {
		t.Fatalf("result loss %v worse than initial %v", res.Loss, initialLoss)
	}
	if res.Iterations != randomSearchSamples {
		t.Fatalf("iterations: got %d, want %d", res.Iterations, randomSearchSamples)
	}
	for _, v := range res.Weights.Slice() {
		if v < WeightMin || v > WeightMax {
			t.Fatalf("weight out of bounds: %v", v)
		}
	}
}

func TestOptimizeUnknownMethodFallsBack(t *testing.T) {
	batch := makeBatch(60)
	opt := NewOptimizer()
	res, err := opt.Optimize(batch, DefaultWeights(), "simulated_annealing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Iterations > gradientMaxIters {
		t.Fatalf("fallback should run gradient descent, got %d iterations", res.Iterations)
	}
}

func TestClampWeights(t *testing.T) {
	w := models.FromSlice([10]float64{-5, 35, 15, 0, 30, -0.1, 30.1, 7, 1e9, -1e9})
	got := ClampWeights(w).Slice()
	want := [10]float64{0, 30, 15, 0, 30, 0, 30, 7, 30, 0}
	for i := range got {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Fatalf("index %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

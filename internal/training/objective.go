package training

import (
	"math"

	"PipForge/internal/domain/models"
)

const (
	baseConfidence    = 55.0
	confidenceFloor   = 40.0
	confidenceCeiling = 95.0

	// Recomputed signals below this confidence are excluded from the
	// objective. Live scoring applies the same cutoff when deciding
	// whether a recomputed confidence replaces the model's own.
	confidenceCutoff = 60.0

	// ConfidenceCutoff is the exported filter threshold for callers that
	// evaluate batches the same way the objective does.
	ConfidenceCutoff = confidenceCutoff

	// Loss assigned when no signal in the batch survives the cutoff.
	emptyBatchLoss = 1000.0
)

// ComputeConfidence recomputes a signal's confidence from its confluence
// flags under a candidate weight vector. The result is bounded to
// [confidenceFloor, confidenceCeiling] regardless of the weights.
func ComputeConfidence(w models.ComponentWeights, flags models.ConfluenceFlags) float64 {
	ws := w.Slice()
	fs := flags.FlagSlice()
	c := baseConfidence
	for i := range ws {
		if fs[i] {
			c += ws[i]
		}
	}
	if c < confidenceFloor {
		c = confidenceFloor
	}
	if c > confidenceCeiling {
		c = confidenceCeiling
	}
	return c
}

// Loss evaluates a candidate weight vector against a batch of labeled
// signals. Lower is better. Signals whose recomputed confidence falls
// below the cutoff are discarded; the objective over the survivors is
// win_rate * max(0, sharpe), and Loss returns its negation. A batch
// with no survivors scores emptyBatchLoss.
func Loss(w models.ComponentWeights, batch []models.LabeledSignal) float64 {
	var (
		wins    int
		returns []float64
	)
	for _, s := range batch {
		if ComputeConfidence(w, s.Flags) < confidenceCutoff {
			continue
		}
		if s.Win() {
			wins++
		}
		returns = append(returns, s.PnLPercent)
	}
	if len(returns) == 0 {
		return emptyBatchLoss
	}

	winRate := float64(wins) / float64(len(returns))
	sharpe := sharpeRatio(returns)
	if sharpe < 0 {
		sharpe = 0
	}
	return -(winRate * sharpe)
}

// sharpeRatio is mean/stddev over the per-trade returns, 0 when the
// returns have no variance.
func sharpeRatio(returns []float64) float64 {
	n := float64(len(returns))
	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= n

	var variance float64
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= n
	if variance == 0 {
		return 0
	}
	return mean / math.Sqrt(variance)
}

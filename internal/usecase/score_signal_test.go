package usecase

import (
	"context"
	"testing"
	"time"

	"PipForge/internal/domain/models"
	"PipForge/internal/scoring"
	"PipForge/internal/training"
)

func newTestScorer(weights *fakeWeightStore, store *fakeSignalStore) *SignalScorer {
	return NewSignalScorer(scoring.NewEngine(), weights, store, nil, nopMetrics{}, testLogger())
}

func TestScorePersistsAndReturnsResult(t *testing.T) {
	store := newFakeSignalStore()
	uc := newTestScorer(newFakeWeightStore(), store)

	scored, err := uc.Score(context.Background(), models.ScoreRequest{
		Symbol:     "eurusd",
		Type:       "BUY",
		Confidence: 80,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if scored.ID == "" {
		t.Fatal("expected generated signal id")
	}
	if scored.Symbol != "EURUSD" {
		t.Fatalf("symbol not normalized: %q", scored.Symbol)
	}
	if scored.Weight.TotalWeight <= 0 || scored.Weight.TotalWeight > 100 {
		t.Fatalf("total weight out of range: %v", scored.Weight.TotalWeight)
	}
	if scored.ModelVersion != "default" {
		t.Fatalf("expected default model version, got %q", scored.ModelVersion)
	}
	if _, ok := store.scored[scored.ID]; !ok {
		t.Fatal("scored signal not persisted")
	}
}

func TestScoreSkipsPersistenceWhenDisabled(t *testing.T) {
	store := newFakeSignalStore()
	uc := newTestScorer(newFakeWeightStore(), store)

	_, err := uc.Score(context.Background(), models.ScoreRequest{
		Symbol:     "GBPUSD",
		Type:       "SELL",
		Confidence: 55,
		Persist:    boolPtr(false),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.scored) != 0 {
		t.Fatalf("expected no persistence, found %d rows", len(store.scored))
	}
}

func TestWeightResolutionFallback(t *testing.T) {
	weights := newFakeWeightStore()
	exact := models.ContextKey{Symbol: "EURUSD", Session: models.SessionLondon, Regime: models.RegimeTrend}
	symbolOnly := models.ContextKey{Symbol: "EURUSD"}

	weights.vectors[symbolOnly.String()] = &models.WeightVector{
		Key: symbolOnly, Weights: training.DefaultWeights(), ModelVersion: "v-symbol",
	}
	weights.vectors["global"] = &models.WeightVector{
		Weights: training.DefaultWeights(), ModelVersion: "v-global",
	}

	uc := newTestScorer(weights, newFakeSignalStore())

	// No exact vector: symbol-scoped wins over global.
	if got := uc.ResolveWeights(context.Background(), exact); got.ModelVersion != "v-symbol" {
		t.Fatalf("expected symbol fallback, got %q", got.ModelVersion)
	}

	weights.vectors[exact.String()] = &models.WeightVector{
		Key: exact, Weights: training.DefaultWeights(), ModelVersion: "v-exact",
	}
	if got := uc.ResolveWeights(context.Background(), exact); got.ModelVersion != "v-exact" {
		t.Fatalf("expected exact context, got %q", got.ModelVersion)
	}

	// Unknown symbol: global vector.
	other := models.ContextKey{Symbol: "USDJPY"}
	if got := uc.ResolveWeights(context.Background(), other); got.ModelVersion != "v-global" {
		t.Fatalf("expected global fallback, got %q", got.ModelVersion)
	}
}

func TestWeightResolutionDefaultsWhenEmpty(t *testing.T) {
	uc := newTestScorer(newFakeWeightStore(), newFakeSignalStore())
	got := uc.ResolveWeights(context.Background(), models.ContextKey{Symbol: "AUDUSD"})
	if got.ModelVersion != "default" {
		t.Fatalf("expected defaults, got %q", got.ModelVersion)
	}
	if got.Weights != training.DefaultWeights() {
		t.Fatalf("unexpected default weights: %+v", got.Weights)
	}
}

func TestConfluenceRecomputeRaisesConfidence(t *testing.T) {
	uc := newTestScorer(newFakeWeightStore(), newFakeSignalStore())

	// Flags worth 8+10+10 under the default weights push base 55 to 83.
	scored, err := uc.Score(context.Background(), models.ScoreRequest{
		Symbol:     "EURUSD",
		Type:       "BUY",
		Confidence: 45,
		Analysis: &models.AnalysisPayload{
			Confluence: &models.ConfluencePayload{
				HasVolumeConfirm: true,
				HasKeyLevel:      true,
				HasH1Confirm:     true,
			},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if scored.Confidence != 83 {
		t.Fatalf("recomputed confidence: got %v, want 83", scored.Confidence)
	}
}

func TestConfluenceRecomputeBelowCutoffKeepsOriginal(t *testing.T) {
	uc := newTestScorer(newFakeWeightStore(), newFakeSignalStore())

	// Zero flags recompute to the base 55, below the cutoff, so the
	// model's own 72 survives.
	scored, err := uc.Score(context.Background(), models.ScoreRequest{
		Symbol:     "EURUSD",
		Type:       "BUY",
		Confidence: 72,
		Analysis: &models.AnalysisPayload{
			Confluence: &models.ConfluencePayload{},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if scored.Confidence != 72 {
		t.Fatalf("confidence should be unchanged: got %v", scored.Confidence)
	}
}

func TestPollFiltersBySymbolAndSince(t *testing.T) {
	store := newFakeSignalStore()
	now := time.Now().UTC()
	store.scored["a"] = &models.ScoredSignal{
		Signal: models.Signal{ID: "a", Symbol: "EURUSD"}, ScoredAt: now,
	}
	store.scored["b"] = &models.ScoredSignal{
		Signal: models.Signal{ID: "b", Symbol: "USDJPY"}, ScoredAt: now,
	}
	store.scored["c"] = &models.ScoredSignal{
		Signal: models.Signal{ID: "c", Symbol: "EURUSD"}, ScoredAt: now.Add(-2 * time.Hour),
	}

	uc := newTestScorer(newFakeWeightStore(), store)
	sigs, err := uc.Poll(context.Background(), models.PollRequest{
		Symbol: "EURUSD",
		Since:  now.Add(-time.Hour).Unix(),
		Limit:  10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sigs) != 1 || sigs[0].ID != "a" {
		t.Fatalf("unexpected poll result: %+v", sigs)
	}
}

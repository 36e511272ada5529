package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"PipForge/internal/domain/models"
	"PipForge/internal/training"
)

func labeledBatch(symbol string, n int, closedAt time.Time) []models.LabeledSignal {
	batch := make([]models.LabeledSignal, 0, n)
	for i := 0; i < n; i++ {
		l := models.LabeledSignal{
			SignalID: symbol + "-" + time.Now().Format("150405") + string(rune('a'+i%26)),
			Symbol:   symbol,
			Type:     models.DirectionBuy,
			ClosedAt: closedAt,
			Flags:    models.ConfluenceFlags{VolumeConfirm: true, KeyLevel: true},
		}
		if i%3 == 0 {
			l.Outcome = models.OutcomeSLHit
			l.PnLPercent = -0.4
			l.Type = models.DirectionSell
		} else {
			l.Outcome = models.OutcomeTPHit
			l.PnLPercent = 0.5 + 0.01*float64(i%7)
		}
		batch = append(batch, l)
	}
	return batch
}

func newTestRetrainer(store *fakeSignalStore, weights *fakeWeightStore, tl *fakeTrainingLog) *Retrainer {
	return NewRetrainer(store, weights, tl, training.NewOptimizer(), nil, nopMetrics{}, testLogger(), "")
}

func TestTrainUpsertsWeightsAndLogs(t *testing.T) {
	store := newFakeSignalStore()
	store.labeled = labeledBatch("EURUSD", 80, time.Now().UTC())
	weights := newFakeWeightStore()
	tl := newFakeTrainingLog()
	r := newTestRetrainer(store, weights, tl)

	key := models.ContextKey{Symbol: "EURUSD"}
	res, err := r.Train(context.Background(), key, "gradient_descent", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(weights.upserts) != 1 {
		t.Fatalf("expected 1 upsert, got %d", len(weights.upserts))
	}
	v := weights.upserts[0]
	if v.TrainingSamples != 80 {
		t.Fatalf("training samples: got %d", v.TrainingSamples)
	}
	if v.ModelVersion == "" || v.ModelVersion[0] != 'v' {
		t.Fatalf("model version not set: %q", v.ModelVersion)
	}
	if res.ModelVersion != v.ModelVersion {
		t.Fatalf("result/vector version mismatch: %q vs %q", res.ModelVersion, v.ModelVersion)
	}
	for _, w := range v.Weights.Slice() {
		if w < training.WeightMin || w > training.WeightMax {
			t.Fatalf("weight out of bounds: %v", w)
		}
	}
	if len(tl.entries) != 1 {
		t.Fatalf("expected 1 training log entry, got %d", len(tl.entries))
	}
	entry := tl.entries[0]
	if entry.TrainingType != "manual" {
		t.Fatalf("training type: got %q", entry.TrainingType)
	}
	if entry.BuyCount+entry.SellCount != 80 {
		t.Fatalf("direction breakdown incomplete: buy %d sell %d", entry.BuyCount, entry.SellCount)
	}
	// Every SELL in the fixture is a loss, every BUY a win.
	if entry.SellWinRate != 0 || entry.BuyWinRate != 1 {
		t.Fatalf("per-direction win rates: buy %v sell %v", entry.BuyWinRate, entry.SellWinRate)
	}
}

func TestTrainInsufficientData(t *testing.T) {
	store := newFakeSignalStore()
	store.labeled = labeledBatch("EURUSD", 20, time.Now().UTC())
	r := newTestRetrainer(store, newFakeWeightStore(), newFakeTrainingLog())

	_, err := r.Train(context.Background(), models.ContextKey{Symbol: "EURUSD"}, "gradient_descent", true)
	var insufficient *training.ErrInsufficientData
	if !errors.As(err, &insufficient) {
		t.Fatalf("want ErrInsufficientData, got %v", err)
	}
}

func TestTrainGateRequiresFreshLabels(t *testing.T) {
	store := newFakeSignalStore()
	tl := newFakeTrainingLog()
	key := models.ContextKey{Symbol: "EURUSD"}

	// Last run 12h ago, but every label predates it.
	lastRun := time.Now().UTC().Add(-12 * time.Hour)
	tl.lastRun[key.String()] = lastRun
	store.labeled = labeledBatch("EURUSD", 80, lastRun.Add(-time.Hour))

	r := newTestRetrainer(store, newFakeWeightStore(), tl)
	_, err := r.Train(context.Background(), key, "gradient_descent", false)
	if !errors.Is(err, ErrRetrainNotDue) {
		t.Fatalf("want ErrRetrainNotDue, got %v", err)
	}
}

func TestTrainGateRequiresElapsedInterval(t *testing.T) {
	store := newFakeSignalStore()
	tl := newFakeTrainingLog()
	key := models.ContextKey{Symbol: "EURUSD"}

	// Plenty of fresh labels but the last run was an hour ago.
	tl.lastRun[key.String()] = time.Now().UTC().Add(-time.Hour)
	store.labeled = labeledBatch("EURUSD", 80, time.Now().UTC())

	r := newTestRetrainer(store, newFakeWeightStore(), tl)
	_, err := r.Train(context.Background(), key, "gradient_descent", false)
	if !errors.Is(err, ErrRetrainNotDue) {
		t.Fatalf("want ErrRetrainNotDue, got %v", err)
	}
}

func TestTrainGatePassesWhenDue(t *testing.T) {
	store := newFakeSignalStore()
	tl := newFakeTrainingLog()
	key := models.ContextKey{Symbol: "EURUSD"}

	tl.lastRun[key.String()] = time.Now().UTC().Add(-7 * time.Hour)
	store.labeled = labeledBatch("EURUSD", 80, time.Now().UTC())

	r := newTestRetrainer(store, newFakeWeightStore(), tl)
	res, err := r.Train(context.Background(), key, "random_search", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Algorithm != "random_search" {
		t.Fatalf("algorithm: got %q", res.Algorithm)
	}
	if len(tl.entries) != 1 || tl.entries[0].TrainingType != "scheduled" {
		t.Fatalf("expected scheduled training log entry")
	}
}

func TestTrainAllIncludesGlobalContext(t *testing.T) {
	store := newFakeSignalStore()
	store.labeled = labeledBatch("EURUSD", 80, time.Now().UTC())
	weights := newFakeWeightStore()
	tl := newFakeTrainingLog()
	r := newTestRetrainer(store, weights, tl)

	// No stored contexts yet: the sweep still trains the global key,
	// which sees the whole batch.
	r.TrainAll(context.Background(), "gradient_descent")
	if len(weights.upserts) != 1 {
		t.Fatalf("expected global training run, got %d upserts", len(weights.upserts))
	}
	if !weights.upserts[0].Key.IsGlobal() {
		t.Fatalf("expected global key, got %s", weights.upserts[0].Key)
	}
}

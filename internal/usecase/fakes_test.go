package usecase

import (
	"context"
	"time"

	"PipForge/internal/domain/models"
	"PipForge/pkg/logger"
)

func testLogger() *logger.Logger {
	l, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		panic(err)
	}
	return l
}

type nopMetrics struct{}

func (nopMetrics) RecordSignalScored(string, string) {}
func (nopMetrics) RecordOutcome(string, bool)        {}
func (nopMetrics) RecordTrainingRun(string)          {}
func (nopMetrics) RecordWinRate(string, float64)     {}
func (nopMetrics) RecordError(string)                {}
func (nopMetrics) RecordLastPrice(string, float64)   {}
func (nopMetrics) RecordLatency(string, float64)     {}

type fakeWeightStore struct {
	vectors map[string]*models.WeightVector
	upserts []*models.WeightVector
}

func newFakeWeightStore() *fakeWeightStore {
	return &fakeWeightStore{vectors: make(map[string]*models.WeightVector)}
}

func (f *fakeWeightStore) Get(_ context.Context, key models.ContextKey) (*models.WeightVector, error) {
	return f.vectors[key.String()], nil
}

func (f *fakeWeightStore) Upsert(_ context.Context, v *models.WeightVector) error {
	f.vectors[v.Key.String()] = v
	f.upserts = append(f.upserts, v)
	return nil
}

func (f *fakeWeightStore) ListContexts(context.Context) ([]models.ContextKey, error) {
	keys := make([]models.ContextKey, 0, len(f.vectors))
	for _, v := range f.vectors {
		keys = append(keys, v.Key)
	}
	return keys, nil
}

type fakeSignalStore struct {
	scored  map[string]*models.ScoredSignal
	labeled []models.LabeledSignal
	closed  map[string]models.OutcomeEvaluation
}

func newFakeSignalStore() *fakeSignalStore {
	return &fakeSignalStore{
		scored: make(map[string]*models.ScoredSignal),
		closed: make(map[string]models.OutcomeEvaluation),
	}
}

func (f *fakeSignalStore) InsertScored(_ context.Context, s *models.ScoredSignal) error {
	f.scored[s.ID] = s
	return nil
}

func (f *fakeSignalStore) ListSince(_ context.Context, symbol string, since time.Time, limit int) ([]*models.ScoredSignal, error) {
	var out []*models.ScoredSignal
	for _, s := range f.scored {
		if symbol != "" && s.Symbol != symbol {
			continue
		}
		if !s.ScoredAt.After(since) {
			continue
		}
		out = append(out, s)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (f *fakeSignalStore) OpenSignals(_ context.Context, symbol string) ([]*models.ScoredSignal, error) {
	var out []*models.ScoredSignal
	for _, s := range f.scored {
		if s.Symbol != symbol {
			continue
		}
		if _, done := f.closed[s.ID]; done {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeSignalStore) GetScored(_ context.Context, signalID string) (*models.ScoredSignal, error) {
	return f.scored[signalID], nil
}

func (f *fakeSignalStore) MarkClosed(_ context.Context, signalID string, eval models.OutcomeEvaluation) error {
	f.closed[signalID] = eval
	return nil
}

func (f *fakeSignalStore) InsertLabeled(_ context.Context, l *models.LabeledSignal) error {
	f.labeled = append(f.labeled, *l)
	return nil
}

func (f *fakeSignalStore) LabeledBatch(_ context.Context, key models.ContextKey, limit int) ([]models.LabeledSignal, error) {
	var out []models.LabeledSignal
	for _, l := range f.labeled {
		if key.Symbol != "" && l.Symbol != key.Symbol {
			continue
		}
		if key.Session != "" && l.Session != key.Session {
			continue
		}
		if key.Regime != "" && l.Regime != key.Regime {
			continue
		}
		out = append(out, l)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (f *fakeSignalStore) CountLabeledSince(_ context.Context, key models.ContextKey, since time.Time) (int, error) {
	n := 0
	for _, l := range f.labeled {
		if key.Symbol != "" && l.Symbol != key.Symbol {
			continue
		}
		if l.ClosedAt.After(since) {
			n++
		}
	}
	return n, nil
}

func (f *fakeSignalStore) Health(context.Context) error { return nil }

type fakeTrainingLog struct {
	entries []*models.TrainingLogEntry
	lastRun map[string]time.Time
}

func newFakeTrainingLog() *fakeTrainingLog {
	return &fakeTrainingLog{lastRun: make(map[string]time.Time)}
}

func (f *fakeTrainingLog) Append(_ context.Context, e *models.TrainingLogEntry) error {
	f.entries = append(f.entries, e)
	f.lastRun[e.Context.String()] = e.CreatedAt
	return nil
}

func (f *fakeTrainingLog) LastRun(_ context.Context, key models.ContextKey) (time.Time, error) {
	return f.lastRun[key.String()], nil
}

type fakePublisher struct {
	events []*models.ClosedTrade
}

func (f *fakePublisher) Publish(_ context.Context, t *models.ClosedTrade) error {
	f.events = append(f.events, t)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

func boolPtr(b bool) *bool { return &b }

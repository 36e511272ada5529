package repository

import (
	"context"
	"time"

	"PipForge/internal/domain/models"
)

// TickStream is a live price feed used by the outcome monitor.
type TickStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Tick, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// OutcomePublisher emits closed-trade events to the message bus.
type OutcomePublisher interface {
	Publish(ctx context.Context, t *models.ClosedTrade) error
	Close() error
}

// SignalStore persists scored signals and their labeled outcomes.
type SignalStore interface {
	InsertScored(ctx context.Context, s *models.ScoredSignal) error
	// ListSince returns scored signals for polling delivery, newest first.
	ListSince(ctx context.Context, symbol string, since time.Time, limit int) ([]*models.ScoredSignal, error)
	// OpenSignals returns signals not yet closed for a symbol.
	OpenSignals(ctx context.Context, symbol string) ([]*models.ScoredSignal, error)
	GetScored(ctx context.Context, signalID string) (*models.ScoredSignal, error)
	MarkClosed(ctx context.Context, signalID string, eval models.OutcomeEvaluation) error
	InsertLabeled(ctx context.Context, l *models.LabeledSignal) error
	// LabeledBatch returns training examples matching the context key,
	// newest first, up to limit.
	LabeledBatch(ctx context.Context, key models.ContextKey, limit int) ([]models.LabeledSignal, error)
	CountLabeledSince(ctx context.Context, key models.ContextKey, since time.Time) (int, error)
	Health(ctx context.Context) error
}

// WeightStore persists learned weight vectors keyed by context.
type WeightStore interface {
	// Get returns the vector for the exact key, or nil if none exists.
	Get(ctx context.Context, key models.ContextKey) (*models.WeightVector, error)
	Upsert(ctx context.Context, v *models.WeightVector) error
	ListContexts(ctx context.Context) ([]models.ContextKey, error)
}

// TrainingLog is the append-only audit trail of optimization runs.
type TrainingLog interface {
	Append(ctx context.Context, e *models.TrainingLogEntry) error
	LastRun(ctx context.Context, key models.ContextKey) (time.Time, error)
}

// Metrics records operational measurements.
type Metrics interface {
	RecordSignalScored(symbol string, recommendation string)
	RecordOutcome(symbol string, win bool)
	RecordTrainingRun(algorithm string)
	RecordWinRate(context string, winRate float64)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
}

package usecase

import (
	"context"
	"fmt"
	"time"

	"PipForge/internal/domain/models"
	drepo "PipForge/internal/domain/repository"
	"PipForge/internal/labeling"
	"PipForge/pkg/logger"
)

// OutcomeRecorder turns a closed-trade verdict into a labeled training
// example and flips the stored signal to closed. It serves both the
// Kafka consumer path and the direct HTTP report path.
type OutcomeRecorder struct {
	store   drepo.SignalStore
	metrics drepo.Metrics
	log     *logger.Logger
}

// NewOutcomeRecorder creates the recorder usecase.
func NewOutcomeRecorder(store drepo.SignalStore, metrics drepo.Metrics, log *logger.Logger) *OutcomeRecorder {
	return &OutcomeRecorder{store: store, metrics: metrics, log: log}
}

// Record labels the signal and marks it closed. Re-recording an already
// closed signal is a no-op so replayed events stay idempotent.
func (r *OutcomeRecorder) Record(ctx context.Context, signalID string, eval models.OutcomeEvaluation, closedAt time.Time) error {
	sig, err := r.store.GetScored(ctx, signalID)
	if err != nil {
		return fmt.Errorf("load signal %s: %w", signalID, err)
	}
	if sig == nil {
		return fmt.Errorf("signal %s not found", signalID)
	}
	if sig.Status != "" && sig.Status != "OPEN" {
		r.log.Debug("outcome already recorded",
			logger.String("signal_id", signalID),
			logger.String("status", sig.Status),
		)
		return nil
	}

	labeled := labeling.Label(*sig, eval, closedAt)
	if err := r.store.InsertLabeled(ctx, &labeled); err != nil {
		return fmt.Errorf("insert labeled %s: %w", signalID, err)
	}
	if err := r.store.MarkClosed(ctx, signalID, eval); err != nil {
		return fmt.Errorf("mark closed %s: %w", signalID, err)
	}

	r.metrics.RecordOutcome(sig.Symbol, eval.Win)
	return nil
}

// RecordReport handles a client-reported outcome, used when the trading
// terminal closed the trade itself (manual close, broker stop-out).
func (r *OutcomeRecorder) RecordReport(ctx context.Context, rep models.OutcomeReport) error {
	sig, err := r.store.GetScored(ctx, rep.SignalID)
	if err != nil {
		return fmt.Errorf("load signal %s: %w", rep.SignalID, err)
	}
	if sig == nil {
		return fmt.Errorf("signal %s not found", rep.SignalID)
	}

	result := models.OutcomeStatus(rep.Outcome)
	pip := labeling.PipSize(sig.Symbol)
	pips := (rep.ExitPrice - sig.EntryPrice) / pip
	if sig.Type == models.DirectionSell {
		pips = -pips
	}
	eval := models.OutcomeEvaluation{
		ShouldClose: true,
		Win:         result == models.OutcomeTPHit,
		Pips:        pips,
		ExitPrice:   rep.ExitPrice,
		Result:      result,
	}
	if err := r.Record(ctx, rep.SignalID, eval, time.Now().UTC()); err != nil {
		return err
	}
	r.log.Info("outcome reported",
		logger.String("signal_id", rep.SignalID),
		logger.String("symbol", rep.Symbol),
		logger.String("outcome", rep.Outcome),
	)
	return nil
}

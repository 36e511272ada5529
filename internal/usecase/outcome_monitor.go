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

// OutcomeMonitor watches streamed prices against open signals and closes
// the ones whose stop loss or take profit the latest close crossed.
// Closed trades are routed to the configured backend: "kafka" publishes
// an event for the outcomes consumer, "clickhouse" records directly.
type OutcomeMonitor struct {
	store    drepo.SignalStore
	pub      drepo.OutcomePublisher
	recorder *OutcomeRecorder
	metrics  drepo.Metrics
	log      *logger.Logger
	backend  string
}

// NewOutcomeMonitor creates the monitor usecase.
func NewOutcomeMonitor(
	store drepo.SignalStore,
	pub drepo.OutcomePublisher,
	recorder *OutcomeRecorder,
	metrics drepo.Metrics,
	log *logger.Logger,
	backend string,
) *OutcomeMonitor {
	return &OutcomeMonitor{
		store:    store,
		pub:      pub,
		recorder: recorder,
		metrics:  metrics,
		log:      log,
		backend:  backend,
	}
}

// Process evaluates every open signal on the tick's symbol against its
// price. Only the latest close is checked; a spike between ticks that
// retraced before we saw it does not close the trade.
func (m *OutcomeMonitor) Process(ctx context.Context, t *models.Tick) error {
	if t == nil {
		return fmt.Errorf("tick is nil")
	}

	start := time.Now()
	m.metrics.RecordLastPrice(t.Symbol, t.Price)

	open, err := m.store.OpenSignals(ctx, t.Symbol)
	if err != nil {
		m.metrics.RecordError("monitor_open_signals")
		return fmt.Errorf("open signals %s: %w", t.Symbol, err)
	}

	closedAt := time.Unix(t.Timestamp, 0).UTC()
	for _, sig := range open {
		eval := labeling.Evaluate(sig.Signal, t.Price)
		if !eval.ShouldClose {
			continue
		}
		if err := m.close(ctx, sig, eval, closedAt); err != nil {
			m.metrics.RecordError("monitor_close")
			m.log.Error("close signal failed",
				logger.String("signal_id", sig.ID),
				logger.String("symbol", sig.Symbol),
				logger.Error(err),
			)
			continue
		}
		m.log.Info("signal closed",
			logger.String("signal_id", sig.ID),
			logger.String("symbol", sig.Symbol),
			logger.String("outcome", string(eval.Result)),
			logger.Any("pips", eval.Pips),
		)
	}

	m.metrics.RecordLatency("monitor_tick", time.Since(start).Seconds())
	return nil
}

func (m *OutcomeMonitor) close(ctx context.Context, sig *models.ScoredSignal, eval models.OutcomeEvaluation, closedAt time.Time) error {
	switch m.backend {
	case "kafka":
		labeled := labeling.Label(*sig, eval, closedAt)
		return m.pub.Publish(ctx, &models.ClosedTrade{
			SignalID:   sig.ID,
			Symbol:     sig.Symbol,
			Outcome:    eval.Result,
			ExitPrice:  eval.ExitPrice,
			Pips:       eval.Pips,
			PnLPercent: labeled.PnLPercent,
			ClosedAt:   closedAt.Unix(),
		})
	case "clickhouse":
		return m.recorder.Record(ctx, sig.ID, eval, closedAt)
	default:
		return fmt.Errorf("unknown backend: %s", m.backend)
	}
}

// Close closes the publisher if present.
func (m *OutcomeMonitor) Close() {
	if m.pub != nil {
		_ = m.pub.Close()
	}
}

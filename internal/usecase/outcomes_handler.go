package usecase

import (
	"context"
	"encoding/json"
	"time"

	"PipForge/internal/domain/models"
	domrepo "PipForge/internal/domain/repository"
	pkgkafka "PipForge/pkg/kafka"
)

// OutcomesHandler consumes closed-trade events and records them as
// labeled training examples.
type OutcomesHandler struct {
	topic    string
	recorder *OutcomeRecorder
	metrics  domrepo.Metrics
}

func NewOutcomesHandler(topic string, recorder *OutcomeRecorder, metrics domrepo.Metrics) *OutcomesHandler {
	return &OutcomesHandler{topic: topic, recorder: recorder, metrics: metrics}
}

func (h *OutcomesHandler) Topic() string { return h.topic }

func (h *OutcomesHandler) Handle(ctx context.Context, b []byte) error {
	var ev models.ClosedTrade
	if err := json.Unmarshal(b, &ev); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	// E2E latency from close time to now (approx)
	h.metrics.RecordLatency("outcome_e2e_seconds", time.Since(time.Unix(ev.ClosedAt, 0)).Seconds())

	eval := models.OutcomeEvaluation{
		ShouldClose: true,
		Win:         ev.Outcome == models.OutcomeTPHit,
		Pips:        ev.Pips,
		ExitPrice:   ev.ExitPrice,
		Result:      ev.Outcome,
	}

	start := time.Now()
	err := h.recorder.Record(ctx, ev.SignalID, eval, time.Unix(ev.ClosedAt, 0).UTC())
	h.metrics.RecordLatency("outcome_record_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_record")
		return err
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*OutcomesHandler)(nil)

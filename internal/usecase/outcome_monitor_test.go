package usecase

import (
	"context"
	"math"
	"testing"
	"time"

	"PipForge/internal/domain/models"
)

func openSignal(id, symbol string, dir models.Direction, entry, sl, tp float64) *models.ScoredSignal {
	return &models.ScoredSignal{
		Signal: models.Signal{
			ID:         id,
			Symbol:     symbol,
			Type:       dir,
			EntryPrice: entry,
			StopLoss:   sl,
			TakeProfit: tp,
			Confluence: &models.ConfluenceFlags{VolumeConfirm: true},
		},
		ScoredAt: time.Now().UTC(),
	}
}

func newTestMonitor(store *fakeSignalStore, pub *fakePublisher, backend string) *OutcomeMonitor {
	recorder := NewOutcomeRecorder(store, nopMetrics{}, testLogger())
	return NewOutcomeMonitor(store, pub, recorder, nopMetrics{}, testLogger(), backend)
}

func TestMonitorPublishesClosedTrade(t *testing.T) {
	store := newFakeSignalStore()
	store.scored["s1"] = openSignal("s1", "EURUSD", models.DirectionBuy, 1.1000, 1.0950, 1.1100)
	pub := &fakePublisher{}
	m := newTestMonitor(store, pub, "kafka")

	err := m.Process(context.Background(), &models.Tick{
		Symbol: "EURUSD", Timestamp: time.Now().Unix(), Price: 1.1105,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pub.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(pub.events))
	}
	ev := pub.events[0]
	if ev.Outcome != models.OutcomeTPHit {
		t.Fatalf("outcome: got %s", ev.Outcome)
	}
	if math.Abs(ev.Pips-100) > 1e-6 {
		t.Fatalf("pips: got %v, want 100", ev.Pips)
	}
}

func TestMonitorDirectBackendLabelsAndCloses(t *testing.T) {
	store := newFakeSignalStore()
	store.scored["s2"] = openSignal("s2", "USDJPY", models.DirectionSell, 150.00, 150.50, 149.00)
	m := newTestMonitor(store, &fakePublisher{}, "clickhouse")

	// SELL: price at or above stop loss closes as a loss.
	err := m.Process(context.Background(), &models.Tick{
		Symbol: "USDJPY", Timestamp: time.Now().Unix(), Price: 150.55,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.labeled) != 1 {
		t.Fatalf("expected 1 labeled signal, got %d", len(store.labeled))
	}
	l := store.labeled[0]
	if l.Outcome != models.OutcomeSLHit {
		t.Fatalf("outcome: got %s", l.Outcome)
	}
	if _, closed := store.closed["s2"]; !closed {
		t.Fatal("signal not marked closed")
	}
}

func TestMonitorLeavesOpenSignalsAlone(t *testing.T) {
	store := newFakeSignalStore()
	store.scored["s3"] = openSignal("s3", "EURUSD", models.DirectionBuy, 1.1000, 1.0950, 1.1100)
	pub := &fakePublisher{}
	m := newTestMonitor(store, pub, "kafka")

	// Price between SL and TP.
	err := m.Process(context.Background(), &models.Tick{
		Symbol: "EURUSD", Timestamp: time.Now().Unix(), Price: 1.1050,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pub.events) != 0 {
		t.Fatalf("expected no events, got %d", len(pub.events))
	}
}

func TestRecorderReportComputesPips(t *testing.T) {
	store := newFakeSignalStore()
	store.scored["s4"] = openSignal("s4", "EURUSD", models.DirectionBuy, 1.1000, 1.0950, 1.1100)
	recorder := NewOutcomeRecorder(store, nopMetrics{}, testLogger())

	err := recorder.RecordReport(context.Background(), models.OutcomeReport{
		SignalID:  "s4",
		Symbol:    "EURUSD",
		Outcome:   "SL_HIT",
		ExitPrice: 1.0950,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.labeled) != 1 {
		t.Fatalf("expected 1 labeled signal, got %d", len(store.labeled))
	}
	if math.Abs(store.labeled[0].Pips-(-50)) > 1e-6 {
		t.Fatalf("pips: got %v, want -50", store.labeled[0].Pips)
	}
}

func TestRecorderUnknownSignal(t *testing.T) {
	recorder := NewOutcomeRecorder(newFakeSignalStore(), nopMetrics{}, testLogger())
	err := recorder.Record(context.Background(), "missing", models.OutcomeEvaluation{}, time.Now())
	if err == nil {
		t.Fatal("expected error for unknown signal")
	}
}

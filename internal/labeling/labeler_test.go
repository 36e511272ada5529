package labeling

import (
	"math"
	"testing"
	"time"

	"PipForge/internal/domain/models"
)

func buySignal() models.Signal {
	return models.Signal{
		Symbol:     "EURUSD",
		Type:       models.DirectionBuy,
		EntryPrice: 1.1000,
		StopLoss:   1.0950,
		TakeProfit: 1.1100,
	}
}

func TestPipSize(t *testing.T) {
	if got := PipSize("USDJPY"); got != 0.01 {
		t.Fatalf("PipSize(USDJPY) = %v, want 0.01", got)
	}
	if got := PipSize("eurjpy"); got != 0.01 {
		t.Fatalf("PipSize(eurjpy) = %v, want 0.01", got)
	}
	if got := PipSize("EURUSD"); got != 0.0001 {
		t.Fatalf("PipSize(EURUSD) = %v, want 0.0001", got)
	}
}

func TestBuyTakeProfitHit(t *testing.T) {
	eval := Evaluate(buySignal(), 1.1105)
	if !eval.ShouldClose || !eval.Win {
		t.Fatalf("expected winning close, got %+v", eval)
	}
	if eval.ExitPrice != 1.1100 {
		t.Fatalf("exit = %v, want TP 1.1100", eval.ExitPrice)
	}
	if math.Abs(eval.Pips-100) > 1e-6 {
		t.Fatalf("pips = %v, want 100", eval.Pips)
	}
	if eval.Result != models.OutcomeTPHit {
		t.Fatalf("result = %v, want TP_HIT", eval.Result)
	}
}

func TestBuyStopLossHit(t *testing.T) {
	eval := Evaluate(buySignal(), 1.0940)
	if !eval.ShouldClose || eval.Win {
		t.Fatalf("expected losing close, got %+v", eval)
	}
	if eval.ExitPrice != 1.0950 {
		t.Fatalf("exit = %v, want SL 1.0950", eval.ExitPrice)
	}
	if math.Abs(eval.Pips-(-50)) > 1e-6 {
		t.Fatalf("pips = %v, want -50", eval.Pips)
	}
	if eval.Result != models.OutcomeSLHit {
		t.Fatalf("result = %v, want SL_HIT", eval.Result)
	}
}

func TestBuyStaysOpen(t *testing.T) {
	eval := Evaluate(buySignal(), 1.1050)
	if eval.ShouldClose {
		t.Fatalf("expected open, got %+v", eval)
	}
}

func TestSellMirrored(t *testing.T) {
	sig := models.Signal{
		Symbol:     "USDJPY",
		Type:       models.DirectionSell,
		EntryPrice: 150.00,
		StopLoss:   150.50,
		TakeProfit: 149.00,
	}

	win := Evaluate(sig, 148.95)
	if !win.ShouldClose || !win.Win {
		t.Fatalf("expected winning close, got %+v", win)
	}
	if math.Abs(win.Pips-100) > 1e-6 {
		t.Fatalf("pips = %v, want 100 (JPY pip 0.01)", win.Pips)
	}

	loss := Evaluate(sig, 150.60)
	if !loss.ShouldClose || loss.Win {
		t.Fatalf("expected losing close, got %+v", loss)
	}
	if math.Abs(loss.Pips-(-50)) > 1e-6 {
		t.Fatalf("pips = %v, want -50", loss.Pips)
	}
}

func TestBoundaryTouchCloses(t *testing.T) {
	// closed bounds: equality triggers the close
	eval := Evaluate(buySignal(), 1.1100)
	if !eval.ShouldClose || !eval.Win {
		t.Fatalf("price == TP must close as win, got %+v", eval)
	}
	eval = Evaluate(buySignal(), 1.0950)
	if !eval.ShouldClose || eval.Win {
		t.Fatalf("price == SL must close as loss, got %+v", eval)
	}
}

func TestLabelCapturesFlagsAndPnL(t *testing.T) {
	sig := models.ScoredSignal{Signal: buySignal()}
	sig.ID = "sig-1"
	sig.Session = models.SessionLondon
	sig.Regime = models.RegimeTrend
	sig.Confluence = &models.ConfluenceFlags{EMAAlign: true, KeyLevel: true}

	closedAt := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	eval := Evaluate(sig.Signal, 1.1105)
	l := Label(sig, eval, closedAt)

	if l.SignalID != "sig-1" || l.Outcome != models.OutcomeTPHit {
		t.Fatalf("unexpected label %+v", l)
	}
	if !l.Flags.EMAAlign || !l.Flags.KeyLevel || l.Flags.VolumeConfirm {
		t.Fatalf("flags not carried over: %+v", l.Flags)
	}
	wantPct := (1.1100 - 1.1000) / 1.1000 * 100
	if math.Abs(l.PnLPercent-wantPct) > 1e-9 {
		t.Fatalf("pnl_percent = %v, want %v", l.PnLPercent, wantPct)
	}
	if !l.Win() {
		t.Fatalf("TP_HIT must label as win")
	}
}

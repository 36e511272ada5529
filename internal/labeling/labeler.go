package labeling

import (
	"strings"
	"time"

	"PipForge/internal/domain/models"
)

// PipSize returns the minimum meaningful price increment for a pair:
// 0.01 for JPY-quoted pairs, 0.0001 otherwise.
func PipSize(symbol string) float64 {
	if strings.HasSuffix(strings.ToUpper(symbol), "JPY") {
		return 0.01
	}
	return 0.0001
}

// Evaluate checks an open signal against the latest close price and
// decides whether it has hit its stop or target. Only the latest close is
// considered: intrabar touches between polls are not detected, so gaps and
// fast moves can be missed or misattributed.
func Evaluate(sig models.Signal, currentPrice float64) models.OutcomeEvaluation {
	pip := PipSize(sig.Symbol)

	switch sig.Type {
	case models.DirectionBuy:
		if sig.StopLoss > 0 && currentPrice <= sig.StopLoss {
			return closed(false, sig.StopLoss, (sig.StopLoss-sig.EntryPrice)/pip)
		}
		if sig.TakeProfit > 0 && currentPrice >= sig.TakeProfit {
			return closed(true, sig.TakeProfit, (sig.TakeProfit-sig.EntryPrice)/pip)
		}
	case models.DirectionSell:
		if sig.StopLoss > 0 && currentPrice >= sig.StopLoss {
			return closed(false, sig.StopLoss, (sig.EntryPrice-sig.StopLoss)/pip)
		}
		if sig.TakeProfit > 0 && currentPrice <= sig.TakeProfit {
			return closed(true, sig.TakeProfit, (sig.EntryPrice-sig.TakeProfit)/pip)
		}
	}
	return models.OutcomeEvaluation{}
}

func closed(win bool, exit, pips float64) models.OutcomeEvaluation {
	result := models.OutcomeSLHit
	if win {
		result = models.OutcomeTPHit
	}
	return models.OutcomeEvaluation{
		ShouldClose: true,
		Win:         win,
		Pips:        pips,
		ExitPrice:   exit,
		Result:      result,
	}
}

// Label builds the immutable training example for a closed signal.
// PnL percent is measured from entry to exit relative to entry.
func Label(sig models.ScoredSignal, eval models.OutcomeEvaluation, closedAt time.Time) models.LabeledSignal {
	var pnlPct float64
	if sig.EntryPrice > 0 {
		pnlPct = (eval.ExitPrice - sig.EntryPrice) / sig.EntryPrice * 100
		if sig.Type == models.DirectionSell {
			pnlPct = -pnlPct
		}
	}
	flags := models.ConfluenceFlags{}
	if sig.Confluence != nil {
		flags = *sig.Confluence
	}
	return models.LabeledSignal{
		SignalID:   sig.ID,
		Symbol:     sig.Symbol,
		Type:       sig.Type,
		Session:    sig.Session,
		Regime:     sig.Regime,
		Flags:      flags,
		Outcome:    eval.Result,
		PnLPercent: pnlPct,
		Pips:       eval.Pips,
		ClosedAt:   closedAt,
	}
}

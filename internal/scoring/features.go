package scoring

import (
	"strings"
	"time"

	"PipForge/internal/domain/models"
)

// FromRequest extracts a scoring-ready Signal from the wire payload.
// It performs no computation beyond normalization: absent optional fields
// stay absent so downstream scoring falls back to neutral behavior.
func FromRequest(req models.ScoreRequest, now time.Time) models.Signal {
	sig := models.Signal{
		Symbol:     strings.ToUpper(strings.TrimSpace(req.Symbol)),
		Type:       models.Direction(req.Type),
		Confidence: req.Confidence,
		CreatedAt:  now,
	}
	if req.EntryPrice != nil {
		sig.EntryPrice = *req.EntryPrice
	}
	if req.StopLoss != nil {
		sig.StopLoss = *req.StopLoss
	}
	if req.TakeProfit != nil {
		sig.TakeProfit = *req.TakeProfit
	}

	a := req.Analysis
	if a == nil {
		return sig
	}
	sig.Regime = normalizeRegime(a.Regime)
	sig.Session = normalizeSession(a.Session)
	if a.Indicators != nil {
		sig.Indicators = models.Indicators{
			RSI:   a.Indicators.RSI,
			EMA12: a.Indicators.EMA12,
			EMA21: a.Indicators.EMA21,
			ADX:   a.Indicators.ADX,
			ATR:   a.Indicators.ATR,
		}
	}
	if a.Risk != nil {
		sig.Risk = models.RiskMetrics{
			CurrentDrawdownPct: a.Risk.CurrentDrawdownPct,
			SymbolWinRate:      a.Risk.SymbolWinRate,
		}
	}
	if a.Confluence != nil {
		sig.Confluence = &models.ConfluenceFlags{
			VolumeConfirm:  a.Confluence.HasVolumeConfirm,
			SessionAlign:   a.Confluence.HasSessionAlign,
			PullbackEntry:  a.Confluence.HasPullbackEntry,
			StrongMomentum: a.Confluence.HasStrongMomentum,
			KeyLevel:       a.Confluence.HasKeyLevel,
			H1Confirm:      a.Confluence.HasH1Confirm,
			EMAAlign:       a.Confluence.HasEMAAlign,
			BBSignal:       a.Confluence.HasBBSignal,
			RegimeAlign:    a.Confluence.HasRegimeAlign,
			PatternConfirm: a.Confluence.HasPatternConfirm,
		}
	} else {
		sig.Confluence = DeriveConfluence(sig)
	}
	return sig
}

// DeriveConfluence fills the confirmations that are decidable from the
// signal's own indicator bag when the producer did not send explicit
// flags. Flags that need data we do not have stay false.
func DeriveConfluence(sig models.Signal) *models.ConfluenceFlags {
	f := &models.ConfluenceFlags{}
	if sig.Indicators.EMA12 != nil && sig.Indicators.EMA21 != nil {
		bullish := *sig.Indicators.EMA12 > *sig.Indicators.EMA21
		f.EMAAlign = bullish == (sig.Type == models.DirectionBuy)
	}
	if sig.Indicators.ADX != nil {
		f.StrongMomentum = *sig.Indicators.ADX > 25
	}
	f.RegimeAlign = sig.Regime == models.RegimeTrend
	f.SessionAlign = sig.Session == models.SessionLondon ||
		sig.Session == models.SessionNewYork ||
		sig.Session == models.SessionOverlap
	return f
}

func normalizeRegime(s string) models.MarketRegime {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TREND", "TRENDING":
		return models.RegimeTrend
	case "RANGE", "RANGING":
		return models.RegimeRange
	case "UNCERTAIN":
		return models.RegimeUncertain
	default:
		return ""
	}
}

func normalizeSession(s string) models.TradingSession {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ASIAN":
		return models.SessionAsian
	case "LONDON":
		return models.SessionLondon
	case "NY", "NEWYORK", "NEW_YORK":
		return models.SessionNewYork
	case "OVERLAP":
		return models.SessionOverlap
	default:
		return ""
	}
}

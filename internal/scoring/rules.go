package scoring

import "PipForge/internal/domain/models"

// A rule is one (condition, score-delta) pair. Rules are evaluated in
// declaration order and their deltas are additive on top of the neutral
// baseline; order is part of the contract.
type rule struct {
	name  string
	when  func(sig models.Signal) bool
	delta float64
}

func applyRules(baseline float64, sig models.Signal, rules []rule) float64 {
	score := baseline
	for _, r := range rules {
		if r.when(sig) {
			score += r.delta
		}
	}
	return clamp(score, 0, 100)
}

// technicalRules scores trend alignment (RSI, EMA) and momentum (ADX),
// direction-aware. Missing indicators contribute nothing.
func technicalRules(sig models.Signal) []rule {
	hasRSI := sig.Indicators.RSI != nil
	hasEMA := sig.Indicators.EMA12 != nil && sig.Indicators.EMA21 != nil
	hasADX := sig.Indicators.ADX != nil

	rsi := deref(sig.Indicators.RSI)
	adx := deref(sig.Indicators.ADX)
	emaBullish := hasEMA && *sig.Indicators.EMA12 > *sig.Indicators.EMA21

	buy := sig.Type == models.DirectionBuy

	return []rule{
		{"rsi_reversal", func(models.Signal) bool {
			if !hasRSI {
				return false
			}
			if buy {
				return rsi < 30
			}
			return rsi > 70
		}, 15},
		{"rsi_favorable", func(models.Signal) bool {
			if !hasRSI {
				return false
			}
			if buy {
				return rsi >= 30 && rsi < 50
			}
			return rsi <= 70 && rsi > 50
		}, 10},
		{"rsi_exhausted", func(models.Signal) bool {
			if !hasRSI {
				return false
			}
			if buy {
				return rsi > 70
			}
			return rsi < 30
		}, -15},
		{"ema_aligned", func(models.Signal) bool {
			if !hasEMA {
				return false
			}
			return emaBullish == buy
		}, 20},
		{"ema_counter_trend", func(models.Signal) bool {
			if !hasEMA {
				return false
			}
			return emaBullish != buy
		}, -10},
		{"adx_strong", func(models.Signal) bool { return hasADX && adx > 25 }, 15},
		{"adx_building", func(models.Signal) bool { return hasADX && adx > 20 && adx <= 25 }, 10},
		{"adx_choppy", func(models.Signal) bool { return hasADX && adx < 15 }, -10},
	}
}

// marketRules scores regime, session liquidity, and ATR volatility fit.
func marketRules(sig models.Signal) []rule {
	atrPct := 0.0
	hasATR := sig.Indicators.ATR != nil && sig.EntryPrice > 0
	if hasATR {
		atrPct = *sig.Indicators.ATR / sig.EntryPrice * 100
	}

	return []rule{
		{"regime_trend", func(s models.Signal) bool { return s.Regime == models.RegimeTrend }, 20},
		{"regime_range", func(s models.Signal) bool { return s.Regime == models.RegimeRange }, 10},
		{"regime_uncertain", func(s models.Signal) bool { return s.Regime == models.RegimeUncertain }, -10},
		{"session_major", func(s models.Signal) bool {
			return s.Session == models.SessionLondon || s.Session == models.SessionNewYork
		}, 15},
		{"session_overlap", func(s models.Signal) bool { return s.Session == models.SessionOverlap }, 20},
		{"session_asian", func(s models.Signal) bool { return s.Session == models.SessionAsian }, 5},
		{"volatility_optimal", func(models.Signal) bool {
			return hasATR && atrPct >= 0.05 && atrPct <= 0.15
		}, 15},
		{"volatility_excessive", func(models.Signal) bool { return hasATR && atrPct > 0.30 }, -15},
		{"volatility_dead", func(models.Signal) bool { return hasATR && atrPct < 0.02 }, -10},
	}
}

// Symbol risk tiers. Membership is fixed; anything unlisted stays neutral.
var (
	stableSymbols   = map[string]bool{"EURUSD": true, "USDCAD": true}
	volatileSymbols = map[string]bool{"XAUUSD": true, "GBPUSD": true}
)

// riskRules scores the symbol tier and, when account risk metrics are
// supplied, drawdown pressure and per-symbol historical win rate.
func riskRules(sig models.Signal) []rule {
	dd := deref(sig.Risk.CurrentDrawdownPct)
	hasDD := sig.Risk.CurrentDrawdownPct != nil
	wr := deref(sig.Risk.SymbolWinRate)
	hasWR := sig.Risk.SymbolWinRate != nil

	return []rule{
		{"symbol_stable", func(s models.Signal) bool { return stableSymbols[s.Symbol] }, 20},
		{"symbol_volatile", func(s models.Signal) bool { return volatileSymbols[s.Symbol] }, 5},
		{"drawdown_high", func(models.Signal) bool { return hasDD && dd > 10 }, -20},
		{"drawdown_elevated", func(models.Signal) bool { return hasDD && dd > 5 && dd <= 10 }, -10},
		{"symbol_winrate_strong", func(models.Signal) bool { return hasWR && wr > 60 }, 15},
		{"symbol_winrate_weak", func(models.Signal) bool { return hasWR && wr < 40 }, -15},
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

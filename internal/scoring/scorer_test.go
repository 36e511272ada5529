package scoring

import (
	"math"
	"testing"

	"PipForge/internal/domain/models"
)

func fp(v float64) *float64 { return &v }

func eurusdBuy(confidence float64) models.Signal {
	return models.Signal{
		Symbol:     "EURUSD",
		Type:       models.DirectionBuy,
		Confidence: confidence,
		EntryPrice: 1.0850,
		Indicators: models.Indicators{
			RSI:   fp(25),
			EMA12: fp(1.0855),
			EMA21: fp(1.0840),
			ADX:   fp(30),
		},
		Regime:  models.RegimeTrend,
		Session: models.SessionOverlap,
	}
}

func TestScoreStrongBuyScenario(t *testing.T) {
	res := Score(eurusdBuy(90))

	if got := res.Components.MLConfidence; math.Abs(got-93.35) > 1e-9 {
		t.Fatalf("ml_confidence = %v, want 93.35", got)
	}
	if got := res.Components.TechnicalQuality; got != 100 {
		t.Fatalf("technical_quality = %v, want 100", got)
	}
	if got := res.Components.MarketConditions; got != 90 {
		t.Fatalf("market_conditions = %v, want 90", got)
	}
	if got := res.Components.MTFConfirmation; got != 50 {
		t.Fatalf("mtf_confirmation = %v, want 50", got)
	}
	if got := res.Components.RiskFactors; got != 70 {
		t.Fatalf("risk_factors = %v, want 70", got)
	}
	// 93.35*0.30 = 28.005: rounding may land on 85.50 or 85.51.
	if math.Abs(res.TotalWeight-85.5) > 0.011 {
		t.Fatalf("total_weight = %v, want ~85.5", res.TotalWeight)
	}
	if res.Recommendation != models.RecommendStrongBuy {
		t.Fatalf("recommendation = %v, want STRONG_BUY", res.Recommendation)
	}
	if res.PositionSizeMultiplier != 2.0 {
		t.Fatalf("multiplier = %v, want 2.0", res.PositionSizeMultiplier)
	}
}

func TestScoreLowConfidenceScenario(t *testing.T) {
	res := Score(eurusdBuy(35))

	if got := res.Components.MLConfidence; got != 28 {
		t.Fatalf("ml_confidence = %v, want 28", got)
	}
	if got := res.TotalWeight; got != 65.9 {
		t.Fatalf("total_weight = %v, want 65.9", got)
	}
	if res.Recommendation != models.RecommendBuy {
		t.Fatalf("recommendation = %v, want BUY", res.Recommendation)
	}
	if res.PositionSizeMultiplier != 1.0 {
		t.Fatalf("multiplier = %v, want 1.0", res.PositionSizeMultiplier)
	}
}

func TestMLConfidenceSegmentBoundaries(t *testing.T) {
	// The segments meet exactly at 50 and 70. The 1.33 slope leaves a
	// 0.05 upward step at 85 (70 + 15*1.33 = 89.95 vs 90).
	cases := []struct {
		boundary  float64
		wantBelow float64
		wantAt    float64
	}{
		{50, 40, 40},
		{70, 70, 70},
		{85, 89.95, 90},
	}
	const eps = 1e-6
	for _, c := range cases {
		below := scoreMLConfidence(c.boundary - eps)
		at := scoreMLConfidence(c.boundary)
		if math.Abs(below-c.wantBelow) > 1e-4 {
			t.Fatalf("f(%v-) = %v, want %v", c.boundary, below, c.wantBelow)
		}
		if math.Abs(at-c.wantAt) > 1e-4 {
			t.Fatalf("f(%v) = %v, want %v", c.boundary, at, c.wantAt)
		}
	}
}

func TestMLConfidenceMonotoneAndBounded(t *testing.T) {
	prev := -1.0
	for c := 0.0; c <= 100; c += 0.5 {
		s := scoreMLConfidence(c)
		if s < prev {
			t.Fatalf("f(%v) = %v < f(prev) = %v, not monotone", c, s, prev)
		}
		if s < 0 || s > 100 {
			t.Fatalf("f(%v) = %v out of [0,100]", c, s)
		}
		prev = s
	}
	if scoreMLConfidence(100) <= scoreMLConfidence(0) {
		t.Fatalf("f(100) must exceed f(0)")
	}
}

func TestTotalWeightBounded(t *testing.T) {
	sigs := []models.Signal{
		{}, // completely empty: scoring must not panic
		{Symbol: "USDJPY", Type: models.DirectionSell, Confidence: 100},
		eurusdBuy(100),
		{
			Symbol: "XAUUSD", Type: models.DirectionSell, Confidence: 0,
			EntryPrice: 2400,
			Indicators: models.Indicators{RSI: fp(10), EMA12: fp(2410), EMA21: fp(2300), ADX: fp(5), ATR: fp(40)},
			Regime:     models.RegimeUncertain, Session: models.SessionAsian,
		},
	}
	for i, sig := range sigs {
		res := Score(sig)
		if res.TotalWeight < 0 || res.TotalWeight > 100 {
			t.Fatalf("case %d: total_weight %v out of [0,100]", i, res.TotalWeight)
		}
		for _, c := range []float64{
			res.Components.MLConfidence, res.Components.TechnicalQuality,
			res.Components.MarketConditions, res.Components.MTFConfirmation,
			res.Components.RiskFactors,
		} {
			if c < 0 || c > 100 {
				t.Fatalf("case %d: component %v out of [0,100]", i, c)
			}
		}
	}
}

func TestMissingFieldsAreNeutral(t *testing.T) {
	res := Score(models.Signal{Symbol: "AUDNZD", Type: models.DirectionBuy, Confidence: 50})
	if res.Components.TechnicalQuality != 50 {
		t.Fatalf("technical_quality = %v, want neutral 50", res.Components.TechnicalQuality)
	}
	if res.Components.MarketConditions != 50 {
		t.Fatalf("market_conditions = %v, want neutral 50", res.Components.MarketConditions)
	}
	if res.Components.RiskFactors != 50 {
		t.Fatalf("risk_factors = %v, want neutral 50 for unlisted symbol", res.Components.RiskFactors)
	}
}

func TestScoreIdempotent(t *testing.T) {
	sig := eurusdBuy(72)
	a := Score(sig)
	b := Score(sig)
	if a != b {
		t.Fatalf("scoring is not deterministic: %+v vs %+v", a, b)
	}
}

func TestRecommendationBoundaries(t *testing.T) {
	cases := []struct {
		total float64
		rec   models.Recommendation
		mult  float64
	}{
		{39.99, models.RecommendAvoid, 0.25},
		{40, models.RecommendWeak, 0.5},
		{50, models.RecommendWeak, 0.75},
		{59.99, models.RecommendWeak, 0.75},
		{60, models.RecommendBuy, 1.0},
		{70, models.RecommendBuy, 1.5},
		{74.999, models.RecommendBuy, 1.5},
		{75, models.RecommendStrongBuy, 1.5},
		{80, models.RecommendStrongBuy, 2.0},
		{100, models.RecommendStrongBuy, 2.0},
	}
	for _, c := range cases {
		if got := recommendationFor(c.total); got != c.rec {
			t.Fatalf("recommendationFor(%v) = %v, want %v", c.total, got, c.rec)
		}
		if got := multiplierFor(c.total); got != c.mult {
			t.Fatalf("multiplierFor(%v) = %v, want %v", c.total, got, c.mult)
		}
	}
}

func TestEMACounterTrendPenalty(t *testing.T) {
	sig := models.Signal{
		Symbol: "EURUSD", Type: models.DirectionSell, Confidence: 50,
		Indicators: models.Indicators{EMA12: fp(1.09), EMA21: fp(1.08)},
	}
	res := Score(sig)
	// neutral 50 - 10 counter-trend
	if res.Components.TechnicalQuality != 40 {
		t.Fatalf("technical_quality = %v, want 40", res.Components.TechnicalQuality)
	}
}

func TestRiskMetricsAdjustments(t *testing.T) {
	sig := models.Signal{
		Symbol: "EURUSD", Type: models.DirectionBuy, Confidence: 50,
		Risk: models.RiskMetrics{CurrentDrawdownPct: fp(12), SymbolWinRate: fp(65)},
	}
	res := Score(sig)
	// 50 + 20 stable tier - 20 drawdown + 15 winrate
	if res.Components.RiskFactors != 65 {
		t.Fatalf("risk_factors = %v, want 65", res.Components.RiskFactors)
	}
}

package scoring

import (
	"math"

	"PipForge/internal/domain/models"
)

// Fixed mix of the five component scores into the total weight.
const (
	mixMLConfidence     = 0.30
	mixTechnicalQuality = 0.25
	mixMarketConditions = 0.20
	mixMTFConfirmation  = 0.15
	mixRiskFactors      = 0.10
)

const neutralScore = 50.0

// Engine is the stateless scorer wired into the request path. It exists
// so callers depend on the service interface rather than this package.
type Engine struct{}

func NewEngine() Engine { return Engine{} }

func (Engine) Score(sig models.Signal) models.WeightResult {
	return Score(sig)
}

// Score combines the five component scores into a 0-100 signal weight and
// derives the recommendation and position-size multiplier. It is a pure
// function: missing optional fields degrade to neutral, never to an error.
func Score(sig models.Signal) models.WeightResult {
	comps := models.WeightComponents{
		MLConfidence:     scoreMLConfidence(sig.Confidence),
		TechnicalQuality: applyRules(neutralScore, sig, technicalRules(sig)),
		MarketConditions: applyRules(neutralScore, sig, marketRules(sig)),
		MTFConfirmation:  scoreMTFConfirmation(),
		RiskFactors:      applyRules(neutralScore, sig, riskRules(sig)),
	}

	total := round2(comps.MLConfidence*mixMLConfidence +
		comps.TechnicalQuality*mixTechnicalQuality +
		comps.MarketConditions*mixMarketConditions +
		comps.MTFConfirmation*mixMTFConfirmation +
		comps.RiskFactors*mixRiskFactors)

	return models.WeightResult{
		TotalWeight:            total,
		Components:             comps,
		Recommendation:         recommendationFor(total),
		PositionSizeMultiplier: multiplierFor(total),
	}
}

// scoreMLConfidence remaps raw model confidence piecewise-linearly,
// compressing the middle of the range and expanding the extremes:
//
//	[0,50)   -> x*0.8          (0..40)
//	[50,70)  -> 40+(x-50)*1.5  (40..70)
//	[70,85)  -> 70+(x-70)*1.33 (70..90)
//	[85,100] -> 90+(x-85)*0.67 (90..100)
//
// The segments meet at 50 and 70; the 1.33 slope leaves a 0.05 step
// at 85, kept as-is so historical weights stay comparable.
func scoreMLConfidence(confidence float64) float64 {
	var s float64
	switch {
	case confidence < 50:
		s = confidence * 0.8
	case confidence < 70:
		s = 40 + (confidence-50)*1.5
	case confidence < 85:
		s = 70 + (confidence-70)*1.33
	default:
		s = 90 + (confidence-85)*0.67
	}
	return clamp(s, 0, 100)
}

// scoreMTFConfirmation is a fixed neutral placeholder. Higher-timeframe
// agreement is not computed anywhere in the pipeline yet; scoring it for
// real would shift every total weight, so the gap is kept explicit.
func scoreMTFConfirmation() float64 {
	return neutralScore
}

// recommendationFor is a step function of total weight with closed lower
// bounds: ties resolve to the higher bracket.
func recommendationFor(total float64) models.Recommendation {
	switch {
	case total >= 75:
		return models.RecommendStrongBuy
	case total >= 60:
		return models.RecommendBuy
	case total >= 40:
		return models.RecommendWeak
	default:
		return models.RecommendAvoid
	}
}

// multiplierFor maps total weight to a position-size multiplier in
// [0.25, 2.0], again with closed lower bounds.
func multiplierFor(total float64) float64 {
	switch {
	case total >= 80:
		return 2.0
	case total >= 70:
		return 1.5
	case total >= 60:
		return 1.0
	case total >= 50:
		return 0.75
	case total >= 40:
		return 0.5
	default:
		return 0.25
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

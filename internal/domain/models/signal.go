package models

import "time"

// Direction is the trade side of a signal.
type Direction string

const (
	DirectionBuy  Direction = "BUY"
	DirectionSell Direction = "SELL"
	DirectionHold Direction = "HOLD"
)

// MarketRegime classifies the broad market state used as scoring context.
type MarketRegime string

const (
	RegimeTrend     MarketRegime = "TREND"
	RegimeRange     MarketRegime = "RANGE"
	RegimeUncertain MarketRegime = "UNCERTAIN"
)

// TradingSession is the trading-hours bucket a signal was generated in.
type TradingSession string

const (
	SessionAsian   TradingSession = "ASIAN"
	SessionLondon  TradingSession = "LONDON"
	SessionNewYork TradingSession = "NY"
	SessionOverlap TradingSession = "OVERLAP"
)

// Indicators is the optional technical indicator bag attached to a signal.
// Nil pointers mean the producer did not compute that indicator; scoring
// treats absent values as neutral.
type Indicators struct {
	RSI   *float64 `json:"rsi,omitempty"`
	EMA12 *float64 `json:"ema12,omitempty"`
	EMA21 *float64 `json:"ema21,omitempty"`
	ADX   *float64 `json:"adx,omitempty"`
	ATR   *float64 `json:"atr,omitempty"`
}

// RiskMetrics carries optional account-level risk context supplied by the
// caller. Absent metrics leave the risk score untouched.
type RiskMetrics struct {
	CurrentDrawdownPct *float64 `json:"current_drawdown_pct,omitempty"`
	SymbolWinRate      *float64 `json:"symbol_win_rate,omitempty"`
}

// ConfluenceFlags are the boolean confirmations whose presence contributes
// a learned weight to computed confidence.
type ConfluenceFlags struct {
	VolumeConfirm  bool `json:"has_volume_confirm"`
	SessionAlign   bool `json:"has_session_align"`
	PullbackEntry  bool `json:"has_pullback_entry"`
	StrongMomentum bool `json:"has_strong_momentum"`
	KeyLevel       bool `json:"has_key_level"`
	H1Confirm      bool `json:"has_h1_confirm"`
	EMAAlign       bool `json:"has_ema_align"`
	BBSignal       bool `json:"has_bb_signal"`
	RegimeAlign    bool `json:"has_regime_align"`
	PatternConfirm bool `json:"has_pattern_confirm"`
}

// Signal is one scoring input. It is created per request; persistence is
// the caller's responsibility, not the scorer's.
type Signal struct {
	ID         string           `json:"id"`
	Symbol     string           `json:"symbol"`
	Type       Direction        `json:"type"`
	Confidence float64          `json:"confidence"` // 0-100
	EntryPrice float64          `json:"entry_price"`
	StopLoss   float64          `json:"stop_loss"`
	TakeProfit float64          `json:"take_profit"`
	Indicators Indicators       `json:"indicators"`
	Regime     MarketRegime     `json:"regime,omitempty"`
	Session    TradingSession   `json:"session,omitempty"`
	Risk       RiskMetrics      `json:"risk"`
	Confluence *ConfluenceFlags `json:"confluence,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
}

// WeightComponents holds the five component scores, each clamped to [0,100].
type WeightComponents struct {
	MLConfidence     float64 `json:"ml_confidence"`
	TechnicalQuality float64 `json:"technical_quality"`
	MarketConditions float64 `json:"market_conditions"`
	MTFConfirmation  float64 `json:"mtf_confirmation"`
	RiskFactors      float64 `json:"risk_factors"`
}

// Recommendation is the categorical action derived from total weight.
type Recommendation string

const (
	RecommendStrongBuy Recommendation = "STRONG_BUY"
	RecommendBuy       Recommendation = "BUY"
	RecommendWeak      Recommendation = "WEAK"
	RecommendAvoid     Recommendation = "AVOID"
)

// WeightResult is the scorer output: a 0-100 total, its component
// breakdown, and the derived recommendation and sizing multiplier.
type WeightResult struct {
	TotalWeight            float64          `json:"total_weight"`
	Components             WeightComponents `json:"components"`
	Recommendation         Recommendation   `json:"recommendation"`
	PositionSizeMultiplier float64          `json:"position_size_multiplier"`
}

// ScoredSignal is a signal together with its weight scoring, as persisted
// and as delivered to the trading client.
type ScoredSignal struct {
	Signal
	Weight       WeightResult `json:"weight"`
	ModelVersion string       `json:"model_version"`
	// Status is OPEN until the monitor or a client report closes the
	// trade, then TP_HIT or SL_HIT.
	Status   string    `json:"status,omitempty"`
	ScoredAt time.Time `json:"scored_at"`
}

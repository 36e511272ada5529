package models

// Requests for scoring and training HTTP endpoints. Defined in domain for
// consistency and reuse.

type IndicatorsPayload struct {
	RSI   *float64 `json:"rsi,omitempty"`
	EMA12 *float64 `json:"ema12,omitempty"`
	EMA21 *float64 `json:"ema21,omitempty"`
	ADX   *float64 `json:"adx,omitempty"`
	ATR   *float64 `json:"atr,omitempty"`
}

type ConfluencePayload struct {
	HasVolumeConfirm  bool `json:"has_volume_confirm"`
	HasSessionAlign   bool `json:"has_session_align"`
	HasPullbackEntry  bool `json:"has_pullback_entry"`
	HasStrongMomentum bool `json:"has_strong_momentum"`
	HasKeyLevel       bool `json:"has_key_level"`
	HasH1Confirm      bool `json:"has_h1_confirm"`
	HasEMAAlign       bool `json:"has_ema_align"`
	HasBBSignal       bool `json:"has_bb_signal"`
	HasRegimeAlign    bool `json:"has_regime_align"`
	HasPatternConfirm bool `json:"has_pattern_confirm"`
}

type RiskMetricsPayload struct {
	CurrentDrawdownPct *float64 `json:"current_drawdown_pct,omitempty"`
	SymbolWinRate      *float64 `json:"symbol_win_rate,omitempty"`
}

type AnalysisPayload struct {
	Indicators *IndicatorsPayload  `json:"indicators,omitempty"`
	Regime     string              `json:"regime,omitempty"`
	Session    string              `json:"session,omitempty"`
	Confluence *ConfluencePayload  `json:"confluence,omitempty"`
	Risk       *RiskMetricsPayload `json:"risk,omitempty"`
}

type ScoreRequest struct {
	Symbol     string           `json:"symbol" validate:"required"`
	Type       string           `json:"type" validate:"required,oneof=BUY SELL HOLD"`
	Confidence float64          `json:"confidence" validate:"gte=0,lte=100"`
	EntryPrice *float64         `json:"entry_price,omitempty"`
	StopLoss   *float64         `json:"stop_loss,omitempty"`
	TakeProfit *float64         `json:"take_profit,omitempty"`
	Analysis   *AnalysisPayload `json:"analysis,omitempty"`
	// Persist defaults to true when omitted; a pointer keeps an
	// explicit false from being overwritten by the defaulter.
	Persist *bool `json:"persist,omitempty"`
}

// ShouldPersist reports whether the scored result should be stored.
func (r ScoreRequest) ShouldPersist() bool {
	return r.Persist == nil || *r.Persist
}

type TrainRequest struct {
	Symbol    string `json:"symbol,omitempty"`
	Session   string `json:"session,omitempty" validate:"omitempty,oneof=ASIAN LONDON NY OVERLAP"`
	Regime    string `json:"regime,omitempty" validate:"omitempty,oneof=TREND RANGE UNCERTAIN"`
	Algorithm string `json:"algorithm" default:"gradient_descent" validate:"oneof=gradient_descent random_search"`
	Force     bool   `json:"force"` // bypass the cadence gate
}

type WeightsRequest struct {
	Symbol  string `query:"symbol" json:"symbol,omitempty"`
	Session string `query:"session" json:"session,omitempty" validate:"omitempty,oneof=ASIAN LONDON NY OVERLAP"`
	Regime  string `query:"regime" json:"regime,omitempty" validate:"omitempty,oneof=TREND RANGE UNCERTAIN"`
}

type PollRequest struct {
	Symbol string `query:"symbol" json:"symbol,omitempty"`
	Since  int64  `query:"since" json:"since,omitempty"` // unix seconds
	Limit  int    `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=500"`
}

type OutcomeReport struct {
	SignalID   string  `json:"signal_id" validate:"required"`
	Symbol     string  `json:"symbol" validate:"required"`
	Outcome    string  `json:"outcome" validate:"required,oneof=TP_HIT SL_HIT"`
	ExitPrice  float64 `json:"exit_price" validate:"gt=0"`
	PnLPercent float64 `json:"pnl_percent"`
}

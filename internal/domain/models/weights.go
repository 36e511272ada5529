package models

import "time"

// ContextKey scopes a weight vector to (symbol, session, regime).
// Empty fields are wildcards; the zero value is the global default.
type ContextKey struct {
	Symbol  string         `json:"symbol"`
	Session TradingSession `json:"session"`
	Regime  MarketRegime   `json:"regime"`
}

// IsGlobal reports whether the key is the global fallback.
func (k ContextKey) IsGlobal() bool {
	return k.Symbol == "" && k.Session == "" && k.Regime == ""
}

// String renders the key for cache keys and log lines.
func (k ContextKey) String() string {
	if k.IsGlobal() {
		return "global"
	}
	return k.Symbol + "/" + string(k.Session) + "/" + string(k.Regime)
}

// ComponentWeights are the ten learned confluence weights, each bounded
// to [0,30]. They are mutated only by the optimizer.
type ComponentWeights struct {
	Volume      float64 `json:"weight_volume"`
	Session     float64 `json:"weight_session"`
	Pullback    float64 `json:"weight_pullback"`
	Momentum    float64 `json:"weight_momentum"`
	KeyLevel    float64 `json:"weight_key_level"`
	H1Confirm   float64 `json:"weight_h1_confirm"`
	EMAAlign    float64 `json:"weight_ema_align"`
	BBSignal    float64 `json:"weight_bb_signal"`
	RegimeAlign float64 `json:"weight_regime_align"`
	Pattern     float64 `json:"weight_pattern"`
}

// Slice returns the weights in canonical order, matching ConfluenceFlags.
func (w ComponentWeights) Slice() [10]float64 {
	return [10]float64{
		w.Volume, w.Session, w.Pullback, w.Momentum, w.KeyLevel,
		w.H1Confirm, w.EMAAlign, w.BBSignal, w.RegimeAlign, w.Pattern,
	}
}

// FromSlice builds ComponentWeights from the canonical order.
func FromSlice(s [10]float64) ComponentWeights {
	return ComponentWeights{
		Volume: s[0], Session: s[1], Pullback: s[2], Momentum: s[3], KeyLevel: s[4],
		H1Confirm: s[5], EMAAlign: s[6], BBSignal: s[7], RegimeAlign: s[8], Pattern: s[9],
	}
}

// FlagSlice returns the flags in the same canonical order as Slice.
func (f ConfluenceFlags) FlagSlice() [10]bool {
	return [10]bool{
		f.VolumeConfirm, f.SessionAlign, f.PullbackEntry, f.StrongMomentum, f.KeyLevel,
		f.H1Confirm, f.EMAAlign, f.BBSignal, f.RegimeAlign, f.PatternConfirm,
	}
}

// WeightVector is a persisted weight row: the learned weights for one
// context plus training metadata. Rows are upserted in place, never deleted.
type WeightVector struct {
	Key             ContextKey       `json:"context"`
	Weights         ComponentWeights `json:"weights"`
	TotalSignals    int              `json:"total_signals"`
	WinningSignals  int              `json:"winning_signals"`
	WinRate         float64          `json:"win_rate"`
	LastTraining    time.Time        `json:"last_training"`
	TrainingSamples int              `json:"training_samples"`
	ModelVersion    string           `json:"model_version"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// OutcomeStatus records how a closed trade ended.
type OutcomeStatus string

const (
	OutcomeTPHit OutcomeStatus = "TP_HIT"
	OutcomeSLHit OutcomeStatus = "SL_HIT"
)

// OutcomeEvaluation is the labeler verdict against the latest close price.
type OutcomeEvaluation struct {
	ShouldClose bool
	Win         bool
	Pips        float64
	ExitPrice   float64
	Result      OutcomeStatus
}

// LabeledSignal is one immutable training example: the confluence flags a
// signal carried plus its realized outcome.
type LabeledSignal struct {
	SignalID   string
	Symbol     string
	Type       Direction
	Session    TradingSession
	Regime     MarketRegime
	Flags      ConfluenceFlags
	Outcome    OutcomeStatus
	PnLPercent float64
	Pips       float64
	ClosedAt   time.Time
}

// Win reports whether the outcome was a take-profit hit.
func (l LabeledSignal) Win() bool { return l.Outcome == OutcomeTPHit }

// TrainingLogEntry is one append-only audit record of an optimization run.
type TrainingLogEntry struct {
	TrainingType    string
	Context         ContextKey
	SamplesUsed     int
	Algorithm       string
	WinRateBefore   float64
	WinRateAfter    float64
	Weights         ComponentWeights
	BuyCount        int
	BuyWinRate      float64
	SellCount       int
	SellWinRate     float64
	DurationSeconds float64
	ModelVersion    string
	CreatedAt       time.Time
}

// Tick is one streamed price update used by the outcome monitor.
type Tick struct {
	Symbol    string
	Timestamp int64 // unix seconds
	Price     float64
}

// ClosedTrade is the event emitted when the monitor closes a signal.
type ClosedTrade struct {
	SignalID   string        `json:"signal_id"`
	Symbol     string        `json:"symbol"`
	Outcome    OutcomeStatus `json:"outcome"`
	ExitPrice  float64       `json:"exit_price"`
	Pips       float64       `json:"pips"`
	PnLPercent float64       `json:"pnl_percent"`
	ClosedAt   int64         `json:"closed_at"`
}

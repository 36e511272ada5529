package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"PipForge/internal/domain/models"
	"PipForge/internal/domain/repository"
)

// ClickHouseSignalStore implements SignalStore on ClickHouse.
// Scored signals live in a ReplacingMergeTree keyed by signal_id so
// closing a trade is an upsert rather than a mutation; labeled outcomes
// are append-only.
type ClickHouseSignalStore struct {
	db           *sql.DB
	signalsTable string
	labeledTable string
}

// NewClickHouseSignalStore creates the ClickHouse-backed signal store.
func NewClickHouseSignalStore(db *sql.DB, signalsTable, labeledTable string) repository.SignalStore {
	return &ClickHouseSignalStore{db: db, signalsTable: signalsTable, labeledTable: labeledTable}
}

const signalColumns = `signal_id, symbol, type, confidence, entry_price, stop_loss, take_profit,
session, regime, total_weight, comp_ml, comp_technical, comp_market, comp_mtf, comp_risk,
recommendation, size_multiplier,
flag_volume, flag_session, flag_pullback, flag_momentum, flag_key_level,
flag_h1_confirm, flag_ema_align, flag_bb_signal, flag_regime_align, flag_pattern,
model_version, status, exit_price, pips, scored_at, closed_at, updated_at`

func (s *ClickHouseSignalStore) InsertScored(ctx context.Context, sig *models.ScoredSignal) error {
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		s.signalsTable, signalColumns)
	flags := flagRow(sig.Confluence)
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, q,
		sig.ID, sig.Symbol, string(sig.Type), sig.Confidence,
		sig.EntryPrice, sig.StopLoss, sig.TakeProfit,
		string(sig.Session), string(sig.Regime),
		sig.Weight.TotalWeight,
		sig.Weight.Components.MLConfidence, sig.Weight.Components.TechnicalQuality,
		sig.Weight.Components.MarketConditions, sig.Weight.Components.MTFConfirmation,
		sig.Weight.Components.RiskFactors,
		string(sig.Weight.Recommendation), sig.Weight.PositionSizeMultiplier,
		flags[0], flags[1], flags[2], flags[3], flags[4],
		flags[5], flags[6], flags[7], flags[8], flags[9],
		sig.ModelVersion, "OPEN", 0.0, 0.0, sig.ScoredAt, time.Time{}, now,
	)
	if err != nil {
		return fmt.Errorf("insert scored signal: %w", err)
	}
	return nil
}

func (s *ClickHouseSignalStore) ListSince(ctx context.Context, symbol string, since time.Time, limit int) ([]*models.ScoredSignal, error) {
	q := fmt.Sprintf("SELECT %s FROM %s FINAL WHERE scored_at > ?", signalColumns, s.signalsTable)
	args := []interface{}{since}
	if symbol != "" {
		q += " AND symbol = ?"
		args = append(args, symbol)
	}
	q += " ORDER BY scored_at DESC LIMIT ?"
	args = append(args, limit)
	return s.querySignals(ctx, q, args...)
}

func (s *ClickHouseSignalStore) OpenSignals(ctx context.Context, symbol string) ([]*models.ScoredSignal, error) {
	q := fmt.Sprintf("SELECT %s FROM %s FINAL WHERE status = 'OPEN' AND symbol = ? ORDER BY scored_at ASC", signalColumns, s.signalsTable)
	return s.querySignals(ctx, q, symbol)
}

func (s *ClickHouseSignalStore) GetScored(ctx context.Context, signalID string) (*models.ScoredSignal, error) {
	q := fmt.Sprintf("SELECT %s FROM %s FINAL WHERE signal_id = ? LIMIT 1", signalColumns, s.signalsTable)
	sigs, err := s.querySignals(ctx, q, signalID)
	if err != nil {
		return nil, err
	}
	if len(sigs) == 0 {
		return nil, nil
	}
	return sigs[0], nil
}

// MarkClosed upserts the closed row; ReplacingMergeTree keeps the one
// with the newest updated_at.
func (s *ClickHouseSignalStore) MarkClosed(ctx context.Context, signalID string, eval models.OutcomeEvaluation) error {
	sig, err := s.GetScored(ctx, signalID)
	if err != nil {
		return err
	}
	if sig == nil {
		return fmt.Errorf("mark closed: signal %s not found", signalID)
	}
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		s.signalsTable, signalColumns)
	flags := flagRow(sig.Confluence)
	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, q,
		sig.ID, sig.Symbol, string(sig.Type), sig.Confidence,
		sig.EntryPrice, sig.StopLoss, sig.TakeProfit,
		string(sig.Session), string(sig.Regime),
		sig.Weight.TotalWeight,
		sig.Weight.Components.MLConfidence, sig.Weight.Components.TechnicalQuality,
		sig.Weight.Components.MarketConditions, sig.Weight.Components.MTFConfirmation,
		sig.Weight.Components.RiskFactors,
		string(sig.Weight.Recommendation), sig.Weight.PositionSizeMultiplier,
		flags[0], flags[1], flags[2], flags[3], flags[4],
		flags[5], flags[6], flags[7], flags[8], flags[9],
		sig.ModelVersion, string(eval.Result), eval.ExitPrice, eval.Pips, sig.ScoredAt, now, now,
	)
	if err != nil {
		return fmt.Errorf("mark closed: %w", err)
	}
	return nil
}

func (s *ClickHouseSignalStore) InsertLabeled(ctx context.Context, l *models.LabeledSignal) error {
	q := fmt.Sprintf(`INSERT INTO %s (signal_id, symbol, type, session, regime,
flag_volume, flag_session, flag_pullback, flag_momentum, flag_key_level,
flag_h1_confirm, flag_ema_align, flag_bb_signal, flag_regime_align, flag_pattern,
outcome, pnl_percent, pips, closed_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, s.labeledTable)
	flags := flagRow(&l.Flags)
	_, err := s.db.ExecContext(ctx, q,
		l.SignalID, l.Symbol, string(l.Type), string(l.Session), string(l.Regime),
		flags[0], flags[1], flags[2], flags[3], flags[4],
		flags[5], flags[6], flags[7], flags[8], flags[9],
		string(l.Outcome), l.PnLPercent, l.Pips, l.ClosedAt,
	)
	if err != nil {
		return fmt.Errorf("insert labeled signal: %w", err)
	}
	return nil
}

func (s *ClickHouseSignalStore) LabeledBatch(ctx context.Context, key models.ContextKey, limit int) ([]models.LabeledSignal, error) {
	q := fmt.Sprintf(`SELECT signal_id, symbol, type, session, regime,
flag_volume, flag_session, flag_pullback, flag_momentum, flag_key_level,
flag_h1_confirm, flag_ema_align, flag_bb_signal, flag_regime_align, flag_pattern,
outcome, pnl_percent, pips, closed_at FROM %s`, s.labeledTable)
	where, args := contextWhere(key)
	q += where + " ORDER BY closed_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var batch []models.LabeledSignal
	for rows.Next() {
		var (
			l                                  models.LabeledSignal
			typ, session, regime, outcome      string
			fv                                 [10]uint8
		)
		if err := rows.Scan(&l.SignalID, &l.Symbol, &typ, &session, &regime,
			&fv[0], &fv[1], &fv[2], &fv[3], &fv[4],
			&fv[5], &fv[6], &fv[7], &fv[8], &fv[9],
			&outcome, &l.PnLPercent, &l.Pips, &l.ClosedAt); err != nil {
			return nil, err
		}
		l.Type = models.Direction(typ)
		l.Session = models.TradingSession(session)
		l.Regime = models.MarketRegime(regime)
		l.Outcome = models.OutcomeStatus(outcome)
		l.Flags = flagsFromRow(fv)
		batch = append(batch, l)
	}
	return batch, rows.Err()
}

func (s *ClickHouseSignalStore) CountLabeledSince(ctx context.Context, key models.ContextKey, since time.Time) (int, error) {
	q := fmt.Sprintf("SELECT count() FROM %s", s.labeledTable)
	where, args := contextWhere(key)
	if where == "" {
		where = " WHERE closed_at > ?"
	} else {
		where += " AND closed_at > ?"
	}
	args = append(args, since)

	var n uint64
	if err := s.db.QueryRowContext(ctx, q+where, args...).Scan(&n); err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *ClickHouseSignalStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseSignalStore) querySignals(ctx context.Context, q string, args ...interface{}) ([]*models.ScoredSignal, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sigs []*models.ScoredSignal
	for rows.Next() {
		var (
			sig                                 models.ScoredSignal
			typ, session, regime, rec, status   string
			fv                                  [10]uint8
			exitPrice, pips                     float64
			closedAt, updatedAt                 time.Time
		)
		if err := rows.Scan(&sig.ID, &sig.Symbol, &typ, &sig.Confidence,
			&sig.EntryPrice, &sig.StopLoss, &sig.TakeProfit,
			&session, &regime,
			&sig.Weight.TotalWeight,
			&sig.Weight.Components.MLConfidence, &sig.Weight.Components.TechnicalQuality,
			&sig.Weight.Components.MarketConditions, &sig.Weight.Components.MTFConfirmation,
			&sig.Weight.Components.RiskFactors,
			&rec, &sig.Weight.PositionSizeMultiplier,
			&fv[0], &fv[1], &fv[2], &fv[3], &fv[4],
			&fv[5], &fv[6], &fv[7], &fv[8], &fv[9],
			&sig.ModelVersion, &status, &exitPrice, &pips, &sig.ScoredAt, &closedAt, &updatedAt); err != nil {
			return nil, err
		}
		sig.Type = models.Direction(typ)
		sig.Session = models.TradingSession(session)
		sig.Regime = models.MarketRegime(regime)
		sig.Status = status
		sig.Weight.Recommendation = models.Recommendation(rec)
		flags := flagsFromRow(fv)
		sig.Confluence = &flags
		sigs = append(sigs, &sig)
	}
	return sigs, rows.Err()
}

func contextWhere(key models.ContextKey) (string, []interface{}) {
	var (
		clauses []string
		args    []interface{}
	)
	if key.Symbol != "" {
		clauses = append(clauses, "symbol = ?")
		args = append(args, key.Symbol)
	}
	if key.Session != "" {
		clauses = append(clauses, "session = ?")
		args = append(args, string(key.Session))
	}
	if key.Regime != "" {
		clauses = append(clauses, "regime = ?")
		args = append(args, string(key.Regime))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	where := " WHERE " + clauses[0]
	for _, c := range clauses[1:] {
		where += " AND " + c
	}
	return where, args
}

func flagRow(f *models.ConfluenceFlags) [10]uint8 {
	var row [10]uint8
	if f == nil {
		return row
	}
	for i, b := range f.FlagSlice() {
		if b {
			row[i] = 1
		}
	}
	return row
}

func flagsFromRow(row [10]uint8) models.ConfluenceFlags {
	var bits [10]bool
	for i, v := range row {
		bits[i] = v != 0
	}
	return models.ConfluenceFlags{
		VolumeConfirm: bits[0], SessionAlign: bits[1], PullbackEntry: bits[2],
		StrongMomentum: bits[3], KeyLevel: bits[4], H1Confirm: bits[5],
		EMAAlign: bits[6], BBSignal: bits[7], RegimeAlign: bits[8], PatternConfirm: bits[9],
	}
}

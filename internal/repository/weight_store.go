package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"PipForge/internal/domain/models"
	"PipForge/internal/domain/repository"
)

// ClickHouseWeightStore implements WeightStore on a ReplacingMergeTree
// keyed by (symbol, session, regime). Upserts insert a fresh row; reads
// use FINAL so the newest version wins.
type ClickHouseWeightStore struct {
	db    *sql.DB
	table string
}

// NewClickHouseWeightStore creates the ClickHouse-backed weight store.
func NewClickHouseWeightStore(db *sql.DB, table string) repository.WeightStore {
	return &ClickHouseWeightStore{db: db, table: table}
}

const weightColumns = `symbol, session, regime,
weight_volume, weight_session, weight_pullback, weight_momentum, weight_key_level,
weight_h1_confirm, weight_ema_align, weight_bb_signal, weight_regime_align, weight_pattern,
total_signals, winning_signals, win_rate, last_training, training_samples, model_version, updated_at`

func (s *ClickHouseWeightStore) Get(ctx context.Context, key models.ContextKey) (*models.WeightVector, error) {
	q := fmt.Sprintf("SELECT %s FROM %s FINAL WHERE symbol = ? AND session = ? AND regime = ? LIMIT 1",
		weightColumns, s.table)
	row := s.db.QueryRowContext(ctx, q, key.Symbol, string(key.Session), string(key.Regime))

	v, err := scanWeightVector(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get weights %s: %w", key, err)
	}
	return v, nil
}

func (s *ClickHouseWeightStore) Upsert(ctx context.Context, v *models.WeightVector) error {
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		s.table, weightColumns)
	w := v.Weights
	_, err := s.db.ExecContext(ctx, q,
		v.Key.Symbol, string(v.Key.Session), string(v.Key.Regime),
		w.Volume, w.Session, w.Pullback, w.Momentum, w.KeyLevel,
		w.H1Confirm, w.EMAAlign, w.BBSignal, w.RegimeAlign, w.Pattern,
		v.TotalSignals, v.WinningSignals, v.WinRate,
		v.LastTraining, v.TrainingSamples, v.ModelVersion, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert weights %s: %w", v.Key, err)
	}
	return nil
}

func (s *ClickHouseWeightStore) ListContexts(ctx context.Context) ([]models.ContextKey, error) {
	q := fmt.Sprintf("SELECT DISTINCT symbol, session, regime FROM %s FINAL", s.table)
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []models.ContextKey
	for rows.Next() {
		var symbol, session, regime string
		if err := rows.Scan(&symbol, &session, &regime); err != nil {
			return nil, err
		}
		keys = append(keys, models.ContextKey{
			Symbol:  symbol,
			Session: models.TradingSession(session),
			Regime:  models.MarketRegime(regime),
		})
	}
	return keys, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanWeightVector(row rowScanner) (*models.WeightVector, error) {
	var (
		v               models.WeightVector
		session, regime string
	)
	err := row.Scan(&v.Key.Symbol, &session, &regime,
		&v.Weights.Volume, &v.Weights.Session, &v.Weights.Pullback, &v.Weights.Momentum, &v.Weights.KeyLevel,
		&v.Weights.H1Confirm, &v.Weights.EMAAlign, &v.Weights.BBSignal, &v.Weights.RegimeAlign, &v.Weights.Pattern,
		&v.TotalSignals, &v.WinningSignals, &v.WinRate,
		&v.LastTraining, &v.TrainingSamples, &v.ModelVersion, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	v.Key.Session = models.TradingSession(session)
	v.Key.Regime = models.MarketRegime(regime)
	return &v, nil
}

// ClickHouseTrainingLog implements TrainingLog on an append-only table.
type ClickHouseTrainingLog struct {
	db    *sql.DB
	table string
}

// NewClickHouseTrainingLog creates the ClickHouse-backed training log.
func NewClickHouseTrainingLog(db *sql.DB, table string) repository.TrainingLog {
	return &ClickHouseTrainingLog{db: db, table: table}
}

func (l *ClickHouseTrainingLog) Append(ctx context.Context, e *models.TrainingLogEntry) error {
	q := fmt.Sprintf(`INSERT INTO %s (training_type, symbol, session, regime, samples_used, algorithm,
win_rate_before, win_rate_after,
weight_volume, weight_session, weight_pullback, weight_momentum, weight_key_level,
weight_h1_confirm, weight_ema_align, weight_bb_signal, weight_regime_align, weight_pattern,
buy_count, buy_win_rate, sell_count, sell_win_rate,
duration_seconds, model_version, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, l.table)
	w := e.Weights
	_, err := l.db.ExecContext(ctx, q,
		e.TrainingType, e.Context.Symbol, string(e.Context.Session), string(e.Context.Regime),
		e.SamplesUsed, e.Algorithm,
		e.WinRateBefore, e.WinRateAfter,
		w.Volume, w.Session, w.Pullback, w.Momentum, w.KeyLevel,
		w.H1Confirm, w.EMAAlign, w.BBSignal, w.RegimeAlign, w.Pattern,
		e.BuyCount, e.BuyWinRate, e.SellCount, e.SellWinRate,
		e.DurationSeconds, e.ModelVersion, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append training log: %w", err)
	}
	return nil
}

func (l *ClickHouseTrainingLog) LastRun(ctx context.Context, key models.ContextKey) (time.Time, error) {
	q := fmt.Sprintf("SELECT max(created_at) FROM %s WHERE symbol = ? AND session = ? AND regime = ?", l.table)
	var ts time.Time
	err := l.db.QueryRowContext(ctx, q, key.Symbol, string(key.Session), string(key.Regime)).Scan(&ts)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("last training run %s: %w", key, err)
	}
	return ts, nil
}

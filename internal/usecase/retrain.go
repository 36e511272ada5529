package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"PipForge/internal/domain/models"
	drepo "PipForge/internal/domain/repository"
	dservice "PipForge/internal/domain/service"
	"PipForge/internal/training"
	"PipForge/pkg/cache"
	pkghttp "PipForge/pkg/http"
	"PipForge/pkg/logger"
	"PipForge/pkg/queue"
)

const (
	// Cadence gate: retrain a context only after this many new labeled
	// signals and at least this much wall time since the last run.
	retrainMinNewSamples = 50
	retrainMinInterval   = 6 * time.Hour

	trainingBatchLimit = 1000
	webhookTimeout     = 5 * time.Second
)

// TrainingCompletedMessage is the queue message type carrying a
// TrainResult from the retrainer to the webhook dispatcher.
const TrainingCompletedMessage = "training.completed"

// ErrRetrainNotDue is returned when the cadence gate rejects a run.
var ErrRetrainNotDue = errors.New("retraining not due for context")

// TrainResult summarizes one completed optimization run.
type TrainResult struct {
	Context       models.ContextKey       `json:"context"`
	Algorithm     string                  `json:"algorithm"`
	SamplesUsed   int                     `json:"samples_used"`
	Iterations    int                     `json:"iterations"`
	Loss          float64                 `json:"loss"`
	WinRateBefore float64                 `json:"win_rate_before"`
	WinRateAfter  float64                 `json:"win_rate_after"`
	Weights       models.ComponentWeights `json:"weights"`
	ModelVersion  string                  `json:"model_version"`
}

// Retrainer runs weight optimization over labeled outcomes and persists
// the improved vectors.
type Retrainer struct {
	store      drepo.SignalStore
	weights    drepo.WeightStore
	trainLog   drepo.TrainingLog
	optimizer  dservice.Optimizer
	cache      cache.Service
	metrics    drepo.Metrics
	log        *logger.Logger
	webhook    *pkghttp.Client
	webhookURL string
	notifier   queue.QueueService
}

// NewRetrainer creates the retraining usecase. webhookURL may be empty.
func NewRetrainer(
	store drepo.SignalStore,
	weights drepo.WeightStore,
	trainLog drepo.TrainingLog,
	optimizer dservice.Optimizer,
	c cache.Service,
	metrics drepo.Metrics,
	log *logger.Logger,
	webhookURL string,
) *Retrainer {
	return &Retrainer{
		store:      store,
		weights:    weights,
		trainLog:   trainLog,
		optimizer:  optimizer,
		cache:      c,
		metrics:    metrics,
		log:        log,
		webhook:    pkghttp.NewClient(pkghttp.WithTimeout(webhookTimeout)),
		webhookURL: webhookURL,
	}
}

// SetNotifier routes webhook notifications through a durable queue
// instead of posting inline. The queue's webhook job does the delivery.
func (r *Retrainer) SetNotifier(q queue.QueueService) { r.notifier = q }

// Train optimizes the weight vector for one context. Unless force is
// set, the cadence gate requires enough fresh labels and elapsed time.
func (r *Retrainer) Train(ctx context.Context, key models.ContextKey, algorithm string, force bool) (*TrainResult, error) {
	start := time.Now()

	lastRun, err := r.trainLog.LastRun(ctx, key)
	if err != nil {
		r.log.Warn("last training run lookup failed",
			logger.String("context", key.String()),
			logger.Error(err),
		)
	}
	if !force {
		if due, reason := r.due(ctx, key, lastRun); !due {
			r.log.Debug("retraining skipped",
				logger.String("context", key.String()),
				logger.String("reason", reason),
			)
			return nil, ErrRetrainNotDue
		}
	}

	batch, err := r.store.LabeledBatch(ctx, key, trainingBatchLimit)
	if err != nil {
		r.metrics.RecordError("train_batch")
		return nil, fmt.Errorf("load training batch: %w", err)
	}

	current, err := r.weights.Get(ctx, key)
	if err != nil {
		r.metrics.RecordError("train_weights_load")
		return nil, fmt.Errorf("load current weights: %w", err)
	}
	initial := training.DefaultWeights()
	if current != nil {
		initial = current.Weights
	}

	res, err := r.optimizer.Optimize(batch, initial, algorithm)
	if err != nil {
		var insufficient *training.ErrInsufficientData
		if errors.As(err, &insufficient) {
			r.log.Info("retraining deferred",
				logger.String("context", key.String()),
				logger.Int("samples", insufficient.Got),
			)
		}
		return nil, err
	}

	now := time.Now().UTC()
	version := "v" + now.Format("20060102T150405")
	stats := batchStats(batch)

	vector := &models.WeightVector{
		Key:             key,
		Weights:         res.Weights,
		TotalSignals:    stats.total,
		WinningSignals:  stats.wins,
		WinRate:         stats.winRate,
		LastTraining:    now,
		TrainingSamples: len(batch),
		ModelVersion:    version,
	}
	if err := r.weights.Upsert(ctx, vector); err != nil {
		r.metrics.RecordError("train_upsert")
		return nil, fmt.Errorf("upsert weights: %w", err)
	}

	winRateBefore := survivorWinRate(initial, batch)
	winRateAfter := survivorWinRate(res.Weights, batch)

	entry := &models.TrainingLogEntry{
		TrainingType:    trainingType(force),
		Context:         key,
		SamplesUsed:     len(batch),
		Algorithm:       algorithm,
		WinRateBefore:   winRateBefore,
		WinRateAfter:    winRateAfter,
		Weights:         res.Weights,
		BuyCount:        stats.buyCount,
		BuyWinRate:      stats.buyWinRate,
		SellCount:       stats.sellCount,
		SellWinRate:     stats.sellWinRate,
		DurationSeconds: time.Since(start).Seconds(),
		ModelVersion:    version,
		CreatedAt:       now,
	}
	if err := r.trainLog.Append(ctx, entry); err != nil {
		r.log.Error("training log append failed",
			logger.String("context", key.String()),
			logger.Error(err),
		)
	}

	if r.cache != nil {
		if err := r.cache.DeleteByPattern(ctx, "weights:*"); err != nil {
			r.log.Warn("weights cache invalidation failed", logger.Error(err))
		}
	}

	r.metrics.RecordTrainingRun(algorithm)
	r.metrics.RecordWinRate(key.String(), winRateAfter)
	r.metrics.RecordLatency("train", time.Since(start).Seconds())

	result := &TrainResult{
		Context:       key,
		Algorithm:     algorithm,
		SamplesUsed:   len(batch),
		Iterations:    res.Iterations,
		Loss:          res.Loss,
		WinRateBefore: winRateBefore,
		WinRateAfter:  winRateAfter,
		Weights:       res.Weights,
		ModelVersion:  version,
	}
	r.log.Info("retraining completed",
		logger.String("context", key.String()),
		logger.String("algorithm", algorithm),
		logger.Int("samples", len(batch)),
		logger.Any("win_rate_before", winRateBefore),
		logger.Any("win_rate_after", winRateAfter),
		logger.String("model_version", version),
	)

	r.notify(ctx, result)
	return result, nil
}

// TrainAll sweeps every known context plus the global fallback. Gate
// rejections and thin batches are expected; only real failures count.
func (r *Retrainer) TrainAll(ctx context.Context, algorithm string) {
	keys, err := r.weights.ListContexts(ctx)
	if err != nil {
		r.metrics.RecordError("train_sweep_contexts")
		r.log.Error("context list failed", logger.Error(err))
		keys = nil
	}
	keys = append(keys, models.ContextKey{})

	seen := make(map[string]bool, len(keys))
	for _, key := range keys {
		if seen[key.String()] {
			continue
		}
		seen[key.String()] = true

		_, err := r.Train(ctx, key, algorithm, false)
		switch {
		case err == nil:
		case errors.Is(err, ErrRetrainNotDue):
		default:
			var insufficient *training.ErrInsufficientData
			if !errors.As(err, &insufficient) {
				r.metrics.RecordError("train_sweep")
				r.log.Error("sweep training failed",
					logger.String("context", key.String()),
					logger.Error(err),
				)
			}
		}
	}
}

func (r *Retrainer) due(ctx context.Context, key models.ContextKey, lastRun time.Time) (bool, string) {
	if !lastRun.IsZero() && time.Since(lastRun) < retrainMinInterval {
		return false, "interval not elapsed"
	}
	fresh, err := r.store.CountLabeledSince(ctx, key, lastRun)
	if err != nil {
		r.metrics.RecordError("train_gate_count")
		return false, "label count unavailable"
	}
	if fresh < retrainMinNewSamples {
		return false, fmt.Sprintf("only %d new labels", fresh)
	}
	return true, ""
}

func (r *Retrainer) notify(ctx context.Context, result *TrainResult) {
	if r.webhookURL == "" {
		return
	}
	if r.notifier != nil {
		err := r.notifier.PublishMessage(ctx, TrainingCompletedMessage, result)
		if err == nil {
			return
		}
		r.log.Warn("webhook enqueue failed, posting inline", logger.Error(err))
	}
	nctx, cancel := context.WithTimeout(ctx, webhookTimeout)
	defer cancel()
	err := r.webhook.SendAndParse(nctx, &pkghttp.RequestOptions{
		Method: pkghttp.MethodPost,
		URL:    r.webhookURL,
		Body:   result,
	}, nil)
	if err != nil {
		r.metrics.RecordError("train_webhook")
		r.log.Warn("training webhook failed", logger.Error(err))
	}
}

func trainingType(force bool) string {
	if force {
		return "manual"
	}
	return "scheduled"
}

type directionStats struct {
	total, wins             int
	winRate                 float64
	buyCount, sellCount     int
	buyWinRate, sellWinRate float64
}

func batchStats(batch []models.LabeledSignal) directionStats {
	var s directionStats
	var buyWins, sellWins int
	for _, l := range batch {
		s.total++
		win := l.Win()
		if win {
			s.wins++
		}
		switch l.Type {
		case models.DirectionSell:
			s.sellCount++
			if win {
				sellWins++
			}
		default:
			s.buyCount++
			if win {
				buyWins++
			}
		}
	}
	if s.total > 0 {
		s.winRate = float64(s.wins) / float64(s.total)
	}
	if s.buyCount > 0 {
		s.buyWinRate = float64(buyWins) / float64(s.buyCount)
	}
	if s.sellCount > 0 {
		s.sellWinRate = float64(sellWins) / float64(s.sellCount)
	}
	return s
}

// survivorWinRate is the win rate over signals whose recomputed
// confidence clears the training cutoff under the given weights.
func survivorWinRate(w models.ComponentWeights, batch []models.LabeledSignal) float64 {
	var total, wins int
	for _, l := range batch {
		if training.ComputeConfidence(w, l.Flags) < training.ConfidenceCutoff {
			continue
		}
		total++
		if l.Win() {
			wins++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(wins) / float64(total)
}

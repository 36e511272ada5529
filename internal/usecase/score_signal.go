package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"PipForge/internal/domain/models"
	drepo "PipForge/internal/domain/repository"
	dservice "PipForge/internal/domain/service"
	"PipForge/internal/scoring"
	"PipForge/internal/training"
	"PipForge/pkg/cache"
	"PipForge/pkg/logger"

	"github.com/google/uuid"
)

const (
	weightCacheTTL    = 5 * time.Minute
	weightCachePrefix = "weights:"
)

// SignalScorer is the scoring request path: resolve context weights,
// recompute confidence from confluence flags, run the scorer, persist.
type SignalScorer struct {
	scorer  dservice.Scorer
	weights drepo.WeightStore
	store   drepo.SignalStore
	cache   cache.Service
	metrics drepo.Metrics
	log     *logger.Logger
}

// NewSignalScorer creates the scoring usecase.
func NewSignalScorer(
	scorer dservice.Scorer,
	weights drepo.WeightStore,
	store drepo.SignalStore,
	c cache.Service,
	metrics drepo.Metrics,
	log *logger.Logger,
) *SignalScorer {
	return &SignalScorer{
		scorer:  scorer,
		weights: weights,
		store:   store,
		cache:   c,
		metrics: metrics,
		log:     log,
	}
}

// Score scores one request and optionally persists the result.
func (s *SignalScorer) Score(ctx context.Context, req models.ScoreRequest) (*models.ScoredSignal, error) {
	start := time.Now()
	sig := scoring.FromRequest(req, time.Now().UTC())
	sig.ID = uuid.NewString()
	if sig.Confluence == nil {
		sig.Confluence = scoring.DeriveConfluence(sig)
	}

	vector := s.ResolveWeights(ctx, models.ContextKey{
		Symbol:  sig.Symbol,
		Session: sig.Session,
		Regime:  sig.Regime,
	})

	// Learned weights only matter when the signal carries confluence
	// flags; a recompute that lands below the cutoff keeps the model's
	// own confidence.
	if sig.Confluence != nil {
		recomputed := training.ComputeConfidence(vector.Weights, *sig.Confluence)
		if recomputed >= training.ConfidenceCutoff {
			sig.Confidence = recomputed
		}
	}

	scored := &models.ScoredSignal{
		Signal:       sig,
		Weight:       s.scorer.Score(sig),
		ModelVersion: vector.ModelVersion,
		ScoredAt:     time.Now().UTC(),
	}

	if req.ShouldPersist() {
		if err := s.store.InsertScored(ctx, scored); err != nil {
			s.metrics.RecordError("score_persist")
			return nil, fmt.Errorf("persist scored signal: %w", err)
		}
	}

	s.metrics.RecordSignalScored(sig.Symbol, string(scored.Weight.Recommendation))
	s.metrics.RecordLatency("score", time.Since(start).Seconds())
	s.log.Debug("signal scored",
		logger.String("signal_id", sig.ID),
		logger.String("symbol", sig.Symbol),
		logger.Any("total_weight", scored.Weight.TotalWeight),
		logger.String("recommendation", string(scored.Weight.Recommendation)),
	)
	return scored, nil
}

// ResolveWeights walks exact context, symbol-only, then global, and
// falls back to the hand-picked defaults when nothing is stored yet.
func (s *SignalScorer) ResolveWeights(ctx context.Context, key models.ContextKey) *models.WeightVector {
	for _, k := range []models.ContextKey{
		key,
		{Symbol: key.Symbol},
		{},
	} {
		if v := s.lookupWeights(ctx, k); v != nil {
			return v
		}
		if k.IsGlobal() {
			break
		}
	}
	return &models.WeightVector{
		Weights:      training.DefaultWeights(),
		ModelVersion: "default",
	}
}

func (s *SignalScorer) lookupWeights(ctx context.Context, key models.ContextKey) *models.WeightVector {
	cacheKey := weightCachePrefix + key.String()
	if s.cache != nil {
		var cached models.WeightVector
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached
		}
	}

	v, err := s.weights.Get(ctx, key)
	if err != nil {
		s.metrics.RecordError("weights_lookup")
		s.log.Warn("weights lookup failed",
			logger.String("context", key.String()),
			logger.Error(err),
		)
		return nil
	}
	if v == nil {
		return nil
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, v, weightCacheTTL); err != nil {
			s.log.Debug("weights cache set failed", logger.Error(err))
		}
	}
	return v
}

// Poll returns recently scored signals for the trading client.
func (s *SignalScorer) Poll(ctx context.Context, req models.PollRequest) ([]*models.ScoredSignal, error) {
	since := time.Time{}
	if req.Since > 0 {
		since = time.Unix(req.Since, 0).UTC()
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	sigs, err := s.store.ListSince(ctx, symbol, since, limit)
	if err != nil {
		s.metrics.RecordError("poll")
		return nil, fmt.Errorf("poll signals: %w", err)
	}
	return sigs, nil
}

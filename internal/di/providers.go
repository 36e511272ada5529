package di

import (
	"context"
	"fmt"
	"time"

	"PipForge/internal/domain/repository"
	dservice "PipForge/internal/domain/service"
	"PipForge/internal/handler/api"
	mid "PipForge/internal/middleware"
	internalrepo "PipForge/internal/repository"
	"PipForge/internal/scheduler"
	"PipForge/internal/scoring"
	icache "PipForge/internal/service/cache"
	"PipForge/internal/service/pricefeed"
	"PipForge/internal/training"
	"PipForge/internal/usecase"
	"PipForge/pkg/cache"
	pkgch "PipForge/pkg/clickhouse"
	"PipForge/pkg/config"
	xhttp "PipForge/pkg/http"
	pkgkafka "PipForge/pkg/kafka"
	"PipForge/pkg/logger"
	"PipForge/pkg/metrics"
	"PipForge/pkg/queue"
	"PipForge/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	lvl := "info"
	format := "json"
	if cfg.Environment == "development" {
		lvl = "debug"
		format = "console"
	}
	return logger.New(&logger.Config{Level: lvl, Format: format, Output: "stdout"})
}

// ProvideClickHouseClient creates a ClickHouse client and prepares the schema.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db := cfg.ClickHouse.Database
	t := cfg.ClickHouse.Tables
	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS " + db,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
			signal_id String, symbol String, type String, confidence Float64,
			entry_price Float64, stop_loss Float64, take_profit Float64,
			session String, regime String,
			total_weight Float64, comp_ml Float64, comp_technical Float64,
			comp_market Float64, comp_mtf Float64, comp_risk Float64,
			recommendation String, size_multiplier Float64,
			flag_volume UInt8, flag_session UInt8, flag_pullback UInt8, flag_momentum UInt8,
			flag_key_level UInt8, flag_h1_confirm UInt8, flag_ema_align UInt8,
			flag_bb_signal UInt8, flag_regime_align UInt8, flag_pattern UInt8,
			model_version String, status String, exit_price Float64, pips Float64,
			scored_at DateTime64(3), closed_at DateTime64(3), updated_at DateTime64(3)
		) ENGINE = ReplacingMergeTree(updated_at) ORDER BY signal_id`, db, t.Signals),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
			signal_id String, symbol String, type String, session String, regime String,
			flag_volume UInt8, flag_session UInt8, flag_pullback UInt8, flag_momentum UInt8,
			flag_key_level UInt8, flag_h1_confirm UInt8, flag_ema_align UInt8,
			flag_bb_signal UInt8, flag_regime_align UInt8, flag_pattern UInt8,
			outcome String, pnl_percent Float64, pips Float64, closed_at DateTime64(3)
		) ENGINE = MergeTree ORDER BY (symbol, closed_at)`, db, t.Labeled),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
			symbol String, session String, regime String,
			weight_volume Float64, weight_session Float64, weight_pullback Float64,
			weight_momentum Float64, weight_key_level Float64, weight_h1_confirm Float64,
			weight_ema_align Float64, weight_bb_signal Float64, weight_regime_align Float64,
			weight_pattern Float64,
			total_signals UInt64, winning_signals UInt64, win_rate Float64,
			last_training DateTime64(3), training_samples UInt64,
			model_version String, updated_at DateTime64(3)
		) ENGINE = ReplacingMergeTree(updated_at) ORDER BY (symbol, session, regime)`, db, t.Weights),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
			training_type String, symbol String, session String, regime String,
			samples_used UInt64, algorithm String,
			win_rate_before Float64, win_rate_after Float64,
			weight_volume Float64, weight_session Float64, weight_pullback Float64,
			weight_momentum Float64, weight_key_level Float64, weight_h1_confirm Float64,
			weight_ema_align Float64, weight_bb_signal Float64, weight_regime_align Float64,
			weight_pattern Float64,
			buy_count UInt64, buy_win_rate Float64, sell_count UInt64, sell_win_rate Float64,
			duration_seconds Float64, model_version String, created_at DateTime64(3)
		) ENGINE = MergeTree ORDER BY created_at`, db, t.TrainingLog),
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideCache selects Redis when enabled, in-memory otherwise.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	if !cfg.Redis.Enabled {
		return cache.NewMemoryCache(), nil
	}
	c, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Redis.Host),
		cache.WithRedisPort(cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPrefix("pipforge"),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return c, nil
}

// ProvideSignalStore creates the ClickHouse signal store.
func ProvideSignalStore(chClient *pkgch.Client, cfg *config.Config) repository.SignalStore {
	db := cfg.ClickHouse.Database
	return internalrepo.NewClickHouseSignalStore(chClient.DB(),
		db+"."+cfg.ClickHouse.Tables.Signals,
		db+"."+cfg.ClickHouse.Tables.Labeled,
	)
}

// ProvideWeightStore creates the ClickHouse weight store.
func ProvideWeightStore(chClient *pkgch.Client, cfg *config.Config) repository.WeightStore {
	return internalrepo.NewClickHouseWeightStore(chClient.DB(),
		cfg.ClickHouse.Database+"."+cfg.ClickHouse.Tables.Weights)
}

// ProvideTrainingLog creates the ClickHouse training log.
func ProvideTrainingLog(chClient *pkgch.Client, cfg *config.Config) repository.TrainingLog {
	return internalrepo.NewClickHouseTrainingLog(chClient.DB(),
		cfg.ClickHouse.Database+"."+cfg.ClickHouse.Tables.TrainingLog)
}

// ProvideOutcomePublisher creates the Kafka outcome publisher.
func ProvideOutcomePublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.OutcomePublisher {
	return internalrepo.NewKafkaOutcomePublisher(producer, cfg.Kafka.OutcomesTopic)
}

// ProvideTickStream creates the price-feed WebSocket stream.
func ProvideTickStream(cfg *config.Config) repository.TickStream {
	return pricefeed.New(
		cfg.PriceFeed.APIKey,
		cfg.PriceFeed.WebSocketURL,
		cfg.PriceFeed.Symbols,
		cfg.PriceFeed.ReconnectDelay,
		cfg.PriceFeed.PingInterval,
	)
}

// ProvideScorer creates the weight scoring engine.
func ProvideScorer() dservice.Scorer {
	return scoring.NewEngine()
}

// ProvideOptimizer creates the weight optimizer.
func ProvideOptimizer() dservice.Optimizer {
	return training.NewOptimizer()
}

// ProvideSignalScorer creates the scoring use case.
func ProvideSignalScorer(
	scorer dservice.Scorer,
	weights repository.WeightStore,
	store repository.SignalStore,
	c cache.Service,
	m repository.Metrics,
	log *logger.Logger,
) *usecase.SignalScorer {
	return usecase.NewSignalScorer(scorer, weights, store, c, m, log)
}

// ProvideOutcomeRecorder creates the outcome labeling use case.
func ProvideOutcomeRecorder(store repository.SignalStore, m repository.Metrics, log *logger.Logger) *usecase.OutcomeRecorder {
	return usecase.NewOutcomeRecorder(store, m, log)
}

// ProvideOutcomeMonitor creates the tick-driven outcome monitor.
func ProvideOutcomeMonitor(
	store repository.SignalStore,
	pub repository.OutcomePublisher,
	recorder *usecase.OutcomeRecorder,
	m repository.Metrics,
	log *logger.Logger,
	cfg *config.Config,
) *usecase.OutcomeMonitor {
	return usecase.NewOutcomeMonitor(store, pub, recorder, m, log, cfg.Backend.Type)
}

// ProvideOutcomesHandler registers the handler for the closed-trades topic.
func ProvideOutcomesHandler(recorder *usecase.OutcomeRecorder, m repository.Metrics, cfg *config.Config) *usecase.OutcomesHandler {
	return usecase.NewOutcomesHandler(cfg.Kafka.OutcomesTopic, recorder, m)
}

// ProvideTickCollector creates the tick collector use case.
func ProvideTickCollector(
	stream repository.TickStream,
	monitor *usecase.OutcomeMonitor,
	m repository.Metrics,
) *usecase.TickCollector {
	// Middleware pipeline between WebSocket and the outcome monitor
	pipe := mid.NewTickPipeline(monitor, m,
		mid.WithMaxRPS(50),
		mid.WithBufferSize(2000),
	)
	return usecase.NewTickCollector(stream, monitor, m, pipe)
}

// ProvideTrainingQueue creates the Redis-backed webhook delivery queue.
// Returns nil when Redis is disabled or no webhook is configured; the
// retrainer then posts inline.
func ProvideTrainingQueue(cfg *config.Config, c cache.Service, log *logger.Logger) *queue.RedisQueue {
	if !cfg.Redis.Enabled || cfg.Training.WebhookURL == "" {
		return nil
	}
	rc, ok := c.(*cache.RedisCache)
	if !ok {
		return nil
	}
	q := queue.NewRedisQueue(log, &queue.QueueConfig{
		Workers:    1,
		RetryLimit: 3,
		RetryDelay: 30 * time.Second,
	}, rc.Client(), queue.ModeProducerConsumer)
	q.RegisterJob(usecase.NewWebhookJob(cfg.Training.WebhookURL, log))
	return q
}

// ProvideRetrainer creates the retraining use case.
func ProvideRetrainer(
	store repository.SignalStore,
	weights repository.WeightStore,
	trainLog repository.TrainingLog,
	optimizer dservice.Optimizer,
	c cache.Service,
	q *queue.RedisQueue,
	m repository.Metrics,
	log *logger.Logger,
	cfg *config.Config,
) *usecase.Retrainer {
	r := usecase.NewRetrainer(store, weights, trainLog, optimizer, c, m, log, cfg.Training.WebhookURL)
	if q != nil {
		r.SetNotifier(q)
	}
	return r
}

// ProvideScheduler creates the retraining scheduler with its cron entry.
func ProvideScheduler(retrainer *usecase.Retrainer, log *logger.Logger, cfg *config.Config) (*scheduler.Scheduler, error) {
	s := scheduler.New(context.Background(), retrainer, cfg.Training.Algorithm, log)
	if err := s.Register(cfg.Training.CronSpec); err != nil {
		return nil, err
	}
	return s, nil
}

// ProvideSignalsHandler creates the HTTP handler. The poll endpoint
// cache is Redis-backed when Redis is enabled so replicas share it.
func ProvideSignalsHandler(
	log *logger.Logger,
	scorer *usecase.SignalScorer,
	recorder *usecase.OutcomeRecorder,
	retrainer *usecase.Retrainer,
	cfg *config.Config,
) xhttp.Handler {
	h := api.NewSignalsHandler(log, scorer, recorder, retrainer)
	if cfg.Redis.Enabled {
		h.SetCache(icache.NewRedisCache(icache.RedisConfig{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}))
	} else {
		h.SetCache(icache.NewTTLCache())
	}
	return h
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	collector *usecase.TickCollector,
	consumer *pkgkafka.Consumer,
	kh *usecase.OutcomesHandler,
	chClient *pkgch.Client,
	sched *scheduler.Scheduler,
	q *queue.RedisQueue,
	handler xhttp.Handler,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	app := server.New(cfg, collector, consumer, kh, chClient, sched)
	app.SetHTTPHandler(handler)
	app.SetQueue(q)
	app.Monitor = collector.Monitor()
	return app
}

package server

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"PipForge/internal/scheduler"
	"PipForge/internal/usecase"
	pkgch "PipForge/pkg/clickhouse"
	"PipForge/pkg/config"
	xhttp "PipForge/pkg/http"
	pkgkafka "PipForge/pkg/kafka"
	applogger "PipForge/pkg/logger"
	"PipForge/pkg/queue"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	collector   *usecase.TickCollector
	consumer    *pkgkafka.Consumer
	kh          pkgkafka.MessageHandler
	chClient    *pkgch.Client
	sched       *scheduler.Scheduler
	queue       *queue.RedisQueue
	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
	Monitor     *usecase.OutcomeMonitor
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	collector *usecase.TickCollector,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	chClient *pkgch.Client,
	sched *scheduler.Scheduler,
) *App {
	return &App{
		cfg:       cfg,
		collector: collector,
		consumer:  consumer,
		kh:        kh,
		chClient:  chClient,
		sched:     sched,
	}
}

// SetHTTPHandler allows DI to inject an HTTP handler.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// SetQueue attaches the optional webhook delivery queue.
func (a *App) SetQueue(q *queue.RedisQueue) { a.queue = q }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// init app logger (console info by default)
	l, _ := applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	// Start collector
	go func() {
		if err := a.collector.Start(ctx); err != nil {
			l.Error("collector error", applogger.Error(err))
		}
	}()
	l.Info("collector started", applogger.Strings("symbols", a.cfg.PriceFeed.Symbols))

	// Start consumer if configured
	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		l.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	// Start webhook delivery queue
	if a.queue != nil {
		if err := a.queue.Start(); err != nil {
			l.Error("webhook queue start error", applogger.Error(err))
		} else {
			a.queue.StartRetryProcessor()
		}
	}

	// Start retraining scheduler
	if a.sched != nil {
		a.sched.Start()
	}

	// Start HTTP server
	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	l, err := applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})
	if err != nil {
		log.Printf("failed to create logger: %v", err)
		return err
	}
	l.Info("shutting down...")

	// Stop scheduler first so no new training runs start mid-shutdown
	if a.sched != nil {
		a.sched.Stop()
	}

	// Drain webhook deliveries
	if a.queue != nil {
		if err := a.queue.Stop(ctx); err != nil {
			l.Warn("webhook queue stop error", applogger.Error(err))
		}
	}

	// Stop collector (pipeline + stream)
	if err := a.collector.Shutdown(ctx); err != nil {
		l.Warn("collector stop error", applogger.Error(err))
	}

	// Shutdown HTTP server
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		l.Error("http shutdown error", applogger.Error(err))
	}

	// Close infrastructure clients
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	// Stop consumer
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	// Close monitor resources (outcome publisher)
	if a.Monitor != nil {
		a.Monitor.Close()
	}

	l.Info("shutdown complete")
	return nil
}

package usecase

import (
	"context"

	"PipForge/internal/domain/models"
	drepo "PipForge/internal/domain/repository"
	mid "PipForge/internal/middleware"
)

// TickCollector reads the live price stream and feeds the outcome
// monitor, through the pipeline when one is configured.
type TickCollector struct {
	stream  drepo.TickStream
	monitor *OutcomeMonitor
	metrics drepo.Metrics
	pipe    *mid.TickPipeline
}

// NewTickCollector creates a new TickCollector instance.
func NewTickCollector(stream drepo.TickStream, monitor *OutcomeMonitor, metrics drepo.Metrics, pipe *mid.TickPipeline) *TickCollector {
	return &TickCollector{stream: stream, monitor: monitor, metrics: metrics, pipe: pipe}
}

// IsConnected returns true if the price stream is connected.
func (c *TickCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *TickCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	if c.pipe != nil {
		c.pipe.Start(ctx)
	}
	tickCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, tickCh, errCh)
	return nil
}

func (c *TickCollector) consume(ctx context.Context, tickCh <-chan *models.Tick, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errCh:
			if err != nil || !ok {
				c.metrics.RecordError("stream")
				// Reconnect sleeps its configured delay, so a failing
				// feed does not spin. Old channels are closed after a
				// read error; rebind to the fresh pair.
				if rerr := c.stream.Reconnect(ctx); rerr == nil {
					tickCh, errCh = c.stream.Read(ctx)
				}
			}
		case t := <-tickCh:
			if t == nil {
				continue
			}
			if c.pipe != nil {
				_ = c.pipe.Process(ctx, t)
			} else {
				_ = c.monitor.Process(ctx, t)
			}
		}
	}
}

func (c *TickCollector) Stop() error { return c.stream.Close() }

// Monitor returns the underlying OutcomeMonitor for lifecycle management.
func (c *TickCollector) Monitor() *OutcomeMonitor { return c.monitor }

// Shutdown stops the pipeline and closes the stream.
func (c *TickCollector) Shutdown(ctx context.Context) error {
	if c.pipe != nil {
		c.pipe.Stop()
	}
	return c.stream.Close()
}

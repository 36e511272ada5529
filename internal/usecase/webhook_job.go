package usecase

import (
	"context"
	"fmt"

	pkghttp "PipForge/pkg/http"
	"PipForge/pkg/logger"
	"PipForge/pkg/queue"
)

// WebhookJob delivers training-completed notifications from the queue.
// Returning an error lets the queue retry and eventually dead-letter.
type WebhookJob struct {
	client *pkghttp.Client
	url    string
	log    *logger.Logger
}

// NewWebhookJob creates the dispatcher for the given webhook URL.
func NewWebhookJob(url string, log *logger.Logger) *WebhookJob {
	return &WebhookJob{
		client: pkghttp.NewClient(pkghttp.WithTimeout(webhookTimeout)),
		url:    url,
		log:    log,
	}
}

func (j *WebhookJob) Name() string { return "training-webhook" }

func (j *WebhookJob) Type() string { return TrainingCompletedMessage }

func (j *WebhookJob) Handle(ctx context.Context, payload interface{}) error {
	result, err := queue.ParsePayload[TrainResult](payload)
	if err != nil {
		return fmt.Errorf("webhook payload: %w", err)
	}

	nctx, cancel := context.WithTimeout(ctx, webhookTimeout)
	defer cancel()

	if err := j.client.SendAndParse(nctx, &pkghttp.RequestOptions{
		Method: pkghttp.MethodPost,
		URL:    j.url,
		Body:   result,
	}, nil); err != nil {
		return fmt.Errorf("deliver webhook: %w", err)
	}

	j.log.Debug("training webhook delivered",
		logger.String("context", result.Context.String()),
		logger.String("model_version", result.ModelVersion),
	)
	return nil
}

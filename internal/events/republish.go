package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/twmb/franz-go/pkg/kgo"
)

// triggerBatchSize bounds each produce call during trigger fan-out.
const triggerBatchSize = 10

// Republisher fans reconciliation triggers back out to the work queue in
// fixed-size batches, retrying each batch with backoff. A batch that keeps
// failing surfaces as an error; it is never silently dropped.
type Republisher struct {
	client     *kgo.Client
	topic      string
	logger     *slog.Logger
	maxRetries uint64
}

func NewRepublisher(client *kgo.Client, topic string, logger *slog.Logger) *Republisher {
	return &Republisher{client: client, topic: topic, logger: logger, maxRetries: 4}
}

// PublishTriggers sends all triggers, chunked.
func (r *Republisher) PublishTriggers(ctx context.Context, triggers []ReconciliationTrigger) error {
	for start := 0; start < len(triggers); start += triggerBatchSize {
		end := min(start+triggerBatchSize, len(triggers))
		if err := r.publishBatch(ctx, triggers[start:end]); err != nil {
			return fmt.Errorf("publish trigger batch %d..%d: %w", start, end, err)
		}
	}
	return nil
}

func (r *Republisher) publishBatch(ctx context.Context, batch []ReconciliationTrigger) error {
	records := make([]*kgo.Record, 0, len(batch))
	for _, t := range batch {
		detail, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("marshal trigger: %w", err)
		}
		payload, err := json.Marshal(Envelope{
			EventType: TypeReconciliationTrigger,
			Detail:    detail,
		})
		if err != nil {
			return fmt.Errorf("marshal trigger envelope: %w", err)
		}
		records = append(records, &kgo.Record{
			Topic: r.topic,
			Key:   []byte(t.PersonIdentifier),
			Value: payload,
		})
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(newBackOff(), r.maxRetries), ctx)
	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		if err := r.client.ProduceSync(ctx, records...).FirstErr(); err != nil {
			r.logger.Warn("trigger batch produce failed",
				"attempt", attempt,
				"batchSize", len(records),
				"err", err,
			)
			return err
		}
		return nil
	}, policy)
}

func newBackOff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	bo.MaxInterval = 5 * time.Second
	return bo
}

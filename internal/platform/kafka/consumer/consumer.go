package consumer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// retryDelay spaces out repolls after a handler failure.
const retryDelay = time.Second

// Message is the transport-level view of a consumed record.
type Message struct {
	Topic string
	Key   []byte
	Value []byte
}

// Handler processes a single consumed message. Returning an error leaves the
// message uncommitted so it is redelivered; business-level retry is
// deliberately not implemented here.
type Handler interface {
	Handle(ctx context.Context, msg *Message) error
}

// Consumer polls the subscribed topics and dispatches records to a Handler,
// committing offsets only after the handler succeeds.
type Consumer struct {
	client  *kgo.Client
	handler Handler
	logger  *slog.Logger
}

func New(client *kgo.Client, handler Handler, logger *slog.Logger) *Consumer {
	return &Consumer{client: client, handler: handler, logger: logger}
}

// Run polls until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if errs := fetches.Errors(); len(errs) > 0 {
			for _, fe := range errs {
				c.logger.Error("fetch error", "topic", fe.Topic, "err", fe.Err)
			}
		}

		var handled []*kgo.Record
		var handleErr error
		rewinds := make(map[string]map[int32]kgo.EpochOffset)
		fetches.EachRecord(func(rec *kgo.Record) {
			if handleErr != nil {
				markRewind(rewinds, rec)
				return
			}
			msg := &Message{Topic: rec.Topic, Key: rec.Key, Value: rec.Value}
			if err := c.handler.Handle(ctx, msg); err != nil {
				handleErr = fmt.Errorf("handle record %s/%d@%d: %w", rec.Topic, rec.Partition, rec.Offset, err)
				markRewind(rewinds, rec)
				return
			}
			handled = append(handled, rec)
		})

		if len(handled) > 0 {
			if err := c.client.CommitRecords(ctx, handled...); err != nil {
				c.logger.Error("commit failed", "err", err)
			}
		}
		if handleErr != nil {
			// Polling moved the consume position past every fetched record,
			// so a later commit on the same partition would mark the failed
			// and skipped records consumed. Rewind each affected partition
			// to its earliest unhandled offset before polling again.
			c.client.SetOffsets(rewinds)
			c.logger.Error("handler failed, rewound for redelivery", "err", handleErr)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryDelay):
			}
		}
	}
}

// markRewind tracks the earliest unhandled offset per topic partition.
func markRewind(rewinds map[string]map[int32]kgo.EpochOffset, rec *kgo.Record) {
	parts, ok := rewinds[rec.Topic]
	if !ok {
		parts = make(map[int32]kgo.EpochOffset)
		rewinds[rec.Topic] = parts
	}
	if cur, ok := parts[rec.Partition]; ok && cur.Offset <= rec.Offset {
		return
	}
	parts[rec.Partition] = kgo.EpochOffset{Epoch: rec.LeaderEpoch, Offset: rec.Offset}
}

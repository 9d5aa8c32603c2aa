// Package kafka owns broker connectivity: client construction, topic
// bootstrap, and the consumer poll loop. Domain packages see only
// the router's Envelope and the events.Publisher interface.
package kafka

import (
	"context"
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/ministryofjustice/offender-case-notes/internal/platform/config"
)

// NewClient builds a franz-go client subscribed to the service's inbound
// topics as part of the configured consumer group.
func NewClient(cfg config.KafkaConfig) (*kgo.Client, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ConsumerGroup(cfg.ConsumerGroup),
		kgo.ConsumeTopics(cfg.InboundTopic, cfg.TriggerTopic),
		kgo.DisableAutoCommit(),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return client, nil
}

// EnsureTopics creates the service's topics if they do not already exist.
// Safe to run on every startup.
func EnsureTopics(ctx context.Context, client *kgo.Client, cfg config.KafkaConfig) error {
	adm := kadm.NewClient(client)

	topics := []string{cfg.EventsTopic, cfg.InboundTopic, cfg.TriggerTopic}
	resps, err := adm.CreateTopics(ctx, 3, 1, nil, topics...)
	if err != nil {
		return fmt.Errorf("create topics: %w", err)
	}
	for _, resp := range resps {
		if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", resp.Topic, resp.Err)
		}
	}
	return nil
}

// Ping checks broker connectivity.
func Ping(ctx context.Context, client *kgo.Client) error {
	return client.Ping(ctx)
}

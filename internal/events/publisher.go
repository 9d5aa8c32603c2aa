package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/ministryofjustice/offender-case-notes/internal/platform/metrics"
)

// Publisher emits case note domain events. Callers publish only after the
// owning transaction has committed; see the service layer's pending-event
// buffering.
type Publisher interface {
	Publish(ctx context.Context, ev DomainEvent) error
}

// KafkaPublisher produces domain events to the events topic, keyed by person
// identifier so consumers see per-person ordering.
type KafkaPublisher struct {
	client  *kgo.Client
	topic   string
	metrics *metrics.Metrics
}

func NewKafkaPublisher(client *kgo.Client, topic string, m *metrics.Metrics) *KafkaPublisher {
	return &KafkaPublisher{client: client, topic: topic, metrics: m}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev DomainEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal domain event: %w", err)
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(ev.PersonIdentifier),
		Value: payload,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce %s for %s: %w", ev.EventType, ev.NoteID, err)
	}

	if p.metrics != nil {
		p.metrics.EventsPublished.WithLabelValues(ev.EventType).Inc()
	}
	return nil
}

// Recorder captures published events for assertions. Test double.
type Recorder struct {
	mu     sync.Mutex
	events []DomainEvent
	// Err, when set, is returned by every Publish call.
	Err error
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Publish(_ context.Context, ev DomainEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.events = append(r.events, ev)
	return nil
}

// Events returns everything published so far.
func (r *Recorder) Events() []DomainEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]DomainEvent(nil), r.events...)
}

package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// EventPublisher emits domain events. Publishing is fire-and-forget from
// the caller's point of view: services log failures and keep going.
type EventPublisher interface {
	Publish(ctx context.Context, event *Event) error
	Close() error
}

// ===== KAFKA PUBLISHER =====

type KafkaEventPublisher struct {
	publisher message.Publisher
	logger    *slog.Logger
}

func NewKafkaEventPublisher(brokers []string, logger *slog.Logger) (*KafkaEventPublisher, error) {
	pub, err := kafka.NewPublisher(kafka.PublisherConfig{
		Brokers:   brokers,
		Marshaler: kafka.DefaultMarshaler{},
	}, watermill.NewSlogLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka publisher: %w", err)
	}

	return &KafkaEventPublisher{publisher: pub, logger: logger}, nil
}

func (p *KafkaEventPublisher) Publish(_ context.Context, event *Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event %s: %w", event.Type, err)
	}

	msg := message.NewMessage(event.ID, payload)
	if err := p.publisher.Publish(event.Type, msg); err != nil {
		return fmt.Errorf("failed to publish event %s: %w", event.Type, err)
	}

	p.logger.Debug("Event published", "event_id", event.ID, "event_type", event.Type)
	return nil
}

func (p *KafkaEventPublisher) Close() error {
	return p.publisher.Close()
}

// ===== LOCAL PUBLISHER =====

// ChannelEventPublisher is the in-process fallback used when no Kafka
// brokers are configured, e.g. in development.
type ChannelEventPublisher struct {
	pubsub *gochannel.GoChannel
	logger *slog.Logger
}

func NewChannelEventPublisher(logger *slog.Logger) *ChannelEventPublisher {
	return &ChannelEventPublisher{
		pubsub: gochannel.NewGoChannel(gochannel.Config{}, watermill.NewSlogLogger(logger)),
		logger: logger,
	}
}

func (p *ChannelEventPublisher) Publish(_ context.Context, event *Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event %s: %w", event.Type, err)
	}
	return p.pubsub.Publish(event.Type, message.NewMessage(event.ID, payload))
}

func (p *ChannelEventPublisher) Close() error {
	return p.pubsub.Close()
}

// ===== MOCK PUBLISHER =====

// MockEventPublisher records events in memory for tests.
type MockEventPublisher struct {
	mu     sync.Mutex
	events []*Event
	logger *slog.Logger
}

func NewMockEventPublisher(logger *slog.Logger) *MockEventPublisher {
	return &MockEventPublisher{logger: logger}
}

func (p *MockEventPublisher) Publish(_ context.Context, event *Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *MockEventPublisher) GetPublishedEvents() []*Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*Event, len(p.events))
	copy(out, p.events)
	return out
}

func (p *MockEventPublisher) ClearEvents() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}

func (p *MockEventPublisher) Close() error {
	return nil
}

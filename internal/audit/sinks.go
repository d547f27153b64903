package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"tenantgate/internal/platform/kafka/producer"
)

// LogSink writes events as structured log lines tagged log_type=audit.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Append(ctx context.Context, e Event) error {
	s.logger.InfoContext(ctx, string(e.Action),
		"log_type", "audit",
		"actor_kind", e.ActorKind,
		"actor_id", e.ActorID,
		"tenant_id", e.TenantID,
		"target_id", e.TargetID,
		"session_id", e.SessionID,
		"decision", e.Decision,
		"reason", e.Reason,
		"request_id", e.RequestID,
		"timestamp", e.Timestamp,
	)
	return nil
}

// AsyncProducer is the subset of the Kafka producer used by KafkaSink.
type AsyncProducer interface {
	ProduceAsync(msg *producer.Message) error
}

// KafkaSink publishes events as JSON, keyed by tenant so a tenant's events stay ordered.
type KafkaSink struct {
	producer AsyncProducer
	topic    string
}

func NewKafkaSink(p AsyncProducer, topic string) *KafkaSink {
	return &KafkaSink{producer: p, topic: topic}
}

func (s *KafkaSink) Append(_ context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	key := e.TenantID
	if key == "" {
		key = "platform"
	}
	return s.producer.ProduceAsync(&producer.Message{
		Topic:   s.topic,
		Key:     []byte(key),
		Value:   payload,
		Headers: map[string]string{"action": string(e.Action)},
	})
}

// MemorySink keeps events in memory. Used by tests and local development.
type MemorySink struct {
	mu     sync.RWMutex
	events []Event
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Append(_ context.Context, e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

// Events returns a copy of everything recorded so far.
func (s *MemorySink) Events() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// Actions lists recorded actions in order.
func (s *MemorySink) Actions() []Action {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Action, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Action)
	}
	return out
}

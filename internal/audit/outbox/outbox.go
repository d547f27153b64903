// Package outbox persists audit events next to the business write and relays
// them to Kafka from a background worker.
package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tenantgate/internal/audit"
)

const (
	AggregateTenant   = "tenant"
	AggregatePlatform = "platform"
)

// Entry is one audit event waiting in the outbox.
type Entry struct {
	ID            uuid.UUID
	AggregateType string // tenant or platform
	AggregateID   string // tenant ID, or "platform"
	EventType     string // audit action
	Payload       []byte // JSON-encoded audit.Event
	CreatedAt     time.Time
	ProcessedAt   *time.Time // nil until published
}

func (e *Entry) IsPending() bool {
	return e.ProcessedAt == nil
}

// NewEntry encodes event as an outbox entry. Events without a tenant are
// grouped under the platform aggregate.
func NewEntry(event audit.Event) (*Entry, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal audit event: %w", err)
	}
	createdAt := event.Timestamp
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	entry := &Entry{
		ID:            uuid.New(),
		AggregateType: AggregatePlatform,
		AggregateID:   AggregatePlatform,
		EventType:     string(event.Action),
		Payload:       payload,
		CreatedAt:     createdAt.UTC(),
	}
	if event.TenantID != "" {
		entry.AggregateType = AggregateTenant
		entry.AggregateID = event.TenantID
	}
	return entry, nil
}

// Backlog describes the unpublished part of the outbox.
type Backlog struct {
	Count  int64
	Oldest time.Time // zero when Count is 0
}

// Store is the outbox persistence. Implementations must be safe for
// concurrent use.
type Store interface {
	// Append joins the transaction in ctx when there is one.
	Append(ctx context.Context, entry *Entry) error
	// FetchUnprocessed returns up to limit pending entries, oldest first.
	// Rows stay locked for the enclosing transaction.
	FetchUnprocessed(ctx context.Context, limit int) ([]*Entry, error)
	MarkProcessed(ctx context.Context, id uuid.UUID, processedAt time.Time) error
	Pending(ctx context.Context) (Backlog, error)
	DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
}

// Sink is an audit.Sink that writes to the outbox instead of the broker.
type Sink struct {
	store Store
}

func NewSink(store Store) *Sink {
	return &Sink{store: store}
}

func (s *Sink) Append(ctx context.Context, event audit.Event) error {
	entry, err := NewEntry(event)
	if err != nil {
		return err
	}
	if err := s.store.Append(ctx, entry); err != nil {
		return fmt.Errorf("append audit outbox entry: %w", err)
	}
	return nil
}

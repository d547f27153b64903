package outbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"tenantgate/internal/audit/outbox/metrics"
	"tenantgate/internal/platform/kafka/producer"
)

const drainTimeout = 10 * time.Second

// Publisher is the synchronous subset of the Kafka producer.
type Publisher interface {
	Produce(ctx context.Context, msg *producer.Message) error
}

// TxRunner wraps each poll so fetched rows stay locked until they are marked.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type directRunner struct{}

func (directRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// Worker relays pending outbox entries to Kafka and purges published ones
// after the retention window.
type Worker struct {
	store         Store
	publisher     Publisher
	runner        TxRunner
	topic         string
	batchSize     int
	pollInterval  time.Duration
	purgeInterval time.Duration
	retention     time.Duration
	metrics       *metrics.Metrics
	logger        *slog.Logger
	now           func() time.Time
}

type Option func(*Worker)

func WithTopic(topic string) Option {
	return func(w *Worker) {
		if topic != "" {
			w.topic = topic
		}
	}
}

func WithBatchSize(size int) Option {
	return func(w *Worker) {
		if size > 0 {
			w.batchSize = size
		}
	}
}

func WithPollInterval(interval time.Duration) Option {
	return func(w *Worker) {
		if interval > 0 {
			w.pollInterval = interval
		}
	}
}

// WithRetention sets how long published entries are kept.
func WithRetention(retention time.Duration) Option {
	return func(w *Worker) {
		if retention > 0 {
			w.retention = retention
		}
	}
}

func WithTxRunner(runner TxRunner) Option {
	return func(w *Worker) {
		if runner != nil {
			w.runner = runner
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(w *Worker) {
		w.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// withClock is used by tests.
func withClock(now func() time.Time) Option {
	return func(w *Worker) {
		w.now = now
	}
}

func NewWorker(store Store, publisher Publisher, opts ...Option) (*Worker, error) {
	if store == nil {
		return nil, fmt.Errorf("outbox store is required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("publisher is required")
	}
	w := &Worker{
		store:         store,
		publisher:     publisher,
		runner:        directRunner{},
		topic:         "tenantgate.audit.events",
		batchSize:     100,
		pollInterval:  500 * time.Millisecond,
		purgeInterval: time.Hour,
		retention:     7 * 24 * time.Hour,
		logger:        slog.Default(),
		now:           time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	return w, nil
}

// Start polls until ctx is cancelled, then drains what is left with a
// short deadline of its own.
func (w *Worker) Start(ctx context.Context) error {
	poll := time.NewTicker(w.pollInterval)
	defer poll.Stop()
	purge := time.NewTicker(w.purgeInterval)
	defer purge.Stop()

	for {
		select {
		case <-poll.C:
			if _, err := w.RunOnce(ctx); err != nil && ctx.Err() == nil {
				w.logger.ErrorContext(ctx, "outbox poll failed", "error", err)
			}
		case <-purge.C:
			if _, err := w.Purge(ctx); err != nil && ctx.Err() == nil {
				w.logger.ErrorContext(ctx, "outbox purge failed", "error", err)
			}
		case <-ctx.Done():
			w.drain()
			return ctx.Err()
		}
	}
}

// RunOnce publishes one batch and returns how many entries went out. A
// publish failure ends the batch so later events of the same tenant are not
// delivered ahead of it.
func (w *Worker) RunOnce(ctx context.Context) (int, error) {
	start := w.now()
	published := 0

	err := w.runner.RunInTx(ctx, func(ctx context.Context) error {
		published = 0
		entries, err := w.store.FetchUnprocessed(ctx, w.batchSize)
		if err != nil {
			return err
		}
		if len(entries) > 0 {
			w.metrics.ObserveBatchSize(len(entries))
		}

		for _, entry := range entries {
			if err := w.publish(ctx, entry); err != nil {
				w.metrics.IncPublishFailures()
				w.logger.WarnContext(ctx, "failed to publish outbox entry",
					"id", entry.ID,
					"event_type", entry.EventType,
					"error", err,
				)
				break
			}
			if err := w.store.MarkProcessed(ctx, entry.ID, w.now()); err != nil {
				// already on the broker; consumers dedupe on outbox_id
				return fmt.Errorf("mark outbox entry %s processed: %w", entry.ID, err)
			}
			published++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	for range published {
		w.metrics.IncPublished()
	}
	w.metrics.ObservePollDuration(w.now().Sub(start).Seconds())
	w.updateBacklog(ctx)
	return published, nil
}

// Purge deletes entries published before now minus retention.
func (w *Worker) Purge(ctx context.Context) (int64, error) {
	cutoff := w.now().Add(-w.retention)
	n, err := w.store.DeleteProcessedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge outbox: %w", err)
	}
	w.metrics.AddPurged(n)
	if n > 0 {
		w.logger.InfoContext(ctx, "published outbox entries purged", "count", n, "cutoff", cutoff)
	}
	return n, nil
}

func (w *Worker) publish(ctx context.Context, entry *Entry) error {
	start := w.now()
	err := w.publisher.Produce(ctx, &producer.Message{
		Topic: w.topic,
		Key:   []byte(entry.AggregateID),
		Value: entry.Payload,
		Headers: map[string]string{
			"outbox_id":      entry.ID.String(),
			"aggregate_type": entry.AggregateType,
			"event_type":     entry.EventType,
		},
	})
	if err != nil {
		return err
	}
	w.metrics.ObservePublishDuration(w.now().Sub(start).Seconds())
	return nil
}

func (w *Worker) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()

	w.logger.InfoContext(ctx, "draining audit outbox")
	for {
		n, err := w.RunOnce(ctx)
		if err != nil {
			if !errors.Is(err, context.DeadlineExceeded) {
				w.logger.ErrorContext(ctx, "outbox drain failed", "error", err)
			}
			return
		}
		if n == 0 {
			return
		}
	}
}

func (w *Worker) updateBacklog(ctx context.Context) {
	if w.metrics == nil {
		return
	}
	b, err := w.store.Pending(ctx)
	if err != nil {
		w.logger.WarnContext(ctx, "failed to read outbox backlog", "error", err)
		return
	}
	var age float64
	if b.Count > 0 {
		age = w.now().Sub(b.Oldest).Seconds()
	}
	w.metrics.SetBacklog(b.Count, age)
}

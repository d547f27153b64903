package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"tenantgate/internal/audit"
	"tenantgate/internal/audit/outbox"
	outboxMetrics "tenantgate/internal/audit/outbox/metrics"
	"tenantgate/internal/platform/config"
	"tenantgate/internal/platform/kafka/producer"
	"tenantgate/pkg/platform/tx"
)

const kafkaDeliveryTimeout = 10 * time.Second

// auditPipeline always logs events. With Kafka brokers configured, events
// go through the Postgres outbox when there is a database and straight to
// the broker when there is not.
type auditPipeline struct {
	publisher *audit.Publisher
	producer  *producer.Producer
	relay     *outbox.Worker
}

func newAuditPipeline(cfg config.AuditConfig, logger *slog.Logger, db *sql.DB) (*auditPipeline, error) {
	sinks := []audit.Sink{audit.NewLogSink(logger)}
	p := &auditPipeline{}

	if len(cfg.KafkaBrokers) > 0 {
		prod, err := producer.New(producer.Config{
			Brokers:         cfg.KafkaBrokers,
			DeliveryTimeout: kafkaDeliveryTimeout,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("create audit producer: %w", err)
		}
		p.producer = prod

		if db != nil {
			store := outbox.NewPostgres(db)
			relay, err := outbox.NewWorker(store, prod,
				outbox.WithTopic(cfg.KafkaTopic),
				outbox.WithBatchSize(cfg.OutboxBatchSize),
				outbox.WithPollInterval(cfg.OutboxPollInterval),
				outbox.WithRetention(cfg.OutboxRetention),
				outbox.WithTxRunner(tx.NewSQLRunner(db)),
				outbox.WithMetrics(outboxMetrics.New()),
				outbox.WithLogger(logger),
			)
			if err != nil {
				return nil, err
			}
			p.relay = relay
			sinks = append(sinks, outbox.NewSink(store))
		} else {
			sinks = append(sinks, audit.NewKafkaSink(prod, cfg.KafkaTopic))
		}
	}

	p.publisher = audit.NewPublisher(sinks,
		audit.WithAsyncBuffer(cfg.BufferSize),
		audit.WithPublisherLogger(logger),
	)
	return p, nil
}

// Close drains queued events, then flushes the producer.
func (p *auditPipeline) Close(ctx context.Context) error {
	p.publisher.Close()
	if p.producer == nil {
		return nil
	}
	return p.producer.Close(ctx)
}

package service

import (
	"log/slog"

	venuemetrics "tenantgate/internal/venue/metrics"
	"tenantgate/pkg/platform/tx"
)

type serviceConfig struct {
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *venuemetrics.Metrics
	tx             tx.Runner
}

type Option func(c *serviceConfig)

func WithLogger(logger *slog.Logger) Option {
	return func(c *serviceConfig) {
		c.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(c *serviceConfig) {
		c.auditPublisher = publisher
	}
}

func WithMetrics(m *venuemetrics.Metrics) Option {
	return func(c *serviceConfig) {
		c.metrics = m
	}
}

// WithTxRunner must share its transaction with the usage store the gate
// reserves against.
func WithTxRunner(runner tx.Runner) Option {
	return func(c *serviceConfig) {
		c.tx = runner
	}
}

package service

import (
	"log/slog"

	tenantmetrics "tenantgate/internal/tenant/metrics"
	"tenantgate/pkg/platform/tx"
)

// serviceConfig holds optional dependencies for the service.
type serviceConfig struct {
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *tenantmetrics.Metrics
	tx             tx.Runner
	sessions       SessionRevoker
	cascade        []TenantScoped
}

// Option configures the service.
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

func WithMetrics(m *tenantmetrics.Metrics) Option {
	return func(c *serviceConfig) {
		c.metrics = m
	}
}

// WithTxRunner sets the transaction boundary. Defaults to a MemoryRunner.
func WithTxRunner(runner tx.Runner) Option {
	return func(c *serviceConfig) {
		c.tx = runner
	}
}

// WithSessionRevoker revokes sessions on suspension, cancellation, deletion
// and user removal. Without one, access still ends at the next request
// because the resolver re-reads tenant and user state.
func WithSessionRevoker(r SessionRevoker) Option {
	return func(c *serviceConfig) {
		c.sessions = r
	}
}

// WithCascade adds stores whose rows are removed with their tenant.
func WithCascade(stores ...TenantScoped) Option {
	return func(c *serviceConfig) {
		c.cascade = append(c.cascade, stores...)
	}
}

package tracer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestNoop(t *testing.T) {
	ctx := context.Background()
	got, span := NewNoop().Start(ctx, "authz.authorize", String("capability", "users.create"))
	assert.Equal(t, ctx, got)
	require.NotNil(t, span)
	span.SetAttributes(Bool("allowed", false))
	span.End(errors.New("denied"))
}

func TestOTel(t *testing.T) {
	tr := NewOTel("tenantgate/test", WithTracer(noop.NewTracerProvider().Tracer("test")))
	ctx, span := tr.Start(context.Background(), "auth.resolve", String("kind", "session"), Int64("n", 1), Bool("ok", true))
	require.NotNil(t, ctx)
	span.SetAttributes(String("outcome", "allowed"))
	span.End(nil)
}

func TestToOTelSkipsUnsupportedValues(t *testing.T) {
	kvs := toOTel([]Attribute{String("a", "b"), {Key: "skip", Value: struct{}{}}, {Key: "n", Value: 3}})
	assert.Len(t, kvs, 2)
}

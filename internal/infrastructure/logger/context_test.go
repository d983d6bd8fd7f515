package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func spanContext(t *testing.T) context.Context {
	t.Helper()
	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	return trace.ContextWithSpanContext(context.Background(), sc)
}

func TestFromContext(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()), "missing logger yields a nop logger")

	l := zap.NewExample()
	assert.Same(t, l, FromContext(WithContext(context.Background(), l)))
}

func TestContextValues(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetRunID(ctx))
	assert.Empty(t, GetCompanyID(ctx))
	assert.Empty(t, GetUserID(ctx))

	ctx = WithUserID(WithCompanyID(WithRunID(ctx, "run-1"), "company-1"), "user-1")
	assert.Equal(t, "run-1", GetRunID(ctx))
	assert.Equal(t, "company-1", GetCompanyID(ctx))
	assert.Equal(t, "user-1", GetUserID(ctx))
}

func TestGetTraceID(t *testing.T) {
	assert.Empty(t, GetTraceID(context.Background()))
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", GetTraceID(spanContext(t)))
}

func TestContextLogger_EnrichesWithContextFields(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	ctx := WithContext(spanContext(t), zap.New(core))
	ctx = WithCompanyID(WithRunID(ctx, "run-7"), "company-7")
	ctx = WithUserID(ctx, "user-7")

	L(ctx).Info("document posted", zap.String("number", "SALE-20240315-0001"))

	logs := recorded.All()
	require.Len(t, logs, 1)
	fields := logs[0].ContextMap()
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", fields["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", fields["span_id"])
	assert.Equal(t, "run-7", fields["run_id"])
	assert.Equal(t, "company-7", fields["company_id"])
	assert.Equal(t, "user-7", fields["user_id"])
	assert.Equal(t, "SALE-20240315-0001", fields["number"])
}

func TestContextLogger_EmptyContextAddsNothing(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)

	WithLogger(context.Background(), zap.New(core)).Warn("plain")

	logs := recorded.All()
	require.Len(t, logs, 1)
	assert.Empty(t, logs[0].Context)
}

func TestContextLogger_Levels(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	cl := WithLogger(context.Background(), zap.New(core)).With(zap.String("component", "ledger"))

	cl.Debug("d")
	cl.Info("i")
	cl.Warn("w")
	cl.Error("e")

	logs := recorded.All()
	require.Len(t, logs, 4)
	for i, lvl := range []zapcore.Level{zapcore.DebugLevel, zapcore.InfoLevel, zapcore.WarnLevel, zapcore.ErrorLevel} {
		assert.Equal(t, lvl, logs[i].Level)
		assert.Equal(t, "ledger", logs[i].ContextMap()["component"])
	}
}

func TestContextLogger_NilLogger(t *testing.T) {
	cl := WithLogger(context.Background(), nil)
	assert.NotPanics(t, func() { cl.Info("nothing") })
	assert.NotNil(t, cl.Zap())
}

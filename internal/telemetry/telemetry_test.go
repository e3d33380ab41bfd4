package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, "volbridge", cfg.ServiceName)
	assert.Equal(t, "localhost:4317", cfg.Endpoint)
	assert.Equal(t, 1.0, cfg.SampleRate)
}

func TestInitDisabled(t *testing.T) {
	ctx := context.Background()
	shutdown, err := Init(ctx, DefaultConfig())
	require.NoError(t, err)
	assert.NoError(t, shutdown(ctx))
	assert.False(t, IsEnabled())

	ctx, span := StartSpan(ctx, "noop")
	defer span.End()
	assert.Empty(t, TraceID(ctx))
	assert.Empty(t, SpanID(ctx))
}

// withRecorder swaps in an in-memory exporter for the duration of a test.
func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	setTracer(tp.Tracer(instrumentationName), true)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		_, _ = Init(context.Background(), DefaultConfig())
	})
	return rec
}

func TestRegistrySpanAttributes(t *testing.T) {
	rec := withRecorder(t)

	ctx, span := StartRegistrySpan(context.Background(), SpanAcquire, "vol1", "/export/a", CacheHit(true))
	assert.NotEmpty(t, TraceID(ctx))
	assert.NotEmpty(t, SpanID(ctx))
	EndSpan(span, nil)

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, SpanAcquire, spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)

	got := map[string]any{}
	for _, kv := range spans[0].Attributes() {
		got[string(kv.Key)] = kv.Value.AsInterface()
	}
	assert.Equal(t, "vol1", got[AttrVolume])
	assert.Equal(t, "/export/a", got[AttrMountPath])
	assert.Equal(t, true, got[AttrCacheHit])
}

func TestEndSpanRecordsError(t *testing.T) {
	rec := withRecorder(t)

	_, span := StartShareSpan(context.Background(), "export", "getacl", "/a")
	EndSpan(span, errors.New("boom"))

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "share.getacl", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "boom", spans[0].Status().Description)
	require.Len(t, spans[0].Events(), 1)
}

func TestRecordErrorIgnoresNil(t *testing.T) {
	rec := withRecorder(t)
	ctx, span := StartSpan(context.Background(), "op")
	RecordError(ctx, nil)
	SetAttributes(ctx, Path("/x"))
	span.End()

	require.Len(t, rec.Ended(), 1)
	assert.Equal(t, codes.Unset, rec.Ended()[0].Status().Code)
}

func TestParseProfileTypes(t *testing.T) {
	types, err := ParseProfileTypes(nil)
	require.NoError(t, err)
	assert.Len(t, types, 2)

	_, err = ParseProfileTypes([]string{"cpu", "heap"})
	assert.Error(t, err)
}

func TestInitProfilingDisabled(t *testing.T) {
	stop, err := InitProfiling(ProfilingConfig{})
	require.NoError(t, err)
	assert.NoError(t, stop())
	assert.False(t, IsProfilingEnabled())
}

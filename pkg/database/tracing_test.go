package database

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})
	return rec
}

func slowLogTo(t *testing.T, threshold time.Duration) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetSlowQueryLogging(threshold, slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { SetSlowQueryLogging(0, nil) })
	return &buf
}

func TestTraceQuery_Span(t *testing.T) {
	tests := []struct {
		name       string
		system     System
		operation  string
		statement  string
		err        error
		wantStatus codes.Code
	}{
		{
			name:       "postgres success",
			system:     SystemPostgres,
			operation:  "GetListing",
			statement:  "SELECT * FROM properties WHERE id = $1",
			wantStatus: codes.Unset,
		},
		{
			name:       "postgres failure",
			system:     SystemPostgres,
			operation:  "UpdateFeedbackStatus",
			statement:  "UPDATE feedback SET status = $1 WHERE id = $2",
			err:        errors.New("connection refused"),
			wantStatus: codes.Error,
		},
		{
			name:       "mongo filter",
			system:     SystemMongo,
			operation:  "ListFeedback",
			statement:  `feedbacks {"propertyId":"abc"}`,
			wantStatus: codes.Unset,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := recordSpans(t)

			_, end := TraceQuery(context.Background(), tt.system, tt.operation, tt.statement)
			end(tt.err)

			spans := rec.Ended()
			require.Len(t, spans, 1)
			span := spans[0]
			assert.Equal(t, "db."+tt.operation, span.Name())
			assert.Equal(t, trace.SpanKindClient, span.SpanKind())
			assert.Equal(t, tt.wantStatus, span.Status().Code)

			attrs := map[string]string{}
			for _, kv := range span.Attributes() {
				attrs[string(kv.Key)] = kv.Value.Emit()
			}
			assert.Equal(t, string(tt.system), attrs["db.system"])
			assert.Equal(t, tt.operation, attrs["db.operation"])
			assert.Equal(t, tt.statement, attrs["db.statement"])

			if tt.err != nil {
				require.NotEmpty(t, span.Events())
				assert.Equal(t, "exception", span.Events()[0].Name)
			}
		})
	}
}

func TestTraceQuery_ChildOfCallerSpan(t *testing.T) {
	rec := recordSpans(t)

	ctx, parent := otel.Tracer("handler").Start(context.Background(), "GET /api/feedback")
	_, end := TraceQuery(ctx, SystemPostgres, "ListFeedback", "SELECT * FROM feedback")
	end(nil)
	parent.End()

	spans := rec.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, parent.SpanContext().SpanID(), spans[0].Parent().SpanID())
	assert.Equal(t, parent.SpanContext().TraceID(), spans[0].SpanContext().TraceID())
}

func TestSlowQueryLogging(t *testing.T) {
	t.Run("logs operations over threshold", func(t *testing.T) {
		recordSpans(t)
		buf := slowLogTo(t, time.Nanosecond)

		_, end := TraceQuery(context.Background(), SystemPostgres, "ListListings", "SELECT * FROM properties ORDER BY created_at DESC")
		time.Sleep(time.Millisecond)
		end(errors.New("unique constraint violation"))

		out := buf.String()
		assert.Contains(t, out, "slow query detected")
		assert.Contains(t, out, "ListListings")
		assert.Contains(t, out, "ORDER BY created_at DESC")
		assert.Contains(t, out, "unique constraint violation")
	})

	t.Run("quiet under threshold", func(t *testing.T) {
		recordSpans(t)
		buf := slowLogTo(t, time.Hour)

		_, end := TraceQuery(context.Background(), SystemPostgres, "Ping", "SELECT 1")
		end(nil)

		assert.Empty(t, buf.String())
	})

	t.Run("disabled by zero threshold", func(t *testing.T) {
		recordSpans(t)
		buf := slowLogTo(t, time.Hour)
		SetSlowQueryLogging(0, slog.New(slog.NewJSONHandler(buf, nil)))

		_, end := TraceQuery(context.Background(), SystemPostgres, "Ping", "SELECT 1")
		end(nil)

		assert.Nil(t, slowQueries.Load())
		assert.Empty(t, buf.String())
	})
}

func TestSetSlowQueryLogging_ConcurrentWithQueries(t *testing.T) {
	recordSpans(t)
	logger := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
	t.Cleanup(func() { SetSlowQueryLogging(0, nil) })

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			SetSlowQueryLogging(time.Duration(i)*time.Millisecond, logger)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			_, end := TraceQuery(context.Background(), SystemRedis, "GET", "property:abc")
			end(nil)
		}
	}()
	wg.Wait()
}

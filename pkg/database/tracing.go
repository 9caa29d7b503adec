package database

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/malatesh-s-hulbanni-12/house-rental/pkg/database"

// System names the backing store in span attributes (OpenTelemetry db.system).
type System string

const (
	SystemPostgres System = "postgresql"
	SystemMongo    System = "mongodb"
	SystemRedis    System = "redis"
)

type slowQueryLog struct {
	threshold time.Duration
	logger    *slog.Logger
}

var slowQueries atomic.Pointer[slowQueryLog]

// SetSlowQueryLogging makes TraceQuery warn about operations that take at
// least threshold. A zero threshold or nil logger turns it off.
func SetSlowQueryLogging(threshold time.Duration, logger *slog.Logger) {
	if threshold <= 0 || logger == nil {
		slowQueries.Store(nil)
		return
	}
	slowQueries.Store(&slowQueryLog{threshold: threshold, logger: logger})
}

// TraceQuery starts a client span named "db.<operation>" and returns the
// function that ends it:
//
//	ctx, end := database.TraceQuery(ctx, database.SystemPostgres, "GetListing", query)
//	defer func() { end(err) }()
//
// Document stores pass the collection and filter as the statement.
func TraceQuery(ctx context.Context, system System, operation, statement string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := otel.Tracer(tracerName).Start(ctx, "db."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", string(system)),
			attribute.String("db.operation", operation),
			attribute.String("db.statement", statement),
		),
	)

	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()

		slow := slowQueries.Load()
		if slow == nil {
			return
		}
		elapsed := time.Since(start)
		if elapsed < slow.threshold {
			return
		}
		attrs := []any{
			slog.String("db_system", string(system)),
			slog.String("operation", operation),
			slog.String("statement", statement),
			slog.Duration("duration", elapsed),
		}
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
		}
		slow.logger.WarnContext(ctx, "slow query detected", attrs...)
	}
}

package database

import (
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// PoolSnapshot is a point-in-time view of connection pool counters.
type PoolSnapshot struct {
	Acquired     int32
	Idle         int32
	Total        int32
	Max          int32
	Constructing int32

	AcquireCount         int64
	AcquireDuration      time.Duration
	CanceledAcquires     int64
	EmptyAcquires        int64
	NewConns             int64
	MaxLifetimeDestroyed int64
	MaxIdleDestroyed     int64
}

func snapshotPgxPool(pool *pgxpool.Pool) func() PoolSnapshot {
	return func() PoolSnapshot {
		s := pool.Stat()
		return PoolSnapshot{
			Acquired:             s.AcquiredConns(),
			Idle:                 s.IdleConns(),
			Total:                s.TotalConns(),
			Max:                  s.MaxConns(),
			Constructing:         s.ConstructingConns(),
			AcquireCount:         s.AcquireCount(),
			AcquireDuration:      s.AcquireDuration(),
			CanceledAcquires:     s.CanceledAcquireCount(),
			EmptyAcquires:        s.EmptyAcquireCount(),
			NewConns:             s.NewConnsCount(),
			MaxLifetimeDestroyed: s.MaxLifetimeDestroyCount(),
			MaxIdleDestroyed:     s.MaxIdleDestroyCount(),
		}
	}
}

type poolMetric struct {
	desc  *prometheus.Desc
	kind  prometheus.ValueType
	value func(PoolSnapshot) float64
}

// PoolCollector exports PoolSnapshot values as rental_db_pool_* metrics
// labelled by service.
type PoolCollector struct {
	service  string
	snapshot func() PoolSnapshot
	metrics  []poolMetric
}

var _ prometheus.Collector = (*PoolCollector)(nil)

// NewPoolCollector builds a collector that calls snapshot on every scrape.
func NewPoolCollector(service string, snapshot func() PoolSnapshot) *PoolCollector {
	def := func(name, help string, kind prometheus.ValueType, value func(PoolSnapshot) float64) poolMetric {
		return poolMetric{
			desc:  prometheus.NewDesc("rental_db_pool_"+name, help, []string{"service"}, nil),
			kind:  kind,
			value: value,
		}
	}
	gauge, counter := prometheus.GaugeValue, prometheus.CounterValue

	return &PoolCollector{
		service:  service,
		snapshot: snapshot,
		metrics: []poolMetric{
			def("acquired_connections", "Connections currently checked out", gauge,
				func(s PoolSnapshot) float64 { return float64(s.Acquired) }),
			def("idle_connections", "Connections currently idle", gauge,
				func(s PoolSnapshot) float64 { return float64(s.Idle) }),
			def("total_connections", "Connections currently open", gauge,
				func(s PoolSnapshot) float64 { return float64(s.Total) }),
			def("max_connections", "Configured connection ceiling", gauge,
				func(s PoolSnapshot) float64 { return float64(s.Max) }),
			def("constructing_connections", "Connections being dialled", gauge,
				func(s PoolSnapshot) float64 { return float64(s.Constructing) }),
			def("acquires_total", "Successful connection acquires", counter,
				func(s PoolSnapshot) float64 { return float64(s.AcquireCount) }),
			def("acquire_seconds_total", "Cumulative time spent waiting to acquire", counter,
				func(s PoolSnapshot) float64 { return s.AcquireDuration.Seconds() }),
			def("canceled_acquires_total", "Acquires abandoned because the context ended", counter,
				func(s PoolSnapshot) float64 { return float64(s.CanceledAcquires) }),
			def("empty_acquires_total", "Acquires that found no idle connection", counter,
				func(s PoolSnapshot) float64 { return float64(s.EmptyAcquires) }),
			def("new_connections_total", "Connections opened", counter,
				func(s PoolSnapshot) float64 { return float64(s.NewConns) }),
			def("max_lifetime_closed_total", "Connections closed for exceeding their lifetime", counter,
				func(s PoolSnapshot) float64 { return float64(s.MaxLifetimeDestroyed) }),
			def("max_idle_closed_total", "Connections closed after idling too long", counter,
				func(s PoolSnapshot) float64 { return float64(s.MaxIdleDestroyed) }),
		},
	}
}

func (c *PoolCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, m := range c.metrics {
		ch <- m.desc
	}
}

func (c *PoolCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.snapshot()
	for _, m := range c.metrics {
		ch <- prometheus.MustNewConstMetric(m.desc, m.kind, m.value(s), c.service)
	}
}

// RegisterPoolMetrics registers a collector for pool with the default
// Prometheus registry.
func RegisterPoolMetrics(pool *pgxpool.Pool, service string) {
	prometheus.MustRegister(NewPoolCollector(service, snapshotPgxPool(pool)))
}

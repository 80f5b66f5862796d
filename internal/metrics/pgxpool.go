package metrics

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// RegisterPgxPoolMetrics exposes pgx pool statistics to Prometheus. Gauges
// read Stat() at scrape time, so registration is the only hook needed.
func RegisterPgxPoolMetrics(pool *pgxpool.Pool) {
	gauge := func(name, help string, read func(*pgxpool.Stat) int32) prometheus.GaugeFunc {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{Name: name, Help: help}, func() float64 {
			return float64(read(pool.Stat()))
		})
	}

	prometheus.MustRegister(
		gauge("pgxpool_acquired_conns", "Connections currently checked out of the pool",
			func(s *pgxpool.Stat) int32 { return s.AcquiredConns() }),
		gauge("pgxpool_idle_conns", "Connections sitting idle in the pool",
			func(s *pgxpool.Stat) int32 { return s.IdleConns() }),
		gauge("pgxpool_total_conns", "Connections the pool currently holds",
			func(s *pgxpool.Stat) int32 { return s.TotalConns() }),
		gauge("pgxpool_max_conns", "Configured pool ceiling",
			func(s *pgxpool.Stat) int32 { return s.MaxConns() }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "pgxpool_empty_acquires_total",
			Help: "Acquires that had to wait because the pool was empty",
		}, func() float64 {
			return float64(pool.Stat().EmptyAcquireCount())
		}),
	)
}

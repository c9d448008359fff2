package store

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// PoolCollector exposes pgxpool statistics as Prometheus metrics.
type PoolCollector struct {
	pool *pgxpool.Pool

	total        *prometheus.Desc
	acquired     *prometheus.Desc
	idle         *prometheus.Desc
	max          *prometheus.Desc
	emptyAcquire *prometheus.Desc
	acquireWait  *prometheus.Desc
}

func NewPoolCollector(pool *pgxpool.Pool) *PoolCollector {
	return &PoolCollector{
		pool:         pool,
		total:        prometheus.NewDesc("blog_db_pool_total_connections", "Number of open Postgres connections.", nil, nil),
		acquired:     prometheus.NewDesc("blog_db_pool_acquired_connections", "Number of Postgres connections currently in use.", nil, nil),
		idle:         prometheus.NewDesc("blog_db_pool_idle_connections", "Number of idle Postgres connections.", nil, nil),
		max:          prometheus.NewDesc("blog_db_pool_max_connections", "Configured Postgres connection pool size.", nil, nil),
		emptyAcquire: prometheus.NewDesc("blog_db_pool_empty_acquire_total", "Acquires that had to wait for a free connection.", nil, nil),
		acquireWait:  prometheus.NewDesc("blog_db_pool_empty_acquire_wait_seconds_total", "Time spent waiting for a free connection.", nil, nil),
	}
}

func (c *PoolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.total
	ch <- c.acquired
	ch <- c.idle
	ch <- c.max
	ch <- c.emptyAcquire
	ch <- c.acquireWait
}

func (c *PoolCollector) Collect(ch chan<- prometheus.Metric) {
	st := c.pool.Stat()
	ch <- prometheus.MustNewConstMetric(c.total, prometheus.GaugeValue, float64(st.TotalConns()))
	ch <- prometheus.MustNewConstMetric(c.acquired, prometheus.GaugeValue, float64(st.AcquiredConns()))
	ch <- prometheus.MustNewConstMetric(c.idle, prometheus.GaugeValue, float64(st.IdleConns()))
	ch <- prometheus.MustNewConstMetric(c.max, prometheus.GaugeValue, float64(st.MaxConns()))
	ch <- prometheus.MustNewConstMetric(c.emptyAcquire, prometheus.CounterValue, float64(st.EmptyAcquireCount()))
	ch <- prometheus.MustNewConstMetric(c.acquireWait, prometheus.CounterValue, st.EmptyAcquireWaitTime().Seconds())
}

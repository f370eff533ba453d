/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package metrics holds the Prometheus collectors tablekit reports to.
// Every method is safe to call on a nil *Metrics, which records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "tablekit"

// Metrics contains the collectors for schema caching, table operations and
// blob uploads.
type Metrics struct {
	SchemaCacheHits   prometheus.Counter
	SchemaCacheMisses prometheus.Counter

	TableOperations *prometheus.CounterVec
	TableDuration   *prometheus.HistogramVec

	BlobUploadAttempts *prometheus.CounterVec
	ContainersCreated  prometheus.Counter
	BlobDeletes        *prometheus.CounterVec
}

// New creates an unregistered Metrics instance.
func New() *Metrics {
	return &Metrics{
		SchemaCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "schema_cache",
			Name:      "hits_total",
			Help:      "Field binding lookups served from the cache",
		}),
		SchemaCacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "schema_cache",
			Name:      "misses_total",
			Help:      "Field binding lookups that required a reflective scan",
		}),
		TableOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "table",
				Name:      "operations_total",
				Help:      "Table operations by operation and outcome",
			},
			[]string{"table", "operation", "outcome"},
		),
		TableDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "table",
				Name:      "operation_duration_seconds",
				Help:      "Table operation latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"table", "operation"},
		),
		BlobUploadAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "blob",
				Name:      "upload_attempts_total",
				Help:      "Blob upload attempts by outcome",
			},
			[]string{"container", "outcome"},
		),
		ContainersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "blob",
			Name:      "containers_created_total",
			Help:      "Containers created after an upload found them missing",
		}),
		BlobDeletes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "blob",
				Name:      "deletes_total",
				Help:      "Blob deletes by outcome",
			},
			[]string{"container", "outcome"},
		),
	}
}

// Register adds every collector to reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.SchemaCacheHits,
		m.SchemaCacheMisses,
		m.TableOperations,
		m.TableDuration,
		m.BlobUploadAttempts,
		m.ContainersCreated,
		m.BlobDeletes,
	}
}

func (m *Metrics) CacheHit() {
	if m != nil {
		m.SchemaCacheHits.Inc()
	}
}

func (m *Metrics) CacheMiss() {
	if m != nil {
		m.SchemaCacheMisses.Inc()
	}
}

// ObserveTable records one table operation. err decides the outcome label.
func (m *Metrics) ObserveTable(table, op string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.TableOperations.WithLabelValues(table, op, outcome(err)).Inc()
	m.TableDuration.WithLabelValues(table, op).Observe(time.Since(start).Seconds())
}

func (m *Metrics) UploadAttempt(container string, err error) {
	if m != nil {
		m.BlobUploadAttempts.WithLabelValues(container, outcome(err)).Inc()
	}
}

func (m *Metrics) ContainerCreated() {
	if m != nil {
		m.ContainersCreated.Inc()
	}
}

func (m *Metrics) BlobDeleted(container string, err error) {
	if m != nil {
		m.BlobDeletes.WithLabelValues(container, outcome(err)).Inc()
	}
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

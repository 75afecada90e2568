// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package handler

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "rpccache"

// reads the counters on every scrape
type collector struct {
	source Source

	hits        *prometheus.Desc
	misses      *prometheus.Desc
	evictions   *prometheus.Desc
	expirations *prometheus.Desc
	errors      *prometheus.Desc
	hitRate     *prometheus.Desc
	size        *prometheus.Desc
	available   *prometheus.Desc
}

func newCollector(source Source) *collector {
	desc := func(name string, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name), help, nil, nil)
	}
	return &collector{
		source:      source,
		hits:        desc("hits_total", "Cache reads answered from the store."),
		misses:      desc("misses_total", "Cache reads that found no live entry."),
		evictions:   desc("evictions_total", "Entries removed to stay under the size budget."),
		expirations: desc("expirations_total", "Entries removed after their TTL or freshness ran out."),
		errors:      desc("errors_total", "Storage faults seen by the cache."),
		hitRate:     desc("hit_rate", "Hits divided by reads, 0 to 1."),
		size:        desc("size_bytes", "Bytes held by all collections."),
		available:   desc("available", "1 if the persistent store is open."),
	}
}

// Describe - prometheus.Collector
func (c *collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.hits
	ch <- c.misses
	ch <- c.evictions
	ch <- c.expirations
	ch <- c.errors
	ch <- c.hitRate
	ch <- c.size
	ch <- c.available
}

// Collect - prometheus.Collector
func (c *collector) Collect(ch chan<- prometheus.Metric) {
	m := c.source.Metrics()

	ch <- prometheus.MustNewConstMetric(c.hits, prometheus.CounterValue, float64(m.Hits))
	ch <- prometheus.MustNewConstMetric(c.misses, prometheus.CounterValue, float64(m.Misses))
	ch <- prometheus.MustNewConstMetric(c.evictions, prometheus.CounterValue, float64(m.Evictions))
	ch <- prometheus.MustNewConstMetric(c.expirations, prometheus.CounterValue, float64(m.Expirations))
	ch <- prometheus.MustNewConstMetric(c.errors, prometheus.CounterValue, float64(m.Errors))
	ch <- prometheus.MustNewConstMetric(c.hitRate, prometheus.GaugeValue, m.HitRate)

	if n, err := c.source.TotalSize(); nil == err {
		ch <- prometheus.MustNewConstMetric(c.size, prometheus.GaugeValue, float64(n))
	} else {
		ch <- prometheus.NewInvalidMetric(c.size, err)
	}

	available := 0.0
	if c.source.Available() {
		available = 1
	}
	ch <- prometheus.MustNewConstMetric(c.available, prometheus.GaugeValue, available)
}

// a registry holding only the cache collector
func newMetricsHandler(source Source) http.Handler {
	registry := prometheus.NewRegistry()
	registry.MustRegister(newCollector(source))
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})
}

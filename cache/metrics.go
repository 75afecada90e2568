// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cache

// Metrics - counter snapshot
//
// HitRate is hits / (hits + misses) in the range 0..1, zero before
// the first read
type Metrics struct {
	Hits          uint64  `json:"hits"`
	Misses        uint64  `json:"misses"`
	Evictions     uint64  `json:"evictions"`
	Expirations   uint64  `json:"expirations"`
	Errors        uint64  `json:"errors"`
	HitRate       float64 `json:"hitRate"`
	TotalRequests uint64  `json:"totalRequests"`
}

// Metrics - current counter values
func (c *Cache) Metrics() Metrics {
	m := Metrics{
		Hits:        c.hits.Uint64(),
		Misses:      c.misses.Uint64(),
		Evictions:   c.evictions.Uint64(),
		Expirations: c.expirations.Uint64(),
		Errors:      c.errors.Uint64(),
	}
	m.TotalRequests = m.Hits + m.Misses
	if 0 != m.TotalRequests {
		m.HitRate = float64(m.Hits) / float64(m.TotalRequests)
	}
	return m
}

// ResetMetrics - zero all counters
func (c *Cache) ResetMetrics() {
	c.hits.Reset()
	c.misses.Reset()
	c.evictions.Reset()
	c.expirations.Reset()
	c.errors.Reset()
}

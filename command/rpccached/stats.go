// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"runtime"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/bitmark-inc/rpccache/background"
	"github.com/bitmark-inc/rpccache/cache"
	"github.com/bitmark-inc/rpccache/util"
)

const statsDelay = 60 * time.Second

// periodic log of memory use and cache counters
func newStats(c *cache.Cache) background.Process {
	log := logger.New("stats")

	return &background.Every{
		Interval: statsDelay,
		Action: func() {
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			log.Infof("allocated: %s  cumulative: %s  OS virtual: %s",
				util.FormatBytes(m.Alloc),
				util.FormatBytes(m.TotalAlloc),
				util.FormatBytes(m.Sys),
			)

			metrics := c.Metrics()
			size, err := c.TotalSize()
			if nil != err {
				log.Warnf("cache size error: %s", err)
			}
			log.Infof("cache hits: %d  misses: %d  hit rate: %.3f  evictions: %d  expirations: %d  errors: %d  size: %s",
				metrics.Hits,
				metrics.Misses,
				metrics.HitRate,
				metrics.Evictions,
				metrics.Expirations,
				metrics.Errors,
				util.FormatBytes(size),
			)
		},
	}
}

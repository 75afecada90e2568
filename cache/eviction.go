// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cache

import (
	"github.com/bitmark-inc/rpccache/storage"
)

// checkSize - evict oldest non-permanent cache entries while the total
// size of all collections is over the maximum
func (c *Cache) checkSize() {
	if nil == c.store {
		return
	}

	c.evictLock.Lock()
	defer c.evictLock.Unlock()

	total, err := c.TotalSize()
	if nil != err {
		c.log.Debugf("size check error: %s", err)
		return
	}
	if total <= c.maximumSize {
		return
	}

	target := c.maximumSize * evictionTargetPercent / 100
	evicted := c.evictOldest(total, target)

	c.log.Infof("size: %d > maximum: %d  evicted: %d entries", total, c.maximumSize, evicted)
}

// evictOldest - delete entries from the oldest until total <= target
func (c *Cache) evictOldest(total uint64, target uint64) int {
	cursor, err := c.store.ScanOldestFirst(storage.CacheCollection)
	if nil != err {
		c.errors.Increment()
		c.log.Debugf("eviction cursor error: %s", err)
		return 0
	}
	defer cursor.Release()

	evicted := 0
	for total > target && cursor.Next() {
		e, ok := cursor.Record().(*storage.Entry)
		if !ok || e.Permanent() {
			continue
		}

		err := c.store.Delete(storage.CacheCollection, e.Key)
		if nil != err {
			c.errors.Increment()
			continue
		}

		if e.Size >= total {
			total = 0
		} else {
			total -= e.Size
		}
		c.evictions.Increment()
		evicted += 1
	}

	if err := cursor.Err(); nil != err {
		c.errors.Increment()
		c.log.Debugf("eviction cursor error: %s", err)
	}
	return evicted
}

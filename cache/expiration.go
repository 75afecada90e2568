// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cache

import (
	"time"

	"github.com/bitmark-inc/rpccache/storage"
)

// sweep - periodic removal of everything that a read would reject
func (c *Cache) sweep() {
	if nil == c.store {
		return
	}

	now := c.now()
	expired := c.deleteExpired(now)
	aged := c.deleteAged(now)
	galleries := c.deleteStale(storage.GalleryCollection, now, c.galleryFreshness)
	metadata := c.deleteStale(storage.MetadataCollection, now, c.metadataFreshness)

	if expired+aged+galleries+metadata > 0 {
		c.log.Infof("sweep: expired: %d  aged: %d  galleries: %d  metadata: %d", expired, aged, galleries, metadata)
	}
}

// deleteExpired - entries whose expiry is at or before now
func (c *Cache) deleteExpired(now time.Time) int {
	records, err := c.store.ScanExpired(storage.CacheCollection, now)
	if nil != err {
		c.errors.Increment()
		c.log.Debugf("scan expired error: %s", err)
		return 0
	}

	n := 0
	for _, r := range records {
		err := c.store.Delete(storage.CacheCollection, r.PrimaryKey())
		if nil != err {
			c.errors.Increment()
			continue
		}
		c.expirations.Increment()
		n += 1
	}
	return n
}

// deleteAged - non-permanent entries created more than the maximum age ago
func (c *Cache) deleteAged(now time.Time) int {
	cutoff := now.Add(-c.maximumAge)

	cursor, err := c.store.ScanOldestFirst(storage.CacheCollection)
	if nil != err {
		c.errors.Increment()
		return 0
	}
	defer cursor.Release()

	n := 0
	for cursor.Next() {
		e, ok := cursor.Record().(*storage.Entry)
		if !ok {
			continue
		}
		if e.Timestamp.After(cutoff) {
			break
		}
		if e.Permanent() {
			continue
		}
		err := c.store.Delete(storage.CacheCollection, e.Key)
		if nil != err {
			c.errors.Increment()
			continue
		}
		c.expirations.Increment()
		n += 1
	}
	return n
}

// deleteStale - snapshots older than their freshness window
//
// the cursor walks in update order so the first fresh record ends the scan
func (c *Cache) deleteStale(collection storage.Collection, now time.Time, freshness time.Duration) int {
	cursor, err := c.store.ScanOldestFirst(collection)
	if nil != err {
		c.errors.Increment()
		return 0
	}
	defer cursor.Release()

	n := 0
	for cursor.Next() {
		r := cursor.Record()
		if !stale(r, now, freshness) {
			break
		}
		err := c.store.Delete(collection, r.PrimaryKey())
		if nil != err {
			c.errors.Increment()
			continue
		}
		n += 1
	}
	return n
}

func stale(r storage.Record, now time.Time, freshness time.Duration) bool {
	var at time.Time
	switch s := r.(type) {
	case *storage.GalleryEntry:
		at = s.LastUpdated
	case *storage.MetadataEntry:
		at = s.LastFetched
	default:
		return false
	}
	return !now.Before(at.Add(freshness))
}

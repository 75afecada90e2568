// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"encoding/binary"
	"time"

	"github.com/bitmark-inc/rpccache/fault"
)

// Collection - name of a set of records
type Collection string

// the collections created by Open
const (
	CacheCollection    Collection = "cache"
	GalleryCollection  Collection = "gallery_cache"
	MetadataCollection Collection = "metadata_cache"
)

// Collections - every collection in the order size accounting visits them
var Collections = []Collection{
	CacheCollection,
	GalleryCollection,
	MetadataCollection,
}

// an index table: value returns the sortable part of the index key,
// false means the record has no row in this index
type index struct {
	name   string
	prefix byte
	value  func(Record) ([]byte, bool)
}

// key for a record's row: prefix ++ value ++ primary key
func (ix *index) key(value []byte, primaryKey string) []byte {
	k := make([]byte, 0, 1+len(value)+len(primaryKey))
	k = append(k, ix.prefix)
	k = append(k, value...)
	return append(k, primaryKey...)
}

// primary key embedded in an index key whose value part is fixed width
func (ix *index) primaryKey(indexKey []byte, width int) string {
	return string(indexKey[1+width:])
}

type collection struct {
	name      Collection
	prefix    byte
	newRecord func() Record
	accepts   func(Record) bool
	indexes   []*index
	recency   *index // ScanOldestFirst order, always 8 byte nanos
	expiry    *index // ScanExpired, optional
	size      *index // Size, optional
}

func (c *collection) primary(key string) []byte {
	k := make([]byte, 1, 1+len(key))
	k[0] = c.prefix
	return append(k, key...)
}

// 8 byte big endian encodings so that index rows sort numerically
func encodeTime(t time.Time) []byte {
	if t.IsZero() {
		return encodeUint64(0)
	}
	n := t.UnixNano()
	if n < 0 {
		n = 0
	}
	return encodeUint64(uint64(n))
}

func encodeUint64(n uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, n)
	return b
}

const fixedWidth = 8

var (
	cacheTimestamp = &index{
		name:   "timestamp",
		prefix: 'T',
		value: func(r Record) ([]byte, bool) {
			return encodeTime(r.(*Entry).Timestamp), true
		},
	}
	cacheExpiry = &index{
		name:   "expiry",
		prefix: 'E',
		value: func(r Record) ([]byte, bool) {
			e := r.(*Entry)
			if e.Permanent() {
				return nil, false
			}
			return encodeTime(e.Expiry), true
		},
	}
	cacheCategory = &index{
		name:   "category",
		prefix: 'K',
		value: func(r Record) ([]byte, bool) {
			return append([]byte(r.(*Entry).Category), 0x00), true
		},
	}
	cacheSize = &index{
		name:   "size",
		prefix: 'S',
		value: func(r Record) ([]byte, bool) {
			return encodeUint64(r.(*Entry).Size), true
		},
	}
	galleryUpdated = &index{
		name:   "lastUpdated",
		prefix: 'g',
		value: func(r Record) ([]byte, bool) {
			return encodeTime(r.(*GalleryEntry).LastUpdated), true
		},
	}
	metadataFetched = &index{
		name:   "lastFetched",
		prefix: 'm',
		value: func(r Record) ([]byte, bool) {
			return encodeTime(r.(*MetadataEntry).LastFetched), true
		},
	}
)

var schema = map[Collection]*collection{
	CacheCollection: {
		name:      CacheCollection,
		prefix:    'C',
		newRecord: func() Record { return &Entry{} },
		accepts:   func(r Record) bool { _, ok := r.(*Entry); return ok },
		indexes:   []*index{cacheTimestamp, cacheExpiry, cacheCategory, cacheSize},
		recency:   cacheTimestamp,
		expiry:    cacheExpiry,
		size:      cacheSize,
	},
	GalleryCollection: {
		name:      GalleryCollection,
		prefix:    'G',
		newRecord: func() Record { return &GalleryEntry{} },
		accepts:   func(r Record) bool { _, ok := r.(*GalleryEntry); return ok },
		indexes:   []*index{galleryUpdated},
		recency:   galleryUpdated,
	},
	MetadataCollection: {
		name:      MetadataCollection,
		prefix:    'M',
		newRecord: func() Record { return &MetadataEntry{} },
		accepts:   func(r Record) bool { _, ok := r.(*MetadataEntry); return ok },
		indexes:   []*index{metadataFetched},
		recency:   metadataFetched,
	},
}

func lookup(c Collection) (*collection, error) {
	col, ok := schema[c]
	if !ok {
		return nil, fault.InvalidCollection
	}
	return col, nil
}

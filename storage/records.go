// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"encoding/json"
	"time"
)

// Record - anything held in a collection
type Record interface {
	PrimaryKey() string
}

// Entry - one cached RPC result
//
// a zero Expiry is the "never expires" sentinel
type Entry struct {
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	Timestamp time.Time       `json:"timestamp"`
	Expiry    time.Time       `json:"expiry"`
	Category  string          `json:"category"`
	Size      uint64          `json:"size"`
	Method    string          `json:"method"`
}

// PrimaryKey - the cache key
func (e *Entry) PrimaryKey() string {
	return e.Key
}

// Permanent - true if the entry never expires by TTL
func (e *Entry) Permanent() bool {
	return e.Expiry.IsZero()
}

// Expired - true if a non-permanent entry has reached its expiry
func (e *Entry) Expired(now time.Time) bool {
	return !e.Expiry.IsZero() && !now.Before(e.Expiry)
}

// GalleryEntry - aggregated listing snapshot
type GalleryEntry struct {
	Key         string            `json:"creator"`
	Data        []json.RawMessage `json:"data"`
	LastUpdated time.Time         `json:"lastUpdated"`
}

// PrimaryKey - the collection discriminator, "all" or a creator address
func (g *GalleryEntry) PrimaryKey() string {
	return g.Key
}

// MetadataEntry - fetched off-chain metadata for a content URI
type MetadataEntry struct {
	URI         string          `json:"uri"`
	Metadata    json.RawMessage `json:"metadata"`
	LastFetched time.Time       `json:"lastFetched"`
}

// PrimaryKey - the content URI
func (m *MetadataEntry) PrimaryKey() string {
	return m.URI
}

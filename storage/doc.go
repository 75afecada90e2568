// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package storage - maintain the on-disk cache store
//
// maintain separate collections of records in key->value form
//
// This maintains a LevelDB database split into a series of tables.
// Each table is identified by a single prefix byte.  A collection is
// one primary table holding JSON encoded records plus zero or more
// index tables whose keys sort in the order required by the scans.
// Index rows have empty values; the primary key is the suffix of the
// index key.
//
// Notes:
// 1. ++           = concatenation of byte data
// 2. nanos        = unix nanoseconds as big endian uint64 (8 bytes)
// 3. size         = byte count as big endian uint64 (8 bytes)
// 4. key          = cache key string bytes, no terminator
// 5. record       = JSON encoded Entry, GalleryEntry or MetadataEntry
//
// Version:
//
//   0x00 ++ "VERSION"          - schema version
//                                data: big endian uint32
//
// Cache (collection "cache"):
//
//   C ++ key                   - cache entry
//                                data: record
//   T ++ nanos ++ key          - by timestamp (creation time)
//   E ++ nanos ++ key          - by expiry, permanent entries have no row
//   K ++ category ++ 0x00 ++ key
//                              - by category
//   S ++ size ++ key           - by size, summed for the size budget
//
// Gallery (collection "gallery_cache"):
//
//   G ++ discriminator         - listing snapshot
//                                data: record
//   g ++ nanos ++ discriminator
//                              - by lastUpdated
//
// Metadata (collection "metadata_cache"):
//
//   M ++ uri                   - off-chain metadata
//                                data: record
//   m ++ nanos ++ uri          - by lastFetched
package storage

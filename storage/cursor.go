// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

//go:generate mockgen -source=cursor.go -destination=mocks/cursor.go -package=mocks

import (
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"

	"github.com/bitmark-inc/rpccache/fault"
)

// Cursor - lazy walk over a collection
//
// usage:
//   for cursor.Next() { r := cursor.Record() ... }
//   err := cursor.Err()
//   cursor.Release()
type Cursor interface {
	Next() bool
	Record() Record
	Err() error
	Release()
}

// walks the recency index of a snapshot so that records can be
// deleted while the cursor is open
type recencyCursor struct {
	col      *collection
	snapshot *leveldb.Snapshot
	iter     iterator.Iterator
	current  Record
	err      error
}

// ScanOldestFirst - cursor ordered by creation, update or fetch time
func (h *Handle) ScanOldestFirst(c Collection) (Cursor, error) {
	col, err := lookup(c)
	if nil != err {
		return nil, err
	}

	h.RLock()
	defer h.RUnlock()

	if nil == h.db {
		return nil, fault.NotInitialised
	}

	snapshot, err := h.db.GetSnapshot()
	if nil != err {
		return nil, operationFailed(err)
	}

	return &recencyCursor{
		col:      col,
		snapshot: snapshot,
		iter:     snapshot.NewIterator(prefixRange(col.recency.prefix), nil),
	}, nil
}

// Next - advance to the next decodable record
func (cursor *recencyCursor) Next() bool {
	if nil != cursor.err || nil == cursor.iter {
		return false
	}

	for cursor.iter.Next() {
		k := cursor.iter.Key()
		if len(k) < 1+fixedWidth {
			continue
		}
		key := cursor.col.recency.primaryKey(k, fixedWidth)

		data, err := cursor.snapshot.Get(cursor.col.primary(key), nil)
		if leveldb.ErrNotFound == err {
			continue
		} else if nil != err {
			cursor.err = operationFailed(err)
			return false
		}

		r, err := decode(cursor.col, data)
		if nil != err {
			continue
		}
		cursor.current = r
		return true
	}

	if err := cursor.iter.Error(); nil != err {
		cursor.err = operationFailed(err)
	}
	cursor.current = nil
	return false
}

// Record - the record at the current position
func (cursor *recencyCursor) Record() Record {
	return cursor.current
}

// Err - first error met while walking
func (cursor *recencyCursor) Err() error {
	return cursor.err
}

// Release - free the snapshot, safe to call more than once
func (cursor *recencyCursor) Release() {
	if nil != cursor.iter {
		cursor.iter.Release()
		cursor.iter = nil
	}
	if nil != cursor.snapshot {
		cursor.snapshot.Release()
		cursor.snapshot = nil
	}
	cursor.current = nil
}

// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

//go:generate mockgen -source=store.go -destination=mocks/store.go -package=mocks

import (
	"encoding/binary"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/bitmark-inc/rpccache/fault"
)

// Store - the persistence operations used by the cache
type Store interface {
	Get(Collection, string) (Record, error)
	Put(Collection, Record) error
	Delete(Collection, string) error
	ScanAll(Collection) ([]Record, error)
	Keys(Collection) ([]string, error)
	ScanExpired(Collection, time.Time) ([]Record, error)
	ScanOldestFirst(Collection) (Cursor, error)
	Clear(Collection) error
	Size(Collection) (uint64, error)
	Close() error
}

var recordCodec = jsoniter.ConfigCompatibleWithStandardLibrary

// check the interface is satisfied
var _ Store = (*Handle)(nil)

// range covering all keys with a single byte prefix
func prefixRange(prefix byte) *util.Range {
	return util.BytesPrefix([]byte{prefix})
}

func operationFailed(err error) error {
	return fmt.Errorf("%w: %s", fault.StorageOperationFailed, err)
}

// decode a stored record, the primary key is not repeated in the value
func decode(col *collection, data []byte) (Record, error) {
	r := col.newRecord()
	err := recordCodec.Unmarshal(data, r)
	if nil != err {
		return nil, operationFailed(err)
	}
	return r, nil
}

// Get - fetch one record, nil if absent
func (h *Handle) Get(c Collection, key string) (Record, error) {
	col, err := lookup(c)
	if nil != err {
		return nil, err
	}

	h.RLock()
	defer h.RUnlock()

	if nil == h.db {
		return nil, fault.NotInitialised
	}

	data, err := h.db.Get(col.primary(key), nil)
	if leveldb.ErrNotFound == err {
		return nil, nil
	} else if nil != err {
		return nil, operationFailed(err)
	}
	return decode(col, data)
}

// Put - upsert a record and its index rows as one batch
func (h *Handle) Put(c Collection, r Record) error {
	col, err := lookup(c)
	if nil != err {
		return err
	}
	if nil == r || !col.accepts(r) {
		return fault.InvalidCollection
	}

	data, err := recordCodec.Marshal(r)
	if nil != err {
		return operationFailed(err)
	}

	h.Lock()
	defer h.Unlock()

	if nil == h.db {
		return fault.NotInitialised
	}

	key := r.PrimaryKey()
	batch := new(leveldb.Batch)

	err = h.removeIndexes(batch, col, key)
	if nil != err {
		return err
	}

	batch.Put(col.primary(key), data)
	for _, ix := range col.indexes {
		if v, ok := ix.value(r); ok {
			batch.Put(ix.key(v, key), []byte{})
		}
	}

	err = h.db.Write(batch, nil)
	if nil != err {
		return operationFailed(err)
	}
	return nil
}

// queue deletion of every index row of an existing record
// caller must hold the write lock
func (h *Handle) removeIndexes(batch *leveldb.Batch, col *collection, key string) error {
	data, err := h.db.Get(col.primary(key), nil)
	if leveldb.ErrNotFound == err {
		return nil
	} else if nil != err {
		return operationFailed(err)
	}

	old, err := decode(col, data)
	if nil != err {
		// unreadable record, any index rows it had are left behind
		h.log.Warnf("collection: %s  key: %q  undecodable record: %s", col.name, key, err)
		return nil
	}
	for _, ix := range col.indexes {
		if v, ok := ix.value(old); ok {
			batch.Delete(ix.key(v, key))
		}
	}
	return nil
}

// Delete - remove a record and its index rows, absent keys are ignored
func (h *Handle) Delete(c Collection, key string) error {
	col, err := lookup(c)
	if nil != err {
		return err
	}

	h.Lock()
	defer h.Unlock()

	if nil == h.db {
		return fault.NotInitialised
	}

	batch := new(leveldb.Batch)
	err = h.removeIndexes(batch, col, key)
	if nil != err {
		return err
	}
	batch.Delete(col.primary(key))

	err = h.db.Write(batch, nil)
	if nil != err {
		return operationFailed(err)
	}
	return nil
}

// ScanAll - every record of a collection in key order
func (h *Handle) ScanAll(c Collection) ([]Record, error) {
	col, err := lookup(c)
	if nil != err {
		return nil, err
	}

	h.RLock()
	defer h.RUnlock()

	if nil == h.db {
		return nil, fault.NotInitialised
	}

	iter := h.db.NewIterator(prefixRange(col.prefix), nil)
	defer iter.Release()

	results := make([]Record, 0)
	for iter.Next() {
		r, err := decode(col, iter.Value())
		if nil != err {
			h.log.Warnf("collection: %s  key: %q  skipped: %s", col.name, iter.Key()[1:], err)
			continue
		}
		results = append(results, r)
	}
	if err := iter.Error(); nil != err {
		return nil, operationFailed(err)
	}
	return results, nil
}

// Keys - primary keys of a collection without decoding the records
func (h *Handle) Keys(c Collection) ([]string, error) {
	col, err := lookup(c)
	if nil != err {
		return nil, err
	}

	h.RLock()
	defer h.RUnlock()

	if nil == h.db {
		return nil, fault.NotInitialised
	}

	iter := h.db.NewIterator(prefixRange(col.prefix), nil)
	defer iter.Release()

	keys := make([]string, 0)
	for iter.Next() {
		keys = append(keys, string(iter.Key()[1:]))
	}
	if err := iter.Error(); nil != err {
		return nil, operationFailed(err)
	}
	return keys, nil
}

// ScanExpired - records whose expiry is at or before now, soonest first
func (h *Handle) ScanExpired(c Collection, now time.Time) ([]Record, error) {
	col, err := lookup(c)
	if nil != err {
		return nil, err
	}
	if nil == col.expiry {
		return nil, fault.NoExpiryIndex
	}

	h.RLock()
	defer h.RUnlock()

	if nil == h.db {
		return nil, fault.NotInitialised
	}

	// everything strictly below now+1ns is <= now
	r := &util.Range{
		Start: []byte{col.expiry.prefix},
		Limit: col.expiry.key(encodeTime(now.Add(time.Nanosecond)), ""),
	}
	iter := h.db.NewIterator(r, nil)
	defer iter.Release()

	results := make([]Record, 0)
	for iter.Next() {
		key := col.expiry.primaryKey(iter.Key(), fixedWidth)
		data, err := h.db.Get(col.primary(key), nil)
		if leveldb.ErrNotFound == err {
			continue
		} else if nil != err {
			return nil, operationFailed(err)
		}
		rec, err := decode(col, data)
		if nil != err {
			continue
		}
		results = append(results, rec)
	}
	if err := iter.Error(); nil != err {
		return nil, operationFailed(err)
	}
	return results, nil
}

// Clear - delete every record and index row of a collection
func (h *Handle) Clear(c Collection) error {
	col, err := lookup(c)
	if nil != err {
		return err
	}

	h.Lock()
	defer h.Unlock()

	if nil == h.db {
		return fault.NotInitialised
	}

	batch := new(leveldb.Batch)
	prefixes := []byte{col.prefix}
	for _, ix := range col.indexes {
		prefixes = append(prefixes, ix.prefix)
	}
	for _, p := range prefixes {
		iter := h.db.NewIterator(prefixRange(p), nil)
		for iter.Next() {
			batch.Delete(append([]byte(nil), iter.Key()...))
		}
		iter.Release()
		if err := iter.Error(); nil != err {
			return operationFailed(err)
		}
	}

	err = h.db.Write(batch, nil)
	if nil != err {
		return operationFailed(err)
	}
	return nil
}

// Size - total bytes held by a collection
//
// uses the recorded sizes when the collection has a size index,
// otherwise the stored record lengths
func (h *Handle) Size(c Collection) (uint64, error) {
	col, err := lookup(c)
	if nil != err {
		return 0, err
	}

	h.RLock()
	defer h.RUnlock()

	if nil == h.db {
		return 0, fault.NotInitialised
	}

	total := uint64(0)
	if nil != col.size {
		iter := h.db.NewIterator(prefixRange(col.size.prefix), nil)
		for iter.Next() {
			k := iter.Key()
			if len(k) < 1+fixedWidth {
				continue
			}
			total += binary.BigEndian.Uint64(k[1 : 1+fixedWidth])
		}
		iter.Release()
		if err := iter.Error(); nil != err {
			return 0, operationFailed(err)
		}
		return total, nil
	}

	iter := h.db.NewIterator(prefixRange(col.prefix), nil)
	for iter.Next() {
		total += uint64(len(iter.Value()))
	}
	iter.Release()
	if err := iter.Error(); nil != err {
		return 0, operationFailed(err)
	}
	return total, nil
}

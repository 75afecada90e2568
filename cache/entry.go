// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cache

import (
	"encoding/json"

	"github.com/bitmark-inc/rpccache/storage"
)

// Status - outcome of a read
type Status int

// possible read outcomes
const (
	Miss Status = iota
	Hit
	Fault
)

func (s Status) String() string {
	switch s {
	case Miss:
		return "miss"
	case Hit:
		return "hit"
	case Fault:
		return "fault"
	default:
		return "unknown"
	}
}

// Result - a read outcome, Value is only set for Hit
type Result struct {
	Status Status
	Value  json.RawMessage
}

// Get - read an entry
//
// an entry whose expiry has been reached is deleted and reported as a
// miss; a storage failure is reported as Fault
func (c *Cache) Get(key string) Result {
	if nil == c.store {
		c.misses.Increment()
		return Result{Status: Miss}
	}

	r, err := c.store.Get(storage.CacheCollection, key)
	if nil != err {
		c.errors.Increment()
		c.log.Debugf("get: %q  error: %s", key, err)
		return Result{Status: Fault}
	}

	e, ok := r.(*storage.Entry)
	if !ok || nil == e {
		c.misses.Increment()
		return Result{Status: Miss}
	}

	if e.Expired(c.now()) {
		err := c.store.Delete(storage.CacheCollection, key)
		if nil != err {
			c.errors.Increment()
			c.log.Debugf("delete expired: %q  error: %s", key, err)
		} else {
			c.expirations.Increment()
		}
		c.misses.Increment()
		return Result{Status: Miss}
	}

	c.hits.Increment()
	return Result{
		Status: Hit,
		Value:  e.Value,
	}
}

// Set - write an entry for a method's result
//
// the TTL and category come from the policy; failures are counted
// and otherwise ignored
func (c *Cache) Set(key string, value json.RawMessage, method string) {
	if nil == c.store {
		return
	}

	p := c.Policy()
	ttl, permanent := p.TTL(method)
	now := c.now()

	e := &storage.Entry{
		Key:       key,
		Value:     value,
		Timestamp: now,
		Category:  string(p.Category(method)),
		Size:      uint64(len(value)),
		Method:    method,
	}
	if !permanent {
		e.Expiry = now.Add(ttl)
	}

	err := c.store.Put(storage.CacheCollection, e)
	if nil != err {
		c.errors.Increment()
		c.log.Debugf("set: %q  error: %s", key, err)
		return
	}

	c.checkSize()
}

// Delete - remove one entry
func (c *Cache) Delete(key string) {
	if nil == c.store {
		return
	}
	err := c.store.Delete(storage.CacheCollection, key)
	if nil != err {
		c.errors.Increment()
		c.log.Debugf("delete: %q  error: %s", key, err)
	}
}

// DeletePattern - remove every entry whose whole key matches a glob
//
// "*" matches any run of characters, everything else is literal;
// returns the number of entries deleted
func (c *Cache) DeletePattern(glob string) (int, error) {
	m, err := compileGlob(glob)
	if nil != err {
		return 0, err
	}

	if nil == c.store {
		return 0, nil
	}

	keys, err := c.store.Keys(storage.CacheCollection)
	if nil != err {
		c.errors.Increment()
		return 0, err
	}

	n := 0
	var first error
	for _, key := range keys {
		if !m.MatchString(key) {
			continue
		}
		err := c.store.Delete(storage.CacheCollection, key)
		if nil != err {
			c.errors.Increment()
			if nil == first {
				first = err
			}
			continue
		}
		n += 1
	}

	c.log.Debugf("pattern: %q  deleted: %d", glob, n)
	return n, first
}

// ClearAll - empty all three collections
func (c *Cache) ClearAll() error {
	if nil == c.store {
		return nil
	}

	var first error
	for _, collection := range storage.Collections {
		err := c.store.Clear(collection)
		if nil != err {
			c.errors.Increment()
			c.log.Errorf("clear: %s  error: %s", collection, err)
			if nil == first {
				first = err
			}
		}
	}
	if nil == first {
		c.log.Info("all collections cleared")
	}
	return first
}

// TotalSize - bytes held by all three collections
func (c *Cache) TotalSize() (uint64, error) {
	if nil == c.store {
		return 0, nil
	}
	total := uint64(0)
	for _, collection := range storage.Collections {
		n, err := c.store.Size(collection)
		if nil != err {
			c.errors.Increment()
			return 0, err
		}
		total += n
	}
	return total, nil
}

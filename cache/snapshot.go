// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cache

import (
	"encoding/json"

	"github.com/bitmark-inc/rpccache/storage"
)

// GetGallery - a listing snapshot that is still fresh
//
// a stale snapshot is deleted and reported as absent
func (c *Cache) GetGallery(key string) ([]json.RawMessage, bool) {
	if nil == c.store {
		return nil, false
	}

	r, err := c.store.Get(storage.GalleryCollection, key)
	if nil != err {
		c.errors.Increment()
		c.log.Debugf("get gallery: %q  error: %s", key, err)
		return nil, false
	}
	g, ok := r.(*storage.GalleryEntry)
	if !ok || nil == g {
		return nil, false
	}

	if stale(g, c.now(), c.galleryFreshness) {
		c.DeleteGallery(key)
		return nil, false
	}
	return g.Data, true
}

// SetGallery - store a listing snapshot
func (c *Cache) SetGallery(key string, items []json.RawMessage) {
	if nil == c.store {
		return
	}

	g := &storage.GalleryEntry{
		Key:         key,
		Data:        items,
		LastUpdated: c.now(),
	}
	err := c.store.Put(storage.GalleryCollection, g)
	if nil != err {
		c.errors.Increment()
		c.log.Debugf("set gallery: %q  error: %s", key, err)
		return
	}
	c.checkSize()
}

// DeleteGallery - remove a listing snapshot
func (c *Cache) DeleteGallery(key string) {
	if nil == c.store {
		return
	}
	err := c.store.Delete(storage.GalleryCollection, key)
	if nil != err {
		c.errors.Increment()
		c.log.Debugf("delete gallery: %q  error: %s", key, err)
	}
}

// GetMetadata - off-chain metadata that is still fresh
func (c *Cache) GetMetadata(uri string) (json.RawMessage, bool) {
	if nil == c.store {
		return nil, false
	}

	r, err := c.store.Get(storage.MetadataCollection, uri)
	if nil != err {
		c.errors.Increment()
		c.log.Debugf("get metadata: %q  error: %s", uri, err)
		return nil, false
	}
	m, ok := r.(*storage.MetadataEntry)
	if !ok || nil == m {
		return nil, false
	}

	if stale(m, c.now(), c.metadataFreshness) {
		err := c.store.Delete(storage.MetadataCollection, uri)
		if nil != err {
			c.errors.Increment()
		}
		return nil, false
	}
	return m.Metadata, true
}

// SetMetadata - store off-chain metadata
func (c *Cache) SetMetadata(uri string, metadata json.RawMessage) {
	if nil == c.store {
		return
	}

	m := &storage.MetadataEntry{
		URI:         uri,
		Metadata:    metadata,
		LastFetched: c.now(),
	}
	err := c.store.Put(storage.MetadataCollection, m)
	if nil != err {
		c.errors.Increment()
		c.log.Debugf("set metadata: %q  error: %s", uri, err)
		return
	}
	c.checkSize()
}

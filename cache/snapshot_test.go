// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cache

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/rpccache/storage"
)

func TestGallery(t *testing.T) {
	setupTestLogger()
	defer teardownTestLogger()

	c, store, clock := newTestCache(t, nil)
	defer store.Close()
	defer c.Close()

	_, ok := c.GetGallery("0xABC")
	assert.False(t, ok, "absent gallery")

	items := []json.RawMessage{
		json.RawMessage(`{"tokenId":"2"}`),
		json.RawMessage(`{"tokenId":"1"}`),
	}
	c.SetGallery("0xABC", items)

	clock.Advance(5*time.Minute - time.Second)
	got, ok := c.GetGallery("0xABC")
	assert.True(t, ok, "gallery should be fresh")
	assert.Equal(t, 2, len(got), "wrong item count")
	assert.JSONEq(t, `{"tokenId":"2"}`, string(got[0]), "order must be kept")

	clock.Advance(time.Second)
	_, ok = c.GetGallery("0xABC")
	assert.False(t, ok, "gallery should be stale at five minutes")

	r, err := store.Get(storage.GalleryCollection, "0xABC")
	assert.Nil(t, err, "wrong store error")
	assert.Nil(t, r, "stale gallery must be deleted on read")

	c.SetGallery("all", items)
	c.DeleteGallery("all")
	_, ok = c.GetGallery("all")
	assert.False(t, ok, "gallery not deleted")
}

func TestMetadata(t *testing.T) {
	setupTestLogger()
	defer teardownTestLogger()

	c, store, clock := newTestCache(t, nil)
	defer store.Close()
	defer c.Close()

	c.SetMetadata("ipfs://Qm1", json.RawMessage(`{"name":"one"}`))

	clock.Advance(59 * time.Minute)
	m, ok := c.GetMetadata("ipfs://Qm1")
	assert.True(t, ok, "metadata should be fresh")
	assert.JSONEq(t, `{"name":"one"}`, string(m), "wrong metadata")

	clock.Advance(time.Minute)
	_, ok = c.GetMetadata("ipfs://Qm1")
	assert.False(t, ok, "metadata should be stale at one hour")

	keys, _ := store.Keys(storage.MetadataCollection)
	assert.Equal(t, 0, len(keys), "stale metadata must be deleted on read")
}

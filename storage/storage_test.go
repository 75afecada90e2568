// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage_test

import (
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/logger"
	"github.com/bitmark-inc/rpccache/fault"
	"github.com/bitmark-inc/rpccache/storage"
)

const (
	testingDirName = "testing"
	databaseName   = "testing/cache.leveldb"
)

func setupTestLogger() {
	removeFiles()
	_ = os.Mkdir(testingDirName, 0700)

	logging := logger.Configuration{
		Directory: testingDirName,
		File:      "testing.log",
		Size:      1048576,
		Count:     10,
		Console:   false,
		Levels: map[string]string{
			logger.DefaultTag: "critical",
		},
	}

	// start logging
	_ = logger.Initialise(logging)
}

func teardownTestLogger() {
	removeFiles()
}

func removeFiles() {
	_ = os.RemoveAll(testingDirName)
}

func openMemory(t *testing.T) *storage.Handle {
	h, err := storage.OpenMemory()
	assert.Nil(t, err, "wrong open error")
	return h
}

func entry(key string, value string, ts time.Time, expiry time.Time) *storage.Entry {
	return &storage.Entry{
		Key:       key,
		Value:     json.RawMessage(value),
		Timestamp: ts,
		Expiry:    expiry,
		Category:  "short-term",
		Size:      uint64(len(value)),
		Method:    "totalSupply",
	}
}

func TestOpenReopen(t *testing.T) {
	setupTestLogger()
	defer teardownTestLogger()

	h, err := storage.Open(databaseName)
	assert.Nil(t, err, "wrong open error")

	now := time.Now().UTC()
	e := entry("1:0xc:totalSupply:{}", `"100"`, now, now.Add(time.Minute))
	err = h.Put(storage.CacheCollection, e)
	assert.Nil(t, err, "wrong put error")
	assert.Nil(t, h.Close(), "wrong close error")

	h, err = storage.Open(databaseName)
	assert.Nil(t, err, "wrong reopen error")
	defer h.Close()

	r, err := h.Get(storage.CacheCollection, e.Key)
	assert.Nil(t, err, "wrong get error")
	assert.Equal(t, `"100"`, string(r.(*storage.Entry).Value), "wrong value after reopen")
}

func TestOpenUnavailable(t *testing.T) {
	setupTestLogger()
	defer teardownTestLogger()

	// a plain file where the directory should be
	f, err := os.Create(testingDirName + "/not-a-directory")
	assert.Nil(t, err, "wrong create error")
	f.Close()

	_, err = storage.Open(testingDirName + "/not-a-directory")
	assert.True(t, errors.Is(err, fault.StorageUnavailable), "wrong open error")
	assert.True(t, fault.IsErrStorage(err), "wrong error class")
}

func TestClosedHandle(t *testing.T) {
	setupTestLogger()
	defer teardownTestLogger()

	h := openMemory(t)
	assert.Nil(t, h.Close(), "wrong close error")
	assert.Nil(t, h.Close(), "wrong second close error")

	_, err := h.Get(storage.CacheCollection, "k")
	assert.Equal(t, fault.NotInitialised, err, "wrong get error")
}

func TestPutGetDelete(t *testing.T) {
	setupTestLogger()
	defer teardownTestLogger()

	h := openMemory(t)
	defer h.Close()

	now := time.Now().UTC()
	e := entry("1:0xc:balanceOf:{\"owner\":\"0x1\"}", `{"a":1}`, now, now.Add(30*time.Second))

	r, err := h.Get(storage.CacheCollection, e.Key)
	assert.Nil(t, err, "wrong get error")
	assert.Nil(t, r, "record should be absent")

	assert.Nil(t, h.Put(storage.CacheCollection, e), "wrong put error")

	r, err = h.Get(storage.CacheCollection, e.Key)
	assert.Nil(t, err, "wrong get error")
	got := r.(*storage.Entry)
	assert.Equal(t, e.Key, got.Key, "wrong key")
	assert.JSONEq(t, `{"a":1}`, string(got.Value), "wrong value")
	assert.True(t, e.Expiry.Equal(got.Expiry), "wrong expiry")
	assert.Equal(t, uint64(7), got.Size, "wrong size")

	assert.Nil(t, h.Delete(storage.CacheCollection, e.Key), "wrong delete error")
	assert.Nil(t, h.Delete(storage.CacheCollection, e.Key), "wrong absent delete error")

	r, err = h.Get(storage.CacheCollection, e.Key)
	assert.Nil(t, err, "wrong get error")
	assert.Nil(t, r, "record should be deleted")

	size, err := h.Size(storage.CacheCollection)
	assert.Nil(t, err, "wrong size error")
	assert.Equal(t, uint64(0), size, "index rows left behind")
}

func TestPutWrongCollection(t *testing.T) {
	setupTestLogger()
	defer teardownTestLogger()

	h := openMemory(t)
	defer h.Close()

	err := h.Put(storage.GalleryCollection, entry("k", "1", time.Now(), time.Time{}))
	assert.Equal(t, fault.InvalidCollection, err, "wrong put error")

	_, err = h.Get(storage.Collection("nothing"), "k")
	assert.Equal(t, fault.InvalidCollection, err, "wrong get error")
}

func TestOverwriteReplacesIndexes(t *testing.T) {
	setupTestLogger()
	defer teardownTestLogger()

	h := openMemory(t)
	defer h.Close()

	now := time.Now().UTC()
	assert.Nil(t, h.Put(storage.CacheCollection, entry("k", `"long value"`, now, now.Add(time.Second))), "wrong put error")
	assert.Nil(t, h.Put(storage.CacheCollection, entry("k", `"v"`, now, now.Add(time.Hour))), "wrong put error")

	size, err := h.Size(storage.CacheCollection)
	assert.Nil(t, err, "wrong size error")
	assert.Equal(t, uint64(3), size, "wrong size after overwrite")

	expired, err := h.ScanExpired(storage.CacheCollection, now.Add(time.Minute))
	assert.Nil(t, err, "wrong scan error")
	assert.Equal(t, 0, len(expired), "old expiry row still indexed")

	keys, err := h.Keys(storage.CacheCollection)
	assert.Nil(t, err, "wrong keys error")
	assert.Equal(t, []string{"k"}, keys, "wrong keys")
}

func TestScanExpired(t *testing.T) {
	setupTestLogger()
	defer teardownTestLogger()

	h := openMemory(t)
	defer h.Close()

	now := time.Now().UTC()
	records := []*storage.Entry{
		entry("a", "1", now, now.Add(10*time.Second)),
		entry("b", "2", now, now.Add(30*time.Second)),
		entry("c", "3", now, time.Time{}),
		entry("d", "4", now, now.Add(time.Hour)),
	}
	for _, r := range records {
		assert.Nil(t, h.Put(storage.CacheCollection, r), "wrong put error")
	}

	expired, err := h.ScanExpired(storage.CacheCollection, now.Add(30*time.Second))
	assert.Nil(t, err, "wrong scan error")
	assert.Equal(t, 2, len(expired), "wrong expired count")
	assert.Equal(t, "a", expired[0].PrimaryKey(), "wrong first expired")
	assert.Equal(t, "b", expired[1].PrimaryKey(), "expiry equal to now should be expired")

	expired, err = h.ScanExpired(storage.CacheCollection, now.Add(24*time.Hour))
	assert.Nil(t, err, "wrong scan error")
	assert.Equal(t, 3, len(expired), "permanent entry must never be expired")

	_, err = h.ScanExpired(storage.GalleryCollection, now)
	assert.Equal(t, fault.NoExpiryIndex, err, "wrong gallery scan error")
}

func TestScanOldestFirst(t *testing.T) {
	setupTestLogger()
	defer teardownTestLogger()

	h := openMemory(t)
	defer h.Close()

	base := time.Now().UTC()
	assert.Nil(t, h.Put(storage.CacheCollection, entry("z", "1", base.Add(2*time.Second), time.Time{})), "wrong put error")
	assert.Nil(t, h.Put(storage.CacheCollection, entry("y", "2", base, time.Time{})), "wrong put error")
	assert.Nil(t, h.Put(storage.CacheCollection, entry("x", "3", base.Add(time.Second), time.Time{})), "wrong put error")

	cursor, err := h.ScanOldestFirst(storage.CacheCollection)
	assert.Nil(t, err, "wrong cursor error")

	order := []string{}
	for cursor.Next() {
		r := cursor.Record()
		order = append(order, r.PrimaryKey())

		// deleting under an open cursor is allowed
		assert.Nil(t, h.Delete(storage.CacheCollection, r.PrimaryKey()), "wrong delete error")
	}
	assert.Nil(t, cursor.Err(), "wrong cursor error")
	cursor.Release()
	cursor.Release()

	assert.Equal(t, []string{"y", "x", "z"}, order, "wrong order")

	all, err := h.ScanAll(storage.CacheCollection)
	assert.Nil(t, err, "wrong scan error")
	assert.Equal(t, 0, len(all), "records not deleted")
}

func TestGalleryAndMetadata(t *testing.T) {
	setupTestLogger()
	defer teardownTestLogger()

	h := openMemory(t)
	defer h.Close()

	now := time.Now().UTC()
	g := &storage.GalleryEntry{
		Key:         "all",
		Data:        []json.RawMessage{json.RawMessage(`{"id":"1"}`), json.RawMessage(`{"id":"2"}`)},
		LastUpdated: now,
	}
	assert.Nil(t, h.Put(storage.GalleryCollection, g), "wrong gallery put error")

	m := &storage.MetadataEntry{
		URI:         "ipfs://Qm",
		Metadata:    json.RawMessage(`{"name":"x"}`),
		LastFetched: now,
	}
	assert.Nil(t, h.Put(storage.MetadataCollection, m), "wrong metadata put error")

	r, err := h.Get(storage.GalleryCollection, "all")
	assert.Nil(t, err, "wrong gallery get error")
	assert.Equal(t, 2, len(r.(*storage.GalleryEntry).Data), "wrong gallery items")

	r, err = h.Get(storage.MetadataCollection, "ipfs://Qm")
	assert.Nil(t, err, "wrong metadata get error")
	assert.JSONEq(t, `{"name":"x"}`, string(r.(*storage.MetadataEntry).Metadata), "wrong metadata")

	size, err := h.Size(storage.GalleryCollection)
	assert.Nil(t, err, "wrong size error")
	assert.NotEqual(t, uint64(0), size, "gallery size should be record length")

	assert.Nil(t, h.Clear(storage.GalleryCollection), "wrong clear error")
	r, err = h.Get(storage.GalleryCollection, "all")
	assert.Nil(t, err, "wrong gallery get error")
	assert.Nil(t, r, "gallery not cleared")

	r, err = h.Get(storage.MetadataCollection, "ipfs://Qm")
	assert.Nil(t, err, "wrong metadata get error")
	assert.NotNil(t, r, "clear must not touch other collections")
}

func TestEntryExpired(t *testing.T) {
	now := time.Now()
	e := storage.Entry{Expiry: now}
	assert.True(t, e.Expired(now), "expiry equal to now is expired")
	assert.False(t, e.Expired(now.Add(-time.Nanosecond)), "not yet expired")

	p := storage.Entry{}
	assert.True(t, p.Permanent(), "zero expiry is permanent")
	assert.False(t, p.Expired(now.Add(100*365*24*time.Hour)), "permanent never expires")
}

// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package provider_test

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/logger"
	"github.com/bitmark-inc/rpccache/cache"
	"github.com/bitmark-inc/rpccache/fault"
	"github.com/bitmark-inc/rpccache/invalidate"
	"github.com/bitmark-inc/rpccache/policy"
	"github.com/bitmark-inc/rpccache/provider"
	"github.com/bitmark-inc/rpccache/provider/mocks"
	"github.com/bitmark-inc/rpccache/storage"
)

const (
	testingDirName = "testing"
	contract       = "0xC0"
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

type fixture struct {
	store storage.Store
	cache *cache.Cache
}

func (f *fixture) close() {
	f.cache.Close()
	f.store.Close()
}

func newFixture(t *testing.T) *fixture {
	store, err := storage.OpenMemory()
	assert.Nil(t, err, "wrong store error")
	c, err := cache.New(store, policy.Default(), nil)
	assert.Nil(t, err, "wrong cache error")
	return &fixture{store: store, cache: c}
}

func newProvider(f *fixture, d provider.Dispatcher, dedup bool) *provider.Provider {
	conf := provider.DefaultConfiguration()
	conf.ContractAddress = contract
	conf.Deduplicate = dedup
	conf.LogCacheHits = true
	return provider.New(f.cache, d, conf)
}

func TestSendMissThenHit(t *testing.T) {
	setupTestLogger()
	defer teardownTestLogger()

	ctl := gomock.NewController(t)
	defer ctl.Finish()

	f := newFixture(t)
	defer f.close()

	d := mocks.NewMockDispatcher(ctl)
	p := newProvider(f, d, false)

	params := []interface{}{"0x1"}
	d.EXPECT().Call(gomock.Any(), "eth_getBalance", params).Return(json.RawMessage(`"0x10"`), nil).Times(1)

	for i := 0; i < 3; i++ {
		result, err := p.Send(context.Background(), "eth_getBalance", params)
		assert.Nil(t, err, "%d: wrong error", i)
		assert.Equal(t, `"0x10"`, string(result), "%d: wrong result", i)
	}

	m := p.CacheMetrics()
	assert.Equal(t, uint64(2), m.Hits, "wrong hits")
	assert.Equal(t, uint64(1), m.Misses, "wrong misses")
}

func TestSendNotCacheable(t *testing.T) {
	setupTestLogger()
	defer teardownTestLogger()

	ctl := gomock.NewController(t)
	defer ctl.Finish()

	f := newFixture(t)
	defer f.close()

	d := mocks.NewMockDispatcher(ctl)
	p := newProvider(f, d, false)

	params := []interface{}{"0xf86c..."}
	d.EXPECT().Call(gomock.Any(), "eth_sendRawTransaction", params).Return(json.RawMessage(`"0xhash"`), nil).Times(3)

	for i := 0; i < 3; i++ {
		_, err := p.Send(context.Background(), "eth_sendRawTransaction", params)
		assert.Nil(t, err, "%d: wrong error", i)
	}

	keys, err := f.store.Keys(storage.CacheCollection)
	assert.Nil(t, err, "wrong keys error")
	assert.Equal(t, 0, len(keys), "non-cacheable result written")
	assert.Equal(t, uint64(0), p.CacheMetrics().TotalRequests, "cache consulted")
}

func TestSendUpstreamFailure(t *testing.T) {
	setupTestLogger()
	defer teardownTestLogger()

	ctl := gomock.NewController(t)
	defer ctl.Finish()

	f := newFixture(t)
	defer f.close()

	d := mocks.NewMockDispatcher(ctl)
	p := newProvider(f, d, false)

	d.EXPECT().Call(gomock.Any(), "eth_blockNumber", nil).Return(nil, fault.UpstreamCallFailed).Times(2)

	for i := 0; i < 2; i++ {
		_, err := p.Send(context.Background(), "eth_blockNumber", nil)
		assert.Equal(t, fault.UpstreamCallFailed, err, "%d: error must be returned unchanged", i)
	}

	keys, _ := f.store.Keys(storage.CacheCollection)
	assert.Equal(t, 0, len(keys), "failure must not be cached")
}

func TestSendEthCallSelector(t *testing.T) {
	setupTestLogger()
	defer teardownTestLogger()

	ctl := gomock.NewController(t)
	defer ctl.Finish()

	f := newFixture(t)
	defer f.close()

	d := mocks.NewMockDispatcher(ctl)
	p := newProvider(f, d, false)

	tests := []struct {
		data     string
		method   string
		category policy.Category
	}{
		{"0x06fdde03", "name", policy.Permanent},
		{"0x18160ddd", "totalSupply", policy.ShortTerm},
		{"0xc87b56dd000000000000000000000000000000000000000000000000000000000000002a", "tokenURI", policy.MediumTerm},
		{"0x12345678", policy.UnknownMethod, policy.ShortTerm},
	}

	for i, item := range tests {
		params := []interface{}{
			map[string]string{"to": contract, "data": item.data},
			"latest",
		}
		d.EXPECT().Call(gomock.Any(), "eth_call", params).Return(json.RawMessage(`"0x01"`), nil).Times(1)

		_, err := p.Send(context.Background(), "eth_call", params)
		assert.Nil(t, err, "%d: wrong error", i)

		key, err := f.cache.Key("eth_call", params, contract)
		assert.Nil(t, err, "%d: wrong key error", i)

		r, err := f.store.Get(storage.CacheCollection, key)
		assert.Nil(t, err, "%d: wrong store error", i)
		e := r.(*storage.Entry)
		assert.Equal(t, item.method, e.Method, "%d: wrong effective method", i)
		assert.Equal(t, string(item.category), e.Category, "%d: wrong category", i)
		assert.Equal(t, item.category == policy.Permanent, e.Permanent(), "%d: wrong expiry", i)
	}
}

func TestSendCacheDisabled(t *testing.T) {
	setupTestLogger()
	defer teardownTestLogger()

	ctl := gomock.NewController(t)
	defer ctl.Finish()

	f := newFixture(t)
	defer f.close()

	d := mocks.NewMockDispatcher(ctl)
	p := newProvider(f, d, false)

	p.SetCacheEnabled(false)
	assert.False(t, p.CacheEnabled(), "switch not applied")

	d.EXPECT().Call(gomock.Any(), "eth_chainId", nil).Return(json.RawMessage(`"0x52d1"`), nil).Times(2)
	_, _ = p.Send(context.Background(), "eth_chainId", nil)
	_, _ = p.Send(context.Background(), "eth_chainId", nil)

	p.SetCacheEnabled(true)
	d.EXPECT().Call(gomock.Any(), "eth_chainId", nil).Return(json.RawMessage(`"0x52d1"`), nil).Times(1)
	_, _ = p.Send(context.Background(), "eth_chainId", nil)
	_, _ = p.Send(context.Background(), "eth_chainId", nil)
}

func TestReadDomainKey(t *testing.T) {
	setupTestLogger()
	defer teardownTestLogger()

	f := newFixture(t)
	defer f.close()

	p := newProvider(f, nil, false)

	calls := int32(0)
	fetch := func(ctx context.Context) (json.RawMessage, error) {
		atomic.AddInt32(&calls, 1)
		return json.RawMessage(`"ipfs://Qm42"`), nil
	}

	params := map[string]string{"tokenId": "42"}
	for i := 0; i < 2; i++ {
		result, err := p.Read(context.Background(), "tokenURI", params, fetch)
		assert.Nil(t, err, "%d: wrong error", i)
		assert.Equal(t, `"ipfs://Qm42"`, string(result), "%d: wrong result", i)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "second read should hit")

	n, err := p.ClearCache(`*:tokenURI:*"tokenId":"42"*`)
	assert.Nil(t, err, "wrong clear error")
	assert.Equal(t, 1, n, "domain key should match the invalidation pattern")

	_, err = p.Read(context.Background(), "tokenURI", params, fetch)
	assert.Nil(t, err, "wrong error")
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls), "cleared entry should be fetched again")
}

func TestReadDeduplicate(t *testing.T) {
	setupTestLogger()
	defer teardownTestLogger()

	f := newFixture(t)
	defer f.close()

	p := newProvider(f, nil, true)

	calls := int32(0)
	release := make(chan struct{})
	fetch := func(ctx context.Context) (json.RawMessage, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return json.RawMessage(`"100"`), nil
	}

	const readers = 8
	var wg sync.WaitGroup
	results := make([]string, readers)
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := p.Read(context.Background(), "totalSupply", nil, fetch)
			assert.Nil(t, err, "%d: wrong error", i)
			results[i] = string(r)
		}(i)
	}

	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "concurrent misses should share one fetch")
	for i, r := range results {
		assert.Equal(t, `"100"`, r, "%d: wrong result", i)
	}
}

func sendCall(t *testing.T, p *provider.Provider, d *mocks.MockDispatcher, data string) {
	params := []interface{}{
		map[string]string{"to": contract, "data": data},
		"latest",
	}
	d.EXPECT().Call(gomock.Any(), "eth_call", params).Return(json.RawMessage(`"0x01"`), nil).Times(1)
	_, err := p.Send(context.Background(), "eth_call", params)
	assert.Nil(t, err, "wrong send error: %s", data)
}

func TestSendThenBurnAndTransfer(t *testing.T) {
	setupTestLogger()
	defer teardownTestLogger()

	ctl := gomock.NewController(t)
	defer ctl.Finish()

	f := newFixture(t)
	defer f.close()

	d := mocks.NewMockDispatcher(ctl)
	p := newProvider(f, d, false)

	const (
		token42  = "000000000000000000000000000000000000000000000000000000000000002a"
		token420 = "00000000000000000000000000000000000000000000000000000000000001a4"
		owner    = "0000000000000000000000000000000000000000000000000000000000000aaa"
		other    = "0000000000000000000000000000000000000000000000000000000000000ccc"
	)

	burned := []string{
		"0x18160ddd",
		"0xc87b56dd" + token42,
		"0x6352211e" + token42,
		"0xb2383e55" + token42,
		"0xe45be8eb" + owner,
	}
	for _, data := range burned {
		sendCall(t, p, d, data)
	}
	survivors := []string{
		"0x06fdde03",
		"0xc87b56dd" + token420,
		"0x70a08231" + other,
	}
	for _, data := range survivors {
		sendCall(t, p, d, data)
	}

	h := invalidate.New(f.cache, nil)

	n, err := h.HandleBurn("42", "0xAAA")
	assert.Nil(t, err, "wrong burn error")
	assert.Equal(t, len(burned), n, "wrong burn count")

	keys, err := f.store.Keys(storage.CacheCollection)
	assert.Nil(t, err, "wrong keys error")
	assert.Equal(t, len(survivors), len(keys), "wrong survivors after burn")

	sendCall(t, p, d, "0x6352211e"+token420)
	sendCall(t, p, d, "0x70a08231"+owner)

	n, err = h.HandleTransfer("420", "0xAAA", "0xBBB")
	assert.Nil(t, err, "wrong transfer error")
	assert.Equal(t, 2, n, "wrong transfer count")

	keys, _ = f.store.Keys(storage.CacheCollection)
	assert.Equal(t, len(survivors), len(keys), "wrong survivors after transfer")
}

func TestReadDeduplicateWhenFirstCallerCancels(t *testing.T) {
	setupTestLogger()
	defer teardownTestLogger()

	f := newFixture(t)
	defer f.close()

	p := newProvider(f, nil, true)

	started := make(chan struct{})
	release := make(chan struct{})
	var fetchErr atomic.Value
	fetch := func(ctx context.Context) (json.RawMessage, error) {
		close(started)
		<-release
		if nil != ctx.Err() {
			fetchErr.Store(ctx.Err())
			return nil, ctx.Err()
		}
		return json.RawMessage(`"100"`), nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := p.Read(ctx, "totalSupply", nil, fetch)
		first <- err
	}()
	<-started

	second := make(chan string, 1)
	go func() {
		r, err := p.Read(context.Background(), "totalSupply", nil, fetch)
		assert.Nil(t, err, "second caller failed")
		second <- string(r)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()
	assert.Equal(t, context.Canceled, <-first, "cancelled caller should return its own error")

	close(release)
	assert.Equal(t, `"100"`, <-second, "wrong shared result")
	assert.Nil(t, fetchErr.Load(), "shared fetch saw the cancellation")

	key, _ := f.cache.Key("totalSupply", nil, contract)
	assert.Equal(t, cache.Hit, f.cache.Get(key).Status, "shared result not cached")
}

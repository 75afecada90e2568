// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package provider - read-through caching in front of a JSON-RPC dispatcher
package provider

//go:generate mockgen -source=provider.go -destination=mocks/provider.go -package=mocks

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	jsoniter "github.com/json-iterator/go"
	"golang.org/x/sync/singleflight"

	"github.com/bitmark-inc/logger"
	"github.com/bitmark-inc/rpccache/cache"
)

// Dispatcher - performs the real RPC call
type Dispatcher interface {
	Call(ctx context.Context, method string, params interface{}) (json.RawMessage, error)
}

// FetchFunc - performs a domain level read on a miss
type FetchFunc func(ctx context.Context) (json.RawMessage, error)

// Configuration - the "provider" section of the configuration file
type Configuration struct {
	ContractAddress string `gluamapper:"contract_address" json:"contract_address"`
	Enabled         bool   `gluamapper:"enabled" json:"enabled"`
	LogCacheHits    bool   `gluamapper:"log_cache_hits" json:"log_cache_hits"`
	Deduplicate     bool   `gluamapper:"deduplicate" json:"deduplicate"`
}

// DefaultConfiguration - caching on, no deduplication
func DefaultConfiguration() *Configuration {
	return &Configuration{
		Enabled: true,
	}
}

// Provider - the interceptor
type Provider struct {
	log             *logger.L
	cache           *cache.Cache
	upstream        Dispatcher
	contractAddress string
	logCacheHits    bool
	deduplicate     bool

	// 1 = consult the cache
	enabled int32

	inFlight singleflight.Group
}

const (
	methodEthCall = "eth_call"

	// bound on a fetch shared by deduplicated callers
	sharedFetchTimeout = time.Minute
)

// New - wrap a dispatcher
func New(c *cache.Cache, upstream Dispatcher, conf *Configuration) *Provider {
	if nil == conf {
		conf = DefaultConfiguration()
	}
	p := &Provider{
		log:             logger.New("provider"),
		cache:           c,
		upstream:        upstream,
		contractAddress: conf.ContractAddress,
		logCacheHits:    conf.LogCacheHits,
		deduplicate:     conf.Deduplicate,
	}
	p.SetCacheEnabled(conf.Enabled)
	return p
}

// Send - issue an RPC call, answering from the cache when possible
//
// upstream failures are returned unchanged and never cached
func (p *Provider) Send(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	if !p.CacheEnabled() || !p.cache.Policy().IsCacheable(method) {
		return p.upstream.Call(ctx, method, params)
	}

	key, err := p.cache.Key(method, params, p.contractAddress)
	if nil != err {
		p.log.Debugf("method: %s  key error: %s", method, err)
		return p.upstream.Call(ctx, method, params)
	}

	fetch := func(ctx context.Context) (json.RawMessage, error) {
		return p.upstream.Call(ctx, method, params)
	}
	effective := func() string {
		return p.effectiveMethod(method, params)
	}
	return p.readThrough(ctx, key, method, effective, fetch)
}

// Read - read-through for a domain named contract read
//
// the key is built from the domain method name so invalidation
// patterns such as *:tokenURI:* match it
func (p *Provider) Read(ctx context.Context, method string, params interface{}, fetch FetchFunc) (json.RawMessage, error) {
	if !p.CacheEnabled() || !p.cache.Policy().IsCacheable(method) {
		return fetch(ctx)
	}

	key, err := p.cache.Key(method, params, p.contractAddress)
	if nil != err {
		p.log.Debugf("method: %s  key error: %s", method, err)
		return fetch(ctx)
	}

	effective := func() string {
		return method
	}
	return p.readThrough(ctx, key, method, effective, fetch)
}

func (p *Provider) readThrough(ctx context.Context, key string, method string, effective func() string, fetch FetchFunc) (json.RawMessage, error) {
	r := p.cache.Get(key)
	if cache.Hit == r.Status {
		if p.logCacheHits {
			p.log.Debugf("hit: %s  key: %s", method, key)
		}
		return r.Value, nil
	}

	load := func(ctx context.Context) (json.RawMessage, error) {
		result, err := fetch(ctx)
		if nil != err {
			p.log.Warnf("rpc call failed: %s  error: %s", method, err)
			return nil, err
		}
		p.cache.Set(key, result, effective())
		return result, nil
	}

	if !p.deduplicate {
		return load(ctx)
	}

	// concurrent misses for one key share a single fetch; it runs on its
	// own context so one caller cancelling does not fail the others
	ch := p.inFlight.DoChan(key, func() (interface{}, error) {
		shared, cancel := context.WithTimeout(context.Background(), sharedFetchTimeout)
		defer cancel()
		return load(shared)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if nil != r.Err {
			return nil, r.Err
		}
		if r.Shared {
			p.log.Debugf("shared fetch: %s  key: %s", method, key)
		}
		return r.Val.(json.RawMessage), nil
	}
}

// method name used for the TTL of a result
//
// eth_call is resolved through the selector at the start of params[0].data
func (p *Provider) effectiveMethod(method string, params interface{}) string {
	if methodEthCall != method {
		return method
	}

	buffer, err := jsoniter.Marshal(params)
	if nil != err {
		return p.cache.Policy().MethodForSelector("")
	}
	data := jsoniter.Get(buffer, 0, "data")
	if nil != data.LastError() {
		// a single call object rather than a parameter list
		data = jsoniter.Get(buffer, "data")
	}
	return p.cache.Policy().MethodForSelector(data.ToString())
}

// SetCacheEnabled - switch caching on or off at run time
func (p *Provider) SetCacheEnabled(enabled bool) {
	v := int32(0)
	if enabled {
		v = 1
	}
	atomic.StoreInt32(&p.enabled, v)
}

// CacheEnabled - current switch state
func (p *Provider) CacheEnabled() bool {
	return 1 == atomic.LoadInt32(&p.enabled)
}

// ClearCache - delete the entries matching a glob pattern
func (p *Provider) ClearCache(pattern string) (int, error) {
	return p.cache.DeletePattern(pattern)
}

// CacheMetrics - counters of the underlying cache
func (p *Provider) CacheMetrics() cache.Metrics {
	return p.cache.Metrics()
}

// Cache - the underlying cache
func (p *Provider) Cache() *cache.Cache {
	return p.cache
}

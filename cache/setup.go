// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/bitmark-inc/rpccache/background"
	"github.com/bitmark-inc/rpccache/counter"
	"github.com/bitmark-inc/rpccache/fault"
	"github.com/bitmark-inc/rpccache/policy"
	"github.com/bitmark-inc/rpccache/storage"
)

// defaults for an empty Configuration field
const (
	DefaultMaximumSize       = 50 * 1024 * 1024
	DefaultEvictionInterval  = "5m"
	DefaultExpiryInterval    = "5m"
	DefaultGalleryFreshness  = "5m"
	DefaultMetadataFreshness = "1h"
	DefaultMaximumAge        = "168h"
	DefaultChainID           = 21201

	// eviction stops at this fraction of the maximum
	evictionTargetPercent = 80
)

// Configuration - the "cache" section of the configuration file
type Configuration struct {
	MaximumSize       uint64 `gluamapper:"maximum_size" json:"maximum_size"`
	EvictionInterval  string `gluamapper:"eviction_interval" json:"eviction_interval"`
	ExpiryInterval    string `gluamapper:"expiry_interval" json:"expiry_interval"`
	GalleryFreshness  string `gluamapper:"gallery_freshness" json:"gallery_freshness"`
	MetadataFreshness string `gluamapper:"metadata_freshness" json:"metadata_freshness"`
	MaximumAge        string `gluamapper:"maximum_age" json:"maximum_age"`
	ChainID           uint64 `gluamapper:"chain_id" json:"chain_id"`
}

// DefaultConfiguration - values used when the configuration file has no cache section
func DefaultConfiguration() *Configuration {
	return &Configuration{
		MaximumSize:       DefaultMaximumSize,
		EvictionInterval:  DefaultEvictionInterval,
		ExpiryInterval:    DefaultExpiryInterval,
		GalleryFreshness:  DefaultGalleryFreshness,
		MetadataFreshness: DefaultMetadataFreshness,
		MaximumAge:        DefaultMaximumAge,
		ChainID:           DefaultChainID,
	}
}

// Cache - the entry cache
type Cache struct {
	log *logger.L

	// nil when the store could not be opened: every read is a miss
	store storage.Store

	policyLock sync.RWMutex
	policy     *policy.Policy

	// serialises size checks so concurrent writers do not double evict
	evictLock sync.Mutex

	chainID           uint64
	maximumSize       uint64
	galleryFreshness  time.Duration
	metadataFreshness time.Duration
	maximumAge        time.Duration

	hits        counter.Counter
	misses      counter.Counter
	evictions   counter.Counter
	expirations counter.Counter
	errors      counter.Counter

	now        func() time.Time
	background *background.T
}

// New - create a cache over an open store
//
// store may be nil, then the cache runs in always-miss mode.  Two
// background processes are started: the expiry sweep and the size
// check; Close stops them.
func New(store storage.Store, p *policy.Policy, conf *Configuration) (*Cache, error) {
	if nil == p {
		return nil, fault.MissingParameters
	}
	if nil == conf {
		conf = DefaultConfiguration()
	}

	durations := []struct {
		name  string
		value string
		deflt string
		d     time.Duration
	}{
		{name: "eviction_interval", value: conf.EvictionInterval, deflt: DefaultEvictionInterval},
		{name: "expiry_interval", value: conf.ExpiryInterval, deflt: DefaultExpiryInterval},
		{name: "gallery_freshness", value: conf.GalleryFreshness, deflt: DefaultGalleryFreshness},
		{name: "metadata_freshness", value: conf.MetadataFreshness, deflt: DefaultMetadataFreshness},
		{name: "maximum_age", value: conf.MaximumAge, deflt: DefaultMaximumAge},
	}
	for i := range durations {
		s := durations[i].value
		if "" == s {
			s = durations[i].deflt
		}
		d, err := time.ParseDuration(s)
		if nil != err || d <= 0 {
			return nil, fmt.Errorf("%w: cache.%s: %q", fault.InvalidDuration, durations[i].name, s)
		}
		durations[i].d = d
	}

	c := &Cache{
		log:               logger.New("cache"),
		store:             store,
		policy:            p,
		chainID:           conf.ChainID,
		maximumSize:       conf.MaximumSize,
		galleryFreshness:  durations[2].d,
		metadataFreshness: durations[3].d,
		maximumAge:        durations[4].d,
		now:               time.Now,
	}
	if 0 == c.chainID {
		c.chainID = DefaultChainID
	}
	if 0 == c.maximumSize {
		c.maximumSize = DefaultMaximumSize
	}

	if nil == store {
		c.log.Warn("no store: running in always-miss mode")
	}

	processes := background.Processes{
		&background.Every{
			Interval: durations[1].d,
			Action:   c.sweep,
		},
		&background.Every{
			Interval: durations[0].d,
			Action:   c.checkSize,
		},
	}
	c.background = background.Start(processes, nil)

	c.log.Infof("chain id: %d  maximum size: %d", c.chainID, c.maximumSize)
	return c, nil
}

// Close - stop the background processes, the store stays open
func (c *Cache) Close() {
	c.background.Stop()
	c.log.Info("stopped")
}

// SetPolicy - replace the TTL tables
func (c *Cache) SetPolicy(p *policy.Policy) {
	if nil == p {
		return
	}
	c.policyLock.Lock()
	c.policy = p
	c.policyLock.Unlock()
}

// Policy - the tables currently in force
func (c *Cache) Policy() *policy.Policy {
	c.policyLock.RLock()
	defer c.policyLock.RUnlock()
	return c.policy
}

// Available - false when running without a store
func (c *Cache) Available() bool {
	return nil != c.store
}

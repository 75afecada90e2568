// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package management

//go:generate mockgen -source=management.go -destination=mocks/management.go -package=mocks

import (
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/bitmark-inc/logger"
	"github.com/bitmark-inc/rpccache/cache"
	"github.com/bitmark-inc/rpccache/fault"
	"github.com/bitmark-inc/rpccache/rpc/ratelimit"
	"github.com/bitmark-inc/rpccache/util"
)

const (
	rateLimitCache = 20
	rateBurstCache = 40

	// limit for one burn or transfer request
	maximumTokenCount = 100
)

// Handle - cache operations exposed to operators
type Handle interface {
	Metrics() cache.Metrics
	ResetMetrics()
	TotalSize() (uint64, error)
	ClearAll() error
	DeletePattern(glob string) (int, error)
}

// Hook - contract event invalidation
type Hook interface {
	HandleBurn(tokenID string, creator string) (int, error)
	HandleTransfer(tokenID string, from string, to string) (int, error)
}

// Switch - run time cache enable
type Switch interface {
	SetCacheEnabled(enabled bool)
	CacheEnabled() bool
}

// Cache - type for RPC calls
type Cache struct {
	Log     *logger.L
	Limiter *rate.Limiter
	Start   time.Time
	Version string
	cache   Handle
	hook    Hook
	toggle  Switch
}

// New - create the management service
func New(log *logger.L, start time.Time, version string, c Handle, hook Hook, sw Switch) *Cache {
	return &Cache{
		Log:     log,
		Limiter: rate.NewLimiter(rateLimitCache, rateBurstCache),
		Start:   start,
		Version: version,
		cache:   c,
		hook:    hook,
		toggle:  sw,
	}
}

// ---

// MetricsArguments - arguments for RPC
type MetricsArguments struct {
	Reset bool `json:"reset"`
}

// MetricsReply - result from RPC
type MetricsReply struct {
	Metrics cache.Metrics `json:"metrics"`
	Enabled bool          `json:"enabled"`
	Version string        `json:"version"`
	Uptime  string        `json:"uptime"`
}

// Metrics - counters since start or the last reset
func (c *Cache) Metrics(arguments *MetricsArguments, reply *MetricsReply) error {
	if err := ratelimit.Limit(c.Limiter); nil != err {
		return err
	}

	reply.Metrics = c.cache.Metrics()
	reply.Enabled = c.toggle.CacheEnabled()
	reply.Version = c.Version
	reply.Uptime = time.Since(c.Start).String()

	if nil != arguments && arguments.Reset {
		c.Log.Info("metrics reset")
		c.cache.ResetMetrics()
	}
	return nil
}

// ---

// SizeArguments - arguments for RPC
type SizeArguments struct{}

// SizeReply - result from RPC
type SizeReply struct {
	Bytes     uint64 `json:"bytes,string"`
	Formatted string `json:"formatted"`
}

// Size - bytes held by all collections
func (c *Cache) Size(arguments *SizeArguments, reply *SizeReply) error {
	if err := ratelimit.Limit(c.Limiter); nil != err {
		return err
	}

	n, err := c.cache.TotalSize()
	if nil != err {
		return err
	}
	reply.Bytes = n
	reply.Formatted = util.FormatBytes(n)
	return nil
}

// ---

// ClearArguments - arguments for RPC
type ClearArguments struct{}

// ClearReply - result from RPC
type ClearReply struct {
	Cleared bool `json:"cleared"`
}

// Clear - empty every collection
func (c *Cache) Clear(arguments *ClearArguments, reply *ClearReply) error {
	if err := ratelimit.Limit(c.Limiter); nil != err {
		return err
	}

	c.Log.Warn("clear all")
	if err := c.cache.ClearAll(); nil != err {
		return err
	}
	reply.Cleared = true
	return nil
}

// ---

// PatternArguments - arguments for RPC
type PatternArguments struct {
	Pattern string `json:"pattern"`
}

// DeleteReply - result from RPC
//
// Errors holds one message per burn or transfer token that failed
type DeleteReply struct {
	Deleted int      `json:"deleted"`
	Errors  []string `json:"errors,omitempty"`
}

// ClearPattern - delete the entries whose key matches a glob
func (c *Cache) ClearPattern(arguments *PatternArguments, reply *DeleteReply) error {
	if err := ratelimit.Limit(c.Limiter); nil != err {
		return err
	}

	if nil == arguments || "" == arguments.Pattern {
		return fault.MissingParameters
	}

	n, err := c.cache.DeletePattern(arguments.Pattern)
	if nil != err {
		return err
	}
	c.Log.Infof("clear pattern: %q  deleted: %d", arguments.Pattern, n)
	reply.Deleted = n
	return nil
}

// ---

// BurnToken - one burned token
type BurnToken struct {
	TokenID string `json:"tokenId"`
	Creator string `json:"creator"`
}

// BurnArguments - arguments for RPC
type BurnArguments struct {
	Tokens []BurnToken `json:"tokens"`
}

// Burn - invalidate everything derived from burned tokens
//
// every token is processed; a token that fails adds a message to
// reply.Errors and the call still succeeds so the deletion count
// reaches the caller
func (c *Cache) Burn(arguments *BurnArguments, reply *DeleteReply) error {
	if nil == arguments {
		return fault.MissingParameters
	}
	if err := ratelimit.LimitN(c.Limiter, len(arguments.Tokens), maximumTokenCount); nil != err {
		return err
	}

	for _, token := range arguments.Tokens {
		if "" == token.TokenID {
			reply.addError(token.TokenID, fault.MissingParameters)
			continue
		}
		n, err := c.hook.HandleBurn(token.TokenID, token.Creator)
		reply.Deleted += n
		if nil != err {
			reply.addError(token.TokenID, err)
		}
	}
	return nil
}

func (reply *DeleteReply) addError(tokenID string, err error) {
	reply.Errors = append(reply.Errors, fmt.Sprintf("token: %q  error: %s", tokenID, err))
}

// ---

// TransferToken - one ownership change
type TransferToken struct {
	TokenID string `json:"tokenId"`
	From    string `json:"from"`
	To      string `json:"to"`
}

// TransferArguments - arguments for RPC
type TransferArguments struct {
	Tokens []TransferToken `json:"tokens"`
}

// Transfer - invalidate ownership and balance reads
//
// failures are reported per token as for Burn
func (c *Cache) Transfer(arguments *TransferArguments, reply *DeleteReply) error {
	if nil == arguments {
		return fault.MissingParameters
	}
	if err := ratelimit.LimitN(c.Limiter, len(arguments.Tokens), maximumTokenCount); nil != err {
		return err
	}

	for _, token := range arguments.Tokens {
		if "" == token.TokenID {
			reply.addError(token.TokenID, fault.MissingParameters)
			continue
		}
		n, err := c.hook.HandleTransfer(token.TokenID, token.From, token.To)
		reply.Deleted += n
		if nil != err {
			reply.addError(token.TokenID, err)
		}
	}
	return nil
}

// ---

// EnableArguments - arguments for RPC
type EnableArguments struct {
	Enabled bool `json:"enabled"`
}

// EnableReply - result from RPC
type EnableReply struct {
	Enabled bool `json:"enabled"`
}

// Enable - switch caching on or off
func (c *Cache) Enable(arguments *EnableArguments, reply *EnableReply) error {
	if err := ratelimit.Limit(c.Limiter); nil != err {
		return err
	}
	if nil == arguments {
		return fault.MissingParameters
	}

	c.toggle.SetCacheEnabled(arguments.Enabled)
	c.Log.Infof("cache enabled: %t", arguments.Enabled)
	reply.Enabled = c.toggle.CacheEnabled()
	return nil
}

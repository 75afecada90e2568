// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package handler

import (
	"net"
	"time"

	cache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

const (
	// idle clients are forgotten after this
	clientExpiration = 10 * time.Minute
	clientCleanup    = 20 * time.Minute
)

// ClientLimits - per source address request rate for the proxy
type ClientLimits struct {
	RequestsPerSecond float64 `gluamapper:"requests_per_second" json:"requests_per_second"`
	Burst             int     `gluamapper:"burst" json:"burst"`
}

type clientLimiters struct {
	limit   rate.Limit
	burst   int
	clients *cache.Cache
}

func newClientLimiters(limits *ClientLimits) *clientLimiters {
	if nil == limits || limits.RequestsPerSecond <= 0 || limits.Burst <= 0 {
		return nil
	}
	return &clientLimiters{
		limit:   rate.Limit(limits.RequestsPerSecond),
		burst:   limits.Burst,
		clients: cache.New(clientExpiration, clientCleanup),
	}
}

// true if the client at remoteAddr may make another request
func (c *clientLimiters) allow(remoteAddr string) bool {
	if nil == c {
		return true
	}

	host, _, err := net.SplitHostPort(remoteAddr)
	if nil != err {
		host = remoteAddr
	}

	var limiter *rate.Limiter
	if item, found := c.clients.Get(host); found {
		limiter = item.(*rate.Limiter)
	} else {
		limiter = rate.NewLimiter(c.limit, c.burst)

		// another request from the same client may have raced in first
		if err := c.clients.Add(host, limiter, cache.DefaultExpiration); nil != err {
			if item, found := c.clients.Get(host); found {
				limiter = item.(*rate.Limiter)
			}
		}
	}

	// an active client keeps its limiter
	c.clients.Set(host, limiter, cache.DefaultExpiration)

	return limiter.Allow()
}

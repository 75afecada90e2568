// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ratelimit

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/bitmark-inc/rpccache/fault"
)

// Limit - limiting for a single management call
func Limit(limiter *rate.Limiter) error {
	return wait(limiter, 1)
}

// LimitN - limiting for a call covering count items, e.g. a batch of
// burnt tokens
//
// an out of range count is still charged as a single call before
// fault.InvalidCount is returned
func LimitN(limiter *rate.Limiter, count int, maximumCount int) error {
	if count <= 0 || count > maximumCount {
		if err := wait(limiter, 1); nil != err {
			return err
		}
		return fault.InvalidCount
	}
	return wait(limiter, count)
}

// sleep until n tokens are available; more than the burst can never
// be satisfied
func wait(limiter *rate.Limiter, n int) error {
	r := limiter.ReserveN(time.Now(), n)
	if !r.OK() {
		return fault.RateLimiting
	}
	time.Sleep(r.Delay())
	return nil
}

// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package cache - read-through store for JSON-RPC results
//
//  ***** Data Structure *****
//
//  Collection       Key                              Value             ExpiresAfter
//  |___ cache       chain:contract:method:params     RPC result        policy TTL, or never
//  |___ gallery     "all" or creator address         listing items     5m freshness
//  |___ metadata    content URI                      metadata object   1h freshness
//
//  ***** Key *****
//
//    {chainId}:{contractAddress}:{method}:{canonical JSON params}
//
//  the params are re-encoded with sorted object keys so logically
//  equal parameters always produce the same key
//
//  ***** Faults *****
//
//  a storage failure never reaches the caller: reads report Fault,
//  which is handled as a miss, writes become no-ops; both are counted
//  in the errors metric
//
//  ***** Size budget *****
//
//  after every write, and on a timer, the total size of all three
//  collections is compared with the maximum; when over, cache entries
//  are deleted oldest first until the total is at most 80% of the
//  maximum.  Permanent entries count towards the total but are never
//  evicted, so a store dominated by permanent entries can stay above
//  the maximum.
package cache

// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package rpc - this is to setup and handle all of the incoming HTTP
// requests for the cache daemon
//
//   POST /rpc            JSON-RPC 2.0 proxy to the node through the cache
//   POST /cache/rpc      management calls (Cache.Metrics, Cache.Clear, ...)
//   GET  /cache/details  metrics and size as JSON
//   GET  /metrics        Prometheus exposition
//
// the management endpoint uses the standard golang RPC JSON codec so
// net/rpc/jsonrpc clients can be used on the client side
package rpc

// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Caching JSON-RPC proxy daemon
//
// This program forwards JSON-RPC calls to an upstream node and keeps
// the results of read-only calls in a LevelDB store, each with a
// lifetime chosen from the method's class.  A management service
// clears entries and applies burn and transfer invalidations.
package main

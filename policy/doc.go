// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package policy - decide how long each RPC method result is kept
//
// methods are grouped into four ordered classes, the first class
// listing a method wins and unknown methods fall back to short-term.
// A fixed set of state changing or transaction specific methods is
// never cached.
//
// the tables are plain data built from a Configuration so they can
// be replaced when the configuration file changes
package policy

// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package server

import (
	"net/rpc"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/bitmark-inc/rpccache/rpc/management"
)

// Create - an RPC server with the management services registered
func Create(log *logger.L, version string, c management.Handle, hook management.Hook, sw management.Switch) *rpc.Server {

	start := time.Now().UTC()

	server := rpc.NewServer()

	_ = server.Register(management.New(log, start, version, c, hook, sw))

	return server
}

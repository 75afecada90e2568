// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"io"
	"strings"

	"github.com/urfave/cli"

	"github.com/bitmark-inc/rpccache/fault"
	"github.com/bitmark-inc/rpccache/rpc/management"
)

// command line errors
const (
	ErrMissingPattern = fault.InvalidError("pattern is required")
	ErrMissingToken   = fault.InvalidError("token id is required")
	ErrTokenFailed    = fault.ProcessError("token invalidation failed")
)

func runMetrics(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)

	response, err := m.client.Metrics(c.Bool("reset"))
	if nil != err {
		return err
	}
	return printJson(m.w, response)
}

func runSize(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)

	response, err := m.client.Size()
	if nil != err {
		return err
	}
	return printJson(m.w, response)
}

func runDetails(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)

	response, err := m.client.Details()
	if nil != err {
		return err
	}
	return printJson(m.w, response)
}

func runClear(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)

	response, err := m.client.Clear()
	if nil != err {
		return err
	}
	return printJson(m.w, response)
}

func runClearPattern(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)

	pattern := strings.TrimSpace(c.String("pattern"))
	if "" == pattern {
		return ErrMissingPattern
	}

	response, err := m.client.ClearPattern(pattern)
	if nil != err {
		return err
	}
	return printJson(m.w, response)
}

func runBurn(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)

	token := management.BurnToken{
		TokenID: strings.TrimSpace(c.String("token")),
		Creator: strings.TrimSpace(c.String("creator")),
	}
	if "" == token.TokenID {
		return ErrMissingToken
	}

	response, err := m.client.Burn([]management.BurnToken{token})
	if nil != err {
		return err
	}
	return printDeleted(m.w, response)
}

func runTransfer(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)

	token := management.TransferToken{
		TokenID: strings.TrimSpace(c.String("token")),
		From:    strings.TrimSpace(c.String("from")),
		To:      strings.TrimSpace(c.String("to")),
	}
	if "" == token.TokenID {
		return ErrMissingToken
	}

	response, err := m.client.Transfer([]management.TransferToken{token})
	if nil != err {
		return err
	}
	return printDeleted(m.w, response)
}

// print the reply, then fail if any token was rejected
func printDeleted(w io.Writer, reply *management.DeleteReply) error {
	if err := printJson(w, reply); nil != err {
		return err
	}
	if 0 != len(reply.Errors) {
		return ErrTokenFailed
	}
	return nil
}

func runEnable(enabled bool) cli.ActionFunc {
	return func(c *cli.Context) error {
		m := c.App.Metadata["config"].(*metadata)

		response, err := m.client.Enable(enabled)
		if nil != err {
			return err
		}
		return printJson(m.w, response)
	}
}

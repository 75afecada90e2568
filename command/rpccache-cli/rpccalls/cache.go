// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpccalls

import (
	"github.com/bitmark-inc/rpccache/rpc/management"
)

// Metrics - counters, optionally resetting them afterwards
func (client *Client) Metrics(reset bool) (*management.MetricsReply, error) {
	var reply management.MetricsReply
	if err := client.call("Cache.Metrics", management.MetricsArguments{Reset: reset}, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// Size - bytes held by the store
func (client *Client) Size() (*management.SizeReply, error) {
	var reply management.SizeReply
	if err := client.call("Cache.Size", management.SizeArguments{}, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// Clear - empty every collection
func (client *Client) Clear() (*management.ClearReply, error) {
	var reply management.ClearReply
	if err := client.call("Cache.Clear", management.ClearArguments{}, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// ClearPattern - delete the entries whose keys match a glob
func (client *Client) ClearPattern(pattern string) (*management.DeleteReply, error) {
	var reply management.DeleteReply
	if err := client.call("Cache.ClearPattern", management.PatternArguments{Pattern: pattern}, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// Burn - apply the burn rule for each token
func (client *Client) Burn(tokens []management.BurnToken) (*management.DeleteReply, error) {
	var reply management.DeleteReply
	if err := client.call("Cache.Burn", management.BurnArguments{Tokens: tokens}, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// Transfer - apply the transfer rule for each token
func (client *Client) Transfer(tokens []management.TransferToken) (*management.DeleteReply, error) {
	var reply management.DeleteReply
	if err := client.call("Cache.Transfer", management.TransferArguments{Tokens: tokens}, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// Enable - switch caching on or off
func (client *Client) Enable(enabled bool) (*management.EnableReply, error) {
	var reply management.EnableReply
	if err := client.call("Cache.Enable", management.EnableArguments{Enabled: enabled}, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// Details - the details endpoint, decoded without a fixed schema
func (client *Client) Details() (map[string]interface{}, error) {
	var reply map[string]interface{}
	if err := client.get(detailsPath, &reply); err != nil {
		return nil, err
	}
	return reply, nil
}

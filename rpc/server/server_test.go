// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package server_test

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/logger"
	"github.com/bitmark-inc/rpccache/cache"
	"github.com/bitmark-inc/rpccache/fault"
	"github.com/bitmark-inc/rpccache/invalidate"
	"github.com/bitmark-inc/rpccache/policy"
	"github.com/bitmark-inc/rpccache/provider"
	"github.com/bitmark-inc/rpccache/rpc/fixtures"
	"github.com/bitmark-inc/rpccache/rpc/management"
	"github.com/bitmark-inc/rpccache/rpc/server"
	"github.com/bitmark-inc/rpccache/storage"
)

var (
	port      string
	testCache *cache.Cache
)

func TestMain(m *testing.M) {
	fixtures.SetupTestLogger()

	store, err := storage.OpenMemory()
	if nil != err {
		fmt.Printf("store error: %s\n", err)
		os.Exit(1)
	}
	c, err := cache.New(store, policy.Default(), nil)
	if nil != err {
		fmt.Printf("cache error: %s\n", err)
		os.Exit(1)
	}
	testCache = c
	p := provider.New(c, nil, nil)
	hook := invalidate.New(c, nil)

	port = fmt.Sprintf("127.0.0.1:%d", rand.Intn(30000)+30000) // 30,000 - 60,000
	r := server.Create(logger.New(fixtures.LogCategory), "1.0", c, hook, p)
	l, err := net.Listen("tcp", port)
	if nil != err {
		fmt.Printf("listen error: %s\n", err)
		os.Exit(1)
	}

	go func() {
		for {
			conn, err := l.Accept()
			if nil != err {
				return
			}
			go r.ServeCodec(jsonrpc.NewServerCodec(conn))
		}
	}()

	rc := m.Run()

	_ = l.Close()
	c.Close()
	store.Close()
	fixtures.TeardownTestLogger()

	os.Exit(rc)
}

func dial(t *testing.T) *rpc.Client {
	conn, err := net.Dial("tcp", port)
	if nil != err {
		t.Fatalf("dial error: %s", err)
	}
	return jsonrpc.NewClient(conn)
}

// following tests make sure the management methods are registered
// under the "Cache" service name used by the command line client

func TestCacheMetrics(t *testing.T) {
	client := dial(t)
	defer client.Close()

	var reply management.MetricsReply
	err := client.Call("Cache.Metrics", management.MetricsArguments{}, &reply)
	assert.Nil(t, err, "wrong Cache.Metrics")
	assert.True(t, reply.Enabled, "cache should start enabled")
	assert.Equal(t, "1.0", reply.Version, "wrong version")
}

func TestCacheSize(t *testing.T) {
	client := dial(t)
	defer client.Close()

	var reply management.SizeReply
	err := client.Call("Cache.Size", management.SizeArguments{}, &reply)
	assert.Nil(t, err, "wrong Cache.Size")
	assert.Equal(t, "0 B", reply.Formatted, "wrong formatted size")
}

func TestCacheClearPattern(t *testing.T) {
	client := dial(t)
	defer client.Close()

	var reply management.DeleteReply
	err := client.Call("Cache.ClearPattern", management.PatternArguments{Pattern: "*:tokenURI:*"}, &reply)
	assert.Nil(t, err, "wrong Cache.ClearPattern")
	assert.Equal(t, 0, reply.Deleted, "wrong count")

	err = client.Call("Cache.ClearPattern", management.PatternArguments{}, &reply)
	assert.NotNil(t, err, "empty pattern accepted")
	assert.Equal(t, fault.MissingParameters.Error(), err.Error(), "wrong error")
}

func TestCacheBurn(t *testing.T) {
	client := dial(t)
	defer client.Close()

	arg := management.BurnArguments{
		Tokens: []management.BurnToken{
			{TokenID: "42", Creator: "0xABC"},
		},
	}
	var reply management.DeleteReply
	err := client.Call("Cache.Burn", arg, &reply)
	assert.Nil(t, err, "wrong Cache.Burn")
}

func TestCacheBurnWhenOneTokenFails(t *testing.T) {
	client := dial(t)
	defer client.Close()

	key, err := testCache.Key("totalSupply", nil, "0xC0")
	assert.Nil(t, err, "wrong key error")
	testCache.Set(key, json.RawMessage(`"0x10"`), "totalSupply")

	arg := management.BurnArguments{
		Tokens: []management.BurnToken{
			{TokenID: "*", Creator: "0xABC"},
			{TokenID: "42", Creator: "0xABC"},
		},
	}
	var reply management.DeleteReply
	err = client.Call("Cache.Burn", arg, &reply)
	assert.Nil(t, err, "wrong Cache.Burn")
	assert.Equal(t, 1, reply.Deleted, "deletions of the valid token lost")
	assert.Equal(t, []string{`token: "*"  error: invalid event value`}, reply.Errors, "wrong token errors")

	arg2 := management.TransferArguments{
		Tokens: []management.TransferToken{
			{TokenID: "7", From: "0xAAA", To: "nowhere"},
		},
	}
	reply = management.DeleteReply{}
	err = client.Call("Cache.Transfer", arg2, &reply)
	assert.Nil(t, err, "wrong Cache.Transfer")
	assert.Equal(t, 0, reply.Deleted, "wrong transfer count")
	assert.Equal(t, 1, len(reply.Errors), "wrong transfer errors")
}

func TestCacheUnknownMethod(t *testing.T) {
	client := dial(t)
	defer client.Close()

	var reply management.DeleteReply
	err := client.Call("Cache.Nothing", management.PatternArguments{}, &reply)
	assert.NotNil(t, err, "unknown method accepted")
}

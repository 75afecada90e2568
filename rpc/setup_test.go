// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpc_test

import (
	"bytes"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/rpccache/cache"
	"github.com/bitmark-inc/rpccache/fault"
	"github.com/bitmark-inc/rpccache/invalidate"
	"github.com/bitmark-inc/rpccache/policy"
	"github.com/bitmark-inc/rpccache/provider"
	"github.com/bitmark-inc/rpccache/rpc"
	"github.com/bitmark-inc/rpccache/rpc/fixtures"
	"github.com/bitmark-inc/rpccache/rpc/listeners"
	"github.com/bitmark-inc/rpccache/storage"
	"github.com/bitmark-inc/rpccache/upstream"
)

func postJSON(t *testing.T, url string, body string) []byte {
	resp, err := http.Post(url, "application/json", bytes.NewReader([]byte(body)))
	if nil != err {
		t.Fatalf("post: %s  error: %s", url, err)
	}
	defer resp.Body.Close()
	data, _ := ioutil.ReadAll(resp.Body)
	return data
}

func TestInitialise(t *testing.T) {
	fixtures.SetupTestLogger()
	defer fixtures.TeardownTestLogger()

	hits := int32(0)
	node := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":"0x52d1"}`))
	}))
	defer node.Close()

	store, err := storage.OpenMemory()
	assert.Nil(t, err, "wrong store error")
	defer store.Close()

	c, err := cache.New(store, policy.Default(), nil)
	assert.Nil(t, err, "wrong cache error")
	defer c.Close()

	u, err := upstream.New(&upstream.Configuration{URLs: []string{node.URL}})
	assert.Nil(t, err, "wrong upstream error")

	services := &rpc.Services{
		Cache:    c,
		Provider: provider.New(c, u, nil),
		Hook:     invalidate.New(c, nil),
	}

	listen := fmt.Sprintf("127.0.0.1:%d", rand.Intn(30000)+30000)
	conf := &listeners.HTTPSConfiguration{
		MaximumConnections: 10,
		Listen:             []string{listen},
		Allow: map[string][]string{
			"rpc": {"127.0.0.1/32"},
		},
	}

	err = rpc.Initialise(conf, services, "1.0")
	assert.Nil(t, err, "wrong Initialise")

	err = rpc.Initialise(conf, services, "1.0")
	assert.Equal(t, fault.AlreadyInitialised, err, "second Initialise accepted")

	time.Sleep(10 * time.Millisecond)
	base := "http://" + listen

	for i := 0; i < 3; i++ {
		data := postJSON(t, base+"/rpc", `{"jsonrpc":"2.0","id":1,"method":"eth_chainId"}`)
		assert.JSONEq(t, `{"jsonrpc":"2.0","id":1,"result":"0x52d1"}`, string(data), "%d: wrong proxy reply", i)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits), "repeated call should be answered from the cache")

	data := postJSON(t, base+"/cache/rpc", `{"id":1,"method":"Cache.Metrics","params":[{}]}`)
	var reply struct {
		Result struct {
			Metrics cache.Metrics `json:"metrics"`
		} `json:"result"`
		Error interface{} `json:"error"`
	}
	err = json.Unmarshal(data, &reply)
	assert.Nil(t, err, "wrong management reply: %s", data)
	assert.Nil(t, reply.Error, "wrong management error")
	assert.Equal(t, uint64(2), reply.Result.Metrics.Hits, "wrong hits")
	assert.Equal(t, uint64(1), reply.Result.Metrics.Misses, "wrong misses")

	err = rpc.Finalise()
	assert.Nil(t, err, "wrong Finalise")

	err = rpc.Finalise()
	assert.Equal(t, fault.NotInitialised, err, "second Finalise accepted")
}

func newServices(t *testing.T) (*rpc.Services, func()) {
	store, err := storage.OpenMemory()
	assert.Nil(t, err, "wrong store error")
	c, err := cache.New(store, policy.Default(), nil)
	assert.Nil(t, err, "wrong cache error")
	u, err := upstream.New(&upstream.Configuration{URLs: []string{"http://127.0.0.1:1"}})
	assert.Nil(t, err, "wrong upstream error")

	services := &rpc.Services{
		Cache:    c,
		Provider: provider.New(c, u, nil),
		Hook:     invalidate.New(c, nil),
	}
	return services, func() {
		c.Close()
		store.Close()
	}
}

func TestInitialiseWithCertificateFiles(t *testing.T) {
	fixtures.SetupTestLogger()
	defer fixtures.TeardownTestLogger()

	services, done := newServices(t)
	defer done()

	listen := fmt.Sprintf("127.0.0.1:%d", rand.Intn(30000)+30000)
	conf := &listeners.HTTPSConfiguration{
		MaximumConnections: 10,
		Listen:             []string{listen},
		Certificate:        "fixtures/rpc.crt",
		PrivateKey:         "fixtures/rpc.key",
		Allow: map[string][]string{
			"details": {"127.0.0.1/32"},
		},
	}

	err := rpc.Initialise(conf, services, "1.0")
	assert.Nil(t, err, "wrong Initialise")
	defer rpc.Finalise()

	time.Sleep(10 * time.Millisecond)

	client := &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
		Timeout: 5 * time.Second,
	}
	resp, err := client.Get("https://" + listen + "/cache/details")
	if assert.Nil(t, err, "wrong https get") {
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, "wrong status")
		assert.NotNil(t, resp.TLS, "connection not encrypted")
	}
}

func TestInitialiseWhenCertificateFileMissing(t *testing.T) {
	fixtures.SetupTestLogger()
	defer fixtures.TeardownTestLogger()

	services, done := newServices(t)
	defer done()

	conf := &listeners.HTTPSConfiguration{
		MaximumConnections: 10,
		Listen:             []string{"127.0.0.1:1"},
		Certificate:        "fixtures/missing.crt",
		PrivateKey:         "fixtures/rpc.key",
	}
	err := rpc.Initialise(conf, services, "1.0")
	assert.NotNil(t, err, "missing certificate file accepted")

	conf.Certificate = "fixtures/rpc.crt"
	conf.PrivateKey = ""
	err = rpc.Initialise(conf, services, "1.0")
	assert.Equal(t, fault.MissingParameters, err, "missing private key accepted")
}

func TestInitialiseWhenMissingServices(t *testing.T) {
	fixtures.SetupTestLogger()
	defer fixtures.TeardownTestLogger()

	err := rpc.Initialise(&listeners.HTTPSConfiguration{}, &rpc.Services{}, "1.0")
	assert.Equal(t, fault.MissingParameters, err, "wrong error")
}

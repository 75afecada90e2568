// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
)

func newManagementServer(t *testing.T, methods *[]string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := ioutil.ReadAll(r.Body)
		method := jsoniter.Get(body, "method").ToString()
		*methods = append(*methods, method)

		switch method {
		case "Cache.Burn", "Cache.ClearPattern":
			_, _ = w.Write([]byte(`{"id":1,"result":{"deleted":3},"error":null}`))
		case "Cache.Transfer":
			_, _ = w.Write([]byte(`{"id":1,"result":{"deleted":1,"errors":["token: \"*\"  error: invalid event value"]},"error":null}`))
		case "Cache.Enable":
			enabled := jsoniter.Get(body, "params", 0, "enabled").ToBool()
			if enabled {
				_, _ = w.Write([]byte(`{"id":1,"result":{"enabled":true},"error":null}`))
			} else {
				_, _ = w.Write([]byte(`{"id":1,"result":{"enabled":false},"error":null}`))
			}
		default:
			_, _ = w.Write([]byte(`{"id":1,"result":null,"error":"rpc: can't find method ` + method + `"}`))
		}
	}))
}

func run(t *testing.T, arguments ...string) (string, error) {
	out := &bytes.Buffer{}
	app := newApp(out, ioutil.Discard)
	err := app.Run(append([]string{"rpccache-cli"}, arguments...))
	return out.String(), err
}

func TestCommands(t *testing.T) {
	methods := []string{}
	s := newManagementServer(t, &methods)
	defer s.Close()

	out, err := run(t, "--connect", s.URL, "burn", "--token", "42", "--creator", "0xABC")
	assert.Nil(t, err, "wrong burn error")
	assert.JSONEq(t, `{"deleted":3}`, out, "wrong burn output")

	out, err = run(t, "--connect", s.URL, "clear-pattern", "-p", "*:totalSupply:*")
	assert.Nil(t, err, "wrong clear-pattern error")
	assert.JSONEq(t, `{"deleted":3}`, out, "wrong clear-pattern output")

	out, err = run(t, "--connect", s.URL, "disable")
	assert.Nil(t, err, "wrong disable error")
	assert.JSONEq(t, `{"enabled":false}`, out, "wrong disable output")

	out, err = run(t, "--connect", s.URL, "enable")
	assert.Nil(t, err, "wrong enable error")
	assert.JSONEq(t, `{"enabled":true}`, out, "wrong enable output")

	_, err = run(t, "--connect", s.URL, "size")
	assert.NotNil(t, err, "remote error not returned")

	assert.Equal(t, []string{"Cache.Burn", "Cache.ClearPattern", "Cache.Enable", "Cache.Enable", "Cache.Size"}, methods, "wrong calls")
}

func TestCommandsWhenMissingArguments(t *testing.T) {
	methods := []string{}
	s := newManagementServer(t, &methods)
	defer s.Close()

	_, err := run(t, "--connect", s.URL, "burn", "--creator", "0xABC")
	assert.Equal(t, ErrMissingToken, err, "burn without token accepted")

	_, err = run(t, "--connect", s.URL, "transfer")
	assert.Equal(t, ErrMissingToken, err, "transfer without token accepted")

	_, err = run(t, "--connect", s.URL, "clear-pattern")
	assert.Equal(t, ErrMissingPattern, err, "clear-pattern without pattern accepted")

	assert.Equal(t, 0, len(methods), "server called with missing arguments")
}

func TestTransferWhenTokenFails(t *testing.T) {
	methods := []string{}
	s := newManagementServer(t, &methods)
	defer s.Close()

	out, err := run(t, "--connect", s.URL, "transfer", "--token", "*", "--from", "0xAAA", "--to", "0xBBB")
	assert.Equal(t, ErrTokenFailed, err, "token failure not reported")
	assert.JSONEq(t, `{"deleted":1,"errors":["token: \"*\"  error: invalid event value"]}`, out, "wrong transfer output")
}

// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpccalls

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/bitmark-inc/rpccache/counter"
	"github.com/bitmark-inc/rpccache/fault"
)

const (
	managementPath = "/cache/rpc"
	detailsPath    = "/cache/details"
)

// errors reported by the remote side
const (
	ErrRemoteCall   = fault.ProcessError("remote call failed")
	ErrRemoteStatus = fault.ProcessError("unexpected HTTP status")
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Client - to hold the daemon address and HTTP transport
type Client struct {
	base    string
	client  *http.Client
	verbose bool
	handle  io.Writer // if verbose is set output items here
	id      counter.Counter
}

type request struct {
	ID     uint64        `json:"id"`
	Method string        `json:"method"`
	Params []interface{} `json:"params"`
}

type reply struct {
	ID     uint64              `json:"id"`
	Result jsoniter.RawMessage `json:"result"`
	Error  interface{}         `json:"error"`
}

// NewClient - create a client for an rpccached management endpoint
//
// connect is a base URL such as https://127.0.0.1:8645
func NewClient(connect string, insecure bool, timeout time.Duration, verbose bool, handle io.Writer) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{
		InsecureSkipVerify: insecure,
	}

	return &Client{
		base: strings.TrimRight(connect, "/"),
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		verbose: verbose,
		handle:  handle,
	}
}

// one request on the management service
func (c *Client) call(method string, arguments interface{}, result interface{}) error {
	body, err := json.Marshal(request{
		ID:     c.id.Increment(),
		Method: method,
		Params: []interface{}{arguments},
	})
	if nil != err {
		return err
	}

	if c.verbose {
		fmt.Fprintf(c.handle, "request: %s\n", body)
	}

	response, err := c.client.Post(c.base+managementPath, "application/json", bytes.NewReader(body))
	if nil != err {
		return err
	}
	defer response.Body.Close()

	data, err := c.read(response)
	if nil != err {
		return err
	}

	var r reply
	err = json.Unmarshal(data, &r)
	if nil != err {
		return err
	}
	if nil != r.Error {
		return fmt.Errorf("%w: %v", ErrRemoteCall, r.Error)
	}
	return json.Unmarshal(r.Result, result)
}

// GET a JSON document
func (c *Client) get(path string, result interface{}) error {
	response, err := c.client.Get(c.base + path)
	if nil != err {
		return err
	}
	defer response.Body.Close()

	data, err := c.read(response)
	if nil != err {
		return err
	}
	return json.Unmarshal(data, result)
}

func (c *Client) read(response *http.Response) ([]byte, error) {
	data, err := ioutil.ReadAll(response.Body)
	if nil != err {
		return nil, err
	}

	if c.verbose {
		fmt.Fprintf(c.handle, "status: %d  reply: %s\n", response.StatusCode, data)
	}

	if http.StatusOK != response.StatusCode {
		return nil, fmt.Errorf("%w: %s", ErrRemoteStatus, response.Status)
	}
	return data, nil
}

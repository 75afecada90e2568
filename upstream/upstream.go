// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package upstream - JSON-RPC 2.0 client for the blockchain node
//
// requests are POSTed to the first working URL from the configured
// list; a transport failure moves on to the next URL and the one that
// answers becomes the first choice for later calls.  A JSON-RPC error
// object in a reply is the node's answer and is not retried.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"sync/atomic"
	"time"

	jsoniter "github.com/json-iterator/go"
	"golang.org/x/time/rate"

	"github.com/bitmark-inc/logger"
	"github.com/bitmark-inc/rpccache/counter"
	"github.com/bitmark-inc/rpccache/fault"
)

const (
	jsonRPCVersion = "2.0"

	// replies larger than this are rejected
	maximumReplySize = 16 * 1024 * 1024

	defaultTimeout           = "30s"
	defaultRequestsPerSecond = 25
	defaultBurst             = 50
)

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// Configuration - the "upstream" section of the configuration file
type Configuration struct {
	URLs              []string `gluamapper:"urls" json:"urls"`
	Timeout           string   `gluamapper:"timeout" json:"timeout"`
	RequestsPerSecond float64  `gluamapper:"requests_per_second" json:"requests_per_second"`
	Burst             int      `gluamapper:"burst" json:"burst"`
}

// DefaultConfiguration - no URLs, these must come from the configuration file
func DefaultConfiguration() *Configuration {
	return &Configuration{
		URLs:              []string{},
		Timeout:           defaultTimeout,
		RequestsPerSecond: defaultRequestsPerSecond,
		Burst:             defaultBurst,
	}
}

// Error - a JSON-RPC error object returned by the node
type Error struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

type request struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      uint64      `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
}

type reply struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *Error          `json:"error"`
}

// Client - upstream connection
type Client struct {
	log     *logger.L
	urls    []string
	client  *http.Client
	limiter *rate.Limiter

	// index into urls of the last URL that answered
	preferred int32

	id counter.Counter
}

// New - create a client
func New(conf *Configuration) (*Client, error) {
	if nil == conf || 0 == len(conf.URLs) {
		return nil, fault.MissingUpstream
	}

	timeout := conf.Timeout
	if "" == timeout {
		timeout = defaultTimeout
	}
	d, err := time.ParseDuration(timeout)
	if nil != err || d <= 0 {
		return nil, fmt.Errorf("%w: upstream.timeout: %q", fault.InvalidDuration, timeout)
	}

	perSecond := conf.RequestsPerSecond
	if perSecond <= 0 {
		perSecond = defaultRequestsPerSecond
	}
	burst := conf.Burst
	if burst <= 0 {
		burst = defaultBurst
	}

	log := logger.New("upstream")
	for i, u := range conf.URLs {
		log.Infof("url[%d]: %s", i, u)
	}

	return &Client{
		log:  log,
		urls: append([]string(nil), conf.URLs...),
		client: &http.Client{
			Timeout: d,
		},
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}, nil
}

// Call - perform one JSON-RPC request
//
// returns the raw result, an *Error for a JSON-RPC error reply, or an
// error wrapping fault.UpstreamCallFailed when no URL could be used
func (c *Client) Call(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	err := c.limiter.Wait(ctx)
	if nil != err {
		return nil, fmt.Errorf("%w: %s", fault.RateLimiting, err)
	}

	if nil == params {
		params = []interface{}{}
	}
	body, err := codec.Marshal(request{
		JSONRPC: jsonRPCVersion,
		ID:      c.id.Increment(),
		Method:  method,
		Params:  params,
	})
	if nil != err {
		return nil, err
	}

	start := int(atomic.LoadInt32(&c.preferred))
	var lastErr error

	for i := 0; i < len(c.urls); i += 1 {
		n := (start + i) % len(c.urls)

		result, err := c.post(ctx, c.urls[n], body)
		if nil == err {
			if n != start {
				c.log.Infof("switched to url[%d]: %s", n, c.urls[n])
				atomic.StoreInt32(&c.preferred, int32(n))
			}
			return result, nil
		}

		if rpcErr, ok := err.(*Error); ok {
			return nil, rpcErr
		}

		lastErr = err
		c.log.Warnf("method: %s  url[%d]: %s  error: %s", method, n, c.urls[n], err)

		if nil != ctx.Err() {
			break
		}
	}
	return nil, fmt.Errorf("%w: %s", fault.UpstreamCallFailed, lastErr)
}

func (c *Client) post(ctx context.Context, url string, body []byte) (json.RawMessage, error) {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if nil != err {
		return nil, err
	}
	req = req.WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	response, err := c.client.Do(req)
	if nil != err {
		return nil, err
	}
	defer response.Body.Close()

	data, err := ioutil.ReadAll(io.LimitReader(response.Body, maximumReplySize+1))
	if nil != err {
		return nil, err
	}
	if len(data) > maximumReplySize {
		return nil, fmt.Errorf("%w: reply exceeds %d bytes", fault.UpstreamReplyInvalid, maximumReplySize)
	}

	// nodes report JSON-RPC errors with any status, only trust the body
	var r reply
	err = codec.Unmarshal(data, &r)
	if nil != err {
		if http.StatusOK != response.StatusCode {
			return nil, fmt.Errorf("status: %d %q", response.StatusCode, response.Status)
		}
		return nil, fmt.Errorf("%w: %s", fault.UpstreamReplyInvalid, err)
	}
	if nil != r.Error {
		return nil, r.Error
	}
	if http.StatusOK != response.StatusCode {
		return nil, fmt.Errorf("status: %d %q", response.StatusCode, response.Status)
	}
	if nil == r.Result {
		return json.RawMessage("null"), nil
	}
	return r.Result, nil
}

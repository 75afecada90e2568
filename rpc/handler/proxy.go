// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"io/ioutil"
	"net/http"

	"github.com/bitmark-inc/rpccache/fault"
	"github.com/bitmark-inc/rpccache/upstream"
)

const (
	jsonRPCVersion = "2.0"

	maximumRequestSize = 1024 * 1024
	maximumBatchSize   = 100
)

// JSON-RPC 2.0 error codes
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeInternalError  = -32603
	codeServerError    = -32000
	codeLimitExceeded  = -32005
)

type proxyRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

type proxyError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type proxyReply struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *proxyError     `json:"error,omitempty"`
}

var null = json.RawMessage("null")

// Proxy - JSON-RPC 2.0 endpoint forwarding to the node through the cache
//
// accepts a single request object or a batch array; notifications
// (requests without an id) are forwarded but get no reply
func (h *handler) Proxy(w http.ResponseWriter, r *http.Request) {
	if http.MethodPost != r.Method {
		sendMethodNotAllowed(w)
		return
	}

	if !h.clients.allow(r.RemoteAddr) {
		h.log.Debugf("rate limited: %q", r.RemoteAddr)
		sendTooManyRequests(w)
		return
	}

	if h.connections.Increment() > h.maximumConnections {
		h.connections.Decrement()
		sendTooManyRequests(w)
		return
	}
	defer h.connections.Decrement()

	body, err := ioutil.ReadAll(io.LimitReader(r.Body, maximumRequestSize+1))
	if nil != err {
		sendInternalServerError(w)
		return
	}
	if len(body) > maximumRequestSize {
		sendRequestTooLarge(w)
		return
	}

	body = bytes.TrimSpace(body)
	if 0 == len(body) {
		sendRPCError(w, codeParseError, "parse error")
		return
	}

	if '[' != body[0] {
		var req proxyRequest
		if err := codec.Unmarshal(body, &req); nil != err {
			sendRPCError(w, codeParseError, "parse error")
			return
		}
		reply := h.forward(r, &req)
		if nil == reply {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		sendReply(w, reply)
		return
	}

	var batch []json.RawMessage
	if err := codec.Unmarshal(body, &batch); nil != err {
		sendRPCError(w, codeParseError, "parse error")
		return
	}
	if 0 == len(batch) {
		sendRPCError(w, codeInvalidRequest, "empty batch")
		return
	}
	if len(batch) > maximumBatchSize {
		sendRPCError(w, codeInvalidRequest, "batch too large")
		return
	}

	replies := make([]*proxyReply, 0, len(batch))
	for _, item := range batch {
		var req proxyRequest
		if err := codec.Unmarshal(item, &req); nil != err {
			replies = append(replies, errorReply(null, codeInvalidRequest, "invalid request"))
			continue
		}
		if reply := h.forward(r, &req); nil != reply {
			replies = append(replies, reply)
		}
	}

	if 0 == len(replies) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	sendReply(w, replies)
}

// perform one request, nil reply for a notification
func (h *handler) forward(r *http.Request, req *proxyRequest) *proxyReply {
	id := req.ID
	notification := nil == id

	if jsonRPCVersion != req.JSONRPC || "" == req.Method {
		if notification {
			return nil
		}
		return errorReply(id, codeInvalidRequest, "invalid request")
	}

	// absent or null params reach the node as an empty list
	var params interface{}
	if 0 != len(req.Params) && "null" != string(req.Params) {
		params = req.Params
	}

	result, err := h.sender.Send(r.Context(), req.Method, params)
	if notification {
		return nil
	}
	if nil != err {
		return h.errorFor(id, req.Method, err)
	}
	if nil == result {
		result = null
	}
	return &proxyReply{
		JSONRPC: jsonRPCVersion,
		ID:      id,
		Result:  result,
	}
}

// map a send failure to a JSON-RPC error object
func (h *handler) errorFor(id json.RawMessage, method string, err error) *proxyReply {
	var rpcErr *upstream.Error
	if errors.As(err, &rpcErr) {
		return &proxyReply{
			JSONRPC: jsonRPCVersion,
			ID:      id,
			Error: &proxyError{
				Code:    rpcErr.Code,
				Message: rpcErr.Message,
				Data:    rpcErr.Data,
			},
		}
	}

	h.log.Warnf("method: %s  error: %s", method, err)

	switch {
	case errors.Is(err, fault.RateLimiting):
		return errorReply(id, codeLimitExceeded, err.Error())
	case errors.Is(err, fault.UpstreamCallFailed), errors.Is(err, fault.UpstreamReplyInvalid):
		return errorReply(id, codeServerError, err.Error())
	default:
		return errorReply(id, codeInternalError, "internal error")
	}
}

func errorReply(id json.RawMessage, code int, message string) *proxyReply {
	if nil == id {
		id = null
	}
	return &proxyReply{
		JSONRPC: jsonRPCVersion,
		ID:      id,
		Error: &proxyError{
			Code:    code,
			Message: message,
		},
	}
}

// a request level error, always HTTP 200 as JSON-RPC requires
func sendRPCError(w http.ResponseWriter, code int, message string) {
	sendReply(w, errorReply(null, code, message))
}

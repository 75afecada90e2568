// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package handler

//go:generate mockgen -source=handler.go -destination=mocks/handler.go -package=mocks

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/rpc"
	"net/rpc/jsonrpc"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/bitmark-inc/logger"
	"github.com/bitmark-inc/rpccache/cache"
	"github.com/bitmark-inc/rpccache/counter"
	"github.com/bitmark-inc/rpccache/util"
)

// allow list keys
const (
	allowRPC     = "rpc"
	allowDetails = "details"
	allowMetrics = "metrics"
)

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// Handler - the HTTP endpoints
type Handler interface {
	Proxy(http.ResponseWriter, *http.Request)
	RPC(http.ResponseWriter, *http.Request)
	Details(http.ResponseWriter, *http.Request)
	Metrics(http.ResponseWriter, *http.Request)
	Root(http.ResponseWriter, *http.Request)
	SetAllow(map[string][]*net.IPNet)
}

// Sender - forwards one JSON-RPC call, answering from the cache when possible
type Sender interface {
	Send(ctx context.Context, method string, params interface{}) (json.RawMessage, error)
}

// Source - cache state reported by details and metrics
type Source interface {
	Metrics() cache.Metrics
	TotalSize() (uint64, error)
	Available() bool
}

// InternalConnection - to allow rpc system to interface to http request
type InternalConnection struct {
	in  io.Reader
	out io.Writer
}

func (c *InternalConnection) Read(p []byte) (n int, err error) {
	return c.in.Read(p)
}
func (c *InternalConnection) Write(d []byte) (n int, err error) {
	return c.out.Write(d)
}
func (c *InternalConnection) Close() error {
	return nil
}

// the argument passed to the handlers
type handler struct {
	sync.RWMutex
	log                *logger.L
	server             *rpc.Server
	sender             Sender
	source             Source
	start              time.Time
	version            string
	allow              map[string][]*net.IPNet
	maximumConnections uint64
	connections        counter.Counter
	clients            *clientLimiters
	metrics            http.Handler
}

// New - create the handlers
//
// a nil limits disables per-client rate limiting of the proxy
func New(
	log *logger.L,
	server *rpc.Server,
	sender Sender,
	source Source,
	start time.Time,
	version string,
	maximumConnections uint64,
	limits *ClientLimits,
) Handler {
	return &handler{
		log:                log,
		server:             server,
		sender:             sender,
		source:             source,
		start:              start,
		version:            version,
		allow:              make(map[string][]*net.IPNet),
		maximumConnections: maximumConnections,
		clients:            newClientLimiters(limits),
		metrics:            newMetricsHandler(source),
	}
}

// SetAllow - replace the access control lists
func (h *handler) SetAllow(allow map[string][]*net.IPNet) {
	h.Lock()
	h.allow = allow
	h.Unlock()
}

// this matches anything not matched and returns error
func (h *handler) Root(w http.ResponseWriter, r *http.Request) {
	sendNotFound(w)
}

// RPC - management calls over net/rpc with the JSON codec
func (h *handler) RPC(w http.ResponseWriter, r *http.Request) {
	if http.MethodPost != r.Method {
		sendMethodNotAllowed(w)
		return
	}

	if !h.isAllowed(allowRPC, r) {
		sendForbidden(w)
		return
	}

	if h.connections.Increment() > h.maximumConnections {
		h.connections.Decrement()
		sendTooManyRequests(w)
		return
	}
	defer h.connections.Decrement()

	serverCodec := jsonrpc.NewServerCodec(&InternalConnection{in: r.Body, out: w})
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	err := h.server.ServeRequest(serverCodec)
	if nil != err {
		h.log.Debugf("rpc serve error: %s", err)
		sendInternalServerError(w)
		return
	}
}

// Details - to allow a GET of the cache state
func (h *handler) Details(w http.ResponseWriter, r *http.Request) {
	if http.MethodGet != r.Method {
		sendMethodNotAllowed(w)
		return
	}

	if !h.isAllowed(allowDetails, r) {
		sendForbidden(w)
		return
	}

	if h.connections.Increment() > h.maximumConnections {
		h.connections.Decrement()
		sendTooManyRequests(w)
		return
	}
	defer h.connections.Decrement()

	type size struct {
		Bytes     uint64 `json:"bytes,string"`
		Formatted string `json:"formatted"`
	}
	type theReply struct {
		Available   bool          `json:"available"`
		Metrics     cache.Metrics `json:"metrics"`
		Size        size          `json:"size"`
		Connections uint64        `json:"connections"`
		Version     string        `json:"version"`
		Uptime      string        `json:"uptime"`
	}

	n, err := h.source.TotalSize()
	if nil != err {
		h.log.Errorf("total size error: %s", err)
		sendInternalServerError(w)
		return
	}

	reply := theReply{
		Available: h.source.Available(),
		Metrics:   h.source.Metrics(),
		Size: size{
			Bytes:     n,
			Formatted: util.FormatBytes(n),
		},
		Connections: h.connections.Uint64(),
		Version:     h.version,
		Uptime:      time.Since(h.start).String(),
	}

	sendReply(w, reply)
}

// Metrics - Prometheus text exposition of the cache counters
func (h *handler) Metrics(w http.ResponseWriter, r *http.Request) {
	if http.MethodGet != r.Method {
		sendMethodNotAllowed(w)
		return
	}

	if !h.isAllowed(allowMetrics, r) {
		sendForbidden(w)
		return
	}

	h.metrics.ServeHTTP(w, r)
}

// check the request's source address against a named allow list
func (h *handler) isAllowed(name string, r *http.Request) bool {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if nil != err {
		host = r.RemoteAddr
	}
	ip := net.ParseIP(host)
	if nil != ip {
		h.RLock()
		set := h.allow[name]
		h.RUnlock()
		for _, cidr := range set {
			if cidr.Contains(ip) {
				return true
			}
		}
	}
	h.log.Warnf("Deny access: %q  to: %s", r.RemoteAddr, name)
	return false
}

// send an JSON encoded reply
func sendReply(w http.ResponseWriter, data interface{}) {
	text, err := codec.Marshal(data)
	if nil != err {
		sendInternalServerError(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(text)
}

// selected errors as required above
func sendNotFound(w http.ResponseWriter) {
	sendError(w, "not found", http.StatusNotFound)
}
func sendMethodNotAllowed(w http.ResponseWriter) {
	sendError(w, "method not allowed", http.StatusMethodNotAllowed)
}
func sendForbidden(w http.ResponseWriter) {
	sendError(w, "forbidden", http.StatusForbidden)
}
func sendTooManyRequests(w http.ResponseWriter) {
	sendError(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
}
func sendRequestTooLarge(w http.ResponseWriter) {
	sendError(w, "request too large", http.StatusRequestEntityTooLarge)
}
func sendInternalServerError(w http.ResponseWriter) {
	sendError(w, "internal server error", http.StatusInternalServerError)
}

// to compose JSON error messages
type eType struct {
	Code  int    `json:"code"`
	Error string `json:"error"`
}

// output an error with a JSON body
func sendError(w http.ResponseWriter, message string, code int) {
	text, err := codec.Marshal(eType{
		Code:  code,
		Error: message,
	})
	if nil != err {
		// manually composed error just incase JSON fails
		http.Error(w, `{"code":500,"error":"Internal Server Error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(code)
	_, _ = w.Write(text)
}

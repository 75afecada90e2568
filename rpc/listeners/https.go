// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package listeners

import (
	"crypto/tls"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/bitmark-inc/rpccache/fault"
	"github.com/bitmark-inc/rpccache/rpc/handler"
)

const (
	httpsLogName       = "http_rpc"
	minConnectionCount = 1
	readWriteTimeout   = 30 * time.Second
	keepAlivePeriod    = 3 * time.Minute
)

// HTTPSConfiguration - configuration file data for HTTP(S) setup
//
// certificate and private key are PEM file names; leaving both empty
// serves plain HTTP
type HTTPSConfiguration struct {
	MaximumConnections uint64               `gluamapper:"maximum_connections" json:"maximum_connections"`
	Listen             []string             `gluamapper:"listen" json:"listen"`
	Certificate        string               `gluamapper:"certificate" json:"certificate"`
	PrivateKey         string               `gluamapper:"private_key" json:"private_key"`
	Allow              map[string][]string  `gluamapper:"allow" json:"allow"`
	ClientLimits       handler.ClientLimits `gluamapper:"client_limits" json:"client_limits"`
}

type httpsListener struct {
	sync.Mutex
	log             *logger.L
	listenIPAndPort []string
	tlsConfig       *tls.Config
	mux             *http.ServeMux
	servers         []*http.Server
}

// Serve - bind every listen address then serve each in the background
func (h *httpsListener) Serve() error {
	h.Lock()
	defer h.Unlock()

	for _, listen := range h.listenIPAndPort {
		h.log.Infof("starting server: %s on: %q", httpsLogName, listen)

		ln, err := net.Listen("tcp", listen)
		if nil != err {
			h.log.Errorf("%s listen error: %s", httpsLogName, err)
			return err
		}

		s := &http.Server{
			Addr:           listen,
			Handler:        h.mux,
			ReadTimeout:    readWriteTimeout,
			WriteTimeout:   readWriteTimeout,
			MaxHeaderBytes: 1 << 20,
		}
		h.servers = append(h.servers, s)

		go h.doServe(s, tcpKeepAliveListener{ln.(*net.TCPListener)})
	}

	return nil
}

// Close - stop all servers
func (h *httpsListener) Close() error {
	h.Lock()
	defer h.Unlock()

	var first error
	for _, s := range h.servers {
		if err := s.Close(); nil != err && nil == first {
			first = err
		}
	}
	h.servers = nil
	return first
}

func (h *httpsListener) doServe(s *http.Server, ln net.Listener) {
	var err error
	if nil == h.tlsConfig {
		err = s.Serve(ln)
	} else {
		cfg := h.tlsConfig.Clone()
		cfg.NextProtos = []string{"http/1.1"}
		err = s.Serve(tls.NewListener(ln, cfg))
	}
	if nil != err && http.ErrServerClosed != err {
		h.log.Errorf("%s on: %q  terminated: %s", httpsLogName, s.Addr, err)
	}
}

type tcpKeepAliveListener struct {
	*net.TCPListener
}

func (ln tcpKeepAliveListener) Accept() (net.Conn, error) {
	tc, err := ln.AcceptTCP()
	if err != nil {
		return nil, err
	}
	_ = tc.SetKeepAlive(true)
	_ = tc.SetKeepAlivePeriod(keepAlivePeriod)
	return tc, nil
}

// NewHTTPS - validate the configuration and route the handler's endpoints
//
// returns a nil listener when no listen address is configured; a nil
// tlsConfig serves plain HTTP
func NewHTTPS(
	configuration *HTTPSConfiguration,
	log *logger.L,
	tlsConfig *tls.Config,
	hdlr handler.Handler,
) (Listener, error) {
	if 0 == len(configuration.Listen) {
		log.Infof("disable: %s", httpsLogName)
		return nil, nil
	}

	if configuration.MaximumConnections < minConnectionCount {
		log.Errorf("invalid %s maximum connection limit: %d", httpsLogName, configuration.MaximumConnections)
		return nil, fault.MissingParameters
	}

	listen, err := parseListenAddress(configuration.Listen, log)
	if nil != err {
		return nil, err
	}

	h := &httpsListener{
		log:             log,
		listenIPAndPort: listen,
		tlsConfig:       tlsConfig,
	}

	// create access control and format strings to match http.Request.RemoteAddr
	local := make(map[string][]*net.IPNet)
	for path, addresses := range configuration.Allow {
		set := make([]*net.IPNet, len(addresses))
		local[path] = set
		for i, ip := range addresses {
			_, cidr, err := net.ParseCIDR(strings.Trim(ip, " "))
			if nil != err {
				log.Errorf("%s allow: %s  invalid CIDR: %q", httpsLogName, path, ip)
				return nil, err
			}
			set[i] = cidr
		}
	}

	hdlr.SetAllow(local)

	h.mux = http.NewServeMux()
	h.mux.HandleFunc("/rpc", hdlr.Proxy)
	h.mux.HandleFunc("/cache/rpc", hdlr.RPC)
	h.mux.HandleFunc("/cache/details", hdlr.Details)
	h.mux.HandleFunc("/metrics", hdlr.Metrics)
	h.mux.HandleFunc("/", hdlr.Root)

	return h, nil
}

// normalise listen addresses and check each carries an IP address
//
// "*:PORT" becomes "[::]:PORT" on the assumption that this will
// listen on tcp4 and tcp6
func parseListenAddress(addrs []string, log *logger.L) ([]string, error) {
	parsed := make([]string, len(addrs))
	for i, listen := range addrs {
		if "" == listen {
			log.Errorf("%s listen error: empty address", httpsLogName)
			return nil, fault.InvalidIPAddress
		}

		host, port, err := net.SplitHostPort(listen)
		if nil != err {
			log.Errorf("%s listen: %q  error: %s", httpsLogName, listen, err)
			return nil, fault.InvalidIPAddress
		}
		if "*" == host {
			host = "::"
		}

		if ip := net.ParseIP(host); nil == ip {
			err := fault.InvalidIPAddress
			log.Errorf("%s listen: %q  error: %s", httpsLogName, listen, err)
			return nil, err
		}
		parsed[i] = net.JoinHostPort(host, port)
	}

	return parsed, nil
}

// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpc

import (
	"crypto/tls"
	"io/ioutil"
	"sync"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/bitmark-inc/rpccache/cache"
	"github.com/bitmark-inc/rpccache/fault"
	"github.com/bitmark-inc/rpccache/invalidate"
	"github.com/bitmark-inc/rpccache/provider"
	"github.com/bitmark-inc/rpccache/rpc/certificate"
	"github.com/bitmark-inc/rpccache/rpc/handler"
	"github.com/bitmark-inc/rpccache/rpc/listeners"
	"github.com/bitmark-inc/rpccache/rpc/server"
)

const (
	tlsName = "http_rpc"
)

// Services - the components behind the endpoints
type Services struct {
	Cache    *cache.Cache
	Provider *provider.Provider
	Hook     *invalidate.Hook
}

// globals
type rpcData struct {
	sync.RWMutex // to allow locking

	log *logger.L // logger

	listener listeners.Listener

	// set once during initialise
	initialised bool
}

// global data
var globalData rpcData

// Initialise - start the HTTP(S) listeners
func Initialise(configuration *listeners.HTTPSConfiguration, services *Services, version string) error {

	globalData.Lock()
	defer globalData.Unlock()

	// no need to Start if already started
	if globalData.initialised {
		return fault.AlreadyInitialised
	}

	if nil == configuration || nil == services || nil == services.Cache || nil == services.Provider || nil == services.Hook {
		return fault.MissingParameters
	}

	log := logger.New("rpc")
	globalData.log = log
	log.Info("starting…")

	var tlsConfiguration *tls.Config
	if "" == configuration.Certificate && "" == configuration.PrivateKey {
		log.Warnf("%s: no certificate, serving plain HTTP", tlsName)
	} else {
		var err error
		tlsConfiguration, err = loadCertificate(log, configuration.Certificate, configuration.PrivateKey)
		if nil != err {
			return err
		}
	}

	s := server.Create(log, version, services.Cache, services.Hook, services.Provider)

	hdlr := handler.New(
		log,
		s,
		services.Provider,
		services.Cache,
		time.Now(),
		version,
		configuration.MaximumConnections,
		&configuration.ClientLimits,
	)

	listener, err := listeners.NewHTTPS(configuration, log, tlsConfiguration, hdlr)
	if nil != err {
		return err
	}

	if nil != listener {
		err = listener.Serve()
		if nil != err {
			_ = listener.Close()
			return err
		}
	}
	globalData.listener = listener

	// all data initialised
	globalData.initialised = true

	return nil
}

// Finalise - stop all background tasks
func Finalise() error {

	globalData.Lock()
	defer globalData.Unlock()

	if !globalData.initialised {
		return fault.NotInitialised
	}

	globalData.log.Info("shutting down…")
	globalData.log.Flush()

	if nil != globalData.listener {
		_ = globalData.listener.Close()
		globalData.listener = nil
	}

	// finally...
	globalData.initialised = false

	globalData.log.Info("finished")
	globalData.log.Flush()

	return nil
}

// read the PEM certificate and key files
func loadCertificate(log *logger.L, certificateFile string, keyFile string) (*tls.Config, error) {
	if "" == certificateFile || "" == keyFile {
		log.Errorf("%s: certificate and private key files are both required", tlsName)
		return nil, fault.MissingParameters
	}

	certificatePEM, err := ioutil.ReadFile(certificateFile)
	if nil != err {
		log.Errorf("%s: certificate: %q  error: %s", tlsName, certificateFile, err)
		return nil, err
	}
	keyPEM, err := ioutil.ReadFile(keyFile)
	if nil != err {
		log.Errorf("%s: private key: %q  error: %s", tlsName, keyFile, err)
		return nil, err
	}

	tlsConfiguration, fingerprint, err := certificate.Get(log, tlsName, string(certificatePEM), string(keyPEM))
	if nil != err {
		return nil, err
	}
	log.Infof("%s: SHA3-256 fingerprint: %x", tlsName, fingerprint)
	return tlsConfiguration, nil
}

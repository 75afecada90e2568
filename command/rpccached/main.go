// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/bitmark-inc/exitwithstatus"
	"github.com/bitmark-inc/getoptions"
	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/rpccache/background"
	"github.com/bitmark-inc/rpccache/cache"
	"github.com/bitmark-inc/rpccache/fault"
	"github.com/bitmark-inc/rpccache/invalidate"
	"github.com/bitmark-inc/rpccache/policy"
	"github.com/bitmark-inc/rpccache/provider"
	"github.com/bitmark-inc/rpccache/rpc"
	"github.com/bitmark-inc/rpccache/storage"
	"github.com/bitmark-inc/rpccache/upstream"
)

// set by the linker: go build -ldflags "-X main.version=M.N" ./...
var version = "zero" // do not change this value

// main program
func main() {
	// ensure exit handler is first
	defer exitwithstatus.Handler()

	flags := []getoptions.Option{
		{Long: "help", HasArg: getoptions.NO_ARGUMENT, Short: 'h'},
		{Long: "verbose", HasArg: getoptions.NO_ARGUMENT, Short: 'v'},
		{Long: "quiet", HasArg: getoptions.NO_ARGUMENT, Short: 'q'},
		{Long: "version", HasArg: getoptions.NO_ARGUMENT, Short: 'V'},
		{Long: "config-file", HasArg: getoptions.REQUIRED_ARGUMENT, Short: 'c'},
		{Long: "memory-stats", HasArg: getoptions.NO_ARGUMENT, Short: 'm'},
	}

	program, options, arguments, err := getoptions.GetOS(flags)
	if nil != err {
		exitwithstatus.Message("%s: getoptions error: %s", program, err)
	}

	if len(options["version"]) > 0 {
		processSetupCommand(program, []string{"version"})
		return
	}

	if len(options["help"]) > 0 {
		processSetupCommand(program, []string{"help"})
		return
	}

	// these commands do not require the configuration and
	// process data needed for initial setup
	if len(arguments) > 0 && processSetupCommand(program, arguments) {
		return
	}

	if 1 != len(options["config-file"]) {
		exitwithstatus.Message("%s: only one config-file option is required, %d were detected", program, len(options["config-file"]))
	}

	// read options and parse the configuration file
	configurationFile := options["config-file"][0]
	theConfiguration, err := getConfiguration(configurationFile)
	if nil != err {
		exitwithstatus.Message("%s: failed to read configuration from: %q  error: %s", program, configurationFile, err)
	}

	// these commands require the configuration and
	// perform enquiries on the configuration
	if len(arguments) > 0 && processConfigCommand(arguments, theConfiguration) {
		return
	}

	// start logging
	if err = logger.Initialise(theConfiguration.Logging); nil != err {
		exitwithstatus.Message("%s: logger setup failed with error: %s", program, err)
	}
	defer logger.Finalise()

	// create a logger channel for the main program
	log := logger.New("main")
	defer log.Info("finished")
	log.Info("starting…")
	log.Infof("version: %s", version)
	log.Debugf("theConfiguration: %v", theConfiguration)

	// ------------------
	// start of real main
	// ------------------

	// optional PID file
	// use if not running under a supervisor program like daemon(8)
	if "" != theConfiguration.PidFile {
		lockFile, err := os.OpenFile(theConfiguration.PidFile, os.O_WRONLY|os.O_EXCL|os.O_CREATE, os.ModeExclusive|0600)
		if err != nil {
			if os.IsExist(err) {
				exitwithstatus.Message("%s: another instance is already running", program)
			}
			exitwithstatus.Message("%s: PID file: %q creation failed, error: %s", program, theConfiguration.PidFile, err)
		}
		fmt.Fprintf(lockFile, "%d\n", os.Getpid())
		lockFile.Close()
		defer os.Remove(theConfiguration.PidFile)
	}

	// general info
	database := filepath.Join(theConfiguration.Database.Directory, theConfiguration.Database.Name)
	log.Infof("database: %q", database)
	log.Debugf("%s = %#v", "Cache", theConfiguration.Cache)
	log.Debugf("%s = %#v", "Upstream", theConfiguration.Upstream)
	log.Debugf("%s = %#v", "RPC", theConfiguration.RPC)

	// start the data storage; without it every read is a miss
	log.Info("initialise storage")
	var store storage.Store
	handle, err := storage.Open(database)
	if nil == err {
		store = handle
		defer handle.Close()
	} else if errors.Is(err, fault.StorageUnavailable) {
		log.Warnf("storage unavailable, caching disabled: %s", err)
	} else {
		log.Criticalf("storage initialise error: %s", err)
		exitwithstatus.Message("storage initialise error: %s", err)
	}

	log.Info("initialise policy")
	thePolicy, err := policy.New(&theConfiguration.Policy)
	if nil != err {
		log.Criticalf("policy initialise error: %s", err)
		exitwithstatus.Message("policy initialise error: %s", err)
	}

	log.Info("initialise cache")
	theCache, err := cache.New(store, thePolicy, &theConfiguration.Cache)
	if nil != err {
		log.Criticalf("cache initialise error: %s", err)
		exitwithstatus.Message("cache initialise error: %s", err)
	}
	defer theCache.Close()

	log.Info("initialise upstream")
	theUpstream, err := upstream.New(&theConfiguration.Upstream)
	if nil != err {
		log.Criticalf("upstream initialise error: %s", err)
		exitwithstatus.Message("upstream initialise error: %s", err)
	}

	services := &rpc.Services{
		Cache:    theCache,
		Provider: provider.New(theCache, theUpstream, &theConfiguration.Provider),
		Hook:     invalidate.New(theCache, &theConfiguration.Invalidate),
	}

	// start up the rpc background processes
	err = rpc.Initialise(&theConfiguration.RPC, services, version)
	if nil != err {
		log.Criticalf("rpc initialise error: %s", err)
		exitwithstatus.Message("rpc initialise error: %s", err)
	}
	defer rpc.Finalise()

	// reload the tables when the configuration file changes
	processes := background.Processes{}
	watcher, err := newConfigWatcher(configurationFile, theCache, services.Hook)
	if nil != err {
		log.Warnf("configuration reload disabled: %s", err)
	} else {
		processes = append(processes, watcher)
	}

	// if memory logging enabled
	if len(options["memory-stats"]) > 0 {
		processes = append(processes, newStats(theCache))
	}

	bg := background.Start(processes, nil)
	defer bg.Stop()

	// wait for CTRL-C before shutting down to allow manual testing
	if 0 == len(options["quiet"]) {
		fmt.Printf("\n\nWaiting for CTRL-C (SIGINT) or 'kill <pid>' (SIGTERM)…")
	}

	// turn Signals into channel messages
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	sig := <-ch
	log.Infof("received signal: %v", sig)
	if 0 == len(options["quiet"]) {
		fmt.Printf("\nreceived signal: %v\n", sig)
		fmt.Printf("\nshutting down…\n")
	}

	log.Info("shutting down…")
}

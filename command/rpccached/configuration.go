// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"path/filepath"

	"github.com/bitmark-inc/logger"
	"github.com/bitmark-inc/rpccache/cache"
	"github.com/bitmark-inc/rpccache/configuration"
	"github.com/bitmark-inc/rpccache/invalidate"
	"github.com/bitmark-inc/rpccache/policy"
	"github.com/bitmark-inc/rpccache/provider"
	"github.com/bitmark-inc/rpccache/rpc/handler"
	"github.com/bitmark-inc/rpccache/rpc/listeners"
	"github.com/bitmark-inc/rpccache/upstream"
	"github.com/bitmark-inc/rpccache/util"
)

// basic defaults (directories and files are relative to the "DataDirectory" from Configuration file)
const (
	defaultDataDirectory = "" // this will error; use "." for the same directory as the config file

	defaultLevelDBDirectory = "data"
	defaultDatabase         = "rpccache.leveldb"

	defaultLogDirectory = "log"
	defaultLogFile      = "rpccached.log"
	defaultLogCount     = 10          //  number of log files retained
	defaultLogSize      = 1024 * 1024 // rotate when <logfile> exceeds this size

	defaultRPCClients        = 50
	defaultRequestsPerSecond = 20
	defaultBurst             = 40
)

// LoglevelMap - to hold log levels
type LoglevelMap map[string]string

// path expanded or calculated defaults
var (
	defaultLogLevels = LoglevelMap{
		logger.DefaultTag: "critical",
	}
)

// DatabaseType - location of the LevelDB store
type DatabaseType struct {
	Directory string `gluamapper:"directory" json:"directory"`
	Name      string `gluamapper:"name" json:"name"`
}

// Configuration - the whole configuration file
type Configuration struct {
	DataDirectory string                       `gluamapper:"data_directory" json:"data_directory"`
	PidFile       string                       `gluamapper:"pidfile" json:"pidfile"`
	Database      DatabaseType                 `gluamapper:"database" json:"database"`
	Cache         cache.Configuration          `gluamapper:"cache" json:"cache"`
	Policy        policy.Configuration         `gluamapper:"policy" json:"policy"`
	Provider      provider.Configuration       `gluamapper:"provider" json:"provider"`
	Invalidate    invalidate.Configuration     `gluamapper:"invalidate" json:"invalidate"`
	Upstream      upstream.Configuration       `gluamapper:"upstream" json:"upstream"`
	RPC           listeners.HTTPSConfiguration `gluamapper:"rpc" json:"rpc"`
	Logging       logger.Configuration         `gluamapper:"logging" json:"logging"`
}

// will read decode and verify the configuration
func getConfiguration(configurationFileName string) (*Configuration, error) {

	configurationFileName, err := filepath.Abs(filepath.Clean(configurationFileName))
	if nil != err {
		return nil, err
	}

	// absolute path to the main directory
	dataDirectory, _ := filepath.Split(configurationFileName)

	// policy and invalidation tables hold lists, which the mapper
	// merges element by element into existing slices, so they
	// start empty and take their defaults after parsing
	options := &Configuration{

		DataDirectory: defaultDataDirectory,
		PidFile:       "", // no PidFile by default

		Database: DatabaseType{
			Directory: defaultLevelDBDirectory,
			Name:      defaultDatabase,
		},

		Cache:    *cache.DefaultConfiguration(),
		Provider: *provider.DefaultConfiguration(),
		Upstream: *upstream.DefaultConfiguration(),

		RPC: listeners.HTTPSConfiguration{
			MaximumConnections: defaultRPCClients,
			ClientLimits: handler.ClientLimits{
				RequestsPerSecond: defaultRequestsPerSecond,
				Burst:             defaultBurst,
			},
		},

		Logging: logger.Configuration{
			Directory: defaultLogDirectory,
			File:      defaultLogFile,
			Size:      defaultLogSize,
			Count:     defaultLogCount,
			Levels:    defaultLogLevels,
		},
	}

	if err := configuration.ParseConfigurationFile(configurationFileName, options); err != nil {
		return nil, err
	}

	defaultPolicy := policy.DefaultConfiguration()
	if 0 == len(options.Policy.Selectors) {
		options.Policy.Selectors = defaultPolicy.Selectors
	}
	if policyIsEmpty(&options.Policy) {
		defaultPolicy.Selectors = options.Policy.Selectors
		options.Policy = *defaultPolicy
	}
	for _, c := range []struct {
		given *policy.Class
		deflt string
	}{
		{&options.Policy.LongTerm, defaultPolicy.LongTerm.TTL},
		{&options.Policy.MediumTerm, defaultPolicy.MediumTerm.TTL},
		{&options.Policy.ShortTerm, defaultPolicy.ShortTerm.TTL},
	} {
		if "" == c.given.TTL {
			c.given.TTL = c.deflt
		}
	}
	if invalidateIsEmpty(&options.Invalidate) {
		options.Invalidate = *invalidate.DefaultConfiguration()
	}

	// ensure absolute data directory
	if "" == options.DataDirectory || "~" == options.DataDirectory {
		return nil, fmt.Errorf("Path: %q is not a valid directory", options.DataDirectory)
	} else if "." == options.DataDirectory {
		options.DataDirectory = dataDirectory // same directory as the configuration file
	}
	dir, err := util.EnsureExistingDirectory(options.DataDirectory)
	if nil != err {
		return nil, err
	}
	options.DataDirectory = dir

	// optional absolute paths i.e. blank or an absolute path
	for _, f := range []*string{
		&options.PidFile,
		&options.RPC.Certificate,
		&options.RPC.PrivateKey,
	} {
		util.EnsureOptionalAbsolute(options.DataDirectory, f)
	}

	// make absolute and create directories if they do not already exist
	for _, d := range []*string{
		&options.Database.Directory,
		&options.Logging.Directory,
	} {
		*d = util.EnsureAbsolute(options.DataDirectory, *d)
		if err := util.EnsureDirectory(*d); nil != err {
			return nil, err
		}
	}

	// database and log names are plain file names, the logger joins its
	// own directory
	if options.Database.Name, err = util.EnsurePlainFile(options.Database.Directory, options.Database.Name); nil != err {
		return nil, err
	}
	if _, err = util.EnsurePlainFile("", options.Logging.File); nil != err {
		return nil, err
	}

	// done
	return options, nil
}

func policyIsEmpty(p *policy.Configuration) bool {
	return 0 == len(p.Permanent.Methods) &&
		0 == len(p.LongTerm.Methods) &&
		0 == len(p.MediumTerm.Methods) &&
		0 == len(p.ShortTerm.Methods) &&
		0 == len(p.NoCache)
}

func invalidateIsEmpty(i *invalidate.Configuration) bool {
	return 0 == len(i.Burn.Patterns) &&
		0 == len(i.Burn.Galleries) &&
		0 == len(i.Transfer.Patterns) &&
		0 == len(i.Transfer.Galleries)
}

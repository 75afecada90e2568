// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package fixtures - shared helpers for the rpc package tests
package fixtures

import (
	"io/ioutil"
	"os"
	"path"

	"github.com/bitmark-inc/logger"
)

const (
	testingDirName  = "testing"
	LogCategory     = "testing"
	certificateFile = "rpc.crt"
	keyFile         = "rpc.key"
)

// SetupTestLogger - log into a scratch directory
func SetupTestLogger() {
	removeFiles()
	_ = os.Mkdir(testingDirName, 0700)

	logging := logger.Configuration{
		Directory: testingDirName,
		File:      "testing.log",
		Size:      1048576,
		Count:     10,
		Console:   false,
		Levels: map[string]string{
			logger.DefaultTag: "critical",
		},
	}

	// start logging
	_ = logger.Initialise(logging)
}

// TeardownTestLogger - remove the scratch directory
func TeardownTestLogger() {
	removeFiles()
}

func removeFiles() {
	_ = os.RemoveAll(testingDirName)
}

// Certificate - PEM text of the self-signed test certificate
func Certificate(dir string) string {
	return readFile(path.Join(dir, certificateFile))
}

// Key - PEM text of the test certificate's private key
func Key(dir string) string {
	return readFile(path.Join(dir, keyFile))
}

func readFile(name string) string {
	data, err := ioutil.ReadFile(name)
	if nil != err {
		return ""
	}
	return string(data)
}

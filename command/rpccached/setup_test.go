// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/bitmark-inc/logger"
)

var testLevelMap = map[string]string{
	logger.DefaultTag: "critical",
}

// logger in a scratch directory, removed by the returned function
func setupLogger(t *testing.T) func() {
	dir, err := ioutil.TempDir("", "rpccached-log")
	if nil != err {
		t.Fatalf("temp dir error: %s", err)
	}

	err = logger.Initialise(logger.Configuration{
		Directory: dir,
		File:      "test.log",
		Size:      50000,
		Count:     10,
		Levels:    testLevelMap,
	})
	if nil != err {
		t.Fatalf("logger initialise error: %s", err)
	}

	return func() {
		logger.Finalise()
		_ = os.RemoveAll(dir)
	}
}

// a data directory holding one configuration file
func writeConfiguration(t *testing.T, text string) (string, func()) {
	dir, err := ioutil.TempDir("", "rpccached-conf")
	if nil != err {
		t.Fatalf("temp dir error: %s", err)
	}
	name := filepath.Join(dir, "rpccached.conf")
	err = ioutil.WriteFile(name, []byte(text), 0600)
	if nil != err {
		t.Fatalf("write configuration error: %s", err)
	}
	return name, func() { _ = os.RemoveAll(dir) }
}

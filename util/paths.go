// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package util

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bitmark-inc/rpccache/fault"
)

// EnsureAbsolute - ensure the path is absolute
// if not, prepend the directory to make absolute path
func EnsureAbsolute(directory string, filePath string) string {
	if !filepath.IsAbs(filePath) {
		filePath = filepath.Join(directory, filePath)
	}
	return filepath.Clean(filePath)
}

// EnsureOptionalAbsolute - as EnsureAbsolute but a blank path stays
// blank, used for settings like the PID file and TLS files
func EnsureOptionalAbsolute(directory string, filePath *string) {
	if "" != *filePath {
		*filePath = EnsureAbsolute(directory, *filePath)
	}
}

// EnsureFileExists - check if file exists
func EnsureFileExists(name string) bool {
	_, err := os.Stat(name)
	return nil == err
}

// EnsureDirectory - create a directory and any missing parents
func EnsureDirectory(name string) error {
	return os.MkdirAll(name, 0700)
}

// EnsureExistingDirectory - cleaned path of a directory that must
// already exist
func EnsureExistingDirectory(name string) (string, error) {
	name = filepath.Clean(name)
	info, err := os.Stat(name)
	if nil != err {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %q", fault.NotADirectory, name)
	}
	return name, nil
}

// EnsurePlainFile - join a file name that must not carry a directory
// part onto its directory; a blank directory leaves the name as is
func EnsurePlainFile(directory string, name string) (string, error) {
	switch filepath.Dir(name) {
	case "", ".":
	default:
		return "", fmt.Errorf("%w: %q", fault.NotPlainFileName, name)
	}
	if "" == directory {
		return name, nil
	}
	return EnsureAbsolute(directory, name), nil
}

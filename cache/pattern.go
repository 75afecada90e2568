// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cache

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/bitmark-inc/rpccache/fault"
)

// compileGlob - anchored matcher for a "*" glob
func compileGlob(glob string) (*regexp.Regexp, error) {
	if "" == glob || !utf8.ValidString(glob) {
		return nil, fault.PatternSyntaxInvalid
	}

	parts := strings.Split(glob, "*")
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}

	// (?s) so that "*" also crosses any newline inside JSON params
	m, err := regexp.Compile("(?s)^" + strings.Join(parts, ".*") + "$")
	if nil != err {
		return nil, fault.PatternSyntaxInvalid
	}
	return m, nil
}

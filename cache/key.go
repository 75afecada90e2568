// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cache

import (
	"encoding/json"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

// sorted object keys, compact, no HTML escaping, numbers kept as written
var canonical = jsoniter.Config{
	EscapeHTML:  false,
	SortMapKeys: true,
	UseNumber:   true,
}.Froze()

const emptyParams = "{}"

// CanonicalParams - stable JSON text of RPC parameters
//
// nil or JSON null parameters give "{}"
func CanonicalParams(params interface{}) (string, error) {
	if nil == params {
		return emptyParams, nil
	}
	if raw, ok := params.(json.RawMessage); ok && 0 == len(raw) {
		return emptyParams, nil
	}

	// round trip through a generic value so that object keys from any
	// source (structs, maps, raw text) come out sorted
	buffer, err := canonical.Marshal(params)
	if nil != err {
		return "", err
	}

	var generic interface{}
	err = canonical.Unmarshal(buffer, &generic)
	if nil != err {
		return "", err
	}
	if nil == generic {
		return emptyParams, nil
	}

	buffer, err = canonical.Marshal(generic)
	if nil != err {
		return "", err
	}
	return string(buffer), nil
}

// Key - cache key of an RPC call
//
// the same method, parameters and contract always give the same key
func Key(chainID uint64, contractAddress string, method string, params interface{}) (string, error) {
	p, err := CanonicalParams(params)
	if nil != err {
		return "", err
	}

	var b strings.Builder
	b.WriteString(strconv.FormatUint(chainID, 10))
	b.WriteByte(':')
	b.WriteString(contractAddress)
	b.WriteByte(':')
	b.WriteString(method)
	b.WriteByte(':')
	b.WriteString(p)
	return b.String(), nil
}

// Key - cache key using this cache's chain id
func (c *Cache) Key(method string, params interface{}, contractAddress string) (string, error) {
	return Key(c.chainID, contractAddress, method, params)
}

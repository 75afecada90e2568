// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package policy

import (
	"fmt"
	"strings"
	"time"

	"github.com/bitmark-inc/rpccache/fault"
)

// Category - TTL class of a method
type Category string

// the classes in lookup order
const (
	Permanent  Category = "permanent"
	LongTerm   Category = "long-term"
	MediumTerm Category = "medium-term"
	ShortTerm  Category = "short-term"
)

// UnknownMethod - result of decoding an unlisted selector
const UnknownMethod = "unknown"

// width of "0x" ++ 4 byte selector in hex
const selectorLength = 10

// Policy - immutable lookup tables
type Policy struct {
	ttl       map[Category]time.Duration
	category  map[string]Category
	noCache   map[string]struct{}
	selectors map[string]string
}

// New - build a policy from its configuration
func New(conf *Configuration) (*Policy, error) {
	p := &Policy{
		ttl:       make(map[Category]time.Duration),
		category:  make(map[string]Category),
		noCache:   make(map[string]struct{}),
		selectors: make(map[string]string),
	}

	classes := []struct {
		category Category
		class    *Class
	}{
		{Permanent, &conf.Permanent},
		{LongTerm, &conf.LongTerm},
		{MediumTerm, &conf.MediumTerm},
		{ShortTerm, &conf.ShortTerm},
	}

	for _, c := range classes {
		if Permanent != c.category {
			d, err := time.ParseDuration(c.class.TTL)
			if nil != err || d <= 0 {
				return nil, fmt.Errorf("%w: %s ttl: %q", fault.InvalidDuration, c.category, c.class.TTL)
			}
			p.ttl[c.category] = d
		}

		for _, method := range c.class.Methods {
			if previous, ok := p.category[method]; ok {
				return nil, fmt.Errorf("%w: %q in %s and %s", fault.DuplicateMethod, method, previous, c.category)
			}
			p.category[method] = c.category
		}
	}

	for _, method := range conf.NoCache {
		p.noCache[method] = struct{}{}
	}

	for selector, method := range conf.Selectors {
		p.selectors[strings.ToLower(selector)] = method
	}

	return p, nil
}

// Default - the built in tables
func Default() *Policy {
	p, err := New(DefaultConfiguration())
	if nil != err {
		panic(fmt.Sprintf("default policy: %s", err))
	}
	return p
}

// TTL - lifetime of a method's cached result
//
// permanent is true for methods that never expire, the duration is
// then zero
func (p *Policy) TTL(method string) (time.Duration, bool) {
	c := p.Category(method)
	if Permanent == c {
		return 0, true
	}
	return p.ttl[c], false
}

// Category - class of a method, short-term when not listed
func (p *Policy) Category(method string) Category {
	if c, ok := p.category[method]; ok {
		return c
	}
	return ShortTerm
}

// IsCacheable - false for methods whose results must never be cached
func (p *Policy) IsCacheable(method string) bool {
	_, ok := p.noCache[method]
	return !ok
}

// MethodForSelector - contract method name from eth_call data
func (p *Policy) MethodForSelector(data string) string {
	if len(data) < selectorLength {
		return UnknownMethod
	}
	if method, ok := p.selectors[strings.ToLower(data[:selectorLength])]; ok {
		return method
	}
	return UnknownMethod
}

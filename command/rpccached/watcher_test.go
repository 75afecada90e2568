// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"io/ioutil"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/rpccache/background"
	"github.com/bitmark-inc/rpccache/invalidate"
	"github.com/bitmark-inc/rpccache/policy"
)

type fakeTarget struct {
	sync.Mutex
	policies []*policy.Policy
	rules    []*invalidate.Configuration
}

func (f *fakeTarget) SetPolicy(p *policy.Policy) {
	f.Lock()
	defer f.Unlock()
	f.policies = append(f.policies, p)
}

func (f *fakeTarget) SetRules(r *invalidate.Configuration) {
	f.Lock()
	defer f.Unlock()
	f.rules = append(f.rules, r)
}

func (f *fakeTarget) counts() (int, int) {
	f.Lock()
	defer f.Unlock()
	return len(f.policies), len(f.rules)
}

func TestConfigWatcherReload(t *testing.T) {
	defer setupLogger(t)()

	name, cleanup := writeConfiguration(t, `return { data_directory = "." }`)
	defer cleanup()

	target := &fakeTarget{}
	w, err := newConfigWatcher(name, target, target)
	if nil != err {
		t.Fatalf("new watcher error: %s", err)
	}
	w.delay = 50 * time.Millisecond

	bg := background.Start(background.Processes{w}, nil)
	defer bg.Stop()

	err = ioutil.WriteFile(name, []byte(`return { data_directory = ".", policy = { short_term = { ttl = "7s", methods = { "balanceOf" } } } }`), 0600)
	assert.Nil(t, err, "write error")

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if p, _ := target.counts(); p > 0 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}

	p, r := target.counts()
	if assert.Equal(t, 1, p, "policy not reloaded") {
		ttl, permanent := target.policies[0].TTL("balanceOf")
		assert.False(t, permanent, "wrong permanence")
		assert.Equal(t, 7*time.Second, ttl, "wrong reloaded ttl")
	}
	assert.Equal(t, 1, r, "rules not reloaded")
}

func TestConfigWatcherIgnoresBadFile(t *testing.T) {
	defer setupLogger(t)()

	name, cleanup := writeConfiguration(t, `return { data_directory = "." }`)
	defer cleanup()

	target := &fakeTarget{}
	w, err := newConfigWatcher(name, target, target)
	if nil != err {
		t.Fatalf("new watcher error: %s", err)
	}

	w.parse = func(string) (*Configuration, error) {
		return getConfiguration(name + ".absent")
	}
	w.reload()

	p, r := target.counts()
	assert.Equal(t, 0, p, "policy replaced by a bad file")
	assert.Equal(t, 0, r, "rules replaced by a bad file")

	w.parse = getConfiguration
	err = ioutil.WriteFile(name, []byte(`return { data_directory = ".", policy = { short_term = { ttl = "soon", methods = { "balanceOf" } } } }`), 0600)
	assert.Nil(t, err, "write error")
	w.reload()

	p, r = target.counts()
	assert.Equal(t, 0, p, "policy with invalid ttl accepted")
	assert.Equal(t, 0, r, "rules applied with invalid policy")

	_ = w.watcher.Close()
}

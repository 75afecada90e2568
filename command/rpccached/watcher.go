// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bitmark-inc/logger"
	"github.com/bitmark-inc/rpccache/invalidate"
	"github.com/bitmark-inc/rpccache/policy"
)

const (
	watcherLoggerPrefix = "file-watcher"
	defaultSettleDelay  = 2 * time.Second
)

// PolicySetter - receives a rebuilt policy
type PolicySetter interface {
	SetPolicy(*policy.Policy)
}

// RuleSetter - receives rebuilt invalidation rules
type RuleSetter interface {
	SetRules(*invalidate.Configuration)
}

// reloads the policy and invalidation tables when the configuration
// file changes; other sections need a restart
type configWatcher struct {
	log      *logger.L
	fileName string
	delay    time.Duration
	watcher  *fsnotify.Watcher
	policy   PolicySetter
	rules    RuleSetter
	parse    func(string) (*Configuration, error)
}

func newConfigWatcher(fileName string, p PolicySetter, r RuleSetter) (*configWatcher, error) {
	log := logger.New(watcherLoggerPrefix)

	filePath, err := filepath.Abs(filepath.Clean(fileName))
	if nil != err {
		log.Errorf("parse file %s error: %s", fileName, err)
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if nil != err {
		log.Errorf("new watcher with error: %s", err)
		return nil, err
	}

	// editors replace the file, so watch the directory
	err = watcher.Add(filepath.Dir(filePath))
	if nil != err {
		log.Errorf("watcher add error: %s", err)
		_ = watcher.Close()
		return nil, err
	}

	return &configWatcher{
		log:      log,
		fileName: filePath,
		delay:    defaultSettleDelay,
		watcher:  watcher,
		policy:   p,
		rules:    r,
		parse:    getConfiguration,
	}, nil
}

// Run - background process, reload after the file settles
func (w *configWatcher) Run(args interface{}, shutdown <-chan struct{}) {
	defer w.watcher.Close()

	var settle <-chan time.Time

loop:
	for {
		select {
		case <-shutdown:
			break loop

		case event, ok := <-w.watcher.Events:
			if !ok {
				break loop
			}
			if filepath.Clean(event.Name) != w.fileName {
				continue loop
			}
			if event.Op&fsnotify.Remove == fsnotify.Remove {
				w.log.Warnf("file: %s removed", w.fileName)
				continue loop
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.log.Debugf("file event: %v", event)
				settle = time.After(w.delay)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				break loop
			}
			w.log.Errorf("watcher error: %s", err)

		case <-settle:
			settle = nil
			w.reload()
		}
	}
	w.log.Info("stopped")
}

// parse the file again and replace the tables
//
// a file that fails to parse leaves the current tables in place
func (w *configWatcher) reload() {
	conf, err := w.parse(w.fileName)
	if nil != err {
		w.log.Errorf("failed to read configuration from: %s  error: %s", w.fileName, err)
		return
	}

	p, err := policy.New(&conf.Policy)
	if nil != err {
		w.log.Errorf("policy error: %s", err)
		return
	}

	w.policy.SetPolicy(p)
	w.rules.SetRules(&conf.Invalidate)
	w.log.Info("policy and invalidation rules reloaded")
}

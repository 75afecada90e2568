// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package invalidate - turn contract events into cache deletions
//
// a rule is a list of glob pattern templates plus gallery snapshot
// keys; placeholders are replaced by the event's values:
//
//	{tokenId}     the token concerned
//	{creator}     the token's creator address (burn)
//	{from}        previous owner (transfer)
//	{to}          new owner (transfer)
//
// each placeholder also has a "Hex" form ({tokenIdHex}, {creatorHex},
// {fromHex}, {toHex}): the value as a 32 byte ABI word of 64 lower
// case hex digits, so that patterns can match eth_call data such as
// "0xc87b56dd{tokenIdHex}"
//
// event values must not contain "*"; a token id is a decimal or 0x
// prefixed hex number and an address is 0x prefixed hex
//
// invalidation is best effort: it is not tied to the transaction
// that caused it, so a read racing with the event may still see the
// old value until its TTL runs out
package invalidate

//go:generate mockgen -source=invalidate.go -destination=mocks/invalidate.go -package=mocks

import (
	"math/big"
	"strings"
	"sync"

	"github.com/bitmark-inc/logger"
	"github.com/bitmark-inc/rpccache/fault"
)

// Cache - the deletions a rule performs
type Cache interface {
	DeletePattern(glob string) (int, error)
	DeleteGallery(key string)
}

// Rule - what one event invalidates
type Rule struct {
	Patterns  []string `gluamapper:"patterns" json:"patterns"`
	Galleries []string `gluamapper:"galleries" json:"galleries"`
}

// Configuration - the "invalidate" section of the configuration file
type Configuration struct {
	Burn     Rule `gluamapper:"burn" json:"burn"`
	Transfer Rule `gluamapper:"transfer" json:"transfer"`
}

// DefaultConfiguration - rules for the onchain88 collection contract
func DefaultConfiguration() *Configuration {
	return &Configuration{
		Burn: Rule{
			Patterns: []string{
				`*:tokenURI:*"tokenId":"{tokenId}"*`,
				`*:ownerOf:*"tokenId":"{tokenId}"*`,
				`*:tokenLocked:*"{tokenId}"*`,
				`*:isLocked:*"{tokenId}"*`,
				`*:totalSupply:*`,
				`*:creatorTokenCount:*`,
				`*:normalTokenCount:*`,
				`*:sbtTokenCount:*`,
				`*:creatorTokens:*"{creator}"*`,
				`*:eth_call:*"data":"0xc87b56dd{tokenIdHex}"*`,
				`*:eth_call:*"data":"0x6352211e{tokenIdHex}"*`,
				`*:eth_call:*"data":"0xa035b1fe{tokenIdHex}"*`,
				`*:eth_call:*"data":"0xb2383e55{tokenIdHex}"*`,
				`*:eth_call:*"data":"0xd9b137b2{tokenIdHex}"*`,
				`*:eth_call:*"data":"0x18160ddd"*`,
				`*:eth_call:*"data":"0xe45be8eb*`,
				`*:eth_call:*"data":"0x5b88183f*`,
				`*:eth_call:*"data":"0x6d5224dc*`,
				`*:eth_call:*"data":"0x99f98898{creatorHex}*`,
				`*:eth_call:*"data":"0x92e3cc2d*`,
				`*:eth_call:*"data":"0x1865c57d*`,
				`*:eth_call:*"data":"0x4f6ccce7*`,
			},
			Galleries: []string{
				"{creator}",
				"all",
			},
		},
		Transfer: Rule{
			Patterns: []string{
				`*:ownerOf:*"tokenId":"{tokenId}"*`,
				`*:balanceOf:*"{from}"*`,
				`*:balanceOf:*"{to}"*`,
				`*:tokenOfOwnerByIndex:*"{from}"*`,
				`*:tokenOfOwnerByIndex:*"{to}"*`,
				`*:eth_call:*"data":"0x6352211e{tokenIdHex}"*`,
				`*:eth_call:*"data":"0x70a08231{fromHex}"*`,
				`*:eth_call:*"data":"0x70a08231{toHex}"*`,
				`*:eth_call:*"data":"0x2f745c59{fromHex}*`,
				`*:eth_call:*"data":"0x2f745c59{toHex}*`,
			},
		},
	}
}

// Hook - applies rules to a cache
type Hook struct {
	sync.RWMutex
	log      *logger.L
	cache    Cache
	burn     Rule
	transfer Rule
}

// New - create a hook, nil configuration selects the defaults
func New(c Cache, conf *Configuration) *Hook {
	h := &Hook{
		log:   logger.New("invalidate"),
		cache: c,
	}
	h.SetRules(conf)
	return h
}

// SetRules - replace the rules after a configuration reload
func (h *Hook) SetRules(conf *Configuration) {
	if nil == conf {
		conf = DefaultConfiguration()
	}
	h.Lock()
	h.burn = conf.Burn
	h.transfer = conf.Transfer
	h.Unlock()
}

// HandleBurn - a token was burned
//
// returns the number of cache entries deleted and the first error;
// every pattern is attempted even after a failure
func (h *Hook) HandleBurn(tokenID string, creator string) (int, error) {
	tokenWord, err := tokenIDWord(tokenID)
	if nil != err {
		h.log.Warnf("burn: token: %q  error: %s", tokenID, err)
		return 0, err
	}
	creatorWord, err := addressWord(creator)
	if nil != err {
		h.log.Warnf("burn: creator: %q  error: %s", creator, err)
		return 0, err
	}

	h.RLock()
	rule := h.burn
	h.RUnlock()

	r := strings.NewReplacer(
		"{tokenIdHex}", tokenWord,
		"{creatorHex}", creatorWord,
		"{tokenId}", tokenID,
		"{creator}", creator,
	)
	n, err := h.apply(r, rule)
	h.log.Infof("burn: token: %s  creator: %s  deleted: %d", tokenID, creator, n)
	return n, err
}

// HandleTransfer - a token changed owner
func (h *Hook) HandleTransfer(tokenID string, from string, to string) (int, error) {
	tokenWord, err := tokenIDWord(tokenID)
	if nil != err {
		h.log.Warnf("transfer: token: %q  error: %s", tokenID, err)
		return 0, err
	}
	fromWord, err := addressWord(from)
	if nil != err {
		h.log.Warnf("transfer: from: %q  error: %s", from, err)
		return 0, err
	}
	toWord, err := addressWord(to)
	if nil != err {
		h.log.Warnf("transfer: to: %q  error: %s", to, err)
		return 0, err
	}

	h.RLock()
	rule := h.transfer
	h.RUnlock()

	r := strings.NewReplacer(
		"{tokenIdHex}", tokenWord,
		"{fromHex}", fromWord,
		"{toHex}", toWord,
		"{tokenId}", tokenID,
		"{from}", from,
		"{to}", to,
	)
	n, err := h.apply(r, rule)
	h.log.Infof("transfer: token: %s  from: %s  to: %s  deleted: %d", tokenID, from, to, n)
	return n, err
}

func (h *Hook) apply(r *strings.Replacer, rule Rule) (int, error) {
	total := 0
	var first error

	for _, template := range rule.Patterns {
		pattern := r.Replace(template)
		n, err := h.cache.DeletePattern(pattern)
		if nil != err {
			h.log.Warnf("pattern: %q  error: %s", pattern, err)
			if nil == first {
				first = err
			}
		}
		total += n
	}

	for _, template := range rule.Galleries {
		key := r.Replace(template)
		if "" == key {
			continue
		}
		h.cache.DeleteGallery(key)
	}

	return total, first
}

const abiWordDigits = 64

var maximumTokenID = new(big.Int).Lsh(big.NewInt(1), 8*abiWordDigits/2)

// tokenIDWord - token id as a 32 byte ABI word
func tokenIDWord(tokenID string) (string, error) {
	if "" == tokenID || strings.Contains(tokenID, "*") {
		return "", fault.InvalidEventValue
	}

	n := new(big.Int)
	ok := false
	if strings.HasPrefix(tokenID, "0x") || strings.HasPrefix(tokenID, "0X") {
		_, ok = n.SetString(tokenID[2:], 16)
	} else {
		_, ok = n.SetString(tokenID, 10)
	}
	if !ok || n.Sign() < 0 || n.Cmp(maximumTokenID) >= 0 {
		return "", fault.InvalidEventValue
	}

	return leftPad(n.Text(16)), nil
}

// addressWord - address as a 32 byte ABI word, empty stays empty
func addressWord(address string) (string, error) {
	if "" == address {
		return "", nil
	}
	if !strings.HasPrefix(address, "0x") && !strings.HasPrefix(address, "0X") {
		return "", fault.InvalidEventValue
	}

	digits := strings.ToLower(address[2:])
	if "" == digits || len(digits) > abiWordDigits {
		return "", fault.InvalidEventValue
	}
	for _, c := range digits {
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f') {
			return "", fault.InvalidEventValue
		}
	}

	return leftPad(digits), nil
}

func leftPad(digits string) string {
	return strings.Repeat("0", abiWordDigits-len(digits)) + digits
}

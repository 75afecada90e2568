// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package policy

// Class - one TTL class, TTL is ignored for the permanent class
type Class struct {
	TTL     string   `gluamapper:"ttl" json:"ttl"`
	Methods []string `gluamapper:"methods" json:"methods"`
}

// Configuration - data for New, read from the "policy" section
type Configuration struct {
	Permanent  Class             `gluamapper:"permanent" json:"permanent"`
	LongTerm   Class             `gluamapper:"long_term" json:"long_term"`
	MediumTerm Class             `gluamapper:"medium_term" json:"medium_term"`
	ShortTerm  Class             `gluamapper:"short_term" json:"short_term"`
	NoCache    []string          `gluamapper:"no_cache" json:"no_cache"`
	Selectors  map[string]string `gluamapper:"selectors" json:"selectors"`
}

// DefaultConfiguration - tables for the onchain88 collection contract
func DefaultConfiguration() *Configuration {
	return &Configuration{
		Permanent: Class{
			Methods: []string{
				"name",
				"symbol",
				"MAX_ROYALTY_BPS",
				"burnHistory",
				"tokenLocked",
			},
		},
		LongTerm: Class{
			TTL: "1h",
			Methods: []string{
				"mintFee",
				"royaltyInfo",
				"creatorTokens",
				"normalTokens",
				"sbtTokens",
				"getContractInfo",
			},
		},
		MediumTerm: Class{
			TTL: "5m",
			Methods: []string{
				"tokenURI",
				"creatorTokenCount",
				"normalTokenCount",
				"sbtTokenCount",
				"gallery",
				"tokenCreator",
				"isLocked",
			},
		},
		ShortTerm: Class{
			TTL: "30s",
			Methods: []string{
				"totalSupply",
				"balanceOf",
				"ownerOf",
				"tokenOfOwnerByIndex",
				"tokenByIndex",
			},
		},
		NoCache: []string{
			"eth_sendTransaction",
			"eth_sendRawTransaction",
			"eth_getTransactionReceipt",
			"eth_getTransactionByHash",
			"personal_sign",
			"eth_sign",
		},
		Selectors: map[string]string{
			"0x06fdde03": "name",
			"0x95d89b41": "symbol",
			"0x13faede6": "mintFee",
			"0x18160ddd": "totalSupply",
			"0x70a08231": "balanceOf",
			"0x6352211e": "ownerOf",
			"0xc87b56dd": "tokenURI",
			"0x2f745c59": "tokenOfOwnerByIndex",
			"0x4f6ccce7": "tokenByIndex",
			"0x2a55205a": "royaltyInfo",
			"0xd9b137b2": "tokenCreator",
			"0xe45be8eb": "creatorTokenCount",
			"0x99f98898": "creatorTokens",
			"0x5b88183f": "normalTokenCount",
			"0x92e3cc2d": "normalTokens",
			"0x6d5224dc": "sbtTokenCount",
			"0x1865c57d": "sbtTokens",
			"0xb2383e55": "isLocked",
			"0xa035b1fe": "tokenLocked",
			"0x69d89575": "burn",
			"0x0076de2f": "burnHistory",
			"0x1b2ef1ca": "getContractInfo",
		},
	}
}

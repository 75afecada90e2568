// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"encoding/pem"
	"io/ioutil"
	"os"
	"time"

	"github.com/bitmark-inc/certgen"
	"github.com/bitmark-inc/rpccache/fault"
	"github.com/bitmark-inc/rpccache/rpc/certificate"
	"github.com/bitmark-inc/rpccache/util"
)

const certificateLifetime = 10 * 365 * 24 * time.Hour

// create a self-signed certificate, returns its SHA3-256 fingerprint
func makeSelfSignedCertificate(name string, certificateFileName string, privateKeyFileName string, override bool, extraHosts []string) ([32]byte, error) {
	var fin [32]byte

	if util.EnsureFileExists(certificateFileName) {
		return fin, fault.CertificateFileAlreadyExists
	}

	if util.EnsureFileExists(privateKeyFileName) {
		return fin, fault.KeyFileAlreadyExists
	}

	org := "rpccached self signed cert for: " + name
	validUntil := time.Now().Add(certificateLifetime)
	cert, key, err := certgen.NewTLSCertPair(org, validUntil, override, extraHosts)
	if err != nil {
		return fin, err
	}

	block, _ := pem.Decode(cert)
	if nil == block {
		return fin, fault.MissingParameters
	}

	if err = ioutil.WriteFile(certificateFileName, cert, 0666); err != nil {
		return fin, err
	}

	if err = ioutil.WriteFile(privateKeyFileName, key, 0600); err != nil {
		_ = os.Remove(certificateFileName)
		return fin, err
	}

	return certificate.Fingerprint(block.Bytes), nil
}

// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package fault - error instances
//
// Provides a single instance of errors to allow easy comparison
// without having to resort to partial string matches
//
// Errors that carry an underlying cause are wrapped with fmt.Errorf
// and %w, so errors.Is(err, fault.StorageOperationFailed) holds for
// the wrapped value and IsErrStorage still classifies it
package fault

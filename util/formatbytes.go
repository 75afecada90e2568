// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package util

import (
	"fmt"
)

var units = []string{"KiB", "MiB", "GiB", "TiB", "PiB", "EiB"}

// FormatBytes - render a byte count for operators
//
//   512        "512 B"
//   52428800   "50.0 MiB"
func FormatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit && exp < len(units)-1; m /= unit {
		div *= unit
		exp += 1
	}
	return fmt.Sprintf("%.1f %s", float64(n)/float64(div), units[exp])
}

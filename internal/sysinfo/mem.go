// SPDX-FileCopyrightText: 2025 William Judge
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sysinfo

import (
	"math"
	"strconv"
	"strings"
)

// ParseMemoryGB parses a human memory size into decimal gigabytes.
//
// Accepted forms are a number with a G suffix (gigabytes), a number with an M
// suffix (mebibytes, divided by 1024) or a plain number already in gigabytes.
// Anything unparseable, negative or non-finite yields 0. ParseFloat would
// accept "infinity", which is systemd's spelling for an unset limit.
func ParseMemoryGB(mem string) float64 {
	s := strings.ToUpper(strings.TrimSpace(mem))

	switch {
	case strings.HasSuffix(s, "G"):
		return parseFloat(strings.TrimSuffix(s, "G"))
	case strings.HasSuffix(s, "M"):
		return parseFloat(strings.TrimSuffix(s, "M")) / 1024
	default:
		return parseFloat(s)
	}
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) || v < 0 {
		return 0
	}

	return v
}

// SPDX-FileCopyrightText: 2025 William Judge
//
// SPDX-License-Identifier: GPL-3.0-or-later

package probe

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// The probe communicates with supervisors like the verify command solely
// via these stdout line formats.
const (
	progressPrefix = "Allocated "
	progressSuffix = "MB"

	// ExhaustedIdentifier starts the line reporting that the ceiling was hit.
	ExhaustedIdentifier = "MemoryError:"

	// FaultIdentifier starts the line reporting any other failure.
	FaultIdentifier = "Error:"
)

// ExhaustedLine is the full line printed exactly once when allocation fails
// due to memory exhaustion.
const ExhaustedLine = ExhaustedIdentifier + " Hit the 3GB limit!"

// LineKind classifies a single line of probe output.
type LineKind int

const (
	// LineKindUnknown marks output that is not part of the probe protocol.
	LineKindUnknown LineKind = iota
	// LineKindProgress marks a successful allocation report.
	LineKindProgress
	// LineKindExhausted marks the memory exhaustion report.
	LineKindExhausted
	// LineKindFault marks the generic failure report.
	LineKindFault
)

// Line is a single classified line of probe output.
type Line struct {
	Kind LineKind

	// MB is the cumulative allocated megabytes. Set for [LineKindProgress].
	MB int

	// Msg is the failure description. Set for [LineKindFault].
	Msg string
}

// SprintProgress creates the progress line for the given cumulative
// megabytes.
func SprintProgress(mb int) string {
	return progressPrefix + strconv.Itoa(mb) + progressSuffix
}

// FprintProgress writes the progress line for the given cumulative megabytes
// into the given writer.
func FprintProgress(w io.Writer, mb int) error {
	_, err := fmt.Fprintln(w, SprintProgress(mb))
	return err //nolint:wrapcheck
}

// FprintExhausted writes the memory exhaustion line into the given writer.
func FprintExhausted(w io.Writer) error {
	_, err := fmt.Fprintln(w, ExhaustedLine)
	return err //nolint:wrapcheck
}

// FprintFault writes the generic failure line for the given error into the
// given writer.
func FprintFault(w io.Writer, err error) error {
	_, werr := fmt.Fprintf(w, "%s %v\n", FaultIdentifier, err)
	return werr //nolint:wrapcheck
}

// ParseLine classifies a single line of probe output. The line must be given
// without the trailing newline.
func ParseLine(line string) Line {
	if mb, ok := parseProgress(line); ok {
		return Line{Kind: LineKindProgress, MB: mb}
	}

	if strings.HasPrefix(line, ExhaustedIdentifier) {
		return Line{Kind: LineKindExhausted}
	}

	if msg, ok := strings.CutPrefix(line, FaultIdentifier+" "); ok {
		return Line{Kind: LineKindFault, Msg: msg}
	}

	return Line{Kind: LineKindUnknown}
}

func parseProgress(line string) (int, bool) {
	rest, ok := strings.CutPrefix(line, progressPrefix)
	if !ok {
		return 0, false
	}

	rest, ok = strings.CutSuffix(rest, progressSuffix)
	if !ok {
		return 0, false
	}

	mb, err := strconv.Atoi(rest)
	if err != nil || mb < 0 {
		return 0, false
	}

	return mb, true
}

// SPDX-FileCopyrightText: 2025 William Judge
//
// SPDX-License-Identifier: GPL-3.0-or-later

package verify

import (
	"bufio"
	"fmt"
	"io"

	"github.com/WilliamJudge94/fairshare/internal/probe"
)

// Outcome classifies a finished probe run.
type Outcome int

const (
	// OutcomeFault means the probe failed for a reason other than the memory
	// limit, or ended in an unexpected way.
	OutcomeFault Outcome = iota
	// OutcomeExhausted means the probe reported memory exhaustion itself.
	OutcomeExhausted
	// OutcomeKilled means the kernel ended the probe with SIGKILL before it
	// could report, which is how a hard cgroup memory cap manifests.
	OutcomeKilled
	// OutcomeCompleted means all blocks were allocated and no limit engaged.
	OutcomeCompleted
)

// String returns a short human readable name for the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeExhausted:
		return "exhausted"
	case OutcomeKilled:
		return "killed"
	case OutcomeCompleted:
		return "completed"
	case OutcomeFault:
		return "fault"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result describes the outcome of a probe run.
type Result struct {
	Outcome Outcome

	// ProgressMB is the last cumulative megabyte count the probe reported.
	ProgressMB int

	// Fault is the failure description for [OutcomeFault].
	Fault string
}

// LimitEngaged returns whether the run shows that a memory limit cut the
// probe short.
func (r *Result) LimitEngaged() bool {
	return r.Outcome == OutcomeExhausted || r.Outcome == OutcomeKilled
}

// outputParser collects the probe protocol lines seen on stdout.
//
// Lines keep being echoed after a terminal line has been seen so the full
// probe output stays visible to the caller.
type outputParser struct {
	lastMB    int
	exhausted bool
	faultSeen bool
	fault     string
}

// parse classifies a single probe output line.
func (p *outputParser) parse(line string) {
	parsed := probe.ParseLine(line)

	switch parsed.Kind {
	case probe.LineKindProgress:
		if parsed.MB > p.lastMB {
			p.lastMB = parsed.MB
		}
	case probe.LineKindExhausted:
		p.exhausted = true
	case probe.LineKindFault:
		p.faultSeen = true
		p.fault = parsed.Msg
	case probe.LineKindUnknown:
	}
}

// exitStatus is the analyzed process end state of the probe child.
type exitStatus struct {
	code     int
	killed   bool
	timedOut bool
}

// result evaluates the collected lines against the process end state.
// targetMB is the cumulative report the probe emits when no limit engages.
func (p *outputParser) result(targetMB int, exit exitStatus) *Result {
	res := &Result{ProgressMB: p.lastMB}

	switch {
	case exit.timedOut:
		res.Outcome = OutcomeFault
		res.Fault = "probe timed out"
	case p.exhausted:
		res.Outcome = OutcomeExhausted
	case p.faultSeen:
		res.Outcome = OutcomeFault
		res.Fault = p.fault
	case exit.killed:
		res.Outcome = OutcomeKilled
	case exit.code == 0 && p.lastMB >= targetMB:
		res.Outcome = OutcomeCompleted
	default:
		res.Outcome = OutcomeFault
		res.Fault = fmt.Sprintf(
			"probe ended unexpectedly: exit code %d after %dMB",
			exit.code, p.lastMB,
		)
	}

	return res
}

// consumeOutput reads the source line by line, feeds each line to the parser
// and echoes it to the given writer until the source is closed.
func (p *outputParser) consumeOutput(src io.Reader, dst io.Writer) error {
	scanner := bufio.NewScanner(src)

	for scanner.Scan() {
		line := scanner.Text()
		p.parse(line)

		_, err := fmt.Fprintln(dst, line)
		if err != nil {
			return fmt.Errorf("echo output: %w", err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read output: %w", err)
	}

	return nil
}

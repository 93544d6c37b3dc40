//
// Copyright 2024 ThreeFold Tech NV.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS-IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
//
package minting

import (
	"time"

	"github.com/threefoldfoundation/grid3-minting/events"
	"github.com/threefoldfoundation/grid3-minting/period"
)

// UptimeInfo is the triple (last_reported_at, last_reported_uptime,
// accumulated_uptime_this_period) tracked once a node's first uptime report
// of the period has been seen.
type UptimeInfo struct {
	LastReportedAt     int64
	LastReportedUptime int64
	Total              int64
}

// BootTime records the inferred boot instant of a node: BootedAt is the
// timestamp the node must have booted at (DetectedAt - reported uptime),
// DetectedAt is the timestamp of the report that implied it.
type BootTime struct {
	BootedAt   int64
	DetectedAt int64
}

// CreditRecord is a single credit decision made by the engine (refused
// credits produce no record): how many seconds were credited, how much wall-clock time elapsed
// since the previous credit, the implied downtime, and a human-readable
// note. Downtime may be slightly negative (see NodeState.CreditUptime).
type CreditRecord struct {
	Datetime  time.Time
	Timestamp int64
	Credited  int64
	Elapsed   int64
	Downtime  int64
	Note      string
}

// GracePeriod is an externally declared interval during which accrued
// uptime gaps should be forgiven. The engine does not apply the forgiveness
// itself -- it only tracks, per grace period, how much of the accrued
// uptime landed inside the interval, and which credits contributed to it --
// leaving the downtime adjustment to a post-hoc consumer.
type GracePeriod struct {
	Name  string
	Start int64
	End   int64

	AccruedUptime int64
	Events        []CreditRecord
}

// AdjustedDowntime returns periodDowntime reduced by whatever uptime this
// grace period accrued, i.e. the downtime a node would have recorded had
// the grace period's credited seconds not counted as downtime at all. The
// engine itself stays a pure recorder; this adjustment is left to callers
// to apply after the fact.
func (g *GracePeriod) AdjustedDowntime(periodDowntime int64) int64 {
	return periodDowntime - g.AccruedUptime
}

// overlap adds to the grace period's accrued uptime the portion of
// [creditStart, creditEnd) that falls inside [g.Start, g.End], and records
// the contributing credit if any overlap occurred.
func (g *GracePeriod) overlap(creditStart, creditEnd int64, rec CreditRecord) {
	lo := creditStart
	if g.Start > lo {
		lo = g.Start
	}
	hi := creditEnd
	if g.End < hi {
		hi = g.End
	}
	if hi > lo {
		g.AccruedUptime += hi - lo
		g.Events = append(g.Events, rec)
	}
}

// NodeState is the mutable accumulator the accrual engine replays events
// into for a single (node, period) pair. It is constructed once and
// mutated monotonically by process_period, process_post_period, and
// final_check, in that order; a NodeState should not be reused across
// periods.
type NodeState struct {
	ID     uint32
	Period period.Period
	// EndTS caches Period.End, matching the field the reference
	// implementation keeps alongside the period itself.
	EndTS int64

	PowerTarget events.Power
	PowerState  events.Power
	// PowerManaged is set when the node went Down because its target was
	// Down: a farmer-bot-initiated sleep.
	PowerManaged *int64
	// PowerManageBoot is set to the timestamp of the first
	// PowerTargetChanged(Up) received while PowerState is Down.
	PowerManageBoot *int64

	UptimeInfo *UptimeInfo
	BootTime   *BootTime

	// LastUptimeAddedTS is initialized to Period.Start and updated on every
	// CreditUptime call.
	LastUptimeAddedTS int64
	Uptime            int64
	Downtime          int64

	BootDurationViolations uint32

	Events       []CreditRecord
	GracePeriods []*GracePeriod

	// Verbose additionally logs elapsed/downtime detail on every credit.
	Verbose bool

	logger Logger
}

// NewNodeState constructs a NodeState for nodeID over p. logger receives all
// informational and violation messages; pass NopLogger{} to silence them.
// gracePeriods, if any, are tracked alongside the node's own credit log.
func NewNodeState(nodeID uint32, p period.Period, logger Logger, gracePeriods ...*GracePeriod) *NodeState {
	if logger == nil {
		logger = NopLogger{}
	}
	return &NodeState{
		ID:                nodeID,
		Period:            p,
		EndTS:             p.End,
		LastUptimeAddedTS: p.Start,
		GracePeriods:      gracePeriods,
		logger:            logger,
	}
}

// CreditUptime appends seconds of credited uptime at timestamp atTS, with
// the given note. When postPeriod is true, elapsed time is measured against
// Period.End rather than atTS, matching the scaled accounting used once a
// period has formally ended; LastUptimeAddedTS is still unconditionally
// updated to atTS even in that case (see the design notes on this specific
// behavior: two post-period credits can therefore record overlapping
// elapsed intervals, which is preserved literally).
func (n *NodeState) CreditUptime(seconds int64, atTS int64, note string, postPeriod bool) {
	n.Uptime += seconds

	var elapsed int64
	if postPeriod {
		elapsed = n.EndTS - n.LastUptimeAddedTS
	} else {
		elapsed = atTS - n.LastUptimeAddedTS
	}
	downtime := elapsed - seconds
	n.Downtime += downtime

	rec := CreditRecord{
		Datetime:  time.Unix(atTS, 0),
		Timestamp: atTS,
		Credited:  seconds,
		Elapsed:   elapsed,
		Downtime:  downtime,
		Note:      note,
	}

	if n.Verbose {
		n.logger.Infof("node %d: seconds elapsed since last uptime added: %d, missing uptime: %d, %s", n.ID, elapsed, downtime, note)
	}

	n.Events = append(n.Events, rec)
	n.LastUptimeAddedTS = atTS

	if len(n.GracePeriods) > 0 {
		for _, g := range n.GracePeriods {
			g.overlap(atTS-seconds, atTS, rec)
		}
	}
}

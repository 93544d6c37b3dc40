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
// Package events defines the three chain event kinds the accrual engine
// replays, and the contract an event source must satisfy to supply them.
package events

import "sort"

// Power describes a chain-level power target or recorded power state.
type Power bool

// The two Power values. Down is the zero value so a zero Power defaults to
// the conservative "not running" reading.
const (
	Down Power = false
	Up   Power = true
)

func (p Power) String() string {
	if p == Up {
		return "Up"
	}
	return "Down"
}

// Event is implemented by the three chain event kinds. Timestamp and Index
// together form the canonical total order events must be sorted by before
// reaching the accrual engine.
type Event interface {
	Timestamp() int64
	Index() uint32
	eventKind()
}

// NodeUptimeReported is emitted when a node self-reports its cumulative
// uptime, in seconds, since its last boot.
type NodeUptimeReported struct {
	Ts     int64
	Idx    uint32
	Uptime int64
}

// Timestamp implements Event.
func (e NodeUptimeReported) Timestamp() int64 { return e.Ts }

// Index implements Event.
func (e NodeUptimeReported) Index() uint32 { return e.Idx }

func (NodeUptimeReported) eventKind() {}

// PowerTargetChanged is emitted when the chain-level desired power state of
// a node changes.
type PowerTargetChanged struct {
	Ts     int64
	Idx    uint32
	Target Power
}

// Timestamp implements Event.
func (e PowerTargetChanged) Timestamp() int64 { return e.Ts }

// Index implements Event.
func (e PowerTargetChanged) Index() uint32 { return e.Idx }

func (PowerTargetChanged) eventKind() {}

// PowerStateChanged is emitted when a node's actual power state transition is
// recorded on chain. DownBlock, if present, is the block at which the node
// was observed going down.
type PowerStateChanged struct {
	Ts        int64
	Idx       uint32
	State     Power
	DownBlock *uint64
}

// Timestamp implements Event.
func (e PowerStateChanged) Timestamp() int64 { return e.Ts }

// Index implements Event.
func (e PowerStateChanged) Index() uint32 { return e.Idx }

func (PowerStateChanged) eventKind() {}

// Sort orders events ascending by (Timestamp, Index), the canonical total
// order required by the accrual engine. It sorts in place.
func Sort(evs []Event) {
	sort.SliceStable(evs, func(i, j int) bool {
		if evs[i].Timestamp() != evs[j].Timestamp() {
			return evs[i].Timestamp() < evs[j].Timestamp()
		}
		return evs[i].Index() < evs[j].Index()
	})
}

// Sorted reports whether evs is already in the canonical total order. The
// accrual engine treats unsorted input as a programming error (see
// InitialPower's sibling Source.Events contract) rather than silently
// re-sorting it.
func Sorted(evs []Event) bool {
	for i := 1; i < len(evs); i++ {
		a, b := evs[i-1], evs[i]
		if a.Timestamp() > b.Timestamp() {
			return false
		}
		if a.Timestamp() == b.Timestamp() && a.Index() > b.Index() {
			return false
		}
	}
	return true
}

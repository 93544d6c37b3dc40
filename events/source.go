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
package events

import "context"

// PeriodCatchSeconds is the tolerance window, in seconds, within which a
// node's initial power row is looked up around a period's start.
const PeriodCatchSeconds int64 = 30

// InitialPower is a node's power configuration as observed at the start of a
// minting period.
type InitialPower struct {
	State Power
	// DownTime is the timestamp the node was last observed going down, if
	// it was already Down at DownTime.
	DownTime *int64
	Target   Power
	// Timestamp is the block time of the row itself -- used as the
	// farmer-bot boot-request time when Target is Up.
	Timestamp *int64
}

// DefaultInitialPower is used when a Source has no row for a node within
// PeriodCatchSeconds of the period start: the node is assumed to have been
// up and targeted up the whole time.
func DefaultInitialPower() InitialPower {
	return InitialPower{State: Up, Target: Up}
}

// Source supplies the events and initial power configuration the accrual
// engine needs for a single node over a single period. Implementations may
// be backed by a live chain indexer, a SQL event store, or an in-memory
// fixture for tests.
type Source interface {
	// Events returns every event for nodeID with a timestamp in
	// [start, end], totally ordered by (Timestamp, Index).
	Events(ctx context.Context, nodeID uint32, start, end int64) ([]Event, error)
	// InitialPower returns the node's power configuration within
	// PeriodCatchSeconds of periodStart, or ok=false if no such row exists.
	InitialPower(ctx context.Context, nodeID uint32, periodStart int64) (power InitialPower, ok bool, err error)
}

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
package sqlite

import (
	"context"
	"testing"

	"github.com/threefoldfoundation/grid3-minting/events"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestEventsRoundTrip(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.db.Exec(`INSERT INTO NodeUptimeReported (node_id, uptime, timestamp, event_index) VALUES (1, 2400, 1000, 0)`); err != nil {
		t.Fatalf("seeding NodeUptimeReported: %v", err)
	}
	if _, err := s.db.Exec(`INSERT INTO PowerTargetChanged (node_id, target, timestamp, event_index) VALUES (1, 'Down', 900, 0)`); err != nil {
		t.Fatalf("seeding PowerTargetChanged: %v", err)
	}
	if _, err := s.db.Exec(`INSERT INTO PowerStateChanged (node_id, state, timestamp, event_index, down_block) VALUES (1, 'Down', 950, 0, 42)`); err != nil {
		t.Fatalf("seeding PowerStateChanged: %v", err)
	}

	got, err := s.Events(context.Background(), 1, 0, 2000)
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len(got) = %d, want 3", len(got))
	}
	if !events.Sorted(got) {
		t.Error("Events() result is not sorted")
	}

	state, ok := got[1].(events.PowerStateChanged)
	if !ok {
		t.Fatalf("got[1] = %T, want events.PowerStateChanged", got[1])
	}
	if state.DownBlock == nil || *state.DownBlock != 42 {
		t.Errorf("DownBlock = %v, want 42", state.DownBlock)
	}
}

func TestInitialPowerNoRows(t *testing.T) {
	s := openTestStore(t)
	_, ok, err := s.InitialPower(context.Background(), 1, 1000)
	if err != nil {
		t.Fatalf("InitialPower: %v", err)
	}
	if ok {
		t.Error("ok = true, want false with no rows")
	}
}

func TestInitialPowerFindsClosestRow(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.db.Exec(`INSERT INTO PowerState (node_id, state, down_time, target, timestamp) VALUES (1, 'Down', 500, 'Up', 1010)`); err != nil {
		t.Fatalf("seeding PowerState: %v", err)
	}

	got, ok, err := s.InitialPower(context.Background(), 1, 1000)
	if err != nil {
		t.Fatalf("InitialPower: %v", err)
	}
	if !ok {
		t.Fatal("ok = false, want true")
	}
	if got.State != events.Down || got.Target != events.Up {
		t.Errorf("got = %+v", got)
	}
	if got.DownTime == nil || *got.DownTime != 500 {
		t.Errorf("DownTime = %v, want 500", got.DownTime)
	}
}

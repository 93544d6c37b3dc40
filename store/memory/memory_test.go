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
package memory

import (
	"context"
	"testing"

	"github.com/threefoldfoundation/grid3-minting/events"
)

func TestStoreEventsFiltersByWindowAndSorts(t *testing.T) {
	s := New()
	s.AddEvents(1,
		events.NodeUptimeReported{Ts: 100, Idx: 1, Uptime: 10},
		events.NodeUptimeReported{Ts: 50, Idx: 0, Uptime: 5},
		events.NodeUptimeReported{Ts: 500, Idx: 0, Uptime: 50},
	)

	got, err := s.Events(context.Background(), 1, 50, 100)
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(got) = %d, want 2", len(got))
	}
	if got[0].Timestamp() != 50 || got[1].Timestamp() != 100 {
		t.Errorf("got timestamps %d, %d; want 50, 100", got[0].Timestamp(), got[1].Timestamp())
	}
}

func TestStoreEventsUnknownNode(t *testing.T) {
	s := New()
	got, err := s.Events(context.Background(), 99, 0, 1000)
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("len(got) = %d, want 0", len(got))
	}
}

func TestStoreInitialPowerWithinCatchWindow(t *testing.T) {
	s := New()
	periodStart := int64(1_000_000)
	s.SetInitialPower(1, periodStart+10, events.InitialPower{State: events.Down, Target: events.Up})

	got, ok, err := s.InitialPower(context.Background(), 1, periodStart)
	if err != nil {
		t.Fatalf("InitialPower: %v", err)
	}
	if !ok {
		t.Fatal("ok = false, want true")
	}
	if got.State != events.Down || got.Target != events.Up {
		t.Errorf("got = %+v, want State=Down Target=Up", got)
	}
}

func TestStoreInitialPowerOutsideCatchWindow(t *testing.T) {
	s := New()
	periodStart := int64(1_000_000)
	s.SetInitialPower(1, periodStart+1000, events.InitialPower{State: events.Down})

	_, ok, err := s.InitialPower(context.Background(), 1, periodStart)
	if err != nil {
		t.Fatalf("InitialPower: %v", err)
	}
	if ok {
		t.Error("ok = true, want false (row is outside PeriodCatchSeconds)")
	}
}

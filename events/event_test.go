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

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSort(t *testing.T) {
	evs := []Event{
		NodeUptimeReported{Ts: 10, Idx: 2, Uptime: 5},
		PowerTargetChanged{Ts: 5, Idx: 0, Target: Up},
		PowerStateChanged{Ts: 10, Idx: 0, State: Down},
		NodeUptimeReported{Ts: 10, Idx: 1, Uptime: 4},
	}
	Sort(evs)

	want := []Event{
		PowerTargetChanged{Ts: 5, Idx: 0, Target: Up},
		PowerStateChanged{Ts: 10, Idx: 0, State: Down},
		NodeUptimeReported{Ts: 10, Idx: 1, Uptime: 4},
		NodeUptimeReported{Ts: 10, Idx: 2, Uptime: 5},
	}
	if diff := cmp.Diff(want, evs); diff != "" {
		t.Errorf("Sort() mismatch (-want +got):\n%s", diff)
	}
	if !Sorted(evs) {
		t.Error("Sorted() = false after Sort()")
	}
}

func TestSortedDetectsOutOfOrder(t *testing.T) {
	evs := []Event{
		NodeUptimeReported{Ts: 10, Idx: 0},
		NodeUptimeReported{Ts: 5, Idx: 0},
	}
	if Sorted(evs) {
		t.Error("Sorted() = true, want false")
	}

	evs = []Event{
		NodeUptimeReported{Ts: 10, Idx: 2},
		NodeUptimeReported{Ts: 10, Idx: 1},
	}
	if Sorted(evs) {
		t.Error("Sorted() = true for descending index at same timestamp, want false")
	}
}

func TestPowerString(t *testing.T) {
	if Up.String() != "Up" {
		t.Errorf("Up.String() = %q, want Up", Up.String())
	}
	if Down.String() != "Down" {
		t.Errorf("Down.String() = %q, want Down", Down.String())
	}
}

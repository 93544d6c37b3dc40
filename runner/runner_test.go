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
package runner

import (
	"context"
	"testing"

	"github.com/threefoldfoundation/grid3-minting/events"
	"github.com/threefoldfoundation/grid3-minting/minting"
	"github.com/threefoldfoundation/grid3-minting/period"
	"github.com/threefoldfoundation/grid3-minting/store/memory"
)

func TestCachedRunnerCachesResults(t *testing.T) {
	p := period.FromOffset(20)
	store := memory.New()
	store.AddEvents(1, events.NodeUptimeReported{Ts: p.Start + 2400, Idx: 0, Uptime: 2400})

	r, err := NewCachedRunner(store, minting.NopLogger{}, 10)
	if err != nil {
		t.Fatalf("NewCachedRunner: %v", err)
	}

	first, err := r.CheckNode(context.Background(), 1, p)
	if err != nil {
		t.Fatalf("CheckNode: %v", err)
	}

	store.AddEvents(1, events.NodeUptimeReported{Ts: p.Start + 4800, Idx: 0, Uptime: 4800})

	second, err := r.CheckNode(context.Background(), 1, p)
	if err != nil {
		t.Fatalf("CheckNode: %v", err)
	}
	if second != first {
		t.Error("second CheckNode call did not return the cached *minting.NodeState")
	}
}

func TestBatchRunChecksEveryNode(t *testing.T) {
	p := period.FromOffset(20)
	store := memory.New()
	for _, id := range []uint32{1, 2, 3} {
		store.AddEvents(id, events.NodeUptimeReported{Ts: p.Start + 2400, Idx: 0, Uptime: 2400})
	}

	r, err := NewCachedRunner(store, minting.NopLogger{}, 10)
	if err != nil {
		t.Fatalf("NewCachedRunner: %v", err)
	}
	b := NewBatch(r)

	results, err := b.Run(context.Background(), []uint32{1, 2, 3}, p)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}
	seen := map[uint32]bool{}
	for _, res := range results {
		if res.Err != nil {
			t.Errorf("node %d: %v", res.NodeID, res.Err)
		}
		if res.Node.Uptime != 2400 {
			t.Errorf("node %d: Uptime = %d, want 2400", res.NodeID, res.Node.Uptime)
		}
		seen[res.NodeID] = true
	}
	for _, id := range []uint32{1, 2, 3} {
		if !seen[id] {
			t.Errorf("node %d missing from results", id)
		}
	}
}

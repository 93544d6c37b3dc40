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
// Package memory is an in-memory events.Source, suitable for tests and for
// embedding a small fixed event log without standing up a database.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/threefoldfoundation/grid3-minting/events"
)

// Store holds, per node, a totally ordered event log plus an optional
// initial power row. It is safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	events map[uint32][]events.Event
	power  map[uint32]map[int64]events.InitialPower
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		events: make(map[uint32][]events.Event),
		power:  make(map[uint32]map[int64]events.InitialPower),
	}
}

// AddEvents appends evs to nodeID's log and keeps it sorted by
// (timestamp, index).
func (s *Store) AddEvents(nodeID uint32, evs ...events.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[nodeID] = append(s.events[nodeID], evs...)
	events.Sort(s.events[nodeID])
}

// SetInitialPower records nodeID's power configuration as observed at
// timestamp ts. Only one row should be set within events.PeriodCatchSeconds
// of any period start actually queried against this store.
func (s *Store) SetInitialPower(nodeID uint32, ts int64, p events.InitialPower) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.power[nodeID] == nil {
		s.power[nodeID] = make(map[int64]events.InitialPower)
	}
	s.power[nodeID][ts] = p
}

// Events implements events.Source.
func (s *Store) Events(ctx context.Context, nodeID uint32, start, end int64) ([]events.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := s.events[nodeID]
	lo := sort.Search(len(all), func(i int) bool { return all[i].Timestamp() >= start })
	var out []events.Event
	for i := lo; i < len(all) && all[i].Timestamp() <= end; i++ {
		out = append(out, all[i])
	}
	return out, nil
}

// InitialPower implements events.Source.
func (s *Store) InitialPower(ctx context.Context, nodeID uint32, periodStart int64) (events.InitialPower, bool, error) {
	if err := ctx.Err(); err != nil {
		return events.InitialPower{}, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, ok := s.power[nodeID]
	if !ok {
		return events.InitialPower{}, false, nil
	}
	var best events.InitialPower
	var bestDist int64 = -1
	found := false
	for ts, p := range rows {
		dist := ts - periodStart
		if dist < 0 {
			dist = -dist
		}
		if dist > events.PeriodCatchSeconds {
			continue
		}
		if !found || dist < bestDist {
			best, bestDist, found = p, dist, true
		}
	}
	return best, found, nil
}

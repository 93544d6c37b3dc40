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
// Package sqlite is an events.Source backed by a sqlite database populated
// by an external block ingester, using the schema declared in schema.go.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/threefoldfoundation/grid3-minting/events"
)

// Store is a sqlite-backed events.Source.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the sqlite database at path and ensures
// its schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: creating schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Events implements events.Source.
func (s *Store) Events(ctx context.Context, nodeID uint32, start, end int64) ([]events.Event, error) {
	var out []events.Event

	uptimeRows, err := s.db.QueryContext(ctx,
		`SELECT uptime, timestamp, event_index FROM NodeUptimeReported WHERE node_id=? AND timestamp>=? AND timestamp<=?`,
		nodeID, start, end)
	if err != nil {
		return nil, fmt.Errorf("sqlite: querying NodeUptimeReported: %w", err)
	}
	for uptimeRows.Next() {
		var e events.NodeUptimeReported
		if err := uptimeRows.Scan(&e.Uptime, &e.Ts, &e.Idx); err != nil {
			uptimeRows.Close()
			return nil, fmt.Errorf("sqlite: scanning NodeUptimeReported: %w", err)
		}
		out = append(out, e)
	}
	if err := uptimeRows.Err(); err != nil {
		uptimeRows.Close()
		return nil, err
	}
	uptimeRows.Close()

	targetRows, err := s.db.QueryContext(ctx,
		`SELECT target, timestamp, event_index FROM PowerTargetChanged WHERE node_id=? AND timestamp>=? AND timestamp<=?`,
		nodeID, start, end)
	if err != nil {
		return nil, fmt.Errorf("sqlite: querying PowerTargetChanged: %w", err)
	}
	for targetRows.Next() {
		var target string
		var e events.PowerTargetChanged
		if err := targetRows.Scan(&target, &e.Ts, &e.Idx); err != nil {
			targetRows.Close()
			return nil, fmt.Errorf("sqlite: scanning PowerTargetChanged: %w", err)
		}
		e.Target = parsePower(target)
		out = append(out, e)
	}
	if err := targetRows.Err(); err != nil {
		targetRows.Close()
		return nil, err
	}
	targetRows.Close()

	stateRows, err := s.db.QueryContext(ctx,
		`SELECT state, timestamp, event_index, down_block FROM PowerStateChanged WHERE node_id=? AND timestamp>=? AND timestamp<=?`,
		nodeID, start, end)
	if err != nil {
		return nil, fmt.Errorf("sqlite: querying PowerStateChanged: %w", err)
	}
	for stateRows.Next() {
		var state string
		var downBlock sql.NullInt64
		var e events.PowerStateChanged
		if err := stateRows.Scan(&state, &e.Ts, &e.Idx, &downBlock); err != nil {
			stateRows.Close()
			return nil, fmt.Errorf("sqlite: scanning PowerStateChanged: %w", err)
		}
		e.State = parsePower(state)
		if downBlock.Valid {
			db := uint64(downBlock.Int64)
			e.DownBlock = &db
		}
		out = append(out, e)
	}
	if err := stateRows.Err(); err != nil {
		stateRows.Close()
		return nil, err
	}
	stateRows.Close()

	events.Sort(out)
	return out, nil
}

// InitialPower implements events.Source.
func (s *Store) InitialPower(ctx context.Context, nodeID uint32, periodStart int64) (events.InitialPower, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT state, down_time, target, timestamp FROM PowerState WHERE node_id=? AND timestamp>=? AND timestamp<=? ORDER BY ABS(timestamp-?) LIMIT 1`,
		nodeID, periodStart-events.PeriodCatchSeconds, periodStart+events.PeriodCatchSeconds, periodStart)

	var state, target string
	var downTime, timestamp sql.NullInt64
	if err := row.Scan(&state, &downTime, &target, &timestamp); err != nil {
		if err == sql.ErrNoRows {
			return events.InitialPower{}, false, nil
		}
		return events.InitialPower{}, false, fmt.Errorf("sqlite: querying PowerState: %w", err)
	}

	out := events.InitialPower{State: parsePower(state), Target: parsePower(target)}
	if downTime.Valid {
		out.DownTime = &downTime.Int64
	}
	if timestamp.Valid {
		out.Timestamp = &timestamp.Int64
	}
	return out, true, nil
}

func parsePower(s string) events.Power {
	if s == "Up" {
		return events.Up
	}
	return events.Down
}

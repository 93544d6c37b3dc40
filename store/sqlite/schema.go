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

// schema creates the event tables the block ingester populates and this
// store reads from, plus the ingester's own bookkeeping tables. processed_blocks
// and kv are never queried by this package -- they exist so a database
// created by this schema also satisfies the ingester's expectations.
const schema = `
CREATE TABLE IF NOT EXISTS NodeUptimeReported (
	node_id INTEGER NOT NULL,
	uptime INTEGER NOT NULL,
	timestamp INTEGER NOT NULL,
	event_index INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_uptime_node_ts ON NodeUptimeReported (node_id, timestamp);

CREATE TABLE IF NOT EXISTS PowerTargetChanged (
	node_id INTEGER NOT NULL,
	target TEXT NOT NULL,
	timestamp INTEGER NOT NULL,
	event_index INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_target_node_ts ON PowerTargetChanged (node_id, timestamp);

CREATE TABLE IF NOT EXISTS PowerStateChanged (
	node_id INTEGER NOT NULL,
	state TEXT NOT NULL,
	timestamp INTEGER NOT NULL,
	event_index INTEGER NOT NULL,
	down_block INTEGER
);
CREATE INDEX IF NOT EXISTS idx_state_node_ts ON PowerStateChanged (node_id, timestamp);

CREATE TABLE IF NOT EXISTS PowerState (
	node_id INTEGER NOT NULL,
	state TEXT NOT NULL,
	down_time INTEGER,
	target TEXT NOT NULL,
	timestamp INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_powerstate_node_ts ON PowerState (node_id, timestamp);

CREATE TABLE IF NOT EXISTS processed_blocks (
	block_number INTEGER PRIMARY KEY,
	timestamp INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS kv (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

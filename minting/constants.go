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
// Package minting implements the uptime accrual and farmer-bot compliance
// state machine: it replays a time-ordered stream of chain events for a
// single node over one minting period (plus a bounded post-period tail),
// and records, for each event that credits uptime, the seconds credited,
// the elapsed time since the previous credit, the implied downtime, and a
// note. Refused credits and violations produce no record; they are reported
// through the Logger only.
package minting

// UptimeGracePeriodSeconds is the tolerance, in either direction, given to a
// node's self-reported uptime versus the wall-clock time between reports.
const UptimeGracePeriodSeconds int64 = 60

// ClockSkewInterval is the maximum allowed drift between a node's two most
// recently inferred boot times before a clock-skew violation is logged.
const ClockSkewInterval int64 = 2 * UptimeGracePeriodSeconds

// NodeUptimeReportIntervalSeconds is how often a healthy node is expected to
// report its uptime.
const NodeUptimeReportIntervalSeconds int64 = 40 * 60

// MaxUptimeCredit caps any single uptime credit to one report interval plus
// grace.
const MaxUptimeCredit int64 = NodeUptimeReportIntervalSeconds + UptimeGracePeriodSeconds

// MaxPowerManagerDowntime is the longest a farmer-bot-managed node may stay
// asleep and still be credited on wake.
const MaxPowerManagerDowntime int64 = 24 * 60 * 60

// MaxPowerManagerBootTime is the longest a farmer-bot-managed node has to
// respond to a wake request before a boot-duration violation is recorded.
const MaxPowerManagerBootTime int64 = 30 * 60

// MaxAllowedBootViolations is the number of boot-duration violations a node
// may incur in a period before FinalCheck logs a final violation warning.
const MaxAllowedBootViolations uint32 = 1

// PostPeriodSeconds is the length of the tail window replayed, with altered
// scaling, after a period's formal end.
const PostPeriodSeconds int64 = 27 * 60 * 60

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
// Package period computes the minting-period boundaries used throughout the
// uptime accrual state machine. A period is a fixed-length window of time,
// identified by an integer offset from FirstPeriodStartTimestamp; there are
// twelve per calendar year, aligned roughly to month boundaries.
package period

import (
	"fmt"
	"time"
)

// FirstPeriodStartTimestamp is the UNIX timestamp of the start of period 0.
const FirstPeriodStartTimestamp int64 = 1522501000

// StandardPeriodDuration is the length, in seconds, of a standard minting
// period: one sixtieth of a five-year (three regular, two leap) cycle, i.e.
// roughly one month.
const StandardPeriodDuration int64 = 24 * 60 * 60 * (365*3 + 366*2) / 60

// Period describes one minting window: [Start, End), identified by Offset
// periods since FirstPeriodStartTimestamp.
type Period struct {
	Offset int64
	Start  int64
	End    int64
	// Month, MonthName, and Year are derived from the period midpoint,
	// in local time, since a period's boundaries can fall inside different
	// calendar months.
	Month     time.Month
	MonthName string
	Year      int
}

// FromOffset builds the Period at the given offset from
// FirstPeriodStartTimestamp.
func FromOffset(offset int64) Period {
	start := FirstPeriodStartTimestamp + StandardPeriodDuration*offset
	return newPeriod(offset, start)
}

// FromTimestamp builds the Period containing ts.
func FromTimestamp(ts int64) Period {
	offset := (ts - FirstPeriodStartTimestamp) / StandardPeriodDuration
	return FromOffset(offset)
}

// Current builds the Period containing the current moment.
func Current() Period {
	return FromTimestamp(time.Now().Unix())
}

func newPeriod(offset, start int64) Period {
	p := Period{
		Offset: offset,
		Start:  start,
		End:    start + StandardPeriodDuration,
	}
	middle := time.Unix((p.Start+p.End)/2, 0).Local()
	p.Month = middle.Month()
	p.MonthName = middle.Month().String()
	p.Year = middle.Year()
	return p
}

// Duration returns the length of the period in seconds.
func (p Period) Duration() int64 {
	return p.End - p.Start
}

// Contains reports whether ts falls within the period, inclusive of both
// endpoints.
func (p Period) Contains(ts int64) bool {
	return ts >= p.Start && ts <= p.End
}

// WithStart returns a copy of p with its start rescaled to ts. ts must
// precede p.End; this is used to treat part of a period as if it began
// later, e.g. when scoping a grace-period investigation.
func (p Period) WithStart(ts int64) (Period, error) {
	if ts >= p.End {
		return Period{}, fmt.Errorf("period: new start %d must be before period end %d", ts, p.End)
	}
	out := p
	out.Start = ts
	return out, nil
}

func (p Period) String() string {
	return fmt.Sprintf("period %d (%s %d, [%d, %d])", p.Offset, p.MonthName, p.Year, p.Start, p.End)
}

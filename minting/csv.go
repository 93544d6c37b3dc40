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
package minting

import (
	"encoding/csv"
	"io"
	"strconv"
)

var csvHeader = []string{"Date", "Timestamp", "Uptime credited", "Elapsed time", "Downtime", "Note"}

// WriteCSV writes node's credit log to w, one row per CreditRecord, in the
// order the records were produced. No third-party library in the example
// corpus offers CSV encoding; encoding/csv is the standard, idiomatic choice
// here.
func (n *NodeState) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, rec := range n.Events {
		row := []string{
			rec.Datetime.Format("2006-01-02 15:04:05"),
			strconv.FormatInt(rec.Timestamp, 10),
			strconv.FormatInt(rec.Credited, 10),
			strconv.FormatInt(rec.Elapsed, 10),
			strconv.FormatInt(rec.Downtime, 10),
			rec.Note,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

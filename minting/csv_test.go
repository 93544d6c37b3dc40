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
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/threefoldfoundation/grid3-minting/period"
)

func TestWriteCSV(t *testing.T) {
	p := period.FromOffset(10)
	n := NewNodeState(42, p, nil)
	n.CreditUptime(100, p.Start+150, "first credit", false)
	n.CreditUptime(200, p.Start+400, "second credit", false)

	var buf bytes.Buffer
	if err := n.WriteCSV(&buf); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("reading back csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("len(rows) = %d, want 3 (header + 2 records)", len(rows))
	}
	if diff := cmpStrings(rows[0], csvHeader); diff != "" {
		t.Errorf("header mismatch: %s", diff)
	}
	if rows[1][5] != "first credit" {
		t.Errorf("rows[1][5] = %q, want %q", rows[1][5], "first credit")
	}
	if rows[2][2] != "200" {
		t.Errorf("rows[2][2] (credited) = %q, want 200", rows[2][2])
	}
}

func cmpStrings(a, b []string) string {
	if len(a) != len(b) {
		return "length mismatch"
	}
	for i := range a {
		if a[i] != b[i] {
			return "mismatch at " + a[i] + " vs " + b[i]
		}
	}
	return ""
}

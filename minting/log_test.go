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

import "testing"

func TestRecordingLogger(t *testing.T) {
	r := &RecordingLogger{}
	r.Infof("node %d booted", 7)
	r.Warningf("node %d clock skew %d", 7, 90)

	if len(r.Infos) != 1 || r.Infos[0] != "node 7 booted" {
		t.Errorf("Infos = %v, want [\"node 7 booted\"]", r.Infos)
	}
	if len(r.Warnings) != 1 || r.Warnings[0] != "node 7 clock skew 90" {
		t.Errorf("Warnings = %v, want [\"node 7 clock skew 90\"]", r.Warnings)
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	var l Logger = NopLogger{}
	l.Infof("anything %d", 1)
	l.Warningf("anything %d", 2)
}

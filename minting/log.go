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
	"fmt"

	"github.com/golang/glog"
)

// Logger receives the engine's informational and violation messages, so a
// run's log destination is never ambient state.
type Logger interface {
	Infof(format string, args ...interface{})
	Warningf(format string, args ...interface{})
}

// GlogLogger forwards to glog, the logging backend cmd/mintcheck also uses
// for its own startup errors.
type GlogLogger struct{}

// Infof implements Logger.
func (GlogLogger) Infof(format string, args ...interface{}) { glog.Infof(format, args...) }

// Warningf implements Logger.
func (GlogLogger) Warningf(format string, args ...interface{}) { glog.Warningf(format, args...) }

// NopLogger discards every message. Useful when embedding the engine in a
// context that doesn't want per-event logging at all.
type NopLogger struct{}

// Infof implements Logger.
func (NopLogger) Infof(string, ...interface{}) {}

// Warningf implements Logger.
func (NopLogger) Warningf(string, ...interface{}) {}

// RecordingLogger captures every message it receives, in order, for
// inspection by tests.
type RecordingLogger struct {
	Infos    []string
	Warnings []string
}

// Infof implements Logger.
func (r *RecordingLogger) Infof(format string, args ...interface{}) {
	r.Infos = append(r.Infos, fmt.Sprintf(format, args...))
}

// Warningf implements Logger.
func (r *RecordingLogger) Warningf(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

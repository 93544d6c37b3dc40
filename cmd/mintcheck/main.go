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
// Command mintcheck replays a single node's uptime accrual over one minting
// period against a sqlite event database, printing a summary and optionally
// writing the node's credit log to a CSV file.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/golang/glog"

	"github.com/threefoldfoundation/grid3-minting/minting"
	"github.com/threefoldfoundation/grid3-minting/period"
	"github.com/threefoldfoundation/grid3-minting/store/sqlite"
)

func main() {
	nodeID := flag.Uint64("node", 0, "node ID to check")
	dbPath := flag.String("db", "tfchain.db", "path to the sqlite event database")
	offset := flag.Int64("period", -1, "period offset to check; defaults to the previous completed period")
	csvPath := flag.String("csv", "", "if set, write the node's credit log to this CSV path")
	verbose := flag.Bool("verbose", false, "additionally log elapsed and downtime detail for every credit")
	flag.Parse()

	if *nodeID == 0 {
		fmt.Fprintln(os.Stderr, "mintcheck: -node is required")
		os.Exit(2)
	}

	store, err := sqlite.Open(*dbPath)
	if err != nil {
		glog.Exitf("mintcheck: opening database: %v", err)
	}
	defer store.Close()

	p := period.Current()
	p = period.FromOffset(p.Offset - 1)
	if *offset >= 0 {
		p = period.FromOffset(*offset)
	}

	check := minting.CheckNode
	if *verbose {
		check = minting.CheckNodeVerbose
	}

	node, err := check(context.Background(), store, uint32(*nodeID), p, minting.GlogLogger{})
	if err != nil {
		glog.Exitf("mintcheck: checking node %d over %s: %v", *nodeID, p, err)
	}

	fmt.Printf("node %d, %s: uptime=%ds downtime=%ds boot_violations=%d\n",
		node.ID, p, node.Uptime, node.Downtime, node.BootDurationViolations)

	if *csvPath != "" {
		f, err := os.Create(*csvPath)
		if err != nil {
			glog.Exitf("mintcheck: creating %s: %v", *csvPath, err)
		}
		defer f.Close()
		if err := node.WriteCSV(f); err != nil {
			glog.Exitf("mintcheck: writing csv: %v", err)
		}
	}
}

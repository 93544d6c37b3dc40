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
// Package runner drives minting.CheckNode across many nodes: a CachedRunner
// memoizes per-(node, period) results, and Batch fans a node set out across
// goroutines.
package runner

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/simplelru"
	"golang.org/x/sync/errgroup"

	"github.com/threefoldfoundation/grid3-minting/events"
	"github.com/threefoldfoundation/grid3-minting/minting"
	"github.com/threefoldfoundation/grid3-minting/period"
)

type cacheKey struct {
	node   uint32
	offset int64
}

// CachedRunner wraps minting.CheckNode with an LRU cache keyed by (node,
// period), so repeated checks of the same node/period pair -- e.g. while
// iterating violations across a batch -- don't re-fetch and re-replay
// events.
type CachedRunner struct {
	src    events.Source
	logger minting.Logger

	mu    sync.Mutex
	cache *simplelru.LRU
}

// NewCachedRunner constructs a CachedRunner over src, caching up to size
// results.
func NewCachedRunner(src events.Source, logger minting.Logger, size int) (*CachedRunner, error) {
	cache, err := simplelru.NewLRU(size, nil)
	if err != nil {
		return nil, fmt.Errorf("runner: building cache: %w", err)
	}
	if logger == nil {
		logger = minting.NopLogger{}
	}
	return &CachedRunner{src: src, logger: logger, cache: cache}, nil
}

// CheckNode returns the cached NodeState for (nodeID, p) if present,
// otherwise runs minting.CheckNode and caches the result.
func (r *CachedRunner) CheckNode(ctx context.Context, nodeID uint32, p period.Period, gracePeriods ...*minting.GracePeriod) (*minting.NodeState, error) {
	key := cacheKey{node: nodeID, offset: p.Offset}

	r.mu.Lock()
	if v, ok := r.cache.Get(key); ok {
		r.mu.Unlock()
		return v.(*minting.NodeState), nil
	}
	r.mu.Unlock()

	node, err := minting.CheckNode(ctx, r.src, nodeID, p, r.logger, gracePeriods...)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.cache.Add(key, node)
	r.mu.Unlock()

	return node, nil
}

// Result is one node's outcome from a Batch run.
type Result struct {
	NodeID uint32
	Node   *minting.NodeState
	Err    error
}

// Batch runs CheckNode for every node in nodeIDs concurrently, returning one
// Result per node (in no particular order). Each batch is tagged with a
// fresh correlation ID, surfaced in RunID, for log correlation across the
// fan-out.
type Batch struct {
	RunID  uuid.UUID
	runner *CachedRunner
}

// NewBatch creates a Batch over runner, minting a new run ID.
func NewBatch(runner *CachedRunner) *Batch {
	return &Batch{RunID: uuid.New(), runner: runner}
}

// Run checks every node in nodeIDs against p concurrently. A node's failure
// is reported in its Result.Err and does not cancel the other checks, so the
// returned error is always nil.
func (b *Batch) Run(ctx context.Context, nodeIDs []uint32, p period.Period, gracePeriods ...*minting.GracePeriod) ([]Result, error) {
	g, ctx := errgroup.WithContext(ctx)
	results := make([]Result, len(nodeIDs))

	for i, nodeID := range nodeIDs {
		i, nodeID := i, nodeID
		g.Go(func() error {
			node, err := b.runner.CheckNode(ctx, nodeID, p, gracePeriods...)
			results[i] = Result{NodeID: nodeID, Node: node, Err: err}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

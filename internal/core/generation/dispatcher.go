// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// This file implements the parallel task dispatcher: a bounded worker
// pool that runs independent generation tasks concurrently and returns
// their results in submission order.
//
// Logic Flow:
//  1. Jobs are written to a buffered channel, each tagged with its
//     submission index.
//  2. A fixed number of worker goroutines pull jobs, run them through the
//     controller, and write indexed results back.
//  3. The collector places each result at its submission index, so the
//     output slice lines up one-to-one with the input slice regardless of
//     completion order.
//
// A failing task produces a structured TaskResult at its slot; it never
// cancels or disturbs its siblings.

package generation

import (
	"context"
	"sync"
)

// DefaultPoolSize is the worker count used when the configuration does
// not set one.
const DefaultPoolSize = 4

// Dispatcher fans independent requests out over a fixed pool of workers.
type Dispatcher struct {
	Controller *Controller
	PoolSize   int
}

// NewDispatcher builds a dispatcher around ctrl with the given pool size.
// Sizes below one fall back to DefaultPoolSize.
func NewDispatcher(ctrl *Controller, poolSize int) *Dispatcher {
	if poolSize < 1 {
		poolSize = DefaultPoolSize
	}
	return &Dispatcher{Controller: ctrl, PoolSize: poolSize}
}

type indexedJob struct {
	index int
	req   *Request
}

type indexedResult struct {
	index  int
	result *TaskResult
}

// RunAll executes every request and returns one TaskResult per request,
// in submission order. The call blocks until all tasks have reached a
// terminal outcome (or, in non-blocking mode, returned their handles).
func (d *Dispatcher) RunAll(ctx context.Context, reqs []*Request) []*TaskResult {
	out := make([]*TaskResult, len(reqs))
	if len(reqs) == 0 {
		return out
	}

	workers := d.PoolSize
	if workers < 1 {
		workers = DefaultPoolSize
	}
	if workers > len(reqs) {
		workers = len(reqs)
	}

	jobs := make(chan indexedJob, len(reqs))
	results := make(chan indexedResult, len(reqs))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				results <- indexedResult{index: job.index, result: d.Controller.Run(ctx, job.req)}
			}
		}()
	}

	for i, req := range reqs {
		jobs <- indexedJob{index: i, req: req}
	}
	close(jobs)

	wg.Wait()
	close(results)

	for r := range results {
		out[r.index] = r.result
	}
	return out
}

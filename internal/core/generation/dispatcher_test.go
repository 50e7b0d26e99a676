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

package generation_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/gcp-go-dreamboard/internal/core/generation"
	"github.com/jaycherian/gcp-go-dreamboard/internal/core/model"
)

// slowGateway completes jobs in reverse submission order to prove the
// dispatcher reorders results by index. It also tracks the peak number of
// concurrent submissions.
type slowGateway struct {
	mu      sync.Mutex
	active  int
	peak    int
	failing string
}

func (g *slowGateway) Submit(_ context.Context, req *generation.Request) (*generation.Result, *generation.OperationHandle, error) {
	g.mu.Lock()
	g.active++
	if g.active > g.peak {
		g.peak = g.active
	}
	g.mu.Unlock()
	defer func() {
		g.mu.Lock()
		g.active--
		g.mu.Unlock()
	}()

	// Later submissions finish first.
	var idx int
	fmt.Sscanf(req.Prompt, "task-%d", &idx)
	time.Sleep(time.Duration(8-idx) * 5 * time.Millisecond)

	if req.Prompt == g.failing {
		return nil, nil, errors.New("permanent backend fault")
	}
	return &generation.Result{Text: req.Prompt}, nil, nil
}

func (g *slowGateway) Poll(context.Context, *generation.OperationHandle) (*generation.OperationStatus, error) {
	return nil, errors.New("not used")
}

func requestBatch(n int) []*generation.Request {
	reqs := make([]*generation.Request, n)
	for i := range reqs {
		reqs[i] = &generation.Request{Kind: model.TaskTextGenerate, Prompt: fmt.Sprintf("task-%d", i)}
	}
	return reqs
}

func TestRunAllPreservesSubmissionOrder(t *testing.T) {
	gw := &slowGateway{}
	d := generation.NewDispatcher(generation.NewController(gw), 4)

	results := d.RunAll(context.Background(), requestBatch(8))

	require.Len(t, results, 8)
	for i, res := range results {
		require.NotNil(t, res, "slot %d", i)
		assert.Equal(t, generation.OutcomeSuccess, res.Outcome)
		assert.Equal(t, fmt.Sprintf("task-%d", i), res.Result.Text)
	}
	assert.LessOrEqual(t, gw.peak, 4)
	assert.Greater(t, gw.peak, 1)
}

func TestRunAllIsolatesFailingTask(t *testing.T) {
	gw := &slowGateway{failing: "task-3"}
	d := generation.NewDispatcher(generation.NewController(gw), 2)

	results := d.RunAll(context.Background(), requestBatch(6))

	require.Len(t, results, 6)
	for i, res := range results {
		if i == 3 {
			assert.Equal(t, generation.OutcomeError, res.Outcome)
			assert.Error(t, res.Err)
			continue
		}
		assert.Equal(t, generation.OutcomeSuccess, res.Outcome, "slot %d", i)
	}
}

func TestRunAllEmptyBatch(t *testing.T) {
	d := generation.NewDispatcher(generation.NewController(&slowGateway{}), 4)
	assert.Empty(t, d.RunAll(context.Background(), nil))
}

func TestNewDispatcherDefaultsPoolSize(t *testing.T) {
	d := generation.NewDispatcher(nil, 0)
	assert.Equal(t, generation.DefaultPoolSize, d.PoolSize)
}

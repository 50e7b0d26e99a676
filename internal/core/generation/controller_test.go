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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/contrib/bridges/otelslog"

	"github.com/jaycherian/gcp-go-dreamboard/internal/core/generation"
	"github.com/jaycherian/gcp-go-dreamboard/internal/core/model"
)

// fakeGateway scripts gateway responses per call number (1-based).
type fakeGateway struct {
	submits  int
	polls    int
	submitFn func(n int, req *generation.Request) (*generation.Result, *generation.OperationHandle, error)
	pollFn   func(n int, handle *generation.OperationHandle) (*generation.OperationStatus, error)
}

func (f *fakeGateway) Submit(_ context.Context, req *generation.Request) (*generation.Result, *generation.OperationHandle, error) {
	f.submits++
	return f.submitFn(f.submits, req)
}

func (f *fakeGateway) Poll(_ context.Context, handle *generation.OperationHandle) (*generation.OperationStatus, error) {
	f.polls++
	return f.pollFn(f.polls, handle)
}

// recordingSleep captures backoff and poll waits instead of sleeping.
func recordingSleep(sleeps *[]time.Duration) generation.SleepFunc {
	return func(_ context.Context, d time.Duration) error {
		*sleeps = append(*sleeps, d)
		return nil
	}
}

func textToVideoRequest() *generation.Request {
	return &generation.Request{Kind: model.TaskTextToVideo, Prompt: "a fox running through snow"}
}

func oneVideoResult() *generation.Result {
	return &generation.Result{Videos: []*model.VideoReference{{ID: "v-1", GCSURI: "gs://bucket/story/videos/v-1.mp4"}}}
}

func TestRunRetriesTransientFailuresWithBackoff(t *testing.T) {
	gw := &fakeGateway{
		submitFn: func(n int, _ *generation.Request) (*generation.Result, *generation.OperationHandle, error) {
			if n <= 2 {
				return nil, nil, errors.New("rpc error: code 429 resource exhausted")
			}
			return oneVideoResult(), nil, nil
		},
	}
	var sleeps []time.Duration
	ctrl := &generation.Controller{
		Gateway: gw,
		Sleep:   recordingSleep(&sleeps),
		Logger:  otelslog.NewLogger("controller_test"),
	}

	res := ctrl.Run(context.Background(), textToVideoRequest())

	require.Equal(t, generation.OutcomeSuccess, res.Outcome)
	assert.Equal(t, 3, res.Attempts)
	assert.Len(t, res.Result.Videos, 1)
	// The backoff doubles from its 10 second base.
	assert.Equal(t, []time.Duration{10 * time.Second, 20 * time.Second}, sleeps)
}

func TestRunGivesUpAfterAttemptBudget(t *testing.T) {
	gw := &fakeGateway{
		submitFn: func(int, *generation.Request) (*generation.Result, *generation.OperationHandle, error) {
			return nil, nil, errors.New("http 503 service unavailable")
		},
	}
	var sleeps []time.Duration
	ctrl := &generation.Controller{Gateway: gw, Sleep: recordingSleep(&sleeps)}

	res := ctrl.Run(context.Background(), textToVideoRequest())

	require.Equal(t, generation.OutcomeError, res.Outcome)
	assert.Equal(t, generation.MaxAttempts, res.Attempts)
	assert.Equal(t, generation.MaxAttempts, gw.submits)
	assert.ErrorContains(t, res.Err, "gave up after 3 attempts")
}

func TestRunRejectsInvalidRequestWithoutSubmitting(t *testing.T) {
	gw := &fakeGateway{
		submitFn: func(int, *generation.Request) (*generation.Result, *generation.OperationHandle, error) {
			t.Fatal("invalid request must not reach the gateway")
			return nil, nil, nil
		},
	}
	ctrl := generation.NewController(gw)

	res := ctrl.Run(context.Background(), &generation.Request{Kind: model.TaskImageToVideo})

	require.Equal(t, generation.OutcomeInvalid, res.Outcome)
	assert.Equal(t, 1, res.Attempts)
	assert.Equal(t, 0, gw.submits)
	assert.Equal(t, generation.FailureInvalid, generation.ClassOf(res.Err))
}

func TestRunDoesNotRetryPermanentFailures(t *testing.T) {
	gw := &fakeGateway{
		submitFn: func(int, *generation.Request) (*generation.Result, *generation.OperationHandle, error) {
			return nil, nil, errors.New("permission denied on output bucket")
		},
	}
	var sleeps []time.Duration
	ctrl := &generation.Controller{Gateway: gw, Sleep: recordingSleep(&sleeps)}

	res := ctrl.Run(context.Background(), textToVideoRequest())

	require.Equal(t, generation.OutcomeError, res.Outcome)
	assert.Equal(t, 1, gw.submits)
	assert.Empty(t, sleeps)
}

func TestRunPollsOperationToCompletion(t *testing.T) {
	gw := &fakeGateway{
		submitFn: func(int, *generation.Request) (*generation.Result, *generation.OperationHandle, error) {
			return nil, &generation.OperationHandle{Name: "operations/op-1"}, nil
		},
		pollFn: func(n int, _ *generation.OperationHandle) (*generation.OperationStatus, error) {
			if n < 3 {
				return &generation.OperationStatus{}, nil
			}
			return &generation.OperationStatus{Done: true, Result: oneVideoResult()}, nil
		},
	}
	var sleeps []time.Duration
	ctrl := &generation.Controller{Gateway: gw, Sleep: recordingSleep(&sleeps)}

	res := ctrl.Run(context.Background(), textToVideoRequest())

	require.Equal(t, generation.OutcomeSuccess, res.Outcome)
	assert.Equal(t, 3, gw.polls)
	// Two pending observations, each followed by the fixed poll interval.
	assert.Equal(t, []time.Duration{15 * time.Second, 15 * time.Second}, sleeps)
}

func TestRunTreatsEmptyCompletionAsFiltered(t *testing.T) {
	gw := &fakeGateway{
		submitFn: func(int, *generation.Request) (*generation.Result, *generation.OperationHandle, error) {
			return nil, &generation.OperationHandle{Name: "operations/op-2"}, nil
		},
		pollFn: func(int, *generation.OperationHandle) (*generation.OperationStatus, error) {
			return &generation.OperationStatus{Done: true, Result: &generation.Result{}}, nil
		},
	}
	ctrl := &generation.Controller{Gateway: gw, Sleep: recordingSleep(&[]time.Duration{})}

	res := ctrl.Run(context.Background(), textToVideoRequest())

	require.Equal(t, generation.OutcomeFiltered, res.Outcome)
	assert.ErrorContains(t, res.Err, "blocked by content policies")
	// Filtered outcomes are terminal, no retry.
	assert.Equal(t, 1, gw.submits)
}

func TestRunNonBlockingReturnsPendingHandle(t *testing.T) {
	gw := &fakeGateway{
		submitFn: func(int, *generation.Request) (*generation.Result, *generation.OperationHandle, error) {
			return nil, &generation.OperationHandle{Name: "operations/op-3", Model: "veo-2.0-generate-001"}, nil
		},
		pollFn: func(int, *generation.OperationHandle) (*generation.OperationStatus, error) {
			t.Fatal("non-blocking mode must not poll")
			return nil, nil
		},
	}
	ctrl := &generation.Controller{Gateway: gw, NonBlocking: true}

	res := ctrl.Run(context.Background(), textToVideoRequest())

	require.Equal(t, generation.OutcomePending, res.Outcome)
	require.NotNil(t, res.Handle)
	assert.Equal(t, "operations/op-3", res.Handle.Name)
}

func TestResumeCompletesDeferredOperation(t *testing.T) {
	gw := &fakeGateway{
		pollFn: func(n int, handle *generation.OperationHandle) (*generation.OperationStatus, error) {
			assert.Equal(t, "operations/op-4", handle.Name)
			if n == 1 {
				return &generation.OperationStatus{}, nil
			}
			return &generation.OperationStatus{Done: true, Result: oneVideoResult()}, nil
		},
	}
	var sleeps []time.Duration
	ctrl := &generation.Controller{Gateway: gw, Sleep: recordingSleep(&sleeps)}

	res := ctrl.Resume(context.Background(), textToVideoRequest(), &generation.OperationHandle{Name: "operations/op-4"})

	require.Equal(t, generation.OutcomeSuccess, res.Outcome)
	assert.Len(t, res.Result.Videos, 1)
	assert.Equal(t, []time.Duration{15 * time.Second}, sleeps)
}

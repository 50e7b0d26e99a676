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

// This file implements the retry/poll controller that drives a single
// generation request to a terminal outcome.
//
// Logic Flow:
//  1. Validate the request. Invalid requests terminate immediately with a
//     single attempt and no backend call beyond validation.
//  2. Submit to the gateway. Synchronous results terminate the task;
//     asynchronous submissions produce an operation handle.
//  3. Poll the handle on a fixed interval until the operation reports done.
//  4. Transient failures (throttling, 5xx) restart from Submit with
//     exponential backoff, up to the attempt budget. Invalid, filtered and
//     permanent failures terminate at once.
//  5. A completed operation with no media terminates as a filtered
//     outcome, not an error: the backend accepted the request and its
//     policy layer dropped every sample.
//
// The sleep function is injectable so tests can assert the backoff
// schedule without waiting on wall time.

package generation

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Retry and polling defaults, matching the backend quota guidance.
const (
	// MaxAttempts is the total submit budget per task, first try included.
	MaxAttempts = 3
	// BackoffBase scales the exponential backoff: the wait before retry n
	// (1-based) is BackoffBase * 2^(n-1), giving 10s then 20s.
	BackoffBase = 10 * time.Second
	// PollInterval is the delay between successive polls of a
	// long-running operation.
	PollInterval = 15 * time.Second
)

// Outcome is the terminal state of a task. Every task finishes in exactly
// one of these states.
type Outcome int

const (
	// OutcomeSuccess means media was produced.
	OutcomeSuccess Outcome = iota
	// OutcomeFiltered means the backend completed but policy filters
	// removed all output, or refused the request outright.
	OutcomeFiltered
	// OutcomeInvalid means the request failed validation. One attempt,
	// no retry.
	OutcomeInvalid
	// OutcomeError means a permanent backend failure, or transient
	// failures that exhausted the attempt budget.
	OutcomeError
	// OutcomePending is only produced in non-blocking mode: the
	// operation was submitted and the caller holds the handle.
	OutcomePending
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeFiltered:
		return "filtered"
	case OutcomeInvalid:
		return "invalid"
	case OutcomePending:
		return "pending"
	default:
		return "error"
	}
}

// TaskResult binds a terminal outcome back to the request that produced
// it. Request is never nil, so callers can always re-associate results
// with their inputs positionally or by inspection.
type TaskResult struct {
	Request  *Request
	Outcome  Outcome
	Result   *Result          // Set when Outcome is OutcomeSuccess.
	Handle   *OperationHandle // Set when Outcome is OutcomePending.
	Err      error            // Set for OutcomeInvalid, OutcomeFiltered, OutcomeError.
	Attempts int              // Submit attempts actually consumed.
}

// SleepFunc pauses for d or returns early with the context error. Tests
// substitute a recording fake.
type SleepFunc func(ctx context.Context, d time.Duration) error

// ContextSleep is the production SleepFunc.
func ContextSleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Controller drives generation requests through the gateway with retry
// and polling. Zero-value fields fall back to the package defaults, so
// Controller{Gateway: gw} is a working configuration.
type Controller struct {
	Gateway      Gateway
	MaxAttempts  int
	BackoffBase  time.Duration
	PollInterval time.Duration
	Sleep        SleepFunc
	// NonBlocking returns OutcomePending with the operation handle
	// instead of polling to completion.
	NonBlocking bool
	Logger      *slog.Logger
}

// NewController builds a blocking controller with production defaults.
func NewController(gw Gateway) *Controller {
	return &Controller{Gateway: gw}
}

func (c *Controller) maxAttempts() int {
	if c.MaxAttempts > 0 {
		return c.MaxAttempts
	}
	return MaxAttempts
}

func (c *Controller) backoffBase() time.Duration {
	if c.BackoffBase > 0 {
		return c.BackoffBase
	}
	return BackoffBase
}

func (c *Controller) pollInterval() time.Duration {
	if c.PollInterval > 0 {
		return c.PollInterval
	}
	return PollInterval
}

func (c *Controller) sleep(ctx context.Context, d time.Duration) error {
	if c.Sleep != nil {
		return c.Sleep(ctx, d)
	}
	return ContextSleep(ctx, d)
}

func (c *Controller) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// Run drives req to a terminal TaskResult. The returned result always
// carries req; Run never returns nil.
func (c *Controller) Run(ctx context.Context, req *Request) *TaskResult {
	if err := req.Validate(); err != nil {
		return &TaskResult{Request: req, Outcome: OutcomeInvalid, Err: err, Attempts: 1}
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts(); attempt++ {
		if attempt > 1 {
			wait := c.backoffBase() * (1 << (attempt - 2))
			c.logger().Warn("retrying generation after transient failure",
				"kind", string(req.Kind), "attempt", attempt, "wait", wait.String(), "error", lastErr)
			if err := c.sleep(ctx, wait); err != nil {
				return &TaskResult{Request: req, Outcome: OutcomeError,
					Err: Classify("controller.backoff", err), Attempts: attempt - 1}
			}
		}

		res := c.attempt(ctx, req)
		res.Attempts = attempt
		if res.Outcome != OutcomeError || ClassOf(res.Err) != FailureTransient {
			return res
		}
		lastErr = res.Err
	}

	return &TaskResult{
		Request:  req,
		Outcome:  OutcomeError,
		Err:      NewError(FailurePermanent, "controller.retry", fmt.Errorf("gave up after %d attempts: %w", c.maxAttempts(), lastErr)),
		Attempts: c.maxAttempts(),
	}
}

// attempt performs one submit (and, when needed, poll loop) cycle.
func (c *Controller) attempt(ctx context.Context, req *Request) *TaskResult {
	result, handle, err := c.Gateway.Submit(ctx, req)
	if err != nil {
		return c.failure(req, Classify("gateway.submit", err))
	}

	if handle != nil {
		if c.NonBlocking {
			return &TaskResult{Request: req, Outcome: OutcomePending, Handle: handle}
		}
		result, err = c.poll(ctx, handle)
		if err != nil {
			return c.failure(req, Classify("gateway.poll", err))
		}
	}

	if result.Empty() {
		return &TaskResult{
			Request: req,
			Outcome: OutcomeFiltered,
			Err:     Filteredf("controller", "no media produced, request may have been blocked by content policies"),
		}
	}
	return &TaskResult{Request: req, Outcome: OutcomeSuccess, Result: result}
}

// poll blocks until the operation completes, checking on a fixed interval.
func (c *Controller) poll(ctx context.Context, handle *OperationHandle) (*Result, error) {
	for {
		status, err := c.Gateway.Poll(ctx, handle)
		if err != nil {
			return nil, err
		}
		if status.Done {
			if status.Err != nil {
				return nil, status.Err
			}
			return status.Result, nil
		}
		c.logger().Debug("operation still running", "operation", handle.Name)
		if err := c.sleep(ctx, c.pollInterval()); err != nil {
			return nil, err
		}
	}
}

// failure maps a classified error to its terminal outcome.
func (c *Controller) failure(req *Request, err *Error) *TaskResult {
	out := OutcomeError
	switch err.Class {
	case FailureInvalid:
		out = OutcomeInvalid
	case FailureFiltered:
		out = OutcomeFiltered
	}
	return &TaskResult{Request: req, Outcome: out, Err: err}
}

// Resume polls a previously returned handle to completion. It is the
// blocking half of non-blocking mode, used when a caller later decides to
// wait on an operation it submitted earlier.
func (c *Controller) Resume(ctx context.Context, req *Request, handle *OperationHandle) *TaskResult {
	result, err := c.poll(ctx, handle)
	if err != nil {
		res := c.failure(req, Classify("gateway.poll", err))
		res.Attempts = 1
		return res
	}
	if result.Empty() {
		return &TaskResult{Request: req, Outcome: OutcomeFiltered, Attempts: 1,
			Err: Filteredf("controller", "no media produced, request may have been blocked by content policies")}
	}
	return &TaskResult{Request: req, Outcome: OutcomeSuccess, Result: result, Attempts: 1}
}

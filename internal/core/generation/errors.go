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

// Package generation orchestrates calls to external media generation
// backends: request validation, submit/poll lifecycle, retry with
// exponential backoff, and parallel dispatch of independent tasks.
//
// Every failure that crosses the package boundary is classified into a
// closed set of failure classes so callers can branch on class instead of
// parsing backend-specific error strings. The string matching needed to
// recognize throttling responses happens exactly once, in Classify, which
// is the single point to revisit when a backend changes its error shape.
package generation

import (
	"errors"
	"fmt"
	"strings"
)

// FailureClass partitions every generation failure.
type FailureClass int

const (
	// FailureInvalid marks a request that can never succeed as written:
	// missing seed images, unknown task kind, malformed parameters.
	// Never retried.
	FailureInvalid FailureClass = iota
	// FailureTransient marks throttling or temporary backend trouble.
	// Retried with backoff.
	FailureTransient
	// FailureFiltered marks requests refused by responsible-AI policies,
	// including operations that complete with no media. Never retried.
	FailureFiltered
	// FailurePermanent marks everything else: auth, quota exhaustion
	// beyond retry, backend bugs. Never retried.
	FailurePermanent
)

// String returns the log-friendly name of the class.
func (f FailureClass) String() string {
	switch f {
	case FailureInvalid:
		return "invalid"
	case FailureTransient:
		return "transient"
	case FailureFiltered:
		return "filtered"
	default:
		return "permanent"
	}
}

// Error is the classified error type returned by this package.
type Error struct {
	Class FailureClass
	Op    string // The operation that failed, e.g. "veo.submit".
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Class, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError wraps err with a failure class and originating operation.
func NewError(class FailureClass, op string, err error) *Error {
	return &Error{Class: class, Op: op, Err: err}
}

// Invalidf builds a FailureInvalid error from a format string.
func Invalidf(op, format string, args ...any) *Error {
	return NewError(FailureInvalid, op, fmt.Errorf(format, args...))
}

// Filteredf builds a FailureFiltered error from a format string.
func Filteredf(op, format string, args ...any) *Error {
	return NewError(FailureFiltered, op, fmt.Errorf(format, args...))
}

// transientMarkers are the status-code substrings that identify a
// retryable backend response. The upstream SDK folds HTTP status into the
// error text, so substring matching is the available signal.
var transientMarkers = []string{"429", "500", "503", "RESOURCE_EXHAUSTED", "UNAVAILABLE"}

// Classify maps a raw backend error to a classified Error. Errors already
// classified pass through unchanged.
func Classify(op string, err error) *Error {
	if err == nil {
		return nil
	}
	var ge *Error
	if errors.As(err, &ge) {
		return ge
	}
	msg := err.Error()
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return NewError(FailureTransient, op, err)
		}
	}
	return NewError(FailurePermanent, op, err)
}

// ClassOf extracts the failure class from any error, defaulting to
// FailurePermanent for unclassified ones.
func ClassOf(err error) FailureClass {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Class
	}
	return FailurePermanent
}

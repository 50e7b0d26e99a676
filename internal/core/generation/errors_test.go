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
	"errors"
	"fmt"
	"testing"

	"github.com/zeebo/assert"

	"github.com/jaycherian/gcp-go-dreamboard/internal/core/generation"
)

func TestClassifyRecognizesThrottlingMarkers(t *testing.T) {
	for _, msg := range []string{
		"googleapi: Error 429: quota exceeded",
		"rpc error: code = RESOURCE_EXHAUSTED desc = slow down",
		"upstream returned 503",
		"server error 500",
		"code = UNAVAILABLE desc = try again later",
	} {
		ge := generation.Classify("veo.submit", errors.New(msg))
		assert.Equal(t, generation.FailureTransient, ge.Class)
	}
}

func TestClassifyDefaultsToPermanent(t *testing.T) {
	ge := generation.Classify("veo.submit", errors.New("invalid authentication credentials"))
	assert.Equal(t, generation.FailurePermanent, ge.Class)
	assert.Equal(t, "veo.submit", ge.Op)
}

func TestClassifyPassesThroughClassifiedErrors(t *testing.T) {
	orig := generation.Invalidf("validate", "prompt is required")
	wrapped := fmt.Errorf("task failed: %w", orig)

	ge := generation.Classify("veo.submit", wrapped)
	assert.Equal(t, generation.FailureInvalid, ge.Class)
	assert.Equal(t, "validate", ge.Op)
}

func TestClassifyNil(t *testing.T) {
	assert.Nil(t, generation.Classify("veo.submit", nil))
}

func TestErrorStringIncludesOpAndClass(t *testing.T) {
	ge := generation.NewError(generation.FailureFiltered, "imagen.generate", errors.New("blocked"))
	assert.Equal(t, "imagen.generate: filtered: blocked", ge.Error())
}

func TestClassOfUnclassifiedError(t *testing.T) {
	assert.Equal(t, generation.FailurePermanent, generation.ClassOf(errors.New("anything")))
}

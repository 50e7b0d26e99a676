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

// Package cloud provides components for interacting with Google Cloud services.
// This file implements a wrapper around the standard Generative AI client.
// The wrapper uses the Decorator design pattern to add rate limiting and a
// retry mechanism to the Generative AI model without altering its code.
//
// Why this is important:
//   - Rate Limiting: Vertex AI enforces per-minute request quotas. The wrapper
//     keeps the application under those limits instead of burning quota on
//     requests that would be rejected.
//   - Retry Logic: Network requests can fail for transient reasons. The wrapper
//     automatically retries a failed request, making the application more resilient.
//
// Structs:
//   - QuotaAwareGenerativeAIModel: Wraps a model handle plus its generation
//     config and adds a rate limiter.
//
// Functions:
//   - NewQuotaAwareModel: A constructor to create a new instance of the wrapped model.
//   - GenerateContent: An overridden method that intercepts calls to the AI model
//     to enforce rate limiting and retries.
package cloud

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// retryKey is the context key carrying the attempt count across recursive
// retries.
type retryKey struct{}

// QuotaAwareGenerativeAIModel is a decorator struct that wraps a generative
// model handle and its content configuration to add rate-limiting
// capabilities. Calls go through GenerateContent, which enforces the
// limiter before touching the API.
type QuotaAwareGenerativeAIModel struct {
	GenerativeContentConfig *genai.GenerateContentConfig // The generation parameters applied to every call.
	ModelName               string
	ModelHandle             *genai.Models
	RateLimit               rate.Limiter // Controls request frequency against the model quota.
}

// NewQuotaAwareModel is a constructor function that creates a new
// QuotaAwareGenerativeAIModel. It takes the base model configuration and a
// rate limit (in requests per second) and returns the enhanced,
// quota-aware model.
//
// Inputs:
//   - wrapped: The *genai.GenerateContentConfig applied to every call.
//   - name: The model name the wrapper submits against.
//   - modelHandle: The genai model collection used to execute calls.
//   - requestsPerSecond: The maximum number of API calls allowed per second.
//
// Outputs:
//   - *QuotaAwareGenerativeAIModel: A pointer to the newly created wrapper.
func NewQuotaAwareModel(wrapped *genai.GenerateContentConfig, name string, modelHandle *genai.Models, requestsPerSecond int) *QuotaAwareGenerativeAIModel {
	return &QuotaAwareGenerativeAIModel{
		GenerativeContentConfig: wrapped,
		ModelName:               name,
		ModelHandle:             modelHandle,
		// Allows a burst of `requestsPerSecond` events, replenished at one
		// token per second.
		RateLimit: *rate.NewLimiter(rate.Every(time.Second/1), requestsPerSecond),
	}
}

// GenerateContent executes a generation call under the rate limiter.
//
// Logic Flow:
//  1. Check the rate limiter.
//  2. If a request is allowed, call the model. On failure, retry up to
//     MaxRetries times with a one minute pause between attempts.
//  3. If the limiter rejects the request, pause briefly and re-queue it.
//
// Inputs:
//   - ctx: The context for the request. It also carries retry state.
//   - content: The parts of the multi-modal prompt (text, images, etc.).
//
// Outputs:
//   - *genai.GenerateContentResponse: The response from the AI model if successful.
//   - error: An error if the request fails after all retries.
func (q *QuotaAwareGenerativeAIModel) GenerateContent(ctx context.Context, content []*genai.Content) (resp *genai.GenerateContentResponse, err error) {
	if !q.RateLimit.Allow() {
		// Rate limited: pause this request, then try to obtain a token again.
		time.Sleep(time.Second * 5)
		return q.GenerateContent(ctx, content)
	}

	resp, err = q.ModelHandle.GenerateContent(ctx, q.ModelName, content, q.GenerativeContentConfig)
	if err != nil {
		retryCount, ok := ctx.Value(retryKey{}).(int)
		if !ok {
			retryCount = 0
		}
		if retryCount >= MaxRetries {
			return nil, errors.New("failed generation on max retries")
		}
		// Give the service time to recover before the next attempt.
		time.Sleep(time.Minute * 1)
		return q.GenerateContent(context.WithValue(ctx, retryKey{}, retryCount+1), content)
	}
	return resp, err
}

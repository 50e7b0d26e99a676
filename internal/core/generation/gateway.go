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

// This file defines the gateway port to external generation backends.
// Adapters (internal/cloud/veo.go, internal/cloud/imagen.go) implement
// Gateway on top of the genai SDK; the controller and dispatcher in this
// package only ever see the interface.

package generation

import (
	"context"

	"github.com/jaycherian/gcp-go-dreamboard/internal/core/model"
)

// Request is a single generation call, independent of backend.
type Request struct {
	Kind    model.GenerationTaskKind
	Model   string // Backend model name, empty uses the adapter default.
	Prompt  string
	Segment *model.VideoSegment // Set for video kinds.
	// Image generation fields.
	SeedImages       []*model.ImageReference
	NegativePrompt   string
	AspectRatio      string
	SampleCount      int
	PersonGeneration string
	OutputGCSURI     string // Destination folder for generated media.
	// Text generation fields.
	SystemInstructions string
	ResponseSchema     any // Optional JSON schema for structured output.
}

// Validate checks the per-kind input requirements. A failed validation is
// always FailureInvalid: the request can never succeed as written, so it
// is rejected before any backend call and never retried.
func (r *Request) Validate() error {
	const op = "gateway.validate"
	switch r.Kind {
	case model.TaskTextToVideo, model.TaskImageGenerate, model.TaskTextGenerate:
		if r.Prompt == "" {
			return Invalidf(op, "%s requires a prompt", r.Kind)
		}
	case model.TaskImageToVideo, model.TaskMultiImageToVideo:
		if len(r.SeedImages) < 1 {
			return Invalidf(op, "%s requires at least one seed image", r.Kind)
		}
	case model.TaskFirstLastFrameToVideo:
		if len(r.SeedImages) < 2 {
			return Invalidf(op, "%s requires first and last frame images", r.Kind)
		}
	case model.TaskVideoExtend:
		if r.Segment == nil || len(r.Segment.SourceVideos) < 1 {
			return Invalidf(op, "%s requires a prior video to extend", r.Kind)
		}
	case model.TaskImageEdit:
		if len(r.SeedImages) < 1 {
			return Invalidf(op, "%s requires the image to edit", r.Kind)
		}
	default:
		return Invalidf(op, "unknown task kind %q", r.Kind)
	}
	return nil
}

// Result is the terminal payload of a generation call. Exactly one of the
// media slices (or Text) is populated, matching the request kind.
type Result struct {
	Videos []*model.VideoReference
	Images []*model.ImageReference
	Text   string
}

// Empty reports whether the backend finished without producing any media.
// The controller converts this into a filtered outcome rather than an
// error: the usual cause is a responsible-AI policy dropping all samples.
func (r *Result) Empty() bool {
	return r == nil || (len(r.Videos) == 0 && len(r.Images) == 0 && r.Text == "")
}

// OperationHandle identifies a long-running backend operation so it can be
// polled, including across process restarts.
type OperationHandle struct {
	Name  string // Backend operation resource name.
	Model string // Model the operation was submitted against.
}

// OperationStatus is one observation of a long-running operation.
type OperationStatus struct {
	Done   bool
	Result *Result // Populated only when Done and the operation succeeded.
	Err    error   // Populated only when Done and the operation failed. Already classified.
}

// Gateway is the port to an external generation backend.
//
// Submit starts a generation call. Synchronous backends return a Result
// directly with a nil handle; asynchronous backends return a handle with a
// nil result, to be driven to completion via Poll. Exactly one of the two
// is non-nil on success.
type Gateway interface {
	Submit(ctx context.Context, req *Request) (*Result, *OperationHandle, error)
	Poll(ctx context.Context, handle *OperationHandle) (*OperationStatus, error)
}

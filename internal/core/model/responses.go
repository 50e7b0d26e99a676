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

// Response envelopes for the generation operations. A batch call returns
// one envelope per input, in input order, so callers can always line
// results up with what they asked for.

package model

// VideoGenerationResponse reports the outcome of one segment generation.
type VideoGenerationResponse struct {
	Done             bool              `json:"done"`
	Outcome          string            `json:"outcome"`                  // Terminal state: success, filtered, invalid, pending, error.
	OperationName    string            `json:"operation_name,omitempty"` // Set in non-blocking mode for later polling.
	ExecutionMessage string            `json:"execution_message"`
	Videos           []*VideoReference `json:"videos"`
	Segment          *VideoSegment     `json:"video_segment"`
}

// ImageGenerationResponse reports the outcome of one scene image
// generation.
type ImageGenerationResponse struct {
	Done             bool              `json:"done"`
	Outcome          string            `json:"outcome"`
	ExecutionMessage string            `json:"execution_message"`
	Images           []*ImageReference `json:"images"`
	SceneID          string            `json:"scene_id"`
}

// MergeResponse reports the outcome of a merge. NothingToMerge is the
// typed "no included segments" outcome; it is not an error.
type MergeResponse struct {
	NothingToMerge   bool            `json:"nothing_to_merge"`
	ExecutionMessage string          `json:"execution_message"`
	Video            *VideoReference `json:"video,omitempty"`
}

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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jaycherian/gcp-go-dreamboard/internal/core/generation"
	"github.com/jaycherian/gcp-go-dreamboard/internal/core/model"
)

func seed(id string) *model.ImageReference {
	return &model.ImageReference{ID: id, GCSURI: "gs://bucket/story/images/" + id + ".png"}
}

func TestRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     *generation.Request
		wantErr string
	}{
		{
			name:    "text to video needs a prompt",
			req:     &generation.Request{Kind: model.TaskTextToVideo},
			wantErr: "requires a prompt",
		},
		{
			name:    "text to video with prompt",
			req:     &generation.Request{Kind: model.TaskTextToVideo, Prompt: "sunrise over dunes"},
		},
		{
			name:    "image to video needs a seed",
			req:     &generation.Request{Kind: model.TaskImageToVideo, Prompt: "pan right"},
			wantErr: "at least one seed image",
		},
		{
			name:    "image to video with seed",
			req:     &generation.Request{Kind: model.TaskImageToVideo, SeedImages: []*model.ImageReference{seed("a")}},
		},
		{
			name:    "first last frame needs two seeds",
			req:     &generation.Request{Kind: model.TaskFirstLastFrameToVideo, SeedImages: []*model.ImageReference{seed("a")}},
			wantErr: "first and last frame",
		},
		{
			name:    "first last frame with two seeds",
			req:     &generation.Request{Kind: model.TaskFirstLastFrameToVideo, SeedImages: []*model.ImageReference{seed("a"), seed("b")}},
		},
		{
			name:    "extend needs a source video",
			req:     &generation.Request{Kind: model.TaskVideoExtend, Segment: &model.VideoSegment{}},
			wantErr: "prior video to extend",
		},
		{
			name:    "image edit needs the image",
			req:     &generation.Request{Kind: model.TaskImageEdit},
			wantErr: "image to edit",
		},
		{
			name:    "unknown kind",
			req:     &generation.Request{Kind: model.GenerationTaskKind("HOLOGRAM"), Prompt: "x"},
			wantErr: "unknown task kind",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.req.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tc.wantErr)
			assert.Equal(t, generation.FailureInvalid, generation.ClassOf(err))
		})
	}
}

func TestResultEmpty(t *testing.T) {
	assert.True(t, (*generation.Result)(nil).Empty())
	assert.True(t, (&generation.Result{}).Empty())
	assert.False(t, (&generation.Result{Text: "ok"}).Empty())
	assert.False(t, (&generation.Result{Images: []*model.ImageReference{seed("a")}}).Empty())
}

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

package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/gcp-go-dreamboard/internal/core/model"
)

func f(v float64) *float64 { return &v }
func i(v int) *int         { return &v }

func TestCutWindowSecondsWinOverFrames(t *testing.T) {
	cut := &model.CutWindow{
		StartSeconds: f(1.5),
		EndSeconds:   f(4),
		StartFrame:   i(240),
		EndFrame:     i(480),
	}
	start, end := cut.Window(24)
	require.NotNil(t, start)
	require.NotNil(t, end)
	assert.Equal(t, 1.5, *start)
	assert.Equal(t, 4.0, *end)
}

func TestCutWindowFramesConvertAtFPS(t *testing.T) {
	cut := &model.CutWindow{StartFrame: i(24), EndFrame: i(72)}
	start, end := cut.Window(24)
	require.NotNil(t, start)
	require.NotNil(t, end)
	assert.Equal(t, 1.0, *start)
	assert.Equal(t, 3.0, *end)
}

func TestCutWindowFramesIgnoredWithoutFPS(t *testing.T) {
	cut := &model.CutWindow{StartFrame: i(24)}
	start, end := cut.Window(0)
	assert.Nil(t, start)
	assert.Nil(t, end)
}

func TestCutWindowNil(t *testing.T) {
	var cut *model.CutWindow
	start, end := cut.Window(24)
	assert.Nil(t, start)
	assert.Nil(t, end)
}

func TestSelectedVideoIsNewest(t *testing.T) {
	seg := &model.VideoSegment{}
	assert.Nil(t, seg.SelectedVideo())

	seg.Videos = []*model.VideoReference{{ID: "first"}, {ID: "retake"}}
	require.NotNil(t, seg.SelectedVideo())
	assert.Equal(t, "retake", seg.SelectedVideo().ID)
}

func TestSegmentLabel(t *testing.T) {
	assert.Equal(t, "scene-3_seg2", model.SegmentLabel("scene-3", 2))
}

func TestVideoReferenceCloneDoesNotAliasFrames(t *testing.T) {
	orig := &model.VideoReference{
		ID:        "v1",
		GCSURI:    "gs://bucket/story/videos/v1.mp4",
		FrameURIs: []string{"gs://bucket/story/images/frames/f1.png"},
	}
	clone := orig.Clone()
	clone.FrameURIs = append(clone.FrameURIs, "gs://bucket/story/images/frames/f2.png")

	assert.Len(t, orig.FrameURIs, 1)
	assert.Len(t, clone.FrameURIs, 2)
	assert.Equal(t, orig.GCSURI, clone.GCSURI)
}

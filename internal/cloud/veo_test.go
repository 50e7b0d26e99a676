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

package cloud

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/genai"

	"github.com/jaycherian/gcp-go-dreamboard/internal/core/generation"
	"github.com/jaycherian/gcp-go-dreamboard/internal/core/model"
)

func testVeoDefaults() VeoModel {
	return VeoModel{
		Model:            "veo-3.1-generate-001",
		DurationSeconds:  8,
		FramesPerSecond:  24,
		AspectRatio:      "16:9",
		Resolution:       "1080p",
		PersonGeneration: "allow_adult",
		SampleCount:      2,
		GenerateAudio:    true,
	}
}

func TestVeoBuildConfigUsesModelDefaults(t *testing.T) {
	adapter := NewVeoAdapter(nil, testVeoDefaults())

	config := adapter.buildConfig(&generation.Request{
		Kind:         model.TaskTextToVideo,
		Prompt:       "a lighthouse at dawn",
		OutputGCSURI: "gs://dreamboard-assets/user-1/story-1/videos",
	})

	assert.Equal(t, int32(2), config.NumberOfVideos)
	assert.Equal(t, "gs://dreamboard-assets/user-1/story-1/videos", config.OutputGCSURI)
	assert.Equal(t, int32(8), *config.DurationSeconds)
	assert.Equal(t, int32(24), *config.FPS)
	assert.Equal(t, "16:9", config.AspectRatio)
	assert.Equal(t, "1080p", config.Resolution)
	assert.Equal(t, "allow_adult", config.PersonGeneration)
	assert.True(t, *config.GenerateAudio)
	assert.False(t, config.EnhancePrompt)
}

func TestVeoBuildConfigSegmentOverridesDefaults(t *testing.T) {
	adapter := NewVeoAdapter(nil, testVeoDefaults())
	seed := int32(42)

	config := adapter.buildConfig(&generation.Request{
		Kind:   model.TaskTextToVideo,
		Prompt: "the keeper climbs the stairs",
		Segment: &model.VideoSegment{
			SampleCount:      1,
			DurationSeconds:  5,
			FramesPerSec:     30,
			AspectRatio:      "9:16",
			Resolution:       "720p",
			PersonGeneration: "dont_allow",
			Seed:             &seed,
			GenerateAudio:    false,
			EnhancePrompt:    true,
		},
	})

	assert.Equal(t, int32(1), config.NumberOfVideos)
	assert.Equal(t, int32(5), *config.DurationSeconds)
	assert.Equal(t, int32(30), *config.FPS)
	assert.Equal(t, "9:16", config.AspectRatio)
	assert.Equal(t, "720p", config.Resolution)
	assert.Equal(t, "dont_allow", config.PersonGeneration)
	assert.Equal(t, seed, *config.Seed)
	assert.False(t, *config.GenerateAudio)
	assert.True(t, config.EnhancePrompt)
}

func TestReferenceImagesMarkEverySeedAsAsset(t *testing.T) {
	seeds := []*model.ImageReference{
		{ID: "a", GCSURI: "gs://dreamboard-assets/story/images/a.png", MimeType: model.MimeTypePNG},
		{ID: "b", GCSURI: "gs://dreamboard-assets/story/images/b.png", MimeType: model.MimeTypePNG},
	}

	refs := referenceImages(seeds)

	assert.Len(t, refs, 2)
	for i, ref := range refs {
		assert.Equal(t, genai.VideoGenerationReferenceTypeAsset, ref.ReferenceType)
		assert.Equal(t, seeds[i].GCSURI, ref.Image.GCSURI)
		assert.Equal(t, model.MimeTypePNG, ref.Image.MIMEType)
	}
}

func TestVideoObjectName(t *testing.T) {
	assert.Equal(t, "scene-1_seg1/sample_0.mp4",
		videoObjectName("gs://dreamboard-assets/u1/s1/videos/scene-1_seg1/sample_0.mp4"))
	assert.Equal(t, "sample_0.mp4", videoObjectName("gs://bucket/sample_0.mp4"))
}

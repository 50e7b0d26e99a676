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

func testImagenDefaults() ImagenModel {
	return ImagenModel{
		Model:             "imagen-3.0-generate-002",
		SampleCount:       2,
		AspectRatio:       "16:9",
		OutputMimeType:    model.MimeTypePNG,
		PersonGeneration:  "allow_adult",
		SafetyFilterLevel: "block_few",
	}
}

func TestImagenBuildConfigAppliesDefaultsAndOverrides(t *testing.T) {
	adapter := NewImagenAdapter(nil, testImagenDefaults())

	config := adapter.buildConfig(&generation.Request{
		Kind:         model.TaskImageGenerate,
		Prompt:       "a fox in a birch forest",
		OutputGCSURI: "gs://dreamboard-assets/user-1/story-1/images",
		SampleCount:  4,
		AspectRatio:  "9:16",
	})

	assert.Equal(t, int32(4), config.NumberOfImages)
	assert.Equal(t, "9:16", config.AspectRatio)
	assert.Equal(t, model.MimeTypePNG, config.OutputMIMEType)
	assert.Equal(t, genai.PersonGeneration("allow_adult"), config.PersonGeneration)
	assert.Equal(t, genai.SafetyFilterLevel("block_few"), config.SafetyFilterLevel)
	assert.Equal(t, "gs://dreamboard-assets/user-1/story-1/images", config.OutputGCSURI)
	assert.True(t, config.IncludeRAIReason)
}

// The edit call must honor the same output and safety settings as the
// generate call.
func TestImagenEditConfigCarriesGenerateSettings(t *testing.T) {
	adapter := NewImagenAdapter(nil, testImagenDefaults())

	req := &generation.Request{
		Kind:           model.TaskImageEdit,
		Prompt:         "replace the sky with a sunset",
		OutputGCSURI:   "gs://dreamboard-assets/user-1/story-1/images",
		NegativePrompt: "rain",
	}
	gen := adapter.buildConfig(req)
	edit := adapter.buildEditConfig(req)

	assert.Equal(t, gen.NumberOfImages, edit.NumberOfImages)
	assert.Equal(t, gen.AspectRatio, edit.AspectRatio)
	assert.Equal(t, gen.PersonGeneration, edit.PersonGeneration)
	assert.Equal(t, gen.SafetyFilterLevel, edit.SafetyFilterLevel)
	assert.Equal(t, gen.OutputMIMEType, edit.OutputMIMEType)
	assert.Equal(t, gen.OutputGCSURI, edit.OutputGCSURI)
	assert.Equal(t, gen.NegativePrompt, edit.NegativePrompt)
	assert.True(t, edit.IncludeRAIReason)
}

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

package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/gcp-go-dreamboard/internal/cloud"
	"github.com/jaycherian/gcp-go-dreamboard/internal/core/services"
)

func storageFixture() *services.StorageService {
	config := cloud.NewConfig()
	config.Storage.AssetsBucket = "dreamboard_assets"
	config.Storage.GCSFuseMountPoint = "/mnt/gcs/"
	return &services.StorageService{Config: config}
}

func TestParseGCSURI(t *testing.T) {
	bucket, object, err := services.ParseGCSURI("gs://dreamboard_assets/story-1/videos/clip.mp4")
	require.NoError(t, err)
	assert.Equal(t, "dreamboard_assets", bucket)
	assert.Equal(t, "story-1/videos/clip.mp4", object)
}

func TestParseGCSURIRejectsMalformedURIs(t *testing.T) {
	for _, uri := range []string{
		"https://storage.googleapis.com/bucket/object",
		"gs://bucket-only",
		"gs:///no-bucket/object",
		"gs://bucket/",
		"",
	} {
		_, _, err := services.ParseGCSURI(uri)
		assert.Error(t, err, "uri %q", uri)
	}
}

func TestStoryAssetLayout(t *testing.T) {
	s := storageFixture()
	assert.Equal(t, "gs://dreamboard_assets/story-1/videos", s.VideosURI("story-1"))
	assert.Equal(t, "gs://dreamboard_assets/story-1/images", s.ImagesURI("story-1"))
	assert.Equal(t, "gs://dreamboard_assets/story-1/images/scene-2", s.SceneImagesURI("story-1", "scene-2"))
	assert.Equal(t, "gs://dreamboard_assets/story-1/videos/scene-2", s.SceneVideosURI("story-1", "scene-2"))
	assert.Equal(t, "gs://dreamboard_assets/story-1/images/characters/char-9", s.CharacterImagesURI("story-1", "char-9"))
}

func TestFusePathMapsURIUnderMount(t *testing.T) {
	s := storageFixture()
	assert.Equal(t, "/mnt/gcs/dreamboard_assets/story-1/videos/clip.mp4",
		s.FusePath("gs://dreamboard_assets/story-1/videos/clip.mp4"))
}

func TestFusePathWithoutMountPoint(t *testing.T) {
	s := storageFixture()
	s.Config.Storage.GCSFuseMountPoint = ""
	assert.Empty(t, s.FusePath("gs://dreamboard_assets/story-1/videos/clip.mp4"))
}

func TestFusePathInvalidURI(t *testing.T) {
	s := storageFixture()
	assert.Empty(t, s.FusePath("not-a-uri"))
}

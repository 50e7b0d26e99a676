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

package cloud_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/gcp-go-dreamboard/internal/cloud"
)

const baseTOML = `
[application]
name = "dreamboard"
google_project_id = "base-project"
location = "us-central1"
thread_pool_size = 4

[storage]
assets_bucket = "base_assets"
upload_bucket = "base_uploads"

[ffmpeg]
command_path = "/usr/bin/ffmpeg"
transition_duration = 1.0

[topic_subscriptions.UploadTopic]
name = "base-sub"
timeout_in_seconds = 60

[video_models.default]
model = "veo-2.0-generate-001"
duration_seconds = 8

[agent_models.creative-flash]
model = "gemini-2.0-flash"
temperature = 1.0
rate_limit = 2
`

const overrideTOML = `
[application]
google_project_id = "unit-project"
thread_pool_size = 2

[storage]
assets_bucket = "unit_assets"

[agent_models.creative-flash]
model = "gemini-2.0-flash"
temperature = 0.2
rate_limit = 1
`

func writeConfigFiles(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.toml"), []byte(baseTOML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.unit.toml"), []byte(overrideTOML), 0o644))
	return dir
}

func TestLoadConfigAppliesRuntimeOverrides(t *testing.T) {
	dir := writeConfigFiles(t)
	t.Setenv(cloud.EnvConfigFilePrefix, dir)
	t.Setenv(cloud.EnvConfigRuntime, "unit")

	config := cloud.NewConfig()
	cloud.LoadConfig(config)

	// Overridden keys take the runtime file's value.
	assert.Equal(t, "unit-project", config.Application.GoogleProjectId)
	assert.Equal(t, 2, config.Application.ThreadPoolSize)
	assert.Equal(t, "unit_assets", config.Storage.AssetsBucket)

	// Keys absent from the runtime file keep the base value.
	assert.Equal(t, "dreamboard", config.Application.Name)
	assert.Equal(t, "us-central1", config.Application.GoogleLocation)
	assert.Equal(t, "base_uploads", config.Storage.UploadBucket)
	assert.Equal(t, "base-sub", config.TopicSubscriptions["UploadTopic"].Name)
	assert.Equal(t, 1.0, config.FFmpeg.TransitionDuration)

	agent := config.AgentModels["creative-flash"]
	assert.Equal(t, float32(0.2), agent.Temperature)
	assert.Equal(t, 1, agent.RateLimit)

	video := config.DefaultVideoModel()
	assert.Equal(t, "veo-2.0-generate-001", video.Model)
	assert.Equal(t, 8, video.DurationSeconds)
}

func TestLoadConfigBaseOnly(t *testing.T) {
	dir := writeConfigFiles(t)
	t.Setenv(cloud.EnvConfigFilePrefix, dir)
	// A runtime with no override file loads the base values unchanged.
	t.Setenv(cloud.EnvConfigRuntime, "staging")

	config := cloud.NewConfig()
	cloud.LoadConfig(config)

	assert.Equal(t, "base-project", config.Application.GoogleProjectId)
	assert.Equal(t, 4, config.Application.ThreadPoolSize)
	assert.Equal(t, "base_assets", config.Storage.AssetsBucket)
}

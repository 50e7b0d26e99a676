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

// Package cloud defines the data structures for application configuration,
// loaded from TOML files. It provides a structured way to manage settings
// for various components, including Google Cloud services, the Veo and
// Imagen generation models, Pub/Sub topics, and prompt templates.
//
// This file centralizes all configuration-related structs, making it easy
// to understand and manage the application's configurable parameters.
//
// Structs:
//   - Firestore: Configuration for the story document store.
//   - PromptTemplates: Holds the text templates for prompts sent to GenAI models.
//   - VertexAiLLMModel: Configuration for a Vertex AI Large Language Model (LLM).
//   - VeoModel: Defaults for a Veo video generation model.
//   - ImagenModel: Defaults for an Imagen image generation model.
//   - TopicSubscription: Configuration for a single Pub/Sub topic subscription.
//   - Storage: Configuration for Google Cloud Storage buckets.
//   - FFmpeg: Location of the ffmpeg binary and merge defaults.
//   - Config: The top-level struct that aggregates all other configuration structs.
//
// Functions:
//   - NewConfig: A constructor that initializes a new Config object with empty maps.
package cloud

import "google.golang.org/genai"

// DefaultSafetySettings defines the default content safety thresholds for GenAI models.
// These settings are configured to be non-restrictive, allowing all content categories
// (Dangerous Content, Harassment, Hate Speech, Sexually Explicit) to pass through without
// being blocked. This is a common setup for internal or controlled environments where
// the input data is trusted.
var DefaultSafetySettings = []*genai.SafetySetting{
	{
		Category:  genai.HarmCategoryDangerousContent,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHarassment,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHateSpeech,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategorySexuallyExplicit,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
}

// Firestore represents the configuration for the story document store.
type Firestore struct {
	Database         string `toml:"database"`          // The Firestore database ID, empty uses "(default)".
	UsersCollection  string `toml:"users_collection"`  // The top-level collection holding user documents.
	StorysCollection string `toml:"storys_collection"` // The per-user sub-collection holding story documents.
}

// PromptTemplates holds the templates for different types of prompts.
type PromptTemplates struct {
	StoryPrompt       string `toml:"story"`        // The template for brainstorming complete stories.
	ScenePrompt       string `toml:"scene"`        // The template for brainstorming additional scenes.
	ImagePromptPrompt string `toml:"image_prompt"` // The template for writing an image prompt from a scene description.
	VideoPromptPrompt string `toml:"video_prompt"` // The template for writing a video prompt from a scene description.
	EnhancementPrompt string `toml:"enhance"`      // The template for enhancing a user-written prompt.
}

// VertexAiLLMModel represents the configuration for a Vertex AI large language model (LLM).
type VertexAiLLMModel struct {
	Model              string  `toml:"model"`               // The name of the Vertex AI LLM.
	SystemInstructions string  `toml:"system_instructions"` // The system instructions for the LLM.
	Temperature        float32 `toml:"temperature"`         // The temperature parameter for the LLM.
	TopP               float32 `toml:"top_p"`               // The top_p parameter for the LLM.
	TopK               float32 `toml:"top_k"`               // The top_k parameter for the LLM.
	MaxTokens          int32   `toml:"max_tokens"`          // The maximum number of tokens for the LLM output.
	OutputFormat       string  `toml:"output_format"`       // The desired output format for the LLM.
	EnableGoogle       bool    `toml:"enable_google"`       // Whether to enable Google Search for the LLM.
	RateLimit          int     `toml:"rate_limit"`          // The rate limit for the LLM in requests per second.
}

// VeoModel holds the defaults for a Veo video generation model. Segment
// requests override individual fields per call.
type VeoModel struct {
	Model            string  `toml:"model"`             // The Veo model name, e.g. "veo-3.1-generate-001".
	DurationSeconds  int     `toml:"duration_seconds"`  // Default clip length.
	FramesPerSecond  float64 `toml:"frames_per_second"` // Default output frame rate.
	AspectRatio      string  `toml:"aspect_ratio"`      // Default aspect ratio, e.g. "16:9".
	Resolution       string  `toml:"resolution"`        // Default output resolution, e.g. "1080p".
	PersonGeneration string  `toml:"person_generation"` // Person generation policy, e.g. "allow_adult".
	SampleCount      int     `toml:"sample_count"`      // Default number of videos per request.
	GenerateAudio    bool    `toml:"generate_audio"`    // Whether clips include generated audio.
}

// ImagenModel holds the defaults for an Imagen image generation model.
type ImagenModel struct {
	Model             string `toml:"model"`              // The Imagen model name, e.g. "imagen-3.0-generate-002".
	SampleCount       int    `toml:"sample_count"`       // Default number of images per request.
	AspectRatio       string `toml:"aspect_ratio"`       // Default aspect ratio.
	PersonGeneration  string `toml:"person_generation"`  // Person generation policy.
	SafetyFilterLevel string `toml:"safety_filter_level"`
	OutputMimeType    string `toml:"output_mime_type"` // Defaults to "image/png".
}

// TopicSubscription represents the configuration for a Pub/Sub topic subscription.
type TopicSubscription struct {
	Name             string `toml:"name"`               // The name of the Pub/Sub subscription.
	DeadLetterTopic  string `toml:"dead_letter_topic"`  // The name of the dead-letter topic for the subscription.
	TimeoutInSeconds int    `toml:"timeout_in_seconds"` // The timeout for the subscription in seconds.
}

// Storage represents the configuration for storage buckets.
type Storage struct {
	AssetsBucket      string `toml:"assets_bucket"`        // The bucket holding story assets (generated images, videos, merges).
	UploadBucket      string `toml:"upload_bucket"`        // The bucket users upload reference media to.
	GCSFuseMountPoint string `toml:"gcs_fuse_mount_point"` // The mount point for GCS FUSE.
}

// FFmpeg holds the location of the ffmpeg binary and the merge defaults.
type FFmpeg struct {
	CommandPath        string  `toml:"command_path"`        // Path to the ffmpeg executable.
	TransitionDuration float64 `toml:"transition_duration"` // Default boundary overlap in seconds.
	ExtractionFPS      int     `toml:"extraction_fps"`      // Sampling rate used when extracting still frames.
}

// Config represents the overall configuration for the application, loaded from TOML files.
// It acts as the root container for all other configuration structs.
type Config struct {
	// Application holds general application settings.
	Application struct {
		Name                      string `toml:"name"`                         // The name of the application.
		GoogleProjectId           string `toml:"google_project_id"`            // The Google Cloud project ID.
		GoogleLocation            string `toml:"location"`                     // The Google Cloud location.
		ThreadPoolSize            int    `toml:"thread_pool_size"`             // The size of the worker pool for parallel generation tasks.
		SignerServiceAccountEmail string `toml:"signer_service_account_email"` // The service account email used for signing GCS URLs.
		UserAgent                 string `toml:"user_agent"`                   // The User-Agent header sent with GenAI requests.
	} `toml:"application"`
	Storage            Storage                      `toml:"storage"`             // Storage configuration.
	Firestore          Firestore                    `toml:"firestore"`           // Story document store configuration.
	FFmpeg             FFmpeg                       `toml:"ffmpeg"`              // ffmpeg configuration.
	PromptTemplates    PromptTemplates              `toml:"prompt_templates"`    // Prompt templates configuration.
	TopicSubscriptions map[string]TopicSubscription `toml:"topic_subscriptions"` // A map of Pub/Sub topic subscriptions, keyed by a logical name (e.g., "UploadTopic").
	AgentModels        map[string]VertexAiLLMModel  `toml:"agent_models"`        // A map of Vertex AI LLM models, keyed by a logical name (e.g., "creative-flash").
	VideoModels        map[string]VeoModel          `toml:"video_models"`        // A map of Veo models, keyed by a logical name (e.g., "default").
	ImageModels        map[string]ImagenModel       `toml:"image_models"`        // A map of Imagen models, keyed by a logical name (e.g., "default").
}

// DefaultVideoModel returns the "default" Veo model configuration, or the
// zero value when the config does not define one.
func (c *Config) DefaultVideoModel() VeoModel {
	return c.VideoModels["default"]
}

// DefaultImageModel returns the "default" Imagen model configuration, or
// the zero value when the config does not define one.
func (c *Config) DefaultImageModel() ImagenModel {
	return c.ImageModels["default"]
}

// NewConfig is a constructor function that creates a new, initialized Config instance.
// It's important to initialize the maps within the struct to avoid nil pointer panics
// when the configuration loader tries to populate them.
//
// Outputs:
//   - *Config: A pointer to a new Config struct with its map fields initialized.
func NewConfig() *Config {
	return &Config{
		TopicSubscriptions: make(map[string]TopicSubscription),
		AgentModels:        make(map[string]VertexAiLLMModel),
		VideoModels:        make(map[string]VeoModel),
		ImageModels:        make(map[string]ImagenModel),
	}
}

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

// Package model defines the persistent and transient data structures used
// throughout the DreamBoard backend: media references (images and videos
// stored in Google Cloud Storage), story and scene structures produced by
// brainstorming, and the request/response types for video generation and
// assembly.
//
// Media references are small value objects. The GCS URI is the only durable
// locator a reference carries; signed URLs expire and are regenerated on
// read, and FUSE paths are derived from the mount point at runtime.
//
// Structs:
//   - ImageReference: A pointer to a single image object in GCS.
//   - VideoReference: A pointer to a single video object in GCS.
package model

// MIME types the generation services produce. Veo always outputs MP4,
// Imagen defaults to PNG unless compression is requested.
const (
	MimeTypeMP4  = "video/mp4"
	MimeTypePNG  = "image/png"
	MimeTypeJPEG = "image/jpeg"
)

// ImageReference describes a single image stored in Google Cloud Storage.
// Instances are treated as immutable once created: callers derive new
// references instead of mutating fields in place.
type ImageReference struct {
	ID          string  `json:"id" firestore:"id"`                     // Stable identifier, unique within a story.
	Name        string  `json:"name" firestore:"name"`                 // Human readable name (usually the object base name).
	GCSURI      string  `json:"gcs_uri" firestore:"gcs_uri"`           // Durable locator, e.g. "gs://bucket/story/images/img.png".
	SignedURI   string  `json:"signed_uri" firestore:"signed_uri"`     // Short-lived browser-accessible URL. Regenerated on read.
	GCSFusePath string  `json:"gcs_fuse_path" firestore:"-"`           // Local path when the bucket is FUSE mounted. Never persisted.
	MimeType    string  `json:"mime_type" firestore:"mime_type"`       // Content type, e.g. "image/png".
	SceneID     string  `json:"scene_id" firestore:"scene_id"`         // Owning scene, empty for story-level assets.
	SelectedRef bool    `json:"selected" firestore:"selected"`         // Whether the user picked this image as the scene seed.
	Prompt      string  `json:"prompt" firestore:"prompt"`             // The prompt that produced this image, if generated.
	AspectRatio string  `json:"aspect_ratio" firestore:"aspect_ratio"` // Aspect ratio used at generation time, e.g. "16:9".
	Weight      float64 `json:"weight,omitempty" firestore:"weight"`   // Optional reference weight for image-conditioned video.
}

// VideoReference describes a single video stored in Google Cloud Storage.
// As with ImageReference, only the GCS URI is durable.
type VideoReference struct {
	ID              string   `json:"id" firestore:"id"`
	Name            string   `json:"name" firestore:"name"`
	GCSURI          string   `json:"gcs_uri" firestore:"gcs_uri"`
	SignedURI       string   `json:"signed_uri" firestore:"signed_uri"`
	GCSFusePath     string   `json:"gcs_fuse_path" firestore:"-"`
	MimeType        string   `json:"mime_type" firestore:"mime_type"`
	DurationSeconds float64  `json:"duration_seconds" firestore:"duration_seconds"`
	FramesPerSec    float64  `json:"frames_per_second" firestore:"frames_per_second"`
	FrameURIs       []string `json:"frame_uris,omitempty" firestore:"frame_uris"` // Extracted still frames, when requested.
}

// Clone returns a copy of the reference. Slices are duplicated so the
// copy can be extended without aliasing the original.
func (v *VideoReference) Clone() *VideoReference {
	out := *v
	out.FrameURIs = append([]string(nil), v.FrameURIs...)
	return &out
}

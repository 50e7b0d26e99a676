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

// Package cloud contains data structures and utilities for interacting with Google Cloud services.
// This file defines the Google Cloud Storage (GCS) models the upload
// registration workflow consumes: the slice of the GCS Pub/Sub
// notification payload it reads, and the lightweight object reference
// passed between the workflow's commands.
//
// Structs:
//   - GCSPubSubNotification: The fields read from a GCS event notification.
//   - GCSObject: The distilled object reference handed down the chain.
//
// Functions:
//   - GetGCSObjectName: Returns the context key the workflow stores the
//     GCSObject under.
package cloud

// GetGCSObjectName returns the well-known context key under which the
// upload registration workflow stores the GCSObject being processed, so
// every command in the chain reads the same value.
//
// Outputs:
//   - string: A constant placeholder string "__GCS__OBJ__".
func GetGCSObjectName() string {
	return "__GCS__OBJ__"
}

// GCSPubSubNotification is the slice of the GCS Pub/Sub notification
// payload that upload registration reads. GCS publishes a message with
// this shape to the configured topic whenever a user drops a file into
// the upload bucket; the full payload carries many more fields, but
// registration only needs where the object is and what it claims to be.
type GCSPubSubNotification struct {
	Name        string `json:"name"`        // The name of the object within the bucket.
	Bucket      string `json:"bucket"`      // The name of the bucket containing the object.
	ContentType string `json:"contentType"` // The MIME type GCS recorded for the upload.
}

// GCSObject is the distilled reference to an uploaded object that the
// registration commands pass between each other: enough to fetch the
// object, classify it, and attach it to the owning story.
type GCSObject struct {
	Bucket   string // The name of the GCS bucket.
	Name     string // The name of the object.
	MIMEType string // The MIME type of the object (e.g., "video/mp4").
}

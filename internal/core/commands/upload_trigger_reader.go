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

// Package commands provides the concrete implementations of the Chain of
// Responsibility (COR) pattern's Command interface. This file defines the
// entry point of the upload registration workflow.
//
// Logic Flow:
// Users upload their own reference media (seed images, prior clips)
// straight into the upload bucket. GCS publishes a notification to a
// Pub/Sub topic for every new object, and this command turns that
// notification into something the rest of the chain can work with.
//
//  1. The command receives the raw Pub/Sub message data as a JSON string
//     from the context.
//  2. It unmarshals the JSON into a `cloud.GCSPubSubNotification`, the
//     full GCS notification shape.
//  3. It validates that the notification actually names a bucket and an
//     object.
//  4. It distills the notification into a `cloud.GCSObject` holding just
//     the bucket, object name, and content type.
//  5. The GCSObject goes back into the context under a well-known key and
//     as the output for the next command.
package commands

import (
	"encoding/json"
	"fmt"

	"github.com/jaycherian/gcp-go-dreamboard/internal/cloud"
	"github.com/jaycherian/gcp-go-dreamboard/internal/core/cor"
)

// UploadTriggerToGCSObject parses a GCS Pub/Sub notification and extracts
// the uploaded object's location into a simplified GCSObject.
type UploadTriggerToGCSObject struct {
	cor.BaseCommand
}

// NewUploadTriggerToGCSObject is the constructor for the
// UploadTriggerToGCSObject command.
//
// Inputs:
//   - name: A string name for this command instance.
//
// Outputs:
//   - *UploadTriggerToGCSObject: A pointer to the newly instantiated command.
func NewUploadTriggerToGCSObject(name string) *UploadTriggerToGCSObject {
	return &UploadTriggerToGCSObject{BaseCommand: *cor.NewBaseCommand(name)}
}

// Execute parses the notification payload carried in the context.
func (c *UploadTriggerToGCSObject) Execute(context cor.Context) {
	in := context.Get(c.GetInputParam()).(string)

	var out cloud.GCSPubSubNotification
	if err := json.Unmarshal([]byte(in), &out); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to unmarshal GCS notification: %w", err))
		return
	}

	// A notification without a location cannot be registered; failing here
	// keeps the malformed message out of the rest of the chain.
	if out.Bucket == "" || out.Name == "" {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("GCS notification is missing bucket or object name"))
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)

	msg := &cloud.GCSObject{Bucket: out.Bucket, Name: out.Name, MIMEType: out.ContentType}
	context.Add(cloud.GetGCSObjectName(), msg)
	context.Add(c.GetOutputParam(), msg)
}

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

// Package main contains the logic for setting up and starting the Pub/Sub message
// listeners. These listeners initiate backend processing in response to events,
// such as user media being uploaded to the upload bucket.
//
// Functions:
//   - SetupListeners: Initializes and starts the listener for the upload topic,
//     attaching the upload registration workflow.
package main

import (
	"context"
	"log/slog"

	"github.com/jaycherian/gcp-go-dreamboard/internal/cloud"
	"github.com/jaycherian/gcp-go-dreamboard/internal/core/services"
	"github.com/jaycherian/gcp-go-dreamboard/internal/core/workflow"
)

// uploadTopicName is the logical name of the upload notification
// subscription, as configured under [topic_subscriptions].
const uploadTopicName = "UploadTopic"

// SetupListeners configures and starts the background Pub/Sub listeners.
// It creates the upload registration workflow and attaches it to the listener
// for the upload bucket's notification topic.
//
// Inputs:
//   - ctx: The application's root context, used to manage the lifecycle of the listeners.
//   - cloudClients: A struct containing all the initialized Google Cloud service clients.
//   - storyService: The Firestore-backed story persistence service.
//   - storageService: The storage service used to sign access URLs.
//
// Outputs:
//   - This function does not return any value. It starts the listeners as background goroutines.
func SetupListeners(
	ctx context.Context,
	cloudClients *cloud.ServiceClients,
	storyService *services.StoryService,
	storageService *services.StorageService) {

	listener, ok := cloudClients.PubSubListeners[uploadTopicName]
	if !ok {
		// Upload registration is optional: without the subscription the
		// server still serves the generation API.
		slog.Warn("no upload topic subscription configured, upload registration disabled")
		return
	}

	// Create the workflow that registers new uploads on their stories and
	// attach it as the command executed for each notification.
	uploadRegistration := workflow.NewUploadRegistrationPipeline(
		cloudClients.StorageClient, storyService, storageService)
	listener.SetCommand(uploadRegistration)
	listener.Listen(ctx)
}

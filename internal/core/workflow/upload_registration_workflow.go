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

// Package workflow defines the high-level business logic orchestrations,
// combining commands into coherent pipelines. This file implements the
// upload registration workflow.
package workflow

import (
	"cloud.google.com/go/storage"

	"github.com/jaycherian/gcp-go-dreamboard/internal/core/commands"
	"github.com/jaycherian/gcp-go-dreamboard/internal/core/cor"
	"github.com/jaycherian/gcp-go-dreamboard/internal/core/services"
)

// UploadRegistrationWorkflow registers user uploads on their stories. It
// is structured as a Chain of Responsibility (cor.Chain) triggered by the
// GCS notification a new object in the upload bucket produces: the chain
// parses the notification, resolves the object's real media type, and
// attaches the upload to its story scene in Firestore.
type UploadRegistrationWorkflow struct {
	cor.BaseCommand
	storageClient  *storage.Client
	storyService   *services.StoryService
	storageService *services.StorageService
	chain          cor.Chain
}

// Execute runs the workflow by invoking the underlying chain.
//
// Inputs:
//   - context: The chain of responsibility context for this execution.
func (w *UploadRegistrationWorkflow) Execute(context cor.Context) {
	w.chain.Execute(context)
}

// initializeChain builds the command sequence. The output of each command
// pipes into the next, so the chain reads top to bottom as the life of one
// upload notification.
func (w *UploadRegistrationWorkflow) initializeChain() {
	out := cor.NewBaseChain(w.GetName())

	// Step 1: Parse the incoming Pub/Sub notification into a GCS object
	// reference.
	out.AddCommand(commands.NewUploadTriggerToGCSObject("upload-trigger-to-gcs-object"))

	// Step 2: Resolve the object's real media type, sniffing its magic
	// bytes when the notification carries no usable content type.
	out.AddCommand(commands.NewUploadMediaClassifier("classify-upload-media", w.storageClient))

	// Step 3: Attach the upload to its story scene and persist the story.
	out.AddCommand(commands.NewStoryMediaAttach("attach-upload-to-story", w.storyService, w.storageService))

	w.chain = out
}

// NewUploadRegistrationPipeline is the constructor for the
// UploadRegistrationWorkflow.
//
// Inputs:
//   - storageClient: The GCS client used for content sniffing.
//   - storyService: The Firestore-backed story persistence service.
//   - storageService: The storage service used to sign access URLs.
//
// Outputs:
//   - *UploadRegistrationWorkflow: A fully initialized workflow.
func NewUploadRegistrationPipeline(
	storageClient *storage.Client,
	storyService *services.StoryService,
	storageService *services.StorageService) *UploadRegistrationWorkflow {

	pipeline := &UploadRegistrationWorkflow{
		BaseCommand:    *cor.NewBaseCommand("upload-registration-pipeline"),
		storageClient:  storageClient,
		storyService:   storyService,
		storageService: storageService,
	}
	pipeline.initializeChain()
	return pipeline
}

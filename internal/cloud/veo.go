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

// Package cloud provides components for interacting with Google Cloud services.
// This file implements the Veo adapter: the piece that translates backend
// neutral generation requests into calls against the Veo video models and
// maps the long-running operations they return back into neutral handles
// and media references.
//
// Logic Flow:
//  1. Submit inspects the task kind and seed inputs, builds the matching
//     GenerateVideos call (text-to-video, image-to-video, multi-image,
//     first/last frame, or video extension) and starts the operation.
//  2. Poll re-reads the operation by name. A finished operation either
//     carries generated videos, which are converted to VideoReference
//     values, or an operation error, which is classified exactly here so
//     the rest of the system never parses backend error strings.
//
// Structs:
//   - VeoAdapter: Holds the genai client handle and model defaults.
package cloud

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"github.com/jaycherian/gcp-go-dreamboard/internal/core/generation"
	"github.com/jaycherian/gcp-go-dreamboard/internal/core/model"
)

// VeoAdapter submits video generation requests to the Veo family of
// models and polls the long-running operations they return.
type VeoAdapter struct {
	client   *genai.Client
	defaults VeoModel
}

// NewVeoAdapter creates a Veo adapter around an initialized genai client.
//
// Inputs:
//   - client: The shared genai client from ServiceClients.
//   - defaults: The configured model defaults, applied wherever a segment
//     leaves a field unset.
//
// Outputs:
//   - *VeoAdapter: The configured adapter.
func NewVeoAdapter(client *genai.Client, defaults VeoModel) *VeoAdapter {
	return &VeoAdapter{client: client, defaults: defaults}
}

// Submit starts a video generation operation for the request. Veo is
// always asynchronous, so a successful submit returns a handle and a nil
// result.
func (a *VeoAdapter) Submit(ctx context.Context, req *generation.Request) (*generation.Result, *generation.OperationHandle, error) {
	modelName := req.Model
	if modelName == "" {
		modelName = a.defaults.Model
	}
	config := a.buildConfig(req)

	var op *genai.GenerateVideosOperation
	var err error
	switch req.Kind {
	case model.TaskTextToVideo:
		op, err = a.client.Models.GenerateVideos(ctx, modelName, req.Prompt, nil, config)
	case model.TaskImageToVideo:
		seed := req.SeedImages[0]
		image := &genai.Image{GCSURI: seed.GCSURI, MIMEType: seed.MimeType}
		op, err = a.client.Models.GenerateVideos(ctx, modelName, req.Prompt, image, config)
	case model.TaskMultiImageToVideo:
		config.ReferenceImages = referenceImages(req.SeedImages)
		op, err = a.client.Models.GenerateVideos(ctx, modelName, req.Prompt, nil, config)
	case model.TaskFirstLastFrameToVideo:
		first := req.SeedImages[0]
		last := req.SeedImages[len(req.SeedImages)-1]
		config.LastFrame = &genai.Image{GCSURI: last.GCSURI, MIMEType: last.MimeType}
		image := &genai.Image{GCSURI: first.GCSURI, MIMEType: first.MimeType}
		op, err = a.client.Models.GenerateVideos(ctx, modelName, req.Prompt, image, config)
	case model.TaskVideoExtend:
		source := req.Segment.SourceVideos[0]
		op, err = a.client.Models.GenerateVideosFromSource(ctx, modelName, &genai.GenerateVideosSource{
			Prompt: req.Prompt,
			Video:  &genai.Video{URI: source.GCSURI, MIMEType: source.MimeType},
		}, config)
	default:
		return nil, nil, generation.Invalidf("veo.submit", "unsupported video task kind %q", req.Kind)
	}
	if err != nil {
		return nil, nil, generation.Classify("veo.submit", err)
	}
	return nil, &generation.OperationHandle{Name: op.Name, Model: modelName}, nil
}

// Poll reads the current state of a previously submitted operation.
func (a *VeoAdapter) Poll(ctx context.Context, handle *generation.OperationHandle) (*generation.OperationStatus, error) {
	op, err := a.client.Operations.GetVideosOperation(ctx, &genai.GenerateVideosOperation{Name: handle.Name}, nil)
	if err != nil {
		return nil, generation.Classify("veo.poll", err)
	}
	if !op.Done {
		return &generation.OperationStatus{Done: false}, nil
	}
	if op.Error != nil {
		return &generation.OperationStatus{
			Done: true,
			Err:  generation.Classify("veo.operation", fmt.Errorf("operation %s failed: %v", op.Name, op.Error)),
		}, nil
	}

	result := &generation.Result{}
	if op.Response != nil {
		for _, gen := range op.Response.GeneratedVideos {
			if gen.Video == nil {
				continue
			}
			result.Videos = append(result.Videos, a.toReference(gen.Video))
		}
	}
	return &generation.OperationStatus{Done: true, Result: result}, nil
}

// buildConfig merges segment parameters over the configured model
// defaults.
func (a *VeoAdapter) buildConfig(req *generation.Request) *genai.GenerateVideosConfig {
	d := a.defaults
	config := &genai.GenerateVideosConfig{
		NumberOfVideos:   int32(d.SampleCount),
		OutputGCSURI:     req.OutputGCSURI,
		DurationSeconds:  genai.Ptr(int32(d.DurationSeconds)),
		AspectRatio:      d.AspectRatio,
		Resolution:       d.Resolution,
		PersonGeneration: d.PersonGeneration,
		NegativePrompt:   req.NegativePrompt,
		GenerateAudio:    genai.Ptr(d.GenerateAudio),
	}
	if d.FramesPerSecond > 0 {
		config.FPS = genai.Ptr(int32(d.FramesPerSecond))
	}

	seg := req.Segment
	if seg == nil {
		return config
	}
	if seg.SampleCount > 0 {
		config.NumberOfVideos = int32(seg.SampleCount)
	}
	if seg.DurationSeconds > 0 {
		config.DurationSeconds = genai.Ptr(int32(seg.DurationSeconds))
	}
	if seg.FramesPerSec > 0 {
		config.FPS = genai.Ptr(int32(seg.FramesPerSec))
	}
	if seg.AspectRatio != "" {
		config.AspectRatio = seg.AspectRatio
	}
	if seg.Resolution != "" {
		config.Resolution = seg.Resolution
	}
	if seg.PersonGeneration != "" {
		config.PersonGeneration = seg.PersonGeneration
	}
	if seg.Seed != nil {
		config.Seed = seg.Seed
	}
	config.GenerateAudio = genai.Ptr(seg.GenerateAudio)
	config.EnhancePrompt = seg.EnhancePrompt
	return config
}

// referenceImages converts seed images into asset references for
// multi-image generation.
func referenceImages(seeds []*model.ImageReference) []*genai.VideoGenerationReferenceImage {
	refs := make([]*genai.VideoGenerationReferenceImage, 0, len(seeds))
	for _, seed := range seeds {
		refs = append(refs, &genai.VideoGenerationReferenceImage{
			Image:         &genai.Image{GCSURI: seed.GCSURI, MIMEType: seed.MimeType},
			ReferenceType: genai.VideoGenerationReferenceTypeAsset,
		})
	}
	return refs
}

// toReference wraps a generated video in the internal media reference.
// Signed URLs and FUSE paths are filled in by the storage service on read.
func (a *VeoAdapter) toReference(v *genai.Video) *model.VideoReference {
	mime := v.MIMEType
	if mime == "" {
		mime = model.MimeTypeMP4
	}
	return &model.VideoReference{
		ID:           uuid.NewString(),
		Name:         videoObjectName(v.URI),
		GCSURI:       v.URI,
		MimeType:     mime,
		FramesPerSec: a.defaults.FramesPerSecond,
	}
}

// videoObjectName derives "scene-folder/file.mp4" from a full GCS URI so
// the reference name stays readable in listings.
func videoObjectName(uri string) string {
	trimmed := strings.TrimPrefix(uri, "gs://")
	dir, file := path.Split(trimmed)
	parts := strings.Split(strings.Trim(dir, "/"), "/")
	if len(parts) < 2 {
		return file
	}
	return parts[len(parts)-1] + "/" + file
}

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
// This file implements the Imagen adapter for image generation and
// editing. Unlike Veo, Imagen responds synchronously, so Submit returns a
// completed result and polling never applies.
//
// A response whose first image carries a responsible-AI filter reason is
// mapped to a filtered failure here, at the adapter boundary, so callers
// see the closed failure classification instead of a backend-specific
// payload shape.
package cloud

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"github.com/jaycherian/gcp-go-dreamboard/internal/core/generation"
	"github.com/jaycherian/gcp-go-dreamboard/internal/core/model"
)

// ImagenAdapter submits image generation and edit requests to Imagen.
type ImagenAdapter struct {
	client   *genai.Client
	defaults ImagenModel
}

// NewImagenAdapter creates an Imagen adapter around an initialized genai
// client.
func NewImagenAdapter(client *genai.Client, defaults ImagenModel) *ImagenAdapter {
	return &ImagenAdapter{client: client, defaults: defaults}
}

// Submit performs the image call and returns the finished result. The
// returned handle is always nil.
func (a *ImagenAdapter) Submit(ctx context.Context, req *generation.Request) (*generation.Result, *generation.OperationHandle, error) {
	modelName := req.Model
	if modelName == "" {
		modelName = a.defaults.Model
	}

	var images []*genai.GeneratedImage
	var err error
	switch req.Kind {
	case model.TaskImageGenerate:
		images, err = a.generate(ctx, modelName, req)
	case model.TaskImageEdit:
		images, err = a.edit(ctx, modelName, req)
	default:
		return nil, nil, generation.Invalidf("imagen.submit", "unsupported image task kind %q", req.Kind)
	}
	if err != nil {
		return nil, nil, err
	}

	result := &generation.Result{}
	for _, gen := range images {
		if gen.Image == nil {
			continue
		}
		mime := gen.Image.MIMEType
		if mime == "" {
			mime = model.MimeTypePNG
		}
		result.Images = append(result.Images, &model.ImageReference{
			ID:          uuid.NewString(),
			GCSURI:      gen.Image.GCSURI,
			MimeType:    mime,
			Prompt:      req.Prompt,
			AspectRatio: a.aspectRatio(req),
		})
	}
	return result, nil, nil
}

// Poll is never reached for Imagen: Submit always completes the request.
func (a *ImagenAdapter) Poll(_ context.Context, handle *generation.OperationHandle) (*generation.OperationStatus, error) {
	return nil, generation.Invalidf("imagen.poll", "no long-running operation for %q", handle.Name)
}

func (a *ImagenAdapter) generate(ctx context.Context, modelName string, req *generation.Request) ([]*genai.GeneratedImage, error) {
	resp, err := a.client.Models.GenerateImages(ctx, modelName, req.Prompt, a.buildConfig(req))
	if err != nil {
		return nil, generation.Classify("imagen.generate", err)
	}
	return a.filterRAI("imagen.generate", resp.GeneratedImages)
}

func (a *ImagenAdapter) edit(ctx context.Context, modelName string, req *generation.Request) ([]*genai.GeneratedImage, error) {
	refs := make([]genai.ReferenceImage, 0, len(req.SeedImages))
	for i, seed := range req.SeedImages {
		refs = append(refs, &genai.RawReferenceImage{
			ReferenceID:    int32(i + 1),
			ReferenceImage: &genai.Image{GCSURI: seed.GCSURI, MIMEType: seed.MimeType},
		})
	}
	resp, err := a.client.Models.EditImage(ctx, modelName, req.Prompt, refs, a.buildEditConfig(req))
	if err != nil {
		return nil, generation.Classify("imagen.edit", err)
	}
	return a.filterRAI("imagen.edit", resp.GeneratedImages)
}

// filterRAI rejects responses dropped by the responsible-AI layer. The
// backend reports the filter reason on the first generated image.
func (a *ImagenAdapter) filterRAI(op string, images []*genai.GeneratedImage) ([]*genai.GeneratedImage, error) {
	if len(images) > 0 && images[0].RAIFilteredReason != "" {
		return nil, generation.NewError(generation.FailureFiltered, op,
			fmt.Errorf("request blocked: %s", images[0].RAIFilteredReason))
	}
	return images, nil
}

func (a *ImagenAdapter) buildConfig(req *generation.Request) *genai.GenerateImagesConfig {
	d := a.defaults
	config := &genai.GenerateImagesConfig{
		NumberOfImages:    int32(d.SampleCount),
		OutputMIMEType:    d.OutputMimeType,
		AspectRatio:       d.AspectRatio,
		PersonGeneration:  genai.PersonGeneration(d.PersonGeneration),
		SafetyFilterLevel: genai.SafetyFilterLevel(d.SafetyFilterLevel),
		OutputGCSURI:      req.OutputGCSURI,
		NegativePrompt:    req.NegativePrompt,
		IncludeRAIReason:  true,
	}
	if req.SampleCount > 0 {
		config.NumberOfImages = int32(req.SampleCount)
	}
	if req.AspectRatio != "" {
		config.AspectRatio = req.AspectRatio
	}
	if req.PersonGeneration != "" {
		config.PersonGeneration = genai.PersonGeneration(req.PersonGeneration)
	}
	return config
}

// buildEditConfig mirrors the generate configuration onto the edit call
// so both paths honor the same output and safety settings.
func (a *ImagenAdapter) buildEditConfig(req *generation.Request) *genai.EditImageConfig {
	gen := a.buildConfig(req)
	return &genai.EditImageConfig{
		NumberOfImages:    gen.NumberOfImages,
		AspectRatio:       gen.AspectRatio,
		PersonGeneration:  gen.PersonGeneration,
		SafetyFilterLevel: gen.SafetyFilterLevel,
		OutputMIMEType:    gen.OutputMIMEType,
		OutputGCSURI:      gen.OutputGCSURI,
		NegativePrompt:    gen.NegativePrompt,
		IncludeRAIReason:  true,
	}
}

func (a *ImagenAdapter) aspectRatio(req *generation.Request) string {
	if req.AspectRatio != "" {
		return req.AspectRatio
	}
	return a.defaults.AspectRatio
}

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
// This file assembles the per-backend adapters into a single generation
// gateway. The router only decides which adapter owns a task kind; all
// backend specifics stay inside the adapters.
package cloud

import (
	"context"

	"github.com/jaycherian/gcp-go-dreamboard/internal/core/generation"
	"github.com/jaycherian/gcp-go-dreamboard/internal/core/model"
)

// GenerationGateway routes generation requests to the adapter that serves
// their task kind: Veo for video, Imagen for images, and a quota-aware
// Gemini model for text.
type GenerationGateway struct {
	Veo    *VeoAdapter
	Imagen *ImagenAdapter
	Text   *QuotaAwareGenerativeAIModel
}

// NewGenerationGateway wires the adapters from an initialized client set.
// textModel selects the agent model used for text tasks; a missing key
// leaves text generation disabled.
func NewGenerationGateway(clients *ServiceClients, config *Config, textModel string) *GenerationGateway {
	return &GenerationGateway{
		Veo:    NewVeoAdapter(clients.GenAIClient, config.DefaultVideoModel()),
		Imagen: NewImagenAdapter(clients.GenAIClient, config.DefaultImageModel()),
		Text:   clients.AgentModels[textModel],
	}
}

// Submit dispatches to the owning adapter.
func (g *GenerationGateway) Submit(ctx context.Context, req *generation.Request) (*generation.Result, *generation.OperationHandle, error) {
	switch req.Kind {
	case model.TaskTextToVideo, model.TaskImageToVideo, model.TaskMultiImageToVideo,
		model.TaskFirstLastFrameToVideo, model.TaskVideoExtend:
		return g.Veo.Submit(ctx, req)
	case model.TaskImageGenerate, model.TaskImageEdit:
		return g.Imagen.Submit(ctx, req)
	case model.TaskTextGenerate:
		return g.submitText(ctx, req)
	default:
		return nil, nil, generation.Invalidf("gateway.submit", "unknown task kind %q", req.Kind)
	}
}

// Poll only applies to Veo operations; every other backend completes on
// submit.
func (g *GenerationGateway) Poll(ctx context.Context, handle *generation.OperationHandle) (*generation.OperationStatus, error) {
	return g.Veo.Poll(ctx, handle)
}

func (g *GenerationGateway) submitText(ctx context.Context, req *generation.Request) (*generation.Result, *generation.OperationHandle, error) {
	if g.Text == nil {
		return nil, nil, generation.Invalidf("gateway.text", "no text model configured")
	}
	resp, err := g.Text.GenerateContent(ctx, NewTextPart(req.Prompt))
	if err != nil {
		return nil, nil, generation.Classify("gemini.generate", err)
	}
	value := ""
	for _, candidate := range resp.Candidates {
		if candidate.Content != nil {
			for _, part := range candidate.Content.Parts {
				value += part.Text
			}
		}
	}
	return &generation.Result{Text: value}, nil, nil
}

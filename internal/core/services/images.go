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

// This file defines the ImageService, which turns scenes into generated
// images. Scene image requests fan out over the parallel dispatcher, one
// task per scene, and results come back in scene order. Character
// portraits run through the identity resolver first so each unique
// character is generated exactly once and then attached to every scene it
// appears in.

package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jaycherian/gcp-go-dreamboard/internal/core/characters"
	"github.com/jaycherian/gcp-go-dreamboard/internal/core/generation"
	"github.com/jaycherian/gcp-go-dreamboard/internal/core/model"
)

// ImageService generates scene images and character portraits.
type ImageService struct {
	Dispatcher *generation.Dispatcher
	Storage    *StorageService
}

// NewImageService builds the image service.
func NewImageService(dispatcher *generation.Dispatcher, storage *StorageService) *ImageService {
	return &ImageService{Dispatcher: dispatcher, Storage: storage}
}

// GenerateImagesFromScenes generates images for each scene in parallel.
// The response slice lines up positionally with scenes; a failed scene
// yields a response describing the failure, never an aborted batch.
func (s *ImageService) GenerateImagesFromScenes(ctx context.Context, storyID string, scenes []*model.SceneItem) []*model.ImageGenerationResponse {
	reqs := make([]*generation.Request, len(scenes))
	for i, scene := range scenes {
		var seeds []*model.ImageReference
		for _, img := range scene.Images {
			if img.SelectedRef {
				seeds = append(seeds, img)
			}
		}
		kind := model.TaskImageGenerate
		if len(seeds) > 0 {
			kind = model.TaskImageEdit
		}
		reqs[i] = &generation.Request{
			Kind:         kind,
			Prompt:       scene.ImagePrompt,
			SeedImages:   seeds,
			OutputGCSURI: s.Storage.SceneImagesURI(storyID, scene.ID),
		}
	}

	results := s.Dispatcher.RunAll(ctx, reqs)
	out := make([]*model.ImageGenerationResponse, len(results))
	for i, res := range results {
		out[i] = s.toResponse(ctx, scenes[i], res)
	}
	return out
}

// GenerateCharacterPortraits runs the character pipeline for a story:
// resolve identity, generate one portrait task per unique character, and
// attach the results to every scene occurrence. When extract is false
// only the resolution steps run.
func (s *ImageService) GenerateCharacterPortraits(ctx context.Context, story *model.StoryItem, style string, extract bool) error {
	characters.Resolve(story)
	if !extract {
		return nil
	}

	tasks := characters.PortraitTasks(story, style, func(characterID string) string {
		return s.Storage.CharacterImagesURI(story.ID, characterID)
	})
	results := s.Dispatcher.RunAll(ctx, tasks)

	var failed []string
	for i, res := range results {
		c := story.Characters[i]
		if res.Outcome != generation.OutcomeSuccess {
			slog.Warn("character portrait generation failed",
				"character", c.Name, "outcome", res.Outcome.String(), "error", res.Err)
			failed = append(failed, c.Name)
			continue
		}
		for _, img := range res.Result.Images {
			if err := s.Storage.RefreshImage(ctx, img); err != nil {
				slog.Warn("failed to sign portrait url", "character", c.Name, "error", err)
			}
		}
		characters.AttachPortraits(story, c.ID, res.Result.Images)
	}
	if len(failed) > 0 {
		return fmt.Errorf("portrait generation failed for characters: %v", failed)
	}
	return nil
}

// toResponse converts a task result into the scene-level response
// envelope, attaching successful images to the scene.
func (s *ImageService) toResponse(ctx context.Context, scene *model.SceneItem, res *generation.TaskResult) *model.ImageGenerationResponse {
	resp := &model.ImageGenerationResponse{
		Outcome: res.Outcome.String(),
		SceneID: scene.ID,
	}
	if res.Outcome != generation.OutcomeSuccess {
		resp.ExecutionMessage = fmt.Sprintf("image generation did not complete: %v", res.Err)
		return resp
	}

	for _, img := range res.Result.Images {
		img.SceneID = scene.ID
		if err := s.Storage.RefreshImage(ctx, img); err != nil {
			slog.Warn("failed to sign image url", "scene", scene.ID, "error", err)
		}
		scene.Images = append(scene.Images, img)
	}
	resp.Done = true
	resp.Images = res.Result.Images
	resp.ExecutionMessage = fmt.Sprintf("generated %d image(s) for scene %s", len(res.Result.Images), scene.ID)
	return resp
}

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

// This file defines the TextService, the brainstorming agent of the
// backend. It drives a rate-limited Gemini model through prompt templates
// to produce structured stories, extra scenes, and the image/video
// prompts derived from scene descriptions.
//
// Logic Flow:
//  1. A Go template renders the request parameters into the prompt.
//  2. The prompt is sent through the quota-aware model wrapper, which
//     enforces the configured requests-per-second limit and retries.
//  3. For story and scene calls the model is instructed to answer with
//     JSON; the response is parsed into the story model, identifiers are
//     assigned, and character identity is resolved across scenes.

package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"text/template"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/jaycherian/gcp-go-dreamboard/internal/cloud"
	"github.com/jaycherian/gcp-go-dreamboard/internal/core/characters"
	"github.com/jaycherian/gcp-go-dreamboard/internal/core/model"
)

// TextService runs brainstorming and prompt-writing calls against a
// configured agent model.
type TextService struct {
	config                   *cloud.Config
	agent                    *cloud.QuotaAwareGenerativeAIModel
	storyTemplate            *template.Template
	sceneTemplate            *template.Template
	geminiInputTokenCounter  metric.Int64Counter
	geminiOutputTokenCounter metric.Int64Counter
	geminiRetryCounter       metric.Int64Counter
}

// NewTextService builds the brainstorming service around the named agent
// model from the configuration.
//
// Inputs:
//   - config: The loaded application configuration.
//   - agent: The rate-limited generative model used for all calls.
//
// Outputs:
//   - *TextService: The configured service.
//   - error: An error when a prompt template fails to parse.
func NewTextService(config *cloud.Config, agent *cloud.QuotaAwareGenerativeAIModel) (*TextService, error) {
	storyTmpl, err := template.New("story").Parse(config.PromptTemplates.StoryPrompt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse story prompt template: %w", err)
	}
	sceneTmpl, err := template.New("scene").Parse(config.PromptTemplates.ScenePrompt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse scene prompt template: %w", err)
	}

	out := &TextService{
		config:        config,
		agent:         agent,
		storyTemplate: storyTmpl,
		sceneTemplate: sceneTmpl,
	}
	meter := otel.Meter("github.com/GoogleCloudPlatform/solutions/dreamboard")
	out.geminiInputTokenCounter, _ = meter.Int64Counter("text_service.gemini.token.input")
	out.geminiOutputTokenCounter, _ = meter.Int64Counter("text_service.gemini.token.output")
	out.geminiRetryCounter, _ = meter.Int64Counter("text_service.gemini.token.retry")
	return out, nil
}

// generate renders a prompt template and runs it through the agent model.
func (t *TextService) generate(ctx context.Context, tmpl *template.Template, params map[string]interface{}) (string, error) {
	var buffer bytes.Buffer
	if err := tmpl.Execute(&buffer, params); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}
	return cloud.GenerateMultiModalResponse(
		ctx,
		t.geminiInputTokenCounter,
		t.geminiOutputTokenCounter,
		t.geminiRetryCounter,
		0,
		t.agent,
		cloud.NewTextPart(buffer.String()))
}

// BrainstormStories produces complete story alternatives for a seed idea.
// Scene and story identifiers are assigned server side and character
// identity is resolved before the stories are returned.
//
// Inputs:
//   - ctx: The context for the request.
//   - userID: The owner the stories belong to.
//   - req: The brainstorming parameters.
//
// Outputs:
//   - []*model.StoryItem: The generated stories, ready to persist.
//   - error: An error if generation or parsing fails.
func (t *TextService) BrainstormStories(ctx context.Context, userID string, req *model.BrainstormRequest) ([]*model.StoryItem, error) {
	numStories := req.NumStories
	if numStories < 1 {
		numStories = 1
	}
	out, err := t.generate(ctx, t.storyTemplate, map[string]interface{}{
		"IDEA":        req.Idea,
		"NUM_STORIES": numStories,
		"NUM_SCENES":  req.NumScenes,
		"GENRE":       req.Genre,
		"AUDIENCE":    req.Audience,
		"STYLE":       req.Style,
	})
	if err != nil {
		return nil, fmt.Errorf("brainstorming request failed: %w", err)
	}

	var stories []*model.StoryItem
	if err := json.Unmarshal([]byte(out), &stories); err != nil {
		return nil, fmt.Errorf("failed to parse brainstorming response: %w", err)
	}

	for _, story := range stories {
		story.ID = uuid.NewString()
		story.UserID = userID
		story.BrainstormIdea = req.Idea
		for i, scene := range story.Scenes {
			scene.ID = uuid.NewString()
			scene.Number = i + 1
		}
		characters.Resolve(story)
	}
	return stories, nil
}

// BrainstormScenes extends an existing story with additional scenes. The
// new scenes are appended, numbered after the existing ones, and identity
// resolution is re-run so recurring characters keep their ids.
func (t *TextService) BrainstormScenes(ctx context.Context, story *model.StoryItem, count int) error {
	if count < 1 {
		count = 1
	}
	existing, _ := json.Marshal(story.Scenes)
	out, err := t.generate(ctx, t.sceneTemplate, map[string]interface{}{
		"TITLE":       story.Title,
		"DESCRIPTION": story.Description,
		"SCENES_JSON": string(existing),
		"NUM_SCENES":  count,
	})
	if err != nil {
		return fmt.Errorf("scene brainstorming request failed: %w", err)
	}

	var scenes []*model.SceneItem
	if err := json.Unmarshal([]byte(out), &scenes); err != nil {
		return fmt.Errorf("failed to parse scene brainstorming response: %w", err)
	}
	base := len(story.Scenes)
	for i, scene := range scenes {
		scene.ID = uuid.NewString()
		scene.Number = base + i + 1
		story.Scenes = append(story.Scenes, scene)
	}
	characters.Resolve(story)
	return nil
}

// CreateImagePrompt writes an image generation prompt from a scene
// description using the configured template.
func (t *TextService) CreateImagePrompt(ctx context.Context, sceneDescription string) (string, error) {
	tmpl, err := template.New("image_prompt").Parse(t.config.PromptTemplates.ImagePromptPrompt)
	if err != nil {
		return "", fmt.Errorf("failed to parse image prompt template: %w", err)
	}
	return t.generate(ctx, tmpl, map[string]interface{}{"DESCRIPTION": sceneDescription})
}

// CreateVideoPrompt writes a video generation prompt from a scene
// description using the configured template.
func (t *TextService) CreateVideoPrompt(ctx context.Context, sceneDescription string) (string, error) {
	tmpl, err := template.New("video_prompt").Parse(t.config.PromptTemplates.VideoPromptPrompt)
	if err != nil {
		return "", fmt.Errorf("failed to parse video prompt template: %w", err)
	}
	return t.generate(ctx, tmpl, map[string]interface{}{"DESCRIPTION": sceneDescription})
}

// EnhancePrompt rewrites a user-supplied prompt for richer output using
// the configured enhancement template.
func (t *TextService) EnhancePrompt(ctx context.Context, prompt string) (string, error) {
	tmpl, err := template.New("enhance").Parse(t.config.PromptTemplates.EnhancementPrompt)
	if err != nil {
		return "", fmt.Errorf("failed to parse enhancement template: %w", err)
	}
	return t.generate(ctx, tmpl, map[string]interface{}{"PROMPT": prompt})
}

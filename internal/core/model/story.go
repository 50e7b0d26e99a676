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

// This file defines the story domain: the output of the brainstorming
// agent (stories, scenes, characters) and the document shape persisted to
// Firestore under users/{user_id}/stories/{story_id}.
//
// Character identity is resolved at the story level. Each unique character
// name gets one story-level UUID; scenes refer to characters through
// scene-local identifiers of the form "{scene_id}@{character_id}" so that
// scene payloads stay self-contained while still tracing back to a single
// identity.

package model

// Character is a single story-level identity. The resolver guarantees at
// most one Character per distinct name within a story.
type Character struct {
	ID            string            `json:"id" firestore:"id"`                           // Story-level UUID assigned on first sighting.
	Name          string            `json:"name" firestore:"name"`                       // Identity key. Dedup is first-seen-wins by name.
	Description   string            `json:"description" firestore:"description"`         // Visual description used for image prompts.
	FoundInScenes []string          `json:"found_in_scenes" firestore:"found_in_scenes"` // Scene IDs where this character appears, in scene order.
	Images        []*ImageReference `json:"images,omitempty" firestore:"images"`         // Generated portrait images, one task per unique character.
}

// SceneItem is a single scene of a story.
type SceneItem struct {
	ID           string            `json:"id" firestore:"id"`
	Number       int               `json:"number" firestore:"number"` // 1-based ordering within the story.
	Description  string            `json:"description" firestore:"description"`
	ImagePrompt  string            `json:"image_prompt" firestore:"image_prompt"`
	VideoPrompt  string            `json:"video_prompt" firestore:"video_prompt"`
	Characters   []*Character      `json:"characters,omitempty" firestore:"characters"` // Scene-level mentions, rewritten in place by identity resolution.
	CharacterIDs []string          `json:"character_ids" firestore:"character_ids"`     // Scene-local ids: "{scene_id}@{character_id}".
	Images       []*ImageReference `json:"images,omitempty" firestore:"images"`
	Videos       []*VideoReference `json:"videos,omitempty" firestore:"videos"`
}

// StoryItem is the root story document. It is what the brainstorming agent
// produces and what StoryService persists.
type StoryItem struct {
	ID             string       `json:"id" firestore:"id"`
	UserID         string       `json:"user_id" firestore:"user_id"`
	Title          string       `json:"title" firestore:"title"`
	Description    string       `json:"description" firestore:"description"`
	BrainstormIdea string       `json:"brainstorm_idea" firestore:"brainstorm_idea"` // The seed idea the user supplied.
	Genre          string       `json:"genre,omitempty" firestore:"genre"`
	Audience       string       `json:"audience,omitempty" firestore:"audience"`
	Scenes         []*SceneItem `json:"scenes" firestore:"scenes"`
	Characters     []*Character `json:"characters" firestore:"characters"` // Deduplicated story-level identities.
}

// BrainstormRequest carries the inputs for story brainstorming.
type BrainstormRequest struct {
	Idea       string `json:"idea" binding:"required"` // Free-form seed idea.
	NumStories int    `json:"num_stories"`             // How many alternatives to produce. Defaults to 1.
	NumScenes  int    `json:"num_scenes"`              // Target scene count per story. 0 lets the model decide.
	Genre      string `json:"genre"`
	Audience   string `json:"audience"`
	Style      string `json:"style"` // Visual style hint threaded into image prompts.
}

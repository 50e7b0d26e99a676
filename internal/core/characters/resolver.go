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

// Package characters resolves character identity across the scenes of a
// story so that the same character looks the same in every scene.
//
// Logic Flow:
//  1. Walk scenes in order and deduplicate character mentions by name,
//     first seen wins. Each unique name receives one story-level UUID.
//  2. Record, per identity, the ordered list of scenes it appears in.
//  3. Rewrite each scene mention to the scene-local identifier
//     "{scene_id}@{character_id}" so scene payloads remain self-contained.
//  4. Emit exactly one portrait generation task per unique identity
//     (never per mention).
//  5. Re-attach generated portraits to every scene occurrence with image
//     identifiers of the form "{scene_id}@{character_id}@{image_id}".
//
// Steps 4 and 5 are skipped when portrait extraction is disabled; the
// dedup and rewrite steps always run. Resolution is idempotent: running
// it on an already resolved story changes nothing.
package characters

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jaycherian/gcp-go-dreamboard/internal/core/generation"
	"github.com/jaycherian/gcp-go-dreamboard/internal/core/model"
)

// IDSeparator joins the parts of scene-local identifiers.
const IDSeparator = "@"

// SceneLocalID renders the scene-scoped identifier for a character.
func SceneLocalID(sceneID, characterID string) string {
	return sceneID + IDSeparator + characterID
}

// ParseSceneLocalID splits a scene-local identifier back into its scene
// and character parts. ok is false for identifiers not in that form.
func ParseSceneLocalID(id string) (sceneID, characterID string, ok bool) {
	parts := strings.Split(id, IDSeparator)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// AttachmentID renders the identifier of a portrait copy attached to a
// scene occurrence.
func AttachmentID(sceneID, characterID, imageID string) string {
	return sceneID + IDSeparator + characterID + IDSeparator + imageID
}

// Resolve deduplicates the character mentions of story and rewrites the
// scene references in place. Already-resolved stories pass through
// unchanged, including their assigned identifiers.
func Resolve(story *model.StoryItem) {
	byName := make(map[string]*model.Character, len(story.Characters))
	for _, c := range story.Characters {
		byName[c.Name] = c
	}
	resolved := story.Characters

	for _, scene := range story.Scenes {
		scene.CharacterIDs = scene.CharacterIDs[:0]
		for _, mention := range scene.Characters {
			identity, seen := byName[mention.Name]
			if !seen {
				id := mention.ID
				// A mention that already carries a scene-local id is a
				// prior resolution; reuse its character part instead of
				// minting a new identity.
				if _, charID, ok := ParseSceneLocalID(id); ok {
					id = charID
				}
				if id == "" {
					id = uuid.NewString()
				}
				identity = &model.Character{
					ID:          id,
					Name:        mention.Name,
					Description: mention.Description,
				}
				byName[mention.Name] = identity
				resolved = append(resolved, identity)
			}
			if !containsString(identity.FoundInScenes, scene.ID) {
				identity.FoundInScenes = append(identity.FoundInScenes, scene.ID)
			}
			mention.ID = SceneLocalID(scene.ID, identity.ID)
			scene.CharacterIDs = append(scene.CharacterIDs, mention.ID)
		}
	}
	story.Characters = resolved
}

// PortraitTasks builds one image generation request per unique character.
// outputURIFor maps a character id to the GCS folder its portraits land
// in, typically "{story}/images/characters/{character_id}".
func PortraitTasks(story *model.StoryItem, style string, outputURIFor func(characterID string) string) []*generation.Request {
	reqs := make([]*generation.Request, 0, len(story.Characters))
	for _, c := range story.Characters {
		prompt := fmt.Sprintf("Character portrait of %s. %s", c.Name, c.Description)
		if style != "" {
			prompt = fmt.Sprintf("%s Style: %s.", prompt, style)
		}
		reqs = append(reqs, &generation.Request{
			Kind:         model.TaskImageGenerate,
			Prompt:       prompt,
			SampleCount:  1,
			OutputGCSURI: outputURIFor(c.ID),
		})
	}
	return reqs
}

// AttachPortraits stores the generated portraits on the identity and
// copies a reference into every scene the character appears in, giving
// each copy a scene-qualified identifier.
func AttachPortraits(story *model.StoryItem, characterID string, images []*model.ImageReference) {
	var identity *model.Character
	for _, c := range story.Characters {
		if c.ID == characterID {
			identity = c
			break
		}
	}
	if identity == nil {
		return
	}
	identity.Images = append(identity.Images, images...)

	scenes := make(map[string]*model.SceneItem, len(story.Scenes))
	for _, s := range story.Scenes {
		scenes[s.ID] = s
	}
	for _, sceneID := range identity.FoundInScenes {
		scene, ok := scenes[sceneID]
		if !ok {
			continue
		}
		for _, img := range images {
			copy := *img
			copy.ID = AttachmentID(sceneID, characterID, img.ID)
			copy.SceneID = sceneID
			scene.Images = append(scene.Images, &copy)
		}
	}
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

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

package characters_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/gcp-go-dreamboard/internal/core/characters"
	"github.com/jaycherian/gcp-go-dreamboard/internal/core/model"
)

// twoSceneStory returns a story where "Mia" appears in both scenes and
// "Rex" only in the second.
func twoSceneStory() *model.StoryItem {
	return &model.StoryItem{
		ID:    "story-1",
		Title: "The Lighthouse",
		Scenes: []*model.SceneItem{
			{
				ID: "scene-1",
				Characters: []*model.Character{
					{Name: "Mia", Description: "a marine biologist in a yellow raincoat"},
				},
			},
			{
				ID: "scene-2",
				Characters: []*model.Character{
					{Name: "Mia", Description: "the same biologist, now soaked"},
					{Name: "Rex", Description: "an old lighthouse keeper's dog"},
				},
			},
		},
	}
}

func TestResolveDeduplicatesByNameFirstSeenWins(t *testing.T) {
	story := twoSceneStory()
	characters.Resolve(story)

	require.Len(t, story.Characters, 2)
	mia, rex := story.Characters[0], story.Characters[1]
	assert.Equal(t, "Mia", mia.Name)
	assert.Equal(t, "Rex", rex.Name)
	// First mention's description wins for the shared identity.
	assert.Equal(t, "a marine biologist in a yellow raincoat", mia.Description)
	assert.NotEmpty(t, mia.ID)
	assert.NotEmpty(t, rex.ID)
	assert.NotEqual(t, mia.ID, rex.ID)

	assert.Equal(t, []string{"scene-1", "scene-2"}, mia.FoundInScenes)
	assert.Equal(t, []string{"scene-2"}, rex.FoundInScenes)
}

func TestResolveRewritesMentionsToSceneLocalIDs(t *testing.T) {
	story := twoSceneStory()
	characters.Resolve(story)

	mia := story.Characters[0]
	first := story.Scenes[0].Characters[0]
	second := story.Scenes[1].Characters[0]

	assert.Equal(t, characters.SceneLocalID("scene-1", mia.ID), first.ID)
	assert.Equal(t, characters.SceneLocalID("scene-2", mia.ID), second.ID)
	assert.Equal(t, []string{first.ID}, story.Scenes[0].CharacterIDs)

	sceneID, charID, ok := characters.ParseSceneLocalID(second.ID)
	require.True(t, ok)
	assert.Equal(t, "scene-2", sceneID)
	assert.Equal(t, mia.ID, charID)
}

func TestResolveIsIdempotent(t *testing.T) {
	story := twoSceneStory()
	characters.Resolve(story)

	miaID := story.Characters[0].ID
	firstMention := story.Scenes[0].Characters[0].ID

	characters.Resolve(story)

	require.Len(t, story.Characters, 2)
	assert.Equal(t, miaID, story.Characters[0].ID)
	assert.Equal(t, firstMention, story.Scenes[0].Characters[0].ID)
	assert.Equal(t, []string{"scene-1", "scene-2"}, story.Characters[0].FoundInScenes)
}

func TestParseSceneLocalIDRejectsOtherShapes(t *testing.T) {
	for _, id := range []string{"", "plain-uuid", "a@b@c", "@b", "a@"} {
		_, _, ok := characters.ParseSceneLocalID(id)
		assert.False(t, ok, "id %q", id)
	}
}

func TestPortraitTasksOnePerUniqueCharacter(t *testing.T) {
	story := twoSceneStory()
	characters.Resolve(story)

	reqs := characters.PortraitTasks(story, "watercolor", func(characterID string) string {
		return "gs://assets/story-1/images/characters/" + characterID
	})

	require.Len(t, reqs, 2)
	assert.Equal(t, model.TaskImageGenerate, reqs[0].Kind)
	assert.Contains(t, reqs[0].Prompt, "Mia")
	assert.Contains(t, reqs[0].Prompt, "yellow raincoat")
	assert.Contains(t, reqs[0].Prompt, "Style: watercolor.")
	assert.Equal(t, "gs://assets/story-1/images/characters/"+story.Characters[0].ID, reqs[0].OutputGCSURI)
	assert.Equal(t, 1, reqs[0].SampleCount)
}

func TestAttachPortraitsCopiesIntoEveryOccurrence(t *testing.T) {
	story := twoSceneStory()
	characters.Resolve(story)
	mia := story.Characters[0]

	portrait := &model.ImageReference{ID: "img-1", GCSURI: "gs://assets/story-1/images/characters/" + mia.ID + "/p.png"}
	characters.AttachPortraits(story, mia.ID, []*model.ImageReference{portrait})

	require.Len(t, mia.Images, 1)
	require.Len(t, story.Scenes[0].Images, 1)
	require.Len(t, story.Scenes[1].Images, 1)

	attached := story.Scenes[0].Images[0]
	assert.Equal(t, characters.AttachmentID("scene-1", mia.ID, "img-1"), attached.ID)
	assert.Equal(t, "scene-1", attached.SceneID)
	assert.Equal(t, portrait.GCSURI, attached.GCSURI)
	// Scene copies are independent of the identity's portrait.
	assert.NotSame(t, portrait, attached)
}

func TestAttachPortraitsUnknownCharacterIsNoop(t *testing.T) {
	story := twoSceneStory()
	characters.Resolve(story)

	characters.AttachPortraits(story, "missing", []*model.ImageReference{{ID: "img-x"}})
	assert.Empty(t, story.Scenes[0].Images)
	assert.Empty(t, story.Scenes[1].Images)
}

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

// This file defines the final command in the upload registration
// workflow: attaching the uploaded media to its story scene.
//
// Logic Flow:
// Upload objects follow a fixed layout that encodes their destination:
//
//	{user_id}/{story_id}/{scene_id}/{filename}
//
//  1. The command receives the classified GCSObject from the previous
//     command and splits its object name into those four parts.
//  2. It loads the story document from Firestore and locates the target
//     scene.
//  3. It builds an image or video reference (depending on the resolved
//     MIME type) with a fresh signed URL so the frontend can render the
//     upload immediately.
//  4. It appends the reference to the scene and saves the story back.
package commands

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jaycherian/gcp-go-dreamboard/internal/cloud"
	"github.com/jaycherian/gcp-go-dreamboard/internal/core/cor"
	"github.com/jaycherian/gcp-go-dreamboard/internal/core/model"
	"github.com/jaycherian/gcp-go-dreamboard/internal/core/services"
)

// uploadPathParts is the number of segments an upload object name must
// have: user, story, scene, filename.
const uploadPathParts = 4

// StoryMediaAttach registers an uploaded media object on its story scene
// and persists the updated story.
type StoryMediaAttach struct {
	cor.BaseCommand
	stories *services.StoryService
	storage *services.StorageService
}

// NewStoryMediaAttach is the constructor for the StoryMediaAttach command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - stories: The story persistence service.
//   - storage: The storage service used to sign access URLs.
//
// Outputs:
//   - *StoryMediaAttach: A pointer to the newly instantiated command.
func NewStoryMediaAttach(name string, stories *services.StoryService, storage *services.StorageService) *StoryMediaAttach {
	return &StoryMediaAttach{
		BaseCommand: *cor.NewBaseCommand(name),
		stories:     stories,
		storage:     storage,
	}
}

// Execute attaches the uploaded object to its scene.
func (c *StoryMediaAttach) Execute(context cor.Context) {
	obj := context.Get(c.GetInputParam()).(*cloud.GCSObject)
	ctx := context.GetContext()

	parts := strings.SplitN(obj.Name, "/", uploadPathParts)
	if len(parts) < uploadPathParts {
		c.fail(context, fmt.Errorf("upload object %s does not follow user/story/scene/file layout", obj.Name))
		return
	}
	userID, storyID, sceneID, filename := parts[0], parts[1], parts[2], parts[3]

	story, err := c.stories.Get(ctx, userID, storyID)
	if err != nil {
		c.fail(context, fmt.Errorf("failed to load story %s for upload %s: %w", storyID, obj.Name, err))
		return
	}

	scene := findScene(story, sceneID)
	if scene == nil {
		c.fail(context, fmt.Errorf("story %s has no scene %s for upload %s", storyID, sceneID, obj.Name))
		return
	}

	gcsURI := services.GCSURIPrefix + obj.Bucket + "/" + obj.Name
	if strings.HasPrefix(obj.MIMEType, "video/") {
		video := &model.VideoReference{
			ID:       uuid.NewString(),
			Name:     filename,
			GCSURI:   gcsURI,
			MimeType: obj.MIMEType,
		}
		if err = c.storage.RefreshVideo(ctx, video); err != nil {
			c.fail(context, fmt.Errorf("failed to sign upload %s: %w", obj.Name, err))
			return
		}
		scene.Videos = append(scene.Videos, video)
	} else {
		image := &model.ImageReference{
			ID:       uuid.NewString(),
			Name:     filename,
			GCSURI:   gcsURI,
			MimeType: obj.MIMEType,
			SceneID:  sceneID,
		}
		if err = c.storage.RefreshImage(ctx, image); err != nil {
			c.fail(context, fmt.Errorf("failed to sign upload %s: %w", obj.Name, err))
			return
		}
		scene.Images = append(scene.Images, image)
	}

	if err = c.stories.Save(ctx, story); err != nil {
		c.fail(context, fmt.Errorf("failed to save story %s after upload %s: %w", storyID, obj.Name, err))
		return
	}

	c.GetSuccessCounter().Add(ctx, 1)
	context.Add(c.GetOutputParam(), story)
}

func (c *StoryMediaAttach) fail(context cor.Context, err error) {
	c.GetErrorCounter().Add(context.GetContext(), 1)
	context.AddError(c.GetName(), err)
}

// findScene returns the scene with the given id, or nil.
func findScene(story *model.StoryItem, sceneID string) *model.SceneItem {
	for _, scene := range story.Scenes {
		if scene.ID == sceneID {
			return scene
		}
	}
	return nil
}

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

// This file defines the StoryService, the persistence layer for story
// documents. Stories are stored in Firestore under
// users/{user_id}/stories/{story_id}, one document per story, with scenes
// and characters embedded.

package services

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/jaycherian/gcp-go-dreamboard/internal/cloud"
	"github.com/jaycherian/gcp-go-dreamboard/internal/core/model"
)

// ErrStoryNotFound is returned when a requested story document does not
// exist.
var ErrStoryNotFound = errors.New("story not found")

// Default collection names, used when the configuration leaves them
// unset.
const (
	DefaultUsersCollection   = "users"
	DefaultStoriesCollection = "stories"
)

// StoryService persists and retrieves story documents from Firestore.
type StoryService struct {
	Client            *firestore.Client
	UsersCollection   string
	StoriesCollection string
}

// NewStoryService builds the story service from the shared client set.
func NewStoryService(clients *cloud.ServiceClients, config *cloud.Config) *StoryService {
	users := config.Firestore.UsersCollection
	if users == "" {
		users = DefaultUsersCollection
	}
	stories := config.Firestore.StorysCollection
	if stories == "" {
		stories = DefaultStoriesCollection
	}
	return &StoryService{
		Client:            clients.FirestoreClient,
		UsersCollection:   users,
		StoriesCollection: stories,
	}
}

// doc returns the document reference for one story.
func (s *StoryService) doc(userID, storyID string) *firestore.DocumentRef {
	return s.Client.Collection(s.UsersCollection).Doc(userID).
		Collection(s.StoriesCollection).Doc(storyID)
}

// Save writes the story document, overwriting any previous version.
func (s *StoryService) Save(ctx context.Context, story *model.StoryItem) error {
	if story.ID == "" || story.UserID == "" {
		return fmt.Errorf("story id and user id are required to save")
	}
	_, err := s.doc(story.UserID, story.ID).Set(ctx, story)
	if err != nil {
		return fmt.Errorf("failed to save story %s: %w", story.ID, err)
	}
	return nil
}

// Get reads one story document. Returns ErrStoryNotFound when the
// document does not exist.
func (s *StoryService) Get(ctx context.Context, userID, storyID string) (*model.StoryItem, error) {
	snap, err := s.doc(userID, storyID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrStoryNotFound
		}
		return nil, fmt.Errorf("failed to read story %s: %w", storyID, err)
	}
	story := &model.StoryItem{}
	if err := snap.DataTo(story); err != nil {
		return nil, fmt.Errorf("failed to decode story %s: %w", storyID, err)
	}
	return story, nil
}

// List returns all stories of a user, in document order.
func (s *StoryService) List(ctx context.Context, userID string) ([]*model.StoryItem, error) {
	itr := s.Client.Collection(s.UsersCollection).Doc(userID).
		Collection(s.StoriesCollection).Documents(ctx)
	defer itr.Stop()

	var stories []*model.StoryItem
	for {
		snap, err := itr.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list stories for user %s: %w", userID, err)
		}
		story := &model.StoryItem{}
		if err := snap.DataTo(story); err != nil {
			return nil, fmt.Errorf("failed to decode story %s: %w", snap.Ref.ID, err)
		}
		stories = append(stories, story)
	}
	return stories, nil
}

// Delete removes one story document. Deleting an absent story is not an
// error, matching Firestore semantics.
func (s *StoryService) Delete(ctx context.Context, userID, storyID string) error {
	_, err := s.doc(userID, storyID).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete story %s: %w", storyID, err)
	}
	return nil
}

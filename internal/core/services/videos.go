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

// This file defines the VideoService, which turns story segments into
// generated clips. Segment requests fan out over the parallel dispatcher
// and come back in submission order; each segment reaches exactly one
// terminal outcome without disturbing its siblings.
//
// A segment with existing clips and Regenerate unset is skipped: its
// previous output is reported as-is. The wait flag switches between
// blocking generation and non-blocking submission, where the caller gets
// back the operation name to poll later.

package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jaycherian/gcp-go-dreamboard/internal/core/generation"
	"github.com/jaycherian/gcp-go-dreamboard/internal/core/model"
)

// VideoService generates video clips for story segments.
type VideoService struct {
	Gateway  generation.Gateway
	Storage  *StorageService
	PoolSize int
}

// NewVideoService builds the video service.
func NewVideoService(gateway generation.Gateway, storage *StorageService, poolSize int) *VideoService {
	return &VideoService{Gateway: gateway, Storage: storage, PoolSize: poolSize}
}

// GenerateVideosFromScenes generates a clip per segment in parallel.
// Responses line up positionally with segments. With wait=false, tasks
// are submitted and their operation names returned without polling.
func (s *VideoService) GenerateVideosFromScenes(ctx context.Context, storyID string, segments []*model.VideoSegment, wait bool) []*model.VideoGenerationResponse {
	out := make([]*model.VideoGenerationResponse, len(segments))

	// Segments that keep their previous output never reach the backend.
	var reqs []*generation.Request
	var reqIndex []int
	for i, seg := range segments {
		if !seg.Regenerate && len(seg.Videos) > 0 {
			out[i] = &model.VideoGenerationResponse{
				Done:             true,
				Outcome:          generation.OutcomeSuccess.String(),
				ExecutionMessage: "segment already has generated videos, regeneration not requested",
				Videos:           seg.Videos,
				Segment:          seg,
			}
			continue
		}
		reqs = append(reqs, s.buildRequest(storyID, seg))
		reqIndex = append(reqIndex, i)
	}

	ctrl := &generation.Controller{Gateway: s.Gateway, NonBlocking: !wait}
	results := generation.NewDispatcher(ctrl, s.PoolSize).RunAll(ctx, reqs)

	for j, res := range results {
		out[reqIndex[j]] = s.toResponse(ctx, segments[reqIndex[j]], res)
	}
	return out
}

// ResumeOperation polls a previously submitted operation to completion
// and folds the result into the segment, mirroring the blocking path.
func (s *VideoService) ResumeOperation(ctx context.Context, storyID string, seg *model.VideoSegment, operationName string) *model.VideoGenerationResponse {
	ctrl := &generation.Controller{Gateway: s.Gateway}
	req := s.buildRequest(storyID, seg)
	res := ctrl.Resume(ctx, req, &generation.OperationHandle{Name: operationName, Model: seg.Model})
	return s.toResponse(ctx, seg, res)
}

// buildRequest maps a segment to a backend-neutral generation request.
// When the segment does not state its task kind, the kind is derived from
// the inputs it carries.
func (s *VideoService) buildRequest(storyID string, seg *model.VideoSegment) *generation.Request {
	kind := seg.Kind
	if kind == "" {
		switch {
		case len(seg.SourceVideos) > 0:
			kind = model.TaskVideoExtend
		case len(seg.SeedImages) == 1:
			kind = model.TaskImageToVideo
		case len(seg.SeedImages) > 1:
			kind = model.TaskMultiImageToVideo
		default:
			kind = model.TaskTextToVideo
		}
	}
	return &generation.Request{
		Kind:           kind,
		Model:          seg.Model,
		Prompt:         seg.Prompt,
		Segment:        seg,
		SeedImages:     seg.SeedImages,
		NegativePrompt: seg.NegativePrompt,
		OutputGCSURI:   s.Storage.SceneVideosURI(storyID, model.SegmentLabel(seg.SceneID, seg.SegmentNumber)),
	}
}

// toResponse converts a terminal task result into the segment-level
// response envelope, attaching successful clips to the segment.
func (s *VideoService) toResponse(ctx context.Context, seg *model.VideoSegment, res *generation.TaskResult) *model.VideoGenerationResponse {
	resp := &model.VideoGenerationResponse{
		Outcome: res.Outcome.String(),
		Segment: seg,
	}
	switch res.Outcome {
	case generation.OutcomePending:
		resp.OperationName = res.Handle.Name
		resp.ExecutionMessage = "the video is generating and the process did not wait for a response, check back later"
	case generation.OutcomeSuccess:
		for _, v := range res.Result.Videos {
			if seg.DurationSeconds > 0 {
				v.DurationSeconds = float64(seg.DurationSeconds)
			}
			if seg.FramesPerSec > 0 {
				v.FramesPerSec = seg.FramesPerSec
			}
			if err := s.Storage.RefreshVideo(ctx, v); err != nil {
				slog.Warn("failed to sign video url", "scene", seg.SceneID, "error", err)
			}
			seg.Videos = append(seg.Videos, v)
		}
		resp.Done = true
		resp.Videos = res.Result.Videos
		resp.ExecutionMessage = fmt.Sprintf("generated %d video(s) for segment %s",
			len(res.Result.Videos), model.SegmentLabel(seg.SceneID, seg.SegmentNumber))
	default:
		resp.ExecutionMessage = fmt.Sprintf("video generation did not complete: %v", res.Err)
	}
	return resp
}

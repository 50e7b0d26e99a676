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

// This file extracts still frames from generated clips. Frames are used
// as seed images for follow-on segments, so they are uploaded next to the
// story's other images and returned as regular image references.

package merge

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/google/uuid"

	"github.com/jaycherian/gcp-go-dreamboard/internal/core/model"
)

// DefaultExtractionFPS is the sampling rate used when the configuration
// does not set one.
const DefaultExtractionFPS = 1

// DefaultFrameCount is how many frames one extraction yields by default.
const DefaultFrameCount = 3

// ExtractFrames samples still frames from a clip starting at the request
// timestamp, uploads them as PNGs under the story's frame folder, and
// records their URIs on the video reference.
//
// Outputs:
//   - []*model.ImageReference: One reference per extracted frame, in
//     temporal order.
//   - error: An error when the fetch, ffmpeg, or any upload fails.
func (e *Engine) ExtractFrames(ctx context.Context, storyID string, req *model.FrameExtractionRequest) ([]*model.ImageReference, error) {
	if req.Video == nil || req.Video.GCSURI == "" {
		return nil, fmt.Errorf("frame extraction requires a video reference")
	}
	count := req.Count
	if count <= 0 {
		count = DefaultFrameCount
	}
	fps := e.FFmpeg.ExtractionFPS
	if fps <= 0 {
		fps = DefaultExtractionFPS
	}

	cleanup := newTempSet()
	defer cleanup.removeAll()

	local, err := e.Storage.DownloadToTempFile(ctx, req.Video.GCSURI)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch video %s: %w", req.Video.ID, err)
	}
	cleanup.add(local)

	outDir, err := os.MkdirTemp("", "dreamboard-frames-")
	if err != nil {
		return nil, err
	}
	defer func(dir string) { _ = os.RemoveAll(dir) }(outDir)

	// -ss before -i seeks on the input, keeping extraction fast on long
	// clips.
	args := []string{"-y",
		"-ss", formatSeconds(req.TimeSeconds),
		"-i", local,
		"-vf", "fps=" + strconv.Itoa(fps),
		"-vframes", strconv.Itoa(count),
		filepath.Join(outDir, "frame_%03d.png")}
	if err = e.run(ctx, args); err != nil {
		return nil, err
	}

	framePaths, err := filepath.Glob(filepath.Join(outDir, "frame_*.png"))
	if err != nil {
		return nil, err
	}
	if len(framePaths) == 0 {
		return nil, fmt.Errorf("no frames extracted from video %s at %ss",
			req.Video.ID, formatSeconds(req.TimeSeconds))
	}
	sort.Strings(framePaths)

	images := make([]*model.ImageReference, 0, len(framePaths))
	req.Video.FrameURIs = req.Video.FrameURIs[:0]
	for i, path := range framePaths {
		name := fmt.Sprintf("%s_frame_%03d.png", req.Video.ID, i+1)
		objectName := fmt.Sprintf("%s/images/frames/%s", storyID, name)
		gcsURI, upErr := e.Storage.UploadFile(ctx, path, objectName, model.MimeTypePNG)
		if upErr != nil {
			return nil, fmt.Errorf("failed to upload frame %s: %w", name, upErr)
		}
		img := &model.ImageReference{
			ID:       uuid.NewString(),
			Name:     name,
			GCSURI:   gcsURI,
			MimeType: model.MimeTypePNG,
		}
		if refreshErr := e.Storage.RefreshImage(ctx, img); refreshErr != nil {
			return nil, refreshErr
		}
		req.Video.FrameURIs = append(req.Video.FrameURIs, gcsURI)
		images = append(images, img)
	}
	return images, nil
}

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

// This file executes merge plans. The engine fetches every planned clip
// from GCS in parallel, drives ffmpeg with the generated filter graph,
// applies overlay passes, and uploads the final cut back to the story's
// video folder. All intermediate files live in the OS temp directory and
// are removed before the call returns.

package merge

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jaycherian/gcp-go-dreamboard/internal/cloud"
	"github.com/jaycherian/gcp-go-dreamboard/internal/core/model"
	"github.com/jaycherian/gcp-go-dreamboard/internal/core/services"
)

// DefaultFFmpegCommand is used when no ffmpeg path is configured.
const DefaultFFmpegCommand = "ffmpeg"

// tempFilePattern names the engine's intermediate files.
const tempFilePattern = "dreamboard-merge-*.mp4"

// Engine assembles story videos from generated segments.
type Engine struct {
	Storage *services.StorageService
	FFmpeg  cloud.FFmpeg
}

// NewEngine builds the merge engine.
func NewEngine(storage *services.StorageService, config *cloud.Config) *Engine {
	return &Engine{Storage: storage, FFmpeg: config.FFmpeg}
}

// Merge builds and executes the plan for a merge spec.
//
// A spec whose included entries are empty returns a NothingToMerge
// response rather than an error. An included segment without a generated
// clip, or a clip that cannot be fetched, fails the whole merge and the
// error names the offending segment.
//
// Outputs:
//   - *model.MergeResponse: The merged video with a fresh signed URL.
//   - error: An error when planning, fetching, ffmpeg, or upload fails.
func (e *Engine) Merge(ctx context.Context, spec *model.MergeSpec) (*model.MergeResponse, error) {
	plan, err := BuildPlan(spec)
	if err != nil {
		return nil, err
	}
	if plan.Empty() {
		return &model.MergeResponse{
			NothingToMerge:   true,
			ExecutionMessage: "no segments were included in the merge, nothing to do",
		}, nil
	}

	cleanup := newTempSet()
	defer cleanup.removeAll()

	if err = e.fetchSegments(ctx, plan, cleanup); err != nil {
		return nil, err
	}

	merged, err := e.runMerge(ctx, plan, cleanup)
	if err != nil {
		return nil, err
	}

	// Overlay passes run on the merged cut, text first so the logo stays
	// on top.
	if len(spec.TextOverlays) > 0 {
		if merged, err = e.runTextOverlays(ctx, merged, spec.TextOverlays, cleanup); err != nil {
			return nil, err
		}
	}
	if spec.Logo != nil {
		if merged, err = e.runLogoOverlay(ctx, merged, spec.Logo, cleanup); err != nil {
			return nil, err
		}
	}

	video, err := e.upload(ctx, spec.StoryID, spec.OutputName, merged, plan.TotalDuration())
	if err != nil {
		return nil, err
	}
	return &model.MergeResponse{
		Video: video,
		ExecutionMessage: fmt.Sprintf("merged %d segment(s) into %s",
			len(plan.Segments), video.Name),
	}, nil
}

// ApplyTextOverlays composites text overlays onto an existing story video
// and uploads the result as a new clip.
func (e *Engine) ApplyTextOverlays(ctx context.Context, storyID string, video *model.VideoReference, overlays []model.TextOverlay) (*model.VideoReference, error) {
	cleanup := newTempSet()
	defer cleanup.removeAll()

	local, err := e.Storage.DownloadToTempFile(ctx, video.GCSURI)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch video %s: %w", video.ID, err)
	}
	cleanup.add(local)

	out, err := e.runTextOverlays(ctx, local, overlays, cleanup)
	if err != nil {
		return nil, err
	}
	return e.upload(ctx, storyID, derivedName(video.Name, "text"), out, video.DurationSeconds)
}

// ApplyLogoOverlay composites a logo onto an existing story video and
// uploads the result as a new clip.
func (e *Engine) ApplyLogoOverlay(ctx context.Context, storyID string, video *model.VideoReference, logo *model.LogoOverlay) (*model.VideoReference, error) {
	cleanup := newTempSet()
	defer cleanup.removeAll()

	local, err := e.Storage.DownloadToTempFile(ctx, video.GCSURI)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch video %s: %w", video.ID, err)
	}
	cleanup.add(local)

	out, err := e.runLogoOverlay(ctx, local, logo, cleanup)
	if err != nil {
		return nil, err
	}
	return e.upload(ctx, storyID, derivedName(video.Name, "logo"), out, video.DurationSeconds)
}

// fetchSegments downloads every planned clip in parallel, filling each
// segment's LocalPath. The first failure cancels the remaining fetches.
func (e *Engine) fetchSegments(ctx context.Context, plan *Plan, cleanup *tempSet) error {
	eg, egCtx := errgroup.WithContext(ctx)
	for _, seg := range plan.Segments {
		eg.Go(func() error {
			path, err := e.Storage.DownloadToTempFile(egCtx, seg.Video.GCSURI)
			if err != nil {
				return fmt.Errorf("failed to fetch segment %s: %w", seg.Label, err)
			}
			cleanup.add(path)
			seg.LocalPath = path
			return nil
		})
	}
	return eg.Wait()
}

// runMerge executes the trim-and-combine pass over the fetched clips and
// returns the path of the merged intermediate.
func (e *Engine) runMerge(ctx context.Context, plan *Plan, cleanup *tempSet) (string, error) {
	out, err := cleanup.newFile()
	if err != nil {
		return "", err
	}

	graph, final := BuildFilterGraph(plan)
	args := make([]string, 0, 2*len(plan.Segments)+10)
	args = append(args, "-y")
	for _, seg := range plan.Segments {
		args = append(args, "-i", seg.LocalPath)
	}
	args = append(args,
		"-filter_complex", graph,
		"-map", "["+final+"]",
		"-c:v", "libx264", "-pix_fmt", "yuv420p",
		out)
	return out, e.run(ctx, args)
}

// runTextOverlays applies all text overlays in one drawtext chain.
func (e *Engine) runTextOverlays(ctx context.Context, input string, overlays []model.TextOverlay, cleanup *tempSet) (string, error) {
	out, err := cleanup.newFile()
	if err != nil {
		return "", err
	}
	filters := make([]string, len(overlays))
	for i := range overlays {
		filters[i] = TextOverlayFilter(&overlays[i])
	}
	args := []string{"-y", "-i", input,
		"-vf", strings.Join(filters, ","),
		"-c:v", "libx264", "-pix_fmt", "yuv420p", "-c:a", "copy",
		out}
	return out, e.run(ctx, args)
}

// runLogoOverlay fetches the logo image and composites it over the video.
func (e *Engine) runLogoOverlay(ctx context.Context, input string, logo *model.LogoOverlay, cleanup *tempSet) (string, error) {
	if logo.Image == nil || logo.Image.GCSURI == "" {
		return "", fmt.Errorf("logo overlay requires an image reference")
	}
	logoPath, err := e.Storage.DownloadToTempFile(ctx, logo.Image.GCSURI)
	if err != nil {
		return "", fmt.Errorf("failed to fetch logo image %s: %w", logo.Image.ID, err)
	}
	cleanup.add(logoPath)

	out, err := cleanup.newFile()
	if err != nil {
		return "", err
	}
	args := []string{"-y", "-i", input, "-i", logoPath,
		"-filter_complex", LogoOverlayGraph(logo),
		"-map", "[out]", "-map", "0:a?",
		"-c:v", "libx264", "-pix_fmt", "yuv420p", "-c:a", "copy",
		out}
	return out, e.run(ctx, args)
}

// upload pushes the final cut into the story's video folder and returns
// its reference with a fresh signed URL.
func (e *Engine) upload(ctx context.Context, storyID, outputName, localPath string, duration float64) (*model.VideoReference, error) {
	name := outputName
	if name == "" {
		name = fmt.Sprintf("merged_%s.mp4", uuid.NewString())
	} else if !strings.HasSuffix(name, ".mp4") {
		name += ".mp4"
	}
	objectName := fmt.Sprintf("%s/videos/%s", storyID, name)
	gcsURI, err := e.Storage.UploadFile(ctx, localPath, objectName, model.MimeTypeMP4)
	if err != nil {
		return nil, fmt.Errorf("failed to upload merged video: %w", err)
	}

	video := &model.VideoReference{
		ID:              uuid.NewString(),
		Name:            name,
		GCSURI:          gcsURI,
		MimeType:        model.MimeTypeMP4,
		DurationSeconds: duration,
	}
	if err = e.Storage.RefreshVideo(ctx, video); err != nil {
		slog.Warn("failed to sign merged video url", "video", video.Name, "error", err)
	}
	return video, nil
}

// run executes one ffmpeg invocation, folding the tail of stderr into the
// returned error so failures are actionable.
func (e *Engine) run(ctx context.Context, args []string) error {
	command := e.FFmpeg.CommandPath
	if command == "" {
		command = DefaultFFmpegCommand
	}
	slog.Debug("executing ffmpeg", "command", command, "args", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, command, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg failed: %w: %s", err, tailLines(stderr.String(), 8))
	}
	return nil
}

// tailLines returns the last n lines of s, where ffmpeg puts the actual
// failure reason.
func tailLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

// derivedName builds the object name for a clip derived from another.
func derivedName(base, suffix string) string {
	trimmed := strings.TrimSuffix(base, ".mp4")
	if trimmed == "" {
		trimmed = "video"
	}
	return fmt.Sprintf("%s_%s_%s.mp4", trimmed, suffix, uuid.NewString()[:8])
}

// tempSet tracks the intermediate files of one engine call so they are
// removed together. Parallel segment fetches add paths concurrently, so
// the slice is guarded by a mutex.
type tempSet struct {
	mu    sync.Mutex
	paths []string
}

func newTempSet() *tempSet {
	return &tempSet{}
}

func (t *tempSet) add(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.paths = append(t.paths, path)
}

// newFile creates a tracked temp file and returns its path.
func (t *tempSet) newFile() (string, error) {
	f, err := os.CreateTemp("", tempFilePattern)
	if err != nil {
		return "", err
	}
	if err = f.Close(); err != nil {
		return "", err
	}
	t.add(f.Name())
	return f.Name(), nil
}

func (t *tempSet) removeAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, p := range t.paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			slog.Warn("failed to remove temp file", "path", p, "error", err)
		}
	}
}

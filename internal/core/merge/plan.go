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

// Package merge implements the video assembly engine: planning which
// segments take part in a merge, trimming them to their cut windows,
// concatenating them with per-boundary transitions, compositing text and
// logo overlays, and extracting still frames.
//
// Planning is pure: BuildPlan turns a merge specification into an ordered
// plan without touching storage or ffmpeg, so the selection, trimming and
// transition rules are testable in isolation. Execution (fetching sources,
// driving ffmpeg, uploading the result) lives in engine.go.
package merge

import (
	"fmt"

	"github.com/jaycherian/gcp-go-dreamboard/internal/core/model"
)

// xfadeNames maps each transition to the ffmpeg xfade transition that
// renders it. CONCATENATE is absent: it is a plain boundary with no
// overlap.
var xfadeNames = map[model.VideoTransition]string{
	model.TransitionXFade:      "fade",
	model.TransitionWipe:       "wipeleft",
	model.TransitionZoom:       "zoomin",
	model.TransitionZoomWarp:   "squeezeh",
	model.TransitionDipToBlack: "fadeblack",
	model.TransitionBlur:       "hblur",
	model.TransitionSlide:      "slideleft",
	model.TransitionSlideWarp:  "smoothleft",
	model.TransitionFlicker:    "pixelize",
}

// XFadeName returns the ffmpeg xfade transition name for t. ok is false
// for CONCATENATE and unknown transitions, which are rendered as plain
// boundaries.
func XFadeName(t model.VideoTransition) (string, bool) {
	name, ok := xfadeNames[t]
	return name, ok
}

// PlanSegment is one included clip of a merge plan.
type PlanSegment struct {
	Label      string                // Stable "scene_segN" label for error reporting.
	Video      *model.VideoReference // The clip to merge.
	StartSec   *float64              // Cut window start, nil means from the beginning.
	EndSec     *float64              // Cut window end, nil means to the end.
	Transition model.VideoTransition // Applied at the boundary into the next plan segment.
	LocalPath  string                // Filled by the engine after fetch.
}

// Duration returns the effective clip length in seconds after trimming.
func (p *PlanSegment) Duration() float64 {
	total := p.Video.DurationSeconds
	start := 0.0
	if p.StartSec != nil {
		start = *p.StartSec
	}
	end := total
	if p.EndSec != nil && (*p.EndSec < total || total == 0) {
		end = *p.EndSec
	}
	if end <= start {
		return 0
	}
	return end - start
}

// Plan is an ordered, validated merge plan.
type Plan struct {
	Segments           []*PlanSegment
	TransitionDuration float64
}

// Empty reports whether the plan has nothing to merge: the spec had no
// entries, or every entry was excluded.
func (p *Plan) Empty() bool {
	return len(p.Segments) == 0
}

// TotalDuration returns the length of the merged output in seconds: the
// sum of the trimmed clips minus the overlap consumed by each visual
// transition.
func (p *Plan) TotalDuration() float64 {
	var total float64
	for i, seg := range p.Segments {
		total += seg.Duration()
		if i < len(p.Segments)-1 {
			if _, ok := XFadeName(seg.Transition); ok {
				total -= p.TransitionDuration
			}
		}
	}
	if total < 0 {
		return 0
	}
	return total
}

// BuildPlan filters the merge spec down to its included entries,
// preserving order, and resolves each entry's cut window to seconds.
// Transitions stay attached to their segment: the transition of segment i
// applies at the boundary into segment i+1, so excluding a middle segment
// carries the surviving segment's own transition to its new neighbor. The
// last included segment's transition is never rendered.
//
// An included entry without a generated clip fails the whole plan,
// reporting the offending segment.
func BuildPlan(spec *model.MergeSpec) (*Plan, error) {
	duration := spec.TransitionDuration
	if duration <= 0 {
		duration = model.DefaultTransitionDuration
	}
	plan := &Plan{TransitionDuration: duration}

	for _, entry := range spec.Entries {
		if !entry.Include {
			continue
		}
		seg := entry.Segment
		label := model.SegmentLabel(seg.SceneID, seg.SegmentNumber)
		video := seg.SelectedVideo()
		if video == nil {
			return nil, fmt.Errorf("segment %s is included but has no generated video", label)
		}
		start, end := seg.Cut.Window(effectiveFPS(seg, video))
		plan.Segments = append(plan.Segments, &PlanSegment{
			Label:      label,
			Video:      video,
			StartSec:   start,
			EndSec:     end,
			Transition: entry.Transition,
		})
	}
	return plan, nil
}

// effectiveFPS picks the frame rate used to convert frame-based cut
// windows: the clip's own rate when known, falling back to the segment
// request.
func effectiveFPS(seg *model.VideoSegment, video *model.VideoReference) float64 {
	if video.FramesPerSec > 0 {
		return video.FramesPerSec
	}
	return seg.FramesPerSec
}

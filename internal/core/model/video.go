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

// This file defines the video production side of the model: generation
// segments, merge specifications with transitions, text and logo overlays,
// and frame extraction requests.

package model

import "fmt"

// VideoTransition names the visual transition applied at a segment
// boundary during a merge.
type VideoTransition string

const (
	TransitionXFade       VideoTransition = "X_FADE"
	TransitionWipe        VideoTransition = "WIPE"
	TransitionZoom        VideoTransition = "ZOOM"
	TransitionZoomWarp    VideoTransition = "ZOOM_WARP"
	TransitionDipToBlack  VideoTransition = "DIP_TO_BLACK"
	TransitionConcatenate VideoTransition = "CONCATENATE"
	TransitionBlur        VideoTransition = "BLUR"
	TransitionSlide       VideoTransition = "SLIDE"
	TransitionSlideWarp   VideoTransition = "SLIDE_WARP"
	TransitionFlicker     VideoTransition = "FLICKER"
)

// DefaultTransitionDuration is the boundary overlap, in seconds, used when
// a merge spec does not override it.
const DefaultTransitionDuration = 1.0

// GenerationTaskKind identifies which generation operation a segment asks
// for. The kind decides which inputs are required.
type GenerationTaskKind string

const (
	TaskTextToVideo           GenerationTaskKind = "TEXT_TO_VIDEO"
	TaskImageToVideo          GenerationTaskKind = "IMAGE_TO_VIDEO"           // Requires at least one seed image.
	TaskMultiImageToVideo     GenerationTaskKind = "MULTI_IMAGE_TO_VIDEO"     // Seed images act as subject references.
	TaskFirstLastFrameToVideo GenerationTaskKind = "FIRST_LAST_FRAME_VIDEO"   // Requires at least two seed images.
	TaskVideoExtend           GenerationTaskKind = "VIDEO_EXTEND"             // Requires at least one prior video.
	TaskImageGenerate         GenerationTaskKind = "IMAGE_GENERATE"
	TaskImageEdit             GenerationTaskKind = "IMAGE_EDIT"
	TaskTextGenerate          GenerationTaskKind = "TEXT_GENERATE"
)

// CutWindow trims a generated segment before it enters a merge. Seconds
// are canonical; frame values are converted using the segment frame rate
// only when the seconds fields are absent.
type CutWindow struct {
	StartSeconds *float64 `json:"start_seconds,omitempty" firestore:"start_seconds"`
	EndSeconds   *float64 `json:"end_seconds,omitempty" firestore:"end_seconds"`
	StartFrame   *int     `json:"start_frame,omitempty" firestore:"start_frame"`
	EndFrame     *int     `json:"end_frame,omitempty" firestore:"end_frame"`
}

// Window resolves the cut to a [start, end) pair in seconds. A nil bound
// means "unbounded on that side". Seconds win when both units are present.
func (c *CutWindow) Window(fps float64) (start, end *float64) {
	if c == nil {
		return nil, nil
	}
	start, end = c.StartSeconds, c.EndSeconds
	if start == nil && c.StartFrame != nil && fps > 0 {
		s := float64(*c.StartFrame) / fps
		start = &s
	}
	if end == nil && c.EndFrame != nil && fps > 0 {
		e := float64(*c.EndFrame) / fps
		end = &e
	}
	return start, end
}

// VideoSegment is one generated clip of a story scene, carrying both the
// generation request parameters and the produced media.
type VideoSegment struct {
	SceneID          string             `json:"scene_id" firestore:"scene_id"`
	SegmentNumber    int                `json:"segment_number" firestore:"segment_number"`
	Model            string             `json:"model" firestore:"model"` // Veo model name override, empty uses the configured default.
	Kind             GenerationTaskKind `json:"kind" firestore:"kind"`
	Prompt           string             `json:"prompt" firestore:"prompt"`
	NegativePrompt   string             `json:"negative_prompt" firestore:"negative_prompt"`
	SeedImages       []*ImageReference  `json:"seed_images,omitempty" firestore:"seed_images"`
	SourceVideos     []*VideoReference  `json:"source_videos,omitempty" firestore:"source_videos"` // Prior clips for VIDEO_EXTEND.
	DurationSeconds  int                `json:"duration_seconds" firestore:"duration_seconds"`
	FramesPerSec     float64            `json:"frames_per_second" firestore:"frames_per_second"`
	AspectRatio      string             `json:"aspect_ratio" firestore:"aspect_ratio"`
	Resolution       string             `json:"resolution" firestore:"resolution"`
	PersonGeneration string             `json:"person_generation" firestore:"person_generation"`
	SampleCount      int                `json:"sample_count" firestore:"sample_count"`
	Seed             *int32             `json:"seed,omitempty" firestore:"seed"`
	GenerateAudio    bool               `json:"generate_audio" firestore:"generate_audio"`
	EnhancePrompt    bool               `json:"enhance_prompt" firestore:"enhance_prompt"`
	Regenerate       bool               `json:"regenerate" firestore:"regenerate"` // When false and videos exist, generation is skipped.
	Cut              *CutWindow         `json:"cut,omitempty" firestore:"cut"`
	Videos           []*VideoReference  `json:"videos,omitempty" firestore:"videos"` // Generated output, newest last.
}

// SelectedVideo returns the clip a merge should use for this segment:
// the most recently generated one.
func (s *VideoSegment) SelectedVideo() *VideoReference {
	if len(s.Videos) == 0 {
		return nil
	}
	return s.Videos[len(s.Videos)-1]
}

// MergeEntry is one row of a merge specification.
type MergeEntry struct {
	Segment    *VideoSegment   `json:"segment" firestore:"segment"`
	Include    bool            `json:"include" firestore:"include"`       // Excluded entries are dropped before planning.
	Transition VideoTransition `json:"transition" firestore:"transition"` // Applied at the boundary into the next included entry.
}

// MergeSpec is an ordered list of segments with per-boundary transitions
// plus the overlays composited onto the final cut.
type MergeSpec struct {
	StoryID            string        `json:"story_id" binding:"required"`
	Entries            []MergeEntry  `json:"entries"`
	TransitionDuration float64       `json:"transition_duration"` // Seconds. 0 uses DefaultTransitionDuration.
	TextOverlays       []TextOverlay `json:"text_overlays,omitempty"`
	Logo               *LogoOverlay  `json:"logo,omitempty"`
	OutputName         string        `json:"output_name"` // Object base name for the merged video, empty generates one.
}

// OverlayPosition anchors an overlay to a named screen region or, when
// both coordinates are set, to explicit positions. Coordinate values in
// (0, 1] are treated as frame fractions, larger values as pixels.
type OverlayPosition struct {
	Anchor string   `json:"anchor"` // One of: top-left, top-center, top-right, center, bottom-left, bottom-center, bottom-right.
	X      *float64 `json:"x,omitempty"`
	Y      *float64 `json:"y,omitempty"`
}

// TextOverlay is a drawtext pass over the merged video.
type TextOverlay struct {
	Text            string          `json:"text" binding:"required"`
	FontFile        string          `json:"font_file"`
	FontSize        int             `json:"font_size"`
	FontColor       string          `json:"font_color"`
	StrokeColor     string          `json:"stroke_color"`
	StrokeWidth     int             `json:"stroke_width"`
	BoxColor        string          `json:"box_color"` // Background box, empty disables the box.
	Position        OverlayPosition `json:"position"`
	StartSeconds    float64         `json:"start_seconds"`
	DurationSeconds float64         `json:"duration_seconds"` // 0 keeps the text for the rest of the video.
	FadeSeconds     float64         `json:"fade_seconds"`     // Alpha ramp at both ends.
}

// LogoOverlay composites a scaled image on top of the video.
type LogoOverlay struct {
	Image           *ImageReference `json:"image" binding:"required"`
	Width           int             `json:"width"` // Target width in pixels, height keeps aspect.
	Position        OverlayPosition `json:"position"`
	StartSeconds    float64         `json:"start_seconds"`
	DurationSeconds float64         `json:"duration_seconds"`
	Opacity         float64         `json:"opacity"` // 0 means fully opaque (unset).
}

// FrameExtractionRequest asks for Count still frames starting at
// TimeSeconds, sampled at the extraction frame rate.
type FrameExtractionRequest struct {
	Video       *VideoReference `json:"video" binding:"required"`
	TimeSeconds float64         `json:"time_seconds"`
	Count       int             `json:"count"`
}

// SegmentLabel renders the stable "scene/segment" label used in logs and
// output object names.
func SegmentLabel(sceneID string, segmentNumber int) string {
	return fmt.Sprintf("%s_seg%d", sceneID, segmentNumber)
}

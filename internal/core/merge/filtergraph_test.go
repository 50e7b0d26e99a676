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

package merge_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/gcp-go-dreamboard/internal/core/merge"
	"github.com/jaycherian/gcp-go-dreamboard/internal/core/model"
)

func planOf(t *testing.T, spec *model.MergeSpec) *merge.Plan {
	t.Helper()
	plan, err := merge.BuildPlan(spec)
	require.NoError(t, err)
	return plan
}

func TestBuildFilterGraphSingleSegment(t *testing.T) {
	plan := planOf(t, &model.MergeSpec{
		StoryID: "story-1",
		Entries: []model.MergeEntry{entry("scene-1", 0, true, model.TransitionXFade, clip("a", 8))},
	})

	graph, final := merge.BuildFilterGraph(plan)
	assert.Equal(t, "[0:v]setpts=PTS-STARTPTS[v0]", graph)
	assert.Equal(t, "v0", final)
}

func TestBuildFilterGraphXFadeBoundary(t *testing.T) {
	plan := planOf(t, &model.MergeSpec{
		StoryID:            "story-1",
		TransitionDuration: 1,
		Entries: []model.MergeEntry{
			entry("scene-1", 0, true, model.TransitionXFade, clip("a", 8)),
			entry("scene-2", 0, true, model.TransitionXFade, clip("b", 8)),
		},
	})

	graph, final := merge.BuildFilterGraph(plan)
	assert.Equal(t, "m1", final)
	parts := strings.Split(graph, ";")
	require.Len(t, parts, 3)
	assert.Equal(t, "[0:v]setpts=PTS-STARTPTS[v0]", parts[0])
	assert.Equal(t, "[1:v]setpts=PTS-STARTPTS[v1]", parts[1])
	// The transition begins one second before the end of the first clip.
	assert.Equal(t, "[v0][v1]xfade=transition=fade:duration=1:offset=7[m1]", parts[2])
}

func TestBuildFilterGraphCumulativeOffsets(t *testing.T) {
	plan := planOf(t, &model.MergeSpec{
		StoryID:            "story-1",
		TransitionDuration: 1,
		Entries: []model.MergeEntry{
			entry("scene-1", 0, true, model.TransitionXFade, clip("a", 8)),
			entry("scene-2", 0, true, model.TransitionDipToBlack, clip("b", 8)),
			entry("scene-3", 0, true, model.TransitionXFade, clip("c", 8)),
		},
	})

	graph, final := merge.BuildFilterGraph(plan)
	assert.Equal(t, "m2", final)
	// Second boundary starts at 8+8-1-1 = 14 seconds into the folded stream.
	assert.Contains(t, graph, "xfade=transition=fade:duration=1:offset=7[m1]")
	assert.Contains(t, graph, "[m1][v2]xfade=transition=fadeblack:duration=1:offset=14[m2]")
}

func TestBuildFilterGraphConcatBoundary(t *testing.T) {
	plan := planOf(t, &model.MergeSpec{
		StoryID: "story-1",
		Entries: []model.MergeEntry{
			entry("scene-1", 0, true, model.TransitionConcatenate, clip("a", 8)),
			entry("scene-2", 0, true, model.TransitionConcatenate, clip("b", 8)),
		},
	})

	graph, _ := merge.BuildFilterGraph(plan)
	assert.Contains(t, graph, "[v0][v1]concat=n=2:v=1:a=0[m1]")
	assert.NotContains(t, graph, "xfade")
}

func TestBuildFilterGraphTrimsCutWindows(t *testing.T) {
	e := entry("scene-1", 0, true, model.TransitionXFade, clip("a", 8))
	e.Segment.Cut = &model.CutWindow{StartSeconds: fptr(1.5), EndSeconds: fptr(4)}
	plan := planOf(t, &model.MergeSpec{StoryID: "story-1", Entries: []model.MergeEntry{e}})

	graph, _ := merge.BuildFilterGraph(plan)
	assert.Equal(t, "[0:v]trim=start=1.5:end=4,setpts=PTS-STARTPTS[v0]", graph)
}

func TestBuildFilterGraphClampsNegativeOffset(t *testing.T) {
	plan := planOf(t, &model.MergeSpec{
		StoryID:            "story-1",
		TransitionDuration: 2,
		Entries: []model.MergeEntry{
			entry("scene-1", 0, true, model.TransitionXFade, clip("a", 1)),
			entry("scene-2", 0, true, model.TransitionXFade, clip("b", 8)),
		},
	})

	graph, _ := merge.BuildFilterGraph(plan)
	assert.Contains(t, graph, "offset=0[m1]")
}

func TestXFadeNameCoversEveryVisualTransition(t *testing.T) {
	want := map[model.VideoTransition]string{
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
	for tr, name := range want {
		got, ok := merge.XFadeName(tr)
		require.True(t, ok, "transition %s", tr)
		assert.Equal(t, name, got)
	}
	_, ok := merge.XFadeName(model.TransitionConcatenate)
	assert.False(t, ok)
}

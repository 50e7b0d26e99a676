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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jaycherian/gcp-go-dreamboard/internal/core/merge"
	"github.com/jaycherian/gcp-go-dreamboard/internal/core/model"
)

func TestResolveTextPositionAnchors(t *testing.T) {
	x, y := merge.ResolveTextPosition(model.OverlayPosition{Anchor: "top-left"})
	assert.Equal(t, "10", x)
	assert.Equal(t, "10", y)

	x, y = merge.ResolveTextPosition(model.OverlayPosition{Anchor: "center"})
	assert.Equal(t, "(w-text_w)/2", x)
	assert.Equal(t, "(h-text_h)/2", y)

	// Unset and unknown anchors fall back to bottom-center.
	x, y = merge.ResolveTextPosition(model.OverlayPosition{})
	assert.Equal(t, "(w-text_w)/2", x)
	assert.Equal(t, "h-text_h-10", y)
	x2, y2 := merge.ResolveTextPosition(model.OverlayPosition{Anchor: "somewhere"})
	assert.Equal(t, x, x2)
	assert.Equal(t, y, y2)
}

func TestResolveTextPositionCoordinates(t *testing.T) {
	// Fractions scale with the frame, pixel values pass through.
	x, y := merge.ResolveTextPosition(model.OverlayPosition{X: fptr(0.1), Y: fptr(120)})
	assert.Equal(t, "w*0.1", x)
	assert.Equal(t, "120", y)
}

func TestResolveOverlayPositionDefaultsTopRight(t *testing.T) {
	x, y := merge.ResolveOverlayPosition(model.OverlayPosition{})
	assert.Equal(t, "W-w-10", x)
	assert.Equal(t, "10", y)

	x, y = merge.ResolveOverlayPosition(model.OverlayPosition{X: fptr(0.5), Y: fptr(0.9)})
	assert.Equal(t, "W*0.5", x)
	assert.Equal(t, "H*0.9", y)
}

func TestTextOverlayFilterDefaults(t *testing.T) {
	filter := merge.TextOverlayFilter(&model.TextOverlay{Text: "The End"})
	assert.Equal(t, "drawtext=text='The End':fontsize=48:fontcolor=white:x=(w-text_w)/2:y=h-text_h-10", filter)
}

func TestTextOverlayFilterStyling(t *testing.T) {
	filter := merge.TextOverlayFilter(&model.TextOverlay{
		Text:        "Chapter 1",
		FontFile:    "/fonts/Roboto.ttf",
		FontSize:    64,
		FontColor:   "yellow",
		StrokeColor: "black",
		StrokeWidth: 2,
		BoxColor:    "black@0.5",
		Position:    model.OverlayPosition{Anchor: "top-center"},
	})
	assert.Contains(t, filter, "fontfile=/fonts/Roboto.ttf")
	assert.Contains(t, filter, "fontsize=64")
	assert.Contains(t, filter, "fontcolor=yellow")
	assert.Contains(t, filter, "bordercolor=black:borderw=2")
	assert.Contains(t, filter, "box=1:boxcolor=black@0.5:boxborderw=8")
	assert.Contains(t, filter, "x=(w-text_w)/2:y=10")
}

func TestTextOverlayFilterTimingWindow(t *testing.T) {
	filter := merge.TextOverlayFilter(&model.TextOverlay{
		Text:            "intro",
		StartSeconds:    2,
		DurationSeconds: 3,
	})
	assert.Contains(t, filter, "enable='between(t,2,5)'")

	open := merge.TextOverlayFilter(&model.TextOverlay{Text: "outro", StartSeconds: 10})
	assert.Contains(t, open, "enable='gte(t,10)'")
}

func TestTextOverlayFilterFadeRamps(t *testing.T) {
	filter := merge.TextOverlayFilter(&model.TextOverlay{
		Text:            "fade me",
		StartSeconds:    1,
		DurationSeconds: 4,
		FadeSeconds:     0.5,
	})
	assert.Contains(t, filter, "alpha='min(1,min(max(0,(t-1)/0.5),max(0,(5-t)/0.5)))'")
}

func TestTextOverlayFilterEscapesSpecials(t *testing.T) {
	filter := merge.TextOverlayFilter(&model.TextOverlay{Text: `It's 50%: done\maybe`})
	assert.Contains(t, filter, `text='It\'s 50\%\: done\\maybe'`)
}

func TestLogoOverlayGraphDefaults(t *testing.T) {
	graph := merge.LogoOverlayGraph(&model.LogoOverlay{
		Image: &model.ImageReference{ID: "logo-1"},
	})
	assert.Equal(t, "[1:v]scale=200:-1[logo];[0:v][logo]overlay=x=W-w-10:y=10[out]", graph)
}

func TestLogoOverlayGraphOpacityAndWindow(t *testing.T) {
	graph := merge.LogoOverlayGraph(&model.LogoOverlay{
		Image:           &model.ImageReference{ID: "logo-1"},
		Width:           320,
		Opacity:         0.6,
		Position:        model.OverlayPosition{Anchor: "bottom-left"},
		StartSeconds:    1,
		DurationSeconds: 9,
	})
	assert.Contains(t, graph, "[1:v]scale=320:-1,format=rgba,colorchannelmixer=aa=0.6[logo]")
	assert.Contains(t, graph, "overlay=x=10:y=H-h-10:enable='between(t,1,10)'[out]")
}

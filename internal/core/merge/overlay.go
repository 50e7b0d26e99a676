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

// This file builds the compositing filters applied after a merge: text
// overlays via drawtext and a scaled logo via overlay. Positions resolve
// from named anchors or explicit coordinates; coordinate values in (0, 1]
// are frame fractions, larger values are pixels.

package merge

import (
	"fmt"
	"strings"

	"github.com/jaycherian/gcp-go-dreamboard/internal/core/model"
)

// textAnchors maps anchor names to drawtext x:y expressions. drawtext
// exposes the frame as w/h and the rendered text box as text_w/text_h.
var textAnchors = map[string][2]string{
	"top-left":      {"10", "10"},
	"top-center":    {"(w-text_w)/2", "10"},
	"top-right":     {"w-text_w-10", "10"},
	"center":        {"(w-text_w)/2", "(h-text_h)/2"},
	"bottom-left":   {"10", "h-text_h-10"},
	"bottom-center": {"(w-text_w)/2", "h-text_h-10"},
	"bottom-right":  {"w-text_w-10", "h-text_h-10"},
}

// overlayAnchors maps anchor names to overlay x:y expressions. overlay
// exposes the frame as W/H and the overlaid image as w/h.
var overlayAnchors = map[string][2]string{
	"top-left":      {"10", "10"},
	"top-center":    {"(W-w)/2", "10"},
	"top-right":     {"W-w-10", "10"},
	"center":        {"(W-w)/2", "(H-h)/2"},
	"bottom-left":   {"10", "H-h-10"},
	"bottom-center": {"(W-w)/2", "H-h-10"},
	"bottom-right":  {"W-w-10", "H-h-10"},
}

// ResolveTextPosition returns the drawtext x and y expressions for a
// position. Explicit coordinates win over the anchor; an unset position
// defaults to bottom-center.
func ResolveTextPosition(pos model.OverlayPosition) (string, string) {
	return resolve(pos, textAnchors, "w", "h", "bottom-center")
}

// ResolveOverlayPosition returns the overlay x and y expressions for a
// position. An unset position defaults to top-right.
func ResolveOverlayPosition(pos model.OverlayPosition) (string, string) {
	return resolve(pos, overlayAnchors, "W", "H", "top-right")
}

func resolve(pos model.OverlayPosition, anchors map[string][2]string, widthVar, heightVar, fallback string) (string, string) {
	if pos.X != nil && pos.Y != nil {
		return coordExpr(*pos.X, widthVar), coordExpr(*pos.Y, heightVar)
	}
	if xy, ok := anchors[pos.Anchor]; ok {
		return xy[0], xy[1]
	}
	xy := anchors[fallback]
	return xy[0], xy[1]
}

// coordExpr renders one coordinate: fractions scale with the frame,
// pixel values pass through.
func coordExpr(v float64, sizeVar string) string {
	if v > 0 && v <= 1 {
		return fmt.Sprintf("%s*%s", sizeVar, formatSeconds(v))
	}
	return formatSeconds(v)
}

// TextOverlayFilter renders one drawtext filter from an overlay spec.
func TextOverlayFilter(o *model.TextOverlay) string {
	x, y := ResolveTextPosition(o.Position)
	args := []string{
		fmt.Sprintf("text='%s'", escapeDrawtext(o.Text)),
	}
	if o.FontFile != "" {
		args = append(args, fmt.Sprintf("fontfile=%s", o.FontFile))
	}
	size := o.FontSize
	if size <= 0 {
		size = 48
	}
	color := o.FontColor
	if color == "" {
		color = "white"
	}
	args = append(args, fmt.Sprintf("fontsize=%d", size), fmt.Sprintf("fontcolor=%s", color))
	if o.StrokeColor != "" && o.StrokeWidth > 0 {
		args = append(args, fmt.Sprintf("bordercolor=%s", o.StrokeColor), fmt.Sprintf("borderw=%d", o.StrokeWidth))
	}
	if o.BoxColor != "" {
		args = append(args, "box=1", fmt.Sprintf("boxcolor=%s", o.BoxColor), "boxborderw=8")
	}
	args = append(args, fmt.Sprintf("x=%s", x), fmt.Sprintf("y=%s", y))

	if o.FadeSeconds > 0 {
		args = append(args, fmt.Sprintf("alpha='%s'", fadeAlphaExpr(o)))
	}
	if enable := enableExpr(o.StartSeconds, o.DurationSeconds); enable != "" {
		args = append(args, enable)
	}
	return "drawtext=" + strings.Join(args, ":")
}

// fadeAlphaExpr ramps the text alpha in over FadeSeconds at the start of
// the window and out again at its end.
func fadeAlphaExpr(o *model.TextOverlay) string {
	start := formatSeconds(o.StartSeconds)
	fade := formatSeconds(o.FadeSeconds)
	if o.DurationSeconds <= 0 {
		return fmt.Sprintf("min(1,max(0,(t-%s)/%s))", start, fade)
	}
	end := formatSeconds(o.StartSeconds + o.DurationSeconds)
	return fmt.Sprintf("min(1,min(max(0,(t-%s)/%s),max(0,(%s-t)/%s)))", start, fade, end, fade)
}

// enableExpr limits a filter to the [start, start+duration) window. An
// empty string means the filter is always on.
func enableExpr(start, duration float64) string {
	if start <= 0 && duration <= 0 {
		return ""
	}
	if duration <= 0 {
		return fmt.Sprintf("enable='gte(t,%s)'", formatSeconds(start))
	}
	return fmt.Sprintf("enable='between(t,%s,%s)'", formatSeconds(start), formatSeconds(start+duration))
}

// LogoOverlayGraph renders the filter_complex for compositing a logo
// image (input 1) over a video (input 0).
func LogoOverlayGraph(o *model.LogoOverlay) string {
	width := o.Width
	if width <= 0 {
		width = 200
	}
	scale := fmt.Sprintf("[1:v]scale=%d:-1", width)
	if o.Opacity > 0 && o.Opacity < 1 {
		scale += fmt.Sprintf(",format=rgba,colorchannelmixer=aa=%s", formatSeconds(o.Opacity))
	}
	scale += "[logo]"

	x, y := ResolveOverlayPosition(o.Position)
	overlay := fmt.Sprintf("[0:v][logo]overlay=x=%s:y=%s", x, y)
	if enable := enableExpr(o.StartSeconds, o.DurationSeconds); enable != "" {
		overlay += ":" + enable
	}
	overlay += "[out]"
	return scale + ";" + overlay
}

// escapeDrawtext escapes the characters drawtext treats specially inside
// a single-quoted text value.
func escapeDrawtext(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`, `:`, `\:`, `%`, `\%`)
	return r.Replace(s)
}

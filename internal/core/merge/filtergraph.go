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

// This file builds the ffmpeg filter_complex graph for a merge plan. The
// graph has two stages:
//
//  1. A trim stage per input: each clip is cut to its window and its
//     timestamps reset, producing labeled streams [v0], [v1], ...
//  2. A combine stage walking the boundaries left to right: an xfade
//     filter where the boundary has a visual transition, a plain concat
//     where it is CONCATENATE. Each step folds the accumulated stream
//     with the next trimmed input.
//
// xfade offsets are cumulative: a transition starts `duration` seconds
// before the end of the accumulated stream, and each xfade shortens the
// total by the same overlap.

package merge

import (
	"fmt"
	"strconv"
	"strings"
)

// BuildFilterGraph renders the filter_complex expression for the plan.
//
// Outputs:
//   - string: The graph, e.g. "[0:v]trim=...[v0];[1:v]trim=...[v1];[v0][v1]xfade=...[m1]".
//   - string: The label of the final video stream, without brackets.
func BuildFilterGraph(plan *Plan) (string, string) {
	var parts []string

	// Stage 1: trim and normalize every input.
	for i, seg := range plan.Segments {
		parts = append(parts, trimExpr(i, seg))
	}

	// Stage 2: fold the streams across each boundary.
	current := "v0"
	elapsed := plan.Segments[0].Duration()
	for i := 1; i < len(plan.Segments); i++ {
		prev := plan.Segments[i-1]
		next := plan.Segments[i]
		out := fmt.Sprintf("m%d", i)

		if name, ok := XFadeName(prev.Transition); ok {
			offset := elapsed - plan.TransitionDuration
			if offset < 0 {
				offset = 0
			}
			parts = append(parts, fmt.Sprintf("[%s][v%d]xfade=transition=%s:duration=%s:offset=%s[%s]",
				current, i, name, formatSeconds(plan.TransitionDuration), formatSeconds(offset), out))
			elapsed += next.Duration() - plan.TransitionDuration
		} else {
			parts = append(parts, fmt.Sprintf("[%s][v%d]concat=n=2:v=1:a=0[%s]", current, i, out))
			elapsed += next.Duration()
		}
		current = out
	}

	return strings.Join(parts, ";"), current
}

// trimExpr renders the trim stage for one input.
func trimExpr(index int, seg *PlanSegment) string {
	var trim []string
	if seg.StartSec != nil {
		trim = append(trim, "start="+formatSeconds(*seg.StartSec))
	}
	if seg.EndSec != nil {
		trim = append(trim, "end="+formatSeconds(*seg.EndSec))
	}
	if len(trim) == 0 {
		return fmt.Sprintf("[%d:v]setpts=PTS-STARTPTS[v%d]", index, index)
	}
	return fmt.Sprintf("[%d:v]trim=%s,setpts=PTS-STARTPTS[v%d]", index, strings.Join(trim, ":"), index)
}

// formatSeconds renders a duration without trailing zeros or exponent
// notation, keeping the filtergraph readable.
func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

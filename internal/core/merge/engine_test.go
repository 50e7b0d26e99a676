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

package merge

import (
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Segment fetches add their temp files from errgroup goroutines, so the
// set must hold every path added concurrently without losing any.
func TestTempSetAddIsSafeForConcurrentUse(t *testing.T) {
	const workers = 32
	const perWorker = 50

	set := newTempSet()
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				set.add(fmt.Sprintf("clip-%d-%d.mp4", w, i))
			}
		}(w)
	}
	wg.Wait()

	assert.Len(t, set.paths, workers*perWorker)

	sort.Strings(set.paths)
	seen := make(map[string]bool, len(set.paths))
	for _, p := range set.paths {
		assert.False(t, seen[p], "path %s recorded twice", p)
		seen[p] = true
	}
}

func TestDerivedName(t *testing.T) {
	name := derivedName("final_cut.mp4", "text")
	assert.Regexp(t, `^final_cut_text_[0-9a-f-]{8}\.mp4$`, name)

	name = derivedName("", "logo")
	assert.Regexp(t, `^video_logo_[0-9a-f-]{8}\.mp4$`, name)
}

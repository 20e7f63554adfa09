// Copyright © 2024 Rak Laptudirm <rak@laptudirm.com>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package util

import (
	"regexp"
	"sort"
	"strconv"
)

var chunkifyRegexp = regexp.MustCompile(`(\d+|\D+)`)

func chunkify(s string) []string {
	return chunkifyRegexp.FindAllString(s, -1)
}

// AlphanumCompare reports whether a sorts before b, comparing runs of
// digits by their numeric value so that Stockfish_900 < Stockfish_1400.
func AlphanumCompare(a, b string) bool {
	chunksA := chunkify(a)
	chunksB := chunkify(b)

	for i := range chunksA {
		if i >= len(chunksB) {
			// b is a prefix of a
			return false
		}

		if chunksA[i] == chunksB[i] {
			continue
		}

		aInt, aErr := strconv.Atoi(chunksA[i])
		bInt, bErr := strconv.Atoi(chunksB[i])

		// If both chunks are numeric, compare them as integers
		if aErr == nil && bErr == nil && aInt != bInt {
			return aInt < bInt
		}

		return chunksA[i] < chunksB[i]
	}

	return len(chunksA) < len(chunksB)
}

// AlphanumSort sorts the given strings in place in natural order.
func AlphanumSort(names []string) {
	sort.SliceStable(names, func(i, j int) bool {
		return AlphanumCompare(names[i], names[j])
	})
}

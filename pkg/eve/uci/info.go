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

package uci

import (
	"fmt"
	"strconv"
	"time"
)

// Limit is the budget given to the engine for a single search. The first
// non-zero field among Nodes, Depth, and MoveTime is used.
type Limit struct {
	MoveTime time.Duration `yaml:"move-time"`
	Nodes    int           `yaml:"nodes"`
	Depth    int           `yaml:"depth"`
}

// String returns the arguments of the go command for the limit.
func (limit Limit) String() string {
	switch {
	case limit.Nodes > 0:
		return fmt.Sprintf("nodes %d", limit.Nodes)
	case limit.Depth > 0:
		return fmt.Sprintf("depth %d", limit.Depth)
	default:
		return fmt.Sprintf("movetime %d", max(limit.MoveTime.Milliseconds(), 1))
	}
}

// timeout is the time after which an engine which hasn't returned a move
// is considered late.
func (limit Limit) timeout(grace time.Duration) time.Duration {
	if limit.Nodes > 0 || limit.Depth > 0 || limit.MoveTime <= 0 {
		return time.Minute
	}

	return limit.MoveTime + grace
}

// Info is the search information reported by the engine.
type Info struct {
	Depth int

	// Score is relative to the side to move, in centipawns unless Mate
	// is set, in which case it is the number of moves to mate.
	Score int
	Mate  bool

	// Scored reports whether the engine reported a score at all.
	Scored bool

	BestMove string
}

// parse updates the info from the fields of an info line.
func (info *Info) parse(fields []string) {
	for i := 0; i < len(fields); i++ {
		switch fields[i] {
		case "string":
			// rest of the line is free text
			return

		case "depth":
			if i+1 < len(fields) {
				if depth, err := strconv.Atoi(fields[i+1]); err == nil {
					info.Depth = depth
				}
				i++
			}

		case "score":
			if i+2 >= len(fields) {
				return
			}

			value, err := strconv.Atoi(fields[i+2])
			if err != nil {
				return
			}

			switch fields[i+1] {
			case "cp":
				info.Score, info.Mate, info.Scored = value, false, true
			case "mate":
				info.Score, info.Mate, info.Scored = value, true, true
			}

			i += 2

		case "pv":
			// the principal variation ends the line
			return
		}
	}
}

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

package match

import "github.com/notnil/chess"

// Result represents the result of a game for one of its players.
type Result int

const (
	Win  Result = +1
	Draw Result = 0
	Loss Result = -1
)

// String returns a string representation of the given Result.
func (result Result) String() string {
	switch result {
	case Win:
		return "win"
	case Draw:
		return "draw"
	case Loss:
		return "loss"
	default:
		return "?"
	}
}

// GameLostBy maps the losing side to the game's outcome.
var GameLostBy = map[chess.Color]chess.Outcome{
	chess.White: chess.BlackWon,
	chess.Black: chess.WhiteWon,
}

// GameWonBy maps the winning side to the game's outcome.
var GameWonBy = map[chess.Color]chess.Outcome{
	chess.White: chess.WhiteWon,
	chess.Black: chess.BlackWon,
}

// Termination is the way a game ended.
type Termination int

const (
	Ongoing   Termination = iota
	Natural               // ended by the rules of chess
	EarlyStop             // adjudicated from the evaluation
	Aborted               // stopped by a failure of one of the players
)

// String returns the PGN Termination tag value for the termination.
func (termination Termination) String() string {
	switch termination {
	case Natural:
		return "normal"
	case EarlyStop:
		return "adjudication"
	case Aborted:
		return "rules infraction"
	default:
		return "unterminated"
	}
}

// tag returns the Termination tag of a game with the given outcome.
func (termination Termination) tag(outcome chess.Outcome) string {
	if termination == Aborted && outcome == chess.NoOutcome {
		return "abandoned"
	}

	return termination.String()
}

// parseTermination parses a PGN Termination tag value.
func parseTermination(tag string) Termination {
	switch tag {
	case "normal":
		return Natural
	case "adjudication":
		return EarlyStop
	case "rules infraction", "abandoned":
		return Aborted
	default:
		return Ongoing
	}
}

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

// StartFEN is the standard starting position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// Record is the complete record of a single game.
type Record struct {
	ID string

	Event string
	Site  string
	Date  string // YYYY.MM.DD

	White, Black string

	Result chess.Outcome

	Start string   // fen of the starting position
	Moves []string // moves in standard algebraic notation

	Termination Termination
	Reason      string
}

// Plies returns the number of moves played in the game.
func (record Record) Plies() int {
	return len(record.Moves)
}

// Decided reports whether the game has a result.
func (record Record) Decided() bool {
	return record.Result != chess.NoOutcome && record.Result != ""
}

// ScoreFor returns the result of the game for the named player. It
// reports false if the player didn't play the game or if the game has no
// result.
func (record Record) ScoreFor(name string) (Result, bool) {
	switch name {
	case record.White:
		return record.ResultFor(chess.White)
	case record.Black:
		return record.ResultFor(chess.Black)
	default:
		return Draw, false
	}
}

// ResultFor returns the result of the game for the given side.
func (record Record) ResultFor(color chess.Color) (Result, bool) {
	white, ok := record.WhiteScore()
	if !ok {
		return Draw, false
	}

	if color == chess.Black {
		white = 1 - white
	}

	switch white {
	case 1:
		return Win, true
	case 0:
		return Loss, true
	default:
		return Draw, true
	}
}

// WhiteScore returns the points scored by White, and false if the game
// has no result.
func (record Record) WhiteScore() (float64, bool) {
	switch record.Result {
	case chess.WhiteWon:
		return 1, true
	case chess.BlackWon:
		return 0, true
	case chess.Draw:
		return 0.5, true
	default:
		return 0, false
	}
}

// Winner returns the name of the winner of the game, "draw" for drawn
// games, and "none" for games without a result.
func (record Record) Winner() string {
	switch record.Result {
	case chess.WhiteWon:
		return record.White
	case chess.BlackWon:
		return record.Black
	case chess.Draw:
		return "draw"
	default:
		return "none"
	}
}

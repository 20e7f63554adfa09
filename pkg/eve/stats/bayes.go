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

package stats

// Game is the outcome of a single game between two named players.
type Game struct {
	White, Black string

	// Score is the number of points scored by White: 1 for a win, 0.5 for
	// a draw, and 0 for a loss.
	Score float64
}

// Sequential estimates a player's rating by updating it game by game
// using the BayesElo win, draw, and loss probabilities.
type Sequential struct {
	Advantage float64 // elo advantage of moving first
	DrawElo   float64 // elo width of the draw region
	K         float64 // update step size
	Initial   float64 // starting estimate
}

// DefaultSequential uses the constants fit on engine games by BayesElo.
var DefaultSequential = Sequential{
	Advantage: 32.8,
	DrawElo:   97.3,
	K:         32,
	Initial:   0,
}

// Probabilities returns the probability of a white win, a draw, and a
// black win between players of the given ratings.
func (seq Sequential) Probabilities(white, black float64) (w float64, d float64, l float64) {
	w = expectedScore(black - white - seq.Advantage + seq.DrawElo)
	l = expectedScore(white - black + seq.Advantage + seq.DrawElo)
	d = 1 - w - l
	return w, d, l
}

// Trajectory is the result of a sequential estimation.
type Trajectory struct {
	Elo     float64   // final estimate
	History []float64 // estimate after each used game

	Used    int // games which updated the estimate
	Skipped int // games without the player or a rated opponent
}

// Estimate processes the games in order and returns the trajectory of the
// player's rating. Only the player's rating changes; opponents keep their
// known ratings. Games which do not involve the player, or are against an
// opponent without a known rating, are skipped.
func (seq Sequential) Estimate(games []Game, player string, ratings map[string]float64) Trajectory {
	trajectory := Trajectory{Elo: seq.Initial}

	for _, game := range games {
		var opponent string
		var white bool

		switch player {
		case game.White:
			opponent, white = game.Black, true
		case game.Black:
			opponent, white = game.White, false
		default:
			trajectory.Skipped++
			continue
		}

		rating, found := ratings[opponent]
		if !found || opponent == player {
			trajectory.Skipped++
			continue
		}

		var expected, observed float64
		if white {
			w, d, _ := seq.Probabilities(trajectory.Elo, rating)
			expected, observed = w+d/2, game.Score
		} else {
			_, d, l := seq.Probabilities(rating, trajectory.Elo)
			expected, observed = l+d/2, 1-game.Score
		}

		trajectory.Elo += seq.K * (observed - expected)
		trajectory.History = append(trajectory.History, trajectory.Elo)
		trajectory.Used++
	}

	return trajectory
}

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

import "math"

// Tally is the number of wins, draws, and losses scored by a player
// against a single opponent.
type Tally struct {
	Wins   int `json:"wins"`
	Draws  int `json:"draws"`
	Losses int `json:"losses"`
}

// Games returns the total number of games in the tally.
func (tally Tally) Games() int {
	return tally.Wins + tally.Draws + tally.Losses
}

// ScoreRate returns the fraction of points scored, counting a draw as
// half a point. An empty tally has a score rate of zero.
func (tally Tally) ScoreRate() float64 {
	n := tally.Games()
	if n == 0 {
		return 0
	}

	return (float64(tally.Wins) + float64(tally.Draws)/2) / float64(n)
}

// expectedScore is the logistic win probability of a player rated diff
// points below its opponent, f(Δ) = 1 / (1 + 10^(Δ/400)).
func expectedScore(diff float64) float64 {
	return 1 / (1 + math.Pow(10, diff/400))
}

func clampElo(x float64) float64 {
	switch {
	case x <= 0, x >= 1:
		return 0

	default:
		return -400 * math.Log10(1/x-1)
	}
}

func phiInv(p float64) float64 {
	return math.Sqrt2 * math.Erfinv(2*p-1)
}

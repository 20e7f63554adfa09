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

import (
	"math"

	"laptudirm.com/x/ladder/internal/util"
)

// Elo returns the likely elo difference of the target player along with
// its p < 0.05 upper bound and lower bound, called mu, muMax, and muMin
// respectively.
func Elo(ws, ds, ls int) (muMin float64, mu float64, muMax float64) {
	N := float64(ws + ds + ls) // total number of games

	if N == 0 {
		return 0, 0, 0
	}

	w := float64(ws) / N // measured win probability
	d := float64(ds) / N // measured draw probability
	l := float64(ls) / N // measured loss probability

	// empirical mean of random variable
	mu = w + d/2

	// standard deviation of the random variable
	sigma := math.Sqrt(w*math.Pow(1-mu, 2)+d*math.Pow(0.5-mu, 2)+l*math.Pow(0-mu, 2)) / math.Sqrt(N)

	muMax = mu + phiInv(0.975)*sigma // upper bound
	muMin = mu + phiInv(0.025)*sigma // lower bound

	return clampElo(muMin), clampElo(mu), clampElo(muMax)
}

// Score rates are clamped into this range before being inverted, so that
// a clean sweep still produces a finite estimate.
const (
	MinScoreRate = 0.01
	MaxScoreRate = 0.99
)

// EstimateElo inverts the logistic expected score formula to find the
// rating which would score the given rate against a player rated known.
//
//	elo = known - 400 * log10((1 - score) / score)
func EstimateElo(score, known float64) float64 {
	score = math.Min(math.Max(score, MinScoreRate), MaxScoreRate)
	return known - 400*math.Log10((1-score)/score)
}

// Performance is the estimated rating of a player from its games against
// a single opponent of known rating.
type Performance struct {
	Opponent string
	Rating   float64

	Tally

	Score float64 // points per game
	Elo   float64 // estimated rating
	Error float64 // 95% error margin of the estimate
}

// Estimate is a rating estimate derived from the performances against
// each opponent.
type Estimate struct {
	Performances []Performance

	// Opponents which have been skipped due to an unknown rating.
	Unrated []string

	// Elo is the arithmetic mean of the per-opponent estimates. This
	// ignores the variance of each estimate.
	Elo   float64
	Games int
}

// Valid reports whether at least one opponent contributed to the estimate.
func (estimate Estimate) Valid() bool {
	return len(estimate.Performances) > 0
}

// NewEstimate estimates the rating of a player from its tallies against
// opponents with known ratings. Opponents without any games are ignored,
// and opponents without a rating are listed as unrated.
func NewEstimate(tallies map[string]Tally, ratings map[string]float64) Estimate {
	var estimate Estimate

	names := make([]string, 0, len(tallies))
	for name := range tallies {
		names = append(names, name)
	}

	util.AlphanumSort(names)

	sum := 0.0
	for _, name := range names {
		tally := tallies[name]
		if tally.Games() == 0 {
			continue
		}

		rating, found := ratings[name]
		if !found {
			estimate.Unrated = append(estimate.Unrated, name)
			continue
		}

		score := tally.ScoreRate()
		lower, elo, upper := Elo(tally.Wins, tally.Draws, tally.Losses)

		performance := Performance{
			Opponent: name,
			Rating:   rating,
			Tally:    tally,
			Score:    score,
			Elo:      EstimateElo(score, rating),
			Error:    math.Abs(math.Max(upper-elo, elo-lower)),
		}

		sum += performance.Elo
		estimate.Games += tally.Games()
		estimate.Performances = append(estimate.Performances, performance)
	}

	if n := len(estimate.Performances); n > 0 {
		estimate.Elo = sum / float64(n)
	}

	return estimate
}

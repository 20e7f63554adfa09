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

package tournament

import (
	"laptudirm.com/x/ladder/pkg/eve/agent"
	"laptudirm.com/x/ladder/pkg/eve/match"
	"laptudirm.com/x/ladder/pkg/eve/stats"
)

// Tallies counts the results of player in the given records by opponent.
// Games without a result are ignored.
func Tallies(records []match.Record, player string) map[string]stats.Tally {
	tallies := make(map[string]stats.Tally)
	for _, record := range records {
		var opponent string
		switch player {
		case record.White:
			opponent = record.Black
		case record.Black:
			opponent = record.White
		default:
			continue
		}

		result, ok := record.ScoreFor(player)
		if !ok {
			continue
		}

		tally := tallies[opponent]
		switch result {
		case match.Win:
			tally.Wins++
		case match.Draw:
			tally.Draws++
		case match.Loss:
			tally.Losses++
		}

		tallies[opponent] = tally
	}

	return tallies
}

// Games converts the records with a result into games, in order.
func Games(records []match.Record) []stats.Game {
	games := make([]stats.Game, 0, len(records))
	for _, record := range records {
		if score, ok := record.WhiteScore(); ok {
			games = append(games, stats.Game{White: record.White, Black: record.Black, Score: score})
		}
	}

	return games
}

// Player finds the player who took part in every record. It reports false
// if there is no such player or if there is more than one.
func Player(records []match.Record) (string, bool) {
	if len(records) == 0 {
		return "", false
	}

	counts := make(map[string]int)
	for _, record := range records {
		counts[record.White]++
		if record.Black != record.White {
			counts[record.Black]++
		}
	}

	player, found := "", false
	for name, count := range counts {
		if count != len(records) {
			continue
		}

		if found {
			return "", false
		}

		player, found = name, true
	}

	return player, found
}

// Ratings collects the known ratings of the players in the records. The
// overrides take precedence over the ratings carried by the identities.
func Ratings(records []match.Record, overrides map[string]float64) map[string]float64 {
	ratings := make(map[string]float64)
	for _, record := range records {
		for _, name := range []string{record.White, record.Black} {
			spec, err := agent.ParseSpec(name)
			if err != nil {
				continue
			}

			if rating, found := agent.Rating(spec); found {
				ratings[name] = rating
			}
		}
	}

	for name, rating := range overrides {
		ratings[name] = rating
	}

	return ratings
}

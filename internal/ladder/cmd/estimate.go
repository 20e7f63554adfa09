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

package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"laptudirm.com/x/ladder/pkg/eve/match"
	"laptudirm.com/x/ladder/pkg/eve/stats"
	"laptudirm.com/x/ladder/pkg/eve/tournament"
)

func Estimate() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "estimate pgn-file...",
		Short: "Estimate a rating from recorded games",
		Args:  cobra.MinimumNArgs(1),
		Long: heredoc.Doc(`estimate reads the games in the given pgn files and
			estimates the rating of a player from them, both directly
			from the score against every opponent and sequentially,
			updating the rating game by game in the order they were
			played.

			The ratings of the opponents are taken from their names,
			like Stockfish_1500, or given with --rating. The player is
			the one who took part in every game unless --player is
			given.`),
		Example: heredoc.Doc(`
			ladder estimate ~/ladder/games/*.pgn
			ladder estimate games.pgn --player Ollama_llama3 --rating Skill_5=1250`),

		RunE: func(cmd *cobra.Command, args []string) error {
			var records []match.Record
			for _, file := range args {
				games, err := match.ReadPGNFile(file)
				if err != nil {
					return fmt.Errorf("%s: %w", file, err)
				}

				records = append(records, games...)
			}

			flags := cmd.Flags()

			player, _ := flags.GetString("player")
			if player == "" {
				var found bool
				if player, found = tournament.Player(records); !found {
					return errors.New("estimate: no player took part in every game, use --player")
				}
			}

			overrides, err := parseRatings(cmd)
			if err != nil {
				return err
			}

			ratings := tournament.Ratings(records, overrides)
			delete(ratings, player)

			estimate := stats.NewEstimate(tournament.Tallies(records, player), ratings)
			if err := tournament.WriteReport(os.Stdout, player, estimate); err != nil {
				return err
			}

			seq := stats.DefaultSequential
			seq.K, _ = flags.GetFloat64("k")
			seq.Initial, _ = flags.GetFloat64("initial")

			trajectory := seq.Estimate(tournament.Games(records), player, ratings)
			fmt.Printf(
				"Sequential estimate of %s: %.0f (%d games, %d skipped)\n",
				player, trajectory.Elo, trajectory.Used, trajectory.Skipped,
			)

			if history, _ := flags.GetBool("history"); history {
				for i, elo := range trajectory.History {
					fmt.Printf("%4d. %.0f\n", i+1, elo)
				}
			}

			return nil
		},
	}

	flags := cmd.Flags()
	flags.String("player", "", "Player whose rating is estimated")
	flags.StringToString("rating", nil, "Known ratings of opponents, as name=rating")
	flags.Float64("k", stats.DefaultSequential.K, "K factor of the sequential estimate")
	flags.Float64("initial", stats.DefaultSequential.Initial, "Initial rating of the sequential estimate")
	flags.Bool("history", false, "Print the sequential estimate after every game")

	return cmd
}

func parseRatings(cmd *cobra.Command) (map[string]float64, error) {
	values, _ := cmd.Flags().GetStringToString("rating")

	ratings := make(map[string]float64, len(values))
	for name, value := range values {
		rating, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("rating of %s: %w", name, err)
		}

		ratings[name] = rating
	}

	return ratings, nil
}

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
	"context"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"laptudirm.com/x/ladder/pkg/common"
	"laptudirm.com/x/ladder/pkg/eve/agent"
	"laptudirm.com/x/ladder/pkg/eve/tournament"
)

func Run() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [unknown-agent]",
		Short: "Estimate the rating of an agent against the reference ladder",
		Args:  cobra.MaximumNArgs(1),
		Long: heredoc.Doc(`run plays the unknown agent against every reference
			agent of the ladder and estimates its rating from the results.

			Agents are named as <family>_<parameter>. The supported
			families are Stockfish_<rating>, Skill_<0-20>, Ollama_<model>,
			Deepseek_<model> and OpenAI_<model>. The unknown agent can be
			given as an argument or in the configuration file.

			The games are stored in ~/ladder/games and a log of every
			game in ~/ladder/logs unless other files are configured.
			Interrupting the run stops it after the current games, and
			the estimate of the finished games is still reported.`),
		Example: heredoc.Doc(`
			ladder run Ollama_llama3.1:8b
			ladder run OpenAI_gpt-4o-mini --games 10 --opponents Stockfish_1400,Stockfish_1800
			ladder run --config my-ladder.yaml`),

		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			if len(args) > 0 {
				config.Unknown = args[0]
			}

			if err := applyRunFlags(cmd, &config); err != nil {
				return err
			}

			if config.PGNOut == "" {
				config.PGNOut = filepath.Join(common.GamesDirectory, timestamp()+".pgn")
			}

			if config.LogFile == "" {
				config.LogFile = filepath.Join(common.LogsDirectory, timestamp()+".log")
			}

			factory := agent.NewFactory(config.Settings, workerCommand())
			tour, err := tournament.NewTournament(config, factory)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			estimate, err := tour.Start(ctx)
			logrus.Infof("Games stored at %s", config.PGNOut)

			if err != nil && ctx.Err() != nil && estimate.Valid() {
				logrus.Warn("Interrupted, the estimate only covers the finished games")
				return nil
			}

			return err
		},
	}

	flags := cmd.Flags()
	flags.StringSlice("opponents", nil, "Identities of the reference agents")
	flags.Int("games", 0, "Number of games against every opponent")
	flags.Int("concurrency", 0, "Number of games played concurrently")
	flags.String("openings", "", "File with the opening positions, in fen or epd")
	flags.String("pgn-out", "", "File to store the games at")
	flags.String("log-file", "", "File to store the game log at")
	flags.Int("threshold", 0, "Evaluation in centipawns which ends a game early")
	flags.Bool("early-stop", true, "End games early on a decisive evaluation")
	flags.Int("max-plies", 0, "Adjudicate a draw after this many plies")
	addAgentFlags(cmd)

	return cmd
}

func applyRunFlags(cmd *cobra.Command, config *tournament.Config) error {
	flags := cmd.Flags()

	if flags.Changed("opponents") {
		config.Opponents, _ = flags.GetStringSlice("opponents")
	}

	if flags.Changed("games") {
		config.Games, _ = flags.GetInt("games")
	}

	if flags.Changed("concurrency") {
		config.Concurrency, _ = flags.GetInt("concurrency")
	}

	if flags.Changed("openings") {
		config.Openings.File, _ = flags.GetString("openings")
	}

	if flags.Changed("pgn-out") {
		config.PGNOut, _ = flags.GetString("pgn-out")
	}

	if flags.Changed("log-file") {
		config.LogFile, _ = flags.GetString("log-file")
	}

	if flags.Changed("threshold") {
		config.Threshold, _ = flags.GetInt("threshold")
	}

	if flags.Changed("early-stop") {
		config.EarlyStop, _ = flags.GetBool("early-stop")
	}

	if flags.Changed("max-plies") {
		config.MaxPlies, _ = flags.GetInt("max-plies")
	}

	return applyAgentFlags(cmd, &config.Settings)
}

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
	"fmt"
	"os"
	"os/signal"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"laptudirm.com/x/ladder/pkg/eve/agent"
	"laptudirm.com/x/ladder/pkg/eve/match"
)

func Play() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play white-agent black-agent",
		Short: "Play a single game between two agents",
		Args:  cobra.ExactArgs(2),
		Long: heredoc.Doc(`play plays a single game between two agents and prints
			it as pgn. It uses the same rules as run, so it is a quick
			way to check that an agent is set up properly.`),

		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			if err := applyAgentFlags(cmd, &config.Settings); err != nil {
				return err
			}

			// Parse both identities before starting anything.
			specs := make([]agent.Spec, 2)
			for i, identity := range args {
				if specs[i], err = agent.ParseSpec(identity); err != nil {
					return err
				}
			}

			factory := agent.NewFactory(config.Settings, workerCommand())

			var players [2]match.Player
			for i, spec := range specs {
				player, err := factory.New(spec)
				if err != nil {
					return fmt.Errorf("starting %s: %w", spec.Identity(), err)
				}
				defer player.Close()

				players[i] = match.Player{Name: spec.Identity(), Agent: player}
			}

			fen, _ := cmd.Flags().GetString("fen")
			if cmd.Flags().Changed("early-stop") {
				config.EarlyStop, _ = cmd.Flags().GetBool("early-stop")
			}

			runner := &match.Runner{
				Event:     config.Event,
				Site:      config.Site,
				Threshold: config.Threshold,
				MaxPlies:  config.MaxPlies,
			}

			if config.EarlyStop {
				evaluator, err := factory.NewEvaluator()
				if err != nil {
					return fmt.Errorf("starting evaluator: %w", err)
				}
				defer evaluator.Close()

				runner.Evaluator = evaluator
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			logrus.Infof("\x1b[33mStarting\x1b[0m %s vs %s", args[0], args[1])
			record, err := runner.Play(ctx, match.Game{
				ID:      uuid.NewString(),
				Opening: fen,
				White:   players[0],
				Black:   players[1],
			})

			fmt.Println(record.PGN())
			return err
		},
	}

	cmd.Flags().String("fen", "", "Starting position of the game")
	cmd.Flags().Bool("early-stop", true, "End the game early on a decisive evaluation")
	addAgentFlags(cmd)

	return cmd
}

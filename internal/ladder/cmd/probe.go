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
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/notnil/chess"
	"github.com/spf13/cobra"

	"laptudirm.com/x/ladder/internal/util"
	"laptudirm.com/x/ladder/pkg/eve/agent"
	"laptudirm.com/x/ladder/pkg/eve/match"
)

func Probe() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "probe agent",
		Short: "Check that an agent can be started and plays a move",
		Args:  cobra.ExactArgs(1),
		Long: heredoc.Doc(`probe starts the given agent, asks it for a move in the
			starting position (or the one given with --fen) and reports
			what it played and how long it took. Engines are also asked
			for an evaluation of the position.`),

		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			if err := applyAgentFlags(cmd, &config.Settings); err != nil {
				return err
			}

			spec, err := agent.ParseSpec(args[0])
			if err != nil {
				return err
			}

			fen, _ := cmd.Flags().GetString("fen")
			opening, err := chess.FEN(fen)
			if err != nil {
				return err
			}

			position := chess.NewGame(opening).Position()
			factory := agent.NewFactory(config.Settings, workerCommand())

			var player agent.Agent
			err = util.Working("Starting "+spec.Identity(), func() (err error) {
				player, err = factory.New(spec)
				return err
			})
			if err != nil {
				return err
			}
			defer player.Close()

			var move *chess.Move
			start := time.Now()
			err = util.Working("Thinking", func() (err error) {
				move, err = player.Play(context.Background(), position)
				return err
			})
			if err != nil {
				return err
			}

			fmt.Printf(
				"\x1b[32m%s\x1b[0m plays \x1b[33m%s\x1b[0m in %s\n",
				spec.Identity(), chess.AlgebraicNotation{}.Encode(position, move),
				time.Since(start).Round(time.Millisecond),
			)

			switch player := player.(type) {
			case agent.Evaluator:
				score, err := player.Evaluate(context.Background(), position)
				if err != nil {
					return err
				}

				fmt.Printf("Evaluation: %s\n", score)

			case *agent.Language:
				usage := player.Usage()
				fmt.Printf(
					"Tokens: %d prompt, %d generated (%d truncated)\n",
					usage.PromptTokens, usage.GeneratedTokens, usage.Truncated,
				)
			}

			return nil
		},
	}

	cmd.Flags().String("fen", match.StartFEN, "Position to probe")
	addAgentFlags(cmd)

	return cmd
}

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

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/notnil/chess"
	"github.com/sirupsen/logrus"

	"laptudirm.com/x/ladder/pkg/eve/agent"
)

// Defaults of a Runner.
const (
	DefaultEvent     = "ELO Eval"
	DefaultThreshold = 1300
)

// Player is an agent taking part in a game under a name.
type Player struct {
	Name  string
	Agent agent.Agent
}

// Game describes a game to be played.
type Game struct {
	ID string

	// Opening is the fen of the starting position, the standard
	// starting position if empty.
	Opening string

	White, Black Player
}

// Runner plays games between agents.
type Runner struct {
	Event string
	Site  string

	// Evaluator scores the position after every move, and the game is
	// stopped once the score is a mate or goes beyond Threshold
	// centipawns. Games are played to the end if it is nil.
	Evaluator agent.Evaluator
	Threshold int

	// MaxPlies adjudicates a draw after that many moves if non-zero.
	MaxPlies int

	// Now returns the time used for the Date tag.
	Now func() time.Time
}

// Play plays a single game and returns its record. A player which fails
// to produce a legal move forfeits the game. If the game could not be
// finished due to any other failure, the record of the unfinished game
// is returned along with the error.
func (runner *Runner) Play(ctx context.Context, game Game) (Record, error) {
	now := time.Now
	if runner.Now != nil {
		now = runner.Now
	}

	record := Record{
		ID:     game.ID,
		Event:  runner.Event,
		Site:   runner.Site,
		Date:   now().Format("2006.01.02"),
		White:  game.White.Name,
		Black:  game.Black.Name,
		Result: chess.NoOutcome,
		Start:  game.Opening,
	}

	if record.Event == "" {
		record.Event = DefaultEvent
	}

	if record.Start == "" {
		record.Start = StartFEN
	}

	opening, err := chess.FEN(record.Start)
	if err != nil {
		record.finish(chess.NoOutcome, Aborted, "invalid opening")
		return record, fmt.Errorf("match: opening %q: %w", record.Start, err)
	}

	board := chess.NewGame(opening)
	players := map[chess.Color]Player{
		chess.White: game.White,
		chess.Black: game.Black,
	}

	threshold := runner.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	for {
		if outcome, reason := adjudicate(board); outcome != chess.NoOutcome {
			record.finish(outcome, Natural, reason)
			return record, nil
		}

		if runner.Evaluator != nil && record.Plies() > 0 {
			score, err := runner.Evaluator.Evaluate(ctx, board.Position())
			if err != nil {
				record.finish(chess.NoOutcome, Aborted, "evaluator failure")
				return record, fmt.Errorf("match: evaluator: %w", err)
			}

			if score.Decisive(threshold) {
				toMove := board.Position().Turn()

				winner := toMove
				if !score.Winning() {
					winner = toMove.Other()
				}

				record.finish(GameWonBy[winner], EarlyStop, fmt.Sprintf("%s is winning (%s)", winner.Name(), score))
				return record, nil
			}
		}

		if runner.MaxPlies > 0 && record.Plies() >= runner.MaxPlies {
			record.finish(chess.Draw, EarlyStop, "ply limit")
			return record, nil
		}

		position := board.Position()
		side := position.Turn()
		player := players[side]

		move, err := player.Agent.Play(ctx, position)
		if err == nil {
			if move == nil {
				err = fmt.Errorf("%w: no move", agent.ErrIllegalMove)
			} else if legal := agent.LegalMove(position, move); legal == nil {
				err = fmt.Errorf("%w: %s", agent.ErrIllegalMove, move)
			} else {
				move = legal
			}
		}

		if err != nil {
			switch {
			case ctx.Err() != nil:
				record.finish(chess.NoOutcome, Aborted, "interrupted")
				return record, ctx.Err()

			case agent.IsForfeit(err):
				logrus.WithFields(logrus.Fields{
					"player": player.Name,
					"ply":    record.Plies() + 1,
				}).Warnf("forfeit: %v", err)

				record.finish(GameLostBy[side], Aborted, forfeitReason(side, err))
				return record, nil

			default:
				record.finish(chess.NoOutcome, Aborted, player.Name+" failed")
				return record, fmt.Errorf("match: %s: %w", player.Name, err)
			}
		}

		san := chess.AlgebraicNotation{}.Encode(position, move)
		if err := board.Move(move); err != nil {
			record.finish(chess.NoOutcome, Aborted, "move rejected")
			return record, fmt.Errorf("match: %s: %w", san, err)
		}

		record.Moves = append(record.Moves, san)
	}
}

func (record *Record) finish(outcome chess.Outcome, termination Termination, reason string) {
	record.Result = outcome
	record.Termination = termination
	record.Reason = reason
}

func forfeitReason(side chess.Color, err error) string {
	switch {
	case errors.Is(err, agent.ErrTimeout):
		return side.Name() + " forfeits on time"
	case errors.Is(err, agent.ErrIllegalMove):
		return side.Name() + " forfeits by illegal move"
	case errors.Is(err, agent.ErrExtraction):
		return side.Name() + " forfeits by malformed answer"
	default:
		return side.Name() + " forfeits by generation failure"
	}
}

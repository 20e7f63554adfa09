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
	"sort"
	"testing"
	"time"

	"github.com/notnil/chess"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"laptudirm.com/x/ladder/pkg/eve/agent"
)

// scriptedAgent plays its scripted moves in order and then falls back to
// the first legal move in UCI order. It counts the moves it was asked for.
type scriptedAgent struct {
	script []string
	plays  int
	closed bool
}

func (scripted *scriptedAgent) Play(_ context.Context, position *chess.Position) (*chess.Move, error) {
	scripted.plays++

	if len(scripted.script) > 0 {
		token := scripted.script[0]
		scripted.script = scripted.script[1:]
		return agent.DecodeMove(position, token)
	}

	return firstLegal(position)
}

func (scripted *scriptedAgent) Close() error {
	scripted.closed = true
	return nil
}

func firstLegal(position *chess.Position) (*chess.Move, error) {
	moves := position.ValidMoves()
	if len(moves) == 0 {
		return nil, agent.ErrNoLegalMove
	}

	sort.Slice(moves, func(i, j int) bool {
		return chess.UCINotation{}.Encode(position, moves[i]) < chess.UCINotation{}.Encode(position, moves[j])
	})

	return moves[0], nil
}

// brokenAgent fails every move with err.
type brokenAgent struct{ err error }

func (broken brokenAgent) Play(context.Context, *chess.Position) (*chess.Move, error) {
	return nil, broken.err
}

func (brokenAgent) Close() error { return nil }

// fixedAgent always plays the same move, legal or not.
type fixedAgent struct{ move *chess.Move }

func (fixed fixedAgent) Play(context.Context, *chess.Position) (*chess.Move, error) {
	return fixed.move, nil
}

func (fixedAgent) Close() error { return nil }

// scriptedEvaluator scores a position by the number of moves played.
type scriptedEvaluator struct {
	scriptedAgent
	scores map[int]agent.Score
	calls  int
}

func (evaluator *scriptedEvaluator) Evaluate(_ context.Context, position *chess.Position) (agent.Score, error) {
	evaluator.calls++
	return evaluator.scores[evaluator.calls], nil
}

type failingEvaluator struct{ scriptedAgent }

func (*failingEvaluator) Evaluate(context.Context, *chess.Position) (agent.Score, error) {
	return agent.Score{}, errors.New("evaluator crashed")
}

func fixedClock() time.Time {
	return time.Date(2025, time.March, 7, 12, 0, 0, 0, time.UTC)
}

func players(white, black agent.Agent) Game {
	return Game{
		White: Player{Name: "white", Agent: white},
		Black: Player{Name: "black", Agent: black},
	}
}

func TestPlayCheckmate(t *testing.T) {
	runner := &Runner{Now: fixedClock}

	record, err := runner.Play(context.Background(), players(
		&scriptedAgent{script: []string{"f2f3", "g2g4"}},
		&scriptedAgent{script: []string{"e7e5", "d8h4"}},
	))
	require.NoError(t, err)

	assert.Equal(t, chess.BlackWon, record.Result)
	assert.Equal(t, Natural, record.Termination)
	assert.Equal(t, "Black mates", record.Reason)
	assert.Equal(t, []string{"f3", "e5", "g4", "Qh4#"}, record.Moves)

	assert.Equal(t, DefaultEvent, record.Event)
	assert.Equal(t, "2025.03.07", record.Date)
	assert.Equal(t, "white", record.White)
	assert.Equal(t, "black", record.Black)
	assert.Equal(t, StartFEN, record.Start)
}

func TestPlayNaturalEnd(t *testing.T) {
	unknown := &scriptedAgent{script: []string{"e2e4"}}
	opponent := &scriptedAgent{}

	record, err := (&Runner{}).Play(context.Background(), Game{
		White: Player{Name: "unknown", Agent: unknown},
		Black: Player{Name: "opponent", Agent: opponent},
	})
	require.NoError(t, err)

	assert.Contains(t, []chess.Outcome{chess.WhiteWon, chess.BlackWon, chess.Draw}, record.Result)
	assert.Equal(t, Natural, record.Termination)
	assert.Equal(t, "e4", record.Moves[0])
	assert.Equal(t, unknown.plays+opponent.plays, record.Plies())

	// the record replays to the same result
	game := chess.NewGame()
	for _, move := range record.Moves {
		require.NoError(t, game.MoveStr(move))
	}

	outcome, _ := adjudicate(game)
	assert.Equal(t, record.Result, outcome)
}

func TestPlayEarlyStopOnMate(t *testing.T) {
	evaluator := &scriptedEvaluator{scores: map[int]agent.Score{
		// black to move after 1. e4, and black mates
		1: {Value: 3, Mate: true},
	}}

	runner := &Runner{Evaluator: evaluator}
	record, err := runner.Play(context.Background(), players(&scriptedAgent{}, &scriptedAgent{}))
	require.NoError(t, err)

	assert.Equal(t, chess.BlackWon, record.Result)
	assert.Equal(t, EarlyStop, record.Termination)
	assert.Equal(t, 1, record.Plies())
	assert.Equal(t, 1, evaluator.calls)
}

func TestPlayEarlyStopOnScore(t *testing.T) {
	for _, test := range []struct {
		name   string
		scores map[int]agent.Score
		plies  int
		want   chess.Outcome
	}{
		// odd calls have black to move, even calls white
		{"black winning", map[int]agent.Score{1: {Value: 1301}}, 1, chess.BlackWon},
		{"black losing", map[int]agent.Score{1: {Value: -1500}}, 1, chess.WhiteWon},
		{"white winning", map[int]agent.Score{1: {Value: 900}, 2: {Value: 2000}}, 2, chess.WhiteWon},
		{"white mated", map[int]agent.Score{1: {Value: 1300}, 2: {Value: -4, Mate: true}}, 2, chess.BlackWon},
	} {
		t.Run(test.name, func(t *testing.T) {
			runner := &Runner{Evaluator: &scriptedEvaluator{scores: test.scores}}

			record, err := runner.Play(context.Background(), players(&scriptedAgent{}, &scriptedAgent{}))
			require.NoError(t, err)

			assert.Equal(t, test.want, record.Result)
			assert.Equal(t, EarlyStop, record.Termination)
			assert.Equal(t, test.plies, record.Plies())
		})
	}
}

func TestPlayForfeits(t *testing.T) {
	e2e4, err := chess.UCINotation{}.Decode(chess.NewGame().Position(), "e2e4")
	require.NoError(t, err)

	for _, test := range []struct {
		name  string
		black agent.Agent
	}{
		{"illegal move", fixedAgent{move: e2e4}},
		{"no move", fixedAgent{}},
		{"malformed answer", brokenAgent{err: fmt.Errorf("%w: no <answer> tags", agent.ErrExtraction)}},
		{"timeout", brokenAgent{err: agent.ErrTimeout}},
		{"generation", brokenAgent{err: agent.ErrGeneration}},
		{"unparseable move", brokenAgent{err: fmt.Errorf("%w: %q", agent.ErrIllegalMove, "Zz9")}},
	} {
		t.Run(test.name, func(t *testing.T) {
			record, err := (&Runner{}).Play(context.Background(), players(&scriptedAgent{}, test.black))
			require.NoError(t, err)

			assert.Equal(t, chess.WhiteWon, record.Result)
			assert.Equal(t, Aborted, record.Termination)
			assert.Equal(t, 1, record.Plies())
			assert.Contains(t, record.Reason, "Black forfeits")

			result, ok := record.ScoreFor("black")
			assert.True(t, ok)
			assert.Equal(t, Loss, result)
		})
	}
}

func TestPlayWhiteForfeitsImmediately(t *testing.T) {
	record, err := (&Runner{}).Play(context.Background(), players(
		brokenAgent{err: agent.ErrTimeout}, &scriptedAgent{},
	))
	require.NoError(t, err)

	assert.Equal(t, chess.BlackWon, record.Result)
	assert.Zero(t, record.Plies())
	assert.Equal(t, "White forfeits on time", record.Reason)
}

func TestPlayEngineFailure(t *testing.T) {
	record, err := (&Runner{}).Play(context.Background(), players(
		&scriptedAgent{}, brokenAgent{err: errors.New("broken pipe")},
	))
	require.Error(t, err)

	assert.Equal(t, chess.NoOutcome, record.Result)
	assert.Equal(t, Aborted, record.Termination)
	assert.False(t, record.Decided())
}

func TestPlayEvaluatorFailure(t *testing.T) {
	runner := &Runner{Evaluator: &failingEvaluator{}}
	record, err := runner.Play(context.Background(), players(&scriptedAgent{}, &scriptedAgent{}))

	require.Error(t, err)
	assert.Equal(t, chess.NoOutcome, record.Result)
	assert.Equal(t, 1, record.Plies())
}

func TestPlayFromOpening(t *testing.T) {
	// black to move, and only one legal move which gets mated
	const opening = "7k/8/6KQ/8/8/8/8/8 b - - 10 40"

	runner := &Runner{}
	record, err := runner.Play(context.Background(), Game{
		Opening: opening,
		White:   Player{Name: "white", Agent: &scriptedAgent{script: []string{"h6g7"}}},
		Black:   Player{Name: "black", Agent: &scriptedAgent{}},
	})
	require.NoError(t, err)

	assert.Equal(t, opening, record.Start)
	assert.Equal(t, []string{"Kg8", "Qg7#"}, record.Moves)
	assert.Equal(t, chess.WhiteWon, record.Result)
}

func TestPlayInvalidOpening(t *testing.T) {
	_, err := (&Runner{}).Play(context.Background(), Game{Opening: "not a fen"})
	assert.Error(t, err)
}

func TestPlayMaxPlies(t *testing.T) {
	runner := &Runner{MaxPlies: 6}
	record, err := runner.Play(context.Background(), players(&scriptedAgent{}, &scriptedAgent{}))
	require.NoError(t, err)

	assert.Equal(t, chess.Draw, record.Result)
	assert.Equal(t, EarlyStop, record.Termination)
	assert.Equal(t, 6, record.Plies())
}

func TestPlayInterrupted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	record, err := (&Runner{}).Play(ctx, players(brokenAgent{err: agent.ErrGeneration}, &scriptedAgent{}))
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, record.Decided())
}

func TestScoreFor(t *testing.T) {
	record := Record{White: "a", Black: "b", Result: chess.WhiteWon}

	result, ok := record.ScoreFor("a")
	assert.True(t, ok)
	assert.Equal(t, Win, result)

	result, ok = record.ScoreFor("b")
	assert.True(t, ok)
	assert.Equal(t, Loss, result)

	_, ok = record.ScoreFor("c")
	assert.False(t, ok)

	record.Result = chess.Draw
	result, _ = record.ScoreFor("b")
	assert.Equal(t, Draw, result)
	assert.Equal(t, "draw", record.Winner())

	record.Result = chess.NoOutcome
	_, ok = record.ScoreFor("a")
	assert.False(t, ok)
}

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

// Package agent defines chess playing agents: engines speaking UCI and
// language models prompted with the position.
package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/notnil/chess"

	"laptudirm.com/x/ladder/pkg/eve/llm"
)

// Agent is a chess player. An Agent owns the process or session behind
// it and is used by a single goroutine at a time.
type Agent interface {
	// Play returns the agent's move in the given position. It returns
	// ErrNoLegalMove if the position has no legal moves.
	Play(ctx context.Context, position *chess.Position) (*chess.Move, error)

	// Close releases the agent's resources. Calling it again is a no-op.
	Close() error
}

// Evaluator is an agent which can also score positions.
type Evaluator interface {
	Agent

	// Evaluate returns the score of the position for the side to move.
	Evaluate(ctx context.Context, position *chess.Position) (Score, error)
}

var (
	ErrTimeout           = llm.ErrTimeout
	ErrGeneration        = llm.ErrGeneration
	ErrExtraction        = errors.New("agent: no move found in response")
	ErrIllegalMove       = errors.New("agent: illegal move")
	ErrNoLegalMove       = errors.New("agent: no legal moves in position")
	ErrUnsupportedConfig = errors.New("agent: unsupported configuration")
)

// IsForfeit reports whether err is a failure of the agent itself, which
// loses the game for it, rather than a failure of its environment.
func IsForfeit(err error) bool {
	return errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrGeneration) ||
		errors.Is(err, ErrExtraction) ||
		errors.Is(err, ErrIllegalMove)
}

// Score is the evaluation of a position relative to the side to move.
type Score struct {
	// Value is in centipawns, or the number of moves to mate if Mate is
	// set. Negative values favour the side not to move, and a mate in 0
	// means the side to move has been mated.
	Value int
	Mate  bool
}

// Winning reports whether the score favours the side to move.
func (score Score) Winning() bool {
	return score.Value > 0
}

// Decisive reports whether the score is a forced mate or is beyond the
// given centipawn threshold for either side.
func (score Score) Decisive(threshold int) bool {
	return score.Mate || score.Value > threshold || score.Value < -threshold
}

// String returns the score as #N for mates and in pawns otherwise.
func (score Score) String() string {
	if score.Mate {
		return fmt.Sprintf("#%d", score.Value)
	}

	return fmt.Sprintf("%+.2f", float64(score.Value)/100)
}

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

package agent

import (
	"context"
	"fmt"
	"strconv"

	"github.com/notnil/chess"

	"laptudirm.com/x/ladder/pkg/eve/uci"
)

// Search is an agent backed by a UCI engine.
type Search struct {
	engine *uci.Engine
	limit  uci.Limit
}

// NewSearch creates an agent which searches with the engine within the
// given limit on every move.
func NewSearch(engine *uci.Engine, limit uci.Limit) *Search {
	return &Search{engine: engine, limit: limit}
}

// StartSearch starts the configured engine with its strength limited as
// described by spec.
func StartSearch(config uci.Config, spec SearchSpec, limit uci.Limit) (*Search, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	options := make(map[string]string, len(config.Options)+2)
	for name, value := range config.Options {
		options[name] = value
	}

	switch {
	case spec.Rating > 0:
		options["UCI_LimitStrength"] = "true"
		options["UCI_Elo"] = strconv.Itoa(spec.Rating)
	case spec.Skill != nil:
		options["Skill Level"] = strconv.Itoa(*spec.Skill)
	}

	config.Options = options
	if spec.ID != "" {
		config.Name = spec.ID
	}

	engine, err := uci.Start(config)
	if err != nil {
		return nil, err
	}

	return NewSearch(engine, limit), nil
}

// Play implements Agent.
func (search *Search) Play(ctx context.Context, position *chess.Position) (*chess.Move, error) {
	info, err := search.search(ctx, position)
	if err != nil {
		return nil, err
	}

	switch info.BestMove {
	case "(none)", "0000":
		return nil, ErrNoLegalMove
	}

	move, err := chess.UCINotation{}.Decode(position, info.BestMove)
	if err != nil {
		return nil, fmt.Errorf("agent: %s played %q: %w", search.engine.Name(), info.BestMove, err)
	}

	return move, nil
}

// Evaluate implements Evaluator.
func (search *Search) Evaluate(ctx context.Context, position *chess.Position) (Score, error) {
	info, err := search.search(ctx, position)
	if err != nil {
		return Score{}, err
	}

	if !info.Scored {
		return Score{}, fmt.Errorf("agent: %s reported no score", search.engine.Name())
	}

	return Score{Value: info.Score, Mate: info.Mate}, nil
}

func (search *Search) search(ctx context.Context, position *chess.Position) (uci.Info, error) {
	if err := ctx.Err(); err != nil {
		return uci.Info{}, err
	}

	if len(position.ValidMoves()) == 0 {
		return uci.Info{}, ErrNoLegalMove
	}

	return search.engine.Go(position.String(), search.limit)
}

// Close implements Agent.
func (search *Search) Close() error {
	return search.engine.Close()
}
